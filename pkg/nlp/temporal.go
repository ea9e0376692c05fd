package nlp

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var (
	isoDateRe    = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	dottedDateRe = regexp.MustCompile(`\b(\d{1,2})[./](\d{1,2})[./](\d{4})\b`)
	dayMonthRe   = regexp.MustCompile(`\b(\d{1,2}) ([a-z]+)(?: (\d{4}))?`)

	clockRe     = regexp.MustCompile(`\b(\d{1,2})[:.](\d{2})\b`)
	halfHourRe  = regexp.MustCompile(`\b(\d{1,2}) ?bucuk\b`)
	saatHourRe  = regexp.MustCompile(`\bsaat (\d{1,2})\b`)
	bareHourRe  = regexp.MustCompile(`^(\d{1,2})(?:'?[dt][ae])?$`)
	explicitPMs = []string{"ogleden sonra", "aksam"}
)

var weekdays = map[string]time.Weekday{
	"pazartesi": time.Monday,
	"sali":      time.Tuesday,
	"carsamba":  time.Wednesday,
	"persembe":  time.Thursday,
	"cuma":      time.Friday,
	"cumartesi": time.Saturday,
	"pazar":     time.Sunday,
}

var months = map[string]time.Month{
	"ocak":    time.January,
	"subat":   time.February,
	"mart":    time.March,
	"nisan":   time.April,
	"mayis":   time.May,
	"haziran": time.June,
	"temmuz":  time.July,
	"agustos": time.August,
	"eylul":   time.September,
	"ekim":    time.October,
	"kasim":   time.November,
	"aralik":  time.December,
}

// ResolveDate turns an absolute or relative Turkish date expression into
// YYYY-MM-DD using today as the reference day.
func ResolveDate(text string, today time.Time) (string, bool) {
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	lowered := Lower(text)
	folded := Fold(text)

	if m := isoDateRe.FindStringSubmatch(lowered); m != nil {
		return buildDate(atoi(m[1]), atoi(m[2]), atoi(m[3]), today.Location())
	}
	if m := dottedDateRe.FindStringSubmatch(lowered); m != nil {
		return buildDate(atoi(m[3]), atoi(m[2]), atoi(m[1]), today.Location())
	}
	for _, m := range dayMonthRe.FindAllStringSubmatch(folded, -1) {
		month, ok := longestPrefix(m[2], months)
		if !ok {
			continue
		}
		year := today.Year()
		if m[3] != "" {
			year = atoi(m[3])
		}
		date, ok := buildDate(year, int(month), atoi(m[1]), today.Location())
		if !ok {
			return "", false
		}
		if m[3] == "" && date < today.Format(DateLayout) {
			return buildDate(year+1, int(month), atoi(m[1]), today.Location())
		}
		return date, true
	}

	switch {
	case strings.Contains(folded, "obur gun"), strings.Contains(folded, "yarindan sonra"):
		return today.AddDate(0, 0, 2).Format(DateLayout), true
	case ContainsWord(folded, "yarin"):
		return today.AddDate(0, 0, 1).Format(DateLayout), true
	case ContainsWord(folded, "bugun"):
		return today.Format(DateLayout), true
	}

	tokens := strings.Fields(folded)
	for i, token := range tokens {
		day, ok := longestPrefix(token, weekdays)
		if !ok {
			continue
		}
		if i > 0 && tokens[i-1] == "haftaya" {
			return nextWeek(today, day).Format(DateLayout), true
		}
		return nextWeekday(today, day).Format(DateLayout), true
	}

	return "", false
}

// NormalizeTime turns "14", "14.30", "saat 2", "3 buçuk" or "öğleden sonra"
// into 24 hour HH:MM. Single digit hours from 1 to 7 are read as afternoon
// because the salon is closed in the early morning.
func NormalizeTime(text string) (string, bool) {
	lowered := Lower(text)
	folded := Fold(text)

	if m := clockRe.FindStringSubmatch(lowered); m != nil {
		return buildTime(m[1], atoi(m[2]))
	}
	if m := halfHourRe.FindStringSubmatch(folded); m != nil {
		return buildTime(m[1], 30)
	}
	if m := saatHourRe.FindStringSubmatch(folded); m != nil {
		return adjustForPhrase(folded, m[1])
	}
	if m := bareHourRe.FindStringSubmatch(folded); m != nil {
		return buildTime(m[1], 0)
	}

	switch {
	case strings.Contains(folded, "ogleden sonra"):
		return "14:00", true
	case strings.Contains(folded, "oglen"), strings.Contains(folded, "ogle"):
		return "12:00", true
	case strings.Contains(folded, "sabah"):
		return "09:00", true
	case strings.Contains(folded, "aksam"):
		return "17:00", true
	}

	return "", false
}

func adjustForPhrase(folded, hour string) (string, bool) {
	h := atoi(hour)
	for _, phrase := range explicitPMs {
		if strings.Contains(folded, phrase) && h >= 1 && h < 12 {
			return fmt.Sprintf("%02d:00", h+12), true
		}
	}
	if strings.Contains(folded, "sabah") {
		return fmt.Sprintf("%02d:00", h), h < 24
	}
	return buildTime(hour, 0)
}

func buildTime(hour string, minute int) (string, bool) {
	h := atoi(hour)
	if len(hour) == 1 && h >= 1 && h <= 7 {
		h += 12
	}
	if h < 0 || h > 23 || minute < 0 || minute > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", h, minute), true
}

func buildDate(year, month, day int, loc *time.Location) (string, bool) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", false
	}
	return t.Format(DateLayout), true
}

func nextWeekday(today time.Time, day time.Weekday) time.Time {
	diff := (int(day) - int(today.Weekday()) + 7) % 7
	if diff == 0 {
		diff = 7
	}
	return today.AddDate(0, 0, diff)
}

func nextWeek(today time.Time, day time.Weekday) time.Time {
	monday := today.AddDate(0, 0, 8-isoWeekday(today.Weekday()))
	return monday.AddDate(0, 0, isoWeekday(day)-1)
}

func isoWeekday(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}

func longestPrefix[T any](token string, table map[string]T) (T, bool) {
	var (
		found T
		best  int
	)
	for name, value := range table {
		if strings.HasPrefix(token, name) && len(name) > best {
			found, best = value, len(name)
		}
	}
	return found, best > 0
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
