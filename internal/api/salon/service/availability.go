package salonService

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"SalonAssistant/internal/entity"
	"SalonAssistant/pkg/nlp"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	expertMatchThreshold  = 0.75
	serviceMatchThreshold = 0.75

	sameDayAlternatives = 3
	perDayAlternatives  = 2
	alternativeDays     = 3
	maxAlternatives     = 10
)

// Availability reasons reported when a requested start cannot be booked.
const (
	ReasonBusy          = "busy"
	ReasonOutsideHours  = "outside_business_hours"
	ReasonPast          = "past"
	ReasonNotQualified  = "expert_not_qualified"
	ReasonNoExpertFound = "no_expert"
)

// Hours describes the bookable part of a day.
type Hours struct {
	Open  int // hour of day
	Close int // hour of day, exclusive end of the last appointment
	Step  int // minutes between candidate starts
}

func (h Hours) opening() int { return h.Open * 60 }
func (h Hours) closing() int { return h.Close * 60 }

// within reports whether an appointment of duration minutes starting at
// start fits inside business hours.
func (h Hours) within(start, duration int) bool {
	return start >= h.opening() && start+duration <= h.closing()
}

// interval is a half-open [start, end) range in minutes since midnight.
type interval struct {
	start, end int
}

func overlaps(a, b interval) bool {
	return a.start < b.end && b.start < a.end
}

func isFree(busy []interval, candidate interval) bool {
	for _, b := range busy {
		if overlaps(b, candidate) {
			return false
		}
	}
	return true
}

func parseClock(s string) (int, error) {
	t, err := time.Parse(timeLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// busyByExpert groups the blocking appointments of one day per expert.
func busyByExpert(appointments []entity.Appointment) map[int64][]interval {
	out := make(map[int64][]interval)
	for _, a := range appointments {
		if !a.Status.Blocking() {
			continue
		}
		start, err := parseClock(a.StartTime)
		if err != nil {
			continue
		}
		end, err := parseClock(a.EndTime)
		if err != nil || end <= start {
			continue
		}
		out[a.ExpertID] = append(out[a.ExpertID], interval{start: start, end: end})
	}
	return out
}

// firstFree returns the first expert, in order, who is free for the whole
// candidate interval.
func firstFree(experts []entity.Expert, busy map[int64][]interval, candidate interval) (entity.Expert, bool) {
	for _, e := range experts {
		if isFree(busy[e.ID], candidate) {
			return e, true
		}
	}
	return entity.Expert{}, false
}

type freeSlot struct {
	start   int
	experts []entity.Expert
}

// freeSlots walks the day in Step increments from max(opening, notBefore)
// and lists, for every start that fits, the experts free for the whole
// duration.
func freeSlots(h Hours, duration int, experts []entity.Expert, busy map[int64][]interval, notBefore int) []freeSlot {
	if h.Step <= 0 || duration <= 0 {
		return nil
	}

	start := h.opening()
	if notBefore > start {
		// align to the slot grid
		offset := (notBefore - start + h.Step - 1) / h.Step
		start += offset * h.Step
	}

	var out []freeSlot
	for ; h.within(start, duration); start += h.Step {
		candidate := interval{start: start, end: start + duration}
		var free []entity.Expert
		for _, e := range experts {
			if isFree(busy[e.ID], candidate) {
				free = append(free, e)
			}
		}
		if len(free) > 0 {
			out = append(out, freeSlot{start: start, experts: free})
		}
	}
	return out
}

// nearest returns up to n slots closest to target, in chronological order.
func nearest(slots []freeSlot, target, n int) []freeSlot {
	if len(slots) <= n {
		return slots
	}
	ranked := make([]freeSlot, len(slots))
	copy(ranked, slots)
	sort.SliceStable(ranked, func(i, j int) bool {
		return abs(ranked[i].start-target) < abs(ranked[j].start-target)
	})
	ranked = ranked[:n]
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].start < ranked[j].start })
	return ranked
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// qualified keeps the experts listing service among their specialties.
func qualified(experts []entity.Expert, service string) []entity.Expert {
	want := nlp.Fold(service)
	var out []entity.Expert
	for _, e := range experts {
		for _, s := range e.Specialties {
			if nlp.Fold(s) == want {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// matchExpert resolves a spoken expert name, tolerating missing Turkish
// characters, first-name only input and small typos.
func matchExpert(experts []entity.Expert, name string) (entity.Expert, bool) {
	input := compact(name)
	if input == "" {
		return entity.Expert{}, false
	}

	names := make([]string, 0, len(experts))
	for _, e := range experts {
		full := compact(e.FullName)
		if full == input || strings.Contains(full, input) || strings.Contains(input, full) {
			return e, true
		}
		names = append(names, e.FullName)
	}

	best, ok := nlp.BestMatch(name, names, expertMatchThreshold)
	if !ok {
		return entity.Expert{}, false
	}
	for _, e := range experts {
		if e.FullName == best.Value {
			return e, true
		}
	}
	return entity.Expert{}, false
}

func matchService(services []entity.Service, name string) (entity.Service, bool) {
	input := nlp.Fold(name)
	if input == "" {
		return entity.Service{}, false
	}

	names := make([]string, 0, len(services))
	for _, s := range services {
		if nlp.Fold(s.Name) == input {
			return s, true
		}
		names = append(names, s.Name)
	}

	best, ok := nlp.BestMatch(name, names, serviceMatchThreshold)
	if !ok {
		return entity.Service{}, false
	}
	for _, s := range services {
		if s.Name == best.Value {
			return s, true
		}
	}
	return entity.Service{}, false
}

func compact(s string) string {
	return strings.ReplaceAll(nlp.Fold(s), " ", "")
}

func expertNames(experts []entity.Expert) []string {
	out := make([]string, 0, len(experts))
	for _, e := range experts {
		out = append(out, e.FullName)
	}
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(nlp.Fold(s), nlp.Fold(sub))
}
