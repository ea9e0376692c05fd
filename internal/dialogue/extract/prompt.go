package extract

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"SalonAssistant/internal/dialogue/flow"
)

const historyWindow = 6

var turkishWeekdays = [...]string{"Pazar", "Pazartesi", "Salı", "Çarşamba", "Perşembe", "Cuma", "Cumartesi"}

// SystemPrompt is shared by every provider.
func SystemPrompt(req Request) string {
	today := req.CurrentDate
	tomorrow := today.AddDate(0, 0, 1)

	var sb strings.Builder
	sb.WriteString("Sen bir güzellik salonunun randevu asistanının niyet ve bilgi çıkarma modülüsün.\n")
	sb.WriteString("Kullanıcının son mesajından niyeti (intent) ve varlıkları çıkar. Asla cevap metni yazma.\n\n")

	fmt.Fprintf(&sb, "Bugün: %s (%s). Yarın: %s (%s).\n",
		today.Format("2006-01-02"), turkishWeekdays[today.Weekday()],
		tomorrow.Format("2006-01-02"), turkishWeekdays[tomorrow.Weekday()])
	sb.WriteString(weekdayTable(today))

	sb.WriteString(`
Niyetler:
- booking: yeni randevu almak
- query_appointment: mevcut randevularını sormak
- cancel: randevu iptal etmek
- campaign_inquiry: kampanya veya indirim sormak
- chat: diğer her şey (selamlaşma, genel soru, belirsiz)

Kurallar:
- Tarihleri YYYY-MM-DD, saatleri 24 saat HH:MM biçiminde ver ("öğleden sonra 2" -> "14:00").
- Telefon numarasını sadece rakamlarla ver.
- Hizmet ve uzman adlarını aşağıdaki listelerdeki yazımıyla ver; listede yoksa boş bırak.
- Mesajda olmayan bir bilgiyi uydurma, boş bırak.
- Kullanıcı bir soruyu onaylıyorsa confirmation "yes", reddediyorsa "no", değilse "none".
- confidence 0 ile 1 arasında, niyetten ne kadar emin olduğundur.
`)

	if len(req.KnownServices) > 0 {
		fmt.Fprintf(&sb, "\nHizmetler: %s\n", strings.Join(req.KnownServices, ", "))
	}
	if len(req.KnownExperts) > 0 {
		fmt.Fprintf(&sb, "Uzmanlar: %s\n", strings.Join(req.KnownExperts, ", "))
	}
	if req.Knowledge != "" {
		fmt.Fprintf(&sb, "\nSalon bilgisi: %s\n", req.Knowledge)
	}

	if req.Flow.Transactional() {
		fmt.Fprintf(&sb, "\nDevam eden işlem: %s\n", req.Flow)
		if len(req.Collected) > 0 {
			sb.WriteString("Şimdiye kadar alınan bilgiler: ")
			sb.WriteString(collectedSummary(req.Collected))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// UserPrompt carries the recent history and the utterance to classify.
func UserPrompt(req Request) string {
	var sb strings.Builder
	history := req.History
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	if len(history) > 0 {
		sb.WriteString("Son konuşma:\n")
		for _, m := range history {
			speaker := "Kullanıcı"
			if m.Role == "assistant" {
				speaker = "Asistan"
			}
			fmt.Fprintf(&sb, "%s: %s\n", speaker, m.Text)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Kullanıcının son mesajı: %s", req.Utterance)
	return sb.String()
}

func weekdayTable(today time.Time) string {
	var sb strings.Builder
	sb.WriteString("Önümüzdeki günler: ")
	for i := 1; i <= 7; i++ {
		d := today.AddDate(0, 0, i)
		if i > 1 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%s", turkishWeekdays[d.Weekday()], d.Format("2006-01-02"))
	}
	sb.WriteString("\n")
	return sb.String()
}

func collectedSummary(c flow.Collected) string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, c[k]))
	}
	return strings.Join(parts, ", ")
}
