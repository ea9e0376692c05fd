package compose

import (
	"fmt"
	"strings"

	"SalonAssistant/internal/dialogue/flow"
	"SalonAssistant/internal/dialogue/tool"
)

// Fixed replies.
const (
	ChatReply          = "Size nasıl yardımcı olabilirim? Randevu almak, randevunuzu sorgulamak veya iptal etmek için buradayım."
	ClarifyReply       = "Anlayamadım, tekrar eder misiniz?"
	ClarifyPrefix      = "Anlayamadım."
	CancelledReply     = "Tamam, işlemi iptal ettim. Başka bir konuda yardımcı olabilir miyim?"
	ErrorReply         = "Üzgünüm, bir sorun oluştu. Baştan başlayalım, size nasıl yardımcı olabilirim?"
	RetryReply         = "Üzgünüm, işleminizi şu an tamamlayamadım. Tekrar denememi ister misiniz?"
	TemporaryErrReply  = "Üzgünüm, şu an bilgilerinize ulaşamıyorum. Lütfen biraz sonra tekrar deneyin."
	NoAppointmentReply = "Adınıza kayıtlı aktif bir randevu bulamadım. Başka bir konuda yardımcı olabilir miyim?"

	slotTakenNote          = "Maalesef bu saat dolu."
	outsideHoursNote       = "Bu saat çalışma saatlerimizin dışında kalıyor."
	pastTimeNote           = "Bu saat geçmişte kaldı."
	notQualifiedNote       = "Seçtiğiniz uzmanımız bu hizmeti vermiyor."
	availabilityFailedNote = "Üzgünüm, müsaitlik kontrolü şu an yapılamadı."
	newCustomerNote        = "Sizi sistemimizde bulamadım."
	welcomeNote            = "Hoş geldiniz %s."
	expertsNote            = "%s için uzmanlarımız: %s."
	alternativesNote       = "Uygun saatler: %s."
	noAlternativesNote     = "Maalesef yakın tarihlerde uygun bir saat bulamadım."
	alternativesFailedNote = "Şu an alternatif saatleri getiremedim."
)

// note renders the line a non-terminal tool result contributes to the reply.
func note(res tool.Result, v View) string {
	switch res.Tool {
	case tool.CheckCustomer:
		if !res.Success {
			return ""
		}
		if res.Bool("found") {
			if name := res.String("name"); name != "" {
				return fmt.Sprintf(welcomeNote, name)
			}
			return ""
		}
		return newCustomerNote

	case tool.ListExperts:
		if len(v.Facts.Experts) == 0 {
			return ""
		}
		service := v.Collected["service"]
		if service == "" {
			return "Uzmanlarımız: " + strings.Join(v.Facts.Experts, ", ") + "."
		}
		return fmt.Sprintf(expertsNote, service, strings.Join(v.Facts.Experts, ", "))

	case tool.CheckAvailability:
		if !res.Success {
			if res.Reason == tool.ReasonRejected {
				return slotTakenNote
			}
			return availabilityFailedNote
		}
		if !res.Bool("available") {
			return unavailableNote(res.String("reason"))
		}
		return ""

	case tool.CreateAppointment:
		if res.Reason == tool.ReasonRejected {
			return slotTakenNote
		}
		return ""

	case tool.SuggestAlternativeTimes:
		if !res.Success {
			return alternativesFailedNote
		}
		if len(v.Facts.Alternatives) == 0 {
			return noAlternativesNote
		}
		return fmt.Sprintf(alternativesNote, strings.Join(v.Facts.Alternatives, ", "))
	}
	return ""
}

// unavailableNote explains a negative availability answer by the reason
// code the provider reported.
func unavailableNote(reason string) string {
	switch reason {
	case "outside_business_hours":
		return outsideHoursNote
	case "past":
		return pastTimeNote
	case "expert_not_qualified":
		return notQualifiedNote
	}
	return slotTakenNote
}

// summary is the deterministic text for a terminal success. It only uses
// values present in the payload.
func summary(res tool.Result) string {
	switch res.Tool {
	case tool.CreateAppointment:
		code := res.String("appointment_code")
		date, hour := res.String("date"), res.String("time")
		if date != "" && hour != "" {
			return fmt.Sprintf("Randevunuz %s saat %s için oluşturuldu. Kod: %s. Sizi bekliyoruz!",
				flow.DisplayDate(date), hour, code)
		}
		return fmt.Sprintf("Randevunuz oluşturuldu. Kod: %s. Sizi bekliyoruz!", code)

	case tool.CancelAppointment:
		if code := res.String("appointment_code"); code != "" {
			return fmt.Sprintf("%s kodlu randevunuz iptal edildi. Başka bir konuda yardımcı olabilir miyim?", code)
		}
		return "Randevunuz iptal edildi. Başka bir konuda yardımcı olabilir miyim?"

	case tool.GetCustomerAppointments:
		items := res.List("appointments")
		if len(items) == 0 {
			return "Aktif bir randevunuz bulunmuyor."
		}
		lines := make([]string, 0, len(items))
		for _, a := range items {
			line := fmt.Sprintf("%s %s %s", flow.DisplayDate(str(a, "date")), str(a, "time"), str(a, "service"))
			if expert := str(a, "expert_name"); expert != "" {
				line += " (" + expert + ")"
			}
			lines = append(lines, line)
		}
		return "Randevularınız: " + strings.Join(lines, "; ") + "."

	case tool.CheckCampaigns:
		items := res.List("campaigns")
		if len(items) == 0 {
			return "Şu an aktif bir kampanyamız bulunmuyor."
		}
		lines := make([]string, 0, len(items))
		for _, c := range items {
			line := str(c, "title")
			if d := str(c, "discount"); d != "" {
				line += " (%" + d + " indirim"
				if end := str(c, "end_date"); end != "" {
					line += ", " + flow.DisplayDate(end) + " tarihine kadar"
				}
				line += ")"
			}
			lines = append(lines, line)
		}
		return "Güncel kampanyalarımız: " + strings.Join(lines, "; ") + "."

	case tool.ListServices:
		items := res.List("services")
		names := make([]string, 0, len(items))
		for _, s := range items {
			names = append(names, str(s, "name"))
		}
		return "Hizmetlerimiz: " + strings.Join(names, ", ") + "."
	}
	return "İşleminiz tamamlandı."
}

// rejection is the reply for a terminal tool that refused the request.
func rejection(res tool.Result) string {
	switch res.Tool {
	case tool.CancelAppointment:
		return "Bu bilgilerle iptal edilebilecek bir randevu bulamadım. Başka bir konuda yardımcı olabilir miyim?"
	case tool.GetCustomerAppointments:
		return "Randevu bilgilerinize şu an ulaşamadım."
	}
	return RetryReply
}

func str(m map[string]any, key string) string {
	return tool.Params(m).String(key)
}
