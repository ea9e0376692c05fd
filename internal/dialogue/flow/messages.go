package flow

import (
	"fmt"
	"time"

	"SalonAssistant/internal/dialogue/slot"
)

const (
	bookingConfirmTemplate = "%s tarihinde saat %s'te %s uzmanımızdan %s randevusu oluşturulsun mu?"
	cancelConfirmTemplate  = "%s tarihli %s randevunuzu iptal etmek istediğinize emin misiniz?"
	cancelConfirmFallback  = "Randevunuzu iptal etmek istediğinize emin misiniz?"

	OfferAlternativesText = "Size uygun başka saatler önermemi ister misiniz?"
)

// Finalize reasons produced by Decide.
const (
	ReasonNoAppointment = "no_appointment"
)

var slotQuestions = map[string]string{
	slot.Phone:           "Telefon numaranızı alabilir miyim?",
	slot.Service:         "Hangi hizmetimizden yararlanmak istersiniz?",
	slot.ExpertName:      "Hangi uzmanımızdan randevu almak istersiniz?",
	slot.Date:            "Hangi tarih sizin için uygun?",
	slot.Time:            "Saat kaçta uygun?",
	slot.AppointmentCode: "İptal etmek istediğiniz randevu kodunu veya tarihini söyleyebilir misiniz?",
	slot.Name:            "Adınızı ve soyadınızı alabilir miyim?",
}

// SlotQuestion returns the question asked when name is missing.
func SlotQuestion(name string) string {
	if q, ok := slotQuestions[name]; ok {
		return q
	}
	return fmt.Sprintf("%s bilgisini alabilir miyim?", name)
}

// DisplayDate renders YYYY-MM-DD as DD.MM.YYYY; other input is returned as is.
func DisplayDate(date string) string {
	return displayDate(date)
}

func displayDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("02.01.2006")
}
