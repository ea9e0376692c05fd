package salonService

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"SalonAssistant/internal/api/salon"
	salonRepository "SalonAssistant/internal/api/salon/repository"
	"SalonAssistant/internal/entity"
	contextPkg "SalonAssistant/pkg/context"

	"github.com/sirupsen/logrus"
)

const (
	codeAttempts = 5
	pastDay      = -1
)

const bookingNotification = "Merhaba %s, %s tarihinde saat %s için %s randevunuz %s ile oluşturuldu. Randevu kodunuz: %s"

func (s *salonService) parseDate(date string) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), s.config.Location)
	if err != nil {
		return time.Time{}, salon.ErrInvalidDate
	}
	return day, nil
}

// earliestStart is the first minute of day that can still be booked, or
// pastDay when the whole day is over.
func (s *salonService) earliestStart(day time.Time) int {
	now := s.today()
	today := now.Format(dateLayout)
	switch d := day.Format(dateLayout); {
	case d < today:
		return pastDay
	case d == today:
		return now.Hour()*60 + now.Minute()
	default:
		return 0
	}
}

// candidates narrows experts to the ones that can perform service. A named
// expert is honoured only when qualified; the returned reason says why not.
func candidates(experts []entity.Expert, service entity.Service, expertName string) ([]entity.Expert, string, error) {
	able := qualified(experts, service.Name)
	if strings.TrimSpace(expertName) == "" {
		if len(able) == 0 {
			return nil, ReasonNoExpertFound, nil
		}
		return able, "", nil
	}

	expert, ok := matchExpert(experts, expertName)
	if !ok {
		return nil, "", salon.ErrExpertNotFound
	}
	for _, e := range able {
		if e.ID == expert.ID {
			return []entity.Expert{expert}, "", nil
		}
	}
	return nil, ReasonNotQualified, nil
}

func (s *salonService) blocking(ctx context.Context, client salonRepository.Client, date string) (map[int64][]interval, error) {
	appointments, err := client.Appointments.ListBlockingByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	return busyByExpert(appointments), nil
}

func (s *salonService) CheckAvailability(ctx context.Context, req salon.AvailabilityRequest) (salon.AvailabilityResponse, error) {
	day, err := s.parseDate(req.Date)
	if err != nil {
		return salon.AvailabilityResponse{}, err
	}
	service, experts, err := s.resolveService(ctx, req.ServiceType)
	if err != nil {
		return salon.AvailabilityResponse{}, err
	}

	resp := salon.AvailabilityResponse{Date: day.Format(dateLayout), Time: req.Time}

	able, reason, err := candidates(experts, service, req.ExpertName)
	if err != nil {
		return salon.AvailabilityResponse{}, err
	}
	if reason != "" {
		resp.Reason = reason
		return resp, nil
	}

	earliest := s.earliestStart(day)
	if earliest == pastDay {
		resp.Reason = ReasonPast
		return resp, nil
	}

	duration := service.DurationMinutes
	hours := s.config.Hours

	var start int
	if req.Time != "" {
		start, err = parseClock(req.Time)
		if err != nil {
			return salon.AvailabilityResponse{}, salon.ErrInvalidTime
		}
		resp.Time = formatClock(start)
		if !hours.within(start, duration) {
			resp.Reason = ReasonOutsideHours
			return resp, nil
		}
		if start < earliest {
			resp.Reason = ReasonPast
			return resp, nil
		}
	}

	client, err := s.repo.NewClient(false)
	if err != nil {
		return salon.AvailabilityResponse{}, err
	}
	busy, err := s.blocking(ctx, client, resp.Date)
	if err != nil {
		return salon.AvailabilityResponse{}, err
	}

	if req.Time != "" {
		expert, ok := firstFree(able, busy, interval{start: start, end: start + duration})
		if !ok {
			resp.Reason = ReasonBusy
			return resp, nil
		}
		resp.Available = true
		resp.ExpertName = expert.FullName
		return resp, nil
	}

	for _, slot := range freeSlots(hours, duration, able, busy, earliest) {
		resp.Slots = append(resp.Slots, salon.SlotResponse{
			Time:    formatClock(slot.start),
			Experts: expertNames(slot.experts),
		})
	}
	resp.Available = len(resp.Slots) > 0
	if !resp.Available {
		resp.Reason = ReasonBusy
	}
	return resp, nil
}

// SuggestAlternatives proposes up to three free starts on the requested day,
// closest to the requested time, then two per day over the following three
// days.
func (s *salonService) SuggestAlternatives(ctx context.Context, req salon.AvailabilityRequest) ([]salon.Alternative, error) {
	day, err := s.parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	service, experts, err := s.resolveService(ctx, req.ServiceType)
	if err != nil {
		return nil, err
	}

	able, reason, err := candidates(experts, service, req.ExpertName)
	if errors.Is(err, salon.ErrExpertNotFound) || reason == ReasonNotQualified {
		able, reason, err = candidates(experts, service, "")
	}
	if err != nil {
		return nil, err
	}
	if reason != "" {
		return []salon.Alternative{}, nil
	}

	hours := s.config.Hours
	target := hours.opening()
	if req.Time != "" {
		if t, err := parseClock(req.Time); err == nil {
			target = t
		}
	}
	if s.earliestStart(day) == pastDay {
		today := s.today()
		day = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, s.config.Location)
	}

	client, err := s.repo.NewClient(false)
	if err != nil {
		return nil, err
	}

	out := make([]salon.Alternative, 0, maxAlternatives)
	for i := 0; i <= alternativeDays && len(out) < maxAlternatives; i++ {
		current := day.AddDate(0, 0, i)
		date := current.Format(dateLayout)

		busy, err := s.blocking(ctx, client, date)
		if err != nil {
			return nil, err
		}
		slots := freeSlots(hours, service.DurationMinutes, able, busy, s.earliestStart(current))

		if i == 0 {
			slots = nearest(slots, target, sameDayAlternatives)
		} else if len(slots) > perDayAlternatives {
			slots = slots[:perDayAlternatives]
		}

		for _, slot := range slots {
			if len(out) == maxAlternatives {
				break
			}
			out = append(out, salon.Alternative{
				Date:       date,
				Time:       formatClock(slot.start),
				ExpertName: slot.experts[0].FullName,
			})
		}
	}
	return out, nil
}

func (s *salonService) CreateAppointment(ctx context.Context, req salon.CreateAppointmentRequest) (salon.AppointmentResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	phone, err := normalizePhone(req.Phone)
	if err != nil {
		return salon.AppointmentResponse{}, err
	}
	day, err := s.parseDate(req.Date)
	if err != nil {
		return salon.AppointmentResponse{}, err
	}
	start, err := parseClock(req.Time)
	if err != nil {
		return salon.AppointmentResponse{}, salon.ErrInvalidTime
	}

	service, experts, err := s.resolveService(ctx, req.ServiceType)
	if err != nil {
		return salon.AppointmentResponse{}, err
	}

	duration := service.DurationMinutes
	if !s.config.Hours.within(start, duration) {
		return salon.AppointmentResponse{}, salon.ErrOutsideBusinessHours
	}
	if earliest := s.earliestStart(day); earliest == pastDay || start < earliest {
		return salon.AppointmentResponse{}, salon.ErrDateInPast
	}

	able, reason, err := candidates(experts, service, req.ExpertName)
	if err != nil {
		return salon.AppointmentResponse{}, err
	}
	switch reason {
	case ReasonNotQualified:
		return salon.AppointmentResponse{}, salon.ErrExpertNotQualified
	case ReasonNoExpertFound:
		return salon.AppointmentResponse{}, salon.ErrNoExpertAvailable
	}

	s.bookMu.Lock()
	defer s.bookMu.Unlock()

	client, err := s.repo.NewClient(true)
	if err != nil {
		return salon.AppointmentResponse{}, err
	}
	defer client.Rollback()

	customerName := strings.TrimSpace(req.CustomerName)
	customer, err := client.Customers.GetByPhone(ctx, phone)
	switch {
	case errors.Is(err, salon.ErrCustomerNotFound):
		if customerName == "" {
			return salon.AppointmentResponse{}, salon.ErrCustomerNameRequired
		}
		customer.ID, err = client.Customers.CreateCustomer(ctx, entity.Customer{FullName: customerName, Phone: phone})
		if err != nil {
			return salon.AppointmentResponse{}, err
		}
		customer.FullName = customerName
	case err != nil:
		return salon.AppointmentResponse{}, err
	default:
		customerName = customer.FullName
	}

	date := day.Format(dateLayout)
	busy, err := s.blocking(ctx, client, date)
	if err != nil {
		return salon.AppointmentResponse{}, err
	}

	expert, ok := firstFree(able, busy, interval{start: start, end: start + duration})
	if !ok {
		if req.ExpertName != "" {
			return salon.AppointmentResponse{}, salon.ErrSlotTaken
		}
		return salon.AppointmentResponse{}, salon.ErrNoExpertAvailable
	}

	code, err := s.newCode(ctx, client)
	if err != nil {
		return salon.AppointmentResponse{}, err
	}

	appointment := entity.Appointment{
		Code:       code,
		CustomerID: customer.ID,
		ExpertID:   expert.ID,
		ServiceID:  service.ID,
		Date:       date,
		StartTime:  formatClock(start),
		EndTime:    formatClock(start + duration),
		Status:     entity.AppointmentConfirmed,
		Notes:      strings.TrimSpace(req.Notes),
	}
	if appointment.ID, err = client.Appointments.CreateAppointment(ctx, appointment); err != nil {
		return salon.AppointmentResponse{}, err
	}
	if err := client.Customers.IncrementAppointments(ctx, customer.ID); err != nil {
		return salon.AppointmentResponse{}, err
	}
	if err := client.Commit(); err != nil {
		return salon.AppointmentResponse{}, fmt.Errorf("failed to commit appointment: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"request_id":     requestID,
		"appointment_id": appointment.ID,
		"code":           code,
		"expert_id":      expert.ID,
		"date":           date,
		"time":           appointment.StartTime,
	}).Info("[salon.CreateAppointment] appointment created")

	s.notify(ctx, phone, fmt.Sprintf(bookingNotification,
		customerName, day.Format("02.01.2006"), appointment.StartTime, service.Name, expert.FullName, code))

	return salon.AppointmentResponse{
		Code:         code,
		Date:         date,
		Time:         appointment.StartTime,
		EndTime:      appointment.EndTime,
		Service:      service.Name,
		ExpertName:   expert.FullName,
		CustomerName: customerName,
		Status:       appointment.Status.String(),
	}, nil
}

func (s *salonService) newCode(ctx context.Context, client salonRepository.Client) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := s.utils.NewAppointmentCode()
		if err != nil {
			return "", err
		}
		_, err = client.Appointments.GetByCode(ctx, code)
		if errors.Is(err, salon.ErrAppointmentNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", salon.ErrAppointmentCodeExists
}

// CancelAppointment cancels by code, or the latest active appointment of
// phone when no code is given.
func (s *salonService) CancelAppointment(ctx context.Context, req salon.CancelAppointmentRequest) (salon.AppointmentResponse, error) {
	client, err := s.repo.NewClient(false)
	if err != nil {
		return salon.AppointmentResponse{}, err
	}

	var detail entity.AppointmentDetail
	if code := strings.ToUpper(strings.TrimSpace(req.AppointmentCode)); code != "" {
		detail, err = client.Appointments.GetByCode(ctx, code)
		if err != nil {
			return salon.AppointmentResponse{}, err
		}
	} else {
		detail, err = s.latestActive(ctx, client, req.Phone)
		if err != nil {
			return salon.AppointmentResponse{}, err
		}
	}

	if detail.Status == entity.AppointmentCancelled {
		return salon.AppointmentResponse{}, salon.ErrAppointmentCancelled
	}

	ok, err := client.Appointments.CancelAppointment(ctx, detail.Code, strings.TrimSpace(req.Reason), s.now())
	if err != nil {
		return salon.AppointmentResponse{}, err
	}
	if !ok {
		return salon.AppointmentResponse{}, salon.ErrAppointmentCancelled
	}

	s.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"code":       detail.Code,
	}).Info("[salon.CancelAppointment] appointment cancelled")

	resp := toAppointmentResponse(detail)
	resp.Status = entity.AppointmentCancelled.String()
	return resp, nil
}

func (s *salonService) latestActive(ctx context.Context, client salonRepository.Client, rawPhone string) (entity.AppointmentDetail, error) {
	phone, err := normalizePhone(rawPhone)
	if err != nil {
		return entity.AppointmentDetail{}, err
	}
	customer, err := client.Customers.GetByPhone(ctx, phone)
	if errors.Is(err, salon.ErrCustomerNotFound) {
		return entity.AppointmentDetail{}, salon.ErrAppointmentNotFound
	}
	if err != nil {
		return entity.AppointmentDetail{}, err
	}

	details, err := client.Appointments.ListByCustomer(ctx, customer.ID, s.config.AppointmentMax, false)
	if err != nil {
		return entity.AppointmentDetail{}, err
	}
	for _, d := range details {
		if d.Status.Blocking() {
			return d, nil
		}
	}
	return entity.AppointmentDetail{}, salon.ErrAppointmentNotFound
}

// notify sends the booking message in the background. Delivery failures
// are logged only.
func (s *salonService) notify(ctx context.Context, phone, message string) {
	if s.notifier == nil {
		return
	}

	requestID := contextPkg.GetRequestID(ctx)
	base := context.WithoutCancel(ctx)

	s.notifyWG.Add(1)
	go func() {
		defer s.notifyWG.Done()

		c, cancel := context.WithTimeout(base, s.config.NotifyTimeout)
		defer cancel()

		if err := s.notifier.SendMessage(c, phone, message); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("[salon.notify] failed to deliver booking notification")
		}
	}()
}
