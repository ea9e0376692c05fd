package salonService

import (
	"context"
	"errors"
	"strings"

	"SalonAssistant/internal/api/salon"
	"SalonAssistant/internal/dialogue/slot"
	"SalonAssistant/internal/entity"
	contextPkg "SalonAssistant/pkg/context"

	"github.com/sirupsen/logrus"
)

var ErrInvalidPhone = errors.New("invalid phone number")

func normalizePhone(raw string) (string, error) {
	phone, ok := slot.NormalizePhone(raw)
	if !ok {
		return "", ErrInvalidPhone
	}
	return phone, nil
}

func (s *salonService) CheckCustomer(ctx context.Context, phone string) (salon.CustomerLookup, error) {
	phone, err := normalizePhone(phone)
	if err != nil {
		return salon.CustomerLookup{}, err
	}

	client, err := s.repo.NewClient(false)
	if err != nil {
		return salon.CustomerLookup{}, err
	}

	customer, err := client.Customers.GetByPhone(ctx, phone)
	if errors.Is(err, salon.ErrCustomerNotFound) {
		return salon.CustomerLookup{Found: false, Phone: phone}, nil
	}
	if err != nil {
		return salon.CustomerLookup{}, err
	}

	return salon.CustomerLookup{
		Found:             true,
		CustomerID:        customer.ID,
		Name:              customer.FullName,
		Phone:             customer.Phone,
		TotalAppointments: customer.TotalAppointments,
	}, nil
}

func (s *salonService) CreateCustomer(ctx context.Context, req salon.CreateCustomerRequest) (salon.CustomerResponse, error) {
	phone, err := normalizePhone(req.Phone)
	if err != nil {
		return salon.CustomerResponse{}, err
	}
	name := strings.TrimSpace(req.FullName)
	if name == "" {
		return salon.CustomerResponse{}, salon.ErrCustomerNameRequired
	}

	client, err := s.repo.NewClient(false)
	if err != nil {
		return salon.CustomerResponse{}, err
	}

	id, err := client.Customers.CreateCustomer(ctx, entity.Customer{
		FullName: name,
		Phone:    phone,
		Email:    strings.TrimSpace(req.Email),
	})
	if err != nil {
		return salon.CustomerResponse{}, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id":  contextPkg.GetRequestID(ctx),
		"customer_id": id,
	}).Info("[salon.CreateCustomer] customer registered")

	return salon.CustomerResponse{CustomerID: id, Name: name, Phone: phone}, nil
}

// GetCustomerAppointments lists the non cancelled appointments of phone,
// latest first. Unknown customers simply have none.
func (s *salonService) GetCustomerAppointments(ctx context.Context, phone string) ([]salon.AppointmentResponse, error) {
	phone, err := normalizePhone(phone)
	if err != nil {
		return nil, err
	}

	client, err := s.repo.NewClient(false)
	if err != nil {
		return nil, err
	}

	customer, err := client.Customers.GetByPhone(ctx, phone)
	if errors.Is(err, salon.ErrCustomerNotFound) {
		return []salon.AppointmentResponse{}, nil
	}
	if err != nil {
		return nil, err
	}

	details, err := client.Appointments.ListByCustomer(ctx, customer.ID, s.config.AppointmentMax, false)
	if err != nil {
		return nil, err
	}

	out := make([]salon.AppointmentResponse, 0, len(details))
	for _, d := range details {
		out = append(out, toAppointmentResponse(d))
	}
	return out, nil
}

func toAppointmentResponse(d entity.AppointmentDetail) salon.AppointmentResponse {
	return salon.AppointmentResponse{
		Code:         d.Code,
		Date:         d.Date,
		Time:         d.StartTime,
		EndTime:      d.EndTime,
		Service:      d.ServiceName,
		ExpertName:   d.ExpertName,
		CustomerName: d.CustomerName,
		Status:       d.Status.String(),
	}
}
