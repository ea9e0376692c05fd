package salon

import (
	"net/http"

	"SalonAssistant/pkg/response"
)

var (
	ErrCustomerNotFound      = response.NewError(http.StatusNotFound, "customer not found")
	ErrPhoneAlreadyExists    = response.NewError(http.StatusConflict, "phone number already registered")
	ErrServiceNotFound       = response.NewError(http.StatusNotFound, "service not found")
	ErrExpertNotFound        = response.NewError(http.StatusNotFound, "expert not found")
	ErrExpertNotQualified    = response.NewError(http.StatusUnprocessableEntity, "expert does not offer this service")
	ErrAppointmentNotFound   = response.NewError(http.StatusNotFound, "appointment not found")
	ErrAppointmentCancelled  = response.NewError(http.StatusConflict, "appointment already cancelled")
	ErrSlotTaken             = response.NewError(http.StatusConflict, "requested time slot is not available")
	ErrNoExpertAvailable     = response.NewError(http.StatusConflict, "no expert available at the requested time")
	ErrOutsideBusinessHours  = response.NewError(http.StatusUnprocessableEntity, "requested time is outside business hours")
	ErrDateInPast            = response.NewError(http.StatusUnprocessableEntity, "requested time is in the past")
	ErrInvalidDate           = response.NewError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	ErrInvalidTime           = response.NewError(http.StatusBadRequest, "invalid time, expected HH:MM")
	ErrCustomerNameRequired  = response.NewError(http.StatusUnprocessableEntity, "customer name is required for new customers")
	ErrUnknownTool           = response.NewError(http.StatusNotFound, "unknown tool")
	ErrAppointmentCodeExists = response.NewError(http.StatusConflict, "appointment code collision")
)
