package entity

import "time"

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentNoShow    AppointmentStatus = "no_show"
)

// Blocking reports whether an appointment in this status occupies its
// expert's time.
func (s AppointmentStatus) Blocking() bool {
	return s == AppointmentPending || s == AppointmentConfirmed
}

func (s AppointmentStatus) String() string {
	return string(s)
}

// Appointment dates are stored as YYYY-MM-DD and times as HH:MM in the
// salon's local time zone.
type Appointment struct {
	ID                 int64             `db:"id"`
	Code               string            `db:"code"`
	CustomerID         int64             `db:"customer_id"`
	ExpertID           int64             `db:"expert_id"`
	ServiceID          int64             `db:"service_id"`
	Date               string            `db:"appointment_date"`
	StartTime          string            `db:"start_time"`
	EndTime            string            `db:"end_time"`
	Status             AppointmentStatus `db:"status"`
	Notes              string            `db:"notes"`
	CancellationReason string            `db:"cancellation_reason"`
	CancelledAt        *time.Time        `db:"cancelled_at"`
	CreatedAt          time.Time         `db:"created_at"`
	UpdatedAt          time.Time         `db:"updated_at"`
}

// AppointmentDetail is an appointment joined with its service and expert
// names.
type AppointmentDetail struct {
	Appointment
	ServiceName  string `db:"service_name"`
	ExpertName   string `db:"expert_name"`
	CustomerName string `db:"customer_name"`
	Phone        string `db:"phone"`
}
