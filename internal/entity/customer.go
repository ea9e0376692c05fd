package entity

import "time"

type Customer struct {
	ID                int64     `db:"id"`
	FullName          string    `db:"full_name"`
	Phone             string    `db:"phone"`
	Email             string    `db:"email"`
	TotalAppointments int       `db:"total_appointments"`
	IsActive          bool      `db:"is_active"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}
