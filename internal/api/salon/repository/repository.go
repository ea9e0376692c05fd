package salonRepository

import (
	"context"
	"time"

	"SalonAssistant/internal/entity"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

func New(db *sqlx.DB, log *logrus.Logger) Repository {
	return &repository{
		DB:  db,
		log: log,
	}
}

type repository struct {
	DB  *sqlx.DB
	log *logrus.Logger
}

type Repository interface {
	NewClient(tx bool) (Client, error)
}

func (r *repository) NewClient(tx bool) (Client, error) {
	var db sqlx.ExtContext
	var commitFunc, rollbackFunc func() error

	db = r.DB

	if tx {
		txx, err := r.DB.Beginx()
		if err != nil {
			return Client{}, err
		}

		db = txx
		commitFunc = txx.Commit
		rollbackFunc = txx.Rollback
	} else {
		commitFunc = func() error { return nil }
		rollbackFunc = func() error { return nil }
	}

	return Client{
		Customers:    &customerRepository{q: db, log: r.log},
		Appointments: &appointmentRepository{q: db, log: r.log},
		Catalog:      &catalogRepository{q: db, log: r.log},
		Commit:       commitFunc,
		Rollback:     rollbackFunc,
	}, nil
}

type Client struct {
	Customers interface {
		CreateCustomer(ctx context.Context, customer entity.Customer) (int64, error)
		GetByPhone(ctx context.Context, phone string) (entity.Customer, error)
		GetByID(ctx context.Context, id int64) (entity.Customer, error)
		IncrementAppointments(ctx context.Context, id int64) error
	}

	Appointments interface {
		CreateAppointment(ctx context.Context, appointment entity.Appointment) (int64, error)
		GetByCode(ctx context.Context, code string) (entity.AppointmentDetail, error)
		ListByCustomer(ctx context.Context, customerID int64, limit int, includeCancelled bool) ([]entity.AppointmentDetail, error)
		ListBlockingByDate(ctx context.Context, date string) ([]entity.Appointment, error)
		CancelAppointment(ctx context.Context, code string, reason string, at time.Time) (bool, error)
	}

	Catalog interface {
		ListServices(ctx context.Context) ([]entity.Service, error)
		ListExperts(ctx context.Context) ([]entity.Expert, error)
		ListActiveCampaigns(ctx context.Context, today string) ([]entity.Campaign, error)
	}

	Commit   func() error
	Rollback func() error
}

type customerRepository struct {
	q   sqlx.ExtContext
	log *logrus.Logger
}

type appointmentRepository struct {
	q   sqlx.ExtContext
	log *logrus.Logger
}

type catalogRepository struct {
	q   sqlx.ExtContext
	log *logrus.Logger
}
