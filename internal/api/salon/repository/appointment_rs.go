package salonRepository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"SalonAssistant/internal/api/salon"
	"SalonAssistant/internal/entity"
	contextPkg "SalonAssistant/pkg/context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

func (r *appointmentRepository) CreateAppointment(c context.Context, appointment entity.Appointment) (int64, error) {
	requestID := contextPkg.GetRequestID(c)
	argsKV := map[string]interface{}{
		"code":             appointment.Code,
		"customer_id":      appointment.CustomerID,
		"expert_id":        appointment.ExpertID,
		"service_id":       appointment.ServiceID,
		"appointment_date": appointment.Date,
		"start_time":       appointment.StartTime,
		"end_time":         appointment.EndTime,
		"status":           string(appointment.Status),
		"notes":            appointment.Notes,
		"created_at":       time.Now(),
	}

	query, args, err := sqlx.Named(queryCreateAppointment, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateAppointment")
		return 0, err
	}
	query = r.q.Rebind(query)

	var id int64
	if err := r.q.QueryRowxContext(c, query, args...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, salon.ErrAppointmentCodeExists
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to execute query for CreateAppointment")
		return 0, err
	}

	return id, nil
}

func (r *appointmentRepository) GetByCode(c context.Context, code string) (entity.AppointmentDetail, error) {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryGetAppointmentByCode, map[string]interface{}{"code": code})
	if err != nil {
		return entity.AppointmentDetail{}, err
	}
	query = r.q.Rebind(query)

	var detail entity.AppointmentDetail
	if err := sqlx.GetContext(c, r.q, &detail, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.AppointmentDetail{}, salon.ErrAppointmentNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"code":       code,
			"error":      err.Error(),
		}).Error("Failed to execute query for GetByCode")
		return entity.AppointmentDetail{}, err
	}
	return detail, nil
}

func (r *appointmentRepository) ListByCustomer(c context.Context, customerID int64, limit int, includeCancelled bool) ([]entity.AppointmentDetail, error) {
	requestID := contextPkg.GetRequestID(c)

	namedQuery := queryListCustomerAppointments
	if includeCancelled {
		namedQuery = queryListCustomerAppointmentsAll
	}

	query, args, err := sqlx.Named(namedQuery, map[string]interface{}{
		"customer_id": customerID,
		"limit":       limit,
	})
	if err != nil {
		return nil, err
	}
	query = r.q.Rebind(query)

	var details []entity.AppointmentDetail
	if err := sqlx.SelectContext(c, r.q, &details, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id":  requestID,
			"customer_id": customerID,
			"error":       err.Error(),
		}).Error("Failed to list customer appointments")
		return nil, err
	}
	return details, nil
}

func (r *appointmentRepository) ListBlockingByDate(c context.Context, date string) ([]entity.Appointment, error) {
	query, args, err := sqlx.Named(queryListBlockingAppointments, map[string]interface{}{"appointment_date": date})
	if err != nil {
		return nil, err
	}
	query = r.q.Rebind(query)

	var appointments []entity.Appointment
	if err := sqlx.SelectContext(c, r.q, &appointments, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(c),
			"date":       date,
			"error":      err.Error(),
		}).Error("Failed to list blocking appointments")
		return nil, err
	}
	return appointments, nil
}

// CancelAppointment reports false when no active appointment has code.
func (r *appointmentRepository) CancelAppointment(c context.Context, code string, reason string, at time.Time) (bool, error) {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryCancelAppointment, map[string]interface{}{
		"code":         code,
		"reason":       sql.NullString{String: reason, Valid: reason != ""},
		"cancelled_at": at,
	})
	if err != nil {
		return false, err
	}
	query = r.q.Rebind(query)

	res, err := r.q.ExecContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"code":       code,
			"error":      err.Error(),
		}).Error("Failed to execute query for CancelAppointment")
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
