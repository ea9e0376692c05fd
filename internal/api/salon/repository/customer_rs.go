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
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

func (r *customerRepository) CreateCustomer(c context.Context, customer entity.Customer) (int64, error) {
	requestID := contextPkg.GetRequestID(c)
	argsKV := map[string]interface{}{
		"full_name":  customer.FullName,
		"phone":      customer.Phone,
		"email":      sql.NullString{String: customer.Email, Valid: customer.Email != ""},
		"created_at": time.Now(),
	}

	query, args, err := sqlx.Named(queryCreateCustomer, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateCustomer")
		return 0, err
	}
	query = r.q.Rebind(query)

	var id int64
	if err := r.q.QueryRowxContext(c, query, args...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("Phone number already registered")
			return 0, salon.ErrPhoneAlreadyExists
		}

		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to execute query for CreateCustomer")
		return 0, err
	}

	return id, nil
}

func (r *customerRepository) GetByPhone(c context.Context, phone string) (entity.Customer, error) {
	return r.get(c, queryGetCustomerByPhone, map[string]interface{}{"phone": phone}, "GetByPhone")
}

func (r *customerRepository) GetByID(c context.Context, id int64) (entity.Customer, error) {
	return r.get(c, queryGetCustomerByID, map[string]interface{}{"id": id}, "GetByID")
}

func (r *customerRepository) get(c context.Context, namedQuery string, argsKV map[string]interface{}, op string) (entity.Customer, error) {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(namedQuery, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Errorf("Failed to build SQL query for %s", op)
		return entity.Customer{}, err
	}
	query = r.q.Rebind(query)

	var customer entity.Customer
	if err := sqlx.GetContext(c, r.q, &customer, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Customer{}, salon.ErrCustomerNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Errorf("Failed to execute query for %s", op)
		return entity.Customer{}, err
	}

	return customer, nil
}

func (r *customerRepository) IncrementAppointments(c context.Context, id int64) error {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryIncrementCustomerAppointments, map[string]interface{}{
		"id":         id,
		"updated_at": time.Now(),
	})
	if err != nil {
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id":  requestID,
			"customer_id": id,
			"error":       err.Error(),
		}).Error("Failed to increment customer appointment count")
		return err
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
