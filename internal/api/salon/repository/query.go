package salonRepository

const (
	queryCreateCustomer = `
INSERT INTO customers (full_name, phone, email, total_appointments, is_active, created_at, updated_at)
VALUES (:full_name, :phone, :email, 0, TRUE, :created_at, :created_at)
RETURNING id`

	queryGetCustomerByPhone = `
SELECT id, full_name, phone, COALESCE(email, '') AS email, total_appointments, is_active, created_at, updated_at
FROM customers
    WHERE phone = :phone`

	queryGetCustomerByID = `
SELECT id, full_name, phone, COALESCE(email, '') AS email, total_appointments, is_active, created_at, updated_at
FROM customers
    WHERE id = :id`

	queryIncrementCustomerAppointments = `
UPDATE customers
SET total_appointments = total_appointments + 1,
    updated_at = :updated_at
    WHERE id = :id`

	queryCreateAppointment = `
INSERT INTO appointments (code, customer_id, expert_id, service_id, appointment_date, start_time, end_time, status, notes, created_at, updated_at)
VALUES (:code, :customer_id, :expert_id, :service_id, :appointment_date, :start_time, :end_time, :status, :notes, :created_at, :created_at)
RETURNING id`

	appointmentDetailColumns = `
SELECT a.id, a.code, a.customer_id, a.expert_id, a.service_id, a.appointment_date, a.start_time, a.end_time,
       a.status, a.notes, COALESCE(a.cancellation_reason, '') AS cancellation_reason, a.cancelled_at,
       a.created_at, a.updated_at,
       s.name AS service_name, e.full_name AS expert_name, c.full_name AS customer_name, c.phone
FROM appointments a
    JOIN services s ON s.id = a.service_id
    JOIN experts e ON e.id = a.expert_id
    JOIN customers c ON c.id = a.customer_id`

	queryGetAppointmentByCode = appointmentDetailColumns + `
    WHERE a.code = :code`

	queryListCustomerAppointments = appointmentDetailColumns + `
    WHERE a.customer_id = :customer_id AND a.status <> 'cancelled'
ORDER BY a.appointment_date DESC, a.start_time DESC
LIMIT :limit`

	queryListCustomerAppointmentsAll = appointmentDetailColumns + `
    WHERE a.customer_id = :customer_id
ORDER BY a.appointment_date DESC, a.start_time DESC
LIMIT :limit`

	queryListBlockingAppointments = `
SELECT id, code, customer_id, expert_id, service_id, appointment_date, start_time, end_time, status
FROM appointments
    WHERE appointment_date = :appointment_date AND status IN ('pending', 'confirmed')`

	queryCancelAppointment = `
UPDATE appointments
SET status = 'cancelled',
    cancellation_reason = :reason,
    cancelled_at = :cancelled_at,
    updated_at = :cancelled_at
    WHERE code = :code AND status <> 'cancelled'`

	queryListServices = `
SELECT id, name, description, duration_minutes, price, is_active
FROM services
    WHERE is_active = TRUE
ORDER BY id`

	queryListExperts = `
SELECT id, full_name, specialties, is_active
FROM experts
    WHERE is_active = TRUE
ORDER BY id`

	queryListActiveCampaigns = `
SELECT id, title, description, discount_rate, code, start_date, end_date, is_active
FROM campaigns
    WHERE is_active = TRUE AND start_date <= :today AND end_date >= :today
ORDER BY end_date`
)
