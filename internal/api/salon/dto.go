package salon

type CheckCustomerRequest struct {
	Phone string `json:"phone" validate:"required,tr_phone"`
}

type CustomerLookup struct {
	Found             bool   `json:"found"`
	CustomerID        int64  `json:"customer_id,omitempty"`
	Name              string `json:"name,omitempty"`
	Phone             string `json:"phone"`
	TotalAppointments int    `json:"total_appointments,omitempty"`
}

type CreateCustomerRequest struct {
	FullName string `json:"full_name" validate:"required,min=2,max=100"`
	Phone    string `json:"phone" validate:"required,tr_phone"`
	Email    string `json:"email" validate:"omitempty,email"`
}

type CustomerResponse struct {
	CustomerID int64  `json:"customer_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
}

type ServiceResponse struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Duration    int     `json:"duration"`
	Price       float64 `json:"price"`
}

type ExpertResponse struct {
	Name        string   `json:"name"`
	Specialties []string `json:"specialties"`
}

type CampaignResponse struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Discount    float64 `json:"discount"`
	Code        string  `json:"code,omitempty"`
	EndDate     string  `json:"end_date"`
}

// AvailabilityRequest checks one start time when Time is set, otherwise
// the whole day.
type AvailabilityRequest struct {
	ServiceType string `json:"service_type" validate:"required"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string `json:"time" validate:"omitempty,datetime=15:04"`
	ExpertName  string `json:"expert_name"`
}

type SlotResponse struct {
	Time    string   `json:"time"`
	Experts []string `json:"experts"`
}

type AvailabilityResponse struct {
	Available  bool           `json:"available"`
	Date       string         `json:"date"`
	Time       string         `json:"time,omitempty"`
	ExpertName string         `json:"expert_name,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	Slots      []SlotResponse `json:"slots,omitempty"`
}

type Alternative struct {
	Date       string `json:"date"`
	Time       string `json:"time"`
	ExpertName string `json:"expert_name"`
}

type CreateAppointmentRequest struct {
	Phone        string `json:"phone" validate:"required,tr_phone"`
	ServiceType  string `json:"service_type" validate:"required"`
	ExpertName   string `json:"expert_name"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	Time         string `json:"time" validate:"required,datetime=15:04"`
	CustomerName string `json:"customer_name"`
	Notes        string `json:"notes"`
}

type CancelAppointmentRequest struct {
	AppointmentCode string `json:"appointment_code" validate:"omitempty,alphanum,len=6"`
	Phone           string `json:"phone" validate:"required_without=AppointmentCode"`
	Reason          string `json:"reason"`
}

type AppointmentResponse struct {
	Code         string `json:"code"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	EndTime      string `json:"end_time,omitempty"`
	Service      string `json:"service"`
	ExpertName   string `json:"expert_name"`
	CustomerName string `json:"customer_name,omitempty"`
	Status       string `json:"status"`
}

// ToolRequest is the body of the REST mirror of the tool contract.
type ToolRequest struct {
	Params map[string]any `json:"params"`
}

type ToolResponse struct {
	Tool    string         `json:"tool"`
	Success bool           `json:"success"`
	Payload map[string]any `json:"payload,omitempty"`
	Reason  string         `json:"reason,omitempty"`
	Error   string         `json:"error,omitempty"`
}
