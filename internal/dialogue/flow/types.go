package flow

import (
	"strings"
)

// Type is the transaction a session is working on.
type Type string

const (
	None            Type = ""
	Booking         Type = "booking"
	Cancel          Type = "cancel"
	Query           Type = "query_appointment"
	CampaignInquiry Type = "campaign_inquiry"
	// Chat is a per-turn outcome; it is never stored as a session flow.
	Chat Type = "chat"
)

var intentAliases = map[string]Type{
	"booking":           Booking,
	"book":              Booking,
	"randevu":           Booking,
	"cancel":            Cancel,
	"cancellation":      Cancel,
	"iptal":             Cancel,
	"query":             Query,
	"query_appointment": Query,
	"sorgu":             Query,
	"campaign":          CampaignInquiry,
	"campaign_inquiry":  CampaignInquiry,
	"kampanya":          CampaignInquiry,
	"chat":              Chat,
}

// ParseIntent maps a classifier label onto the closed set of flow types.
// Anything unrecognised is Chat.
func ParseIntent(label string) Type {
	if t, ok := intentAliases[strings.ToLower(strings.TrimSpace(label))]; ok {
		return t
	}
	return Chat
}

// Transactional reports whether t drives a slot filling flow.
func (t Type) Transactional() bool {
	switch t {
	case Booking, Cancel, Query, CampaignInquiry:
		return true
	}
	return false
}

func (t Type) String() string {
	if t == None {
		return "none"
	}
	return string(t)
}

// Marker records that a checkpoint was reached.
type Marker string

const (
	CustomerChecked      Marker = "customer_checked"
	ExpertsListed        Marker = "experts_listed"
	AvailabilityChecked  Marker = "availability_checked"
	Available            Marker = "available"
	AlternativesOffered  Marker = "alternatives_offered"
	AlternativesAccepted Marker = "alternatives_accepted"
	AlternativesShown    Marker = "alternatives_shown"
	AppointmentsFetched  Marker = "appointments_fetched"
	ConfirmationPending  Marker = "confirmation_pending"
	Confirmed            Marker = "confirmed"
)

type Markers map[Marker]bool

func (m Markers) Has(k Marker) bool { return m[k] }

func (m Markers) Clone() Markers {
	out := make(Markers, len(m))
	for k, v := range m {
		if v {
			out[k] = true
		}
	}
	return out
}

// AlternativesPending reports an offer the user has not answered yet.
func (m Markers) AlternativesPending() bool {
	return m[AlternativesOffered] && !m[AlternativesAccepted] && !m[AlternativesShown]
}

// Collected maps slot names to validated values.
type Collected map[string]string

func (c Collected) Has(slot string) bool { return c[slot] != "" }

func (c Collected) Clone() Collected {
	out := make(Collected, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Facts are values learned from tool results rather than from the user.
type Facts struct {
	CustomerID      int64    `json:"customer_id,omitempty"`
	CustomerName    string   `json:"customer_name,omitempty"`
	NewCustomer     bool     `json:"new_customer,omitempty"`
	Experts         []string `json:"experts,omitempty"`
	Alternatives    []string `json:"alternatives,omitempty"`
	RejectedDate    string   `json:"rejected_date,omitempty"`
	RejectedTime    string   `json:"rejected_time,omitempty"`
	AppointmentCode string   `json:"appointment_code,omitempty"`
	AppointmentDate string   `json:"appointment_date,omitempty"`
	AppointmentTime string   `json:"appointment_time,omitempty"`
	AppointmentSvc  string   `json:"appointment_service,omitempty"`
}

func (f Facts) Clone() Facts {
	out := f
	out.Experts = append([]string(nil), f.Experts...)
	out.Alternatives = append([]string(nil), f.Alternatives...)
	return out
}

func (f Facts) IsZero() bool {
	return f.CustomerID == 0 && f.CustomerName == "" && !f.NewCustomer &&
		len(f.Experts) == 0 && len(f.Alternatives) == 0 &&
		f.RejectedDate == "" && f.RejectedTime == "" &&
		f.AppointmentCode == "" && f.AppointmentDate == "" &&
		f.AppointmentTime == "" && f.AppointmentSvc == ""
}
