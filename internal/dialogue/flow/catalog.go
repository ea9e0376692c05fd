package flow

import (
	"fmt"

	"SalonAssistant/internal/dialogue/slot"
	"SalonAssistant/internal/dialogue/tool"
)

// Gate is a tool call that has to run once its inputs are present. A gate
// with BeforeAsk set only runs right before that slot would be asked.
type Gate struct {
	Tool      string
	Marker    Marker
	Requires  []string
	BeforeAsk string
	// Unless skips the gate when this slot is already filled.
	Unless string
	// Announce puts the gate result in front of the reply; silent gates
	// only steer the flow.
	Announce bool
	Params   func(c Collected, f Facts) tool.Params
}

func (g Gate) ready(c Collected, m Markers) bool {
	if m.Has(g.Marker) {
		return false
	}
	if g.Unless != "" && c.Has(g.Unless) {
		return false
	}
	for _, s := range g.Requires {
		if !c.Has(s) {
			return false
		}
	}
	return true
}

// Definition describes one transaction flow. Definitions are built once by
// NewCatalog and never modified.
type Definition struct {
	Type     Type
	Slots    []string
	Gates    []Gate
	Terminal string
	Confirm  bool
	// Alternatives enables the "offer other times" step after a negative
	// availability check.
	Alternatives bool

	// Required overrides Slots when the slot list depends on what is known.
	Required       func(c Collected, f Facts) []string
	Precondition   func(c Collected, m Markers, f Facts) string
	Template       func(c Collected, f Facts) string
	TerminalParams func(c Collected, f Facts) tool.Params
}

func (d *Definition) RequiredSlots(c Collected, f Facts) []string {
	if d.Required != nil {
		return d.Required(c, f)
	}
	return d.Slots
}

// Catalog is the static registry of flow definitions.
type Catalog struct {
	defs map[Type]*Definition
}

func NewCatalog() *Catalog {
	return &Catalog{defs: map[Type]*Definition{
		Booking:         bookingFlow(),
		Cancel:          cancelFlow(),
		Query:           queryFlow(),
		CampaignInquiry: campaignFlow(),
	}}
}

func (c *Catalog) Get(t Type) (*Definition, bool) {
	d, ok := c.defs[t]
	return d, ok
}

func bookingFlow() *Definition {
	return &Definition{
		Type:         Booking,
		Slots:        []string{slot.Phone, slot.Service, slot.ExpertName, slot.Date, slot.Time},
		Terminal:     tool.CreateAppointment,
		Confirm:      true,
		Alternatives: true,
		Required: func(c Collected, f Facts) []string {
			if f.NewCustomer {
				return []string{slot.Phone, slot.Name, slot.Service, slot.ExpertName, slot.Date, slot.Time}
			}
			return []string{slot.Phone, slot.Service, slot.ExpertName, slot.Date, slot.Time}
		},
		Gates: []Gate{
			{
				Tool:     tool.CheckCustomer,
				Marker:   CustomerChecked,
				Requires: []string{slot.Phone},
				Params: func(c Collected, _ Facts) tool.Params {
					return tool.Params{"phone": c[slot.Phone]}
				},
			},
			{
				Tool:      tool.ListExperts,
				Marker:    ExpertsListed,
				Requires:  []string{slot.Service},
				BeforeAsk: slot.ExpertName,
				Announce:  true,
				Params: func(c Collected, _ Facts) tool.Params {
					return tool.Params{"service_type": c[slot.Service]}
				},
			},
			{
				Tool:     tool.CheckAvailability,
				Marker:   AvailabilityChecked,
				Requires: []string{slot.Service, slot.ExpertName, slot.Date, slot.Time},
				Params: func(c Collected, _ Facts) tool.Params {
					return tool.Params{
						"service_type": c[slot.Service],
						"date":         c[slot.Date],
						"time":         c[slot.Time],
						"expert_name":  c[slot.ExpertName],
					}
				},
			},
		},
		Template: func(c Collected, _ Facts) string {
			return fmt.Sprintf(bookingConfirmTemplate,
				displayDate(c[slot.Date]), c[slot.Time], c[slot.ExpertName], c[slot.Service])
		},
		TerminalParams: func(c Collected, f Facts) tool.Params {
			name := c[slot.Name]
			if name == "" {
				name = f.CustomerName
			}
			return tool.Params{
				"phone":         c[slot.Phone],
				"service_type":  c[slot.Service],
				"expert_name":   c[slot.ExpertName],
				"date":          c[slot.Date],
				"time":          c[slot.Time],
				"customer_name": name,
			}
		},
	}
}

func cancelFlow() *Definition {
	return &Definition{
		Type:     Cancel,
		Slots:    []string{slot.Phone},
		Terminal: tool.CancelAppointment,
		Confirm:  true,
		Required: func(c Collected, _ Facts) []string {
			if c.Has(slot.AppointmentCode) {
				return []string{slot.AppointmentCode}
			}
			return []string{slot.Phone}
		},
		Gates: []Gate{
			{
				Tool:     tool.GetCustomerAppointments,
				Marker:   AppointmentsFetched,
				Requires: []string{slot.Phone},
				Unless:   slot.AppointmentCode,
				Params: func(c Collected, _ Facts) tool.Params {
					return tool.Params{"phone": c[slot.Phone]}
				},
			},
		},
		Precondition: func(c Collected, m Markers, f Facts) string {
			if c.Has(slot.AppointmentCode) || f.AppointmentCode != "" {
				return ""
			}
			if m.Has(AppointmentsFetched) {
				return ReasonNoAppointment
			}
			return ""
		},
		Template: func(c Collected, f Facts) string {
			if f.AppointmentDate != "" && f.AppointmentSvc != "" && !c.Has(slot.AppointmentCode) {
				return fmt.Sprintf(cancelConfirmTemplate, displayDate(f.AppointmentDate), f.AppointmentSvc)
			}
			return cancelConfirmFallback
		},
		TerminalParams: func(c Collected, f Facts) tool.Params {
			code := c[slot.AppointmentCode]
			if code == "" {
				code = f.AppointmentCode
			}
			return tool.Params{"appointment_code": code}
		},
	}
}

func queryFlow() *Definition {
	return &Definition{
		Type:     Query,
		Slots:    []string{slot.Phone},
		Terminal: tool.GetCustomerAppointments,
		TerminalParams: func(c Collected, _ Facts) tool.Params {
			return tool.Params{"phone": c[slot.Phone]}
		},
	}
}

func campaignFlow() *Definition {
	return &Definition{
		Type:     CampaignInquiry,
		Terminal: tool.CheckCampaigns,
		TerminalParams: func(_ Collected, f Facts) tool.Params {
			if f.CustomerID > 0 {
				return tool.Params{"customer_id": f.CustomerID}
			}
			return tool.Params{}
		},
	}
}
