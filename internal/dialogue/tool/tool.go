package tool

import (
	"context"
	"fmt"
	"strings"
)

// Operation names of the business tool contract.
const (
	CheckCustomer           = "check_customer"
	CreateCustomer          = "create_customer"
	GetCustomerAppointments = "get_customer_appointments"
	ListServices            = "list_services"
	ListExperts             = "list_experts"
	CheckCampaigns          = "check_campaigns"
	CheckAvailability       = "check_availability"
	SuggestAlternativeTimes = "suggest_alternative_times"
	CreateAppointment       = "create_appointment"
	CancelAppointment       = "cancel_appointment"
)

// Params is the parameter mapping handed to a tool.
type Params map[string]any

// String returns the trimmed string form of key, or "" when absent.
func (p Params) String(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func (p Params) Has(key string) bool {
	return p.String(key) != ""
}

// Tool is one business operation the flow manager can invoke.
type Tool interface {
	Name() string
	RequiredParams() []string
	// SideEffect reports whether the tool mutates business state and must
	// therefore only run after an explicit confirmation.
	SideEffect() bool
	Invoke(ctx context.Context, params Params) (map[string]any, error)
}

// Func adapts a plain function to the Tool interface.
type Func struct {
	ToolName string
	Required []string
	Mutates  bool
	Fn       func(ctx context.Context, params Params) (map[string]any, error)
}

func (f Func) Name() string             { return f.ToolName }
func (f Func) RequiredParams() []string { return f.Required }
func (f Func) SideEffect() bool         { return f.Mutates }

func (f Func) Invoke(ctx context.Context, params Params) (map[string]any, error) {
	if f.Fn == nil {
		return nil, fmt.Errorf("tool %s has no implementation", f.ToolName)
	}
	return f.Fn(ctx, params)
}
