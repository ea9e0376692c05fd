package salonService

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"SalonAssistant/internal/api/salon"
	"SalonAssistant/internal/dialogue/tool"
	"SalonAssistant/pkg/response"

	jsoniter "github.com/json-iterator/go"
)

// Tools exposes svc through the business tool contract used by the
// dialogue executor and the REST tool endpoint.
func Tools(svc ISalonService) []tool.Tool {
	return []tool.Tool{
		tool.Func{
			ToolName: tool.CheckCustomer,
			Required: []string{"phone"},
			Fn: func(ctx context.Context, p tool.Params) (map[string]any, error) {
				return payload(svc.CheckCustomer(ctx, p.String("phone")))
			},
		},
		tool.Func{
			ToolName: tool.CreateCustomer,
			Required: []string{"phone"},
			Mutates:  true,
			Fn: func(ctx context.Context, p tool.Params) (map[string]any, error) {
				name := p.String("full_name")
				if name == "" {
					name = p.String("name")
				}
				return payload(svc.CreateCustomer(ctx, salon.CreateCustomerRequest{
					FullName: name,
					Phone:    p.String("phone"),
					Email:    p.String("email"),
				}))
			},
		},
		tool.Func{
			ToolName: tool.GetCustomerAppointments,
			Required: []string{"phone"},
			Fn: func(ctx context.Context, p tool.Params) (map[string]any, error) {
				items, err := svc.GetCustomerAppointments(ctx, p.String("phone"))
				return payload(map[string]any{"appointments": items}, err)
			},
		},
		tool.Func{
			ToolName: tool.ListServices,
			Fn: func(ctx context.Context, _ tool.Params) (map[string]any, error) {
				items, err := svc.ListServices(ctx)
				return payload(map[string]any{"services": items}, err)
			},
		},
		tool.Func{
			ToolName: tool.ListExperts,
			Fn: func(ctx context.Context, p tool.Params) (map[string]any, error) {
				items, err := svc.ListExperts(ctx, p.String("service_type"))
				return payload(map[string]any{"experts": items}, err)
			},
		},
		tool.Func{
			ToolName: tool.CheckCampaigns,
			Fn: func(ctx context.Context, p tool.Params) (map[string]any, error) {
				id, _ := strconv.ParseInt(p.String("customer_id"), 10, 64)
				items, err := svc.CheckCampaigns(ctx, id)
				return payload(map[string]any{"campaigns": items}, err)
			},
		},
		tool.Func{
			ToolName: tool.CheckAvailability,
			Required: []string{"service_type", "date"},
			Fn: func(ctx context.Context, p tool.Params) (map[string]any, error) {
				return payload(svc.CheckAvailability(ctx, availabilityRequest(p)))
			},
		},
		tool.Func{
			ToolName: tool.SuggestAlternativeTimes,
			Required: []string{"service_type", "date"},
			Fn: func(ctx context.Context, p tool.Params) (map[string]any, error) {
				items, err := svc.SuggestAlternatives(ctx, availabilityRequest(p))
				return payload(map[string]any{"alternatives": items}, err)
			},
		},
		tool.Func{
			ToolName: tool.CreateAppointment,
			Required: []string{"phone", "service_type", "date", "time"},
			Mutates:  true,
			Fn: func(ctx context.Context, p tool.Params) (map[string]any, error) {
				res, err := svc.CreateAppointment(ctx, salon.CreateAppointmentRequest{
					Phone:        p.String("phone"),
					ServiceType:  p.String("service_type"),
					ExpertName:   p.String("expert_name"),
					Date:         p.String("date"),
					Time:         p.String("time"),
					CustomerName: p.String("customer_name"),
					Notes:        p.String("notes"),
				})
				return withCode(payload(res, err))
			},
		},
		tool.Func{
			ToolName: tool.CancelAppointment,
			Mutates:  true,
			Fn: func(ctx context.Context, p tool.Params) (map[string]any, error) {
				res, err := svc.CancelAppointment(ctx, salon.CancelAppointmentRequest{
					AppointmentCode: p.String("appointment_code"),
					Phone:           p.String("phone"),
					Reason:          p.String("reason"),
				})
				return withCode(payload(res, err))
			},
		},
	}
}

func availabilityRequest(p tool.Params) salon.AvailabilityRequest {
	return salon.AvailabilityRequest{
		ServiceType: p.String("service_type"),
		Date:        p.String("date"),
		Time:        p.String("time"),
		ExpertName:  p.String("expert_name"),
	}
}

// payload converts a service result into the JSON shaped mapping tools
// return. Business rule violations become success=false payloads; anything
// else is an execution error.
func payload(v any, err error) (map[string]any, error) {
	if err != nil {
		if rejected(err) {
			return map[string]any{"success": false, "error": err.Error()}, nil
		}
		return nil, err
	}

	raw, err := jsoniter.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := jsoniter.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	out["success"] = true
	return out, nil
}

func withCode(out map[string]any, err error) (map[string]any, error) {
	if err == nil {
		if code, ok := out["code"]; ok {
			out["appointment_code"] = code
		}
	}
	return out, err
}

func rejected(err error) bool {
	if errors.Is(err, ErrInvalidPhone) {
		return true
	}
	var respErr *response.Error
	if errors.As(err, &respErr) {
		return respErr.Code < http.StatusInternalServerError
	}
	return false
}
