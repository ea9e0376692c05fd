package dialogue

import (
	"fmt"

	"SalonAssistant/internal/dialogue/compose"
	"SalonAssistant/internal/dialogue/flow"
	"SalonAssistant/internal/dialogue/slot"
	"SalonAssistant/internal/dialogue/tool"

	"github.com/sirupsen/logrus"
)

// apply folds a tool result into the session. It reports true when the turn
// ends with this result.
func (o *orchestrator) apply(t *turn, def *flow.Definition, act flow.Action, res tool.Result) bool {
	if act.Terminal {
		return o.applyTerminal(t, def, res)
	}

	st := t.st
	switch act.Tool {
	case tool.CheckCustomer:
		if !res.Success {
			t.kind = compose.KindUnavailable
			return true
		}
		st.Markers[flow.CustomerChecked] = true
		if res.Bool("found") {
			st.Facts.NewCustomer = false
			st.Facts.CustomerName = res.String("name")
			st.Facts.CustomerID = int64Of(res.Payload["customer_id"])
		} else {
			st.Facts.NewCustomer = true
		}

	case tool.ListExperts:
		st.Markers[flow.ExpertsListed] = true
		if res.Success {
			st.Facts.Experts = names(res.List("experts"), "name")
		}

	case tool.CheckAvailability:
		if res.Success && res.Bool("available") {
			st.Markers[flow.AvailabilityChecked] = true
			st.Markers[flow.Available] = true
			st.Facts.RejectedDate, st.Facts.RejectedTime = "", ""
			return false
		}
		rejectSlot(st.Collected, st.Markers, &st.Facts)

	case tool.SuggestAlternativeTimes:
		st.Markers[flow.AlternativesShown] = true
		st.Facts.Alternatives = nil
		for _, a := range res.List("alternatives") {
			line := flow.DisplayDate(str(a, "date")) + " " + str(a, "time")
			if expert := str(a, "expert_name"); expert != "" {
				line += " (" + expert + ")"
			}
			st.Facts.Alternatives = append(st.Facts.Alternatives, line)
		}

	case tool.GetCustomerAppointments:
		if !res.Success {
			t.kind = compose.KindUnavailable
			return true
		}
		st.Markers[flow.AppointmentsFetched] = true
		if items := res.List("appointments"); len(items) > 0 {
			latest := items[0]
			st.Facts.AppointmentCode = str(latest, "code")
			st.Facts.AppointmentDate = str(latest, "date")
			st.Facts.AppointmentTime = str(latest, "time")
			st.Facts.AppointmentSvc = str(latest, "service")
		}

	default:
		o.log.WithField("tool", act.Tool).Warn("[dialogue.apply] no handler for gate result")
	}
	return false
}

func (o *orchestrator) applyTerminal(t *turn, def *flow.Definition, res tool.Result) bool {
	st := t.st

	if res.Success {
		t.kind = compose.KindResult
		t.reset = true
		return true
	}

	switch res.Reason {
	case tool.ReasonRejected:
		if res.Tool == tool.CreateAppointment {
			// Someone else took the slot between the check and the booking.
			rejectSlot(st.Collected, st.Markers, &st.Facts)
			return false
		}
		t.kind = compose.KindResult
		t.reset = true
		return true

	case tool.ReasonExecutionError:
		t.kind = compose.KindResult
		if def.Confirm {
			st.Markers[flow.ConfirmationPending] = true
		}
		return true

	default:
		// Missing params or an unregistered terminal mean the flow cannot
		// complete from this state.
		o.log.WithFields(logrus.Fields{
			"tool":   res.Tool,
			"reason": res.Reason,
		}).Error("[dialogue.applyTerminal] terminal tool misconfigured")
		t.kind = compose.KindResult
		t.reset = true
		return true
	}
}

// rejectSlot forgets a date/time pair that turned out to be unavailable so
// the flow asks for another one.
func rejectSlot(c flow.Collected, m flow.Markers, f *flow.Facts) {
	f.RejectedDate = c[slot.Date]
	f.RejectedTime = c[slot.Time]
	delete(c, slot.Date)
	delete(c, slot.Time)
	delete(m, flow.AvailabilityChecked)
	delete(m, flow.Available)
	delete(m, flow.Confirmed)
	delete(m, flow.ConfirmationPending)
}

func names(items []map[string]any, key string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if n := str(item, key); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func str(m map[string]any, key string) string {
	return tool.Params(m).String(key)
}

func int64Of(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	case string:
		var out int64
		fmt.Sscan(n, &out)
		return out
	}
	return 0
}
