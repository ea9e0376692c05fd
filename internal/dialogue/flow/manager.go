package flow

import (
	"errors"
	"fmt"

	"SalonAssistant/internal/dialogue/slot"
	"SalonAssistant/internal/dialogue/tool"
)

type ActionKind int

const (
	AskSlot ActionKind = iota
	InvokeTool
	RequestConfirmation
	OfferAlternatives
	Finalize
	Respond
)

func (k ActionKind) String() string {
	switch k {
	case AskSlot:
		return "ask_slot"
	case InvokeTool:
		return "invoke_tool"
	case RequestConfirmation:
		return "request_confirmation"
	case OfferAlternatives:
		return "offer_alternatives"
	case Finalize:
		return "finalize"
	default:
		return "chat"
	}
}

// Action is the next step of a flow.
type Action struct {
	Kind   ActionKind
	Slot   string
	Tool   string
	Params tool.Params
	// Terminal marks the flow's final operation.
	Terminal bool
	Announce bool
	Message  string
	// Reason is set on Finalize actions that end the flow without a tool.
	Reason string
}

var ErrStateCorruption = errors.New("session state corrupted")

type StateCorruptionError struct {
	Flow   Type
	Detail string
}

func (e *StateCorruptionError) Error() string {
	return fmt.Sprintf("state corruption in flow %s: %s", e.Flow, e.Detail)
}

func (e *StateCorruptionError) Is(target error) bool {
	return target == ErrStateCorruption
}

// Manager is the deterministic decision function over a flow catalog.
type Manager struct {
	catalog *Catalog
}

func NewManager(catalog *Catalog) *Manager {
	return &Manager{catalog: catalog}
}

func (m *Manager) Catalog() *Catalog {
	return m.catalog
}

// Decide returns the next action for def given what has been collected.
func (m *Manager) Decide(def *Definition, c Collected, mk Markers, f Facts) Action {
	if def == nil {
		return Action{Kind: Respond}
	}

	for _, g := range def.Gates {
		if g.BeforeAsk == "" && g.ready(c, mk) {
			return gateAction(g, c, f)
		}
	}

	if def.Alternatives && f.RejectedDate != "" && !c.Has(slot.Date) {
		switch {
		case !mk.Has(AlternativesOffered):
			return Action{Kind: OfferAlternatives, Message: OfferAlternativesText}
		case mk.Has(AlternativesAccepted) && !mk.Has(AlternativesShown):
			return Action{
				Kind:     InvokeTool,
				Tool:     tool.SuggestAlternativeTimes,
				Announce: true,
				Params: tool.Params{
					"service_type": c[slot.Service],
					"date":         f.RejectedDate,
					"expert_name":  c[slot.ExpertName],
				},
			}
		}
	}

	for _, s := range def.RequiredSlots(c, f) {
		if c.Has(s) {
			continue
		}
		for _, g := range def.Gates {
			if g.BeforeAsk == s && g.ready(c, mk) {
				return gateAction(g, c, f)
			}
		}
		return Action{Kind: AskSlot, Slot: s}
	}

	if def.Precondition != nil {
		if reason := def.Precondition(c, mk, f); reason != "" {
			return Action{Kind: Finalize, Reason: reason}
		}
	}

	if def.Confirm && !mk.Has(Confirmed) {
		return Action{Kind: RequestConfirmation, Message: def.Template(c, f)}
	}

	params := tool.Params{}
	if def.TerminalParams != nil {
		params = def.TerminalParams(c, f)
	}
	return Action{Kind: InvokeTool, Tool: def.Terminal, Params: params, Terminal: true}
}

func gateAction(g Gate, c Collected, f Facts) Action {
	params := tool.Params{}
	if g.Params != nil {
		params = g.Params(c, f)
	}
	return Action{Kind: InvokeTool, Tool: g.Tool, Params: params, Announce: g.Announce}
}

// CheckInvariants reports the first violated session invariant, if any.
func (m *Manager) CheckInvariants(t Type, c Collected, mk Markers, f Facts) error {
	if t == None {
		if len(c) > 0 || len(mk.Clone()) > 0 {
			return &StateCorruptionError{Flow: t, Detail: "slots or markers without an active flow"}
		}
		return nil
	}

	def, ok := m.catalog.Get(t)
	if !ok {
		return &StateCorruptionError{Flow: t, Detail: "flow is not in the catalog"}
	}

	for name, value := range c {
		canonical, err := slot.Validate(name, value)
		if err != nil || canonical != value {
			return &StateCorruptionError{Flow: t, Detail: fmt.Sprintf("slot %s holds an invalid value", name)}
		}
	}

	if mk.Has(ConfirmationPending) && !def.Confirm {
		return &StateCorruptionError{Flow: t, Detail: "confirmation pending on a flow without confirmation"}
	}

	if mk.Has(Confirmed) {
		for _, s := range def.RequiredSlots(c, f) {
			if !c.Has(s) {
				return &StateCorruptionError{Flow: t, Detail: fmt.Sprintf("confirmed without slot %s", s)}
			}
		}
	}

	return nil
}
