package session

import (
	"time"

	"SalonAssistant/internal/dialogue/flow"
	"SalonAssistant/internal/dialogue/tool"
)

// DefaultHistoryLimit bounds the turns kept per session.
const DefaultHistoryLimit = 20

// Speakers recorded in the history.
const (
	SpeakerUser      = "user"
	SpeakerAssistant = "assistant"
)

type Turn struct {
	Speaker string    `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// State is everything the orchestrator keeps between two turns of one
// conversation.
type State struct {
	SessionID      string         `json:"session_id"`
	FlowType       flow.Type      `json:"flow_type"`
	Collected      flow.Collected `json:"collected"`
	Markers        flow.Markers   `json:"markers"`
	Facts          flow.Facts     `json:"facts"`
	History        []Turn         `json:"history"`
	LastToolResult *tool.Result   `json:"last_tool_result,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func New(sessionID string, now time.Time) *State {
	return &State{
		SessionID: sessionID,
		Collected: flow.Collected{},
		Markers:   flow.Markers{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Collected = s.Collected.Clone()
	out.Markers = s.Markers.Clone()
	out.Facts = s.Facts.Clone()
	out.History = append([]Turn(nil), s.History...)
	if s.LastToolResult != nil {
		res := *s.LastToolResult
		res.Payload = clonePayload(s.LastToolResult.Payload)
		out.LastToolResult = &res
	}
	return &out
}

// ResetFlow drops the flow and everything collected for it. The customer
// identity learned from tools survives so later flows can reuse it.
func (s *State) ResetFlow() {
	s.FlowType = flow.None
	s.Collected = flow.Collected{}
	s.Markers = flow.Markers{}
	s.Facts = flow.Facts{CustomerID: s.Facts.CustomerID, CustomerName: s.Facts.CustomerName}
}

// AppendHistory adds a turn and evicts the oldest entries beyond limit.
func (s *State) AppendHistory(speaker, text string, at time.Time, limit int) {
	s.History = append(s.History, Turn{Speaker: speaker, Text: text, At: at})
	if limit > 0 && len(s.History) > limit {
		s.History = append([]Turn(nil), s.History[len(s.History)-limit:]...)
	}
}

func clonePayload(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return clonePayload(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}
