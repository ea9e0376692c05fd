package tool

import (
	"errors"
	"fmt"
)

// Failure reasons.
const (
	ReasonInvalidParams  = "invalid_params"
	ReasonExecutionError = "execution_error"
	ReasonRejected       = "rejected"
	ReasonUnknownTool    = "unknown_tool"
)

var ErrToolExecution = errors.New("tool execution failed")

// Result is either a success carrying the provider payload or a failure
// carrying a reason code and a message meant for logs only.
type Result struct {
	Tool    string         `json:"tool"`
	Success bool           `json:"success"`
	Payload map[string]any `json:"payload,omitempty"`
	Reason  string         `json:"reason,omitempty"`
	Message string         `json:"message,omitempty"`
}

func Success(name string, payload map[string]any) Result {
	if payload == nil {
		payload = map[string]any{}
	}
	return Result{Tool: name, Success: true, Payload: payload}
}

func Failure(name, reason, message string) Result {
	return Result{Tool: name, Reason: reason, Message: message}
}

// Err returns a *ExecutionError for failures and nil for successes.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return &ExecutionError{Tool: r.Tool, Reason: r.Reason, Message: r.Message}
}

func (r Result) String(key string) string {
	return Params(r.Payload).String(key)
}

func (r Result) Bool(key string) bool {
	b, _ := r.Payload[key].(bool)
	return b
}

// List returns the payload entry at key as a slice of objects.
func (r Result) List(key string) []map[string]any {
	raw, ok := r.Payload[key].([]any)
	if !ok {
		if typed, ok := r.Payload[key].([]map[string]any); ok {
			return typed
		}
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

type ExecutionError struct {
	Tool    string
	Reason  string
	Message string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed (%s): %s", e.Tool, e.Reason, e.Message)
}

func (e *ExecutionError) Is(target error) bool {
	return target == ErrToolExecution
}
