package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SalonAssistant/internal/dialogue/flow"
)

// DefaultConfidence is used when the model does not report one.
const DefaultConfidence = 0.5

var ErrExtraction = errors.New("extraction failed")

// ExtractionError wraps any failure of the model call. Callers treat it as
// a fallback to chat, never as fatal.
type ExtractionError struct {
	Provider string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s extraction failed: %v", e.Provider, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

type Message struct {
	Role string `json:"role"` // "user" or "assistant"
	Text string `json:"text"`
}

type Request struct {
	Utterance     string
	History       []Message
	Flow          flow.Type
	Collected     flow.Collected
	CurrentDate   time.Time
	KnownServices []string
	KnownExperts  []string
	Knowledge     string
}

// Result is the normalized classifier output of one turn.
type Result struct {
	Intent     flow.Type
	Entities   map[string]string
	Confidence float64
	// Confirmed is set when the utterance answers a yes/no question.
	Confirmed *bool
	Source    string
}

// Sources of a Result.
const (
	SourceLLM      = "llm"
	SourceRouter   = "router"
	SourceFallback = "fallback"
)

type Extractor interface {
	Extract(ctx context.Context, req Request) (Result, error)
}

// Fallback is the result used when extraction fails.
func Fallback() Result {
	return Result{Intent: flow.Chat, Entities: map[string]string{}, Source: SourceFallback}
}
