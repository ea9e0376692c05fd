package conversation

import "time"

// MaxMessageLength bounds a single customer utterance.
const MaxMessageLength = 1000

type StartSessionResponse struct {
	SessionID string    `json:"session_id"`
	Greeting  string    `json:"greeting"`
	CreatedAt time.Time `json:"created_at"`
}

type TurnRequest struct {
	Message string `json:"message" validate:"max=1000"`
}

type TurnResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Flow      string `json:"flow"`
	Intent    string `json:"intent"`
	Action    string `json:"action"`
	Source    string `json:"source"`
}

type HistoryItem struct {
	Speaker string    `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

type SessionResponse struct {
	SessionID string            `json:"session_id"`
	Flow      string            `json:"flow"`
	Collected map[string]string `json:"collected"`
	History   []HistoryItem     `json:"history"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type EndSessionResponse struct {
	SessionID  string `json:"session_id"`
	Turns      int    `json:"turns"`
	ArchiveURL string `json:"archive_url,omitempty"`
}

type LogResponse struct {
	RequestID string    `json:"request_id"`
	Message   string    `json:"message"`
	Reply     string    `json:"reply"`
	Intent    string    `json:"intent"`
	Flow      string    `json:"flow"`
	Action    string    `json:"action"`
	Source    string    `json:"source"`
	LatencyMs int64     `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}

// Transcript is the document archived when a conversation ends.
type Transcript struct {
	SessionID string        `json:"session_id"`
	Flow      string        `json:"flow"`
	History   []HistoryItem `json:"history"`
	CreatedAt time.Time     `json:"created_at"`
	EndedAt   time.Time     `json:"ended_at"`
}

// WebSocket frame types.
const (
	FrameMessage   = "message"
	FrameReply     = "reply"
	FrameStreamEnd = "stream_end"
	FrameError     = "error"
)

type Frame struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Reply   string `json:"reply,omitempty"`
	Flow    string `json:"flow,omitempty"`
	Action  string `json:"action,omitempty"`
	Error   string `json:"error,omitempty"`
}
