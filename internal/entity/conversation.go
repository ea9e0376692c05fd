package entity

import "time"

type ConversationLog struct {
	ID             int64     `db:"id"`
	SessionID      string    `db:"session_id"`
	RequestID      string    `db:"request_id"`
	UserMessage    string    `db:"user_message"`
	AgentResponse  string    `db:"agent_response"`
	IntentDetected string    `db:"intent_detected"`
	Flow           string    `db:"flow"`
	Action         string    `db:"action"`
	Source         string    `db:"source"`
	LatencyMs      int64     `db:"latency_ms"`
	CreatedAt      time.Time `db:"created_at"`
}
