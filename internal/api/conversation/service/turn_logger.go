package conversationService

import (
	"context"
	"time"

	conversationRepository "SalonAssistant/internal/api/conversation/repository"
	"SalonAssistant/internal/dialogue"
	"SalonAssistant/internal/entity"

	"github.com/sirupsen/logrus"
)

// TurnLogger persists every committed turn to conversation_logs. Write
// failures are logged and never reach the customer.
type TurnLogger struct {
	log     *logrus.Logger
	repo    conversationRepository.Repository
	timeout time.Duration
}

func NewTurnLogger(log *logrus.Logger, repo conversationRepository.Repository) *TurnLogger {
	return &TurnLogger{log: log, repo: repo, timeout: 5 * time.Second}
}

func (t *TurnLogger) LogTurn(ctx context.Context, rec dialogue.TurnRecord) {
	c, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.timeout)
	defer cancel()

	client, err := t.repo.NewClient(false)
	if err == nil {
		err = client.Logs.InsertLog(c, entity.ConversationLog{
			SessionID:      rec.SessionID,
			RequestID:      rec.RequestID,
			UserMessage:    rec.Utterance,
			AgentResponse:  rec.Reply,
			IntentDetected: rec.Intent,
			Flow:           rec.Flow,
			Action:         rec.Action,
			Source:         rec.Source,
			LatencyMs:      rec.Latency.Milliseconds(),
			CreatedAt:      rec.At,
		})
	}
	if err != nil {
		t.log.WithFields(logrus.Fields{
			"request_id": rec.RequestID,
			"session_id": rec.SessionID,
			"error":      err.Error(),
		}).Warn("[conversation.LogTurn] failed to persist turn")
	}
}
