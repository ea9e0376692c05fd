package conversationService

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"

	"SalonAssistant/internal/api/conversation"
	"SalonAssistant/internal/dialogue/session"
	contextPkg "SalonAssistant/pkg/context"

	"github.com/sirupsen/logrus"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func validSessionID(id string) error {
	if !sessionIDPattern.MatchString(id) {
		return conversation.ErrInvalidSessionID
	}
	return nil
}

func (s *conversationService) StartSession(ctx context.Context) (conversation.StartSessionResponse, error) {
	id, err := s.utils.NewSessionID()
	if err != nil {
		return conversation.StartSessionResponse{}, fmt.Errorf("generate session id: %w", err)
	}

	now := s.now()
	if err := s.store.Save(ctx, session.New(id, now)); err != nil {
		return conversation.StartSessionResponse{}, fmt.Errorf("save session %s: %w", id, err)
	}

	s.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"session_id": id,
	}).Info("[conversation.StartSession] conversation started")

	return conversation.StartSessionResponse{
		SessionID: id,
		Greeting:  s.config.Greeting,
		CreatedAt: now,
	}, nil
}

// HandleTurn answers one customer message. Unknown session ids start a new
// conversation under that id.
func (s *conversationService) HandleTurn(ctx context.Context, sessionID, message string) (conversation.TurnResponse, error) {
	if err := validSessionID(sessionID); err != nil {
		return conversation.TurnResponse{}, err
	}
	if utf8.RuneCountInString(message) > conversation.MaxMessageLength {
		return conversation.TurnResponse{}, conversation.ErrMessageTooLong
	}

	reply, err := s.orchestrator.HandleTurn(ctx, sessionID, message)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return conversation.TurnResponse{}, conversation.ErrTurnUnavailable
		}
		return conversation.TurnResponse{}, err
	}

	return conversation.TurnResponse{
		SessionID: reply.SessionID,
		Reply:     reply.Text,
		Flow:      reply.Flow.String(),
		Intent:    reply.Intent.String(),
		Action:    reply.Action,
		Source:    reply.Source,
	}, nil
}

func (s *conversationService) GetSession(ctx context.Context, sessionID string) (conversation.SessionResponse, error) {
	if err := validSessionID(sessionID); err != nil {
		return conversation.SessionResponse{}, err
	}

	st, err := s.orchestrator.Session(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return conversation.SessionResponse{}, conversation.ErrSessionNotFound
	}
	if err != nil {
		return conversation.SessionResponse{}, err
	}

	collected := make(map[string]string, len(st.Collected))
	for k, v := range st.Collected {
		collected[k] = v
	}

	return conversation.SessionResponse{
		SessionID: st.SessionID,
		Flow:      st.FlowType.String(),
		Collected: collected,
		History:   history(st),
		CreatedAt: st.CreatedAt,
		UpdatedAt: st.UpdatedAt,
	}, nil
}

func (s *conversationService) GetLogs(ctx context.Context, sessionID string) ([]conversation.LogResponse, error) {
	if err := validSessionID(sessionID); err != nil {
		return nil, err
	}
	if s.repo == nil {
		return []conversation.LogResponse{}, nil
	}

	client, err := s.repo.NewClient(false)
	if err != nil {
		return nil, err
	}

	logs, err := client.Logs.ListBySession(ctx, sessionID, s.config.LogLimit)
	if err != nil {
		return nil, err
	}

	out := make([]conversation.LogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, conversation.LogResponse{
			RequestID: l.RequestID,
			Message:   l.UserMessage,
			Reply:     l.AgentResponse,
			Intent:    l.IntentDetected,
			Flow:      l.Flow,
			Action:    l.Action,
			Source:    l.Source,
			LatencyMs: l.LatencyMs,
			CreatedAt: l.CreatedAt,
		})
	}
	return out, nil
}

func history(st *session.State) []conversation.HistoryItem {
	out := make([]conversation.HistoryItem, 0, len(st.History))
	for _, t := range st.History {
		out = append(out, conversation.HistoryItem{Speaker: t.Speaker, Text: t.Text, At: t.At})
	}
	return out
}
