package conversationService

import (
	"context"
	"errors"
	"fmt"

	"SalonAssistant/internal/api/conversation"
	"SalonAssistant/internal/dialogue/session"
	contextPkg "SalonAssistant/pkg/context"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// EndSession archives the transcript when an archive is configured and then
// removes the conversation. A failed upload keeps the conversation.
func (s *conversationService) EndSession(ctx context.Context, sessionID string) (conversation.EndSessionResponse, error) {
	if err := validSessionID(sessionID); err != nil {
		return conversation.EndSessionResponse{}, err
	}
	requestID := contextPkg.GetRequestID(ctx)

	st, err := s.orchestrator.Session(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return conversation.EndSessionResponse{}, conversation.ErrSessionNotFound
	}
	if err != nil {
		return conversation.EndSessionResponse{}, err
	}

	var location string
	if s.archive != nil && len(st.History) > 0 {
		location, err = s.upload(ctx, st)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"session_id": sessionID,
				"error":      err.Error(),
			}).Error("[conversation.EndSession] failed to archive transcript")
			return conversation.EndSessionResponse{}, conversation.ErrArchiveFailed
		}
	}

	ended, err := s.orchestrator.EndSession(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return conversation.EndSessionResponse{}, conversation.ErrSessionNotFound
	}
	if err != nil {
		return conversation.EndSessionResponse{}, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": sessionID,
		"archive":    location,
	}).Info("[conversation.EndSession] conversation ended")

	return conversation.EndSessionResponse{
		SessionID:  sessionID,
		Turns:      len(ended.History) / 2,
		ArchiveURL: location,
	}, nil
}

func (s *conversationService) upload(ctx context.Context, st *session.State) (string, error) {
	body, err := jsoniter.MarshalIndent(conversation.Transcript{
		SessionID: st.SessionID,
		Flow:      st.FlowType.String(),
		History:   history(st),
		CreatedAt: st.CreatedAt,
		EndedAt:   s.now(),
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode transcript: %w", err)
	}

	c, cancel := context.WithTimeout(ctx, s.config.ArchiveTimeout)
	defer cancel()

	key := fmt.Sprintf("%s/%s.json", st.CreatedAt.Format("2006/01/02"), st.SessionID)
	return s.archive.Upload(c, key, body, "application/json")
}
