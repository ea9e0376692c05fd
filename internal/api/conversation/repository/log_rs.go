package conversationRepository

import (
	"context"

	"SalonAssistant/internal/entity"
	contextPkg "SalonAssistant/pkg/context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

func (r *logRepository) InsertLog(c context.Context, entry entity.ConversationLog) error {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryInsertConversationLog, entry)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for InsertLog")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": entry.SessionID,
			"error":      err.Error(),
		}).Error("Failed to execute query for InsertLog")
		return err
	}

	return nil
}

func (r *logRepository) ListBySession(c context.Context, sessionID string, limit int) ([]entity.ConversationLog, error) {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryListConversationLogs, map[string]interface{}{
		"session_id": sessionID,
		"limit":      limit,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for ListBySession")
		return nil, err
	}
	query = r.q.Rebind(query)

	var logs []entity.ConversationLog
	if err := sqlx.SelectContext(c, r.q, &logs, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Failed to execute query for ListBySession")
		return nil, err
	}

	return logs, nil
}
