package conversation

import (
	"net/http"

	"SalonAssistant/pkg/response"
)

var (
	ErrSessionNotFound  = response.NewError(http.StatusNotFound, "conversation not found")
	ErrMessageTooLong   = response.NewError(http.StatusRequestEntityTooLarge, "message is too long")
	ErrInvalidSessionID = response.NewError(http.StatusBadRequest, "invalid session id")
	ErrTurnUnavailable  = response.NewError(http.StatusServiceUnavailable, "assistant is busy, please try again")
	ErrArchiveFailed    = response.NewError(http.StatusBadGateway, "failed to archive conversation")
)
