package conversationHandler

import (
	"context"
	"errors"
	"strings"
	"time"

	"SalonAssistant/internal/api/conversation"
	"SalonAssistant/internal/middleware"
	contextPkg "SalonAssistant/pkg/context"
	"SalonAssistant/pkg/response"

	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

const (
	wsReadTimeout  = 10 * time.Minute
	wsWriteTimeout = 10 * time.Second
	wsTurnTimeout  = 30 * time.Second

	wsInternalError = "Bir sorun oluştu, lütfen daha sonra tekrar deneyin."
)

// handleWebSocket runs one conversation per connection. Each incoming text
// frame is a customer message, either raw text or a {"type":"message"} JSON
// frame. The reply text is written back followed by a stream_end frame.
func (h *ConversationHandler) handleWebSocket(c *websocket.Conn) {
	sessionID := c.Params("session_id")
	requestID, _ := c.Locals(middleware.RequestIDKey).(string)

	entry := h.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": sessionID,
	})
	entry.Info("Conversation WebSocket client connected")
	defer entry.Info("Conversation WebSocket client disconnected")

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			entry.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(wsReadTimeout)); err != nil {
			entry.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, raw, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				entry.Errorf("Conversation WebSocket error: %v", err)
			}
			break
		}
		if messageType != websocket.TextMessage {
			entry.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		base := contextPkg.WithSessionID(contextPkg.WithRequestID(context.Background(), requestID), sessionID)
		ctx, cancel := context.WithTimeout(base, wsTurnTimeout)
		res, err := h.conversationService.HandleTurn(ctx, sessionID, parseIncoming(raw))
		cancel()

		if err != nil {
			entry.WithField("error", err.Error()).Warn("Conversation turn failed")
			if !h.write(c, websocket.TextMessage, mustFrame(conversation.Frame{Type: conversation.FrameError, Error: clientError(err)})) {
				break
			}
			continue
		}

		if !h.write(c, websocket.TextMessage, []byte(res.Reply)) {
			break
		}
		if !h.write(c, websocket.TextMessage, mustFrame(conversation.Frame{
			Type:   conversation.FrameStreamEnd,
			Flow:   res.Flow,
			Action: res.Action,
		})) {
			break
		}
	}
}

func (h *ConversationHandler) write(c *websocket.Conn, messageType int, data []byte) bool {
	if err := c.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		h.log.Errorf("Error setting write deadline: %v", err)
		return false
	}
	if err := c.WriteMessage(messageType, data); err != nil {
		h.log.Errorf("Error writing WebSocket message: %v", err)
		return false
	}
	return true
}

// parseIncoming accepts raw text or a message frame.
func parseIncoming(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(text, "{") {
		return text
	}
	var frame conversation.Frame
	if err := jsoniter.Unmarshal(raw, &frame); err != nil || frame.Type != conversation.FrameMessage {
		return text
	}
	return frame.Message
}

// clientError is the text sent in an error frame. Only domain errors are
// shown as is; anything else stays in the log.
func clientError(err error) string {
	var respErr *response.Error
	if errors.As(err, &respErr) {
		return respErr.Error()
	}
	return wsInternalError
}

func mustFrame(f conversation.Frame) []byte {
	b, err := jsoniter.Marshal(f)
	if err != nil {
		return []byte(`{"type":"error"}`)
	}
	return b
}
