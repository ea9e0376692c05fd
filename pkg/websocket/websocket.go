package websocketPkg

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"SalonAssistant/internal/api/conversation"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
)

var ErrClosed = errors.New("conversation connection is closed")

// Reply is one assistant answer as it arrives over the conversation socket.
type Reply struct {
	Text   string
	Flow   string
	Action string
}

type IConversationClient interface {
	Send(ctx context.Context, message string) (Reply, error)
	SessionID() string
	Close() error
}

type conversationClient struct {
	conn         *websocket.Conn
	sessionID    string
	mu           sync.Mutex
	closed       bool
	done         chan struct{}
	pingInterval time.Duration
	writeTimeout time.Duration
}

// Dial opens the conversation socket of sessionID on the server at baseURL,
// e.g. ws://localhost:3000.
func Dial(ctx context.Context, baseURL, sessionID string) (IConversationClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path += "/api/v1/conversations/" + url.PathEscape(sessionID) + "/ws"

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", u.String(), err)
	}

	c := &conversationClient{
		conn:         conn,
		sessionID:    sessionID,
		done:         make(chan struct{}),
		pingInterval: 30 * time.Second,
		writeTimeout: 5 * time.Second,
	}
	go c.keepAlive()

	return c, nil
}

func (c *conversationClient) SessionID() string { return c.sessionID }

// Send writes one message and collects the reply until the server closes the
// turn with a stream_end frame.
func (c *conversationClient) Send(ctx context.Context, message string) (Reply, error) {
	frame, err := jsoniter.Marshal(conversation.Frame{Type: conversation.FrameMessage, Message: message})
	if err != nil {
		return Reply{}, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Reply{}, ErrClosed
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	err = c.conn.WriteMessage(websocket.TextMessage, frame)
	c.mu.Unlock()
	if err != nil {
		return Reply{}, fmt.Errorf("failed to send message: %w", err)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(time.Minute)
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return Reply{}, err
	}

	var (
		reply Reply
		parts []string
	)
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return Reply{}, fmt.Errorf("failed to read reply: %w", err)
		}

		f, isFrame := parseFrame(raw)
		if !isFrame {
			parts = append(parts, string(raw))
			continue
		}

		switch f.Type {
		case conversation.FrameStreamEnd:
			reply.Text = strings.Join(parts, "")
			reply.Flow = f.Flow
			reply.Action = f.Action
			return reply, nil
		case conversation.FrameError:
			return Reply{}, fmt.Errorf("server error: %s", f.Error)
		case conversation.FrameReply:
			parts = append(parts, f.Reply)
		}
	}
}

func (c *conversationClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)

	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(c.writeTimeout),
	)
	return c.conn.Close()
}

func (c *conversationClient) keepAlive() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(c.writeTimeout))
		c.mu.Unlock()
		if err != nil {
			return
		}
	}
}

// parseFrame reports whether raw is a control frame rather than reply text.
func parseFrame(raw []byte) (conversation.Frame, bool) {
	var f conversation.Frame
	if len(raw) == 0 || raw[0] != '{' {
		return f, false
	}
	if err := jsoniter.Unmarshal(raw, &f); err != nil {
		return f, false
	}
	switch f.Type {
	case conversation.FrameStreamEnd, conversation.FrameError, conversation.FrameReply:
		return f, true
	}
	return f, false
}
