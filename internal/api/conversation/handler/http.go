package conversationHandler

import (
	conversationService "SalonAssistant/internal/api/conversation/service"
	"SalonAssistant/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type ConversationHandler struct {
	log                 *logrus.Logger
	validator           *validator.Validate
	middleware          middleware.Middleware
	conversationService conversationService.IConversationService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	cs conversationService.IConversationService,
) *ConversationHandler {
	return &ConversationHandler{
		log:                 log,
		validator:           validate,
		middleware:          middleware,
		conversationService: cs,
	}
}

func (h *ConversationHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	conversations := srv.Group("/conversations")

	conversations.Post("/", h.middleware.NewRateLimiter, h.StartSession)
	conversations.Post("/:session_id/turns", h.middleware.NewRateLimiter, h.HandleTurn)

	conversations.Use("/:session_id/ws", wsMiddleware)
	conversations.Get("/:session_id/ws", websocket.New(h.handleWebSocket))

	conversations.Get("/:session_id", h.middleware.NewTokenMiddleware, h.GetSession)
	conversations.Get("/:session_id/logs", h.middleware.NewTokenMiddleware, h.GetLogs)
	conversations.Delete("/:session_id", h.middleware.NewTokenMiddleware, h.EndSession)
}
