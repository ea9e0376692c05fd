package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"SalonAssistant/database"
	conversationHandler "SalonAssistant/internal/api/conversation/handler"
	conversationRepository "SalonAssistant/internal/api/conversation/repository"
	conversationService "SalonAssistant/internal/api/conversation/service"
	salonHandler "SalonAssistant/internal/api/salon/handler"
	salonRepository "SalonAssistant/internal/api/salon/repository"
	salonService "SalonAssistant/internal/api/salon/service"
	"SalonAssistant/internal/dialogue"
	"SalonAssistant/internal/dialogue/compose"
	"SalonAssistant/internal/dialogue/extract"
	"SalonAssistant/internal/dialogue/flow"
	"SalonAssistant/internal/dialogue/quickpattern"
	"SalonAssistant/internal/dialogue/session"
	"SalonAssistant/internal/dialogue/tool"
	"SalonAssistant/internal/middleware"
	"SalonAssistant/pkg/gemini"
	"SalonAssistant/pkg/openai"
	"SalonAssistant/pkg/redis"
	"SalonAssistant/pkg/s3"
	"SalonAssistant/pkg/twilio"
	"SalonAssistant/pkg/utils"
	"SalonAssistant/pkg/whatsapp"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine         *fiber.App
	db             *sqlx.DB
	log            *logrus.Logger
	middleware     middleware.Middleware
	validator      *validator.Validate
	utils          utils.IUtils
	handlers       []handler
	dialogue       *DialogueConfig
	redisServer    redis.IRedis
	sessionStore   session.Store
	memoryStore    *session.MemoryStore
	geminiClient   gemini.IGemini
	chatGPT        openai.IChatGPT
	notifier       salonService.Notifier
	whatsappClient whatsapp.IWhatsappSender
	s3Client       s3.ItfS3
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if server.dialogue == nil {
		return nil, fmt.Errorf("dialogue config is required")
	}
	if server.sessionStore == nil {
		server.memoryStore = session.NewMemoryStore(server.dialogue.SessionTTL)
		server.sessionStore = server.memoryStore
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDialogueConfig(cfg *DialogueConfig) ServerOption {
	return func(s *Server) error {
		s.dialogue = cfg
		return nil
	}
}

// WithDatabase connects, applies the schema and loads the demo catalog unless
// SEED_DATA=false.
func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := database.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}

		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}

		if !strings.EqualFold(os.Getenv("SEED_DATA"), "false") {
			if err := database.Seed(db, time.Now()); err != nil {
				return fmt.Errorf("failed to seed database: %w", err)
			}
		}

		s.db = db
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

// WithSessionStore picks the conversation store named by SESSION_STORE.
func WithSessionStore() ServerOption {
	return func(s *Server) error {
		if s.dialogue == nil {
			return fmt.Errorf("dialogue config must be set before the session store")
		}

		switch s.dialogue.SessionStore {
		case SessionStoreRedis:
			if s.redisServer == nil {
				s.redisServer = redis.New()
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.redisServer.Ping(ctx); err != nil {
				return fmt.Errorf("failed to reach redis: %w", err)
			}
			s.sessionStore = session.NewRedisStore(s.redisServer, s.dialogue.SessionTTL)
		default:
			s.memoryStore = session.NewMemoryStore(s.dialogue.SessionTTL)
			s.sessionStore = s.memoryStore
		}
		return nil
	}
}

// WithLLM creates the client for LLM_PROVIDER. A provider that cannot be
// configured is logged and the assistant runs on quick patterns and the
// chat fallback only.
func WithLLM() ServerOption {
	return func(s *Server) error {
		if s.dialogue == nil {
			return fmt.Errorf("dialogue config must be set before the LLM client")
		}

		switch s.dialogue.LLMProvider {
		case LLMGemini:
			client, err := gemini.NewGeminiClient()
			if err != nil {
				s.log.Warnf("Gemini client unavailable, continuing without extractor: %v", err)
				return nil
			}
			s.geminiClient = client
		case LLMOpenAI:
			if os.Getenv("OPENAI_API_KEY") == "" {
				s.log.Warn("OPENAI_API_KEY is not set, continuing without extractor")
				return nil
			}
			s.chatGPT = openai.NewChatGPT()
		}
		return nil
	}
}

// WithNotifier sets the confirmation channel named by NOTIFIER
// (whatsapp, twilio or none).
func WithNotifier() ServerOption {
	return func(s *Server) error {
		switch strings.ToLower(os.Getenv("NOTIFIER")) {
		case "whatsapp":
			client, err := whatsapp.New(s.log)
			if err != nil {
				if s.log != nil {
					s.log.Errorf("Failed to initialize WhatsApp client: %v", err)
				}
				return fmt.Errorf("failed to create WhatsApp client: %w", err)
			}
			s.whatsappClient = client
			s.notifier = client
		case "twilio":
			client, err := twilio.New(s.log)
			if err != nil {
				return fmt.Errorf("failed to create Twilio client: %w", err)
			}
			s.notifier = client
		case "", "none":
		default:
			return fmt.Errorf("unknown NOTIFIER %q", os.Getenv("NOTIFIER"))
		}
		return nil
	}
}

// WithArchive enables transcript upload when AWS_BUCKET_NAME is set.
func WithArchive() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if errors.Is(err, s3.ErrBucketNotConfigured) {
			s.log.Info("AWS_BUCKET_NAME is not set, conversation archive disabled")
			return nil
		}
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	cfg := s.dialogue

	// Salon Domain
	salonRepo := salonRepository.New(s.db, s.log)
	salonConfig := salonService.DefaultConfig()
	salonConfig.Hours = salonService.Hours{Open: cfg.BusinessStart, Close: cfg.BusinessEnd, Step: cfg.SlotMinutes}
	salonConfig.Location = cfg.Location
	salonServices := salonService.New(s.log, salonRepo, s.utils, s.notifier, salonConfig)
	executor := tool.NewExecutor(s.log, cfg.ToolTimeout, salonService.Tools(salonServices)...)
	knowledge := salonService.NewKnowledgeBase(s.log, salonServices, salonService.SalonInfo{
		Name:         cfg.SalonName,
		Address:      cfg.SalonAddress,
		OpeningHours: cfg.OpeningHours,
	})
	salonHandlers := salonHandler.New(s.log, s.validator, s.middleware, salonServices, executor)

	// Dialogue
	conversationRepo := conversationRepository.New(s.db, s.log)
	orchestrator := dialogue.NewOrchestrator(s.log, dialogue.Deps{
		Store:      s.sessionStore,
		Matcher:    quickpattern.New(quickpattern.Info{OpeningHours: cfg.OpeningHours, Address: cfg.SalonAddress}),
		Extractor:  s.extractor(),
		Router:     extract.NewConfirmationRouter(),
		Manager:    flow.NewManager(flow.NewCatalog()),
		Executor:   executor,
		Composer:   compose.New(s.log, s.phraser(), cfg.PhraserTimeout),
		Knowledge:  knowledge,
		TurnLogger: conversationService.NewTurnLogger(s.log, conversationRepo),
	}, &dialogue.Config{
		HistoryLimit:     cfg.HistoryLimit,
		SwitchThreshold:  cfg.SwitchThreshold,
		ExtractorTimeout: cfg.ExtractorTimeout,
		MaxConcurrent:    cfg.MaxConcurrentTurns,
		Location:         cfg.Location,
	})

	// Conversation Domain
	conversationServices := conversationService.New(s.log, orchestrator, s.sessionStore, conversationRepo, s.utils, s.s3Client, nil)
	conversationHandlers := conversationHandler.New(s.log, s.validator, s.middleware, conversationServices)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, salonHandlers, conversationHandlers)
}

func (s *Server) extractor() extract.Extractor {
	switch {
	case s.geminiClient != nil:
		return extract.NewGeminiExtractor(s.geminiClient)
	case s.chatGPT != nil:
		return extract.NewOpenAIExtractor(s.chatGPT)
	}
	return nil
}

func (s *Server) phraser() compose.Phraser {
	switch {
	case s.geminiClient != nil:
		return compose.NewGeminiPhraser(s.geminiClient)
	case s.chatGPT != nil:
		return compose.NewOpenAIPhraser(s.chatGPT)
	}
	return nil
}

func (s *Server) Run() error {
	router := s.engine.Group("/api/v1")
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(middleware.LoggerConfig())

	for _, h := range s.handlers {
		h.Start(router)
	}

	stop := make(chan struct{})
	defer close(stop)
	if s.memoryStore != nil {
		go s.sweepSessions(stop)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	if err := s.engine.Listen(fmt.Sprintf(":%s", port)); err != nil {
		s.Close()
		return err
	}

	return nil
}

// Close stops the listener and releases the outbound clients.
func (s *Server) Close() {
	if err := s.engine.ShutdownWithTimeout(10 * time.Second); err != nil {
		s.log.Warnf("Failed to shut down HTTP server: %v", err)
	}
	if s.whatsappClient != nil {
		if err := s.whatsappClient.Disconnect(); err != nil {
			s.log.Warnf("Failed to disconnect WhatsApp client: %v", err)
		}
	}
	if s.geminiClient != nil {
		_ = s.geminiClient.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *Server) sweepSessions(stop <-chan struct{}) {
	interval := s.dialogue.SessionTTL / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if n := s.memoryStore.Sweep(); n > 0 {
				s.log.WithField("expired", n).Debug("Swept idle conversations")
			}
		}
	}
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
