package conversationService

import (
	"context"
	"time"

	"SalonAssistant/internal/api/conversation"
	conversationRepository "SalonAssistant/internal/api/conversation/repository"
	"SalonAssistant/internal/dialogue"
	"SalonAssistant/internal/dialogue/session"
	"SalonAssistant/pkg/s3"
	"SalonAssistant/pkg/utils"

	"github.com/sirupsen/logrus"
)

type IConversationService interface {
	StartSession(ctx context.Context) (conversation.StartSessionResponse, error)
	HandleTurn(ctx context.Context, sessionID, message string) (conversation.TurnResponse, error)
	GetSession(ctx context.Context, sessionID string) (conversation.SessionResponse, error)
	GetLogs(ctx context.Context, sessionID string) ([]conversation.LogResponse, error)
	EndSession(ctx context.Context, sessionID string) (conversation.EndSessionResponse, error)
}

type Config struct {
	Greeting       string
	LogLimit       int
	ArchiveTimeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Greeting:       "Merhaba, salonumuzun randevu asistanına hoş geldiniz. Size nasıl yardımcı olabilirim?",
		LogLimit:       200,
		ArchiveTimeout: 20 * time.Second,
	}
}

type conversationService struct {
	log          *logrus.Logger
	orchestrator dialogue.IOrchestrator
	store        session.Store
	repo         conversationRepository.Repository
	utils        utils.IUtils
	archive      s3.ItfS3
	config       *Config
	now          func() time.Time
}

// New builds the service. repo and archive may be nil: logs are then not
// listed and ended conversations are not archived.
func New(
	log *logrus.Logger,
	orchestrator dialogue.IOrchestrator,
	store session.Store,
	repo conversationRepository.Repository,
	utils utils.IUtils,
	archive s3.ItfS3,
	config *Config,
) IConversationService {
	if config == nil {
		config = DefaultConfig()
	}
	return &conversationService{
		log:          log,
		orchestrator: orchestrator,
		store:        store,
		repo:         repo,
		utils:        utils,
		archive:      archive,
		config:       config,
		now:          time.Now,
	}
}
