package salonService

import (
	"context"
	"sync"
	"time"

	"SalonAssistant/internal/api/salon"
	salonRepository "SalonAssistant/internal/api/salon/repository"
	"SalonAssistant/internal/entity"
	"SalonAssistant/pkg/utils"

	"github.com/sirupsen/logrus"
)

type ISalonService interface {
	CheckCustomer(ctx context.Context, phone string) (salon.CustomerLookup, error)
	CreateCustomer(ctx context.Context, req salon.CreateCustomerRequest) (salon.CustomerResponse, error)
	GetCustomerAppointments(ctx context.Context, phone string) ([]salon.AppointmentResponse, error)

	ListServices(ctx context.Context) ([]salon.ServiceResponse, error)
	ListExperts(ctx context.Context, serviceType string) ([]salon.ExpertResponse, error)
	CheckCampaigns(ctx context.Context, customerID int64) ([]salon.CampaignResponse, error)

	CheckAvailability(ctx context.Context, req salon.AvailabilityRequest) (salon.AvailabilityResponse, error)
	SuggestAlternatives(ctx context.Context, req salon.AvailabilityRequest) ([]salon.Alternative, error)
	CreateAppointment(ctx context.Context, req salon.CreateAppointmentRequest) (salon.AppointmentResponse, error)
	CancelAppointment(ctx context.Context, req salon.CancelAppointmentRequest) (salon.AppointmentResponse, error)
}

// Notifier delivers a text message to a customer phone number.
type Notifier interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
}

type Config struct {
	Hours          Hours
	Location       *time.Location
	CatalogTTL     time.Duration
	NotifyTimeout  time.Duration
	AppointmentMax int
}

func DefaultConfig() *Config {
	return &Config{
		Hours:          Hours{Open: 8, Close: 17, Step: 15},
		Location:       time.Local,
		CatalogTTL:     5 * time.Minute,
		NotifyTimeout:  15 * time.Second,
		AppointmentMax: 5,
	}
}

type salonService struct {
	log      *logrus.Logger
	repo     salonRepository.Repository
	utils    utils.IUtils
	notifier Notifier
	config   *Config
	now      func() time.Time

	// serializes the check-then-insert of bookings within this process
	bookMu sync.Mutex

	cacheMu  sync.RWMutex
	services []entity.Service
	experts  []entity.Expert
	cachedAt time.Time

	notifyWG sync.WaitGroup
}

func New(log *logrus.Logger,
	repo salonRepository.Repository,
	utils utils.IUtils,
	notifier Notifier,
	config *Config,
) ISalonService {
	return newService(log, repo, utils, notifier, config)
}

func newService(log *logrus.Logger, repo salonRepository.Repository, u utils.IUtils, notifier Notifier, config *Config) *salonService {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if u == nil {
		u = utils.New()
	}
	return &salonService{
		log:      log,
		repo:     repo,
		utils:    u,
		notifier: notifier,
		config:   config,
		now:      time.Now,
	}
}

func (s *salonService) today() time.Time {
	return s.now().In(s.config.Location)
}

// catalog returns the active services and experts, refreshing them at most
// once per CatalogTTL.
func (s *salonService) catalog(ctx context.Context) ([]entity.Service, []entity.Expert, error) {
	s.cacheMu.RLock()
	if s.services != nil && s.now().Sub(s.cachedAt) < s.config.CatalogTTL {
		services, experts := s.services, s.experts
		s.cacheMu.RUnlock()
		return services, experts, nil
	}
	s.cacheMu.RUnlock()

	client, err := s.repo.NewClient(false)
	if err != nil {
		return nil, nil, err
	}

	services, err := client.Catalog.ListServices(ctx)
	if err != nil {
		return nil, nil, err
	}
	experts, err := client.Catalog.ListExperts(ctx)
	if err != nil {
		return nil, nil, err
	}
	if services == nil {
		services = []entity.Service{}
	}

	s.cacheMu.Lock()
	s.services, s.experts, s.cachedAt = services, experts, s.now()
	s.cacheMu.Unlock()

	return services, experts, nil
}

func (s *salonService) resolveService(ctx context.Context, name string) (entity.Service, []entity.Expert, error) {
	services, experts, err := s.catalog(ctx)
	if err != nil {
		return entity.Service{}, nil, err
	}
	service, ok := matchService(services, name)
	if !ok {
		return entity.Service{}, nil, salon.ErrServiceNotFound
	}
	return service, experts, nil
}
