package salonHandler

import (
	salonService "SalonAssistant/internal/api/salon/service"
	"SalonAssistant/internal/dialogue/tool"
	"SalonAssistant/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type SalonHandler struct {
	log          *logrus.Logger
	validator    *validator.Validate
	middleware   middleware.Middleware
	salonService salonService.ISalonService
	tools        *tool.Executor
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	salonService salonService.ISalonService,
	tools *tool.Executor,
) *SalonHandler {
	return &SalonHandler{
		log:          log,
		validator:    validate,
		middleware:   middleware,
		salonService: salonService,
		tools:        tools,
	}
}

func (h *SalonHandler) Start(srv fiber.Router) {
	salon := srv.Group("/salon")

	salon.Get("/services", h.ListServices)
	salon.Get("/experts", h.ListExperts)
	salon.Get("/campaigns", h.CheckCampaigns)
	salon.Post("/availability", h.CheckAvailability)
	salon.Post("/availability/alternatives", h.SuggestAlternatives)

	salon.Get("/customers/:phone", h.middleware.NewTokenMiddleware, h.CheckCustomer)
	salon.Post("/customers", h.middleware.NewTokenMiddleware, h.CreateCustomer)
	salon.Get("/customers/:phone/appointments", h.middleware.NewTokenMiddleware, h.GetCustomerAppointments)
	salon.Post("/appointments", h.middleware.NewTokenMiddleware, h.CreateAppointment)
	salon.Post("/appointments/cancel", h.middleware.NewTokenMiddleware, h.CancelAppointment)

	tools := srv.Group("/tools", h.middleware.NewTokenMiddleware)
	tools.Get("/", h.ListTools)
	tools.Post("/:name", h.ExecuteTool)
}
