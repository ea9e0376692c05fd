package salonHandler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"SalonAssistant/internal/api/salon"
	salonService "SalonAssistant/internal/api/salon/service"
	contextPkg "SalonAssistant/pkg/context"
	"SalonAssistant/pkg/handlerUtil"
	"SalonAssistant/pkg/log"

	"github.com/gofiber/fiber/v2"
)

func (h *SalonHandler) handleError(ctx *fiber.Ctx, requestID string, err error, operation string) error {
	errHandler := handlerUtil.New(h.log)
	if errors.Is(err, salonService.ErrInvalidPhone) {
		return errHandler.HandleBadRequest(ctx, requestID, err, "INVALID_PHONE")
	}
	return errHandler.Handle(ctx, requestID, err, ctx.Path(), operation)
}

func (h *SalonHandler) ListServices(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	services, err := h.salonService.ListServices(c)
	if err != nil {
		return h.handleError(ctx, requestID, err, "list_services")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{"services": services})
	}
}

func (h *SalonHandler) ListExperts(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	experts, err := h.salonService.ListExperts(c, ctx.Query("service_type"))
	if err != nil {
		return h.handleError(ctx, requestID, err, "list_experts")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{"experts": experts})
	}
}

func (h *SalonHandler) CheckCampaigns(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var customerID int64
	if raw := ctx.Query("customer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return errHandler.HandleValidationError(ctx, requestID,
				errors.New("customer_id must be a number"), ctx.Path())
		}
		customerID = id
	}

	campaigns, err := h.salonService.CheckCampaigns(c, customerID)
	if err != nil {
		return h.handleError(ctx, requestID, err, "check_campaigns")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{"campaigns": campaigns})
	}
}

func (h *SalonHandler) CheckAvailability(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req salon.AvailabilityRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}
	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	res, err := h.salonService.CheckAvailability(c, req)
	if err != nil {
		return h.handleError(ctx, requestID, err, "check_availability")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *SalonHandler) SuggestAlternatives(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req salon.AvailabilityRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}
	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	alternatives, err := h.salonService.SuggestAlternatives(c, req)
	if err != nil {
		return h.handleError(ctx, requestID, err, "suggest_alternatives")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{"alternatives": alternatives})
	}
}

func (h *SalonHandler) CheckCustomer(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	req := salon.CheckCustomerRequest{Phone: ctx.Params("phone")}
	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	res, err := h.salonService.CheckCustomer(c, req.Phone)
	if err != nil {
		return h.handleError(ctx, requestID, err, "check_customer")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *SalonHandler) CreateCustomer(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req salon.CreateCustomerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}
	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	res, err := h.salonService.CreateCustomer(c, req)
	if err != nil {
		return h.handleError(ctx, requestID, err, "create_customer")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, res)
	}
}

func (h *SalonHandler) GetCustomerAppointments(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	items, err := h.salonService.GetCustomerAppointments(c, ctx.Params("phone"))
	if err != nil {
		return h.handleError(ctx, requestID, err, "get_customer_appointments")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{"appointments": items})
	}
}

func (h *SalonHandler) CreateAppointment(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 15*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing create appointment request")

	var req salon.CreateAppointmentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}
	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	res, err := h.salonService.CreateAppointment(c, req)
	if err != nil {
		return h.handleError(ctx, requestID, err, "create_appointment")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, res)
	}
}

func (h *SalonHandler) CancelAppointment(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req salon.CancelAppointmentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}
	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	res, err := h.salonService.CancelAppointment(c, req)
	if err != nil {
		return h.handleError(ctx, requestID, err, "cancel_appointment")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}
