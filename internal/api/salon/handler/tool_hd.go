package salonHandler

import (
	"context"
	"sort"
	"time"

	"SalonAssistant/internal/api/salon"
	"SalonAssistant/internal/dialogue/tool"
	contextPkg "SalonAssistant/pkg/context"
	"SalonAssistant/pkg/handlerUtil"
	"SalonAssistant/pkg/log"

	"github.com/gofiber/fiber/v2"
)

func (h *SalonHandler) ListTools(ctx *fiber.Ctx) error {
	names := h.tools.Names()
	sort.Strings(names)
	return handlerUtil.New(h.log).HandleSuccess(ctx, fiber.StatusOK, fiber.Map{"tools": names})
}

// ExecuteTool runs one business tool with the same contract the dialogue
// uses. Rejections and invalid params are answered with 200 and
// success=false; only unknown tools and execution errors change the status.
func (h *SalonHandler) ExecuteTool(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 15*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)
	name := ctx.Params("name")

	if _, ok := h.tools.Lookup(name); !ok {
		return errHandler.Handle(ctx, requestID, salon.ErrUnknownTool, ctx.Path(), "execute_tool")
	}

	var req salon.ToolRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
		}
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"tool":       name,
	}).Debug("Executing tool over REST")

	res := h.tools.Execute(c, name, tool.Params(req.Params))

	status := fiber.StatusOK
	if res.Reason == tool.ReasonExecutionError {
		status = fiber.StatusBadGateway
	}
	out := salon.ToolResponse{
		Tool:    res.Tool,
		Success: res.Success,
		Payload: res.Payload,
		Reason:  res.Reason,
	}
	if !res.Success && res.Reason != tool.ReasonExecutionError {
		out.Error = res.Message
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, status, out)
	}
}
