package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/eco-exchange/internal/api/dto"
	"github.com/spec-kit/eco-exchange/internal/auth"
	"github.com/spec-kit/eco-exchange/internal/service"
	apperrors "github.com/spec-kit/eco-exchange/pkg/util"
)

// EntitlementsHandler exposes the paid access endpoints.
type EntitlementsHandler struct {
	entitlements *service.EntitlementService
}

// NewEntitlementsHandler constructs handler.
func NewEntitlementsHandler(entitlements *service.EntitlementService) *EntitlementsHandler {
	return &EntitlementsHandler{entitlements: entitlements}
}

// Me handles GET /entitlements/me: the caller's entitled flag plus history.
func (h *EntitlementsHandler) Me(c *fiber.Ctx) error {
	account := auth.AccountFromContext(c)

	entitled, err := h.entitlements.IsEntitled(c.Context(), account)
	if err != nil {
		return err
	}
	history, err := h.entitlements.History(c.Context(), account)
	if err != nil {
		return err
	}

	resp := dto.EntitlementStatusResponse{
		Entitled: entitled,
		Periods:  make([]dto.EntitlementResponse, 0, len(history)),
	}
	for i := range history {
		resp.Periods = append(resp.Periods, dto.NewEntitlementResponse(&history[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Grant handles POST /entitlements: start a new paid period.
func (h *EntitlementsHandler) Grant(c *fiber.Ctx) error {
	account := auth.AccountFromContext(c)

	var req dto.GrantEntitlementRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	period, err := h.entitlements.Grant(c.Context(), account, req.Plan)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewEntitlementResponse(period)})
}

// Cancel handles POST /entitlements/cancel.
func (h *EntitlementsHandler) Cancel(c *fiber.Ctx) error {
	account := auth.AccountFromContext(c)

	period, err := h.entitlements.Cancel(c.Context(), account)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewEntitlementResponse(period)})
}
