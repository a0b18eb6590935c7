package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/eco-exchange/internal/api/dto"
	"github.com/spec-kit/eco-exchange/internal/auth"
	"github.com/spec-kit/eco-exchange/internal/domain"
	"github.com/spec-kit/eco-exchange/internal/service"
	apperrors "github.com/spec-kit/eco-exchange/pkg/util"
)

// MarketHandler exposes the marketplace item endpoints.
type MarketHandler struct {
	market *service.MarketplaceService
}

// NewMarketHandler constructs handler.
func NewMarketHandler(market *service.MarketplaceService) *MarketHandler {
	return &MarketHandler{market: market}
}

// Browse handles GET /market/items: items currently listed for sale.
func (h *MarketHandler) Browse(c *fiber.Ctx) error {
	filter := service.BrowseFilter{
		Categories: parseCategories(c.Query("categories")),
		Qualities:  parseQualities(c.Query("qualities")),
	}

	items, err := h.market.Browse(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": itemResponses(items)})
}

// Create handles POST /market/items: a collector declares stock directly.
func (h *MarketHandler) Create(c *fiber.Ctx) error {
	account := auth.AccountFromContext(c)

	var req dto.CreateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	item, err := h.market.List(c.Context(), account, service.ItemCreateInput{
		Category:    req.Category,
		Quantity:    req.Quantity,
		Quality:     req.Quality,
		Price:       req.Price,
		PhotoURL:    req.PhotoURL,
		Location:    req.Location,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewItemResponse(item)})
}

// Mine handles GET /market/items/mine for sellers.
func (h *MarketHandler) Mine(c *fiber.Ctx) error {
	account := auth.AccountFromContext(c)

	items, err := h.market.ListMine(c.Context(), account)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": itemResponses(items)})
}

// Purchases handles GET /market/items/purchases for buyers.
func (h *MarketHandler) Purchases(c *fiber.Ctx) error {
	account := auth.AccountFromContext(c)

	items, err := h.market.ListPurchases(c.Context(), account)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": itemResponses(items)})
}

// Purchase handles POST /market/items/:id/purchase.
func (h *MarketHandler) Purchase(c *fiber.Ctx) error {
	account := auth.AccountFromContext(c)

	item, err := h.market.Purchase(c.Context(), account, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewItemResponse(item)})
}

// AdvanceDelivery handles POST /market/items/:id/advance-delivery.
func (h *MarketHandler) AdvanceDelivery(c *fiber.Ctx) error {
	account := auth.AccountFromContext(c)

	item, err := h.market.AdvanceDelivery(c.Context(), account, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewItemResponse(item)})
}

// ConfirmDelivery handles POST /market/items/:id/confirm-delivery.
func (h *MarketHandler) ConfirmDelivery(c *fiber.Ctx) error {
	account := auth.AccountFromContext(c)

	item, err := h.market.ConfirmDelivery(c.Context(), account, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewItemResponse(item)})
}

func itemResponses(items []domain.MarketplaceItem) []dto.ItemResponse {
	out := make([]dto.ItemResponse, 0, len(items))
	for i := range items {
		out = append(out, dto.NewItemResponse(&items[i]))
	}
	return out
}

func parseQualities(raw string) []domain.QualityGrade {
	if raw == "" {
		return nil
	}
	var qualities []domain.QualityGrade
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		qualities = append(qualities, domain.QualityGrade(part))
	}
	return qualities
}
