package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/eco-exchange/internal/api/dto"
	"github.com/spec-kit/eco-exchange/internal/auth"
	"github.com/spec-kit/eco-exchange/internal/domain"
	"github.com/spec-kit/eco-exchange/internal/service"
	apperrors "github.com/spec-kit/eco-exchange/pkg/util"
)

// ListingsHandler exposes the pickup listing lifecycle endpoints.
type ListingsHandler struct {
	listings *service.ListingService
	exchange *service.ExchangeService
}

// NewListingsHandler constructs handler.
func NewListingsHandler(listings *service.ListingService, exchange *service.ExchangeService) *ListingsHandler {
	return &ListingsHandler{listings: listings, exchange: exchange}
}

// Create handles POST /listings.
func (h *ListingsHandler) Create(c *fiber.Ctx) error {
	account := auth.AccountFromContext(c)

	var req dto.CreateListingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	listing, err := h.listings.Create(c.Context(), account, service.ListingCreateInput{
		Category:    req.Category,
		Quantity:    req.Quantity,
		PhotoURL:    req.PhotoURL,
		Location:    req.Location,
		RequestedAt: req.RequestedAt,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewListingResponse(listing, account)})
}

// Mine handles GET /listings/mine for producers.
func (h *ListingsHandler) Mine(c *fiber.Ctx) error {
	account := auth.AccountFromContext(c)

	listings, err := h.listings.ListMine(c.Context(), account)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": listingResponses(listings, account)})
}

// Available handles GET /listings/available for collectors.
func (h *ListingsHandler) Available(c *fiber.Ctx) error {
	account := auth.AccountFromContext(c)

	filter := service.AvailableFilter{Categories: parseCategories(c.Query("categories"))}
	if raw := c.Query("max_distance_km"); raw != "" {
		maxKm, err := strconv.ParseFloat(raw, 64)
		if err != nil || maxKm < 0 {
			return apperrors.NewValidationError("max_distance_km must be a non-negative number", nil)
		}
		filter.MaxDistanceKm = maxKm
	}

	available, err := h.listings.ListAvailable(c.Context(), account, filter)
	if err != nil {
		return err
	}

	out := make([]dto.ListingResponse, 0, len(available))
	for i := range available {
		resp := dto.NewListingResponse(&available[i].Listing, account)
		resp.DistanceKm = available[i].DistanceKm
		out = append(out, resp)
	}
	return c.JSON(fiber.Map{"data": out})
}

// Accept handles POST /listings/:id/accept.
func (h *ListingsHandler) Accept(c *fiber.Ctx) error {
	account := auth.AccountFromContext(c)

	listing, err := h.listings.Accept(c.Context(), account, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewListingResponse(listing, account)})
}

// StartPickup handles POST /listings/:id/start-pickup.
func (h *ListingsHandler) StartPickup(c *fiber.Ctx) error {
	account := auth.AccountFromContext(c)

	listing, err := h.listings.StartPickup(c.Context(), account, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewListingResponse(listing, account)})
}

// Verify handles POST /listings/:id/verify. The producer submits the code
// read back by the collector on site.
func (h *ListingsHandler) Verify(c *fiber.Ctx) error {
	account := auth.AccountFromContext(c)

	var req dto.VerifyPickupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Code) == "" {
		return apperrors.NewValidationError("code required", nil)
	}

	listing, err := h.listings.VerifyAndCollect(c.Context(), account, c.Params("id"), req.Code)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewListingResponse(listing, account)})
}

// Decline handles POST /listings/:id/decline.
func (h *ListingsHandler) Decline(c *fiber.Ctx) error {
	account := auth.AccountFromContext(c)

	if err := h.listings.Decline(c.Context(), account, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"declined": true}})
}

// Assigned handles GET /listings/assigned for collectors.
func (h *ListingsHandler) Assigned(c *fiber.Ctx) error {
	account := auth.AccountFromContext(c)

	listings, err := h.listings.ListAssigned(c.Context(), account)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": listingResponses(listings, account)})
}

// Stock handles GET /listings/stock: collected listings awaiting conversion.
func (h *ListingsHandler) Stock(c *fiber.Ctx) error {
	account := auth.AccountFromContext(c)

	listings, err := h.listings.ListStock(c.Context(), account)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": listingResponses(listings, account)})
}

// Convert handles POST /listings/:id/convert.
func (h *ListingsHandler) Convert(c *fiber.Ctx) error {
	account := auth.AccountFromContext(c)

	var req dto.ConvertToSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	item, err := h.exchange.ConvertToSale(c.Context(), account, c.Params("id"), service.SaleDetails{
		Quality:     req.Quality,
		Price:       req.Price,
		PhotoURL:    req.PhotoURL,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewItemResponse(item)})
}

// UpdatePosition handles PUT /collectors/me/position.
func (h *ListingsHandler) UpdatePosition(c *fiber.Ctx) error {
	account := auth.AccountFromContext(c)

	var req dto.UpdatePositionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
		return apperrors.NewValidationError("lat must be in [-90,90] and lng in [-180,180]", nil)
	}

	if err := h.listings.UpdatePosition(c.Context(), account, domain.Coordinate{Lat: req.Lat, Lng: req.Lng}); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func listingResponses(listings []domain.PickupListing, viewer *domain.Account) []dto.ListingResponse {
	out := make([]dto.ListingResponse, 0, len(listings))
	for i := range listings {
		out = append(out, dto.NewListingResponse(&listings[i], viewer))
	}
	return out
}

func parseCategories(raw string) []domain.MaterialCategory {
	if raw == "" {
		return nil
	}
	var categories []domain.MaterialCategory
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		categories = append(categories, domain.MaterialCategory(part))
	}
	return categories
}
