package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/eco-exchange/internal/domain"
	"github.com/spec-kit/eco-exchange/internal/events"
	"github.com/spec-kit/eco-exchange/internal/repository"
	apperrors "github.com/spec-kit/eco-exchange/pkg/util"
)

// MarketplaceService owns the resale lifecycle:
// Listed -> Sold -> InTransit -> Delivered, strictly forward.
type MarketplaceService struct {
	items        repository.ItemRepository
	payment      PaymentProcessor
	entitlements *EntitlementService
	dispatcher   events.Dispatcher
}

// MarketplaceDependencies bundles requirements for the marketplace service.
type MarketplaceDependencies struct {
	ItemRepo     repository.ItemRepository
	Payment      PaymentProcessor
	Entitlements *EntitlementService
	Dispatcher   events.Dispatcher
}

// ItemCreateInput describes a manual stock declaration.
type ItemCreateInput struct {
	Category    domain.MaterialCategory
	Quantity    string
	Quality     domain.QualityGrade
	Price       float64
	PhotoURL    string
	Location    domain.Location
	Description string
}

// BrowseFilter narrows the marketplace browse set.
type BrowseFilter struct {
	Categories []domain.MaterialCategory
	Qualities  []domain.QualityGrade
}

// NewMarketplaceService constructs the service.
func NewMarketplaceService(deps MarketplaceDependencies) *MarketplaceService {
	return &MarketplaceService{
		items:        deps.ItemRepo,
		payment:      deps.Payment,
		entitlements: deps.Entitlements,
		dispatcher:   deps.Dispatcher,
	}
}

// List declares stock for sale without a source pickup listing. Conversion
// of collected pickups goes through the ExchangeService instead.
func (s *MarketplaceService) List(ctx context.Context, seller *domain.Account, input ItemCreateInput) (*domain.MarketplaceItem, error) {
	if seller.Role != domain.RoleCollector {
		return nil, apperrors.NewForbidden("only collectors may list items for sale")
	}
	if err := s.entitlements.RequireEntitled(ctx, seller); err != nil {
		return nil, err
	}
	if err := validateSaleDetails(input.Category, input.Quality, input.Price); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Quantity) == "" {
		return nil, apperrors.NewValidationError("quantity required", nil)
	}

	item := &domain.MarketplaceItem{
		SellerID:    seller.ID,
		Category:    input.Category,
		Quantity:    strings.TrimSpace(input.Quantity),
		Quality:     input.Quality,
		Price:       input.Price,
		PhotoURL:    input.PhotoURL,
		Location:    input.Location,
		Description: strings.TrimSpace(input.Description),
		Status:      domain.ItemListed,
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishListed(ctx, seller, item)
	return item, nil
}

// Browse returns items currently open for purchase.
func (s *MarketplaceService) Browse(ctx context.Context, filter BrowseFilter) ([]domain.MarketplaceItem, error) {
	items, err := s.items.ListWithFilter(ctx, repository.ItemFilter{
		Statuses:   []domain.ItemStatus{domain.ItemListed},
		Categories: filter.Categories,
		Qualities:  filter.Qualities,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// Purchase records a buyer taking a listed item. Payment capture runs
// before any state change; the conditional update then admits exactly one
// buyer, so racing purchasers cannot both succeed.
func (s *MarketplaceService) Purchase(ctx context.Context, buyer *domain.Account, itemID string) (*domain.MarketplaceItem, error) {
	if buyer.Role != domain.RoleBuyer {
		return nil, apperrors.NewForbidden("only buyers may purchase items")
	}
	if err := s.entitlements.RequireEntitled(ctx, buyer); err != nil {
		return nil, err
	}

	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.SellerID == buyer.ID {
		return nil, apperrors.NewForbidden("cannot purchase own item")
	}
	if item.Status != domain.ItemListed {
		return nil, apperrors.NewStateError(string(domain.ItemListed), string(item.Status))
	}

	if err := s.payment.Capture(ctx, buyer.ID, item.Price); err != nil {
		return nil, apperrors.NewConflict("payment capture declined", map[string]any{"item_id": itemID})
	}

	purchased, err := s.items.Purchase(ctx, itemID, buyer.ID, time.Now())
	if err != nil {
		if isNoRows(err) {
			return nil, s.staleItemStateError(ctx, itemID, domain.ItemListed)
		}
		return nil, apperrors.MapError(err)
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventItemPurchased,
		EntityID: purchased.ID,
		Actor:    actorFor(buyer),
		Payload:  events.ItemPurchasedPayload{BuyerID: buyer.ID, Price: purchased.Price},
	})
	return purchased, nil
}

// AdvanceDelivery is the seller-only transition Sold -> InTransit.
func (s *MarketplaceService) AdvanceDelivery(ctx context.Context, seller *domain.Account, itemID string) (*domain.MarketplaceItem, error) {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.SellerID != seller.ID {
		return nil, apperrors.NewForbidden("item belongs to another seller")
	}
	if item.Status != domain.ItemSold {
		return nil, apperrors.NewStateError(string(domain.ItemSold), string(item.Status))
	}

	updated, err := s.items.UpdateStatus(ctx, itemID, domain.ItemSold, domain.ItemInTransit)
	if err != nil {
		if isNoRows(err) {
			return nil, s.staleItemStateError(ctx, itemID, domain.ItemSold)
		}
		return nil, apperrors.MapError(err)
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventDeliveryAdvanced,
		EntityID: updated.ID,
		Actor:    actorFor(seller),
		Payload: events.ItemStatusPayload{
			OldStatus: domain.ItemSold,
			NewStatus: domain.ItemInTransit,
		},
	})
	return updated, nil
}

// ConfirmDelivery is the buyer-only transition InTransit -> Delivered.
// Confirming an already-Delivered item is a no-op success so duplicate
// submissions from a retried client action are absorbed safely.
func (s *MarketplaceService) ConfirmDelivery(ctx context.Context, buyer *domain.Account, itemID string) (*domain.MarketplaceItem, error) {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.BuyerID == nil || *item.BuyerID != buyer.ID {
		return nil, apperrors.NewForbidden("item was not purchased by caller")
	}
	if item.Status == domain.ItemDelivered {
		return item, nil
	}
	if item.Status != domain.ItemInTransit {
		return nil, apperrors.NewStateError(string(domain.ItemInTransit), string(item.Status))
	}

	updated, err := s.items.UpdateStatus(ctx, itemID, domain.ItemInTransit, domain.ItemDelivered)
	if err != nil {
		if isNoRows(err) {
			// A duplicate confirm may have landed first; that is still success.
			current, getErr := s.getItem(ctx, itemID)
			if getErr == nil && current.Status == domain.ItemDelivered {
				return current, nil
			}
			return nil, s.staleItemStateError(ctx, itemID, domain.ItemInTransit)
		}
		return nil, apperrors.MapError(err)
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventDeliveryComplete,
		EntityID: updated.ID,
		Actor:    actorFor(buyer),
		Payload: events.DeliveryCompletePayload{
			SellerID: updated.SellerID,
			BuyerID:  buyer.ID,
		},
	})
	return updated, nil
}

// ListMine returns the seller's items across all statuses.
func (s *MarketplaceService) ListMine(ctx context.Context, seller *domain.Account) ([]domain.MarketplaceItem, error) {
	items, err := s.items.ListWithFilter(ctx, repository.ItemFilter{SellerID: &seller.ID})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// ListPurchases returns items the buyer has bought.
func (s *MarketplaceService) ListPurchases(ctx context.Context, buyer *domain.Account) ([]domain.MarketplaceItem, error) {
	items, err := s.items.ListWithFilter(ctx, repository.ItemFilter{BuyerID: &buyer.ID})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

func (s *MarketplaceService) publishListed(ctx context.Context, seller *domain.Account, item *domain.MarketplaceItem) {
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventItemListed,
		EntityID: item.ID,
		Actor:    actorFor(seller),
		Payload: events.ItemListedPayload{
			Category: item.Category,
			Quality:  item.Quality,
			Price:    item.Price,
		},
	})
}

func (s *MarketplaceService) getItem(ctx context.Context, itemID string) (*domain.MarketplaceItem, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFound("marketplace item", map[string]any{"item_id": itemID})
		}
		return nil, apperrors.MapError(err)
	}
	return item, nil
}

func (s *MarketplaceService) staleItemStateError(ctx context.Context, itemID string, expected domain.ItemStatus) error {
	current, err := s.getItem(ctx, itemID)
	if err != nil {
		return err
	}
	return apperrors.NewStateError(string(expected), string(current.Status))
}

func validateSaleDetails(category domain.MaterialCategory, quality domain.QualityGrade, price float64) error {
	if !domain.ValidCategory(category) {
		return apperrors.NewValidationError("unknown material category", map[string]any{"category": category})
	}
	if !domain.ValidQuality(quality) {
		return apperrors.NewValidationError("unknown quality grade", map[string]any{"quality": quality})
	}
	if price <= 0 {
		return apperrors.NewValidationError("price must be positive", map[string]any{"price": price})
	}
	return nil
}
