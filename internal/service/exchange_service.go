package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/eco-exchange/internal/domain"
	"github.com/spec-kit/eco-exchange/internal/events"
	"github.com/spec-kit/eco-exchange/internal/repository"
	apperrors "github.com/spec-kit/eco-exchange/pkg/util"
)

// ExchangeService coordinates the cross-engine effect of converting a
// collected pickup into a marketplace item. The listing's move to
// ListedForSale and the item's creation are one logical transaction.
type ExchangeService struct {
	listings     repository.ListingRepository
	exchange     repository.ExchangeRepository
	entitlements *EntitlementService
	dispatcher   events.Dispatcher
}

// ExchangeDependencies bundles requirements for the exchange service.
type ExchangeDependencies struct {
	ListingRepo  repository.ListingRepository
	ExchangeRepo repository.ExchangeRepository
	Entitlements *EntitlementService
	Dispatcher   events.Dispatcher
}

// SaleDetails carries the seller-provided pricing for a conversion.
type SaleDetails struct {
	Quality     domain.QualityGrade
	Price       float64
	PhotoURL    string
	Description string
}

// NewExchangeService constructs the service.
func NewExchangeService(deps ExchangeDependencies) *ExchangeService {
	return &ExchangeService{
		listings:     deps.ListingRepo,
		exchange:     deps.ExchangeRepo,
		entitlements: deps.Entitlements,
		dispatcher:   deps.Dispatcher,
	}
}

// ConvertToSale lists the collected material of a pickup on the
// marketplace. The caller must be the assigned collector with an active
// entitlement, and the listing must be in Collected. On success the source
// listing is ListedForSale and the new item is Listed; a failure leaves
// both untouched. Each listing can be converted at most once.
func (s *ExchangeService) ConvertToSale(ctx context.Context, collector *domain.Account, listingID string, details SaleDetails) (*domain.MarketplaceItem, error) {
	if collector.Role != domain.RoleCollector {
		return nil, apperrors.NewForbidden("only collectors may convert stock to sale")
	}

	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFound("listing", map[string]any{"listing_id": listingID})
		}
		return nil, apperrors.MapError(err)
	}
	if !listing.AssignedToCollector(collector.ID) {
		return nil, apperrors.NewForbidden("listing is not assigned to caller")
	}
	if err := s.entitlements.RequireEntitled(ctx, collector); err != nil {
		return nil, err
	}
	if listing.Status != domain.PickupCollected {
		return nil, apperrors.NewStateError(string(domain.PickupCollected), string(listing.Status))
	}
	if err := validateSaleDetails(listing.Category, details.Quality, details.Price); err != nil {
		return nil, err
	}

	photoURL := details.PhotoURL
	if photoURL == "" {
		photoURL = listing.PhotoURL
	}
	item := &domain.MarketplaceItem{
		SellerID:        collector.ID,
		Category:        listing.Category,
		Quantity:        listing.Quantity,
		Quality:         details.Quality,
		Price:           details.Price,
		PhotoURL:        photoURL,
		Location:        listing.Location,
		Description:     strings.TrimSpace(details.Description),
		Status:          domain.ItemListed,
		SourceListingID: &listing.ID,
	}

	if err := s.exchange.ConvertToSale(ctx, listingID, item); err != nil {
		var notCollected *repository.ErrListingNotCollected
		if errors.As(err, &notCollected) {
			return nil, s.staleListingStateError(ctx, listingID)
		}
		return nil, apperrors.MapError(err)
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventListingConverted,
		EntityID: listingID,
		Actor:    actorFor(collector),
		Payload:  events.ListingConvertedPayload{ItemID: item.ID, Price: item.Price},
	})
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventItemListed,
		EntityID: item.ID,
		Actor:    actorFor(collector),
		Payload: events.ItemListedPayload{
			Category: item.Category,
			Quality:  item.Quality,
			Price:    item.Price,
		},
	})
	return item, nil
}

func (s *ExchangeService) staleListingStateError(ctx context.Context, listingID string) error {
	current, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		if isNoRows(err) {
			return apperrors.NewNotFound("listing", map[string]any{"listing_id": listingID})
		}
		return apperrors.MapError(err)
	}
	return apperrors.NewStateError(string(domain.PickupCollected), string(current.Status))
}
