package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/spec-kit/eco-exchange/internal/domain"
	"github.com/spec-kit/eco-exchange/internal/events"
	"github.com/spec-kit/eco-exchange/internal/geo"
	"github.com/spec-kit/eco-exchange/internal/repository"
	apperrors "github.com/spec-kit/eco-exchange/pkg/util"
)

// ListingService owns the pickup listing lifecycle:
// Pending -> Assigned -> PickingUp -> Collected -> ListedForSale.
// The last transition belongs to the ExchangeService.
type ListingService struct {
	listings     repository.ListingRepository
	presence     repository.PresenceRepository
	entitlements *EntitlementService
	dispatcher   events.Dispatcher
}

// ListingDependencies bundles requirements for the listing service.
type ListingDependencies struct {
	ListingRepo  repository.ListingRepository
	PresenceRepo repository.PresenceRepository
	Entitlements *EntitlementService
	Dispatcher   events.Dispatcher
}

// ListingCreateInput describes listing creation payload.
type ListingCreateInput struct {
	Category    domain.MaterialCategory
	Quantity    string
	PhotoURL    string
	Location    domain.Location
	RequestedAt time.Time
}

// AvailableFilter narrows the candidate set for a collector.
type AvailableFilter struct {
	Categories    []domain.MaterialCategory
	MaxDistanceKm float64
}

// AvailableListing pairs a pending listing with the distance from the
// collector's reported position. DistanceKm is nil when the collector has
// no known position.
type AvailableListing struct {
	Listing    domain.PickupListing
	DistanceKm *float64
}

// NewListingService constructs the service.
func NewListingService(deps ListingDependencies) *ListingService {
	return &ListingService{
		listings:     deps.ListingRepo,
		presence:     deps.PresenceRepo,
		entitlements: deps.Entitlements,
		dispatcher:   deps.Dispatcher,
	}
}

// Create opens a new listing for a producer. The handoff code is generated
// here, once, and never regenerated. Codes are scoped to a single listing;
// collisions across listings are tolerated.
func (s *ListingService) Create(ctx context.Context, producer *domain.Account, input ListingCreateInput) (*domain.PickupListing, error) {
	if producer.Role != domain.RoleProducer {
		return nil, apperrors.NewForbidden("only producers may create listings")
	}
	if !domain.ValidCategory(input.Category) {
		return nil, apperrors.NewValidationError("unknown material category", map[string]any{"category": input.Category})
	}
	if strings.TrimSpace(input.Quantity) == "" {
		return nil, apperrors.NewValidationError("quantity required", nil)
	}
	if input.RequestedAt.IsZero() {
		return nil, apperrors.NewValidationError("requested pickup time required", nil)
	}

	listing := &domain.PickupListing{
		ProducerID:  producer.ID,
		Category:    input.Category,
		Quantity:    strings.TrimSpace(input.Quantity),
		PhotoURL:    input.PhotoURL,
		Location:    input.Location,
		Status:      domain.PickupPending,
		RequestedAt: input.RequestedAt,
		HandoffCode: generateHandoffCode(),
	}
	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, apperrors.MapError(err)
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventListingCreated,
		EntityID: listing.ID,
		Actor:    actorFor(producer),
		Payload: events.ListingCreatedPayload{
			Category:    listing.Category,
			Quantity:    listing.Quantity,
			RequestedAt: listing.RequestedAt,
		},
	})
	return listing, nil
}

// ListAvailable returns pending listings for a collector, minus that
// collector's declined set, filtered by category and distance, ranked
// nearest first. Listings with unknown distance are never excluded by the
// distance filter and sort after every known distance.
func (s *ListingService) ListAvailable(ctx context.Context, collector *domain.Account, filter AvailableFilter) ([]AvailableListing, error) {
	if collector.Role != domain.RoleCollector {
		return nil, apperrors.NewForbidden("only collectors may browse pickups")
	}

	declined, err := s.presence.DeclinedIDs(ctx, collector.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	position, err := s.presence.Position(ctx, collector.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	pending, err := s.listings.ListWithFilter(ctx, repository.ListingFilter{
		Statuses:   []domain.PickupStatus{domain.PickupPending},
		Categories: filter.Categories,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	result := make([]AvailableListing, 0, len(pending))
	for _, listing := range pending {
		if _, skip := declined[listing.ID]; skip {
			continue
		}
		coord := listing.Location.Coordinate()
		dist := geo.DistanceKm(position, &coord)
		if !geo.IsUnknown(dist) && filter.MaxDistanceKm > 0 && dist > filter.MaxDistanceKm {
			continue
		}
		entry := AvailableListing{Listing: listing}
		if !geo.IsUnknown(dist) {
			d := dist
			entry.DistanceKm = &d
		}
		result = append(result, entry)
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i].DistanceKm, result[j].DistanceKm
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return *a < *b
	})
	return result, nil
}

// Accept assigns a pending listing to the calling collector. Requires an
// active entitlement; concurrent accepts on one listing admit exactly one
// winner, the rest observe a state error.
func (s *ListingService) Accept(ctx context.Context, collector *domain.Account, listingID string) (*domain.PickupListing, error) {
	if collector.Role != domain.RoleCollector {
		return nil, apperrors.NewForbidden("only collectors may accept listings")
	}
	if err := s.entitlements.RequireEntitled(ctx, collector); err != nil {
		return nil, err
	}

	listing, err := s.getListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != domain.PickupPending {
		return nil, apperrors.NewStateError(string(domain.PickupPending), string(listing.Status))
	}

	assigned, err := s.listings.Assign(ctx, listingID, collector.ID)
	if err != nil {
		if isNoRows(err) {
			return nil, s.staleStateError(ctx, listingID, domain.PickupPending)
		}
		return nil, apperrors.MapError(err)
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventListingAccepted,
		EntityID: assigned.ID,
		Actor:    actorFor(collector),
		Payload:  events.ListingAcceptedPayload{CollectorID: collector.ID},
	})
	return assigned, nil
}

// StartPickup moves an Assigned listing to PickingUp. Only the assigned
// collector may call it; the handoff code is disclosed to them from here on
// so the producer can check it at the site.
func (s *ListingService) StartPickup(ctx context.Context, collector *domain.Account, listingID string) (*domain.PickupListing, error) {
	listing, err := s.getListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !listing.AssignedToCollector(collector.ID) {
		return nil, apperrors.NewForbidden("listing is not assigned to caller")
	}
	if err := s.entitlements.RequireEntitled(ctx, collector); err != nil {
		return nil, err
	}
	if listing.Status != domain.PickupAssigned {
		return nil, apperrors.NewStateError(string(domain.PickupAssigned), string(listing.Status))
	}

	updated, err := s.listings.UpdateStatus(ctx, listingID, domain.PickupAssigned, domain.PickupPickingUp)
	if err != nil {
		if isNoRows(err) {
			return nil, s.staleStateError(ctx, listingID, domain.PickupAssigned)
		}
		return nil, apperrors.MapError(err)
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventPickupStarted,
		EntityID: updated.ID,
		Actor:    actorFor(collector),
		Payload: events.ListingStatusPayload{
			OldStatus: domain.PickupAssigned,
			NewStatus: domain.PickupPickingUp,
		},
	})
	return updated, nil
}

// VerifyAndCollect checks the handoff code supplied by the producer against
// the listing's stored code with an exact string match. A match moves the
// listing to Collected; a mismatch changes nothing and reports a
// verification failure. There is no other path to Collected.
func (s *ListingService) VerifyAndCollect(ctx context.Context, producer *domain.Account, listingID, code string) (*domain.PickupListing, error) {
	listing, err := s.getListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.ProducerID != producer.ID {
		return nil, apperrors.NewForbidden("listing belongs to another producer")
	}
	if listing.Status != domain.PickupPickingUp {
		return nil, apperrors.NewStateError(string(domain.PickupPickingUp), string(listing.Status))
	}
	if code != listing.HandoffCode {
		return nil, apperrors.NewVerificationFailed()
	}

	updated, err := s.listings.UpdateStatus(ctx, listingID, domain.PickupPickingUp, domain.PickupCollected)
	if err != nil {
		if isNoRows(err) {
			return nil, s.staleStateError(ctx, listingID, domain.PickupPickingUp)
		}
		return nil, apperrors.MapError(err)
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventListingCollected,
		EntityID: updated.ID,
		Actor:    actorFor(producer),
		Payload: events.ListingStatusPayload{
			OldStatus: domain.PickupPickingUp,
			NewStatus: domain.PickupCollected,
		},
	})
	return updated, nil
}

// Decline removes the listing from the calling collector's candidate set
// only. The shared listing state is untouched and other collectors keep
// seeing the listing.
func (s *ListingService) Decline(ctx context.Context, collector *domain.Account, listingID string) error {
	if collector.Role != domain.RoleCollector {
		return apperrors.NewForbidden("only collectors may decline listings")
	}
	if _, err := s.getListing(ctx, listingID); err != nil {
		return err
	}
	if err := s.presence.Decline(ctx, collector.ID, listingID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ListMine returns the producer's own listings.
func (s *ListingService) ListMine(ctx context.Context, producer *domain.Account) ([]domain.PickupListing, error) {
	listings, err := s.listings.ListWithFilter(ctx, repository.ListingFilter{ProducerID: &producer.ID})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return listings, nil
}

// ListAssigned returns the collector's accepted, not-yet-collected pickups.
func (s *ListingService) ListAssigned(ctx context.Context, collector *domain.Account) ([]domain.PickupListing, error) {
	listings, err := s.listings.ListWithFilter(ctx, repository.ListingFilter{
		AssignedTo: &collector.ID,
		Statuses:   []domain.PickupStatus{domain.PickupAssigned, domain.PickupPickingUp},
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return listings, nil
}

// ListStock returns the collector's collected, not-yet-listed stock.
func (s *ListingService) ListStock(ctx context.Context, collector *domain.Account) ([]domain.PickupListing, error) {
	listings, err := s.listings.ListWithFilter(ctx, repository.ListingFilter{
		AssignedTo: &collector.ID,
		Statuses:   []domain.PickupStatus{domain.PickupCollected},
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return listings, nil
}

// UpdatePosition records the collector's current position for ranking.
func (s *ListingService) UpdatePosition(ctx context.Context, collector *domain.Account, pos domain.Coordinate) error {
	if collector.Role != domain.RoleCollector {
		return apperrors.NewForbidden("only collectors report positions")
	}
	if err := s.presence.SetPosition(ctx, collector.ID, pos); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *ListingService) getListing(ctx context.Context, listingID string) (*domain.PickupListing, error) {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFound("listing", map[string]any{"listing_id": listingID})
		}
		return nil, apperrors.MapError(err)
	}
	return listing, nil
}

// staleStateError rereads the listing after a lost conditional update so
// the caller sees the state that actually beat them.
func (s *ListingService) staleStateError(ctx context.Context, listingID string, expected domain.PickupStatus) error {
	current, err := s.getListing(ctx, listingID)
	if err != nil {
		return err
	}
	return apperrors.NewStateError(string(expected), string(current.Status))
}

func generateHandoffCode() string {
	return fmt.Sprintf("%04d", 1000+rand.Intn(9000))
}
