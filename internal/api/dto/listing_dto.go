package dto

import (
	"time"

	"github.com/spec-kit/eco-exchange/internal/domain"
)

// CreateListingRequest payload.
type CreateListingRequest struct {
	Category    domain.MaterialCategory `json:"category"`
	Quantity    string                  `json:"quantity"`
	PhotoURL    string                  `json:"photo_url"`
	Location    domain.Location         `json:"location"`
	RequestedAt time.Time               `json:"requested_at"`
}

// VerifyPickupRequest carries the handoff code supplied by the producer.
type VerifyPickupRequest struct {
	Code string `json:"code"`
}

// UpdatePositionRequest carries a collector position report.
type UpdatePositionRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ListingResponse describes a pickup listing. HandoffCode is only populated
// for viewers entitled to see it: the owning producer, and the assigned
// collector once pickup has started.
type ListingResponse struct {
	ID          string                  `json:"id"`
	ProducerID  string                  `json:"producer_id"`
	Category    domain.MaterialCategory `json:"category"`
	Quantity    string                  `json:"quantity"`
	PhotoURL    string                  `json:"photo_url,omitempty"`
	Location    domain.Location         `json:"location"`
	Status      domain.PickupStatus     `json:"status"`
	RequestedAt time.Time               `json:"requested_at"`
	AssignedTo  *string                 `json:"assigned_to,omitempty"`
	HandoffCode string                  `json:"handoff_code,omitempty"`
	DistanceKm  *float64                `json:"distance_km,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// NewListingResponse maps a listing for the given viewer.
func NewListingResponse(listing *domain.PickupListing, viewer *domain.Account) ListingResponse {
	resp := ListingResponse{
		ID:          listing.ID,
		ProducerID:  listing.ProducerID,
		Category:    listing.Category,
		Quantity:    listing.Quantity,
		PhotoURL:    listing.PhotoURL,
		Location:    listing.Location,
		Status:      listing.Status,
		RequestedAt: listing.RequestedAt,
		AssignedTo:  listing.AssignedTo,
		CreatedAt:   listing.CreatedAt,
		UpdatedAt:   listing.UpdatedAt,
	}
	if viewer != nil && canSeeHandoffCode(listing, viewer) {
		resp.HandoffCode = listing.HandoffCode
	}
	return resp
}

// canSeeHandoffCode: the producer always sees their own code; the assigned
// collector sees it once pickup is underway so they can share it on site.
func canSeeHandoffCode(listing *domain.PickupListing, viewer *domain.Account) bool {
	if listing.ProducerID == viewer.ID {
		return true
	}
	if listing.AssignedToCollector(viewer.ID) {
		switch listing.Status {
		case domain.PickupPickingUp, domain.PickupCollected, domain.PickupListedForSale:
			return true
		}
	}
	return false
}
