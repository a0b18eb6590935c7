package events

import (
	"time"

	"github.com/spec-kit/eco-exchange/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventListingCreated   EventType = "listing_created"
	EventListingAccepted  EventType = "listing_accepted"
	EventPickupStarted    EventType = "pickup_started"
	EventListingCollected EventType = "listing_collected"
	EventListingConverted EventType = "listing_converted"
	EventItemListed       EventType = "item_listed"
	EventItemPurchased    EventType = "item_purchased"
	EventDeliveryAdvanced EventType = "delivery_advanced"
	EventDeliveryComplete EventType = "delivery_complete"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	AccountID string      `json:"account_id"`
	Role      domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	EntityID  string      `json:"entity_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ListingCreatedPayload payload.
type ListingCreatedPayload struct {
	Category    domain.MaterialCategory `json:"category"`
	Quantity    string                  `json:"quantity"`
	RequestedAt time.Time               `json:"requested_at"`
}

// ListingAcceptedPayload payload.
type ListingAcceptedPayload struct {
	CollectorID string `json:"collector_id"`
}

// ListingStatusPayload payload for pickup status moves.
type ListingStatusPayload struct {
	OldStatus domain.PickupStatus `json:"old_status"`
	NewStatus domain.PickupStatus `json:"new_status"`
}

// ListingConvertedPayload payload.
type ListingConvertedPayload struct {
	ItemID string  `json:"item_id"`
	Price  float64 `json:"price"`
}

// ItemListedPayload payload.
type ItemListedPayload struct {
	Category domain.MaterialCategory `json:"category"`
	Quality  domain.QualityGrade     `json:"quality"`
	Price    float64                 `json:"price"`
}

// ItemPurchasedPayload payload.
type ItemPurchasedPayload struct {
	BuyerID string  `json:"buyer_id"`
	Price   float64 `json:"price"`
}

// ItemStatusPayload payload for delivery moves.
type ItemStatusPayload struct {
	OldStatus domain.ItemStatus `json:"old_status"`
	NewStatus domain.ItemStatus `json:"new_status"`
}

// DeliveryCompletePayload payload.
type DeliveryCompletePayload struct {
	SellerID string `json:"seller_id"`
	BuyerID  string `json:"buyer_id"`
}
