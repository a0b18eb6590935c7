package dto

import (
	"time"

	"github.com/spec-kit/eco-exchange/internal/domain"
)

// CreateItemRequest payload for a manual stock declaration.
type CreateItemRequest struct {
	Category    domain.MaterialCategory `json:"category"`
	Quantity    string                  `json:"quantity"`
	Quality     domain.QualityGrade     `json:"quality"`
	Price       float64                 `json:"price"`
	PhotoURL    string                  `json:"photo_url"`
	Location    domain.Location         `json:"location"`
	Description string                  `json:"description"`
}

// ConvertToSaleRequest payload for converting collected stock.
type ConvertToSaleRequest struct {
	Quality     domain.QualityGrade `json:"quality"`
	Price       float64             `json:"price"`
	PhotoURL    string              `json:"photo_url"`
	Description string              `json:"description"`
}

// ItemResponse describes a marketplace item.
type ItemResponse struct {
	ID              string                  `json:"id"`
	SellerID        string                  `json:"seller_id"`
	Category        domain.MaterialCategory `json:"category"`
	Quantity        string                  `json:"quantity"`
	Quality         domain.QualityGrade     `json:"quality"`
	Price           float64                 `json:"price"`
	PhotoURL        string                  `json:"photo_url,omitempty"`
	Location        domain.Location         `json:"location"`
	Description     string                  `json:"description,omitempty"`
	Status          domain.ItemStatus       `json:"status"`
	BuyerID         *string                 `json:"buyer_id,omitempty"`
	PurchasedAt     *time.Time              `json:"purchased_at,omitempty"`
	SourceListingID *string                 `json:"source_listing_id,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

// NewItemResponse maps the domain item.
func NewItemResponse(item *domain.MarketplaceItem) ItemResponse {
	return ItemResponse{
		ID:              item.ID,
		SellerID:        item.SellerID,
		Category:        item.Category,
		Quantity:        item.Quantity,
		Quality:         item.Quality,
		Price:           item.Price,
		PhotoURL:        item.PhotoURL,
		Location:        item.Location,
		Description:     item.Description,
		Status:          item.Status,
		BuyerID:         item.BuyerID,
		PurchasedAt:     item.PurchasedAt,
		SourceListingID: item.SourceListingID,
		CreatedAt:       item.CreatedAt,
		UpdatedAt:       item.UpdatedAt,
	}
}
