package domain

import "time"

// QualityGrade enumerates processed-material quality tiers.
type QualityGrade string

const (
	QualityPremium  QualityGrade = "Premium"
	QualityGood     QualityGrade = "Good"
	QualityStandard QualityGrade = "Standard"
)

// ValidQuality reports whether q is a known quality grade.
func ValidQuality(q QualityGrade) bool {
	switch q {
	case QualityPremium, QualityGood, QualityStandard:
		return true
	}
	return false
}

// ItemStatus enumerates lifecycle states for a marketplace item.
// The progression is linear with no reverse transitions.
type ItemStatus string

const (
	ItemListed    ItemStatus = "Listed"
	ItemSold      ItemStatus = "Sold"
	ItemInTransit ItemStatus = "InTransit"
	ItemDelivered ItemStatus = "Delivered"
)

// MarketplaceItem is processed material a collector offers for resale.
// Buyer and purchase instant are set exactly once, at purchase, and never
// cleared. At most one marketplace item is ever produced from a given
// pickup listing.
type MarketplaceItem struct {
	ID              string
	SellerID        string
	Category        MaterialCategory
	Quantity        string
	Quality         QualityGrade
	Price           float64
	PhotoURL        string
	Location        Location
	Description     string
	Status          ItemStatus
	BuyerID         *string
	PurchasedAt     *time.Time
	SourceListingID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
