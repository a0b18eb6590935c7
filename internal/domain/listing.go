package domain

import "time"

// MaterialCategory enumerates recyclable material kinds.
type MaterialCategory string

const (
	MaterialPaper   MaterialCategory = "Paper"
	MaterialPlastic MaterialCategory = "Plastic"
	MaterialBio     MaterialCategory = "Bio-Waste"
	MaterialEWaste  MaterialCategory = "E-Waste"
	MaterialGlass   MaterialCategory = "Glass"
	MaterialMetal   MaterialCategory = "Metal"
)

// MaterialCategories lists every known category.
var MaterialCategories = []MaterialCategory{
	MaterialPaper, MaterialPlastic, MaterialBio, MaterialEWaste, MaterialGlass, MaterialMetal,
}

// ValidCategory reports whether c is a known material category.
func ValidCategory(c MaterialCategory) bool {
	for _, known := range MaterialCategories {
		if c == known {
			return true
		}
	}
	return false
}

// PickupStatus enumerates lifecycle states for a pickup listing.
// Status only ever moves forward through the order declared here.
type PickupStatus string

const (
	PickupPending       PickupStatus = "Pending"
	PickupAssigned      PickupStatus = "Assigned"
	PickupPickingUp     PickupStatus = "PickingUp"
	PickupCollected     PickupStatus = "Collected"
	PickupListedForSale PickupStatus = "ListedForSale"
)

// PickupListing is a producer's offer of recyclable material for pickup.
// The handoff code is generated once at creation and never regenerated;
// matching it is the sole path to the Collected state.
type PickupListing struct {
	ID          string
	ProducerID  string
	Category    MaterialCategory
	Quantity    string
	PhotoURL    string
	Location    Location
	Status      PickupStatus
	RequestedAt time.Time
	AssignedTo  *string
	HandoffCode string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AssignedToCollector reports whether the listing is held by collectorID.
func (l *PickupListing) AssignedToCollector(collectorID string) bool {
	return l.AssignedTo != nil && *l.AssignedTo == collectorID
}
