package dto

import (
	"time"

	"github.com/spec-kit/eco-exchange/internal/domain"
)

// GrantEntitlementRequest payload.
type GrantEntitlementRequest struct {
	Plan domain.PlanTier `json:"plan"`
}

// EntitlementResponse describes one paid period.
type EntitlementResponse struct {
	ID        string                   `json:"id"`
	Plan      domain.PlanTier          `json:"plan"`
	StartDate time.Time                `json:"start_date"`
	EndDate   time.Time                `json:"end_date"`
	Status    domain.EntitlementStatus `json:"status"`
}

// EntitlementStatusResponse pairs the entitled flag with period history.
type EntitlementStatusResponse struct {
	Entitled bool                  `json:"entitled"`
	Periods  []EntitlementResponse `json:"periods"`
}

// NewEntitlementResponse maps a domain period.
func NewEntitlementResponse(period *domain.EntitlementPeriod) EntitlementResponse {
	return EntitlementResponse{
		ID:        period.ID,
		Plan:      period.Plan,
		StartDate: period.StartDate,
		EndDate:   period.EndDate,
		Status:    period.Status,
	}
}
