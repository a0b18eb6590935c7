package domain

import "time"

// PlanTier enumerates the paid access cycles.
type PlanTier string

const (
	PlanMonthly PlanTier = "monthly"
	PlanYearly  PlanTier = "yearly"
)

// ValidPlan reports whether p names a known plan tier.
func ValidPlan(p PlanTier) bool {
	return p == PlanMonthly || p == PlanYearly
}

// PeriodEnd returns the instant a period starting at start would lapse.
func (p PlanTier) PeriodEnd(start time.Time) time.Time {
	if p == PlanYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

// EntitlementStatus enumerates states of a single paid period.
type EntitlementStatus string

const (
	EntitlementActive    EntitlementStatus = "active"
	EntitlementExpired   EntitlementStatus = "expired"
	EntitlementCancelled EntitlementStatus = "cancelled"
)

// EntitlementPeriod is a time-bounded grant of paid access held by one
// account. Periods are append-only; status is the only mutable field.
// At most one period per account may be active at any instant.
type EntitlementPeriod struct {
	ID        string
	AccountID string
	Plan      PlanTier
	StartDate time.Time
	EndDate   time.Time
	Status    EntitlementStatus
	CreatedAt time.Time
}

// Covers reports whether the period grants access at instant t.
func (e *EntitlementPeriod) Covers(t time.Time) bool {
	return e.Status == EntitlementActive && e.EndDate.After(t)
}
