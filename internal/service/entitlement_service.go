package service

import (
	"context"
	"time"

	"github.com/spec-kit/eco-exchange/internal/domain"
	"github.com/spec-kit/eco-exchange/internal/repository"
	apperrors "github.com/spec-kit/eco-exchange/pkg/util"
)

// EntitlementService evaluates and mutates paid access. Expiry is lazy:
// there is no background sweep, a period simply stops counting the instant
// wall-clock time passes its end date.
type EntitlementService struct {
	periods repository.EntitlementRepository
	now     func() time.Time
}

// NewEntitlementService builds the service.
func NewEntitlementService(periods repository.EntitlementRepository) *EntitlementService {
	return &EntitlementService{periods: periods, now: time.Now}
}

// IsEntitled reports whether the account may perform gated actions.
// Producers are never gated.
func (s *EntitlementService) IsEntitled(ctx context.Context, account *domain.Account) (bool, error) {
	if account.Role == domain.RoleProducer {
		return true, nil
	}
	period, err := s.periods.ActiveForAccount(ctx, account.ID, s.now())
	if err != nil {
		return false, err
	}
	return period != nil && period.Covers(s.now()), nil
}

// RequireEntitled returns an EntitlementRequired error when the account
// lacks active paid access, so callers can route to an upgrade flow.
func (s *EntitlementService) RequireEntitled(ctx context.Context, account *domain.Account) error {
	entitled, err := s.IsEntitled(ctx, account)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !entitled {
		return apperrors.NewEntitlementRequired()
	}
	return nil
}

// Grant starts a new paid period for the account. Any currently active
// period is expired first; granting mid-cycle replaces remaining time
// rather than stacking. The expire-and-append pair commits atomically, so
// the account never holds two active periods.
func (s *EntitlementService) Grant(ctx context.Context, account *domain.Account, plan domain.PlanTier) (*domain.EntitlementPeriod, error) {
	if !domain.ValidPlan(plan) {
		return nil, apperrors.NewValidationError("unknown plan tier", map[string]any{"plan": plan})
	}

	start := s.now()
	period := &domain.EntitlementPeriod{
		AccountID: account.ID,
		Plan:      plan,
		StartDate: start,
		EndDate:   plan.PeriodEnd(start),
		Status:    domain.EntitlementActive,
	}
	if err := s.periods.Grant(ctx, period); err != nil {
		return nil, apperrors.MapError(err)
	}
	return period, nil
}

// Cancel moves the account's active period to cancelled.
func (s *EntitlementService) Cancel(ctx context.Context, account *domain.Account) (*domain.EntitlementPeriod, error) {
	period, err := s.periods.Cancel(ctx, account.ID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewConflict("no active entitlement period to cancel", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return period, nil
}

// History returns the account's entitlement periods, newest first.
func (s *EntitlementService) History(ctx context.Context, account *domain.Account) ([]domain.EntitlementPeriod, error) {
	periods, err := s.periods.ListByAccount(ctx, account.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return periods, nil
}
