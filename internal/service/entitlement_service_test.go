package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/eco-exchange/internal/domain"
	apperrors "github.com/spec-kit/eco-exchange/pkg/util"
)

func newEntitlementFixture(t *testing.T) (*EntitlementService, *fakeEntitlementRepo) {
	t.Helper()
	periods := newFakeEntitlementRepo()
	return NewEntitlementService(periods), periods
}

func TestProducersAlwaysEntitled(t *testing.T) {
	svc, _ := newEntitlementFixture(t)
	producer := testAccount(domain.RoleProducer)

	entitled, err := svc.IsEntitled(context.Background(), producer)

	require.NoError(t, err)
	assert.True(t, entitled)
	assert.NoError(t, svc.RequireEntitled(context.Background(), producer))
}

func TestCollectorNotEntitledWithoutGrant(t *testing.T) {
	svc, _ := newEntitlementFixture(t)
	collector := testAccount(domain.RoleCollector)

	entitled, err := svc.IsEntitled(context.Background(), collector)

	require.NoError(t, err)
	assert.False(t, entitled)
	assert.Equal(t, apperrors.CodeEntitlementRequired, apperrors.CodeOf(svc.RequireEntitled(context.Background(), collector)))
}

func TestGrantEntitles(t *testing.T) {
	svc, _ := newEntitlementFixture(t)
	buyer := testAccount(domain.RoleBuyer)

	period, err := svc.Grant(context.Background(), buyer, domain.PlanMonthly)

	require.NoError(t, err)
	assert.Equal(t, domain.EntitlementActive, period.Status)
	assert.Equal(t, period.StartDate.AddDate(0, 1, 0), period.EndDate)

	entitled, err := svc.IsEntitled(context.Background(), buyer)
	require.NoError(t, err)
	assert.True(t, entitled)
}

func TestGrantRejectsUnknownPlan(t *testing.T) {
	svc, _ := newEntitlementFixture(t)

	_, err := svc.Grant(context.Background(), testAccount(domain.RoleBuyer), "weekly")
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))
}

func TestGrantReplacesActivePeriod(t *testing.T) {
	svc, periods := newEntitlementFixture(t)
	collector := testAccount(domain.RoleCollector)

	first, err := svc.Grant(context.Background(), collector, domain.PlanMonthly)
	require.NoError(t, err)
	second, err := svc.Grant(context.Background(), collector, domain.PlanYearly)
	require.NoError(t, err)

	history, err := periods.ListByAccount(context.Background(), collector.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	active := 0
	for _, period := range history {
		switch period.ID {
		case first.ID:
			assert.Equal(t, domain.EntitlementExpired, period.Status)
		case second.ID:
			assert.Equal(t, domain.EntitlementActive, period.Status)
		}
		if period.Status == domain.EntitlementActive {
			active++
		}
	}
	assert.Equal(t, 1, active, "at most one active period per account")
	assert.Equal(t, second.StartDate.AddDate(1, 0, 0), second.EndDate)
}

func TestLazyExpiry(t *testing.T) {
	svc, _ := newEntitlementFixture(t)
	collector := testAccount(domain.RoleCollector)

	start := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	_, err := svc.Grant(context.Background(), collector, domain.PlanMonthly)
	require.NoError(t, err)

	entitled, err := svc.IsEntitled(context.Background(), collector)
	require.NoError(t, err)
	assert.True(t, entitled)

	// One second before the period lapses access still holds.
	svc.now = func() time.Time { return start.AddDate(0, 1, 0).Add(-time.Second) }
	entitled, err = svc.IsEntitled(context.Background(), collector)
	require.NoError(t, err)
	assert.True(t, entitled)

	// At the end instant access is gone without any sweep having run.
	svc.now = func() time.Time { return start.AddDate(0, 1, 0) }
	entitled, err = svc.IsEntitled(context.Background(), collector)
	require.NoError(t, err)
	assert.False(t, entitled)
	assert.Equal(t, apperrors.CodeEntitlementRequired, apperrors.CodeOf(svc.RequireEntitled(context.Background(), collector)))
}

func TestCancel(t *testing.T) {
	svc, _ := newEntitlementFixture(t)
	collector := testAccount(domain.RoleCollector)

	_, err := svc.Cancel(context.Background(), collector)
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err), "nothing to cancel")

	_, err = svc.Grant(context.Background(), collector, domain.PlanMonthly)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), collector)
	require.NoError(t, err)
	assert.Equal(t, domain.EntitlementCancelled, cancelled.Status)

	entitled, err := svc.IsEntitled(context.Background(), collector)
	require.NoError(t, err)
	assert.False(t, entitled)
}

func TestHistoryNewestFirstContainsAllPeriods(t *testing.T) {
	svc, _ := newEntitlementFixture(t)
	buyer := testAccount(domain.RoleBuyer)

	_, err := svc.Grant(context.Background(), buyer, domain.PlanMonthly)
	require.NoError(t, err)
	_, err = svc.Grant(context.Background(), buyer, domain.PlanYearly)
	require.NoError(t, err)

	history, err := svc.History(context.Background(), buyer)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
