package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/eco-exchange/internal/domain"
	"github.com/spec-kit/eco-exchange/internal/events"
	apperrors "github.com/spec-kit/eco-exchange/pkg/util"
)

type approvingPayment struct{}

func (approvingPayment) Capture(context.Context, string, float64) error { return nil }

type decliningPayment struct{}

func (decliningPayment) Capture(context.Context, string, float64) error {
	return errors.New("card declined")
}

type marketFixture struct {
	service    *MarketplaceService
	items      *fakeItemRepo
	periods    *fakeEntitlementRepo
	dispatcher *recordingDispatcher
}

func newMarketFixture(t *testing.T, payment PaymentProcessor) *marketFixture {
	t.Helper()
	items := newFakeItemRepo()
	periods := newFakeEntitlementRepo()
	dispatcher := &recordingDispatcher{}
	return &marketFixture{
		service: NewMarketplaceService(MarketplaceDependencies{
			ItemRepo:     items,
			Payment:      payment,
			Entitlements: NewEntitlementService(periods),
			Dispatcher:   dispatcher,
		}),
		items:      items,
		periods:    periods,
		dispatcher: dispatcher,
	}
}

func (f *marketFixture) entitle(t *testing.T, account *domain.Account) {
	t.Helper()
	svc := NewEntitlementService(f.periods)
	_, err := svc.Grant(context.Background(), account, domain.PlanMonthly)
	require.NoError(t, err)
}

func (f *marketFixture) listItem(t *testing.T, seller *domain.Account, price float64) *domain.MarketplaceItem {
	t.Helper()
	item, err := f.service.List(context.Background(), seller, ItemCreateInput{
		Category: domain.MaterialPlastic,
		Quantity: "10 kg",
		Quality:  domain.QualityGood,
		Price:    price,
	})
	require.NoError(t, err)
	return item
}

func TestListItemRequiresCollectorAndEntitlement(t *testing.T) {
	f := newMarketFixture(t, approvingPayment{})

	_, err := f.service.List(context.Background(), testAccount(domain.RoleBuyer), ItemCreateInput{
		Category: domain.MaterialPaper,
		Quantity: "1 kg",
		Quality:  domain.QualityStandard,
		Price:    100,
	})
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))

	collector := testAccount(domain.RoleCollector)
	_, err = f.service.List(context.Background(), collector, ItemCreateInput{
		Category: domain.MaterialPaper,
		Quantity: "1 kg",
		Quality:  domain.QualityStandard,
		Price:    100,
	})
	assert.Equal(t, apperrors.CodeEntitlementRequired, apperrors.CodeOf(err))
}

func TestListItemValidation(t *testing.T) {
	f := newMarketFixture(t, approvingPayment{})
	seller := testAccount(domain.RoleCollector)
	f.entitle(t, seller)

	_, err := f.service.List(context.Background(), seller, ItemCreateInput{
		Category: domain.MaterialPaper,
		Quantity: "1 kg",
		Quality:  "Pristine",
		Price:    100,
	})
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))

	_, err = f.service.List(context.Background(), seller, ItemCreateInput{
		Category: domain.MaterialPaper,
		Quantity: "1 kg",
		Quality:  domain.QualityGood,
		Price:    0,
	})
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))
}

func TestBrowseReturnsOnlyListed(t *testing.T) {
	f := newMarketFixture(t, approvingPayment{})
	seller := testAccount(domain.RoleCollector)
	buyer := testAccount(domain.RoleBuyer)
	f.entitle(t, seller)
	f.entitle(t, buyer)

	open := f.listItem(t, seller, 200)
	sold := f.listItem(t, seller, 300)
	_, err := f.service.Purchase(context.Background(), buyer, sold.ID)
	require.NoError(t, err)

	items, err := f.service.Browse(context.Background(), BrowseFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, open.ID, items[0].ID)
}

func TestPurchaseHappyPath(t *testing.T) {
	f := newMarketFixture(t, approvingPayment{})
	seller := testAccount(domain.RoleCollector)
	buyer := testAccount(domain.RoleBuyer)
	f.entitle(t, seller)
	f.entitle(t, buyer)
	item := f.listItem(t, seller, 500)

	purchased, err := f.service.Purchase(context.Background(), buyer, item.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.ItemSold, purchased.Status)
	require.NotNil(t, purchased.BuyerID)
	assert.Equal(t, buyer.ID, *purchased.BuyerID)
	require.NotNil(t, purchased.PurchasedAt)
	assert.Contains(t, f.dispatcher.typesSeen(), events.EventItemPurchased)
}

func TestPurchaseGuards(t *testing.T) {
	f := newMarketFixture(t, approvingPayment{})
	seller := testAccount(domain.RoleCollector)
	buyer := testAccount(domain.RoleBuyer)
	f.entitle(t, seller)
	item := f.listItem(t, seller, 500)

	_, err := f.service.Purchase(context.Background(), seller, item.ID)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err), "sellers cannot buy")

	_, err = f.service.Purchase(context.Background(), buyer, item.ID)
	assert.Equal(t, apperrors.CodeEntitlementRequired, apperrors.CodeOf(err))

	f.entitle(t, buyer)
	_, err = f.service.Purchase(context.Background(), buyer, "no-such-item")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestPurchaseDeclinedPaymentLeavesItemListed(t *testing.T) {
	f := newMarketFixture(t, decliningPayment{})
	seller := testAccount(domain.RoleCollector)
	buyer := testAccount(domain.RoleBuyer)
	f.entitle(t, seller)
	f.entitle(t, buyer)
	item := f.listItem(t, seller, 500)

	_, err := f.service.Purchase(context.Background(), buyer, item.ID)
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))

	current, getErr := f.items.GetByID(context.Background(), item.ID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.ItemListed, current.Status)
	assert.Nil(t, current.BuyerID)
}

func TestConcurrentPurchaseOneWinner(t *testing.T) {
	f := newMarketFixture(t, approvingPayment{})
	seller := testAccount(domain.RoleCollector)
	f.entitle(t, seller)
	item := f.listItem(t, seller, 750)

	const contenders = 8
	buyers := make([]*domain.Account, contenders)
	for i := range buyers {
		buyers[i] = testAccount(domain.RoleBuyer)
		f.entitle(t, buyers[i])
	}

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := range buyers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.Purchase(context.Background(), buyers[i], item.ID)
		}(i)
	}
	wg.Wait()

	wins := 0
	for i := range errs {
		if errs[i] == nil {
			wins++
			continue
		}
		assert.Equal(t, apperrors.CodeStateError, apperrors.CodeOf(errs[i]))
	}
	assert.Equal(t, 1, wins)

	current, err := f.items.GetByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemSold, current.Status)
	require.NotNil(t, current.BuyerID)
}

func TestDeliveryFlow(t *testing.T) {
	f := newMarketFixture(t, approvingPayment{})
	seller := testAccount(domain.RoleCollector)
	buyer := testAccount(domain.RoleBuyer)
	f.entitle(t, seller)
	f.entitle(t, buyer)
	item := f.listItem(t, seller, 500)

	_, err := f.service.Purchase(context.Background(), buyer, item.ID)
	require.NoError(t, err)

	// Only the seller advances, and only from Sold.
	_, err = f.service.AdvanceDelivery(context.Background(), testAccount(domain.RoleCollector), item.ID)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))

	// The buyer cannot confirm before transit begins.
	_, err = f.service.ConfirmDelivery(context.Background(), buyer, item.ID)
	assert.Equal(t, apperrors.CodeStateError, apperrors.CodeOf(err))

	inTransit, err := f.service.AdvanceDelivery(context.Background(), seller, item.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemInTransit, inTransit.Status)

	_, err = f.service.AdvanceDelivery(context.Background(), seller, item.ID)
	assert.Equal(t, apperrors.CodeStateError, apperrors.CodeOf(err))

	// Only the buyer who purchased confirms.
	_, err = f.service.ConfirmDelivery(context.Background(), testAccount(domain.RoleBuyer), item.ID)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))

	delivered, err := f.service.ConfirmDelivery(context.Background(), buyer, item.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemDelivered, delivered.Status)
	assert.Contains(t, f.dispatcher.typesSeen(), events.EventDeliveryComplete)
}

func TestConfirmDeliveryIsIdempotent(t *testing.T) {
	f := newMarketFixture(t, approvingPayment{})
	seller := testAccount(domain.RoleCollector)
	buyer := testAccount(domain.RoleBuyer)
	f.entitle(t, seller)
	f.entitle(t, buyer)
	item := f.listItem(t, seller, 500)

	_, err := f.service.Purchase(context.Background(), buyer, item.ID)
	require.NoError(t, err)
	_, err = f.service.AdvanceDelivery(context.Background(), seller, item.ID)
	require.NoError(t, err)

	first, err := f.service.ConfirmDelivery(context.Background(), buyer, item.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemDelivered, first.Status)

	again, err := f.service.ConfirmDelivery(context.Background(), buyer, item.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemDelivered, again.Status)

	// Only the first confirm emits the completion event.
	seen := 0
	for _, eventType := range f.dispatcher.typesSeen() {
		if eventType == events.EventDeliveryComplete {
			seen++
		}
	}
	assert.Equal(t, 1, seen)
}

func TestListMineAndPurchases(t *testing.T) {
	f := newMarketFixture(t, approvingPayment{})
	seller := testAccount(domain.RoleCollector)
	buyer := testAccount(domain.RoleBuyer)
	f.entitle(t, seller)
	f.entitle(t, buyer)

	item := f.listItem(t, seller, 500)
	f.listItem(t, seller, 600)

	_, err := f.service.Purchase(context.Background(), buyer, item.ID)
	require.NoError(t, err)

	mine, err := f.service.ListMine(context.Background(), seller)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	purchases, err := f.service.ListPurchases(context.Background(), buyer)
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Equal(t, item.ID, purchases[0].ID)
}
