package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/eco-exchange/internal/domain"
	"github.com/spec-kit/eco-exchange/internal/events"
)

func TestReputationAdjustsOnDeliveryComplete(t *testing.T) {
	accounts := newFakeAccountRepo()
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewReputationService(accounts, dispatcher, zap.NewNop())
	svc.RegisterHandlers()

	seller := testAccount(domain.RoleCollector)
	seller.Reputation = 4.0
	buyer := testAccount(domain.RoleBuyer)
	buyer.Reputation = 3.0
	require.NoError(t, accounts.Create(context.Background(), seller))
	require.NoError(t, accounts.Create(context.Background(), buyer))

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventDeliveryComplete,
		Payload: events.DeliveryCompletePayload{SellerID: seller.ID, BuyerID: buyer.ID},
	})
	require.NoError(t, err)

	updatedSeller, err := accounts.GetByID(context.Background(), seller.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.1, updatedSeller.Reputation, 1e-9)

	updatedBuyer, err := accounts.GetByID(context.Background(), buyer.ID)
	require.NoError(t, err)
	assert.InDelta(t, 3.05, updatedBuyer.Reputation, 1e-9)
}

func TestReputationClampedAtCeiling(t *testing.T) {
	accounts := newFakeAccountRepo()
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewReputationService(accounts, dispatcher, zap.NewNop())
	svc.RegisterHandlers()

	seller := testAccount(domain.RoleCollector)
	seller.Reputation = 5.0
	buyer := testAccount(domain.RoleBuyer)
	buyer.Reputation = 5.0
	require.NoError(t, accounts.Create(context.Background(), seller))
	require.NoError(t, accounts.Create(context.Background(), buyer))

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventDeliveryComplete,
		Payload: events.DeliveryCompletePayload{SellerID: seller.ID, BuyerID: buyer.ID},
	})
	require.NoError(t, err)

	updatedSeller, err := accounts.GetByID(context.Background(), seller.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, updatedSeller.Reputation)
}
