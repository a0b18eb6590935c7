package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/eco-exchange/internal/events"
	"github.com/spec-kit/eco-exchange/internal/repository"
)

// Reputation deltas applied when an exchange completes end to end.
const (
	sellerDeliveryBonus = 0.1
	buyerDeliveryBonus  = 0.05
)

// ReputationService adjusts account scores on completed exchanges. This is
// the only writer of reputation besides seeding at registration.
type ReputationService struct {
	accounts   repository.AccountRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewReputationService creates the service.
func NewReputationService(accounts repository.AccountRepository, dispatcher events.Dispatcher, logger *zap.Logger) *ReputationService {
	return &ReputationService{accounts: accounts, dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to delivery completion.
func (r *ReputationService) RegisterHandlers() {
	if r.dispatcher == nil {
		return
	}
	r.dispatcher.Subscribe(events.EventDeliveryComplete, r.handleDeliveryComplete)
}

func (r *ReputationService) handleDeliveryComplete(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.DeliveryCompletePayload)
	if !ok {
		return nil
	}
	if err := r.accounts.AdjustReputation(ctx, payload.SellerID, sellerDeliveryBonus); err != nil {
		r.logger.Warn("adjust seller reputation", zap.Error(err), zap.String("account_id", payload.SellerID))
	}
	if err := r.accounts.AdjustReputation(ctx, payload.BuyerID, buyerDeliveryBonus); err != nil {
		r.logger.Warn("adjust buyer reputation", zap.Error(err), zap.String("account_id", payload.BuyerID))
	}
	return nil
}
