package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/eco-exchange/internal/config"
)

// ErrPaymentDeclined is returned when the capture step refuses the charge.
var ErrPaymentDeclined = errors.New("payment declined")

// PaymentProcessor is the external payment capture step that must succeed
// before a purchase is recorded. Implementations either capture the full
// amount or fail; there is no partial capture.
type PaymentProcessor interface {
	Capture(ctx context.Context, accountID string, amount float64) error
}

// StubPaymentProcessor logs captures instead of charging anyone.
type StubPaymentProcessor struct {
	cfg    config.PaymentConfig
	logger *zap.Logger
}

// NewStubPaymentProcessor creates the stub.
func NewStubPaymentProcessor(cfg config.PaymentConfig, logger *zap.Logger) *StubPaymentProcessor {
	return &StubPaymentProcessor{cfg: cfg, logger: logger}
}

// Capture approves or declines per configuration.
func (p *StubPaymentProcessor) Capture(ctx context.Context, accountID string, amount float64) error {
	if !p.cfg.AlwaysApprove {
		return ErrPaymentDeclined
	}
	p.logger.Info("payment captured",
		zap.String("provider", p.cfg.Provider),
		zap.String("account_id", accountID),
		zap.Float64("amount", amount),
		zap.String("currency", p.cfg.Currency),
	)
	return nil
}
