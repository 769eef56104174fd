// Package gateway talks to the payment provider that issues transaction ids
// for confirmed booking sessions and signs webhook callbacks.
package gateway

import (
	"context"

	"github.com/travelco/travel-planner/internal/config"
)

// Gateway creates provider orders and authenticates provider callbacks.
type Gateway interface {
	// Name is stored as the payment's paymentGateway.
	Name() string
	// CreateOrder registers amount with the provider and returns the id used
	// as the payment's transactionId.
	CreateOrder(ctx context.Context, amount float64, currency, receipt string) (string, error)
	// VerifyWebhook reports whether signature authenticates body.
	VerifyWebhook(body []byte, signature string) bool
}

// New returns the Razorpay gateway when it is configured and the manual
// gateway otherwise.
func New(cfg config.RazorpayConfig) Gateway {
	if cfg.Enabled() {
		return NewRazorpay(cfg)
	}
	return Manual{}
}
