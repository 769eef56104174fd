package gateway

import (
	"context"
	"fmt"
	"math"

	"github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"

	"github.com/travelco/travel-planner/internal/config"
	"github.com/travelco/travel-planner/internal/logger"
	"github.com/travelco/travel-planner/internal/model"
)

// OrderAPI is the part of the Razorpay SDK used here.
type OrderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Razorpay creates orders through the Razorpay SDK and verifies webhook
// signatures with the configured webhook secret.
type Razorpay struct {
	Orders        OrderAPI
	WebhookSecret string
}

func NewRazorpay(cfg config.RazorpayConfig) *Razorpay {
	client := razorpay.NewClient(cfg.KeyID, cfg.KeySecret)
	return &Razorpay{Orders: client.Order, WebhookSecret: cfg.WebhookSecret}
}

func (r *Razorpay) Name() string { return model.GatewayRazorpay }

// CreateOrder sends the amount in the currency's smallest unit (paise for INR).
func (r *Razorpay) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if currency == "" {
		currency = "INR"
	}
	data := map[string]interface{}{
		"amount":   int64(math.Round(amount * 100)),
		"currency": currency,
		"receipt":  receipt,
	}
	order, err := r.Orders.Create(data, nil)
	if err != nil {
		logger.ErrorLogger.WithError(err).WithField("receipt", receipt).Error("razorpay order create failed")
		return "", fmt.Errorf("razorpay order: %w", err)
	}
	id, ok := order["id"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("razorpay order: response has no id")
	}
	logger.InfoLogger.WithField("order_id", id).WithField("receipt", receipt).Info("razorpay order created")
	return id, nil
}

func (r *Razorpay) VerifyWebhook(body []byte, signature string) bool {
	if r.WebhookSecret == "" || signature == "" {
		return false
	}
	return utils.VerifyWebhookSignature(string(body), signature, r.WebhookSecret)
}
