package gateway

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/travelco/travel-planner/internal/model"
)

// Manual is used when no provider is configured. Orders get a local
// "MANUAL-" id and webhooks are never accepted.
type Manual struct{}

func (Manual) Name() string { return model.GatewayManual }

func (Manual) CreateOrder(ctx context.Context, _ float64, _, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "MANUAL-" + strings.ToUpper(uuid.NewString()), nil
}

func (Manual) VerifyWebhook([]byte, string) bool { return false }
