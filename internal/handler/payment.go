package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/travelco/travel-planner/internal/domain"
	"github.com/travelco/travel-planner/internal/logger"
	"github.com/travelco/travel-planner/internal/model"
	"github.com/travelco/travel-planner/internal/receipt"
)

// WebhookVerifier authenticates payment provider callbacks.
type WebhookVerifier interface {
	VerifyWebhook(body []byte, signature string) bool
}

// PaymentHandler serves /api/payments.
type PaymentHandler struct {
	Trips    TripStore
	Payments PaymentStore
	Verifier WebhookVerifier
}

func NewPaymentHandler(trips TripStore, payments PaymentStore, verifier WebhookVerifier) *PaymentHandler {
	return &PaymentHandler{Trips: trips, Payments: payments, Verifier: verifier}
}

// Create records a payment against one of the caller's trips. Most payments
// are created by Confirm; this is the manual path.
func (h *PaymentHandler) Create(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	p := model.NewPayment()
	if err := decodeJSON(c, &p); err != nil {
		return respondError(c, err)
	}
	p.ID, p.Trip, p.Customer, p.PaidAt = 0, nil, nil, nil // server-owned

	ctx, cancel := reqCtx(c)
	defer cancel()
	// customerId always follows the trip
	if err := linkTrip(ctx, h.Trips, id, p.TripID, &p.CustomerID); err != nil {
		return respondError(c, err)
	}
	if err := c.Validate(&p); err != nil {
		return respondError(c, err)
	}
	if err := h.Payments.Create(ctx, &p); err != nil { // duplicate transactionId is 400
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, p, "Payment created successfully")
}

// List returns the caller's payments.
func (h *PaymentHandler) List(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Payments.ListByCustomer(ctx, id.CustomerID)
	if err != nil {
		return respondError(c, err)
	}
	return respondList(c, list)
}

func (h *PaymentHandler) ListByTrip(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	tripID, err := parseID(c, "tripId")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := tripOf(ctx, h.Trips, id, tripID); err != nil {
		if domain.IsNotFound(err) {
			// a deleted trip has no children left
			return respondList(c, []model.Payment{})
		}
		return respondError(c, err)
	}
	list, err := h.Payments.ListByTrip(ctx, tripID)
	if err != nil {
		return respondError(c, err)
	}
	return respondList(c, list)
}

// load fetches the :id payment and checks that the caller owns it.
func (h *PaymentHandler) load(c echo.Context) (model.Payment, error) {
	id, err := caller(c)
	if err != nil {
		return model.Payment{}, err
	}
	pid, err := parseID(c, "id")
	if err != nil {
		return model.Payment{}, err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Payments.GetByID(ctx, pid)
	if err != nil {
		return p, err
	}
	return p, owns(id, p.CustomerID, "payment")
}

func (h *PaymentHandler) Get(c echo.Context) error {
	p, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, p, "")
}

func (h *PaymentHandler) GetByTransaction(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	txID := strings.TrimSpace(c.Param("transactionId"))
	if txID == "" {
		return respondError(c, domain.Invalid("transactionId", "is required"))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Payments.GetByTransactionID(ctx, txID)
	if err != nil {
		return respondError(c, err)
	}
	if err := owns(id, p.CustomerID, "payment"); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, p, "")
}

func (h *PaymentHandler) Update(c echo.Context) error {
	stored, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	// decode over the stored row so omitted fields keep their values
	p := stored
	if err := decodeJSON(c, &p); err != nil {
		return respondError(c, err)
	}
	p.ID, p.TripID, p.CustomerID, p.CreatedAt = stored.ID, stored.TripID, stored.CustomerID, stored.CreatedAt
	p.Trip, p.Customer, p.PaidAt = stored.Trip, stored.Customer, stored.PaidAt
	if err := c.Validate(&p); err != nil {
		return respondError(c, err)
	}
	// same lifecycle as the webhook, without the refund cascade
	if !stored.Status.CanTransitionTo(p.Status) {
		return respondError(c, domain.Invalid("status", fmt.Sprintf("cannot change from %s to %s", stored.Status, p.Status)))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Payments.Update(ctx, &p); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, p, "Payment updated successfully")
}

func (h *PaymentHandler) Delete(c echo.Context) error {
	stored, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	removed, err := h.Payments.Delete(ctx, stored.ID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, removed, "Payment deleted successfully")
}

// Receipt streams the PDF receipt of a successful payment.
func (h *PaymentHandler) Receipt(c echo.Context) error {
	p, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	if p.Status != model.PaymentSuccess {
		return respondError(c, domain.Invalid("status", "receipts are only available for successful payments"))
	}
	pdf, err := receipt.Render(p)
	if err != nil {
		return respondError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="`+receipt.Filename(p)+`"`)
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// razorpayEvent is the subset of a Razorpay webhook body used here.
type razorpayEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				Status           string `json:"status"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// webhookStatus maps provider events to payment statuses.
var webhookStatus = map[string]model.PaymentStatus{
	"payment.captured": model.PaymentSuccess,
	"order.paid":       model.PaymentSuccess,
	"payment.failed":   model.PaymentFailed,
	"refund.processed": model.PaymentRefunded,
}

// Webhook applies a signed provider callback to the payment whose
// transactionId is the provider's order id. A bad signature is 401.
// Anything that cannot be applied, such as an unknown order or a failure
// reported after capture, is acknowledged with 200 so the provider stops
// retrying. The stored payment is then left as it was. A refund also
// cancels the trip and its confirmed bookings.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return respondError(c, domain.ValidationError{Msg: "invalid request body"})
	}
	// verify against the raw bytes; re-encoding would change the HMAC
	sig := c.Request().Header.Get("X-Razorpay-Signature")
	if h.Verifier == nil || !h.Verifier.VerifyWebhook(body, sig) {
		logger.ErrorLogger.WithField("remote_ip", c.RealIP()).Warn("payment webhook signature rejected")
		return respondError(c, domain.AuthError{Msg: "invalid webhook signature"})
	}

	var ev razorpayEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return respondError(c, domain.ValidationError{Msg: "invalid webhook payload"})
	}
	entity := ev.Payload.Payment.Entity
	fields := logrus.Fields{"event": ev.Event, "order_id": entity.OrderID, "payment_id": entity.ID}
	status, ok := webhookStatus[ev.Event]
	if !ok || entity.OrderID == "" {
		logger.InfoLogger.WithFields(fields).Info("payment webhook ignored")
		return respondMessage(c, http.StatusOK, "ignored")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Payments.UpdateStatusByTransactionID(ctx, entity.OrderID, status, entity.ErrorDescription)
	if err != nil {
		if domain.IsNotFound(err) {
			logger.InfoLogger.WithFields(fields).Warn("payment webhook for unknown order")
			return respondMessage(c, http.StatusOK, "ignored")
		}
		if domain.IsConflict(err) {
			// late or out-of-order delivery; the stored status wins
			logger.InfoLogger.WithFields(fields).Warn("payment webhook would break the payment lifecycle")
			return respondMessage(c, http.StatusOK, "ignored")
		}
		return respondError(c, err)
	}
	logger.InfoLogger.WithFields(fields).WithField("status", p.Status).Info("payment webhook applied")
	return respond(c, http.StatusOK, p, "Payment status updated")
}
