package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/travelco/travel-planner/internal/domain"
	"github.com/travelco/travel-planner/internal/model"
)

// TripHandler serves /api/trips.
type TripHandler struct {
	Trips TripStore
}

func NewTripHandler(trips TripStore) *TripHandler { return &TripHandler{Trips: trips} }

func (h *TripHandler) Create(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	t := model.NewTrip()
	if err := decodeJSON(c, &t); err != nil {
		return respondError(c, err)
	}
	// a new trip always starts its lifecycle at the beginning
	t.ID, t.Customer = 0, nil
	t.Status, t.PaymentStatus = model.TripPlanning, model.TripPaymentPending
	if err := claimCustomer(id, &t.CustomerID); err != nil {
		return respondError(c, err)
	}
	if err := c.Validate(&t); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Trips.Create(ctx, &t); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, t, "Trip created successfully")
}

// List returns the caller's trips.
func (h *TripHandler) List(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	trips, err := h.Trips.ListByCustomer(ctx, id.CustomerID)
	if err != nil {
		return respondError(c, err)
	}
	return respondList(c, trips)
}

func (h *TripHandler) ListByCustomer(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	cid, err := parseID(c, "customerId")
	if err != nil {
		return respondError(c, err)
	}
	if err := owns(id, cid, "customer"); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	trips, err := h.Trips.ListByCustomer(ctx, cid)
	if err != nil {
		return respondError(c, err)
	}
	return respondList(c, trips)
}

func (h *TripHandler) load(c echo.Context) (model.Trip, error) {
	id, err := caller(c)
	if err != nil {
		return model.Trip{}, err
	}
	tid, err := parseID(c, "id")
	if err != nil {
		return model.Trip{}, err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	return tripOf(ctx, h.Trips, id, tid)
}

func (h *TripHandler) Get(c echo.Context) error {
	t, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, t, "")
}

// Update merges the body over the stored trip and enforces the status and
// payment status lifecycles.
func (h *TripHandler) Update(c echo.Context) error {
	stored, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	t := stored
	if err := decodeJSON(c, &t); err != nil {
		return respondError(c, err)
	}
	t.ID, t.CustomerID, t.Customer, t.CreatedAt = stored.ID, stored.CustomerID, stored.Customer, stored.CreatedAt
	if err := c.Validate(&t); err != nil {
		return respondError(c, err)
	}
	if !stored.Status.CanTransitionTo(t.Status) {
		return respondError(c, domain.Invalid("status", fmt.Sprintf("cannot change from %s to %s", stored.Status, t.Status)))
	}
	if !stored.PaymentStatus.CanTransitionTo(t.PaymentStatus) {
		return respondError(c, domain.Invalid("paymentStatus", fmt.Sprintf("cannot change from %s to %s", stored.PaymentStatus, t.PaymentStatus)))
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Trips.Update(ctx, &t); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, t, "Trip updated successfully")
}

// Delete removes the trip with its bookings, payments and sessions.
func (h *TripHandler) Delete(c echo.Context) error {
	t, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	removed, err := h.Trips.Delete(ctx, t.ID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, removed, "Trip deleted successfully")
}
