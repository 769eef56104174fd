package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/travelco/travel-planner/internal/domain"
	"github.com/travelco/travel-planner/internal/model"
)

// TransportHandler serves /api/transport-bookings.
type TransportHandler struct {
	Trips      TripStore
	Transports TransportStore
}

func NewTransportHandler(trips TripStore, transports TransportStore) *TransportHandler {
	return &TransportHandler{Trips: trips, Transports: transports}
}

func (h *TransportHandler) Create(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	b := model.NewTransportBooking()
	if err := decodeJSON(c, &b); err != nil {
		return respondError(c, err)
	}
	b.ID, b.Trip, b.Customer = 0, nil, nil
	b.BookingStatus = model.BookingPending

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := linkTrip(ctx, h.Trips, id, b.TripID, &b.CustomerID); err != nil {
		return respondError(c, err)
	}
	if err := c.Validate(&b); err != nil {
		return respondError(c, err)
	}
	if err := h.Transports.Create(ctx, &b); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, b, "Transport booking created successfully")
}

// List returns the caller's transport bookings.
func (h *TransportHandler) List(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Transports.ListByCustomer(ctx, id.CustomerID)
	if err != nil {
		return respondError(c, err)
	}
	return respondList(c, list)
}

func (h *TransportHandler) ListByTrip(c echo.Context) error {
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
			return respondList(c, []model.TransportBooking{})
		}
		return respondError(c, err)
	}
	list, err := h.Transports.ListByTrip(ctx, tripID)
	if err != nil {
		return respondError(c, err)
	}
	return respondList(c, list)
}

func (h *TransportHandler) load(c echo.Context) (model.TransportBooking, error) {
	id, err := caller(c)
	if err != nil {
		return model.TransportBooking{}, err
	}
	bid, err := parseID(c, "id")
	if err != nil {
		return model.TransportBooking{}, err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Transports.GetByID(ctx, bid)
	if err != nil {
		return b, err
	}
	return b, owns(id, b.CustomerID, "booking")
}

func (h *TransportHandler) Get(c echo.Context) error {
	b, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, b, "")
}

func (h *TransportHandler) Update(c echo.Context) error {
	stored, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	b := stored
	if err := decodeJSON(c, &b); err != nil {
		return respondError(c, err)
	}
	b.ID, b.TripID, b.CustomerID, b.CreatedAt = stored.ID, stored.TripID, stored.CustomerID, stored.CreatedAt
	b.Trip, b.Customer = stored.Trip, stored.Customer
	if err := c.Validate(&b); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Transports.Update(ctx, &b); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, b, "Booking updated successfully")
}

func (h *TransportHandler) Delete(c echo.Context) error {
	stored, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	removed, err := h.Transports.Delete(ctx, stored.ID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, removed, "Booking deleted successfully")
}
