package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/travelco/travel-planner/internal/domain"
	"github.com/travelco/travel-planner/internal/model"
)

// AccommodationHandler serves /api/accommodation-bookings.
type AccommodationHandler struct {
	Trips TripStore
	Stays AccommodationStore
}

func NewAccommodationHandler(trips TripStore, stays AccommodationStore) *AccommodationHandler {
	return &AccommodationHandler{Trips: trips, Stays: stays}
}

func (h *AccommodationHandler) Create(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	b := model.NewAccommodationBooking()
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
	if err := h.Stays.Create(ctx, &b); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, b, "Accommodation booking created successfully")
}

// List returns the caller's accommodation bookings.
func (h *AccommodationHandler) List(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Stays.ListByCustomer(ctx, id.CustomerID)
	if err != nil {
		return respondError(c, err)
	}
	return respondList(c, list)
}

func (h *AccommodationHandler) ListByTrip(c echo.Context) error {
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
			return respondList(c, []model.AccommodationBooking{})
		}
		return respondError(c, err)
	}
	list, err := h.Stays.ListByTrip(ctx, tripID)
	if err != nil {
		return respondError(c, err)
	}
	return respondList(c, list)
}

func (h *AccommodationHandler) load(c echo.Context) (model.AccommodationBooking, error) {
	id, err := caller(c)
	if err != nil {
		return model.AccommodationBooking{}, err
	}
	bid, err := parseID(c, "id")
	if err != nil {
		return model.AccommodationBooking{}, err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Stays.GetByID(ctx, bid)
	if err != nil {
		return b, err
	}
	return b, owns(id, b.CustomerID, "booking")
}

func (h *AccommodationHandler) Get(c echo.Context) error {
	b, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, b, "")
}

func (h *AccommodationHandler) Update(c echo.Context) error {
	stored, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	b := stored
	// derived from the merged body by Validate
	b.Nights, b.TotalPrice = 0, 0
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
	if err := h.Stays.Update(ctx, &b); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, b, "Booking updated successfully")
}

func (h *AccommodationHandler) Delete(c echo.Context) error {
	stored, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	removed, err := h.Stays.Delete(ctx, stored.ID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, removed, "Booking deleted successfully")
}
