package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/travelco/travel-planner/internal/service"
)

// SessionHandler serves /api/booking-sessions, the server-tracked booking
// flow.
type SessionHandler struct {
	Bookings *service.BookingService
}

func NewSessionHandler(bookings *service.BookingService) *SessionHandler {
	return &SessionHandler{Bookings: bookings}
}

type startSessionReq struct {
	TripID uint64 `json:"tripId" validate:"required"`
}

type chooseTransportReq struct {
	TransportBookingID uint64 `json:"transportBookingId" validate:"required"`
}

type chooseAccommodationReq struct {
	AccommodationBookingID uint64 `json:"accommodationBookingId" validate:"required"`
}

// Start: open a session for one of the caller's trips.
func (h *SessionHandler) Start(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	var req startSessionReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess, err := h.Bookings.Start(ctx, id.CustomerID, req.TripID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, sess, "Booking session started")
}

func (h *SessionHandler) Get(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	sid, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess, err := h.Bookings.Get(ctx, id.CustomerID, sid)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, sess, "")
}

func (h *SessionHandler) ChooseTransport(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	sid, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req chooseTransportReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess, err := h.Bookings.ChooseTransport(ctx, id.CustomerID, sid, req.TransportBookingID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, sess, "")
}

func (h *SessionHandler) ChooseAccommodation(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	sid, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req chooseAccommodationReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess, err := h.Bookings.ChooseAccommodation(ctx, id.CustomerID, sid, req.AccommodationBookingID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, sess, "")
}

// Review: price the chosen bookings and move the session to Paying.
func (h *SessionHandler) Review(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	sid, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rev, err := h.Bookings.Review(ctx, id.CustomerID, sid)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, rev, "")
}

// Confirm: charge the reviewed amount and finalize trip, bookings and
// payment in one transaction. Trip or bookings that changed since the
// review fail with 400 and leave the session in Paying.
func (h *SessionHandler) Confirm(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	sid, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req service.ConfirmRequest // payment method; amounts come from the review
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	conf, err := h.Bookings.Confirm(ctx, id.CustomerID, sid, req)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, conf, "Booking confirmed")
}

// Abandon: close the session and cancel the bookings it had chosen.
func (h *SessionHandler) Abandon(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	sid, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess, err := h.Bookings.Abandon(ctx, id.CustomerID, sid)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, sess, "Booking session abandoned")
}
