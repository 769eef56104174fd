package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/travelco/travel-planner/internal/domain"
	"github.com/travelco/travel-planner/internal/middleware"
	"github.com/travelco/travel-planner/internal/model"
)

// dbTimeout bounds every repository call made by a handler.
const dbTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, domain.Invalid(name, "must be a positive integer")
	}
	return id, nil
}

// caller returns the identity stored by JWTAuth.
func caller(c echo.Context) (middleware.Identity, error) {
	id, ok := middleware.GetIdentity(c)
	if !ok || id.CustomerID == 0 {
		return middleware.Identity{}, domain.AuthError{Msg: middleware.MsgNoToken}
	}
	return id, nil
}

// decodeJSON decodes the body into dst, rejecting unknown fields. Fields
// already set on dst are kept when the body omits them.
func decodeJSON(c echo.Context, dst any) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.ValidationError{Msg: "request body is required"}
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return domain.Invalid(typeErr.Field, "has the wrong type")
		}
		msg := strings.TrimPrefix(err.Error(), "json: ")
		return domain.ValidationError{Msg: "invalid request body: " + msg}
	}
	return nil
}

// bind decodes and validates a request body.
func bind(c echo.Context, dst any) error {
	if err := decodeJSON(c, dst); err != nil {
		return err
	}
	return c.Validate(dst)
}

// owns rejects records that belong to another customer.
func owns(id middleware.Identity, customerID uint64, what string) error {
	if customerID != id.CustomerID {
		return domain.ForbiddenError{Msg: "You do not have access to this " + what}
	}
	return nil
}

// claimCustomer fills an omitted customerId with the caller's and rejects
// a different one.
func claimCustomer(id middleware.Identity, customerID *uint64) error {
	if *customerID == 0 {
		*customerID = id.CustomerID
		return nil
	}
	if *customerID != id.CustomerID {
		return domain.ForbiddenError{Msg: "customerId must be your own"}
	}
	return nil
}

// tripOf loads a trip and checks the caller owns it.
func tripOf(ctx context.Context, trips TripStore, id middleware.Identity, tripID uint64) (model.Trip, error) {
	if tripID == 0 {
		return model.Trip{}, domain.Invalid("tripId", "is required")
	}
	t, err := trips.GetByID(ctx, tripID)
	if err != nil {
		return model.Trip{}, err
	}
	if err := owns(id, t.CustomerID, "trip"); err != nil {
		return model.Trip{}, err
	}
	return t, nil
}

// linkTrip checks the booking's trip and denormalizes the trip's customer
// onto it. A customerId that disagrees with the trip is rejected.
func linkTrip(ctx context.Context, trips TripStore, id middleware.Identity, tripID uint64, customerID *uint64) error {
	t, err := tripOf(ctx, trips, id, tripID)
	if err != nil {
		return err
	}
	if *customerID != 0 && *customerID != t.CustomerID {
		return domain.Invalid("customerId", "must match the trip's customer")
	}
	*customerID = t.CustomerID
	return nil
}
