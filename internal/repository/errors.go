// Package repository holds the MySQL data access layer. Failures that
// handlers need to tell apart are returned as the sentinel values below;
// anything else is a raw driver error and surfaces as a 500.
package repository

import (
	"strings"

	"github.com/travelco/travel-planner/internal/domain"
)

var (
	ErrCustomerNotFound      = domain.NotFoundError{Resource: "Customer"}
	ErrCredentialNotFound    = domain.NotFoundError{Resource: "User"}
	ErrTripNotFound          = domain.NotFoundError{Resource: "Trip"}
	ErrTransportNotFound     = domain.NotFoundError{Resource: "Transport booking"}
	ErrAccommodationNotFound = domain.NotFoundError{Resource: "Accommodation booking"}
	ErrPaymentNotFound       = domain.NotFoundError{Resource: "Payment"}
	ErrSessionNotFound       = domain.NotFoundError{Resource: "Booking session"}

	// ErrEmailExists is returned when a customer or credential email is taken.
	ErrEmailExists = domain.ConflictError{Resource: "customer", Msg: "Email already registered"}
	// ErrTransactionExists is returned for a duplicate payment transaction id.
	ErrTransactionExists = domain.ConflictError{Resource: "payment", Msg: "Transaction ID already exists"}
	// ErrPaymentTransition is returned when a status change would break the
	// payment lifecycle, e.g. a failure reported after capture.
	ErrPaymentTransition = domain.ConflictError{Resource: "payment", Msg: "Payment status cannot change that way"}
	// ErrCustomerHasTrips blocks deleting a customer that still owns trips.
	ErrCustomerHasTrips = domain.ConflictError{Resource: "customer", Msg: "Customer still has trips; delete them first"}
)

// isDuplicate reports a MySQL unique-key violation (error 1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
