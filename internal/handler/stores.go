package handler

import (
	"context"

	"github.com/travelco/travel-planner/internal/model"
)

// The handlers depend on these narrow views of the repositories so tests
// can substitute in-memory fakes.

type CustomerStore interface {
	Create(ctx context.Context, c *model.Customer, passwordHash string) (model.Credential, error)
	GetByID(ctx context.Context, id uint64) (model.Customer, error)
	Update(ctx context.Context, c *model.Customer, passwordHash *string) error
	Delete(ctx context.Context, id uint64) (model.Customer, error)
}

type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (model.Credential, error)
	GetByID(ctx context.Context, id uint64) (model.Credential, error)
	TouchLastLogin(ctx context.Context, id uint64) error
}

type TripStore interface {
	Create(ctx context.Context, t *model.Trip) error
	GetByID(ctx context.Context, id uint64) (model.Trip, error)
	ListByCustomer(ctx context.Context, customerID uint64) ([]model.Trip, error)
	Update(ctx context.Context, t *model.Trip) error
	Delete(ctx context.Context, id uint64) (model.Trip, error)
}

type TransportStore interface {
	Create(ctx context.Context, b *model.TransportBooking) error
	GetByID(ctx context.Context, id uint64) (model.TransportBooking, error)
	ListByTrip(ctx context.Context, tripID uint64) ([]model.TransportBooking, error)
	ListByCustomer(ctx context.Context, customerID uint64) ([]model.TransportBooking, error)
	Update(ctx context.Context, b *model.TransportBooking) error
	Delete(ctx context.Context, id uint64) (model.TransportBooking, error)
}

type AccommodationStore interface {
	Create(ctx context.Context, b *model.AccommodationBooking) error
	GetByID(ctx context.Context, id uint64) (model.AccommodationBooking, error)
	ListByTrip(ctx context.Context, tripID uint64) ([]model.AccommodationBooking, error)
	ListByCustomer(ctx context.Context, customerID uint64) ([]model.AccommodationBooking, error)
	Update(ctx context.Context, b *model.AccommodationBooking) error
	Delete(ctx context.Context, id uint64) (model.AccommodationBooking, error)
}

type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByID(ctx context.Context, id uint64) (model.Payment, error)
	GetByTransactionID(ctx context.Context, txID string) (model.Payment, error)
	ListByTrip(ctx context.Context, tripID uint64) ([]model.Payment, error)
	ListByCustomer(ctx context.Context, customerID uint64) ([]model.Payment, error)
	Update(ctx context.Context, p *model.Payment) error
	UpdateStatusByTransactionID(ctx context.Context, txID string, status model.PaymentStatus, reason string) (model.Payment, error)
	Delete(ctx context.Context, id uint64) (model.Payment, error)
}
