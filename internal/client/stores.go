package client

import (
	"context"
	"sync"

	"github.com/travelco/travel-planner/internal/model"
)

// status is the loading/error half every store shares. Err keeps the last
// failure until ClearError.
type status struct {
	mu      sync.RWMutex
	loading bool
	err     error
}

func (s *status) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *status) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *status) ClearError() {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()
}

// track runs one API call with the loading flag raised. On success apply
// runs under the store lock so readers never see a half-applied result.
func track[T any](s *status, call func() (T, error), apply func(T)) (T, error) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	v, err := call()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = err
		return v, err
	}
	if apply != nil {
		apply(v)
	}
	return v, nil
}

func upsert[T any](items []T, v T, id func(T) uint64) []T {
	for i := range items {
		if id(items[i]) == id(v) {
			items[i] = v
			return items
		}
	}
	return append(items, v)
}

func remove[T any](items []T, target uint64, id func(T) uint64) []T {
	out := items[:0]
	for _, it := range items {
		if id(it) != target {
			out = append(out, it)
		}
	}
	return out
}

// AuthStore holds the signed-in user. Signing in stores the token on the
// client; Logout clears it whether or not the server call succeeds.
type AuthStore struct {
	status
	api  *Client
	user *AuthUser
}

func (s *AuthStore) Data() *AuthUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *AuthStore) IsAuthenticated() bool { return s.api.Token() != "" }

func (s *AuthStore) signedIn(res AuthResult) {
	u := res.User
	s.user = &u
	s.api.SetToken(res.Token)
}

func (s *AuthStore) Signup(ctx context.Context, req SignupRequest) (AuthResult, error) {
	return track(&s.status, func() (AuthResult, error) { return s.api.Signup(ctx, req) }, s.signedIn)
}

func (s *AuthStore) Login(ctx context.Context, email, password string) (AuthResult, error) {
	return track(&s.status, func() (AuthResult, error) { return s.api.Login(ctx, email, password) }, s.signedIn)
}

func (s *AuthStore) Me(ctx context.Context) (AuthUser, error) {
	return track(&s.status, func() (AuthUser, error) { return s.api.Me(ctx) }, func(u AuthUser) { s.user = &u })
}

func (s *AuthStore) Logout(ctx context.Context) error {
	_, err := track(&s.status, func() (struct{}, error) { return struct{}{}, s.api.Logout(ctx) }, nil)
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	s.api.SetToken("")
	return err
}

func tripID(t model.Trip) uint64 { return t.ID }

// TripStore mirrors the caller's trips.
type TripStore struct {
	status
	api   *Client
	trips []model.Trip
}

func (s *TripStore) Data() []model.Trip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Trip(nil), s.trips...)
}

func (s *TripStore) Fetch(ctx context.Context) ([]model.Trip, error) {
	return track(&s.status, func() ([]model.Trip, error) { return s.api.ListTrips(ctx) },
		func(v []model.Trip) { s.trips = v })
}

func (s *TripStore) FetchByCustomer(ctx context.Context, customerID uint64) ([]model.Trip, error) {
	return track(&s.status, func() ([]model.Trip, error) { return s.api.ListTripsByCustomer(ctx, customerID) },
		func(v []model.Trip) { s.trips = v })
}

func (s *TripStore) Get(ctx context.Context, id uint64) (model.Trip, error) {
	return track(&s.status, func() (model.Trip, error) { return s.api.GetTrip(ctx, id) },
		func(v model.Trip) { s.trips = upsert(s.trips, v, tripID) })
}

func (s *TripStore) Create(ctx context.Context, p Payload) (model.Trip, error) {
	return track(&s.status, func() (model.Trip, error) { return s.api.CreateTrip(ctx, p) },
		func(v model.Trip) { s.trips = upsert(s.trips, v, tripID) })
}

func (s *TripStore) Update(ctx context.Context, id uint64, p Payload) (model.Trip, error) {
	return track(&s.status, func() (model.Trip, error) { return s.api.UpdateTrip(ctx, id, p) },
		func(v model.Trip) { s.trips = upsert(s.trips, v, tripID) })
}

func (s *TripStore) Delete(ctx context.Context, id uint64) error {
	_, err := track(&s.status, func() (struct{}, error) { return struct{}{}, s.api.DeleteTrip(ctx, id) },
		func(struct{}) { s.trips = remove(s.trips, id, tripID) })
	return err
}

func transportID(b model.TransportBooking) uint64         { return b.ID }
func accommodationID(b model.AccommodationBooking) uint64 { return b.ID }

// BookingStore mirrors transport and accommodation bookings.
type BookingStore struct {
	status
	api        *Client
	transports []model.TransportBooking
	stays      []model.AccommodationBooking
}

func (s *BookingStore) Transports() []model.TransportBooking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.TransportBooking(nil), s.transports...)
}

func (s *BookingStore) Accommodations() []model.AccommodationBooking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.AccommodationBooking(nil), s.stays...)
}

func (s *BookingStore) FetchTransports(ctx context.Context, tripID uint64) ([]model.TransportBooking, error) {
	return track(&s.status, func() ([]model.TransportBooking, error) { return s.api.ListTransportBookings(ctx, tripID) },
		func(v []model.TransportBooking) { s.transports = v })
}

func (s *BookingStore) FetchAccommodations(ctx context.Context, tripID uint64) ([]model.AccommodationBooking, error) {
	return track(&s.status, func() ([]model.AccommodationBooking, error) { return s.api.ListAccommodationBookings(ctx, tripID) },
		func(v []model.AccommodationBooking) { s.stays = v })
}

func (s *BookingStore) CreateTransport(ctx context.Context, p Payload) (model.TransportBooking, error) {
	return track(&s.status, func() (model.TransportBooking, error) { return s.api.CreateTransportBooking(ctx, p) },
		func(v model.TransportBooking) { s.transports = upsert(s.transports, v, transportID) })
}

func (s *BookingStore) UpdateTransport(ctx context.Context, id uint64, p Payload) (model.TransportBooking, error) {
	return track(&s.status, func() (model.TransportBooking, error) { return s.api.UpdateTransportBooking(ctx, id, p) },
		func(v model.TransportBooking) { s.transports = upsert(s.transports, v, transportID) })
}

func (s *BookingStore) DeleteTransport(ctx context.Context, id uint64) error {
	_, err := track(&s.status, func() (struct{}, error) { return struct{}{}, s.api.DeleteTransportBooking(ctx, id) },
		func(struct{}) { s.transports = remove(s.transports, id, transportID) })
	return err
}

func (s *BookingStore) CreateAccommodation(ctx context.Context, p Payload) (model.AccommodationBooking, error) {
	return track(&s.status, func() (model.AccommodationBooking, error) { return s.api.CreateAccommodationBooking(ctx, p) },
		func(v model.AccommodationBooking) { s.stays = upsert(s.stays, v, accommodationID) })
}

func (s *BookingStore) UpdateAccommodation(ctx context.Context, id uint64, p Payload) (model.AccommodationBooking, error) {
	return track(&s.status, func() (model.AccommodationBooking, error) { return s.api.UpdateAccommodationBooking(ctx, id, p) },
		func(v model.AccommodationBooking) { s.stays = upsert(s.stays, v, accommodationID) })
}

func (s *BookingStore) DeleteAccommodation(ctx context.Context, id uint64) error {
	_, err := track(&s.status, func() (struct{}, error) { return struct{}{}, s.api.DeleteAccommodationBooking(ctx, id) },
		func(struct{}) { s.stays = remove(s.stays, id, accommodationID) })
	return err
}

func paymentID(p model.Payment) uint64 { return p.ID }

// PaymentStore mirrors the caller's payments.
type PaymentStore struct {
	status
	api      *Client
	payments []model.Payment
}

func (s *PaymentStore) Data() []model.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Payment(nil), s.payments...)
}

func (s *PaymentStore) Fetch(ctx context.Context) ([]model.Payment, error) {
	return track(&s.status, func() ([]model.Payment, error) { return s.api.ListPayments(ctx) },
		func(v []model.Payment) { s.payments = v })
}

func (s *PaymentStore) FetchForTrip(ctx context.Context, tripID uint64) ([]model.Payment, error) {
	return track(&s.status, func() ([]model.Payment, error) { return s.api.ListPaymentsByTrip(ctx, tripID) },
		func(v []model.Payment) { s.payments = v })
}

func (s *PaymentStore) Get(ctx context.Context, id uint64) (model.Payment, error) {
	return track(&s.status, func() (model.Payment, error) { return s.api.GetPayment(ctx, id) },
		func(v model.Payment) { s.payments = upsert(s.payments, v, paymentID) })
}

func (s *PaymentStore) GetByTransaction(ctx context.Context, txID string) (model.Payment, error) {
	return track(&s.status, func() (model.Payment, error) { return s.api.GetPaymentByTransaction(ctx, txID) },
		func(v model.Payment) { s.payments = upsert(s.payments, v, paymentID) })
}

func (s *PaymentStore) Create(ctx context.Context, p Payload) (model.Payment, error) {
	return track(&s.status, func() (model.Payment, error) { return s.api.CreatePayment(ctx, p) },
		func(v model.Payment) { s.payments = upsert(s.payments, v, paymentID) })
}

func (s *PaymentStore) Update(ctx context.Context, id uint64, p Payload) (model.Payment, error) {
	return track(&s.status, func() (model.Payment, error) { return s.api.UpdatePayment(ctx, id, p) },
		func(v model.Payment) { s.payments = upsert(s.payments, v, paymentID) })
}

func (s *PaymentStore) Delete(ctx context.Context, id uint64) error {
	_, err := track(&s.status, func() (struct{}, error) { return struct{}{}, s.api.DeletePayment(ctx, id) },
		func(struct{}) { s.payments = remove(s.payments, id, paymentID) })
	return err
}

// Session bundles one application session's client and stores. Create one
// per signed-in user; nothing is shared between sessions.
type Session struct {
	API      *Client
	Auth     *AuthStore
	Trips    *TripStore
	Bookings *BookingStore
	Payments *PaymentStore
}

func NewSession(api *Client) *Session {
	return &Session{
		API:      api,
		Auth:     &AuthStore{api: api},
		Trips:    &TripStore{api: api},
		Bookings: &BookingStore{api: api},
		Payments: &PaymentStore{api: api},
	}
}

// Flow starts a booking flow bound to this session's client.
func (s *Session) Flow() *BookingFlow { return NewBookingFlow(s.API) }
