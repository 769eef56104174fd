package handler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/travelco/travel-planner/internal/domain"
	"github.com/travelco/travel-planner/internal/model"
	"github.com/travelco/travel-planner/internal/queue"
	"github.com/travelco/travel-planner/internal/repository"
)

// memDB is an in-memory stand-in for the MySQL repositories.
type memDB struct {
	mu         sync.Mutex
	next       uint64
	customers  map[uint64]model.Customer
	creds      map[uint64]model.Credential
	trips      map[uint64]model.Trip
	transports map[uint64]model.TransportBooking
	stays      map[uint64]model.AccommodationBooking
	payments   map[uint64]model.Payment
	sessions   map[uint64]model.BookingSession
	published  []queue.BookingConfirmedEvent
}

func newMemDB() *memDB {
	return &memDB{
		customers:  map[uint64]model.Customer{},
		creds:      map[uint64]model.Credential{},
		trips:      map[uint64]model.Trip{},
		transports: map[uint64]model.TransportBooking{},
		stays:      map[uint64]model.AccommodationBooking{},
		payments:   map[uint64]model.Payment{},
		sessions:   map[uint64]model.BookingSession{},
	}
}

func (m *memDB) id() uint64 { m.next++; return m.next }

func (m *memDB) tripRef(id uint64) (*model.TripRef, *model.CustomerRef) {
	t := m.trips[id]
	return t.Ref(), m.customers[t.CustomerID].Ref()
}

type memCustomers struct{ *memDB }

func (m memCustomers) Create(_ context.Context, c *model.Customer, hash string) (model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.Normalize()
	for _, cr := range m.creds {
		if cr.Email == c.Email {
			return model.Credential{}, repository.ErrEmailExists
		}
	}
	now := time.Now().UTC()
	c.ID, c.CreatedAt, c.UpdatedAt = m.id(), now, now
	m.customers[c.ID] = *c
	cred := model.Credential{ID: m.id(), CustomerID: c.ID, Email: c.Email, PasswordHash: hash}
	m.creds[cred.ID] = cred
	return cred, nil
}

func (m memCustomers) GetByID(_ context.Context, id uint64) (model.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[id]
	if !ok {
		return c, repository.ErrCustomerNotFound
	}
	return c, nil
}

func (m memCustomers) Update(_ context.Context, c *model.Customer, hash *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.Normalize()
	m.customers[c.ID] = *c
	for id, cr := range m.creds {
		if cr.CustomerID == c.ID {
			cr.Email = c.Email
			if hash != nil {
				cr.PasswordHash = *hash
			}
			m.creds[id] = cr
		}
	}
	return nil
}

func (m memCustomers) Delete(_ context.Context, id uint64) (model.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[id]
	if !ok {
		return c, repository.ErrCustomerNotFound
	}
	for _, t := range m.trips {
		if t.CustomerID == id {
			return c, repository.ErrCustomerHasTrips
		}
	}
	delete(m.customers, id)
	return c, nil
}

type memCreds struct{ *memDB }

func (m memCreds) GetByEmail(_ context.Context, email string) (model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cr := range m.creds {
		if cr.Email == strings.ToLower(email) {
			return cr, nil
		}
	}
	return model.Credential{}, repository.ErrCredentialNotFound
}

func (m memCreds) GetByID(_ context.Context, id uint64) (model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cr, ok := m.creds[id]
	if !ok {
		return cr, repository.ErrCredentialNotFound
	}
	return cr, nil
}

func (m memCreds) TouchLastLogin(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cr := m.creds[id]
	now := time.Now().UTC()
	cr.LastLoginAt = &now
	m.creds[id] = cr
	return nil
}

type memTrips struct{ *memDB }

func (m memTrips) Create(_ context.Context, t *model.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.id()
	t.Customer = m.customers[t.CustomerID].Ref()
	m.trips[t.ID] = *t
	return nil
}

func (m memTrips) GetByID(_ context.Context, id uint64) (model.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return t, repository.ErrTripNotFound
	}
	t.Customer = m.customers[t.CustomerID].Ref()
	return t, nil
}

func (m memTrips) ListByCustomer(_ context.Context, customerID uint64) ([]model.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Trip
	for _, t := range m.trips {
		if t.CustomerID == customerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m memTrips) Update(_ context.Context, t *model.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[t.ID] = *t
	return nil
}

func (m memTrips) Delete(_ context.Context, id uint64) (model.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return t, repository.ErrTripNotFound
	}
	for k, b := range m.transports {
		if b.TripID == id {
			delete(m.transports, k)
		}
	}
	for k, b := range m.stays {
		if b.TripID == id {
			delete(m.stays, k)
		}
	}
	for k, p := range m.payments {
		if p.TripID == id {
			delete(m.payments, k)
		}
	}
	for k, s := range m.sessions {
		if s.TripID == id {
			delete(m.sessions, k)
		}
	}
	delete(m.trips, id)
	return t, nil
}

type memTransports struct{ *memDB }

func (m memTransports) Create(_ context.Context, b *model.TransportBooking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.id()
	b.Trip, b.Customer = m.tripRef(b.TripID)
	m.transports[b.ID] = *b
	return nil
}

func (m memTransports) GetByID(_ context.Context, id uint64) (model.TransportBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.transports[id]
	if !ok {
		return b, repository.ErrTransportNotFound
	}
	return b, nil
}

func (m memTransports) ListByTrip(_ context.Context, tripID uint64) ([]model.TransportBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.TransportBooking
	for _, b := range m.transports {
		if b.TripID == tripID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m memTransports) ListByCustomer(_ context.Context, customerID uint64) ([]model.TransportBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.TransportBooking
	for _, b := range m.transports {
		if b.CustomerID == customerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m memTransports) Update(_ context.Context, b *model.TransportBooking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transports[b.ID] = *b
	return nil
}

func (m memTransports) Delete(_ context.Context, id uint64) (model.TransportBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.transports[id]
	if !ok {
		return b, repository.ErrTransportNotFound
	}
	delete(m.transports, id)
	for k, sess := range m.sessions {
		if sess.TransportBookingID != nil && *sess.TransportBookingID == id {
			sess.ReleaseTransport()
			m.sessions[k] = sess
		}
	}
	return b, nil
}

type memStays struct{ *memDB }

func (m memStays) Create(_ context.Context, b *model.AccommodationBooking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.id()
	b.Trip, b.Customer = m.tripRef(b.TripID)
	m.stays[b.ID] = *b
	return nil
}

func (m memStays) GetByID(_ context.Context, id uint64) (model.AccommodationBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.stays[id]
	if !ok {
		return b, repository.ErrAccommodationNotFound
	}
	return b, nil
}

func (m memStays) ListByTrip(_ context.Context, tripID uint64) ([]model.AccommodationBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AccommodationBooking
	for _, b := range m.stays {
		if b.TripID == tripID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m memStays) ListByCustomer(_ context.Context, customerID uint64) ([]model.AccommodationBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AccommodationBooking
	for _, b := range m.stays {
		if b.CustomerID == customerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m memStays) Update(_ context.Context, b *model.AccommodationBooking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stays[b.ID] = *b
	return nil
}

func (m memStays) Delete(_ context.Context, id uint64) (model.AccommodationBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.stays[id]
	if !ok {
		return b, repository.ErrAccommodationNotFound
	}
	delete(m.stays, id)
	for k, sess := range m.sessions {
		if sess.AccommodationBookingID != nil && *sess.AccommodationBookingID == id {
			sess.ReleaseAccommodation()
			m.sessions[k] = sess
		}
	}
	return b, nil
}

type memPayments struct{ *memDB }

// insert expects the lock to be held.
func (m memPayments) insert(p *model.Payment) error {
	if p.TransactionID != nil {
		for _, q := range m.payments {
			if q.TransactionID != nil && *q.TransactionID == *p.TransactionID {
				return repository.ErrTransactionExists
			}
		}
	}
	p.StampPaidAt(time.Now())
	p.ID = m.id()
	p.Trip, p.Customer = m.tripRef(p.TripID)
	m.payments[p.ID] = *p
	return nil
}

func (m memPayments) Create(_ context.Context, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insert(p)
}

func (m memPayments) GetByID(_ context.Context, id uint64) (model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return p, repository.ErrPaymentNotFound
	}
	return p, nil
}

func (m memPayments) GetByTransactionID(_ context.Context, txID string) (model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.TransactionID != nil && *p.TransactionID == txID {
			return p, nil
		}
	}
	return model.Payment{}, repository.ErrPaymentNotFound
}

func (m memPayments) ListByTrip(_ context.Context, tripID uint64) ([]model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Payment
	for _, p := range m.payments {
		if p.TripID == tripID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m memPayments) ListByCustomer(_ context.Context, customerID uint64) ([]model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Payment
	for _, p := range m.payments {
		if p.CustomerID == customerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m memPayments) Update(_ context.Context, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.StampPaidAt(time.Now())
	m.payments[p.ID] = *p
	return nil
}

func (m memPayments) UpdateStatusByTransactionID(_ context.Context, txID string, status model.PaymentStatus, reason string) (model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.payments {
		if p.TransactionID != nil && *p.TransactionID == txID {
			if !p.Status.CanTransitionTo(status) {
				return p, repository.ErrPaymentTransition
			}
			refund := status == model.PaymentRefunded && p.Status != model.PaymentRefunded
			p.Status, p.FailureReason = status, reason
			p.StampPaidAt(time.Now())
			m.payments[id] = p
			if refund {
				m.refundTrip(p.TripID)
			}
			return p, nil
		}
	}
	return model.Payment{}, repository.ErrPaymentNotFound
}

// refundTrip mirrors the cascade the MySQL repository runs on a refund.
func (m memPayments) refundTrip(tripID uint64) {
	t := m.trips[tripID]
	t.PaymentStatus = model.TripPaymentCancelled
	if t.Status == model.TripPlanning || t.Status == model.TripBooked {
		t.Status = model.TripCancelled
	}
	m.trips[tripID] = t
	for id, b := range m.transports {
		if b.TripID == tripID && b.BookingStatus == model.BookingConfirmed {
			b.BookingStatus = model.BookingCancelled
			m.transports[id] = b
		}
	}
	for id, b := range m.stays {
		if b.TripID == tripID && b.BookingStatus == model.BookingConfirmed {
			b.BookingStatus = model.BookingCancelled
			m.stays[id] = b
		}
	}
}

func (m memPayments) Delete(_ context.Context, id uint64) (model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return p, repository.ErrPaymentNotFound
	}
	delete(m.payments, id)
	return p, nil
}

type memSessions struct{ *memDB }

func (m memSessions) Create(_ context.Context, s *model.BookingSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = m.id()
	m.sessions[s.ID] = *s
	return nil
}

func (m memSessions) GetByID(_ context.Context, id uint64) (model.BookingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return s, repository.ErrSessionNotFound
	}
	return s, nil
}

func (m memSessions) Update(_ context.Context, s *model.BookingSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m memSessions) Finalize(_ context.Context, s *model.BookingSession, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[s.ID].State != model.StatePaying {
		return domain.Invalid("state", "cannot confirm while session is "+string(m.sessions[s.ID].State))
	}
	if t := m.trips[s.TripID]; t.Status != model.TripPlanning {
		return domain.Invalid("tripId", fmt.Sprintf("trip must be in Planning (is %s)", t.Status))
	}
	if m.transports[*s.TransportBookingID].BookingStatus == model.BookingCancelled {
		return domain.Invalid("transportBookingId", "is cancelled")
	}
	if m.stays[*s.AccommodationBookingID].BookingStatus == model.BookingCancelled {
		return domain.Invalid("accommodationBookingId", "is cancelled")
	}
	if err := (memPayments{m.memDB}).insert(p); err != nil {
		return err
	}
	p.ReceiptURL = model.ReceiptPath(p.ID)
	m.payments[p.ID] = *p

	tb := m.transports[*s.TransportBookingID]
	tb.BookingStatus = model.BookingConfirmed
	m.transports[tb.ID] = tb
	ab := m.stays[*s.AccommodationBookingID]
	ab.BookingStatus = model.BookingConfirmed
	m.stays[ab.ID] = ab
	for id, b := range m.transports {
		if b.TripID == s.TripID && b.BookingStatus == model.BookingPending {
			b.BookingStatus = model.BookingCancelled
			m.transports[id] = b
		}
	}
	for id, b := range m.stays {
		if b.TripID == s.TripID && b.BookingStatus == model.BookingPending {
			b.BookingStatus = model.BookingCancelled
			m.stays[id] = b
		}
	}
	t := m.trips[s.TripID]
	t.Status, t.PaymentStatus = model.TripBooked, model.TripPaymentPaid
	m.trips[t.ID] = t

	if err := s.Confirm(p.ID); err != nil {
		return err
	}
	m.sessions[s.ID] = *s
	return nil
}

func (m memSessions) Abandon(_ context.Context, s *model.BookingSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := s.Abandon(); err != nil {
		return err
	}
	if s.TransportBookingID != nil {
		b := m.transports[*s.TransportBookingID]
		b.BookingStatus = model.BookingCancelled
		m.transports[b.ID] = b
	}
	if s.AccommodationBookingID != nil {
		b := m.stays[*s.AccommodationBookingID]
		b.BookingStatus = model.BookingCancelled
		m.stays[b.ID] = b
	}
	m.sessions[s.ID] = *s
	return nil
}

type memPublisher struct{ *memDB }

func (m memPublisher) PublishBookingConfirmed(_ context.Context, ev queue.BookingConfirmedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, ev)
	return nil
}

type fakeVerifier struct{ ok bool }

func (f fakeVerifier) VerifyWebhook([]byte, string) bool { return f.ok }
