package client

import (
	"context"
	"errors"
	"sync"

	"github.com/travelco/travel-planner/internal/model"
)

// ErrNoSession is returned by flow steps called before Start or Resume.
var ErrNoSession = errors.New("booking flow has no session")

// BookingFlow walks a server-tracked booking session step by step. Local
// state only ever changes to what the server returned, so a flow rebuilt
// with Resume picks up exactly where the previous one stopped.
type BookingFlow struct {
	api *Client

	mu      sync.RWMutex
	session *model.BookingSession
	summary *model.Summary
	payment *model.Payment
}

func NewBookingFlow(api *Client) *BookingFlow { return &BookingFlow{api: api} }

func (f *BookingFlow) Session() (model.BookingSession, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.session == nil {
		return model.BookingSession{}, false
	}
	return *f.session, true
}

func (f *BookingFlow) State() model.SessionState {
	s, ok := f.Session()
	if !ok {
		return model.StatePlanningTrip
	}
	return s.State
}

// Summary is set once the session has been reviewed.
func (f *BookingFlow) Summary() *model.Summary {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.summary
}

// Payment is set once the session is confirmed.
func (f *BookingFlow) Payment() *model.Payment {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.payment
}

func (f *BookingFlow) id() (uint64, error) {
	s, ok := f.Session()
	if !ok {
		return 0, ErrNoSession
	}
	return s.ID, nil
}

func (f *BookingFlow) set(s model.BookingSession) {
	f.mu.Lock()
	f.session = &s
	f.mu.Unlock()
}

func (f *BookingFlow) Start(ctx context.Context, tripID uint64) (model.BookingSession, error) {
	s, err := f.api.StartSession(ctx, tripID)
	if err != nil {
		return s, err
	}
	f.mu.Lock()
	f.session, f.summary, f.payment = &s, nil, nil
	f.mu.Unlock()
	return s, nil
}

// Resume reloads a session by id. A session already in Paying is reviewed
// again so the summary is available without re-choosing; a confirmed one
// reloads its payment.
func (f *BookingFlow) Resume(ctx context.Context, sessionID uint64) (model.BookingSession, error) {
	s, err := f.api.GetSession(ctx, sessionID)
	if err != nil {
		return s, err
	}
	f.mu.Lock()
	f.session, f.summary, f.payment = &s, nil, nil
	f.mu.Unlock()

	switch s.State {
	case model.StatePaying:
		rev, err := f.api.ReviewSession(ctx, s.ID)
		if err != nil {
			return s, err
		}
		f.mu.Lock()
		f.session, f.summary = &rev.Session, &rev.Summary
		f.mu.Unlock()
		return rev.Session, nil
	case model.StateConfirmed:
		if s.PaymentID != nil {
			p, err := f.api.GetPayment(ctx, *s.PaymentID)
			if err != nil {
				return s, err
			}
			f.mu.Lock()
			f.payment = &p
			f.mu.Unlock()
		}
	}
	return s, nil
}

func (f *BookingFlow) ChooseTransport(ctx context.Context, bookingID uint64) (model.BookingSession, error) {
	id, err := f.id()
	if err != nil {
		return model.BookingSession{}, err
	}
	s, err := f.api.ChooseTransport(ctx, id, bookingID)
	if err != nil {
		return s, err
	}
	f.set(s)
	return s, nil
}

func (f *BookingFlow) ChooseAccommodation(ctx context.Context, bookingID uint64) (model.BookingSession, error) {
	id, err := f.id()
	if err != nil {
		return model.BookingSession{}, err
	}
	s, err := f.api.ChooseAccommodation(ctx, id, bookingID)
	if err != nil {
		return s, err
	}
	f.set(s)
	return s, nil
}

func (f *BookingFlow) Review(ctx context.Context) (Review, error) {
	id, err := f.id()
	if err != nil {
		return Review{}, err
	}
	rev, err := f.api.ReviewSession(ctx, id)
	if err != nil {
		return rev, err
	}
	f.mu.Lock()
	f.session, f.summary = &rev.Session, &rev.Summary
	f.mu.Unlock()
	return rev, nil
}

func (f *BookingFlow) Confirm(ctx context.Context, req ConfirmRequest) (Confirmation, error) {
	id, err := f.id()
	if err != nil {
		return Confirmation{}, err
	}
	conf, err := f.api.ConfirmSession(ctx, id, req)
	if err != nil {
		return conf, err
	}
	f.mu.Lock()
	f.session, f.payment = &conf.Session, &conf.Payment
	f.mu.Unlock()
	return conf, nil
}

func (f *BookingFlow) Abandon(ctx context.Context) (model.BookingSession, error) {
	id, err := f.id()
	if err != nil {
		return model.BookingSession{}, err
	}
	s, err := f.api.AbandonSession(ctx, id)
	if err != nil {
		return s, err
	}
	f.set(s)
	return s, nil
}
