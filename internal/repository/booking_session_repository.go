package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/travelco/travel-planner/internal/domain"
	"github.com/travelco/travel-planner/internal/model"
)

// BookingSessionRepo persists booking sessions and runs the multi-table
// transactions that confirm or abandon them.
type BookingSessionRepo struct{ db *sql.DB }

func NewBookingSessionRepo(db *sql.DB) *BookingSessionRepo { return &BookingSessionRepo{db: db} }

const sessionCols = `id, trip_id, customer_id, state, transport_booking_id, accommodation_booking_id, payment_id, created_at, updated_at`

func scanSession(row rowScanner) (model.BookingSession, error) {
	var s model.BookingSession
	var transport, stay, payment sql.NullInt64
	err := row.Scan(&s.ID, &s.TripID, &s.CustomerID, &s.State, &transport, &stay, &payment, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return s, err
	}
	s.TransportBookingID = idPtr(transport)
	s.AccommodationBookingID = idPtr(stay)
	s.PaymentID = idPtr(payment)
	return s, nil
}

func idPtr(v sql.NullInt64) *uint64 {
	if !v.Valid {
		return nil
	}
	id := uint64(v.Int64)
	return &id
}

func nullID(id *uint64) any {
	if id == nil {
		return nil
	}
	return *id
}

func (r *BookingSessionRepo) Create(ctx context.Context, s *model.BookingSession) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO booking_sessions (trip_id, customer_id, state) VALUES (?,?,?)`,
		s.TripID, s.CustomerID, s.State)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*s = created
	return nil
}

func (r *BookingSessionRepo) GetByID(ctx context.Context, id uint64) (model.BookingSession, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, `SELECT `+sessionCols+` FROM booking_sessions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrSessionNotFound
	}
	return s, err
}

// Update saves the state and the chosen bookings.
func (r *BookingSessionRepo) Update(ctx context.Context, s *model.BookingSession) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE booking_sessions SET state=?, transport_booking_id=?, accommodation_booking_id=?, payment_id=?,
		  updated_at=CURRENT_TIMESTAMP WHERE id=?`,
		s.State, nullID(s.TransportBookingID), nullID(s.AccommodationBookingID), nullID(s.PaymentID), s.ID)
	if err != nil {
		return err
	}
	updated, err := r.GetByID(ctx, s.ID)
	if err != nil {
		return err
	}
	*s = updated
	return nil
}

// lockState re-reads the session state under a row lock so two concurrent
// confirm/abandon calls cannot both proceed.
func lockState(ctx context.Context, tx *sql.Tx, id uint64) (model.SessionState, error) {
	var state model.SessionState
	err := tx.QueryRowContext(ctx, `SELECT state FROM booking_sessions WHERE id = ? FOR UPDATE`, id).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return state, ErrSessionNotFound
	}
	return state, err
}

// lockChoices locks the trip and both chosen bookings for the rest of the
// transaction. A trip that left Planning or a booking cancelled after the
// review stops the confirmation.
func lockChoices(ctx context.Context, tx *sql.Tx, s *model.BookingSession) error {
	var trip model.TripStatus
	err := tx.QueryRowContext(ctx, `SELECT status FROM trips WHERE id = ? FOR UPDATE`, s.TripID).Scan(&trip)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTripNotFound
	}
	if err != nil {
		return err
	}
	if trip != model.TripPlanning {
		return domain.Invalid("tripId", fmt.Sprintf("trip must be in Planning (is %s)", trip))
	}

	for _, b := range []struct {
		table, field string
		id           uint64
		missing      error
	}{
		{"transport_bookings", "transportBookingId", *s.TransportBookingID, ErrTransportNotFound},
		{"accommodation_bookings", "accommodationBookingId", *s.AccommodationBookingID, ErrAccommodationNotFound},
	} {
		var status model.BookingStatus
		err := tx.QueryRowContext(ctx,
			`SELECT booking_status FROM `+b.table+` WHERE id = ? AND trip_id = ? FOR UPDATE`, b.id, s.TripID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return b.missing
		}
		if err != nil {
			return err
		}
		if status == model.BookingCancelled {
			return domain.Invalid(b.field, "is cancelled")
		}
	}
	return nil
}

// Finalize confirms a session in one transaction: it inserts the payment,
// confirms the chosen bookings, cancels the trip's other pending bookings,
// marks the trip Booked/Paid and the session Confirmed. On success p and s
// hold the stored rows.
func (r *BookingSessionRepo) Finalize(ctx context.Context, s *model.BookingSession, p *model.Payment) (err error) {
	if s.TransportBookingID == nil || s.AccommodationBookingID == nil {
		return domain.Invalid("state", "transport and accommodation must be selected")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	state, err := lockState(ctx, tx, s.ID)
	if err != nil {
		return err
	}
	if state != model.StatePaying {
		err = domain.Invalid("state", fmt.Sprintf("cannot confirm while session is %s", state))
		return err
	}
	if err = lockChoices(ctx, tx, s); err != nil {
		return err
	}

	p.StampPaidAt(time.Now())
	paymentID, err := insertPayment(ctx, tx, p)
	if err != nil {
		return err
	}
	transportID, stayID := *s.TransportBookingID, *s.AccommodationBookingID

	steps := []stmt{
		{`UPDATE payments SET receipt_url = ? WHERE id = ?`, []any{model.ReceiptPath(paymentID), paymentID}},
		{`UPDATE transport_bookings SET booking_status = 'Confirmed', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, []any{transportID}},
		{`UPDATE accommodation_bookings SET booking_status = 'Confirmed', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, []any{stayID}},
		{`UPDATE transport_bookings SET booking_status = 'Cancelled', updated_at = CURRENT_TIMESTAMP
		   WHERE trip_id = ? AND booking_status = 'Pending' AND id <> ?`, []any{s.TripID, transportID}},
		{`UPDATE accommodation_bookings SET booking_status = 'Cancelled', updated_at = CURRENT_TIMESTAMP
		   WHERE trip_id = ? AND booking_status = 'Pending' AND id <> ?`, []any{s.TripID, stayID}},
		{`UPDATE trips SET status = 'Booked', payment_status = 'Paid', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, []any{s.TripID}},
		{`UPDATE booking_sessions SET state = 'Confirmed', payment_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, []any{paymentID, s.ID}},
	}
	if err = execAll(ctx, tx, steps); err != nil {
		return err
	}

	if *s, err = scanSession(tx.QueryRowContext(ctx, `SELECT `+sessionCols+` FROM booking_sessions WHERE id = ?`, s.ID)); err != nil {
		return err
	}
	if *p, err = scanPayment(tx.QueryRowContext(ctx, paymentSelect+` WHERE p.id = ?`, paymentID)); err != nil {
		return err
	}
	return nil
}

// Abandon cancels the bookings attached to the session and marks it
// Abandoned, all in one transaction.
func (r *BookingSessionRepo) Abandon(ctx context.Context, s *model.BookingSession) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	state, err := lockState(ctx, tx, s.ID)
	if err != nil {
		return err
	}
	if state.IsTerminal() {
		err = domain.Invalid("state", fmt.Sprintf("cannot abandon while session is %s", state))
		return err
	}
	if s.TransportBookingID != nil {
		if _, err = tx.ExecContext(ctx,
			`UPDATE transport_bookings SET booking_status = 'Cancelled', updated_at = CURRENT_TIMESTAMP
			  WHERE id = ? AND booking_status = 'Pending'`, *s.TransportBookingID); err != nil {
			return err
		}
	}
	if s.AccommodationBookingID != nil {
		if _, err = tx.ExecContext(ctx,
			`UPDATE accommodation_bookings SET booking_status = 'Cancelled', updated_at = CURRENT_TIMESTAMP
			  WHERE id = ? AND booking_status = 'Pending'`, *s.AccommodationBookingID); err != nil {
			return err
		}
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE booking_sessions SET state = 'Abandoned', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, s.ID); err != nil {
		return err
	}
	s.State = model.StateAbandoned
	return nil
}
