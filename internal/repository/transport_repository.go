package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/travelco/travel-planner/internal/model"
)

// TransportRepo persists transport bookings.
type TransportRepo struct{ db *sql.DB }

func NewTransportRepo(db *sql.DB) *TransportRepo { return &TransportRepo{db: db} }

const transportSelect = `SELECT b.id, b.trip_id, b.customer_id, b.transport_type, b.transport_name, b.vendor,
       b.from_location, b.to_location, b.departure_time, b.arrival_time, b.duration, b.seats, b.price,
       b.safety_score, b.amenities, b.booking_status, b.booking_reference, b.notes, b.created_at, b.updated_at,
       t.trip_name, c.name, c.email
  FROM transport_bookings b
  JOIN trips t ON t.id = b.trip_id
  JOIN customers c ON c.id = b.customer_id`

func scanTransport(row rowScanner) (model.TransportBooking, error) {
	var b model.TransportBooking
	var dep, arr sql.NullTime
	var notes sql.NullString
	trip := &model.TripRef{}
	cust := &model.CustomerRef{}
	err := row.Scan(&b.ID, &b.TripID, &b.CustomerID, &b.TransportType, &b.TransportName, &b.Vendor,
		&b.FromLocation, &b.ToLocation, &dep, &arr, &b.Duration, &b.Seats, &b.Price,
		&b.SafetyScore, &b.Amenities, &b.BookingStatus, &b.BookingReference, &notes, &b.CreatedAt, &b.UpdatedAt,
		&trip.TripName, &cust.Name, &cust.Email)
	if err != nil {
		return b, err
	}
	b.DepartureTime = timePtr(dep)
	b.ArrivalTime = timePtr(arr)
	b.Notes = notes.String
	if b.Amenities == nil {
		b.Amenities = model.StringList{}
	}
	trip.ID, cust.ID = b.TripID, b.CustomerID
	b.Trip, b.Customer = trip, cust
	return b, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func (r *TransportRepo) list(ctx context.Context, where string, args ...any) ([]model.TransportBooking, error) {
	rows, err := r.db.QueryContext(ctx, transportSelect+` WHERE `+where+` ORDER BY b.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.TransportBooking{}
	for rows.Next() {
		b, err := scanTransport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *TransportRepo) Create(ctx context.Context, b *model.TransportBooking) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transport_bookings (trip_id, customer_id, transport_type, transport_name, vendor,
		  from_location, to_location, departure_time, arrival_time, duration, seats, price, safety_score,
		  amenities, booking_status, booking_reference, notes)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.TripID, b.CustomerID, b.TransportType, b.TransportName, b.Vendor,
		b.FromLocation, b.ToLocation, nullTime(b.DepartureTime), nullTime(b.ArrivalTime), b.Duration, b.Seats,
		b.Price, b.SafetyScore, b.Amenities, b.BookingStatus, b.BookingReference, b.Notes)
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
	*b = created
	return nil
}

func (r *TransportRepo) GetByID(ctx context.Context, id uint64) (model.TransportBooking, error) {
	b, err := scanTransport(r.db.QueryRowContext(ctx, transportSelect+` WHERE b.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrTransportNotFound
	}
	return b, err
}

func (r *TransportRepo) ListByTrip(ctx context.Context, tripID uint64) ([]model.TransportBooking, error) {
	return r.list(ctx, `b.trip_id = ?`, tripID)
}

func (r *TransportRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]model.TransportBooking, error) {
	return r.list(ctx, `b.customer_id = ?`, customerID)
}

func (r *TransportRepo) Update(ctx context.Context, b *model.TransportBooking) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transport_bookings SET transport_type=?, transport_name=?, vendor=?, from_location=?,
		  to_location=?, departure_time=?, arrival_time=?, duration=?, seats=?, price=?, safety_score=?,
		  amenities=?, booking_status=?, booking_reference=?, notes=?, updated_at=CURRENT_TIMESTAMP
		 WHERE id=?`,
		b.TransportType, b.TransportName, b.Vendor, b.FromLocation,
		b.ToLocation, nullTime(b.DepartureTime), nullTime(b.ArrivalTime), b.Duration, b.Seats, b.Price, b.SafetyScore,
		b.Amenities, b.BookingStatus, b.BookingReference, b.Notes, b.ID)
	if err != nil {
		return err
	}
	updated, err := r.GetByID(ctx, b.ID)
	if err != nil {
		return err
	}
	*b = updated
	return nil
}

// Delete returns the removed booking. Open sessions that had chosen it go
// back to SelectingTransport in the same transaction; ReleaseTransport on
// the model is the in-memory twin of that update.
func (r *TransportRepo) Delete(ctx context.Context, id uint64) (b model.TransportBooking, err error) {
	b, err = r.GetByID(ctx, id)
	if err != nil {
		return b, err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return b, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	if _, err = tx.ExecContext(ctx,
		`UPDATE booking_sessions SET transport_booking_id = NULL,
		   state = CASE WHEN state IN (?, ?) THEN state ELSE ? END, updated_at = CURRENT_TIMESTAMP
		 WHERE transport_booking_id = ?`,
		model.StateConfirmed, model.StateAbandoned, model.StateSelectingTransport, id); err != nil {
		return b, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM transport_bookings WHERE id = ?`, id); err != nil {
		return b, err
	}
	return b, nil
}
