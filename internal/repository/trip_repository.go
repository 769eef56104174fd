package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/travelco/travel-planner/internal/model"
)

// TripRepo provides CRUD for trips. Reads join the owning customer so the
// {id,name,email} projection is always populated.
type TripRepo struct{ db *sql.DB }

func NewTripRepo(db *sql.DB) *TripRepo { return &TripRepo{db: db} }

const tripSelect = `SELECT t.id, t.customer_id, t.trip_name, t.start_state, t.destination_district,
       t.start_date, t.end_date, t.max_daily_hours, t.rest_frequency, t.number_of_travelers,
       t.wheelchair_accessible, t.nearby_hospitals, t.nearby_pharmacies, t.total_budget,
       t.status, t.payment_status, t.description, t.itinerary, t.created_at, t.updated_at,
       c.name, c.email
  FROM trips t
  JOIN customers c ON c.id = t.customer_id`

func scanTrip(row rowScanner) (model.Trip, error) {
	var t model.Trip
	var desc sql.NullString
	ref := &model.CustomerRef{}
	err := row.Scan(&t.ID, &t.CustomerID, &t.TripName, &t.StartState, &t.DestinationDistrict,
		&t.StartDate, &t.EndDate, &t.MaxDailyHours, &t.RestFrequency, &t.NumberOfTravelers,
		&t.WheelchairAccessible, &t.NearbyHospitals, &t.NearbyPharmacies, &t.TotalBudget,
		&t.Status, &t.PaymentStatus, &desc, &t.Itinerary, &t.CreatedAt, &t.UpdatedAt,
		&ref.Name, &ref.Email)
	if err != nil {
		return t, err
	}
	t.Description = desc.String
	if t.Itinerary == nil {
		t.Itinerary = model.Itinerary{}
	}
	ref.ID = t.CustomerID
	t.Customer = ref
	return t, nil
}

func (r *TripRepo) list(ctx context.Context, where string, args ...any) ([]model.Trip, error) {
	rows, err := r.db.QueryContext(ctx, tripSelect+` WHERE `+where+` ORDER BY t.start_date DESC, t.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create inserts the trip and reloads it with timestamps and the customer
// projection.
func (r *TripRepo) Create(ctx context.Context, t *model.Trip) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO trips (customer_id, trip_name, start_state, destination_district, start_date, end_date,
		  max_daily_hours, rest_frequency, number_of_travelers, wheelchair_accessible, nearby_hospitals,
		  nearby_pharmacies, total_budget, status, payment_status, description, itinerary)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.CustomerID, t.TripName, t.StartState, t.DestinationDistrict, t.StartDate, t.EndDate,
		t.MaxDailyHours, t.RestFrequency, t.NumberOfTravelers, t.WheelchairAccessible, t.NearbyHospitals,
		t.NearbyPharmacies, t.TotalBudget, t.Status, t.PaymentStatus, t.Description, t.Itinerary)
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
	*t = created
	return nil
}

// GetByID returns ErrTripNotFound when no row matches.
func (r *TripRepo) GetByID(ctx context.Context, id uint64) (model.Trip, error) {
	t, err := scanTrip(r.db.QueryRowContext(ctx, tripSelect+` WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrTripNotFound
	}
	return t, err
}

// ListByCustomer returns the customer's trips, latest start date first.
func (r *TripRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]model.Trip, error) {
	return r.list(ctx, `t.customer_id = ?`, customerID)
}

// Update overwrites every mutable column and reloads the row.
func (r *TripRepo) Update(ctx context.Context, t *model.Trip) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE trips SET trip_name=?, start_state=?, destination_district=?, start_date=?, end_date=?,
		  max_daily_hours=?, rest_frequency=?, number_of_travelers=?, wheelchair_accessible=?,
		  nearby_hospitals=?, nearby_pharmacies=?, total_budget=?, status=?, payment_status=?,
		  description=?, itinerary=?, updated_at=CURRENT_TIMESTAMP
		 WHERE id=?`,
		t.TripName, t.StartState, t.DestinationDistrict, t.StartDate, t.EndDate,
		t.MaxDailyHours, t.RestFrequency, t.NumberOfTravelers, t.WheelchairAccessible,
		t.NearbyHospitals, t.NearbyPharmacies, t.TotalBudget, t.Status, t.PaymentStatus,
		t.Description, t.Itinerary, t.ID)
	if err != nil {
		return err
	}
	updated, err := r.GetByID(ctx, t.ID)
	if err != nil {
		return err
	}
	*t = updated
	return nil
}

// Delete removes the trip together with its bookings, payments and booking
// sessions in one transaction, returning the removed trip.
func (r *TripRepo) Delete(ctx context.Context, id uint64) (t model.Trip, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return t, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	t, err = scanTrip(tx.QueryRowContext(ctx, tripSelect+` WHERE t.id = ? FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrTripNotFound
		}
		return t, err
	}
	for _, q := range []string{
		`DELETE FROM booking_sessions WHERE trip_id = ?`,
		`DELETE FROM payments WHERE trip_id = ?`,
		`DELETE FROM transport_bookings WHERE trip_id = ?`,
		`DELETE FROM accommodation_bookings WHERE trip_id = ?`,
		`DELETE FROM trips WHERE id = ?`,
	} {
		if _, err = tx.ExecContext(ctx, q, id); err != nil {
			return t, err
		}
	}
	return t, nil
}
