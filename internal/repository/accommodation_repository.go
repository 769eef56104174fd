package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/travelco/travel-planner/internal/model"
)

// AccommodationRepo persists accommodation bookings.
type AccommodationRepo struct{ db *sql.DB }

func NewAccommodationRepo(db *sql.DB) *AccommodationRepo { return &AccommodationRepo{db: db} }

const accommodationSelect = `SELECT b.id, b.trip_id, b.customer_id, b.hotel_name, b.location, b.room_type,
       b.check_in_date, b.check_out_date, b.nights, b.price_per_night, b.total_price, b.amenities,
       b.star_rating, b.booked_rooms, b.booking_status, b.booking_reference, b.special_requests,
       b.created_at, b.updated_at, t.trip_name, c.name, c.email
  FROM accommodation_bookings b
  JOIN trips t ON t.id = b.trip_id
  JOIN customers c ON c.id = b.customer_id`

func scanAccommodation(row rowScanner) (model.AccommodationBooking, error) {
	var b model.AccommodationBooking
	var requests sql.NullString
	trip := &model.TripRef{}
	cust := &model.CustomerRef{}
	err := row.Scan(&b.ID, &b.TripID, &b.CustomerID, &b.HotelName, &b.Location, &b.RoomType,
		&b.CheckInDate, &b.CheckOutDate, &b.Nights, &b.PricePerNight, &b.TotalPrice, &b.Amenities,
		&b.StarRating, &b.BookedRooms, &b.BookingStatus, &b.BookingReference, &requests,
		&b.CreatedAt, &b.UpdatedAt, &trip.TripName, &cust.Name, &cust.Email)
	if err != nil {
		return b, err
	}
	b.SpecialRequests = requests.String
	if b.Amenities == nil {
		b.Amenities = model.StringList{}
	}
	trip.ID, cust.ID = b.TripID, b.CustomerID
	b.Trip, b.Customer = trip, cust
	return b, nil
}

func (r *AccommodationRepo) list(ctx context.Context, where string, args ...any) ([]model.AccommodationBooking, error) {
	rows, err := r.db.QueryContext(ctx, accommodationSelect+` WHERE `+where+` ORDER BY b.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.AccommodationBooking{}
	for rows.Next() {
		b, err := scanAccommodation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *AccommodationRepo) Create(ctx context.Context, b *model.AccommodationBooking) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accommodation_bookings (trip_id, customer_id, hotel_name, location, room_type,
		  check_in_date, check_out_date, nights, price_per_night, total_price, amenities, star_rating,
		  booked_rooms, booking_status, booking_reference, special_requests)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.TripID, b.CustomerID, b.HotelName, b.Location, b.RoomType,
		b.CheckInDate, b.CheckOutDate, b.Nights, b.PricePerNight, b.TotalPrice, b.Amenities, b.StarRating,
		b.BookedRooms, b.BookingStatus, b.BookingReference, b.SpecialRequests)
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

func (r *AccommodationRepo) GetByID(ctx context.Context, id uint64) (model.AccommodationBooking, error) {
	b, err := scanAccommodation(r.db.QueryRowContext(ctx, accommodationSelect+` WHERE b.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrAccommodationNotFound
	}
	return b, err
}

func (r *AccommodationRepo) ListByTrip(ctx context.Context, tripID uint64) ([]model.AccommodationBooking, error) {
	return r.list(ctx, `b.trip_id = ?`, tripID)
}

func (r *AccommodationRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]model.AccommodationBooking, error) {
	return r.list(ctx, `b.customer_id = ?`, customerID)
}

func (r *AccommodationRepo) Update(ctx context.Context, b *model.AccommodationBooking) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accommodation_bookings SET hotel_name=?, location=?, room_type=?, check_in_date=?,
		  check_out_date=?, nights=?, price_per_night=?, total_price=?, amenities=?, star_rating=?,
		  booked_rooms=?, booking_status=?, booking_reference=?, special_requests=?, updated_at=CURRENT_TIMESTAMP
		 WHERE id=?`,
		b.HotelName, b.Location, b.RoomType, b.CheckInDate,
		b.CheckOutDate, b.Nights, b.PricePerNight, b.TotalPrice, b.Amenities, b.StarRating,
		b.BookedRooms, b.BookingStatus, b.BookingReference, b.SpecialRequests, b.ID)
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

// Delete returns the removed booking and clears session references to it,
// stepping open sessions back as ReleaseAccommodation does.
func (r *AccommodationRepo) Delete(ctx context.Context, id uint64) (b model.AccommodationBooking, err error) {
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
		`UPDATE booking_sessions SET accommodation_booking_id = NULL,
		   state = CASE WHEN state IN (?, ?, ?) THEN state ELSE ? END, updated_at = CURRENT_TIMESTAMP
		 WHERE accommodation_booking_id = ?`,
		model.StateConfirmed, model.StateAbandoned, model.StateSelectingTransport, model.StateSelectingAccommodation, id); err != nil {
		return b, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM accommodation_bookings WHERE id = ?`, id); err != nil {
		return b, err
	}
	return b, nil
}
