package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelco/travel-planner/internal/domain"
	"github.com/travelco/travel-planner/internal/model"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func customerRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "phone", "age", "emergency_contact", "address",
		"profile_image", "is_verified", "created_at", "updated_at"})
}

func tripRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "customer_id", "trip_name", "start_state", "destination_district",
		"start_date", "end_date", "max_daily_hours", "rest_frequency", "number_of_travelers",
		"wheelchair_accessible", "nearby_hospitals", "nearby_pharmacies", "total_budget", "status",
		"payment_status", "description", "itinerary", "created_at", "updated_at", "name", "email"})
}

func addTrip(rows *sqlmock.Rows, id, customerID uint64) *sqlmock.Rows {
	return rows.AddRow(id, customerID, "Coast trip", "Goa", "North Goa",
		[]byte("2025-03-10"), []byte("2025-03-14"), 8, 2, 1, false, true, false, []byte("1500.00"),
		"Planning", "Pending", nil, []byte(`[{"day":1,"location":"Panaji","activities":["walk"]}]`),
		now, now, "Asha", "asha@example.com")
}

func paymentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "trip_id", "customer_id", "amount", "payment_method", "transaction_id",
		"status", "payment_gateway", "transport_cost", "accommodation_cost", "activity_cost", "tax", "discount",
		"paid_at", "failure_reason", "invoice_url", "receipt_url", "created_at", "updated_at",
		"trip_name", "name", "email"})
}

func sessionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "trip_id", "customer_id", "state", "transport_booking_id",
		"accommodation_booking_id", "payment_id", "created_at", "updated_at"})
}

func TestCustomerRepoCreate(t *testing.T) {
	t.Run("inserts customer and credential in one transaction", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO customers").
			WithArgs("Asha", "asha@example.com", "", nil, "", sqlmock.AnyArg(), "", false).
			WillReturnResult(sqlmock.NewResult(5, 1))
		mock.ExpectExec("INSERT INTO credentials").
			WithArgs(int64(5), "asha@example.com", "hash").
			WillReturnResult(sqlmock.NewResult(9, 1))
		mock.ExpectQuery("SELECT .* FROM customers WHERE id = ?").
			WithArgs(int64(5)).
			WillReturnRows(customerRows().AddRow(5, "Asha", "asha@example.com", "", nil, "",
				[]byte(`{"city":"Pune"}`), "", false, now, now))
		mock.ExpectCommit()

		c := &model.Customer{Name: "  Asha ", Email: "Asha@Example.com"}
		cred, err := NewCustomerRepo(db).Create(context.Background(), c, "hash")
		require.NoError(t, err)
		assert.Equal(t, uint64(5), c.ID)
		assert.Equal(t, "Pune", c.Address.City)
		assert.Equal(t, uint64(9), cred.ID)
		assert.Equal(t, uint64(5), cred.CustomerID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email rolls back", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO customers").
			WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'asha@example.com'"))
		mock.ExpectRollback()

		_, err := NewCustomerRepo(db).Create(context.Background(), &model.Customer{Name: "Asha", Email: "asha@example.com"}, "hash")
		assert.ErrorIs(t, err, ErrEmailExists)
		assert.True(t, domain.IsConflict(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCustomerRepoDelete(t *testing.T) {
	t.Run("rejected while trips exist", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT .* FROM customers WHERE id = \\? FOR UPDATE").WithArgs(uint64(5)).
			WillReturnRows(customerRows().AddRow(5, "Asha", "asha@example.com", "", 70, "", nil, "", false, now, now))
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM trips").WithArgs(uint64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(2))
		mock.ExpectRollback()

		_, err := NewCustomerRepo(db).Delete(context.Background(), 5)
		assert.ErrorIs(t, err, ErrCustomerHasTrips)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("removes credential and customer", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT .* FROM customers WHERE id = \\? FOR UPDATE").WithArgs(uint64(5)).
			WillReturnRows(customerRows().AddRow(5, "Asha", "asha@example.com", "", 70, "", nil, "", false, now, now))
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM trips").WithArgs(uint64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
		mock.ExpectExec("DELETE FROM credentials").WithArgs(uint64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM customers").WithArgs(uint64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		c, err := NewCustomerRepo(db).Delete(context.Background(), 5)
		require.NoError(t, err)
		require.NotNil(t, c.Age)
		assert.Equal(t, 70, *c.Age)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCredentialRepoGetByEmail(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT .* FROM credentials WHERE email = ?").
		WithArgs("asha@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := NewCredentialRepo(db).GetByEmail(context.Background(), " ASHA@example.com ")
	assert.ErrorIs(t, err, ErrCredentialNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTripRepoGetByID(t *testing.T) {
	t.Run("found with customer projection", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery("FROM trips t\\s+JOIN customers c").WithArgs(uint64(3)).
			WillReturnRows(addTrip(tripRows(), 3, 5))

		trip, err := NewTripRepo(db).GetByID(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, "2025-03-10", trip.StartDate.String())
		assert.Equal(t, 1500.0, trip.TotalBudget)
		assert.Equal(t, model.TripPlanning, trip.Status)
		require.Len(t, trip.Itinerary, 1)
		assert.Equal(t, "Panaji", trip.Itinerary[0].Location)
		require.NotNil(t, trip.Customer)
		assert.Equal(t, uint64(5), trip.Customer.ID)
		assert.Equal(t, "Asha", trip.Customer.Name)
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery("FROM trips t").WithArgs(uint64(3)).WillReturnError(sql.ErrNoRows)

		_, err := NewTripRepo(db).GetByID(context.Background(), 3)
		assert.ErrorIs(t, err, ErrTripNotFound)
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestTripRepoDeleteCascades(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM trips t.*FOR UPDATE").WithArgs(uint64(3)).WillReturnRows(addTrip(tripRows(), 3, 5))
	for _, table := range []string{"booking_sessions", "payments", "transport_bookings", "accommodation_bookings"} {
		mock.ExpectExec("DELETE FROM " + table + " WHERE trip_id = ?").WithArgs(uint64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec("DELETE FROM trips WHERE id = ?").WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	trip, err := NewTripRepo(db).Delete(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), trip.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTripRepoDeleteRollsBackOnFailure(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM trips t.*FOR UPDATE").WithArgs(uint64(3)).WillReturnRows(addTrip(tripRows(), 3, 5))
	mock.ExpectExec("DELETE FROM booking_sessions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM payments").WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	_, err := NewTripRepo(db).Delete(context.Background(), 3)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepoCreateDuplicateTransaction(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO payments").
		WillReturnError(errors.New("Error 1062: Duplicate entry 'TX-1' for key 'uq_payments_transaction'"))

	txID := "TX-1"
	p := model.NewPayment()
	p.TripID, p.CustomerID, p.PaymentMethod, p.TransactionID = 1, 1, "UPI", &txID
	err := NewPaymentRepo(db).Create(context.Background(), &p)
	assert.ErrorIs(t, err, ErrTransactionExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func addPayment(rows *sqlmock.Rows, status string) *sqlmock.Rows {
	return rows.AddRow(4, 1, 5, []byte("700.00"), "UPI", "order_1", status, "Razorpay",
		[]byte("300.00"), []byte("400.00"), []byte("0.00"), []byte("0.00"), []byte("0.00"),
		now, "", "", "/api/payments/4/receipt", now, now, "Coast trip", "Asha", "asha@example.com")
}

func lockedPayment(status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "trip_id", "status"}).AddRow(4, 1, status)
}

func TestPaymentRepoUpdateStatusByTransactionID(t *testing.T) {
	t.Run("capture sets paid_at", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, trip_id, status FROM payments WHERE transaction_id = \\? FOR UPDATE").
			WithArgs("order_1").WillReturnRows(lockedPayment("Pending"))
		mock.ExpectExec("UPDATE payments").
			WithArgs(model.PaymentSuccess, "", model.PaymentSuccess, uint64(4)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("FROM payments p.*WHERE p.id = ?").WithArgs(uint64(4)).
			WillReturnRows(addPayment(paymentRows(), "Success"))
		mock.ExpectCommit()

		p, err := NewPaymentRepo(db).UpdateStatusByTransactionID(context.Background(), "order_1", model.PaymentSuccess, "")
		require.NoError(t, err)
		assert.Equal(t, model.PaymentSuccess, p.Status)
		require.NotNil(t, p.PaidAt)
		assert.Equal(t, 700.0, p.Amount)
		assert.Equal(t, "Coast trip", p.Trip.TripName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure after capture is refused", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, trip_id, status FROM payments").WillReturnRows(lockedPayment("Success"))
		mock.ExpectRollback()

		_, err := NewPaymentRepo(db).UpdateStatusByTransactionID(context.Background(), "order_1", model.PaymentFailed, "card declined")
		assert.ErrorIs(t, err, ErrPaymentTransition)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("refund cancels trip and confirmed bookings", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, trip_id, status FROM payments").WillReturnRows(lockedPayment("Success"))
		mock.ExpectExec("UPDATE payments").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE trips SET payment_status = 'Cancelled'").WithArgs(uint64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE transport_bookings SET booking_status = 'Cancelled'.*booking_status = 'Confirmed'").
			WithArgs(uint64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE accommodation_bookings SET booking_status = 'Cancelled'.*booking_status = 'Confirmed'").
			WithArgs(uint64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("FROM payments p").WillReturnRows(addPayment(paymentRows(), "Refunded"))
		mock.ExpectCommit()

		p, err := NewPaymentRepo(db).UpdateStatusByTransactionID(context.Background(), "order_1", model.PaymentRefunded, "")
		require.NoError(t, err)
		assert.Equal(t, model.PaymentRefunded, p.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown order", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, trip_id, status FROM payments").WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := NewPaymentRepo(db).UpdateStatusByTransactionID(context.Background(), "nope", model.PaymentSuccess, "")
		assert.True(t, domain.IsNotFound(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func transportRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "trip_id", "customer_id", "transport_type", "transport_name", "vendor",
		"from_location", "to_location", "departure_time", "arrival_time", "duration", "seats", "price",
		"safety_score", "amenities", "booking_status", "booking_reference", "notes", "created_at", "updated_at",
		"trip_name", "name", "email"})
}

func TestTransportRepoDelete(t *testing.T) {
	t.Run("reopens sessions that chose it", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery("FROM transport_bookings b.*WHERE b.id = ?").WithArgs(uint64(11)).
			WillReturnRows(transportRows().AddRow(11, 3, 5, "Bus", "Volvo AC", "KSRTC", "Pune", "Goa",
				nil, nil, "10h", 1, []byte("500.00"), []byte("4.5"), []byte(`["wifi"]`), "Pending", "TR-1", nil,
				now, now, "Coast trip", "Asha", "asha@example.com"))
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE booking_sessions SET transport_booking_id = NULL").
			WithArgs(model.StateConfirmed, model.StateAbandoned, model.StateSelectingTransport, uint64(11)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM transport_bookings WHERE id = ?").WithArgs(uint64(11)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		b, err := NewTransportRepo(db).Delete(context.Background(), 11)
		require.NoError(t, err)
		assert.Equal(t, "Volvo AC", b.TransportName)
		assert.Equal(t, []string{"wifi"}, []string(b.Amenities))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing booking", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery("FROM transport_bookings").WithArgs(uint64(11)).WillReturnError(sql.ErrNoRows)

		_, err := NewTransportRepo(db).Delete(context.Background(), 11)
		assert.ErrorIs(t, err, ErrTransportNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingSessionRepoFinalize(t *testing.T) {
	transportID, stayID := uint64(11), uint64(12)
	session := func() *model.BookingSession {
		return &model.BookingSession{ID: 2, TripID: 3, CustomerID: 5, State: model.StatePaying,
			TransportBookingID: &transportID, AccommodationBookingID: &stayID}
	}
	payment := func() *model.Payment {
		p := model.NewPayment()
		p.TripID, p.CustomerID, p.PaymentMethod, p.Status = 3, 5, "UPI", model.PaymentSuccess
		p.Amount = 700
		return &p
	}

	t.Run("commits every step", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT state FROM booking_sessions WHERE id = \\? FOR UPDATE").WithArgs(uint64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow("Paying"))
		expectChoices(mock, "Planning", "Pending", "Pending")
		mock.ExpectExec("INSERT INTO payments").WillReturnResult(sqlmock.NewResult(40, 1))
		mock.ExpectExec("UPDATE payments SET receipt_url").WithArgs("/api/payments/40/receipt", uint64(40)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE transport_bookings SET booking_status = 'Confirmed'").WithArgs(transportID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE accommodation_bookings SET booking_status = 'Confirmed'").WithArgs(stayID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE transport_bookings SET booking_status = 'Cancelled'").WithArgs(uint64(3), transportID).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("UPDATE accommodation_bookings SET booking_status = 'Cancelled'").WithArgs(uint64(3), stayID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("UPDATE trips SET status = 'Booked', payment_status = 'Paid'").WithArgs(uint64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE booking_sessions SET state = 'Confirmed'").WithArgs(uint64(40), uint64(2)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("FROM booking_sessions WHERE id = ?").WithArgs(uint64(2)).
			WillReturnRows(sessionRows().AddRow(2, 3, 5, "Confirmed", 11, 12, 40, now, now))
		mock.ExpectQuery("FROM payments p").WithArgs(uint64(40)).
			WillReturnRows(paymentRows().AddRow(40, 3, 5, []byte("700.00"), "UPI", nil, "Success", "Razorpay",
				[]byte("0"), []byte("0"), []byte("0"), []byte("0"), []byte("0"),
				now, "", "", "/api/payments/40/receipt", now, now, "Coast trip", "Asha", "asha@example.com"))
		mock.ExpectCommit()

		s, p := session(), payment()
		require.NoError(t, NewBookingSessionRepo(db).Finalize(context.Background(), s, p))
		assert.Equal(t, model.StateConfirmed, s.State)
		require.NotNil(t, s.PaymentID)
		assert.Equal(t, uint64(40), *s.PaymentID)
		assert.Equal(t, "/api/payments/40/receipt", p.ReceiptURL)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when a step fails", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT state FROM booking_sessions").
			WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow("Paying"))
		expectChoices(mock, "Planning", "Pending", "Pending")
		mock.ExpectExec("INSERT INTO payments").WillReturnResult(sqlmock.NewResult(40, 1))
		mock.ExpectExec("UPDATE payments SET receipt_url").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE transport_bookings").WillReturnError(errors.New("deadlock"))
		mock.ExpectRollback()

		s := session()
		err := NewBookingSessionRepo(db).Finalize(context.Background(), s, payment())
		require.Error(t, err)
		assert.Equal(t, model.StatePaying, s.State)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("concurrent confirm sees the locked state", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT state FROM booking_sessions").
			WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow("Confirmed"))
		mock.ExpectRollback()

		err := NewBookingSessionRepo(db).Finalize(context.Background(), session(), payment())
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("trip cancelled after review", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT state FROM booking_sessions").
			WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow("Paying"))
		mock.ExpectQuery("SELECT status FROM trips WHERE id = \\? FOR UPDATE").WithArgs(uint64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("Cancelled"))
		mock.ExpectRollback()

		s := session()
		err := NewBookingSessionRepo(db).Finalize(context.Background(), s, payment())
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
		assert.Contains(t, err.Error(), "Cancelled")
		assert.Equal(t, model.StatePaying, s.State)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("chosen booking cancelled after review", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT state FROM booking_sessions").
			WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow("Paying"))
		mock.ExpectQuery("SELECT status FROM trips").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("Planning"))
		mock.ExpectQuery("SELECT booking_status FROM transport_bookings WHERE id = \\? AND trip_id = \\? FOR UPDATE").
			WithArgs(transportID, uint64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"booking_status"}).AddRow("Cancelled"))
		mock.ExpectRollback()

		err := NewBookingSessionRepo(db).Finalize(context.Background(), session(), payment())
		require.Error(t, err)
		assert.EqualError(t, err, "transportBookingId is cancelled")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// expectChoices queues the row locks Finalize takes on the trip and the two
// chosen bookings.
func expectChoices(mock sqlmock.Sqlmock, trip, transport, stay string) {
	mock.ExpectQuery("SELECT status FROM trips WHERE id = \\? FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(trip))
	mock.ExpectQuery("SELECT booking_status FROM transport_bookings").
		WillReturnRows(sqlmock.NewRows([]string{"booking_status"}).AddRow(transport))
	mock.ExpectQuery("SELECT booking_status FROM accommodation_bookings").
		WillReturnRows(sqlmock.NewRows([]string{"booking_status"}).AddRow(stay))
}

func TestBookingSessionRepoAbandon(t *testing.T) {
	db, mock := newMock(t)
	transportID := uint64(11)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT state FROM booking_sessions").
		WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow("SelectingAccommodation"))
	mock.ExpectExec("UPDATE transport_bookings SET booking_status = 'Cancelled'").WithArgs(transportID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE booking_sessions SET state = 'Abandoned'").WithArgs(uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := &model.BookingSession{ID: 2, TripID: 3, State: model.StateSelectingAccommodation, TransportBookingID: &transportID}
	require.NoError(t, NewBookingSessionRepo(db).Abandon(context.Background(), s))
	assert.Equal(t, model.StateAbandoned, s.State)
	assert.NoError(t, mock.ExpectationsWereMet())
}
