package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/travelco/travel-planner/internal/model"
)

// PaymentRepo persists payments. transaction_id is unique when present.
type PaymentRepo struct{ db *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentSelect = `SELECT p.id, p.trip_id, p.customer_id, p.amount, p.payment_method, p.transaction_id,
       p.status, p.payment_gateway, p.transport_cost, p.accommodation_cost, p.activity_cost, p.tax,
       p.discount, p.paid_at, p.failure_reason, p.invoice_url, p.receipt_url, p.created_at, p.updated_at,
       t.trip_name, c.name, c.email
  FROM payments p
  JOIN trips t ON t.id = p.trip_id
  JOIN customers c ON c.id = p.customer_id`

func scanPayment(row rowScanner) (model.Payment, error) {
	var p model.Payment
	var txID sql.NullString
	var paidAt sql.NullTime
	trip := &model.TripRef{}
	cust := &model.CustomerRef{}
	err := row.Scan(&p.ID, &p.TripID, &p.CustomerID, &p.Amount, &p.PaymentMethod, &txID,
		&p.Status, &p.PaymentGateway, &p.Breakdown.TransportCost, &p.Breakdown.AccommodationCost,
		&p.Breakdown.ActivityCost, &p.Breakdown.Tax, &p.Breakdown.Discount, &paidAt, &p.FailureReason,
		&p.InvoiceURL, &p.ReceiptURL, &p.CreatedAt, &p.UpdatedAt,
		&trip.TripName, &cust.Name, &cust.Email)
	if err != nil {
		return p, err
	}
	if txID.Valid {
		s := txID.String
		p.TransactionID = &s
	}
	p.PaidAt = timePtr(paidAt)
	trip.ID, cust.ID = p.TripID, p.CustomerID
	p.Trip, p.Customer = trip, cust
	return p, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func (r *PaymentRepo) list(ctx context.Context, where string, args ...any) ([]model.Payment, error) {
	rows, err := r.db.QueryContext(ctx, paymentSelect+` WHERE `+where+` ORDER BY p.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// execer lets inserts run on the pool or inside a transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertPayment(ctx context.Context, db execer, p *model.Payment) (uint64, error) {
	res, err := db.ExecContext(ctx,
		`INSERT INTO payments (trip_id, customer_id, amount, payment_method, transaction_id, status,
		  payment_gateway, transport_cost, accommodation_cost, activity_cost, tax, discount, paid_at,
		  failure_reason, invoice_url, receipt_url)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.TripID, p.CustomerID, p.Amount, p.PaymentMethod, nullString(p.TransactionID), p.Status,
		p.PaymentGateway, p.Breakdown.TransportCost, p.Breakdown.AccommodationCost, p.Breakdown.ActivityCost,
		p.Breakdown.Tax, p.Breakdown.Discount, nullTime(p.PaidAt),
		p.FailureReason, p.InvoiceURL, p.ReceiptURL)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrTransactionExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// Create inserts the payment. A duplicate transaction id yields
// ErrTransactionExists.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	p.StampPaidAt(time.Now())
	id, err := insertPayment(ctx, r.db, p)
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	*p = created
	return nil
}

func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (model.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, paymentSelect+` WHERE p.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrPaymentNotFound
	}
	return p, err
}

func (r *PaymentRepo) GetByTransactionID(ctx context.Context, txID string) (model.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, paymentSelect+` WHERE p.transaction_id = ?`, txID))
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrPaymentNotFound
	}
	return p, err
}

func (r *PaymentRepo) ListByTrip(ctx context.Context, tripID uint64) ([]model.Payment, error) {
	return r.list(ctx, `p.trip_id = ?`, tripID)
}

func (r *PaymentRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]model.Payment, error) {
	return r.list(ctx, `p.customer_id = ?`, customerID)
}

func (r *PaymentRepo) Update(ctx context.Context, p *model.Payment) error {
	p.StampPaidAt(time.Now())
	_, err := r.db.ExecContext(ctx,
		`UPDATE payments SET amount=?, payment_method=?, transaction_id=?, status=?, payment_gateway=?,
		  transport_cost=?, accommodation_cost=?, activity_cost=?, tax=?, discount=?, paid_at=?,
		  failure_reason=?, invoice_url=?, receipt_url=?, updated_at=CURRENT_TIMESTAMP
		 WHERE id=?`,
		p.Amount, p.PaymentMethod, nullString(p.TransactionID), p.Status, p.PaymentGateway,
		p.Breakdown.TransportCost, p.Breakdown.AccommodationCost, p.Breakdown.ActivityCost, p.Breakdown.Tax,
		p.Breakdown.Discount, nullTime(p.PaidAt), p.FailureReason, p.InvoiceURL, p.ReceiptURL, p.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrTransactionExists
		}
		return err
	}
	updated, err := r.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = updated
	return nil
}

// UpdateStatusByTransactionID applies a gateway callback under a row lock.
// Changes the lifecycle forbids return ErrPaymentTransition and leave the
// row alone. A refund also cancels the trip and its confirmed bookings in
// the same transaction. paid_at is set the first time the payment succeeds.
func (r *PaymentRepo) UpdateStatusByTransactionID(ctx context.Context, txID string, status model.PaymentStatus, reason string) (p model.Payment, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return p, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	var (
		id, tripID uint64
		current    model.PaymentStatus
	)
	err = tx.QueryRowContext(ctx,
		`SELECT id, trip_id, status FROM payments WHERE transaction_id = ? FOR UPDATE`, txID).Scan(&id, &tripID, &current)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrPaymentNotFound
		return p, err
	}
	if err != nil {
		return p, err
	}
	if !current.CanTransitionTo(status) {
		err = ErrPaymentTransition
		return p, err
	}

	steps := []stmt{
		{`UPDATE payments
		     SET status = ?, failure_reason = ?,
		         paid_at = CASE WHEN ? = 'Success' AND paid_at IS NULL THEN UTC_TIMESTAMP() ELSE paid_at END,
		         updated_at = CURRENT_TIMESTAMP
		   WHERE id = ?`, []any{status, reason, status, id}},
	}
	if status == model.PaymentRefunded && current != model.PaymentRefunded {
		steps = append(steps,
			stmt{`UPDATE trips SET payment_status = 'Cancelled',
			     status = CASE WHEN status IN ('Planning', 'Booked') THEN 'Cancelled' ELSE status END,
			     updated_at = CURRENT_TIMESTAMP
			   WHERE id = ?`, []any{tripID}},
			stmt{`UPDATE transport_bookings SET booking_status = 'Cancelled', updated_at = CURRENT_TIMESTAMP
			   WHERE trip_id = ? AND booking_status = 'Confirmed'`, []any{tripID}},
			stmt{`UPDATE accommodation_bookings SET booking_status = 'Cancelled', updated_at = CURRENT_TIMESTAMP
			   WHERE trip_id = ? AND booking_status = 'Confirmed'`, []any{tripID}},
		)
	}
	if err = execAll(ctx, tx, steps); err != nil {
		return p, err
	}
	p, err = scanPayment(tx.QueryRowContext(ctx, paymentSelect+` WHERE p.id = ?`, id))
	return p, err
}

// Delete returns the removed payment and clears session references to it.
func (r *PaymentRepo) Delete(ctx context.Context, id uint64) (p model.Payment, err error) {
	p, err = r.GetByID(ctx, id)
	if err != nil {
		return p, err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return p, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	if _, err = tx.ExecContext(ctx, `UPDATE booking_sessions SET payment_id = NULL WHERE payment_id = ?`, id); err != nil {
		return p, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id); err != nil {
		return p, err
	}
	return p, nil
}
