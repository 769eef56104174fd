package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/travelco/travel-planner/internal/model"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// stmt is one statement of a multi-step transaction.
type stmt struct {
	q    string
	args []any
}

// execAll runs the statements in order and stops at the first failure.
func execAll(ctx context.Context, tx *sql.Tx, steps []stmt) error {
	for _, st := range steps {
		if _, err := tx.ExecContext(ctx, st.q, st.args...); err != nil {
			return err
		}
	}
	return nil
}

// CustomerRepo persists customers together with their login credential.
type CustomerRepo struct{ db *sql.DB }

func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{db: db} }

const customerCols = `id, name, email, phone, age, emergency_contact, address, profile_image, is_verified, created_at, updated_at`

func scanCustomer(row rowScanner) (model.Customer, error) {
	var c model.Customer
	var age sql.NullInt64
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &age, &c.EmergencyContact,
		&c.Address, &c.ProfileImage, &c.IsVerified, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return c, err
	}
	if age.Valid {
		v := int(age.Int64)
		c.Age = &v
	}
	return c, nil
}

func nullableAge(age *int) any {
	if age == nil {
		return nil
	}
	return *age
}

// Create inserts the customer and its credential in one transaction and
// fills in the generated id and timestamps. A duplicate email yields
// ErrEmailExists.
func (r *CustomerRepo) Create(ctx context.Context, c *model.Customer, passwordHash string) (cred model.Credential, err error) {
	c.Normalize()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return cred, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO customers (name, email, phone, age, emergency_contact, address, profile_image, is_verified)
		 VALUES (?,?,?,?,?,?,?,?)`,
		c.Name, c.Email, c.Phone, nullableAge(c.Age), c.EmergencyContact, c.Address, c.ProfileImage, c.IsVerified)
	if err != nil {
		if isDuplicate(err) {
			err = ErrEmailExists
		}
		return cred, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return cred, err
	}

	res, err = tx.ExecContext(ctx,
		`INSERT INTO credentials (customer_id, email, password_hash) VALUES (?,?,?)`,
		id, c.Email, passwordHash)
	if err != nil {
		if isDuplicate(err) {
			err = ErrEmailExists
		}
		return cred, err
	}
	credID, err := res.LastInsertId()
	if err != nil {
		return cred, err
	}

	created, err := scanCustomer(tx.QueryRowContext(ctx, `SELECT `+customerCols+` FROM customers WHERE id = ?`, id))
	if err != nil {
		return cred, err
	}
	*c = created
	cred = model.Credential{ID: uint64(credID), CustomerID: c.ID, Email: c.Email, PasswordHash: passwordHash}
	return cred, nil
}

// GetByID returns ErrCustomerNotFound when no row matches.
func (r *CustomerRepo) GetByID(ctx context.Context, id uint64) (model.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx, `SELECT `+customerCols+` FROM customers WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrCustomerNotFound
	}
	return c, err
}

// Update writes the profile and keeps the credential email in sync. When
// passwordHash is non-nil the stored hash is replaced too.
func (r *CustomerRepo) Update(ctx context.Context, c *model.Customer, passwordHash *string) (err error) {
	c.Normalize()
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

	_, err = tx.ExecContext(ctx,
		`UPDATE customers SET name=?, email=?, phone=?, age=?, emergency_contact=?, address=?, profile_image=?,
		 is_verified=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`,
		c.Name, c.Email, c.Phone, nullableAge(c.Age), c.EmergencyContact, c.Address, c.ProfileImage, c.IsVerified, c.ID)
	if err != nil {
		if isDuplicate(err) {
			err = ErrEmailExists
		}
		return err
	}

	var hash any
	if passwordHash != nil {
		hash = *passwordHash
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE credentials SET email=?, password_hash=COALESCE(?, password_hash), updated_at=CURRENT_TIMESTAMP
		 WHERE customer_id=?`, c.Email, hash, c.ID)
	if err != nil {
		if isDuplicate(err) {
			err = ErrEmailExists
		}
		return err
	}

	updated, err := scanCustomer(tx.QueryRowContext(ctx, `SELECT `+customerCols+` FROM customers WHERE id = ?`, c.ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrCustomerNotFound
		}
		return err
	}
	*c = updated
	return nil
}

// Delete removes a customer and its credential and returns the removed
// record. Customers that still own trips are rejected with
// ErrCustomerHasTrips.
func (r *CustomerRepo) Delete(ctx context.Context, id uint64) (c model.Customer, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return c, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	c, err = scanCustomer(tx.QueryRowContext(ctx, `SELECT `+customerCols+` FROM customers WHERE id = ? FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrCustomerNotFound
		}
		return c, err
	}

	var trips int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM trips WHERE customer_id = ?`, id).Scan(&trips); err != nil {
		return c, err
	}
	if trips > 0 {
		err = ErrCustomerHasTrips
		return c, err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM credentials WHERE customer_id = ?`, id); err != nil {
		return c, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id); err != nil {
		return c, err
	}
	return c, nil
}
