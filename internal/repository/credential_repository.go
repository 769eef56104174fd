package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/travelco/travel-planner/internal/model"
)

// CredentialRepo reads the login records created alongside customers.
type CredentialRepo struct{ DB *sql.DB }

func NewCredentialRepo(db *sql.DB) *CredentialRepo { return &CredentialRepo{DB: db} }

const credentialCols = `id, customer_id, email, password_hash, last_login_at, created_at, updated_at`

func scanCredential(row rowScanner) (model.Credential, error) {
	var c model.Credential
	var last sql.NullTime
	err := row.Scan(&c.ID, &c.CustomerID, &c.Email, &c.PasswordHash, &last, &c.CreatedAt, &c.UpdatedAt)
	if last.Valid {
		t := last.Time
		c.LastLoginAt = &t
	}
	return c, err
}

// GetByEmail fetches a credential by normalized email.
func (r *CredentialRepo) GetByEmail(ctx context.Context, email string) (model.Credential, error) {
	c, err := scanCredential(r.DB.QueryRowContext(ctx,
		`SELECT `+credentialCols+` FROM credentials WHERE email = ? LIMIT 1`, model.NormalizeEmail(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrCredentialNotFound
	}
	return c, err
}

// GetByID fetches a credential by id.
func (r *CredentialRepo) GetByID(ctx context.Context, id uint64) (model.Credential, error) {
	c, err := scanCredential(r.DB.QueryRowContext(ctx,
		`SELECT `+credentialCols+` FROM credentials WHERE id = ? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrCredentialNotFound
	}
	return c, err
}

// TouchLastLogin stamps a successful login.
func (r *CredentialRepo) TouchLastLogin(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE credentials SET last_login_at = UTC_TIMESTAMP() WHERE id = ?`, id)
	return err
}
