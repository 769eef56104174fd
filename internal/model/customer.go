package model

import (
	"database/sql/driver"
	"strings"
	"time"
)

// Customer is a traveler profile. The password is accepted on create and
// update requests but lives only in the credentials table.
type Customer struct {
	ID               uint64    `json:"id"`
	Name             string    `json:"name" validate:"required,max=50"`
	Email            string    `json:"email" validate:"required,email"`
	Phone            string    `json:"phone" validate:"omitempty,len=10,numeric"`
	Age              *int      `json:"age,omitempty" validate:"omitempty,min=18,max=120"`
	EmergencyContact string    `json:"emergencyContact"`
	Address          Address   `json:"address"`
	ProfileImage     string    `json:"profileImage"`
	IsVerified       bool      `json:"isVerified"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Address is embedded in Customer and stored as a JSON column.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

func (a *Address) Scan(src any) error { return scanJSON(src, a) }

func (a Address) Value() (driver.Value, error) { return valueJSON(a) }

// Normalize trims the name and lower-cases the email.
func (c *Customer) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = NormalizeEmail(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
}

// Ref returns the reduced projection embedded in trips, bookings and payments.
func (c Customer) Ref() *CustomerRef {
	return &CustomerRef{ID: c.ID, Name: c.Name, Email: c.Email}
}

// CustomerRef is the {id,name,email} projection of a customer.
type CustomerRef struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Credential is the login record attached one-to-one to a customer.
type Credential struct {
	ID           uint64     `json:"id"`
	CustomerID   uint64     `json:"customerId"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// NormalizeEmail is applied wherever an email is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
