package utils // package utils provides helpers for bearer tokens and password hashing

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is stamped into every token and checked on parse.
const Issuer = "travel-co"

var (
	// ErrTokenExpired is returned by ParseAccessToken for a well-formed token past its exp.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers bad signatures, wrong algorithms and malformed tokens.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims carries the identity of a signed-in customer. Subject holds the
// credential id.
type Claims struct {
	Email      string `json:"email"`
	CustomerID uint64 `json:"customerId"`
	jwt.RegisteredClaims
}

// CredentialID parses the subject back into the credential id.
func (c *Claims) CredentialID() (uint64, error) {
	return strconv.ParseUint(c.Subject, 10, 64)
}

// AccessToken is a signed JWT together with its expiry.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// NewAccessToken signs an HS256 token for the credential and its customer.
func NewAccessToken(secret string, credentialID, customerID uint64, email string, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Email:      email,
		CustomerID: customerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(credentialID, 10),
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies signature, algorithm, issuer and expiry. It
// returns ErrTokenExpired or ErrTokenInvalid so callers can tell the two
// apart.
func ParseAccessToken(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(Issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tok.Valid {
		return nil, ErrTokenInvalid
	}
	if _, err := claims.CredentialID(); err != nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
