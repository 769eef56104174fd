package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/travelco/travel-planner/internal/config"
	"github.com/travelco/travel-planner/internal/domain"
	"github.com/travelco/travel-planner/internal/logger"
	"github.com/travelco/travel-planner/internal/model"
	"github.com/travelco/travel-planner/internal/utils"
)

// MsgBadCredentials is returned for any failed login, whether the email or
// the password was wrong.
const MsgBadCredentials = "Invalid email or password"

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg         config.Config
	Customers   CustomerStore
	Credentials CredentialStore
}

func NewAuthHandler(cfg config.Config, customers CustomerStore, creds CredentialStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Customers: customers, Credentials: creds}
}

// ----- DTOs -----

// signupReq carries the credential plus the optional profile fields of the
// customer created alongside it.
type signupReq struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	Phone            string `json:"phone"`
	Age              *int   `json:"age"` // nil when not given
	EmergencyContact string `json:"emergencyContact"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authUser is the "user" object of every auth response. ID is the
// credential id, not the customer id.
type authUser struct {
	ID         uint64          `json:"id"`
	Email      string          `json:"email"`
	CustomerID uint64          `json:"customerId"`
	Name       string          `json:"name"`
	Customer   *model.Customer `json:"customer,omitempty"` // only on /me
}

type authResp struct {
	Success bool     `json:"success"`
	Token   string   `json:"token,omitempty"`
	User    authUser `json:"user"`
	Message string   `json:"message,omitempty"`
}

// hashPassword turns the password rules into validation errors.
func hashPassword(plain string, cost int) (string, error) {
	if plain == "" {
		return "", domain.Invalid("password", "is required")
	}
	hash, err := utils.HashPassword(plain, cost)
	if errors.Is(err, utils.ErrPasswordTooShort) {
		return "", domain.Invalid("password", "must be at least 6 characters")
	}
	return hash, err
}

// Signup creates a customer with its credential and signs the caller in.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := decodeJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	cust := model.Customer{
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		Age:              req.Age,
		EmergencyContact: req.EmergencyContact,
	}
	cust.Normalize() // lower-cased email, trimmed name and phone
	if err := c.Validate(&cust); err != nil {
		return respondError(c, err)
	}
	// hash before opening the tx; bcrypt is slow
	hash, err := hashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	// customer and credential rows are written together; a taken email
	// comes back as a conflict
	cred, err := h.Customers.Create(ctx, &cust, hash)
	if err != nil {
		return respondError(c, err)
	}
	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, cred.ID, cust.ID, cred.Email, h.Cfg.TokenTTL)
	if err != nil {
		return respondError(c, err)
	}
	logger.InfoLogger.WithField("customer_id", cust.ID).Info("customer signed up")

	// signed in straight away, same shape as Login

	return c.JSON(http.StatusCreated, authResp{
		Success: true,
		Token:   tok.Token,
		User:    authUser{ID: cred.ID, Email: cred.Email, CustomerID: cust.ID, Name: cust.Name},
		Message: "Account created successfully",
	})
}

// Login verifies the credentials and returns a fresh token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := decodeJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	req.Email = model.NormalizeEmail(req.Email)
	if req.Email == "" || strings.TrimSpace(req.Password) == "" {
		return respondError(c, domain.ValidationError{Msg: "email and password are required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	cred, err := h.Credentials.GetByEmail(ctx, req.Email)
	if err != nil {
		if domain.IsNotFound(err) {
			// same message as a wrong password
			return respondError(c, domain.AuthError{Msg: MsgBadCredentials})
		}
		return respondError(c, err)
	}
	if !utils.VerifyPassword(cred.PasswordHash, req.Password) {
		return respondError(c, domain.AuthError{Msg: MsgBadCredentials})
	}
	// best effort: a failed timestamp write does not fail the login
	if err := h.Credentials.TouchLastLogin(ctx, cred.ID); err != nil {
		logger.ErrorLogger.WithError(err).WithField("credential_id", cred.ID).Warn("update last login failed")
	}

	// the name is cosmetic; a credential whose customer is gone can still log in
	cust, err := h.Customers.GetByID(ctx, cred.CustomerID)
	if err != nil && !domain.IsNotFound(err) {
		return respondError(c, err)
	}
	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, cred.ID, cred.CustomerID, cred.Email, h.Cfg.TokenTTL)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, authResp{
		Success: true,
		Token:   tok.Token,
		User:    authUser{ID: cred.ID, Email: cred.Email, CustomerID: cred.CustomerID, Name: cust.Name},
	})
}

// Me returns the caller together with the linked customer profile.
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	// re-read the credential: the token may outlive a deleted account
	cred, err := h.Credentials.GetByID(ctx, id.ID)
	if err != nil {
		return respondError(c, err)
	}
	cust, err := h.Customers.GetByID(ctx, cred.CustomerID)
	if err != nil {
		if domain.IsNotFound(err) {
			return respondMessage(c, http.StatusNotFound, "Customer profile not found")
		}
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, authResp{
		Success: true,
		User:    authUser{ID: cred.ID, Email: cred.Email, CustomerID: cust.ID, Name: cust.Name, Customer: &cust},
	})
}

// Logout is stateless: the client discards its token. Tokens already
// issued stay valid until they expire.
func (h *AuthHandler) Logout(c echo.Context) error {
	return respondMessage(c, http.StatusOK, "Logged out successfully")
}
