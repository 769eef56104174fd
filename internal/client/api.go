package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/travelco/travel-planner/internal/model"
)

// AuthUser is the user object returned by signup, login and me.
type AuthUser struct {
	ID         uint64          `json:"id"`
	Email      string          `json:"email"`
	CustomerID uint64          `json:"customerId"`
	Name       string          `json:"name"`
	Customer   *model.Customer `json:"customer,omitempty"`
}

// AuthResult is a successful signup or login.
type AuthResult struct {
	Token string
	User  AuthUser
}

func (c *Client) auth(ctx context.Context, path string, body any) (AuthResult, error) {
	env, err := c.send(ctx, http.MethodPost, path, body)
	if err != nil {
		return AuthResult{}, err
	}
	res := AuthResult{Token: env.Token}
	if err := json.Unmarshal(env.User, &res.User); err != nil {
		return AuthResult{}, fmt.Errorf("decode user: %w", err)
	}
	return res, nil
}

// SignupRequest is the signup form. The profile fields are optional.
type SignupRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	Phone            string `json:"phone,omitempty"`
	Age              *int   `json:"age,omitempty"`
	EmergencyContact string `json:"emergencyContact,omitempty"`
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) (AuthResult, error) {
	return c.auth(ctx, "/api/auth/signup", req)
}

func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	return c.auth(ctx, "/api/auth/login", Payload{"email": email, "password": password})
}

func (c *Client) Me(ctx context.Context) (AuthUser, error) {
	env, err := c.send(ctx, http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		return AuthUser{}, err
	}
	var u AuthUser
	if err := json.Unmarshal(env.User, &u); err != nil {
		return AuthUser{}, fmt.Errorf("decode user: %w", err)
	}
	return u, nil
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.send(ctx, http.MethodPost, "/api/auth/logout", nil)
	return err
}

// customers

func (c *Client) CreateCustomer(ctx context.Context, p Payload) (model.Customer, error) {
	return call[model.Customer](ctx, c, http.MethodPost, "/api/customers", p)
}

func (c *Client) GetCustomer(ctx context.Context, id uint64) (model.Customer, error) {
	return call[model.Customer](ctx, c, http.MethodGet, fmt.Sprintf("/api/customers/%d", id), nil)
}

func (c *Client) UpdateCustomer(ctx context.Context, id uint64, p Payload) (model.Customer, error) {
	return call[model.Customer](ctx, c, http.MethodPut, fmt.Sprintf("/api/customers/%d", id), p)
}

func (c *Client) DeleteCustomer(ctx context.Context, id uint64) error {
	_, err := c.send(ctx, http.MethodDelete, fmt.Sprintf("/api/customers/%d", id), nil)
	return err
}

// trips

func (c *Client) CreateTrip(ctx context.Context, p Payload) (model.Trip, error) {
	return call[model.Trip](ctx, c, http.MethodPost, "/api/trips", p)
}

func (c *Client) ListTrips(ctx context.Context) ([]model.Trip, error) {
	return call[[]model.Trip](ctx, c, http.MethodGet, "/api/trips", nil)
}

func (c *Client) ListTripsByCustomer(ctx context.Context, customerID uint64) ([]model.Trip, error) {
	return call[[]model.Trip](ctx, c, http.MethodGet, fmt.Sprintf("/api/trips/customer/%d", customerID), nil)
}

func (c *Client) GetTrip(ctx context.Context, id uint64) (model.Trip, error) {
	return call[model.Trip](ctx, c, http.MethodGet, fmt.Sprintf("/api/trips/%d", id), nil)
}

func (c *Client) UpdateTrip(ctx context.Context, id uint64, p Payload) (model.Trip, error) {
	return call[model.Trip](ctx, c, http.MethodPut, fmt.Sprintf("/api/trips/%d", id), p)
}

func (c *Client) DeleteTrip(ctx context.Context, id uint64) error {
	_, err := c.send(ctx, http.MethodDelete, fmt.Sprintf("/api/trips/%d", id), nil)
	return err
}

// transport bookings

func (c *Client) CreateTransportBooking(ctx context.Context, p Payload) (model.TransportBooking, error) {
	return call[model.TransportBooking](ctx, c, http.MethodPost, "/api/transport-bookings", p)
}

func (c *Client) ListTransportBookings(ctx context.Context, tripID uint64) ([]model.TransportBooking, error) {
	return call[[]model.TransportBooking](ctx, c, http.MethodGet, fmt.Sprintf("/api/transport-bookings/trip/%d", tripID), nil)
}

func (c *Client) GetTransportBooking(ctx context.Context, id uint64) (model.TransportBooking, error) {
	return call[model.TransportBooking](ctx, c, http.MethodGet, fmt.Sprintf("/api/transport-bookings/%d", id), nil)
}

func (c *Client) UpdateTransportBooking(ctx context.Context, id uint64, p Payload) (model.TransportBooking, error) {
	return call[model.TransportBooking](ctx, c, http.MethodPut, fmt.Sprintf("/api/transport-bookings/%d", id), p)
}

func (c *Client) DeleteTransportBooking(ctx context.Context, id uint64) error {
	_, err := c.send(ctx, http.MethodDelete, fmt.Sprintf("/api/transport-bookings/%d", id), nil)
	return err
}

// accommodation bookings

func (c *Client) CreateAccommodationBooking(ctx context.Context, p Payload) (model.AccommodationBooking, error) {
	return call[model.AccommodationBooking](ctx, c, http.MethodPost, "/api/accommodation-bookings", p)
}

func (c *Client) ListAccommodationBookings(ctx context.Context, tripID uint64) ([]model.AccommodationBooking, error) {
	return call[[]model.AccommodationBooking](ctx, c, http.MethodGet, fmt.Sprintf("/api/accommodation-bookings/trip/%d", tripID), nil)
}

func (c *Client) GetAccommodationBooking(ctx context.Context, id uint64) (model.AccommodationBooking, error) {
	return call[model.AccommodationBooking](ctx, c, http.MethodGet, fmt.Sprintf("/api/accommodation-bookings/%d", id), nil)
}

func (c *Client) UpdateAccommodationBooking(ctx context.Context, id uint64, p Payload) (model.AccommodationBooking, error) {
	return call[model.AccommodationBooking](ctx, c, http.MethodPut, fmt.Sprintf("/api/accommodation-bookings/%d", id), p)
}

func (c *Client) DeleteAccommodationBooking(ctx context.Context, id uint64) error {
	_, err := c.send(ctx, http.MethodDelete, fmt.Sprintf("/api/accommodation-bookings/%d", id), nil)
	return err
}

// payments

func (c *Client) CreatePayment(ctx context.Context, p Payload) (model.Payment, error) {
	return call[model.Payment](ctx, c, http.MethodPost, "/api/payments", p)
}

func (c *Client) ListPayments(ctx context.Context) ([]model.Payment, error) {
	return call[[]model.Payment](ctx, c, http.MethodGet, "/api/payments", nil)
}

func (c *Client) ListPaymentsByTrip(ctx context.Context, tripID uint64) ([]model.Payment, error) {
	return call[[]model.Payment](ctx, c, http.MethodGet, fmt.Sprintf("/api/payments/trip/%d", tripID), nil)
}

func (c *Client) GetPayment(ctx context.Context, id uint64) (model.Payment, error) {
	return call[model.Payment](ctx, c, http.MethodGet, fmt.Sprintf("/api/payments/%d", id), nil)
}

func (c *Client) GetPaymentByTransaction(ctx context.Context, txID string) (model.Payment, error) {
	return call[model.Payment](ctx, c, http.MethodGet, "/api/payments/transaction/"+url.PathEscape(txID), nil)
}

func (c *Client) UpdatePayment(ctx context.Context, id uint64, p Payload) (model.Payment, error) {
	return call[model.Payment](ctx, c, http.MethodPut, fmt.Sprintf("/api/payments/%d", id), p)
}

func (c *Client) DeletePayment(ctx context.Context, id uint64) error {
	_, err := c.send(ctx, http.MethodDelete, fmt.Sprintf("/api/payments/%d", id), nil)
	return err
}

// Receipt downloads the PDF receipt of a successful payment.
func (c *Client) Receipt(ctx context.Context, id uint64) ([]byte, error) {
	return c.raw(ctx, model.ReceiptPath(id))
}

// booking sessions

// Review is the priced summary returned when a session enters Paying.
type Review struct {
	Session model.BookingSession `json:"session"`
	Summary model.Summary        `json:"summary"`
}

// Confirmation is the committed session and its payment.
type Confirmation struct {
	Session model.BookingSession `json:"session"`
	Payment model.Payment        `json:"payment"`
}

// ConfirmRequest carries the payment details of a confirmation. Empty
// fields are left to the server.
type ConfirmRequest struct {
	PaymentMethod  string `json:"paymentMethod"`
	PaymentGateway string `json:"paymentGateway,omitempty"`
	TransactionID  string `json:"transactionId,omitempty"`
}

func sessionPath(id uint64, suffix string) string {
	return fmt.Sprintf("/api/booking-sessions/%d%s", id, suffix)
}

func (c *Client) StartSession(ctx context.Context, tripID uint64) (model.BookingSession, error) {
	return call[model.BookingSession](ctx, c, http.MethodPost, "/api/booking-sessions", Payload{"tripId": tripID})
}

func (c *Client) GetSession(ctx context.Context, id uint64) (model.BookingSession, error) {
	return call[model.BookingSession](ctx, c, http.MethodGet, sessionPath(id, ""), nil)
}

func (c *Client) ChooseTransport(ctx context.Context, id, bookingID uint64) (model.BookingSession, error) {
	return call[model.BookingSession](ctx, c, http.MethodPut, sessionPath(id, "/transport"), Payload{"transportBookingId": bookingID})
}

func (c *Client) ChooseAccommodation(ctx context.Context, id, bookingID uint64) (model.BookingSession, error) {
	return call[model.BookingSession](ctx, c, http.MethodPut, sessionPath(id, "/accommodation"), Payload{"accommodationBookingId": bookingID})
}

func (c *Client) ReviewSession(ctx context.Context, id uint64) (Review, error) {
	return call[Review](ctx, c, http.MethodPost, sessionPath(id, "/review"), nil)
}

func (c *Client) ConfirmSession(ctx context.Context, id uint64, req ConfirmRequest) (Confirmation, error) {
	return call[Confirmation](ctx, c, http.MethodPost, sessionPath(id, "/confirm"), req)
}

func (c *Client) AbandonSession(ctx context.Context, id uint64) (model.BookingSession, error) {
	return call[model.BookingSession](ctx, c, http.MethodDelete, sessionPath(id, ""), nil)
}
