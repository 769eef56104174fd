package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/travelco/travel-planner/internal/model"
)

// CustomerHandler serves /api/customers.
type CustomerHandler struct {
	Customers  CustomerStore
	BcryptCost int
}

func NewCustomerHandler(customers CustomerStore, bcryptCost int) *CustomerHandler {
	return &CustomerHandler{Customers: customers, BcryptCost: bcryptCost}
}

// customerReq is a customer body that may carry a password.
type customerReq struct {
	model.Customer
	Password *string `json:"password,omitempty"`
}

// Create registers a customer together with its login credential.
func (h *CustomerHandler) Create(c echo.Context) error {
	var req customerReq
	if err := decodeJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	cust := req.Customer
	cust.ID, cust.IsVerified = 0, false
	cust.Normalize()
	if err := c.Validate(&cust); err != nil {
		return respondError(c, err)
	}
	var plain string
	if req.Password != nil {
		plain = *req.Password
	}
	hash, err := hashPassword(plain, h.BcryptCost)
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := h.Customers.Create(ctx, &cust, hash); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, cust, "Customer created successfully")
}

// List returns the caller's own profile as a one-element list.
func (h *CustomerHandler) List(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	cust, err := h.Customers.GetByID(ctx, id.CustomerID)
	if err != nil {
		return respondError(c, err)
	}
	return respondList(c, []model.Customer{cust})
}

func (h *CustomerHandler) load(c echo.Context) (model.Customer, error) {
	id, err := caller(c)
	if err != nil {
		return model.Customer{}, err
	}
	cid, err := parseID(c, "id")
	if err != nil {
		return model.Customer{}, err
	}
	if err := owns(id, cid, "customer"); err != nil {
		return model.Customer{}, err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	return h.Customers.GetByID(ctx, cid)
}

func (h *CustomerHandler) Get(c echo.Context) error {
	cust, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, cust, "")
}

// Update merges the body over the stored profile. A non-empty password
// replaces the stored hash.
func (h *CustomerHandler) Update(c echo.Context) error {
	stored, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	req := customerReq{Customer: stored}
	if err := decodeJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	cust := req.Customer
	cust.ID, cust.IsVerified, cust.CreatedAt = stored.ID, stored.IsVerified, stored.CreatedAt
	cust.Normalize()
	if err := c.Validate(&cust); err != nil {
		return respondError(c, err)
	}
	var hash *string
	if req.Password != nil && *req.Password != "" {
		hashed, err := hashPassword(*req.Password, h.BcryptCost)
		if err != nil {
			return respondError(c, err)
		}
		hash = &hashed
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Customers.Update(ctx, &cust, hash); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, cust, "Customer updated successfully")
}

// Delete removes the caller's profile. Customers owning trips are refused.
func (h *CustomerHandler) Delete(c echo.Context) error {
	stored, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	removed, err := h.Customers.Delete(ctx, stored.ID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, removed, "Customer deleted successfully")
}
