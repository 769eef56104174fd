package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/travelco/travel-planner/internal/database"
)

// HealthHandler reports liveness and whether the database answers.
type HealthHandler struct {
	DB *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler { return &HealthHandler{DB: db} }

// Health is used by load balancers and monitoring. It always answers 200
// while the process is up; the database field tells whether MySQL responds.
func (h *HealthHandler) Health(c echo.Context) error {
	dbState := "disconnected"
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if database.Ping(ctx, h.DB) == nil {
			dbState = "connected"
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "ok",
		"message":   "Travel Co API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database":  dbState,
	})
}
