package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelco/travel-planner/internal/domain"
	"github.com/travelco/travel-planner/internal/model"
)

func TestValidate(t *testing.T) {
	v := New()

	t.Run("first missing field uses json name", func(t *testing.T) {
		trip := model.NewTrip()
		trip.CustomerID = 1
		err := v.Validate(&trip)
		require.Error(t, err)
		var ve domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "tripName", ve.Field)
		assert.Equal(t, "tripName is required", err.Error())
	})

	t.Run("zero date counts as missing", func(t *testing.T) {
		trip := model.NewTrip()
		trip.CustomerID = 1
		trip.TripName = "Coast"
		trip.StartState = "Goa"
		trip.DestinationDistrict = "North Goa"
		trip.EndDate = model.NewDate(2025, 1, 2)
		err := v.Validate(&trip)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "startDate")
	})

	t.Run("model checks run after tags", func(t *testing.T) {
		trip := model.NewTrip()
		trip.CustomerID = 1
		trip.TripName = "Coast"
		trip.StartState = "Goa"
		trip.DestinationDistrict = "North Goa"
		trip.StartDate = model.NewDate(2025, 1, 5)
		trip.EndDate = model.NewDate(2025, 1, 2)
		err := v.Validate(&trip)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "endDate")
	})

	t.Run("enum and format messages", func(t *testing.T) {
		p := model.NewPayment()
		p.TripID, p.CustomerID = 1, 1
		p.PaymentMethod = "Cash"
		err := v.Validate(&p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "paymentMethod must be one of Credit Card")

		c := model.Customer{Name: "Asha", Email: "not-an-email"}
		assert.EqualError(t, v.Validate(&c), "email must be a valid email")

		c.Email = "asha@example.com"
		c.Phone = "12345"
		assert.EqualError(t, v.Validate(&c), "phone must be 10 characters")
	})

	t.Run("valid payment", func(t *testing.T) {
		p := model.NewPayment()
		p.TripID, p.CustomerID = 1, 1
		p.PaymentMethod = "UPI"
		p.Amount = 10
		assert.NoError(t, v.Validate(&p))
	})
}
