package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/klevisbr/bookstore-api/internal/models"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestStructReportsFirstViolation(t *testing.T) {
	req := models.CreateBookRequest{
		// Title missing, author also too short: only the first message surfaces
		Author:      "x",
		Description: "long enough description",
		Price:       floatPtr(10),
		Stock:       intPtr(1),
	}
	err := Struct(&req)
	assert.Error(t, err)
	assert.Equal(t, "Title is required", err.Error())
}

func TestStructStringLengthMessages(t *testing.T) {
	req := models.CreateBookRequest{
		Title:       "x",
		Author:      "Jane Doe",
		Description: "long enough description",
		Price:       floatPtr(10),
		Stock:       intPtr(1),
	}
	err := Struct(&req)
	assert.Error(t, err)
	assert.Equal(t, "Title must be at least 2 characters long", err.Error())
}

func TestStructObjectIDRule(t *testing.T) {
	req := models.CreateBookRequest{
		Title:       "Learn Go",
		Author:      "Jane Doe",
		Description: "A comprehensive guide",
		Price:       floatPtr(19.99),
		Stock:       intPtr(100),
		Category:    "not-a-hex-id",
	}
	err := Struct(&req)
	assert.Error(t, err)
	assert.Equal(t, "Category must be a valid object id", err.Error())

	req.Category = "647f3c9c0d9fbd0012345678"
	assert.NoError(t, Struct(&req))
}

func TestStructNegativePriceRejected(t *testing.T) {
	req := models.CreateBookRequest{
		Title:       "Learn Go",
		Author:      "Jane Doe",
		Description: "A comprehensive guide",
		Price:       floatPtr(-1),
		Stock:       intPtr(0),
	}
	err := Struct(&req)
	assert.Error(t, err)
	assert.Equal(t, "Price must be 0 or greater", err.Error())
}

func TestStructZeroPriceAndStockAllowed(t *testing.T) {
	req := models.CreateBookRequest{
		Title:       "Free Sampler",
		Author:      "Jane Doe",
		Description: "A comprehensive guide",
		Price:       floatPtr(0),
		Stock:       intPtr(0),
	}
	assert.NoError(t, Struct(&req))
}

func TestStructOrderItems(t *testing.T) {
	err := Struct(&models.CreateOrderRequest{Items: []models.OrderItemRequest{}})
	assert.Error(t, err)
	assert.Equal(t, "At least 1 item is required", err.Error())

	err = Struct(&models.CreateOrderRequest{Items: []models.OrderItemRequest{
		{Book: "647f3c9c0d9fbd0012345678", Quantity: 0},
	}})
	assert.Error(t, err)

	assert.NoError(t, Struct(&models.CreateOrderRequest{Items: []models.OrderItemRequest{
		{Book: "647f3c9c0d9fbd0012345678", Quantity: 2},
	}}))
}

func TestStructOrderStatusEnum(t *testing.T) {
	err := Struct(&models.UpdateOrderStatusRequest{Status: "shipped"})
	assert.Error(t, err)
	assert.Equal(t, "Status must be one of [pending, completed, cancelled]", err.Error())

	assert.NoError(t, Struct(&models.UpdateOrderStatusRequest{Status: models.OrderCancelled}))
}

func TestStructEmail(t *testing.T) {
	err := Struct(&models.LoginRequest{Email: "not-an-email", Password: "secret123"})
	assert.Error(t, err)
	assert.Equal(t, "Email must be a valid email address", err.Error())
}
