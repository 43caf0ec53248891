package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is the closed set of order states.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	return s == OrderPending || s == OrderCompleted || s == OrderCancelled
}

// OrderItem is one line of an order. Price and Title are snapshots taken
// when the order was placed, so later catalog edits don't rewrite history.
type OrderItem struct {
	Book     primitive.ObjectID `json:"book" bson:"book"`
	Quantity int                `json:"quantity" bson:"quantity"`
	Price    float64            `json:"price" bson:"price"`
	Title    string             `json:"title" bson:"title"`
}

// Order is a document in the orders collection. An order always has at
// least one item.
type Order struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	User       primitive.ObjectID `json:"user" bson:"user"`
	Items      []OrderItem        `json:"items" bson:"items"`
	TotalPrice float64            `json:"totalPrice" bson:"total_price"`
	Status     OrderStatus        `json:"status" bson:"status"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
}

// OrderItemRequest is one line of a checkout request.
type OrderItemRequest struct {
	Book     string `json:"book" validate:"required,objectid"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

// CreateOrderRequest is the JSON body for POST /api/orders. TotalPrice is
// accepted for backwards compatibility but ignored: the server always
// recomputes the total from current book prices.
type CreateOrderRequest struct {
	Items      []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	TotalPrice float64            `json:"totalPrice"`
}

// UpdateOrderStatusRequest is the JSON body for PUT /api/orders/{id}/status.
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=pending completed cancelled"`
}
