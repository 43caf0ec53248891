package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is a document in the categories collection.
type Category struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// CategoryRequest is the JSON body for POST and PUT on /api/categories.
type CategoryRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}
