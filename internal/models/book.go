package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Book is a catalog document in the books collection.
type Book struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Title       string              `json:"title" bson:"title"`
	Author      string              `json:"author" bson:"author"`
	Description string              `json:"description" bson:"description"`
	Price       float64             `json:"price" bson:"price"`
	Stock       int                 `json:"stock" bson:"stock"`
	Category    *primitive.ObjectID `json:"category,omitempty" bson:"category,omitempty"`
	CoverImage  string              `json:"coverImage,omitempty" bson:"cover_image,omitempty"`
	CoverKey    string              `json:"-" bson:"cover_key,omitempty"` // object key in MinIO
	CreatedAt   time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at" bson:"updated_at"`
}

// CreateBookRequest is the JSON body for POST /api/books.
// Price and Stock are pointers so an explicit zero passes the required rule.
type CreateBookRequest struct {
	Title       string   `json:"title" validate:"required,min=2,max=255"`
	Author      string   `json:"author" validate:"required,min=2,max=255"`
	Description string   `json:"description" validate:"required,min=5,max=2000"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Stock       *int     `json:"stock" validate:"required,gte=0"`
	Category    string   `json:"category" validate:"omitempty,objectid"`
	CoverImage  string   `json:"coverImage" validate:"omitempty,url"`
}

// UpdateBookRequest is the JSON body for PUT /api/books/{id}.
type UpdateBookRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=2,max=255"`
	Author      *string  `json:"author" validate:"omitempty,min=2,max=255"`
	Description *string  `json:"description" validate:"omitempty,min=5,max=2000"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0"`
	Category    *string  `json:"category" validate:"omitempty,objectid"`
	CoverImage  *string  `json:"coverImage" validate:"omitempty,url"`
}
