package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/klevisbr/bookstore-api/internal/models"
)

// BookFilter selects and pages a book listing.
type BookFilter struct {
	Category string // exact category id
	Query    string // case-insensitive substring match on title
	Page     int64  // 1-based
	Limit    int64
}

// BookStore handles book CRUD in MongoDB.
type BookStore struct {
	col *mongo.Collection
}

func NewBookStore(db *mongo.Database) *BookStore {
	return &BookStore{col: db.Collection("books")}
}

func (s *BookStore) List(ctx context.Context, f BookFilter) ([]models.Book, error) {
	filter := bson.M{}
	if f.Category != "" {
		oid, err := parseID(f.Category)
		if err != nil {
			return nil, err
		}
		filter["category"] = oid
	}
	if f.Query != "" {
		filter["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var books []models.Book
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (s *BookStore) GetByID(ctx context.Context, id string) (*models.Book, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var b models.Book
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (s *BookStore) Create(ctx context.Context, b *models.Book) error {
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	res, err := s.col.InsertOne(ctx, b)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	b.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *BookStore) Update(ctx context.Context, id string, req *models.UpdateBookRequest) (*models.Book, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now()}
	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.Author != nil {
		set["author"] = *req.Author
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Price != nil {
		set["price"] = *req.Price
	}
	if req.Stock != nil {
		set["stock"] = *req.Stock
	}
	if req.Category != nil {
		catID, err := parseID(*req.Category)
		if err != nil {
			return nil, err
		}
		set["category"] = catID
	}
	if req.CoverImage != nil {
		set["cover_image"] = *req.CoverImage
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var b models.Book
	err = s.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// SetCover records the stored cover object key and public URL.
func (s *BookStore) SetCover(ctx context.Context, id, key, url string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{"cover_key": key, "cover_image": url, "updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *BookStore) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ReserveStock decrements stock by qty only when at least qty is on hand.
// The filter and $inc run as one document update, so concurrent checkouts
// cannot drive stock negative.
func (s *BookStore) ReserveStock(ctx context.Context, id string, qty int) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": oid, "stock": bson.M{"$gte": qty}},
		bson.M{"$inc": bson.M{"stock": -qty}},
	)
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		// Distinguish a missing book from one that is simply out of stock.
		if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Err(); errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

// ReleaseStock returns qty units, compensating a failed or cancelled order.
func (s *BookStore) ReleaseStock(ctx context.Context, id string, qty int) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	_, err = s.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"stock": qty}})
	return err
}
