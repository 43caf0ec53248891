// Package orders holds checkout and order-management HTTP handlers.
package orders

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/klevisbr/bookstore-api/internal/middleware"
	"github.com/klevisbr/bookstore-api/internal/models"
	"github.com/klevisbr/bookstore-api/internal/store"
	"github.com/klevisbr/bookstore-api/internal/validate"
)

// OrderStore defines the order persistence the handlers need.
type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	List(ctx context.Context) ([]models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)
	Delete(ctx context.Context, id string) error
}

// BookCatalog is the slice of the book store checkout needs: current
// prices and stock reservation.
type BookCatalog interface {
	GetByID(ctx context.Context, id string) (*models.Book, error)
	ReserveStock(ctx context.Context, id string, qty int) error
	ReleaseStock(ctx context.Context, id string, qty int) error
}

// Handler holds order HTTP handlers.
type Handler struct {
	orders OrderStore
	books  BookCatalog
}

func NewHandler(orders OrderStore, books BookCatalog) *Handler {
	return &Handler{orders: orders, books: books}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeStoreError(w http.ResponseWriter, err error, entity string) {
	switch {
	case errors.Is(err, store.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "Invalid "+entity+" ID")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, entity+" not found")
	default:
		log.Printf("%s store: %v", entity, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// Create places an order for the authenticated user. The total is always
// recomputed from current book prices and stock is reserved per line; a
// client-submitted total is ignored.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID, err := primitive.ObjectIDFromHex(middleware.UserID(r))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	// Merge duplicate book lines so each book is priced and reserved once.
	quantities := make(map[string]int, len(req.Items))
	ids := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if _, seen := quantities[item.Book]; !seen {
			ids = append(ids, item.Book)
		}
		quantities[item.Book] += item.Quantity
	}

	// Current prices, fetched concurrently.
	books := make([]*models.Book, len(ids))
	g, gctx := errgroup.WithContext(r.Context())
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			b, err := h.books.GetByID(gctx, id)
			if err != nil {
				return err
			}
			books[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		writeStoreError(w, err, "Book")
		return
	}

	// Reserve stock line by line; on failure, release what was already
	// reserved. Reservations are per-document conditional decrements, so
	// concurrent checkouts cannot oversell.
	reserved := make([]string, 0, len(ids))
	release := func() {
		for _, id := range reserved {
			if err := h.books.ReleaseStock(r.Context(), id, quantities[id]); err != nil {
				log.Printf("release stock %s: %v", id, err)
			}
		}
	}
	for _, id := range ids {
		if err := h.books.ReserveStock(r.Context(), id, quantities[id]); err != nil {
			release()
			if errors.Is(err, store.ErrInsufficientStock) {
				writeError(w, http.StatusConflict, "Insufficient stock")
				return
			}
			writeStoreError(w, err, "Book")
			return
		}
		reserved = append(reserved, id)
	}

	var total float64
	items := make([]models.OrderItem, 0, len(ids))
	for i, id := range ids {
		qty := quantities[id]
		items = append(items, models.OrderItem{
			Book:     books[i].ID,
			Quantity: qty,
			Price:    books[i].Price,
			Title:    books[i].Title,
		})
		total += books[i].Price * float64(qty)
	}

	order := &models.Order{
		User:       userID,
		Items:      items,
		TotalPrice: total,
		Status:     models.OrderPending,
	}
	if err := h.orders.Create(r.Context(), order); err != nil {
		release()
		writeStoreError(w, err, "Order")
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// ListMine returns the authenticated user's orders, newest first.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListByUser(r.Context(), middleware.UserID(r))
	if err != nil {
		writeStoreError(w, err, "Order")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// List returns all orders. Admin only.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		writeStoreError(w, err, "Order")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// Get returns a single order. Admin only.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err, "Order")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// UpdateStatus sets an order's status. Moving into cancelled restocks the
// order's items once.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	prev, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeStoreError(w, err, "Order")
		return
	}

	if req.Status == models.OrderCancelled && prev.Status != models.OrderCancelled {
		for _, item := range prev.Items {
			if err := h.books.ReleaseStock(r.Context(), item.Book.Hex(), item.Quantity); err != nil {
				log.Printf("restock %s: %v", item.Book.Hex(), err)
			}
		}
	}

	order := *prev
	order.Status = req.Status
	writeJSON(w, http.StatusOK, &order)
}

// Delete removes an order. Admin only.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err, "Order")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Order deleted successfully"})
}
