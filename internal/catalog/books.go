// Package catalog holds the public/admin HTTP handlers for books and
// categories.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/klevisbr/bookstore-api/internal/models"
	"github.com/klevisbr/bookstore-api/internal/store"
	"github.com/klevisbr/bookstore-api/internal/validate"
)

const maxCoverSize = 8 << 20 // 8 MiB

// BookStore defines the book persistence the handlers need.
type BookStore interface {
	List(ctx context.Context, f store.BookFilter) ([]models.Book, error)
	GetByID(ctx context.Context, id string) (*models.Book, error)
	Create(ctx context.Context, b *models.Book) error
	Update(ctx context.Context, id string, req *models.UpdateBookRequest) (*models.Book, error)
	SetCover(ctx context.Context, id, key, url string) error
	Delete(ctx context.Context, id string) error
}

// CoverStore defines the object storage for cover images.
type CoverStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
	Remove(ctx context.Context, key string) error
}

// Handler holds catalog HTTP handlers.
type Handler struct {
	books      BookStore
	categories CategoryStore
	covers     CoverStore
}

func NewHandler(books BookStore, categories CategoryStore, covers CoverStore) *Handler {
	return &Handler{books: books, categories: categories, covers: covers}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeStoreError maps store sentinels onto the error taxonomy.
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

// ListBooks returns books with optional category/title filters and
// pagination (page default 1, limit default 10).
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.BookFilter{
		Category: q.Get("category"),
		Query:    q.Get("q"),
		Page:     1,
		Limit:    10,
	}
	if p, err := strconv.ParseInt(q.Get("page"), 10, 64); err == nil && p > 0 {
		f.Page = p
	}
	if l, err := strconv.ParseInt(q.Get("limit"), 10, 64); err == nil && l > 0 {
		f.Limit = l
	}

	books, err := h.books.List(r.Context(), f)
	if err != nil {
		writeStoreError(w, err, "Book")
		return
	}
	if books == nil {
		books = []models.Book{}
	}
	writeJSON(w, http.StatusOK, books)
}

func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.books.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err, "Book")
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	book := &models.Book{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		Price:       *req.Price,
		Stock:       *req.Stock,
		CoverImage:  req.CoverImage,
	}
	if req.Category != "" {
		oid, _ := primitive.ObjectIDFromHex(req.Category) // format checked by validation
		book.Category = &oid
	}

	if err := h.books.Create(r.Context(), book); err != nil {
		writeStoreError(w, err, "Book")
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

func (h *Handler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	book, err := h.books.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeStoreError(w, err, "Book")
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *Handler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	book, err := h.books.GetByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "Book")
		return
	}

	if err := h.books.Delete(r.Context(), id); err != nil {
		writeStoreError(w, err, "Book")
		return
	}
	if book.CoverKey != "" {
		if err := h.covers.Remove(r.Context(), book.CoverKey); err != nil {
			log.Printf("remove cover %s: %v", book.CoverKey, err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Book deleted successfully"})
}

// UploadCover stores a cover image for a book. Multipart field name: cover.
func (h *Handler) UploadCover(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.books.GetByID(r.Context(), id); err != nil {
		writeStoreError(w, err, "Book")
		return
	}

	if err := r.ParseMultipartForm(maxCoverSize); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("cover")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Cover file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "Cover must be an image")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxCoverSize))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read cover")
		return
	}

	key := fmt.Sprintf("covers/%s", id)
	if err := h.covers.Upload(r.Context(), key, data, contentType); err != nil {
		log.Printf("upload cover %s: %v", key, err)
		writeError(w, http.StatusInternalServerError, "Failed to store cover")
		return
	}

	url := fmt.Sprintf("/api/books/%s/cover", id)
	if err := h.books.SetCover(r.Context(), id, key, url); err != nil {
		writeStoreError(w, err, "Book")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"coverImage": url})
}

// GetCover streams the cover image for a book.
func (h *Handler) GetCover(w http.ResponseWriter, r *http.Request) {
	book, err := h.books.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err, "Book")
		return
	}
	if book.CoverKey == "" {
		writeError(w, http.StatusNotFound, "Cover not found")
		return
	}

	data, contentType, err := h.covers.Download(r.Context(), book.CoverKey)
	if err != nil {
		log.Printf("download cover %s: %v", book.CoverKey, err)
		writeError(w, http.StatusInternalServerError, "Failed to load cover")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}
