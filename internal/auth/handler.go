package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/klevisbr/bookstore-api/internal/models"
	"github.com/klevisbr/bookstore-api/internal/store"
	"github.com/klevisbr/bookstore-api/internal/validate"
)

const (
	refreshCookie = "refreshToken"
	refreshPath   = "/api/auth/refresh"
)

// UserStore defines the user persistence the auth handlers need.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users        UserStore
	tokens       *TokenService
	refresh      RefreshStore
	cookieSecure bool
}

func NewHandler(users UserStore, tokens *TokenService, refresh RefreshStore, cookieSecure bool) *Handler {
	return &Handler{users: users, tokens: tokens, refresh: refresh, cookieSecure: cookieSecure}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// Register creates a new user account and signs it in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Role:     models.RoleUser,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "Email already registered")
			return
		}
		log.Printf("create user: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	h.signIn(w, r, user, http.StatusCreated)
}

// Login authenticates a user by email and password.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	h.signIn(w, r, user, http.StatusOK)
}

// signIn issues both tokens, records the refresh jti and sets the cookie.
// The refresh token never appears in a JSON body.
func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, user *models.User, status int) {
	accessToken, err := h.tokens.IssueAccess(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	refreshToken, jti, err := h.tokens.IssueRefresh(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	if err := h.refresh.Save(r.Context(), jti, user.ID.Hex(), h.tokens.RefreshTTL()); err != nil {
		log.Printf("save refresh jti: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.setRefreshCookie(w, refreshToken, h.tokens.RefreshTTL())
	writeJSON(w, status, map[string]interface{}{
		"accessToken": accessToken,
		"user":        user,
	})
}

// Refresh mints a new access token from the refresh cookie and rotates
// the refresh token.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookie)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "No refresh token")
		return
	}

	claims, err := h.tokens.VerifyRefresh(cookie.Value)
	if err != nil {
		writeError(w, http.StatusForbidden, "Invalid refresh token")
		return
	}
	userID, err := h.refresh.UserID(r.Context(), claims.ID)
	if err != nil || userID == "" {
		writeError(w, http.StatusForbidden, "Invalid refresh token")
		return
	}

	user, err := h.users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusForbidden, "Invalid refresh token")
		return
	}

	accessToken, err := h.tokens.IssueAccess(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	// Rotate: the old jti is revoked and a fresh refresh token replaces it.
	newRefresh, jti, err := h.tokens.IssueRefresh(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	if err := h.refresh.Save(r.Context(), jti, user.ID.Hex(), h.tokens.RefreshTTL()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	if err := h.refresh.Revoke(r.Context(), claims.ID); err != nil {
		log.Printf("revoke refresh jti: %v", err)
	}

	h.setRefreshCookie(w, newRefresh, h.tokens.RefreshTTL())
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": accessToken})
}

// Logout revokes the refresh token server-side and clears the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(refreshCookie); err == nil {
		if claims, err := h.tokens.VerifyRefresh(cookie.Value); err == nil {
			if err := h.refresh.Revoke(r.Context(), claims.ID); err != nil {
				log.Printf("revoke refresh jti: %v", err)
			}
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Path:     refreshPath,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.cookieSecure,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    token,
		Path:     refreshPath,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.cookieSecure,
		MaxAge:   int(ttl / time.Second),
	})
}
