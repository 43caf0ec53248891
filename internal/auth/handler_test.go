package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/klevisbr/bookstore-api/internal/auth"
	"github.com/klevisbr/bookstore-api/internal/models"
	"github.com/klevisbr/bookstore-api/internal/store"
)

type fakeUserStore struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byEmail: make(map[string]*models.User),
		byID:    make(map[string]*models.User),
	}
}

func (s *fakeUserStore) Create(_ context.Context, u *models.User) error {
	if _, ok := s.byEmail[u.Email]; ok {
		return store.ErrDuplicateEmail
	}
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now()
	s.byEmail[u.Email] = u
	s.byID[u.ID.Hex()] = u
	return nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

type fakeRefreshStore struct {
	live map[string]string
}

func newFakeRefreshStore() *fakeRefreshStore {
	return &fakeRefreshStore{live: make(map[string]string)}
}

func (s *fakeRefreshStore) Save(_ context.Context, jti, userID string, _ time.Duration) error {
	s.live[jti] = userID
	return nil
}

func (s *fakeRefreshStore) UserID(_ context.Context, jti string) (string, error) {
	return s.live[jti], nil
}

func (s *fakeRefreshStore) Revoke(_ context.Context, jti string) error {
	delete(s.live, jti)
	return nil
}

func newTestHandler(t *testing.T) (*auth.Handler, *fakeUserStore, *fakeRefreshStore, *auth.TokenService) {
	t.Helper()
	users := newFakeUserStore()
	refresh := newFakeRefreshStore()
	tokens := auth.NewTokenService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	return auth.NewHandler(users, tokens, refresh, false), users, refresh, tokens
}

func seedUser(t *testing.T, users *fakeUserStore, email, password string, role models.Role) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{Name: "Seed User", Email: email, Password: string(hash), Role: role}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func refreshCookieFrom(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "refreshToken" {
			return c
		}
	}
	return nil
}

func TestRegisterSuccess(t *testing.T) {
	h, _, refresh, _ := newTestHandler(t)

	w := postJSON(t, h.Register, "/api/auth/register", map[string]string{
		"name": "Arta", "email": "arta@example.com", "password": "secret123",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		AccessToken string          `json:"accessToken"`
		User        json.RawMessage `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotContains(t, string(resp.User), "password")

	cookie := refreshCookieFrom(t, w)
	require.NotNil(t, cookie, "refresh cookie must be set")
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/api/auth/refresh", cookie.Path)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.NotContains(t, w.Body.String(), cookie.Value, "refresh token must not appear in the body")
	assert.Len(t, refresh.live, 1)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, users, _, _ := newTestHandler(t)
	seedUser(t, users, "arta@example.com", "secret123", models.RoleUser)

	w := postJSON(t, h.Register, "/api/auth/register", map[string]string{
		"name": "Arta", "email": "arta@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	w := postJSON(t, h.Register, "/api/auth/register", map[string]string{
		"name": "Arta", "email": "arta@example.com", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Password")
}

func TestLogin(t *testing.T) {
	h, users, _, _ := newTestHandler(t)
	seedUser(t, users, "arta@example.com", "secret123", models.RoleUser)

	w := postJSON(t, h.Login, "/api/auth/login", map[string]string{
		"email": "arta@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(t, h.Login, "/api/auth/login", map[string]string{
		"email": "nobody@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(t, h.Login, "/api/auth/login", map[string]string{
		"email": "arta@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "accessToken")
	assert.NotNil(t, refreshCookieFrom(t, w))
}

func TestRefreshWithoutCookie(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	w := httptest.NewRecorder()
	h.Refresh(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	h, users, refresh, _ := newTestHandler(t)
	seedUser(t, users, "arta@example.com", "secret123", models.RoleUser)

	login := postJSON(t, h.Login, "/api/auth/login", map[string]string{
		"email": "arta@example.com", "password": "secret123",
	})
	cookie := refreshCookieFrom(t, login)
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	h.Refresh(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "accessToken")

	rotated := refreshCookieFrom(t, w)
	require.NotNil(t, rotated)
	assert.NotEqual(t, cookie.Value, rotated.Value)
	assert.Len(t, refresh.live, 1, "old jti revoked, new one live")

	// The original token was rotated out and must now be refused.
	req = httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	h.Refresh(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRefreshWithGarbageToken(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "garbage"})
	w := httptest.NewRecorder()
	h.Refresh(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	h, users, refresh, _ := newTestHandler(t)
	seedUser(t, users, "arta@example.com", "secret123", models.RoleUser)

	login := postJSON(t, h.Login, "/api/auth/login", map[string]string{
		"email": "arta@example.com", "password": "secret123",
	})
	cookie := refreshCookieFrom(t, login)
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	h.Logout(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, refresh.live)

	cleared := refreshCookieFrom(t, w)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)

	// A refresh with the revoked token must fail even though the JWT
	// itself is still within its lifetime.
	req = httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	h.Refresh(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
