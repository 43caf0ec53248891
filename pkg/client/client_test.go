package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klevisbr/bookstore-api/pkg/client"
)

// newTestServer wires a minimal stand-in for the API: login issues a
// token and refresh cookie, protected routes check the Bearer header.
func newTestServer(t *testing.T) (*httptest.Server, *serverState) {
	t.Helper()
	state := &serverState{token: "access-token-1"}

	r := chi.NewRouter()
	r.Post("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "password123" {
			writeMsg(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     "refreshToken",
			Value:    "refresh-1",
			Path:     "/api/auth/refresh",
			HttpOnly: true,
		})
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"accessToken": state.token,
			"user":        map[string]string{"id": "u1", "name": "Alice", "email": body.Email, "role": "user"},
		})
	})
	r.Post("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("refreshToken")
		if err != nil {
			writeMsg(w, http.StatusUnauthorized, "No refresh token")
			return
		}
		state.refreshed = cookie.Value
		writeJSON(w, http.StatusOK, map[string]string{"accessToken": "access-token-2"})
	})
	r.Post("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
	})
	r.Get("/api/books", func(w http.ResponseWriter, r *http.Request) {
		state.lastQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, []map[string]interface{}{
			{"id": "b1", "title": "Learn Go", "price": 19.99, "stock": 10},
		})
	})
	r.Post("/api/orders", func(w http.ResponseWriter, r *http.Request) {
		state.lastAuth = r.Header.Get("Authorization")
		if state.lastAuth == "" {
			writeMsg(w, http.StatusUnauthorized, "Authorization header required")
			return
		}
		var body struct {
			Items []map[string]interface{} `json:"items"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if len(body.Items) == 0 {
			writeMsg(w, http.StatusBadRequest, "Items are required")
			return
		}
		state.orderItems = body.Items
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"id": "o1", "user": "u1", "totalPrice": 39.98, "status": "pending",
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, state
}

type serverState struct {
	token      string
	refreshed  string
	lastAuth   string
	lastQuery  string
	orderItems []map[string]interface{}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func newClient(t *testing.T, srv *httptest.Server) (*client.Client, *client.Session, client.Storage) {
	t.Helper()
	storage := client.NewMemStorage()
	session := client.NewSession(storage)
	return client.New(srv.URL, session), session, storage
}

func TestLoginCachesSession(t *testing.T) {
	srv, _ := newTestServer(t)
	c, session, _ := newClient(t, srv)

	user, err := c.Login(context.Background(), "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "access-token-1", session.Token())
	require.NotNil(t, session.User())
	assert.Equal(t, "alice@example.com", session.User().Email)
}

func TestLoginFailureSurfacesAPIError(t *testing.T) {
	srv, _ := newTestServer(t)
	c, session, _ := newClient(t, srv)

	_, err := c.Login(context.Background(), "alice@example.com", "wrong")
	require.Error(t, err)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.Empty(t, session.Token())
}

func TestRefreshSendsCookieAndUpdatesToken(t *testing.T) {
	srv, state := newTestServer(t)
	c, session, _ := newClient(t, srv)

	_, err := c.Login(context.Background(), "alice@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, "refresh-1", state.refreshed)
	assert.Equal(t, "access-token-2", session.Token())
	require.NotNil(t, session.User())
}

func TestBooksQueryParameters(t *testing.T) {
	srv, state := newTestServer(t)
	c, _, _ := newClient(t, srv)

	books, err := c.Books(context.Background(), client.ListBooksOptions{
		Category: "cat1", Query: "go", Page: 2, Limit: 5,
	})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Learn Go", books[0].Title)

	assert.Contains(t, state.lastQuery, "category=cat1")
	assert.Contains(t, state.lastQuery, "q=go")
	assert.Contains(t, state.lastQuery, "page=2")
	assert.Contains(t, state.lastQuery, "limit=5")
}

func TestCheckoutSendsCartAndClearsIt(t *testing.T) {
	srv, state := newTestServer(t)
	c, _, storage := newClient(t, srv)

	_, err := c.Login(context.Background(), "alice@example.com", "password123")
	require.NoError(t, err)

	cart := client.NewCart(storage)
	require.NoError(t, cart.Add("b1", "Learn Go", 19.99))
	require.NoError(t, cart.Add("b1", "Learn Go", 19.99))

	order, err := c.Checkout(context.Background(), cart)
	require.NoError(t, err)
	assert.Equal(t, "pending", order.Status)
	assert.InDelta(t, 39.98, order.TotalPrice, 1e-9)

	assert.Equal(t, "Bearer access-token-1", state.lastAuth)
	require.Len(t, state.orderItems, 1)
	assert.Equal(t, "b1", state.orderItems[0]["book"])
	assert.EqualValues(t, 2, state.orderItems[0]["quantity"])

	assert.Empty(t, cart.Items())
}

func TestLogoutClearsSessionNotCart(t *testing.T) {
	srv, _ := newTestServer(t)
	c, session, storage := newClient(t, srv)

	_, err := c.Login(context.Background(), "alice@example.com", "password123")
	require.NoError(t, err)

	cart := client.NewCart(storage)
	require.NoError(t, cart.Add("b1", "Learn Go", 19.99))

	require.NoError(t, c.Logout(context.Background()))
	assert.Nil(t, session.User())
	assert.Empty(t, session.Token())

	reloaded := client.NewCart(storage)
	assert.Len(t, reloaded.Items(), 1)
}
