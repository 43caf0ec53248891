package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"
)

// Book mirrors the server's book JSON.
type Book struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Category    string  `json:"category,omitempty"`
	CoverImage  string  `json:"coverImage,omitempty"`
}

// Category mirrors the server's category JSON.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OrderItem mirrors one order line.
type OrderItem struct {
	Book     string  `json:"book"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Title    string  `json:"title"`
}

// Order mirrors the server's order JSON.
type Order struct {
	ID         string      `json:"id"`
	User       string      `json:"user"`
	Items      []OrderItem `json:"items"`
	TotalPrice float64     `json:"totalPrice"`
	Status     string      `json:"status"`
}

// APIError is a non-2xx response decoded from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// ListBooksOptions are the query parameters of GET /api/books.
type ListBooksOptions struct {
	Category string
	Query    string
	Page     int
	Limit    int
}

type authResponse struct {
	AccessToken string `json:"accessToken"`
	User        *User  `json:"user"`
}

// Client talks to the bookstore API. The cookie jar carries the refresh
// cookie; the session cache supplies the Bearer access token.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
}

// New builds a client rooted at baseURL with the given session cache.
func New(baseURL string, session *Session) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Jar:     jar,
			Timeout: 15 * time.Second,
		},
		session: session,
	}
}

// Session exposes the session cache.
func (c *Client) Session() *Session {
	return c.session
}

// Register creates an account and caches the returned identity and token.
func (c *Client) Register(ctx context.Context, name, email, password string) (*User, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", body, &resp); err != nil {
		return nil, err
	}
	if err := c.session.Set(resp.User, resp.AccessToken); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Login signs in and caches the returned identity and token.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	body := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return nil, err
	}
	if err := c.session.Set(resp.User, resp.AccessToken); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Refresh trades the refresh cookie for a new access token.
func (c *Client) Refresh(ctx context.Context) error {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh", nil, &resp); err != nil {
		return err
	}
	return c.session.SetToken(resp.AccessToken)
}

// Logout tells the server to drop the refresh token and clears the local
// session. The cart deliberately survives.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
		return err
	}
	return c.session.Clear()
}

// Books lists the catalog.
func (c *Client) Books(ctx context.Context, opts ListBooksOptions) ([]Book, error) {
	q := url.Values{}
	if opts.Category != "" {
		q.Set("category", opts.Category)
	}
	if opts.Query != "" {
		q.Set("q", opts.Query)
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	path := "/api/books"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var books []Book
	if err := c.do(ctx, http.MethodGet, path, nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// Book fetches a single book by id.
func (c *Client) Book(ctx context.Context, id string) (*Book, error) {
	var book Book
	if err := c.do(ctx, http.MethodGet, "/api/books/"+id, nil, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// Categories lists all categories.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var cats []Category
	if err := c.do(ctx, http.MethodGet, "/api/categories", nil, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// Checkout places an order from the cart's lines and empties the cart on
// success. The server prices the order; the local total is display-only.
func (c *Client) Checkout(ctx context.Context, cart *Cart) (*Order, error) {
	lines := cart.Items()
	items := make([]map[string]interface{}, 0, len(lines))
	for _, line := range lines {
		items = append(items, map[string]interface{}{
			"book":     line.BookID,
			"quantity": line.Quantity,
		})
	}
	var order Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", map[string]interface{}{"items": items}, &order); err != nil {
		return nil, err
	}
	if err := cart.Clear(); err != nil {
		return &order, err
	}
	return &order, nil
}

// MyOrders lists the signed-in user's orders.
func (c *Client) MyOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/my", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&msg); err == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
