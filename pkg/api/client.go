package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/jfcardenas/storefront-core/pkg/errors"
)

const (
	defaultTimeout            = 10 * time.Second
	errorBodyReadLimit  int64 = 2048
	requestIDHeader           = "X-Request-Id"
	authorizationHeader       = "Authorization"
)

// Client wraps the storefront backend REST surface consumed by the managers.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds a backend client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("base url is required")
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Login authenticates an end user.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an end-user account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var resp RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/users/create", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListProducts fetches the catalog. The bearer token is optional.
func (c *Client) ListProducts(ctx context.Context, token string) ([]Product, error) {
	var resp []Product
	if err := c.do(ctx, http.MethodGet, "/api/v1/products/list-all", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// AddCartItem records a product addition server-side.
func (c *Client) AddCartItem(ctx context.Context, token string, req AddCartItemRequest) error {
	return c.do(ctx, http.MethodPost, "/api/v1/cart/items", token, req, nil)
}

// UpdateCartItem replaces the quantity for a product line.
func (c *Client) UpdateCartItem(ctx context.Context, token string, productID int64, quantity int) error {
	path := fmt.Sprintf("/api/v1/cart/items/%d", productID)
	return c.do(ctx, http.MethodPut, path, token, UpdateCartItemRequest{Quantity: quantity}, nil)
}

// RemoveCartItem deletes a product line.
func (c *Client) RemoveCartItem(ctx context.Context, token string, productID int64) error {
	path := fmt.Sprintf("/api/v1/cart/items/%d", productID)
	return c.do(ctx, http.MethodDelete, path, token, nil, nil)
}

// CartSummary fetches the authoritative cart state.
func (c *Client) CartSummary(ctx context.Context, token string) (*CartSummary, error) {
	var resp CartSummary
	if err := c.do(ctx, http.MethodGet, "/api/v1/cart/summary", token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProcessPayment submits the checkout payment and returns its reference.
func (c *Client) ProcessPayment(ctx context.Context, token string, req PaymentRequest) (*PaymentResponse, error) {
	var resp PaymentResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/payments/process", token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if token != "" {
		req.Header.Set(authorizationHeader, "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "execute request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return c.errorFromResponse(resp, path)
	}

	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "decode response")
	}
	return nil
}

func (c *Client) errorFromResponse(resp *http.Response, path string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))

	message := strings.TrimSpace(string(raw))
	var payload errorPayload
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		message = payload.Message
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, message)
	case http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return pkgerrors.New(pkgerrors.CodeValidation, message)
	case http.StatusConflict:
		return pkgerrors.New(pkgerrors.CodeConflict, message)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeTransport,
			fmt.Errorf("status %d: %s", resp.StatusCode, message),
			fmt.Sprintf("%s request failed", path))
	}
}
