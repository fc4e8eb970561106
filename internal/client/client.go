// Package client talks to the cashbook API over HTTP and keeps the signed-in
// user's session and sheets in memory.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"cashbook/internal/model"
)

const (
	defaultTimeout    = 15 * time.Second
	sessionCookieName = "token"
)

// Client is a thin HTTP binding of the cashbook API. The session cookie is
// kept in the client's cookie jar and never exposed.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A cookie jar is added
// when the given client has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New builds a Client for the API rooted at baseURL, e.g. http://localhost:5000.
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	return c, nil
}

// Identity is the user behind the current session cookie.
type Identity struct {
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Message string    `json:"message"`
	UserID  uuid.UUID `json:"userId"`
}

type sheetPayload struct {
	SheetName    string              `json:"sheetName"`
	Transactions []model.Transaction `json:"transactions"`
	Totals       model.Totals        `json:"totals"`
}

type sheetCreated struct {
	SheetID uuid.UUID `json:"sheetId"`
}

// Signup creates a user and stores the session cookie.
func (c *Client) Signup(ctx context.Context, username, password string) (uuid.UUID, error) {
	var out sessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/signup", credentials{username, password}, &out); err != nil {
		return uuid.Nil, err
	}
	return out.UserID, nil
}

// Login opens a session and stores the session cookie.
func (c *Client) Login(ctx context.Context, username, password string) (uuid.UUID, error) {
	var out sessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/login", credentials{username, password}, &out); err != nil {
		return uuid.Nil, err
	}
	return out.UserID, nil
}

// Me reports who the session cookie belongs to.
func (c *Client) Me(ctx context.Context) (*Identity, error) {
	var out Identity
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout asks the server to clear the session cookie.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
}

// ListSheets returns every sheet owned by userID.
func (c *Client) ListSheets(ctx context.Context, userID uuid.UUID) ([]model.Sheet, error) {
	var out []model.Sheet
	if err := c.do(ctx, http.MethodGet, "/api/sheets/"+userID.String(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSheet fetches one sheet.
func (c *Client) GetSheet(ctx context.Context, sheetID uuid.UUID) (*model.Sheet, error) {
	var out model.Sheet
	if err := c.do(ctx, http.MethodGet, "/api/sheet/"+sheetID.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSheet stores a new sheet for the session user.
func (c *Client) CreateSheet(ctx context.Context, name string, txs []model.Transaction, totals model.Totals) (uuid.UUID, error) {
	var out sheetCreated
	payload := sheetPayload{SheetName: name, Transactions: nonNil(txs), Totals: totals}
	if err := c.do(ctx, http.MethodPost, "/api/sheets", payload, &out); err != nil {
		return uuid.Nil, err
	}
	return out.SheetID, nil
}

// ReplaceSheet overwrites the name, transactions and totals of a sheet.
func (c *Client) ReplaceSheet(ctx context.Context, sheetID uuid.UUID, name string, txs []model.Transaction, totals model.Totals) error {
	payload := sheetPayload{SheetName: name, Transactions: nonNil(txs), Totals: totals}
	return c.do(ctx, http.MethodPut, "/api/sheets/"+sheetID.String(), payload, nil)
}

// DeleteSheet removes a sheet.
func (c *Client) DeleteSheet(ctx context.Context, sheetID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/sheets/"+sheetID.String(), nil, nil)
}

// forgetSession expires the session cookie held for the API.
func (c *Client) forgetSession() {
	u, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return
	}
	c.http.Jar.SetCookies(u, []*http.Cookie{{Name: sessionCookieName, Value: "", Path: "/", MaxAge: -1}})
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		// the body is informational only
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func nonNil(txs []model.Transaction) []model.Transaction {
	if txs == nil {
		return []model.Transaction{}
	}
	return txs
}
