// Package client provides an HTTP client for the spendwise API, used by the
// terminal Client View.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
)

// APIError is an error envelope returned by the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Violations []apperrors.FieldViolation
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// User is the account returned on login.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session is the result of a login or refresh.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// ExpenseInput is the body of create and update requests.
type ExpenseInput struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"` // YYYY-MM-DD or RFC3339
}

// ListQuery narrows ListExpenses. Empty fields are omitted.
type ListQuery struct {
	Category  string
	StartDate string
	EndDate   string
	MinAmount string
	MaxAmount string
	Sort      string
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("category", q.Category)
	set("startDate", q.StartDate)
	set("endDate", q.EndDate)
	set("minAmount", q.MinAmount)
	set("maxAmount", q.MaxAmount)
	set("sort", q.Sort)
	return v
}

// BatchDeleteResult reports which of the requested ids were removed.
type BatchDeleteResult struct {
	DeletedCount int      `json:"deleted_count"`
	DeletedIDs   []string `json:"deleted_ids"`
}

type envelope struct {
	Status  string                     `json:"status"`
	Data    json.RawMessage            `json:"data"`
	Code    string                     `json:"code"`
	Message string                     `json:"message"`
	Errors  []apperrors.FieldViolation `json:"errors"`
}

// Client communicates with the spendwise API on behalf of one user.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu      sync.RWMutex
	session Session
}

// New creates a client. A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// SetToken uses an existing access token instead of logging in.
func (c *Client) SetToken(accessToken string) {
	c.mu.Lock()
	c.session.AccessToken = accessToken
	c.mu.Unlock()
}

// Session returns the current tokens and user.
func (c *Client) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session.AccessToken
}

// Login exchanges credentials for tokens and keeps them for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &s); err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	return &s, nil
}

// Refresh rotates the session using the stored refresh token.
func (c *Client) Refresh(ctx context.Context) (*Session, error) {
	body := struct {
		RefreshToken string `json:"refresh_token"`
	}{RefreshToken: c.Session().RefreshToken}

	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh", body, &s); err != nil {
		return nil, fmt.Errorf("refreshing session: %w", err)
	}
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	return &s, nil
}

// ListExpenses fetches the caller's expenses matching q.
func (c *Client) ListExpenses(ctx context.Context, q ListQuery) ([]models.Expense, error) {
	path := "/api/expenses"
	if v := q.values(); len(v) > 0 {
		path += "?" + v.Encode()
	}
	expenses := []models.Expense{}
	if err := c.do(ctx, http.MethodGet, path, nil, &expenses); err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	return expenses, nil
}

// GetExpense fetches one expense.
func (c *Client) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	var e models.Expense
	if err := c.do(ctx, http.MethodGet, "/api/expenses/"+url.PathEscape(id), nil, &e); err != nil {
		return nil, fmt.Errorf("fetching expense: %w", err)
	}
	return &e, nil
}

// CreateExpense stores a new expense and returns the server's record.
func (c *Client) CreateExpense(ctx context.Context, in ExpenseInput) (*models.Expense, error) {
	var e models.Expense
	if err := c.do(ctx, http.MethodPost, "/api/expenses", in, &e); err != nil {
		return nil, fmt.Errorf("creating expense: %w", err)
	}
	return &e, nil
}

// UpdateExpense replaces an expense's fields.
func (c *Client) UpdateExpense(ctx context.Context, id string, in ExpenseInput) (*models.Expense, error) {
	var e models.Expense
	if err := c.do(ctx, http.MethodPut, "/api/expenses/"+url.PathEscape(id), in, &e); err != nil {
		return nil, fmt.Errorf("updating expense: %w", err)
	}
	return &e, nil
}

// DeleteExpense removes one expense.
func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/expenses/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}
	return nil
}

// DeleteExpenses removes every owned expense among ids.
func (c *Client) DeleteExpenses(ctx context.Context, ids []string) (*BatchDeleteResult, error) {
	body := struct {
		IDs []string `json:"ids"`
	}{IDs: ids}

	var result BatchDeleteResult
	if err := c.do(ctx, http.MethodDelete, "/api/expenses/batch/delete", body, &result); err != nil {
		return nil, fmt.Errorf("deleting expenses: %w", err)
	}
	return &result, nil
}

// Categories fetches the caller's categories.
func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := c.do(ctx, http.MethodGet, "/api/categories", nil, &categories); err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return categories, nil
}

// CreateCategory stores a new category.
func (c *Client) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	body := struct {
		Name string `json:"name"`
	}{Name: name}

	var cat models.Category
	if err := c.do(ctx, http.MethodPost, "/api/categories", body, &cat); err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}
	return &cat, nil
}

// DeleteCategory removes one category.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/categories/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	return nil
}

// do sends body as JSON and decodes the data member of the success envelope
// into out. Error envelopes become *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.accessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Code = env.Code
			apiErr.Message = env.Message
			apiErr.Violations = env.Errors
		}
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("decoding response: %w", decodeErr)
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}
	return nil
}
