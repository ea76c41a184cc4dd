// Package usuariosclient is a typed client for the /api/usuarios endpoints.
package usuariosclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type User struct {
	ID          int64     `json:"id"`
	Nome        string    `json:"nome"`
	Email       string    `json:"email"`
	DataCriacao time.Time `json:"dataCriacao"`
}

type InsertRequest struct {
	Nome  string `json:"nome"`
	Email string `json:"email"`
	Senha string `json:"senha"`
}

type EditRequest struct {
	ID    int64  `json:"id"`
	Nome  string `json:"nome"`
	Email string `json:"email"`
}

var (
	ErrNotFound     = errors.New("usuario not found")
	ErrUnauthorized = errors.New("not authenticated")
)

// APIError is a non-2xx response. Details holds the per-field validation messages when present.
type APIError struct {
	Status    int
	Message   string
	Details   map[string]string
	RequestID string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("api: %d %s", e.Status, e.Message)
	if len(e.Details) > 0 {
		parts := make([]string, 0, len(e.Details))
		for k, v := range e.Details {
			parts = append(parts, k+": "+v)
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	return msg
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

type envelope[T any] struct {
	Status    int             `json:"status"`
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      T               `json:"data"`
	Error     json.RawMessage `json:"error"`
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New expects the API root, e.g. http://localhost:8080. Pass an http.Client whose transport
// attaches bearer tokens.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: httpClient}
}

func (c *Client) List(ctx context.Context) ([]User, error) {
	var out []User
	if err := do(ctx, c, http.MethodGet, "/api/usuarios", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []User{}
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, id int64) (User, error) {
	var out User
	err := do(ctx, c, http.MethodGet, "/api/usuarios/"+strconv.FormatInt(id, 10), nil, &out)
	return out, err
}

func (c *Client) Insert(ctx context.Context, req InsertRequest) (User, error) {
	var out User
	err := do(ctx, c, http.MethodPost, "/api/usuarios", req, &out)
	return out, err
}

// Edit sends PUT /api/usuarios with the id in the body.
func (c *Client) Edit(ctx context.Context, req EditRequest) (User, error) {
	var out User
	err := do(ctx, c, http.MethodPut, "/api/usuarios", req, &out)
	return out, err
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return do[struct{}](ctx, c, http.MethodDelete, "/api/usuarios/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) Search(ctx context.Context, q string, size int) ([]User, error) {
	v := url.Values{"q": {q}}
	if size > 0 {
		v.Set("size", strconv.Itoa(size))
	}
	var out []User
	if err := do(ctx, c, http.MethodGet, "/api/usuarios/search?"+v.Encode(), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []User{}
	}
	return out, nil
}

func do[T any](ctx context.Context, c *Client, method, path string, body any, dest *T) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	var env envelope[T]
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if decodeErr == nil {
			if env.Message != "" {
				apiErr.Message = env.Message
			}
			apiErr.RequestID = env.RequestID
			_ = json.Unmarshal(env.Error, &apiErr.Details)
		}
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, decodeErr)
	}
	if dest != nil {
		*dest = env.Data
	}
	return nil
}
