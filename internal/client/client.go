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
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"lifeboard/internal/habit"
	"lifeboard/internal/model"
	"lifeboard/internal/service"
	"lifeboard/pkg/circuitbreaker"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client talks to the lifeboard HTTP API with a bearer token. Server errors
// and transport failures trip its circuit breaker; 4xx responses do not.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	breaker *circuitbreaker.CircuitBreaker
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

func New(baseURL, token string, opts ...Option) *Client {
	cfg := circuitbreaker.DefaultConfig()
	cfg.IsFailure = isServerFailure
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
		breaker: circuitbreaker.New(cfg),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func isServerFailure(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	return true
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.roundTrip(ctx, method, path, query, body, out)
	})
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + "/api" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		if payload.Error == "" {
			payload.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: payload.Error}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) ListHabits(ctx context.Context) ([]model.Habit, error) {
	var out struct {
		Habits []model.Habit `json:"habits"`
	}
	if err := c.do(ctx, http.MethodGet, "/habits", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Habits, nil
}

func (c *Client) HabitStats(ctx context.Context) (*service.HabitStats, error) {
	var out service.HabitStats
	if err := c.do(ctx, http.MethodGet, "/habits/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ToggleHabit toggles habitID on date, or on the server's today when date is nil.
func (c *Client) ToggleHabit(ctx context.Context, habitID int64, date *civil.Date) (*habit.Result, error) {
	body := map[string]any{}
	if date != nil {
		body["date"] = date.String()
	}
	var out habit.Result
	path := "/habits/" + strconv.FormatInt(habitID, 10) + "/toggle"
	if err := c.do(ctx, http.MethodPost, path, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListTasks(ctx context.Context, filter model.TaskFilter, q string) ([]model.Task, error) {
	query := url.Values{}
	if filter != "" {
		query.Set("filter", string(filter))
	}
	if q != "" {
		query.Set("q", q)
	}
	var out struct {
		Tasks []model.Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, "/tasks", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

func (c *Client) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	var out model.Dashboard
	if err := c.do(ctx, http.MethodGet, "/dashboard", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
