package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Config holds API client configuration.
type Config struct {
	BaseURL  string
	Role     string // "user" or "employee": selects which session token is attached
	Sessions *SessionStore
	Logger   *slog.Logger

	// HTTPClient is optional; a client with a 15s timeout is used when nil.
	HTTPClient *http.Client

	// OnUnauthorized fires once per 401 response, after the role's
	// session has been cleared. The embedding UI navigates to the
	// welcome screen and shows an "unauthorized" notice here.
	OnUnauthorized func(role string)
}

// Client issues authenticated requests against the instant-job API.
// Every outbound request carries the role's bearer token; any 401
// response clears the persisted session for that role and fires the
// OnUnauthorized callback. No endpoint bypasses this.
type Client struct {
	baseURL        string
	role           string
	sessions       *SessionStore
	httpClient     *http.Client
	logger         *slog.Logger
	onUnauthorized func(role string)
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Role != SessionKeyUser && cfg.Role != SessionKeyEmployee {
		return nil, fmt.Errorf("invalid role: %q", cfg.Role)
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		role:           cfg.Role,
		sessions:       cfg.Sessions,
		httpClient:     httpClient,
		logger:         logger,
		onUnauthorized: cfg.OnUnauthorized,
	}, nil
}

// Role returns the role whose token this client attaches.
func (c *Client) Role() string {
	return c.role
}

// GetJob fetches a job's detail, with the caller's own application
// embedded when one exists.
func (c *Client) GetJob(ctx context.Context, jobID int64) (*Job, error) {
	var job Job
	path := fmt.Sprintf("/api/v1/instant_jobs/%d", jobID)
	if err := c.do(ctx, http.MethodGet, path, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListApplications fetches the poster's view of a job's applications.
func (c *Client) ListApplications(ctx context.Context, jobID int64) ([]Application, error) {
	var apps []Application
	path := fmt.Sprintf("/api/v1/instant_jobs/%d/instant_job_applications", jobID)
	if err := c.do(ctx, http.MethodGet, path, nil, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// ApplyParams is the employee's bid.
type ApplyParams struct {
	EmployeeID int64   `json:"employee_id"`
	FinalPrice float64 `json:"final_price"`
	SlotTime   string  `json:"slot_time"`
}

// Apply creates the employee's application on a job.
func (c *Client) Apply(ctx context.Context, jobID int64, params ApplyParams) (*Application, error) {
	var app Application
	path := fmt.Sprintf("/api/v1/instant_jobs/%d/instant_job_applications", jobID)
	if err := c.do(ctx, http.MethodPost, path, params, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// UpdateApplicationStatus performs a poster-side transition on one
// application and returns the server's authoritative post-transition
// list.
func (c *Client) UpdateApplicationStatus(ctx context.Context, jobID, applicationID int64, action Action) ([]Application, error) {
	code, err := action.wireCode()
	if err != nil {
		return nil, err
	}

	var apps []Application
	path := fmt.Sprintf("/api/v1/instant_jobs/%d/instant_job_applications/%d/update_status", jobID, applicationID)
	body := map[string]int{"status": code}
	if err := c.do(ctx, http.MethodPut, path, body, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// CancelApplication withdraws the employee's own application.
func (c *Client) CancelApplication(ctx context.Context, jobID, applicationID int64) (*Application, error) {
	var out struct {
		Application Application `json:"application"`
	}
	path := fmt.Sprintf("/api/v1/instant_jobs/%d/instant_job_applications/%d/cancel_application", jobID, applicationID)
	if err := c.do(ctx, http.MethodDelete, path, nil, &out); err != nil {
		return nil, err
	}
	return &out.Application, nil
}

// RevokeAllApplications withdraws the poster's acceptance entirely and
// returns the authoritative list.
func (c *Client) RevokeAllApplications(ctx context.Context, jobID int64) ([]Application, error) {
	var apps []Application
	path := fmt.Sprintf("/api/v1/instant_jobs/%d/instant_job_applications/revoke_application", jobID)
	if err := c.do(ctx, http.MethodPost, path, nil, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// do issues one request: attach the bearer token, send, map the
// response. 401 handling is uniform here so no operation can bypass it.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	token, err := c.sessions.Token(c.role)
	if err != nil {
		return err
	}

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized()
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}

	if resp.StatusCode >= 400 {
		return c.parseError(resp.StatusCode, resp.Body)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// handleUnauthorized clears the role's session and fires the callback.
// Exactly one logout and one navigation event per 401 response,
// regardless of which operation triggered it.
func (c *Client) handleUnauthorized() {
	c.logger.Warn("Session rejected by server, clearing credentials",
		slog.String("role", c.role),
	)

	if err := c.sessions.Clear(c.role); err != nil {
		c.logger.Error("Failed to clear session",
			slog.Any("error", err),
			slog.String("role", c.role),
		)
	}

	if c.onUnauthorized != nil {
		c.onUnauthorized(c.role)
	}
}

// parseError decodes the server's error shape: {"errors": [...]} for
// validation failures, {"error": "..."} otherwise. Either way the
// caller gets an *APIError whose messages can be shown verbatim.
func (c *Client) parseError(statusCode int, body io.Reader) error {
	var payload struct {
		Errors []string `json:"errors"`
		Error  string   `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return &APIError{StatusCode: statusCode}
	}

	messages := payload.Errors
	if len(messages) == 0 && payload.Error != "" {
		messages = []string{payload.Error}
	}
	return &APIError{StatusCode: statusCode, Messages: messages}
}
