package huckleberry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hollis/cradle/pkg/tools"
)

// Client is a REST client for the Huckleberry backend. All mutating calls
// carry an idempotency key so a retried request never double-logs an event.
type Client struct {
	baseURL    string
	email      string
	password   string
	timezone   string
	httpClient *http.Client
	logger     zerolog.Logger

	tokenMu sync.RWMutex
	token   string
}

// ClientConfig holds client configuration
type ClientConfig struct {
	BaseURL  string
	Email    string
	Password string
	Timezone string
	Timeout  time.Duration
	Logger   zerolog.Logger
}

// NewClient creates a backend client. Login must be called before any
// action method.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Email == "" || cfg.Password == "" {
		return nil, fmt.Errorf("email and password are required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		email:      cfg.Email,
		password:   cfg.Password,
		timezone:   cfg.Timezone,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     cfg.Logger,
	}, nil
}

// Login authenticates and stores the bearer token for later calls.
func (c *Client) Login(ctx context.Context) error {
	body, err := json.Marshal(loginRequest{
		Email:    c.email,
		Password: c.password,
		Timezone: c.timezone,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/auth/login", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("login failed (status %d): %s", resp.StatusCode, string(raw))
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}
	if lr.Token == "" {
		return fmt.Errorf("login response missing token")
	}

	c.tokenMu.Lock()
	c.token = lr.Token
	c.tokenMu.Unlock()

	c.logger.Info().Msg("Huckleberry authenticated successfully")
	return nil
}

// Authenticated reports whether a login has succeeded.
func (c *Client) Authenticated() bool {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.token != ""
}

// Children fetches the account's children roster.
func (c *Client) Children(ctx context.Context) ([]Child, error) {
	payload, err := c.do(ctx, "GET", "/v1/children", nil)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode children response: %w", err)
	}
	var cr childrenResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return nil, fmt.Errorf("failed to decode children response: %w", err)
	}
	return cr.Children, nil
}

// StreamURL returns the websocket endpoint and auth header for a child's
// realtime stream.
func (c *Client) StreamURL(childUID string) (string, http.Header) {
	ws := c.baseURL
	if strings.HasPrefix(ws, "https://") {
		ws = "wss://" + strings.TrimPrefix(ws, "https://")
	} else if strings.HasPrefix(ws, "http://") {
		ws = "ws://" + strings.TrimPrefix(ws, "http://")
	}

	header := http.Header{}
	c.tokenMu.RLock()
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	c.tokenMu.RUnlock()

	return ws + "/v1/children/" + url.PathEscape(childUID) + "/stream", header
}

func (c *Client) StartSleep(ctx context.Context, childUID string) (tools.Payload, error) {
	return c.do(ctx, "POST", c.childPath(childUID, "sleep/start"), tools.Payload{})
}

func (c *Client) PauseSleep(ctx context.Context, childUID string) (tools.Payload, error) {
	return c.do(ctx, "POST", c.childPath(childUID, "sleep/pause"), tools.Payload{})
}

func (c *Client) ResumeSleep(ctx context.Context, childUID string) (tools.Payload, error) {
	return c.do(ctx, "POST", c.childPath(childUID, "sleep/resume"), tools.Payload{})
}

func (c *Client) CompleteSleep(ctx context.Context, childUID string) (tools.Payload, error) {
	return c.do(ctx, "POST", c.childPath(childUID, "sleep/complete"), tools.Payload{})
}

func (c *Client) CancelSleep(ctx context.Context, childUID string) (tools.Payload, error) {
	return c.do(ctx, "POST", c.childPath(childUID, "sleep/cancel"), tools.Payload{})
}

func (c *Client) StartFeeding(ctx context.Context, childUID, side string) (tools.Payload, error) {
	body := tools.Payload{}
	if side != "" {
		body["side"] = side
	}
	return c.do(ctx, "POST", c.childPath(childUID, "feeding/start"), body)
}

func (c *Client) PauseFeeding(ctx context.Context, childUID string) (tools.Payload, error) {
	return c.do(ctx, "POST", c.childPath(childUID, "feeding/pause"), tools.Payload{})
}

func (c *Client) ResumeFeeding(ctx context.Context, childUID string) (tools.Payload, error) {
	return c.do(ctx, "POST", c.childPath(childUID, "feeding/resume"), tools.Payload{})
}

func (c *Client) SwitchFeedingSide(ctx context.Context, childUID string) (tools.Payload, error) {
	return c.do(ctx, "POST", c.childPath(childUID, "feeding/switch"), tools.Payload{})
}

func (c *Client) CompleteFeeding(ctx context.Context, childUID string) (tools.Payload, error) {
	return c.do(ctx, "POST", c.childPath(childUID, "feeding/complete"), tools.Payload{})
}

func (c *Client) CancelFeeding(ctx context.Context, childUID string) (tools.Payload, error) {
	return c.do(ctx, "POST", c.childPath(childUID, "feeding/cancel"), tools.Payload{})
}

func (c *Client) LogBottleFeeding(ctx context.Context, childUID string, amount float64, bottleType, units string) (tools.Payload, error) {
	return c.do(ctx, "POST", c.childPath(childUID, "feedings/bottle"), tools.Payload{
		"amount":      amount,
		"bottle_type": bottleType,
		"units":       units,
	})
}

func (c *Client) LogDiaper(ctx context.Context, childUID string, change tools.DiaperChange) (tools.Payload, error) {
	body := tools.Payload{"mode": change.Mode}
	if change.PeeAmount != "" {
		body["pee_amount"] = change.PeeAmount
	}
	if change.PooAmount != "" {
		body["poo_amount"] = change.PooAmount
	}
	if change.Color != "" {
		body["color"] = change.Color
	}
	if change.Consistency != "" {
		body["consistency"] = change.Consistency
	}
	return c.do(ctx, "POST", c.childPath(childUID, "diapers"), body)
}

func (c *Client) LogGrowth(ctx context.Context, childUID string, m tools.GrowthMeasurement) (tools.Payload, error) {
	units := m.Units
	if units == "" {
		units = "imperial"
	}
	body := tools.Payload{"units": units}
	if m.Weight != nil {
		body["weight"] = *m.Weight
	}
	if m.Height != nil {
		body["height"] = *m.Height
	}
	if m.Head != nil {
		body["head"] = *m.Head
	}
	return c.do(ctx, "POST", c.childPath(childUID, "growth"), body)
}

func (c *Client) GrowthData(ctx context.Context, childUID string) (tools.Payload, error) {
	return c.do(ctx, "GET", c.childPath(childUID, "growth"), nil)
}

func (c *Client) History(ctx context.Context, childUID string, start, end int64) (tools.Payload, error) {
	path := c.childPath(childUID, "events") +
		"?start=" + strconv.FormatInt(start, 10) +
		"&end=" + strconv.FormatInt(end, 10)
	return c.do(ctx, "GET", path, nil)
}

func (c *Client) childPath(childUID, suffix string) string {
	return "/v1/children/" + url.PathEscape(childUID) + "/" + suffix
}

// do issues one authenticated request and decodes the JSON body into a
// payload. Non-2xx responses come back as errors with the body attached.
func (c *Client) do(ctx context.Context, method, path string, body tools.Payload) (tools.Payload, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if method != "GET" {
		req.Header.Set("X-Idempotency-Key", uuid.NewString())
	}

	c.tokenMu.RLock()
	token := c.token
	c.tokenMu.RUnlock()
	if token == "" {
		return nil, fmt.Errorf("not authenticated")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("huckleberry request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("huckleberry error (status %d): %s", resp.StatusCode, string(raw))
	}

	payload := tools.Payload{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return payload, nil
}
