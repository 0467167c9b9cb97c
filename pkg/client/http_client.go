package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jmylchreest/radiotoggle/internal/surface"
)

// HTTPClient represents an HTTP connection to radiotoggled
type HTTPClient struct {
	logger  *slog.Logger
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTP creates a new HTTP client
func NewHTTP(logger *slog.Logger, baseURL string, apiKey string) *HTTPClient {
	return &HTTPClient{
		logger:  logger,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// request performs an HTTP request and decodes the JSON response
func (c *HTTPClient) request(method, path string, body any, resp any) error {
	u := c.baseURL + path
	c.logger.Debug("HTTP request", "method", method, "url", u)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	httpResp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if httpResp.StatusCode >= 400 {
		c.logger.Debug("HTTP error response", "status", httpResp.StatusCode, "body", string(respBody))
		return fmt.Errorf("HTTP error %d: %s", httpResp.StatusCode, errorDetail(respBody))
	}

	if resp != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, resp); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// errorDetail pulls the message out of a huma problem document, falling back
// to the raw body.
func errorDetail(body []byte) string {
	var problem struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &problem) == nil && problem.Detail != "" {
		return problem.Detail
	}
	return strings.TrimSpace(string(body))
}

// Ping checks that the API answers.
func (c *HTTPClient) Ping() error {
	return c.request(http.MethodGet, "/api/v1/health", nil, nil)
}

// Version returns the running daemon's version information.
func (c *HTTPClient) Version() (map[string]any, error) {
	var resp map[string]any
	if err := c.request(http.MethodGet, "/api/v1/version", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetSurface renders the control surface.
func (c *HTTPClient) GetSurface() (surface.Snapshot, error) {
	var snap surface.Snapshot
	if err := c.request(http.MethodGet, "/api/v1/surface", nil, &snap); err != nil {
		return surface.Snapshot{}, err
	}
	return snap, nil
}

// Dispatch presses a control and returns the normalized action name.
func (c *HTTPClient) Dispatch(action string) (string, error) {
	var resp struct {
		Action string `json:"action"`
	}
	if err := c.request(http.MethodPost, "/api/v1/actions/"+url.PathEscape(action), nil, &resp); err != nil {
		return "", err
	}
	return resp.Action, nil
}

// GetSetting reads an integer setting.
func (c *HTTPClient) GetSetting(key string) (int, error) {
	var resp struct {
		Value int `json:"value"`
	}
	if err := c.request(http.MethodGet, "/api/v1/settings/"+url.PathEscape(key), nil, &resp); err != nil {
		return 0, err
	}
	return resp.Value, nil
}

// PutSetting writes an integer setting.
func (c *HTTPClient) PutSetting(key string, value int) error {
	return c.request(http.MethodPut, "/api/v1/settings/"+url.PathEscape(key), map[string]any{"value": value}, nil)
}

// SetLogLevel changes the daemon's log level.
func (c *HTTPClient) SetLogLevel(level string) (string, error) {
	var resp struct {
		Level string `json:"level"`
	}
	if err := c.request(http.MethodPut, "/api/v1/logging/level", map[string]any{"level": level}, &resp); err != nil {
		return "", err
	}
	return resp.Level, nil
}

// AddAPIKey creates a new API key
func (c *HTTPClient) AddAPIKey(name string, expiresInSeconds float64) (map[string]any, error) {
	body := map[string]any{"name": name}
	if expiresInSeconds > 0 {
		body["expires_in"] = fmt.Sprintf("%.0fs", expiresInSeconds)
	}
	var resp map[string]any
	if err := c.request(http.MethodPost, "/api/v1/apikeys", body, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ListAPIKeys returns all API keys
func (c *HTTPClient) ListAPIKeys() ([]map[string]any, error) {
	var resp []map[string]any
	if err := c.request(http.MethodGet, "/api/v1/apikeys", nil, &resp); err != nil {
		return nil, err
	}
	if resp == nil {
		return []map[string]any{}, nil
	}
	return resp, nil
}

// DeleteAPIKey deletes an API key
func (c *HTTPClient) DeleteAPIKey(key string) error {
	return c.request(http.MethodDelete, "/api/v1/apikeys/"+url.PathEscape(key), nil, nil)
}

// SetAPIKeyDisabledStatus enables or disables an API key
func (c *HTTPClient) SetAPIKeyDisabledStatus(keyOrName string, disabled bool) (map[string]any, error) {
	var resp map[string]any
	if err := c.request(http.MethodPut, "/api/v1/apikeys/"+url.PathEscape(keyOrName)+"/disabled", map[string]any{"disabled": disabled}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}
