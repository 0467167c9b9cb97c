// Package client talks to radiotoggled over its Unix socket or HTTP API.
package client

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"

	"github.com/jmylchreest/radiotoggle/internal/config"
	"github.com/jmylchreest/radiotoggle/internal/surface"
)

var dial = net.Dial

// ClientInterface defines the methods for interacting with radiotoggled.
// Both the socket and the HTTP client implement it, so the CLI can use either.
type ClientInterface interface {
	Ping() error
	Version() (map[string]any, error)
	GetSurface() (surface.Snapshot, error)
	Dispatch(action string) (string, error)
	GetSetting(key string) (int, error)
	PutSetting(key string, value int) error
	SetLogLevel(level string) (string, error)
	AddAPIKey(name string, expiresInSeconds float64) (map[string]any, error)
	ListAPIKeys() ([]map[string]any, error)
	DeleteAPIKey(key string) error
	SetAPIKeyDisabledStatus(keyOrName string, disabled bool) (map[string]any, error)
}

var (
	_ ClientInterface = (*Client)(nil)
	_ ClientInterface = (*HTTPClient)(nil)
)

// Client represents a connection to radiotoggled's Unix socket
type Client struct {
	logger *slog.Logger
	socket string
}

// New creates a new client. An empty socket uses the runtime default.
func New(logger *slog.Logger, socket string) *Client {
	if socket == "" {
		socket = config.GetRuntimeSocketPath()
		logger.Debug("Using default socket path", "socket", socket)
	} else {
		logger.Debug("Using provided socket path", "socket", socket)
	}

	return &Client{
		logger: logger,
		socket: socket,
	}
}

// request sends one action and decodes the reply into resp. A reply
// carrying "error" is returned as an error.
func (c *Client) request(action string, data map[string]any, resp any) error {
	c.logger.Debug("Connecting to socket", "socket", c.socket)
	conn, err := dial("unix", c.socket)
	if err != nil {
		c.logger.Debug("Failed to connect to socket", "error", err, "socket", c.socket)
		return fmt.Errorf("failed to connect to socket: %w", err)
	}
	defer conn.Close()

	req := map[string]any{"action": action}
	if len(data) > 0 {
		req["data"] = data
	}
	c.logger.Debug("Encoding request", "action", action)
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(conn).Decode(&raw); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	var status struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &status); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if status.Error != "" {
		c.logger.Debug("Server returned error", "error", status.Error)
		return fmt.Errorf("server error: %s", status.Error)
	}

	if resp != nil {
		if err := json.Unmarshal(raw, resp); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Ping checks that the daemon answers.
func (c *Client) Ping() error {
	return c.request("ping", nil, nil)
}

// Version returns the daemon's version, commit and build date.
func (c *Client) Version() (map[string]any, error) {
	var resp map[string]any
	if err := c.request("version", nil, &resp); err != nil {
		return nil, err
	}
	delete(resp, "status")
	return resp, nil
}

// GetSurface renders the control surface.
func (c *Client) GetSurface() (surface.Snapshot, error) {
	var resp struct {
		Surface surface.Snapshot `json:"surface"`
	}
	if err := c.request("get_surface", nil, &resp); err != nil {
		return surface.Snapshot{}, err
	}
	return resp.Surface, nil
}

// Dispatch presses a control and returns the normalized action name.
func (c *Client) Dispatch(action string) (string, error) {
	var resp struct {
		Action string `json:"action"`
	}
	if err := c.request("dispatch", map[string]any{"action": action}, &resp); err != nil {
		return "", err
	}
	return resp.Action, nil
}

// GetSetting reads an integer setting.
func (c *Client) GetSetting(key string) (int, error) {
	var resp struct {
		Value int `json:"value"`
	}
	if err := c.request("get_setting", map[string]any{"key": key}, &resp); err != nil {
		return 0, err
	}
	return resp.Value, nil
}

// PutSetting writes an integer setting.
func (c *Client) PutSetting(key string, value int) error {
	return c.request("put_setting", map[string]any{"key": key, "value": value}, nil)
}

// SetLogLevel changes the daemon's log level.
func (c *Client) SetLogLevel(level string) (string, error) {
	var resp struct {
		Level string `json:"level"`
	}
	if err := c.request("set_level", map[string]any{"level": level}, &resp); err != nil {
		return "", err
	}
	return resp.Level, nil
}

// AddAPIKey creates an API key. Zero expiresInSeconds never expires.
func (c *Client) AddAPIKey(name string, expiresInSeconds float64) (map[string]any, error) {
	data := map[string]any{"name": name}
	if expiresInSeconds > 0 {
		data["expires_in"] = fmt.Sprintf("%.0fs", expiresInSeconds)
	}
	var resp struct {
		Key map[string]any `json:"key"`
	}
	if err := c.request("apikey_add", data, &resp); err != nil {
		return nil, err
	}
	return resp.Key, nil
}

// ListAPIKeys returns every configured key.
func (c *Client) ListAPIKeys() ([]map[string]any, error) {
	var resp struct {
		Keys []map[string]any `json:"keys"`
	}
	if err := c.request("apikey_list", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Keys == nil {
		return []map[string]any{}, nil
	}
	return resp.Keys, nil
}

// DeleteAPIKey removes a key by value or name.
func (c *Client) DeleteAPIKey(key string) error {
	return c.request("apikey_delete", map[string]any{"key": key}, nil)
}

// SetAPIKeyDisabledStatus enables or disables a key.
func (c *Client) SetAPIKeyDisabledStatus(keyOrName string, disabled bool) (map[string]any, error) {
	var resp struct {
		Key map[string]any `json:"key"`
	}
	if err := c.request("apikey_set_disabled_status", map[string]any{"key_or_name": keyOrName, "disabled": disabled}, &resp); err != nil {
		return nil, err
	}
	return resp.Key, nil
}
