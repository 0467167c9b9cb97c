// Package apikey manages the bearer keys accepted by the HTTP API.
package apikey

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmylchreest/radiotoggle/internal/config"
	"github.com/jmylchreest/radiotoggle/internal/errors"
)

// Manager validates and administers API keys.
// All state lives in config.Config, which guards it with its own mutex; the
// manager persists every mutation through Config.Save.
type Manager struct {
	cfg *config.Config
	log *slog.Logger
	now func() time.Time
}

// NewManager creates a manager over the keys in cfg.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{cfg: cfg, log: logger, now: time.Now}
	logger.Info("Loaded API keys from config", "count", len(cfg.GetAPIKeys()))
	return m
}

// Required reports whether any key is configured. With none, protected
// routes stay open to local callers.
func (m *Manager) Required() bool {
	return len(m.cfg.GetAPIKeys()) > 0
}

// CreateAPIKey generates a key, stores it and saves the config.
func (m *Manager) CreateAPIKey(name string, expiresIn time.Duration) (config.APIKey, error) {
	if name == "" {
		return config.APIKey{}, errors.InvalidInputf("API key name must not be empty")
	}
	secret, err := config.GenerateKey(config.DefaultKeyLength)
	if err != nil {
		return config.APIKey{}, fmt.Errorf("failed to generate key string: %w", err)
	}

	k := config.APIKey{
		Name:      name,
		Key:       secret,
		CreatedAt: m.now().UTC(),
	}
	if expiresIn > 0 {
		k.ExpiresAt = k.CreatedAt.Add(expiresIn)
	}
	if err := m.cfg.AddAPIKey(k); err != nil {
		return config.APIKey{}, errors.InvalidInputf("%v", err)
	}
	if err := m.cfg.Save(); err != nil {
		m.cfg.DeleteAPIKey(k.Key)
		return config.APIKey{}, errors.LogErrorAndReturn(m.log, err, "Failed to save config after adding API key", "name", name)
	}

	m.log.Info("Created API key", "name", name, "key_prefix", KeyPrefix(k.Key))
	return k, nil
}

// ListAPIKeys returns every configured key.
func (m *Manager) ListAPIKeys() []config.APIKey {
	return m.cfg.GetAPIKeys()
}

// DeleteAPIKey removes a key by secret or name and saves the config.
func (m *Manager) DeleteAPIKey(keyOrName string) error {
	if !m.cfg.DeleteAPIKey(keyOrName) {
		return errors.NotFoundf("API key %q", keyOrName)
	}
	if err := m.cfg.Save(); err != nil {
		return errors.LogErrorAndReturn(m.log, err, "Failed to save config after deleting API key")
	}
	m.log.Info("Deleted API key", "key_prefix", KeyPrefix(keyOrName))
	return nil
}

// SetAPIKeyDisabledStatus enables or disables a key and saves the config.
func (m *Manager) SetAPIKeyDisabledStatus(keyOrName string, disabled bool) (config.APIKey, error) {
	k, err := m.cfg.SetAPIKeyDisabledStatus(keyOrName, disabled)
	if err != nil {
		return config.APIKey{}, errors.NotFoundf("API key %q", keyOrName)
	}
	if err := m.cfg.Save(); err != nil {
		return config.APIKey{}, errors.LogErrorAndReturn(m.log, err, "Failed to save config after setting API key status")
	}
	m.log.Info("Set API key disabled status", "name", k.Name, "disabled", disabled)
	return k, nil
}

// ValidateAPIKey checks the key exists, is enabled and has not expired.
func (m *Manager) ValidateAPIKey(key string) (config.APIKey, error) {
	k, found := m.cfg.FindAPIKey(key)
	if !found {
		return config.APIKey{}, errors.NotFoundf("API key")
	}
	if k.Disabled {
		return config.APIKey{}, errors.InvalidInputf("API key is disabled")
	}
	if k.IsExpired(m.now()) {
		return config.APIKey{}, errors.InvalidInputf("API key has expired")
	}
	return k, nil
}

// KeyPrefix returns the first four characters of a key for logging.
func KeyPrefix(key string) string {
	if len(key) >= 4 {
		return key[:4]
	}
	return key
}
