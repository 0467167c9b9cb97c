package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// DefaultKeyLength is the number of random bytes in a generated API key
const DefaultKeyLength = 32

// GenerateKey returns a hex encoded random key of n bytes
func GenerateKey(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("key length must be positive, got %d", n)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("error reading random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GetAPIKeys returns a copy of the configured API keys
func (c *Config) GetAPIKeys() []APIKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]APIKey(nil), c.API.APIKeys...)
}

// FindAPIKey looks a key up by its secret
func (c *Config) FindAPIKey(key string) (APIKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, k := range c.API.APIKeys {
		if k.Key == key {
			return k, true
		}
	}
	return APIKey{}, false
}

// AddAPIKey appends a key, rejecting duplicate names and secrets
func (c *Config) AddAPIKey(k APIKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.API.APIKeys {
		if existing.Name == k.Name {
			return fmt.Errorf("API key with name %q already exists", k.Name)
		}
		if existing.Key == k.Key {
			return fmt.Errorf("API key already exists")
		}
	}
	if k.CreatedAt.IsZero() {
		k.CreatedAt = time.Now().UTC()
	}
	c.API.APIKeys = append(c.API.APIKeys, k)
	return nil
}

// DeleteAPIKey removes the key matching keyOrName and reports whether one was found
func (c *Config) DeleteAPIKey(keyOrName string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, k := range c.API.APIKeys {
		if k.Key == keyOrName || k.Name == keyOrName {
			c.API.APIKeys = append(c.API.APIKeys[:i], c.API.APIKeys[i+1:]...)
			return true
		}
	}
	return false
}

// SetAPIKeyDisabledStatus flips the disabled flag of the key matching keyOrName
func (c *Config) SetAPIKeyDisabledStatus(keyOrName string, disabled bool) (APIKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.API.APIKeys {
		k := &c.API.APIKeys[i]
		if k.Key == keyOrName || k.Name == keyOrName {
			k.Disabled = disabled
			return *k, nil
		}
	}
	return APIKey{}, fmt.Errorf("API key %q not found", keyOrName)
}
