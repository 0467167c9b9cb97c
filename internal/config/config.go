package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the daemon configuration
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	API           APIConfig           `mapstructure:"api"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Reconcile     ReconcileConfig     `mapstructure:"reconcile"`
	Brightness    BrightnessConfig    `mapstructure:"brightness"`
	Bluetooth     BluetoothConfig     `mapstructure:"bluetooth"`
	Settings      SettingsConfig      `mapstructure:"settings"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	MQTT          MQTTConfig          `mapstructure:"mqtt"`

	mu sync.RWMutex
	v  *viper.Viper
}

// ServerConfig represents the local socket configuration
type ServerConfig struct {
	UnixSocket string `mapstructure:"unix_socket"`
}

// APIConfig configures the optional HTTP API
type APIConfig struct {
	// ListenAddress is empty when the HTTP API is disabled
	ListenAddress string   `mapstructure:"listen_address"`
	Advertise     bool     `mapstructure:"advertise"`
	RateLimit     int      `mapstructure:"rate_limit"`
	APIKeys       []APIKey `mapstructure:"keys"`
}

// APIKey is a bearer token accepted by protected HTTP routes
type APIKey struct {
	Name      string    `mapstructure:"name" yaml:"name" json:"name"`
	Key       string    `mapstructure:"key" yaml:"key" json:"key"`
	CreatedAt time.Time `mapstructure:"created_at" yaml:"created_at" json:"created_at"`
	ExpiresAt time.Time `mapstructure:"expires_at" yaml:"expires_at,omitempty" json:"expires_at,omitzero"`
	Disabled  bool      `mapstructure:"disabled" yaml:"disabled" json:"disabled"`
}

// IsExpired reports whether the key carries an expiry that has passed
func (k APIKey) IsExpired(now time.Time) bool {
	return !k.ExpiresAt.IsZero() && now.After(k.ExpiresAt)
}

// LoggingConfig represents the logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ReconcileConfig tunes how radio state changes are confirmed
type ReconcileConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// BrightnessConfig provides fallback limits and the backlight device
type BrightnessConfig struct {
	Minimum       int    `mapstructure:"minimum"`
	Default       int    `mapstructure:"default"`
	Maximum       int    `mapstructure:"maximum"`
	AutoAvailable bool   `mapstructure:"auto_available"`
	Device        string `mapstructure:"device"`
}

// BluetoothConfig selects the BlueZ adapter
type BluetoothConfig struct {
	Adapter string `mapstructure:"adapter"`
}

// SettingsConfig locates the persisted settings store
type SettingsConfig struct {
	Path string `mapstructure:"path"`
}

// NotificationsConfig toggles desktop notifications
type NotificationsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// MQTTConfig configures the optional MQTT bridge
type MQTTConfig struct {
	// Broker is empty when the bridge is disabled, e.g. tcp://localhost:1883
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

// New wraps an existing viper instance, applying defaults and decoding it.
func New(v *viper.Viper) *Config {
	setDefaults(v)
	cfg := &Config{v: v}
	if err := cfg.decode(); err != nil {
		slog.Warn("Failed to decode configuration, using defaults", "error", err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.unix_socket", GetRuntimeSocketPath())
	v.SetDefault("api.listen_address", "")
	v.SetDefault("api.advertise", false)
	v.SetDefault("api.rate_limit", 60)
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("logging.format", LogFormatText)
	v.SetDefault("reconcile.max_attempts", DefaultMaxAttempts)
	v.SetDefault("reconcile.poll_interval", DefaultPollInterval)
	v.SetDefault("brightness.minimum", DefaultBrightnessMinimum)
	v.SetDefault("brightness.default", DefaultBrightnessDefault)
	v.SetDefault("brightness.maximum", DefaultBrightnessMaximum)
	v.SetDefault("brightness.auto_available", true)
	v.SetDefault("brightness.device", "")
	v.SetDefault("bluetooth.adapter", DefaultBluetoothAdapter)
	v.SetDefault("settings.path", GetSettingsPath())
	v.SetDefault("notifications.enabled", true)
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "radiotoggled")
	v.SetDefault("mqtt.topic_prefix", DefaultMQTTTopicPrefix)
}

func (c *Config) decode() error {
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := c.v.Unmarshal(c, hook); err != nil {
		return fmt.Errorf("error decoding config: %w", err)
	}
	c.Reconcile.MaxAttempts = ClampReconcileAttempts(c.Reconcile.MaxAttempts)
	if c.Reconcile.PollInterval < 0 {
		c.Reconcile.PollInterval = DefaultPollInterval
	}
	return nil
}

// Load loads configuration from a file and environment variables.
// A missing file is not an error; defaults apply.
func Load(configName, configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		configPath := GetConfigPath(configName)
		v.SetConfigFile(configPath)
		if err := os.MkdirAll(GetConfigBaseDir(), 0o755); err != nil {
			return nil, fmt.Errorf("error creating config directory: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if !isNotFound(err) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		slog.Info("Using config file", "path", v.ConfigFileUsed())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	cfg := &Config{v: v}
	if err := cfg.decode(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

// Save writes the configuration back to the file viper was loaded from.
func (c *Config) Save() error {
	path := c.v.ConfigFileUsed()
	if path == "" {
		path = GetDaemonConfigPath()
		c.v.SetConfigFile(path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	current := c.GetAPIKeys()
	keys := make([]map[string]any, 0, len(current))
	for _, k := range current {
		entry := map[string]any{
			"name":       k.Name,
			"key":        k.Key,
			"created_at": k.CreatedAt.Format(time.RFC3339),
			"disabled":   k.Disabled,
		}
		if !k.ExpiresAt.IsZero() {
			entry["expires_at"] = k.ExpiresAt.Format(time.RFC3339)
		}
		keys = append(keys, entry)
	}
	c.v.Set("api.keys", keys)
	c.v.Set("logging.level", c.Logging.Level)
	c.v.Set("logging.format", c.Logging.Format)

	if err := c.v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	slog.Info("Configuration saved", "path", path)
	return nil
}

// Get retrieves a raw value from the configuration
func (c *Config) Get(key string) any {
	if c.v == nil {
		return nil
	}
	return c.v.Get(key)
}

// Set sets a raw value in the configuration
func (c *Config) Set(key string, value any) {
	if c.v == nil {
		return
	}
	c.v.Set(key, value)
}
