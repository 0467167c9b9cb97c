package config

import "time"

// Common constants shared between daemon and client
const (
	// ConfigDirName is the name of the config directory within XDG_CONFIG_HOME
	ConfigDirName = "radiotoggle"

	// DaemonConfigFilename is the base filename for daemon config
	DaemonConfigFilename = "radiotoggled.yaml"

	// ClientConfigFilename is the base filename for client config
	ClientConfigFilename = "radiotogglectl.yaml"

	// SettingsFilename is the base filename of the persisted settings store
	SettingsFilename = "settings.yaml"

	// SocketFilename is the base filename for the Unix socket
	SocketFilename = "radiotoggled.sock"

	// SystemConfigDir is used verbatim when a system service points XDG_CONFIG_HOME at it
	SystemConfigDir = "/etc/radiotoggled"

	// EnvPrefix is prepended to environment overrides, e.g. RADIOTOGGLE_LOGGING_LEVEL
	EnvPrefix = "RADIOTOGGLE"
)

// Reconciliation defaults
const (
	// DefaultMaxAttempts bounds the number of state polls after a command
	DefaultMaxAttempts = 15

	// DefaultPollInterval is the wait between two polls
	DefaultPollInterval = time.Second
)

// Brightness defaults, used when the platform provides no limits
const (
	DefaultBrightnessMinimum = 10
	DefaultBrightnessDefault = 102
	DefaultBrightnessMaximum = 255
)

// Platform defaults
const (
	// DefaultBluetoothAdapter is the BlueZ object path of the first adapter
	DefaultBluetoothAdapter = "/org/bluez/hci0"

	// DefaultMQTTTopicPrefix roots every MQTT topic the daemon uses
	DefaultMQTTTopicPrefix = "radiotoggle"
)

// Logging constants
const (
	// LogLevelDebug represents debug log level
	LogLevelDebug = "debug"

	// LogLevelInfo represents info log level
	LogLevelInfo = "info"

	// LogLevelWarn represents warning log level
	LogLevelWarn = "warn"

	// LogLevelError represents error log level
	LogLevelError = "error"

	// LogFormatText represents text log format
	LogFormatText = "text"

	// LogFormatJSON represents JSON log format
	LogFormatJSON = "json"
)
