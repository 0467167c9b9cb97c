package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// GetRuntimeDir returns the XDG runtime directory
func GetRuntimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	return filepath.Join("/run/user", strconv.Itoa(os.Getuid()))
}

// GetRuntimeSocketPath returns the full path to the Unix socket.
// A socket already present in the user's runtime directory wins, then the
// system service location.
func GetRuntimeSocketPath() string {
	userSocket := filepath.Join(GetRuntimeDir(), SocketFilename)
	if _, err := os.Stat(userSocket); err == nil {
		return userSocket
	}

	systemSocket := filepath.Join("/run/radiotoggled", SocketFilename)
	if _, err := os.Stat(systemSocket); err == nil {
		return systemSocket
	}

	return userSocket
}

// GetConfigBaseDir returns the base directory for configuration files
func GetConfigBaseDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		if dir == SystemConfigDir {
			return dir
		}
		return filepath.Join(dir, ConfigDirName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", ConfigDirName)
}

// GetConfigPath returns the full path to a configuration file
func GetConfigPath(filename string) string {
	return filepath.Join(GetConfigBaseDir(), filename)
}

// GetDaemonConfigPath returns the full path to the daemon configuration file
func GetDaemonConfigPath() string {
	return GetConfigPath(DaemonConfigFilename)
}

// GetClientConfigPath returns the full path to the client configuration file
func GetClientConfigPath() string {
	return GetConfigPath(ClientConfigFilename)
}

// GetSettingsPath returns the default location of the settings store
func GetSettingsPath() string {
	return GetConfigPath(SettingsFilename)
}

// ClampReconcileAttempts keeps the attempt budget at or above one poll.
func ClampReconcileAttempts(n int) int {
	if n < 1 {
		return DefaultMaxAttempts
	}
	return n
}
