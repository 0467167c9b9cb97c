package server

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	kerrors "github.com/jmylchreest/radiotoggle/internal/errors"
	"github.com/jmylchreest/radiotoggle/internal/surface"
	"github.com/jmylchreest/radiotoggle/internal/utils"
)

// handleAction runs one socket request. The returned map is merged into the
// "ok" response; an error becomes {"error": ...}.
func (s *Server) handleAction(ctx context.Context, action string, data map[string]any) (map[string]any, error) {
	switch action {
	case "ping":
		return map[string]any{"message": "pong"}, nil

	case "health":
		return map[string]any{"health": "ok"}, nil

	case "version":
		v := s.deps.Version
		return map[string]any{"version": v.Version, "commit": v.Commit, "build_date": v.BuildDate}, nil

	case "get_surface":
		snap, err := s.deps.Shell.Render(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to render surface: %w", err)
		}
		return map[string]any{"surface": snap}, nil

	case "dispatch":
		raw := stringFromMap(data, "action")
		if raw == "" {
			return nil, fmt.Errorf("missing action for dispatch")
		}
		parsed, err := surface.ParseAction(raw)
		if err != nil {
			return nil, err
		}
		if err := s.deps.Shell.Dispatch(ctx, string(parsed)); err != nil {
			return nil, fmt.Errorf("failed to dispatch %s: %w", parsed, err)
		}
		return map[string]any{"action": string(parsed)}, nil

	case "get_setting":
		key := stringFromMap(data, "key")
		if key == "" {
			return nil, fmt.Errorf("missing key for get_setting")
		}
		v, err := s.deps.Store.GetInt(key)
		if err != nil {
			return nil, err
		}
		return map[string]any{"key": key, "value": v}, nil

	case "put_setting":
		key := stringFromMap(data, "key")
		if key == "" {
			return nil, fmt.Errorf("missing key for put_setting")
		}
		v, err := intFromMap(data, "value")
		if err != nil {
			return nil, err
		}
		if err := s.deps.Store.PutInt(key, v); err != nil {
			return nil, fmt.Errorf("failed to store %s: %w", key, err)
		}
		return map[string]any{"key": key, "value": v}, nil

	case "set_level":
		level := stringFromMap(data, "level")
		if level == "" {
			return nil, fmt.Errorf("missing level for set_level")
		}
		if utils.ValidateLogLevel(level) != level {
			return nil, fmt.Errorf("invalid log level %q; must be debug, info, warn, or error", level)
		}
		utils.SetLevel(level)
		s.logger.Info("Log level changed via socket", "level", level)
		return map[string]any{"level": level}, nil

	case "get_level":
		return map[string]any{"level": utils.CurrentLevel()}, nil

	case "apikey_add":
		return s.addAPIKey(data)

	case "apikey_list":
		keys := s.deps.APIKeys.ListAPIKeys()
		out := make([]map[string]any, len(keys))
		for i, k := range keys {
			out[i] = map[string]any{
				"name":       k.Name,
				"key":        k.Key,
				"created_at": k.CreatedAt.Format(time.RFC3339Nano),
				"disabled":   k.Disabled,
			}
			if !k.ExpiresAt.IsZero() {
				out[i]["expires_at"] = k.ExpiresAt.Format(time.RFC3339Nano)
			}
		}
		return map[string]any{"keys": out}, nil

	case "apikey_delete":
		key := stringFromMap(data, "key")
		if key == "" {
			return nil, fmt.Errorf("missing key for apikey_delete")
		}
		if err := s.deps.APIKeys.DeleteAPIKey(key); err != nil {
			return nil, fmt.Errorf("failed to delete API key: %w", err)
		}
		return nil, nil

	case "apikey_set_disabled_status":
		keyOrName := stringFromMap(data, "key_or_name")
		if keyOrName == "" {
			return nil, fmt.Errorf("missing key_or_name for apikey_set_disabled_status")
		}
		var disabled bool
		switch v := data["disabled"].(type) {
		case bool:
			disabled = v
		case string:
			var err error
			disabled, err = strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("invalid boolean value for disabled state: %w", err)
			}
		default:
			return nil, fmt.Errorf("missing or invalid disabled state for apikey_set_disabled_status")
		}
		k, err := s.deps.APIKeys.SetAPIKeyDisabledStatus(keyOrName, disabled)
		if err != nil {
			return nil, fmt.Errorf("failed to set API key disabled status: %w", err)
		}
		return map[string]any{"key": map[string]any{"name": k.Name, "disabled": k.Disabled}}, nil

	default:
		s.logger.Warn("Received unknown action", "action", action)
		return nil, fmt.Errorf("unknown action: %s", action)
	}
}

func (s *Server) addAPIKey(data map[string]any) (map[string]any, error) {
	name := stringFromMap(data, "name")
	if name == "" {
		return nil, fmt.Errorf("missing name for apikey_add")
	}

	var expiresIn time.Duration
	if raw := stringFromMap(data, "expires_in"); raw != "" {
		// Go durations ("720h") first, then plain seconds.
		d, err := time.ParseDuration(raw)
		if err != nil {
			secs, err2 := strconv.ParseFloat(raw, 64)
			if err2 != nil {
				return nil, fmt.Errorf("invalid expires_in format (use Go duration like '720h' or seconds): %w", err)
			}
			d = time.Duration(secs * float64(time.Second))
		}
		expiresIn = d
	}

	k, err := s.deps.APIKeys.CreateAPIKey(name, expiresIn)
	if err != nil {
		return nil, fmt.Errorf("failed to create API key: %w", err)
	}
	resp := map[string]any{
		"name":       k.Name,
		"key":        k.Key,
		"created_at": k.CreatedAt.Format(time.RFC3339Nano),
		"disabled":   k.Disabled,
	}
	if !k.ExpiresAt.IsZero() {
		resp["expires_at"] = k.ExpiresAt.Format(time.RFC3339Nano)
	}
	return map[string]any{"key": resp}, nil
}

// stringFromMap extracts a string from a map[string]any, returning "" if missing or wrong type.
func stringFromMap(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

// intFromMap accepts JSON numbers with no fractional part and numeric strings.
func intFromMap(m map[string]any, key string) (int, error) {
	switch v := m[key].(type) {
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
			return 0, kerrors.InvalidInputf("%s must be an integer, got %v", key, v)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, kerrors.InvalidInputf("%s must be an integer, got %q", key, v)
		}
		return n, nil
	case nil:
		return 0, kerrors.InvalidInputf("missing %s", key)
	default:
		return 0, kerrors.InvalidInputf("%s must be an integer, got %T", key, v)
	}
}
