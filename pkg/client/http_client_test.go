package client

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// newTestServer creates a test HTTP server with the given handler map.
func newTestServer(t *testing.T, routes map[string]http.HandlerFunc) (*httptest.Server, *HTTPClient) {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, handler)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := NewHTTP(testLogger(), server.URL+"/", "test-api-key")
	return server, client
}

func jsonHandler(statusCode int, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if body != nil {
			_ = json.NewEncoder(w).Encode(body)
		}
	}
}

func TestHTTPClient_SendsAPIKey(t *testing.T) {
	var got string
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/health": func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Get("X-API-Key")
			w.WriteHeader(http.StatusOK)
		},
	})

	require.NoError(t, client.Ping())
	assert.Equal(t, "test-api-key", got)
}

func TestHTTPClient_Version(t *testing.T) {
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/version": jsonHandler(200, map[string]any{"version": "1.0.0", "commit": "abc", "build_date": "today"}),
	})

	v, err := client.Version()
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", v["version"])
}

func TestHTTPClient_GetSurface(t *testing.T) {
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/surface": jsonHandler(200, map[string]any{
			"capabilities": []any{
				map[string]any{"kind": "bluetooth", "label": "Bluetooth", "state": "on", "indicator": "on", "position": "center"},
			},
			"brightness": map[string]any{"mode": "manual", "level": 255, "icon": "full", "indicator": "on", "description": "Brightness: full"},
		}),
	})

	snap, err := client.GetSurface()
	require.NoError(t, err)
	require.Len(t, snap.Capabilities, 1)
	assert.Equal(t, "Bluetooth", snap.Capabilities[0].Label)
	assert.Equal(t, 255, snap.Brightness.Level)
}

func TestHTTPClient_GetSurface_Unauthorized(t *testing.T) {
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/surface": jsonHandler(401, map[string]any{"title": "Unauthorized", "status": 401, "detail": "API key required"}),
	})

	_, err := client.GetSurface()
	require.Error(t, err)
	assert.Equal(t, "HTTP error 401: API key required", err.Error())
}

func TestHTTPClient_Dispatch(t *testing.T) {
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/actions/{action}": func(w http.ResponseWriter, r *http.Request) {
			jsonHandler(202, map[string]any{"status": "accepted", "action": r.PathValue("action")})(w, r)
		},
	})

	action, err := client.Dispatch("wifi")
	require.NoError(t, err)
	assert.Equal(t, "wifi", action)
}

func TestHTTPClient_Dispatch_Conflict(t *testing.T) {
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/actions/wifi": jsonHandler(409, map[string]any{"detail": "wifi attempt 1: transition in progress"}),
	})

	_, err := client.Dispatch("wifi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
	assert.Contains(t, err.Error(), "transition in progress")
}

func TestHTTPClient_Settings(t *testing.T) {
	var put map[string]any
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/settings/screen_brightness": jsonHandler(200, map[string]any{"key": "screen_brightness", "value": 77}),
		"PUT /api/v1/settings/screen_brightness": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			_ = json.NewDecoder(r.Body).Decode(&put)
			jsonHandler(200, map[string]any{"key": "screen_brightness", "value": 90})(w, r)
		},
	})

	v, err := client.GetSetting("screen_brightness")
	require.NoError(t, err)
	assert.Equal(t, 77, v)

	require.NoError(t, client.PutSetting("screen_brightness", 90))
	assert.Equal(t, map[string]any{"value": float64(90)}, put)
}

func TestHTTPClient_SetLogLevel(t *testing.T) {
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		"PUT /api/v1/logging/level": jsonHandler(200, map[string]any{"level": "debug"}),
	})

	level, err := client.SetLogLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, "debug", level)
}

func TestHTTPClient_APIKeys(t *testing.T) {
	var created map[string]any
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/apikeys": func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&created)
			jsonHandler(201, map[string]any{"name": "ci", "key": "secret", "prefix": "secret"})(w, r)
		},
		"GET /api/v1/apikeys":             jsonHandler(200, []map[string]any{{"name": "ci", "prefix": "secret"}}),
		"DELETE /api/v1/apikeys/ci":       jsonHandler(204, nil),
		"PUT /api/v1/apikeys/ci/disabled": jsonHandler(200, map[string]any{"name": "ci", "disabled": true}),
	})

	key, err := client.AddAPIKey("ci", 3600)
	require.NoError(t, err)
	assert.Equal(t, "secret", key["key"])
	assert.Equal(t, map[string]any{"name": "ci", "expires_in": "3600s"}, created)

	keys, err := client.ListAPIKeys()
	require.NoError(t, err)
	require.Len(t, keys, 1)

	updated, err := client.SetAPIKeyDisabledStatus("ci", true)
	require.NoError(t, err)
	assert.Equal(t, true, updated["disabled"])

	require.NoError(t, client.DeleteAPIKey("ci"))
}

func TestHTTPClient_ConnectionError(t *testing.T) {
	client := NewHTTP(testLogger(), "http://127.0.0.1:1", "")
	err := client.Ping()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP request failed")
}

func TestErrorDetail(t *testing.T) {
	assert.Equal(t, "nope", errorDetail([]byte(`{"detail":"nope"}`)))
	assert.Equal(t, "plain text", errorDetail([]byte("plain text\n")))
}
