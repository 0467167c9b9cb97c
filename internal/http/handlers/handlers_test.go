package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/radiotoggle/internal/apikey"
	"github.com/jmylchreest/radiotoggle/internal/config"
	"github.com/jmylchreest/radiotoggle/internal/errors"
	"github.com/jmylchreest/radiotoggle/internal/surface"
	"github.com/jmylchreest/radiotoggle/internal/utils"
	"github.com/jmylchreest/radiotoggle/pkg/capability"
	"github.com/jmylchreest/radiotoggle/pkg/settings"
)

// --- Mock shell ---

type mockShell struct {
	snap       surface.Snapshot
	renderErr  error
	dispatchFn func(action string) error
	dispatched []string
}

func (m *mockShell) Render(context.Context) (surface.Snapshot, error) {
	return m.snap, m.renderErr
}

func (m *mockShell) Dispatch(_ context.Context, action string) error {
	m.dispatched = append(m.dispatched, action)
	if m.dispatchFn != nil {
		return m.dispatchFn(action)
	}
	return nil
}

var _ Shell = (*mockShell)(nil)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var se huma.StatusError
	require.ErrorAs(t, err, &se)
	return se.GetStatus()
}

// === Health Handler Tests ===

func TestHealthCheck(t *testing.T) {
	out, err := HealthCheck(context.Background(), &HealthInput{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Body.Status)
}

func TestVersionCheck(t *testing.T) {
	info := VersionInfo{Version: "1.2.3", Commit: "abc", BuildDate: "today"}
	out, err := VersionCheck(info)(context.Background(), &VersionInput{})
	require.NoError(t, err)
	assert.Equal(t, info, out.Body)
}

// === Surface Handler Tests ===

func TestSurfaceHandler_GetSurface(t *testing.T) {
	shell := &mockShell{snap: surface.Snapshot{Capabilities: []surface.CapabilityView{
		{Kind: capability.WiFi, State: capability.On, Indicator: surface.IndicatorOn},
	}}}
	h := &SurfaceHandler{Shell: shell, Logger: testLogger()}

	out, err := h.GetSurface(context.Background(), &GetSurfaceInput{})
	require.NoError(t, err)
	require.Len(t, out.Body.Capabilities, 1)
	assert.Equal(t, capability.On, out.Body.Capabilities[0].State)
}

func TestSurfaceHandler_GetSurfaceDisabled(t *testing.T) {
	h := &SurfaceHandler{Shell: &mockShell{renderErr: errors.ErrDisabled}}

	_, err := h.GetSurface(context.Background(), &GetSurfaceInput{})
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(t, err))
}

func TestSurfaceHandler_DispatchAction(t *testing.T) {
	shell := &mockShell{}
	h := &SurfaceHandler{Shell: shell, Logger: testLogger()}

	out, err := h.DispatchAction(context.Background(), &DispatchActionInput{Action: "Mobile-Data"})
	require.NoError(t, err)
	assert.Equal(t, "accepted", out.Body.Status)
	assert.Equal(t, "mobile_data", out.Body.Action)
	assert.Equal(t, []string{"mobile_data"}, shell.dispatched)

	out, err = h.DispatchAction(context.Background(), &DispatchActionInput{Action: "4"})
	require.NoError(t, err)
	assert.Equal(t, "brightness", out.Body.Action)
}

func TestSurfaceHandler_DispatchErrors(t *testing.T) {
	shell := &mockShell{dispatchFn: func(string) error {
		return errors.TransitionInProgressf("wifi attempt 1")
	}}
	h := &SurfaceHandler{Shell: shell, Logger: testLogger()}

	_, err := h.DispatchAction(context.Background(), &DispatchActionInput{Action: "nfc"})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.Empty(t, shell.dispatched, "unknown actions never reach the shell")

	_, err = h.DispatchAction(context.Background(), &DispatchActionInput{Action: "wifi"})
	assert.Equal(t, http.StatusConflict, statusOf(t, err))
}

// === Settings Handler Tests ===

func TestSettingsHandler(t *testing.T) {
	store := settings.NewMemoryStore(map[string]int{settings.KeyBrightness: 40})
	h := &SettingsHandler{Store: store}
	ctx := context.Background()

	out, err := h.GetSetting(ctx, &GetSettingInput{Key: settings.KeyBrightness})
	require.NoError(t, err)
	assert.Equal(t, 40, out.Body.Value)

	_, err = h.GetSetting(ctx, &GetSettingInput{Key: settings.KeyBrightnessMode})
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	in := &PutSettingInput{Key: settings.KeyBrightnessMode}
	in.Body.Value = settings.ModeAutomatic
	put, err := h.PutSetting(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, settings.ModeAutomatic, put.Body.Value)

	v, err := store.GetInt(settings.KeyBrightnessMode)
	require.NoError(t, err)
	assert.Equal(t, settings.ModeAutomatic, v)
}

// === Logging Handler Tests ===

func TestLoggingHandler(t *testing.T) {
	defer utils.SetLevel(config.LogLevelInfo)
	h := &LoggingHandler{Logger: testLogger()}
	ctx := context.Background()

	in := &SetLevelInput{}
	in.Body.Level = "debug"
	out, err := h.SetLevel(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "debug", out.Body.Level)

	got, err := h.GetLevel(ctx, &GetLevelInput{})
	require.NoError(t, err)
	assert.Equal(t, "debug", got.Body.Level)

	in.Body.Level = "loud"
	_, err = h.SetLevel(ctx, in)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

// === API Key Handler Tests ===

func TestAPIKeyHandler(t *testing.T) {
	cfg, err := config.Load("radiotoggled.yaml", filepath.Join(t.TempDir(), "radiotoggled.yaml"))
	require.NoError(t, err)
	h := &APIKeyHandler{Manager: apikey.NewManager(cfg, testLogger())}
	ctx := context.Background()

	create := &CreateAPIKeyInput{}
	create.Body.Name = "tray"
	create.Body.ExpiresIn = "24h"
	created, err := h.CreateAPIKey(ctx, create)
	require.NoError(t, err)
	assert.NotEmpty(t, created.Body.Key)
	assert.False(t, created.Body.ExpiresAt.IsZero())

	create.Body.ExpiresIn = "soon"
	_, err = h.CreateAPIKey(ctx, create)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	list, err := h.ListAPIKeys(ctx, &ListAPIKeysInput{})
	require.NoError(t, err)
	require.Len(t, list.Body, 1)
	assert.Empty(t, list.Body[0].Key, "secrets are only shown on creation")
	assert.Equal(t, created.Body.Key[:4], list.Body[0].Prefix)

	disable := &SetAPIKeyDisabledInput{Key: "tray"}
	disable.Body.Disabled = true
	updated, err := h.SetAPIKeyDisabled(ctx, disable)
	require.NoError(t, err)
	assert.True(t, updated.Body.Disabled)

	_, err = h.DeleteAPIKey(ctx, &DeleteAPIKeyInput{Key: "tray"})
	require.NoError(t, err)
	_, err = h.DeleteAPIKey(ctx, &DeleteAPIKeyInput{Key: "tray"})
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}
