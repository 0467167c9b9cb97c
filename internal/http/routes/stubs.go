package routes

import (
	"context"

	"github.com/jmylchreest/radiotoggle/internal/http/handlers"
)

// StubHandlers returns handlers that are never invoked. Huma only needs their
// signatures to build the OpenAPI document.
func StubHandlers() *Handlers {
	return &Handlers{
		HealthCheck: func(_ context.Context, _ *handlers.HealthInput) (*handlers.HealthOutput, error) {
			return nil, nil
		},
		VersionCheck: func(_ context.Context, _ *handlers.VersionInput) (*handlers.VersionOutput, error) {
			return nil, nil
		},
		Surface:  stubSurfaceHandlers{},
		Settings: stubSettingsHandlers{},
		APIKey:   stubAPIKeyHandlers{},
		Logging:  stubLoggingHandlers{},
	}
}

type stubSurfaceHandlers struct{}

func (stubSurfaceHandlers) GetSurface(context.Context, *handlers.GetSurfaceInput) (*handlers.GetSurfaceOutput, error) {
	return nil, nil
}

func (stubSurfaceHandlers) DispatchAction(context.Context, *handlers.DispatchActionInput) (*handlers.DispatchActionOutput, error) {
	return nil, nil
}

type stubSettingsHandlers struct{}

func (stubSettingsHandlers) GetSetting(context.Context, *handlers.GetSettingInput) (*handlers.GetSettingOutput, error) {
	return nil, nil
}

func (stubSettingsHandlers) PutSetting(context.Context, *handlers.PutSettingInput) (*handlers.PutSettingOutput, error) {
	return nil, nil
}

type stubAPIKeyHandlers struct{}

func (stubAPIKeyHandlers) CreateAPIKey(context.Context, *handlers.CreateAPIKeyInput) (*handlers.CreateAPIKeyOutput, error) {
	return nil, nil
}

func (stubAPIKeyHandlers) ListAPIKeys(context.Context, *handlers.ListAPIKeysInput) (*handlers.ListAPIKeysOutput, error) {
	return nil, nil
}

func (stubAPIKeyHandlers) DeleteAPIKey(context.Context, *handlers.DeleteAPIKeyInput) (*handlers.DeleteAPIKeyOutput, error) {
	return nil, nil
}

func (stubAPIKeyHandlers) SetAPIKeyDisabled(context.Context, *handlers.SetAPIKeyDisabledInput) (*handlers.SetAPIKeyDisabledOutput, error) {
	return nil, nil
}

type stubLoggingHandlers struct{}

func (stubLoggingHandlers) GetLevel(context.Context, *handlers.GetLevelInput) (*handlers.GetLevelOutput, error) {
	return nil, nil
}

func (stubLoggingHandlers) SetLevel(context.Context, *handlers.SetLevelInput) (*handlers.SetLevelOutput, error) {
	return nil, nil
}
