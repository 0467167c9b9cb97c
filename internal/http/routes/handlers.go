package routes

import (
	"context"

	"github.com/jmylchreest/radiotoggle/internal/http/handlers"
)

// Handlers aggregates all handler interfaces for route registration.
// The daemon passes real implementations, the OpenAPI generator stubs.
type Handlers struct {
	HealthCheck  func(context.Context, *handlers.HealthInput) (*handlers.HealthOutput, error)
	VersionCheck func(context.Context, *handlers.VersionInput) (*handlers.VersionOutput, error)
	Surface      handlers.SurfaceHandlers
	Settings     handlers.SettingsHandlers
	APIKey       handlers.APIKeyHandlers
	Logging      handlers.LoggingHandlers
}
