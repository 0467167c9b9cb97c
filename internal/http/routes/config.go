// Package routes provides shared route registration for the radiotoggled HTTP API.
// The daemon and the OpenAPI generator register the same operations, so the
// published document always matches what is served.
package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/radiotoggle/internal/http/mw"
)

// NewHumaConfig creates the shared Huma configuration for the API.
func NewHumaConfig(version, baseURL string) huma.Config {
	cfg := huma.DefaultConfig("radiotoggled API", version)
	cfg.Info.Description = "REST API for the radiotoggle control surface: Wi-Fi, Bluetooth and mobile data toggles, sleep and brightness rotation."

	// Disable $schema field in responses
	cfg.CreateHooks = nil

	if baseURL != "" {
		cfg.Servers = []*huma.Server{
			{URL: baseURL, Description: "API Server"},
		}
	}

	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		mw.SecurityScheme: {
			Type:        "http",
			Scheme:      "bearer",
			Description: "API key authentication. Include your API key as `Authorization: Bearer <key>` or `X-API-Key: <key>`.",
		},
	}

	cfg.Tags = []*huma.Tag{
		{Name: "Surface", Description: "Rendered control surface and actions"},
		{Name: "Settings", Description: "Integer settings store"},
		{Name: "API Keys", Description: "API key management"},
		{Name: "Logging", Description: "Runtime log level"},
	}

	return cfg
}
