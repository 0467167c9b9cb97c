// Package handlers provides typed Huma request/response structs and handler
// implementations for the radiotoggled HTTP API.
package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/radiotoggle/internal/errors"
	"github.com/jmylchreest/radiotoggle/internal/surface"
)

// Shell is the slice of the control surface the HTTP API drives.
type Shell interface {
	Render(ctx context.Context) (surface.Snapshot, error)
	Dispatch(ctx context.Context, action string) error
}

// --- API Key types ---

// APIKeyResponse is the API representation of an API key.
type APIKeyResponse struct {
	Name      string    `json:"name" doc:"Display name of the key"`
	Key       string    `json:"key,omitempty" doc:"Full key string (only present on creation)"`
	Prefix    string    `json:"prefix" doc:"First characters of the key"`
	CreatedAt time.Time `json:"created_at" doc:"When the key was created"`
	ExpiresAt time.Time `json:"expires_at,omitzero" doc:"When the key expires"`
	Disabled  bool      `json:"disabled" doc:"Whether the key is rejected"`
}

// --- Common response types ---

// StatusResponse is a simple status response.
type StatusResponse struct {
	Status string `json:"status" doc:"Operation status"`
}

// toHTTPError maps core errors to huma status errors.
func toHTTPError(err error) error {
	switch {
	case errors.IsInvalidInput(err):
		return huma.Error400BadRequest(err.Error())
	case errors.IsNotFound(err):
		return huma.Error404NotFound(err.Error())
	case errors.IsTransitionInProgress(err):
		return huma.Error409Conflict(err.Error())
	case errors.IsDisabled(err):
		return huma.Error503ServiceUnavailable(err.Error())
	default:
		return huma.Error500InternalServerError(err.Error())
	}
}
