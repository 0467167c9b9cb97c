package handlers

import (
	"context"
	"log/slog"

	"github.com/jmylchreest/radiotoggle/internal/surface"
)

// --- Get Surface ---

// GetSurfaceInput is the input for reading the rendered surface.
type GetSurfaceInput struct{}

// GetSurfaceOutput is the current snapshot.
type GetSurfaceOutput struct {
	Body surface.Snapshot
}

// --- Dispatch Action ---

// DispatchActionInput names the control to press.
type DispatchActionInput struct {
	Action string `path:"action" doc:"wifi, bluetooth, mobile_data, sleep, brightness or a numeric button id (0-4)"`
}

// DispatchActionOutput is returned with 202 Accepted. Radio toggles complete
// asynchronously; watch the WebSocket for the transition events.
type DispatchActionOutput struct {
	Body struct {
		Status string `json:"status" doc:"Operation status"`
		Action string `json:"action" doc:"Normalized action name"`
	}
}

// SurfaceHandler implements the control surface handlers.
type SurfaceHandler struct {
	Shell  Shell
	Logger *slog.Logger
}

// GetSurface renders the surface.
func (h *SurfaceHandler) GetSurface(ctx context.Context, _ *GetSurfaceInput) (*GetSurfaceOutput, error) {
	snap, err := h.Shell.Render(ctx)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &GetSurfaceOutput{Body: snap}, nil
}

// DispatchAction presses a control.
func (h *SurfaceHandler) DispatchAction(ctx context.Context, input *DispatchActionInput) (*DispatchActionOutput, error) {
	action, err := surface.ParseAction(input.Action)
	if err != nil {
		return nil, toHTTPError(err)
	}
	if err := h.Shell.Dispatch(ctx, string(action)); err != nil {
		return nil, toHTTPError(err)
	}
	if h.Logger != nil {
		h.Logger.Debug("Action dispatched via API", "action", action)
	}

	out := &DispatchActionOutput{}
	out.Body.Status = "accepted"
	out.Body.Action = string(action)
	return out, nil
}

// Ensure SurfaceHandler implements the interface at compile time.
var _ SurfaceHandlers = (*SurfaceHandler)(nil)

// SurfaceHandlers defines the interface for control surface operations.
type SurfaceHandlers interface {
	GetSurface(ctx context.Context, input *GetSurfaceInput) (*GetSurfaceOutput, error)
	DispatchAction(ctx context.Context, input *DispatchActionInput) (*DispatchActionOutput, error)
}
