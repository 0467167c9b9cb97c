package routes

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/radiotoggle/internal/http/mw"
)

// Register registers all API routes with the given Huma API instance.
func Register(api huma.API, h *Handlers) {
	// --- Health ---
	mw.PublicGet(api, "/api/v1/health", h.HealthCheck,
		mw.WithTags("Health"),
		mw.WithSummary("Health check"),
		mw.WithDescription("Returns service health status. This endpoint does not require authentication."),
		mw.WithOperationID("healthCheck"))

	mw.HiddenGet(api, "/healthz", h.HealthCheck)

	// --- Version ---
	mw.PublicGet(api, "/api/v1/version", h.VersionCheck,
		mw.WithTags("Version"),
		mw.WithSummary("Daemon version"),
		mw.WithDescription("Returns the running daemon's version, commit, and build date. This endpoint does not require authentication."),
		mw.WithOperationID("getVersion"))

	// --- Surface ---
	mw.ProtectedGet(api, "/api/v1/surface", h.Surface.GetSurface,
		mw.WithTags("Surface"),
		mw.WithSummary("Render the control surface"),
		mw.WithDescription("Returns a freshly rendered snapshot: one entry per radio plus the brightness control."),
		mw.WithOperationID("getSurface"))

	mw.ProtectedPost(api, "/api/v1/actions/{action}", h.Surface.DispatchAction,
		mw.WithTags("Surface"),
		mw.WithSummary("Press a control"),
		mw.WithDescription("Dispatches an action. Radio toggles are confirmed asynchronously; 409 is returned while the capability is already switching."),
		mw.WithOperationID("dispatchAction"),
		mw.WithDefaultStatus(http.StatusAccepted))

	// --- Settings ---
	mw.ProtectedGet(api, "/api/v1/settings/{key}", h.Settings.GetSetting,
		mw.WithTags("Settings"),
		mw.WithSummary("Read a setting"),
		mw.WithOperationID("getSetting"))

	mw.ProtectedPut(api, "/api/v1/settings/{key}", h.Settings.PutSetting,
		mw.WithTags("Settings"),
		mw.WithSummary("Write a setting"),
		mw.WithDescription("Writes an integer setting. Brightness keys re-render the surface."),
		mw.WithOperationID("putSetting"))

	// --- API Keys ---
	mw.ProtectedPost(api, "/api/v1/apikeys", h.APIKey.CreateAPIKey,
		mw.WithTags("API Keys"),
		mw.WithSummary("Create an API key"),
		mw.WithOperationID("createApiKey"),
		mw.WithDefaultStatus(http.StatusCreated))

	mw.ProtectedGet(api, "/api/v1/apikeys", h.APIKey.ListAPIKeys,
		mw.WithTags("API Keys"),
		mw.WithSummary("List API keys"),
		mw.WithOperationID("listApiKeys"))

	mw.ProtectedDelete(api, "/api/v1/apikeys/{key}", h.APIKey.DeleteAPIKey,
		mw.WithTags("API Keys"),
		mw.WithSummary("Delete an API key"),
		mw.WithOperationID("deleteApiKey"),
		mw.WithDefaultStatus(http.StatusNoContent))

	mw.ProtectedPut(api, "/api/v1/apikeys/{key}/disabled", h.APIKey.SetAPIKeyDisabled,
		mw.WithTags("API Keys"),
		mw.WithSummary("Enable or disable an API key"),
		mw.WithOperationID("setApiKeyDisabled"))

	// --- Logging ---
	mw.ProtectedGet(api, "/api/v1/logging/level", h.Logging.GetLevel,
		mw.WithTags("Logging"),
		mw.WithSummary("Get global log level"),
		mw.WithOperationID("getLogLevel"))

	mw.ProtectedPut(api, "/api/v1/logging/level", h.Logging.SetLevel,
		mw.WithTags("Logging"),
		mw.WithSummary("Set global log level"),
		mw.WithDescription("Changes the global log level at runtime. Valid values: debug, info, warn, error."),
		mw.WithOperationID("setLogLevel"))
}
