package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/radiotoggle/pkg/capability"
)

func TestTransitionMetrics(t *testing.T) {
	m := New()

	m.TransitionStarted(capability.WiFi)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InFlight.WithLabelValues("wifi")))

	m.TransitionFinished(capability.Result{Kind: capability.WiFi, Outcome: capability.Exhausted, Polls: 15})
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight.WithLabelValues("wifi")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("wifi", "exhausted")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.TransitionPolls))
}

func TestRenderAndDispatchCounters(t *testing.T) {
	m := New()
	m.Rendered("dispatch")
	m.Rendered("dispatch")
	m.Rendered("setting")
	m.Dispatched("wifi", "ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Renders.WithLabelValues("dispatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Renders.WithLabelValues("setting")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("wifi", "ok")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.TransitionStarted(capability.Bluetooth)
	m.TransitionFinished(capability.Result{Kind: capability.Bluetooth})
	m.Rendered("x")
	m.Dispatched("x", "y")
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.Rendered("observer")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `radiotoggle_renders_total{trigger="observer"} 1`))
}

func TestMiddlewareCountsStatus(t *testing.T) {
	m := New()
	h := m.Middleware(func(*http.Request) string { return "/api/v1/things/{id}" })(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/things/1", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/api/v1/things/{id}", "202")))
}
