package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jmylchreest/radiotoggle/internal/events"
	"github.com/jmylchreest/radiotoggle/internal/surface"
)

// errFeedEstablished wraps read errors on a feed that delivered at least
// one snapshot, so the reconnect backoff starts over.
var errFeedEstablished = errors.New("feed was established")

// feedURL maps the API base URL onto the WebSocket endpoint, asking only for
// rendered surfaces.
func feedURL(apiURL string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(apiURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid API URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported API URL scheme %q", u.Scheme)
	}
	u.Path += "/api/v1/ws"
	u.RawQuery = url.Values{"types": {string(events.SurfaceRendered)}}.Encode()
	return u.String(), nil
}

// readFeed presents every rendered surface until the connection drops.
func (a *App) readFeed(ctx context.Context) error {
	u, err := feedURL(a.opts.APIURL)
	if err != nil {
		return err
	}
	header := http.Header{}
	if a.opts.APIKey != "" {
		header.Set("X-API-Key", a.opts.APIKey)
	}

	conn, resp, err := a.dialer.DialContext(ctx, u, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("feed handshake failed with status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("failed to dial feed: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	received := false
	for {
		var evt events.Event
		if err := conn.ReadJSON(&evt); err != nil {
			if received {
				return fmt.Errorf("%w: %w", errFeedEstablished, err)
			}
			return fmt.Errorf("failed to read feed: %w", err)
		}
		if evt.Type != events.SurfaceRendered {
			continue
		}
		var rendered surface.RenderedEvent
		if err := json.Unmarshal(evt.Data, &rendered); err != nil {
			a.logger.Debug("Dropping malformed surface event", "error", err)
			continue
		}
		a.logger.Debug("Surface rendered", "reason", rendered.Reason)
		received = true
		a.present(rendered.Snapshot)
	}
}
