package mqtt

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/jmylchreest/radiotoggle/internal/errors"
	"github.com/jmylchreest/radiotoggle/internal/surface"
)

// Dispatcher runs control surface actions.
type Dispatcher interface {
	Dispatch(ctx context.Context, action string) error
}

// Topics under the configured prefix.
const (
	TopicState        = "state"
	TopicAvailability = "availability"
	TopicActionSet    = "action/set"
	TopicBrightness   = "brightness/state"
)

// Bridge publishes every rendered snapshot and feeds command payloads to the
// shell. It implements surface.Surface.
type Bridge struct {
	client     ClientAPI
	dispatcher Dispatcher
	prefix     string
	logger     *slog.Logger

	pending chan surface.Snapshot
	done    chan struct{}
	wg      sync.WaitGroup
	stop    sync.Once
}

// NewBridge creates a bridge publishing under prefix.
func NewBridge(client ClientAPI, dispatcher Dispatcher, prefix string, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		client:     client,
		dispatcher: dispatcher,
		prefix:     strings.TrimSuffix(prefix, "/"),
		logger:     logger.With("component", "mqtt"),
		pending:    make(chan surface.Snapshot, 1),
		done:       make(chan struct{}),
	}
}

// Topic joins name onto the prefix.
func (b *Bridge) Topic(name string) string {
	return b.prefix + "/" + name
}

// Start subscribes to the command topic, announces availability and starts
// the publisher.
func (b *Bridge) Start() error {
	if err := b.client.Subscribe(b.Topic(TopicActionSet), b.handleAction); err != nil {
		return errors.WrapErrorf(err, "subscribing to %s", b.Topic(TopicActionSet))
	}
	if err := b.client.PublishWith(b.Topic(TopicAvailability), []byte("online"), true); err != nil {
		b.logger.Warn("Failed to publish availability", "error", err)
	}
	b.wg.Go(b.publishLoop)
	b.logger.Info("MQTT bridge started", "prefix", b.prefix)
	return nil
}

// Stop unsubscribes, marks the daemon offline and waits for the publisher.
func (b *Bridge) Stop() {
	b.stop.Do(func() {
		close(b.done)
		b.wg.Wait()
		if err := b.client.Unsubscribe(b.Topic(TopicActionSet)); err != nil {
			b.logger.Debug("Failed to unsubscribe", "error", err)
		}
		if err := b.client.PublishWith(b.Topic(TopicAvailability), []byte("offline"), true); err != nil {
			b.logger.Debug("Failed to publish availability", "error", err)
		}
	})
}

// Present queues snap for publishing. Only the newest unsent snapshot is
// kept, so a slow broker never blocks rendering.
func (b *Bridge) Present(snap surface.Snapshot) {
	for {
		select {
		case b.pending <- snap:
			return
		default:
		}
		select {
		case <-b.pending:
		default:
		}
	}
}

func (b *Bridge) publishLoop() {
	for {
		select {
		case <-b.done:
			return
		case snap := <-b.pending:
			b.publish(snap)
		}
	}
}

func (b *Bridge) publish(snap surface.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		b.logger.Error("Failed to encode snapshot", "error", err)
		return
	}
	if err := b.client.PublishWith(b.Topic(TopicState), payload, true); err != nil {
		b.logger.Warn("Failed to publish snapshot", "error", err)
		return
	}
	for _, c := range snap.Capabilities {
		if err := b.client.PublishWith(b.Topic(string(c.Kind)+"/state"), []byte(c.State), true); err != nil {
			b.logger.Debug("Failed to publish capability state", "capability", c.Kind, "error", err)
		}
	}
	level := []byte(strconv.Itoa(snap.Brightness.Level))
	if err := b.client.PublishWith(b.Topic(TopicBrightness), level, true); err != nil {
		b.logger.Debug("Failed to publish brightness", "error", err)
	}
}

// actionPayload accepts either a bare action name or {"action": "..."}.
func actionPayload(raw []byte) string {
	var body struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Action != "" {
		return body.Action
	}
	return strings.TrimSpace(string(raw))
}

func (b *Bridge) handleAction(_ mqttClient, msg Message) {
	action := actionPayload(msg.Payload())
	if err := b.dispatcher.Dispatch(context.Background(), action); err != nil {
		switch {
		case errors.IsInvalidInput(err):
			b.logger.Warn("Ignoring unknown MQTT action", "action", action)
		case errors.IsTransitionInProgress(err):
			b.logger.Info("MQTT action rejected, transition in progress", "action", action)
		default:
			b.logger.Warn("MQTT action failed", "action", action, "error", err)
		}
		return
	}
	b.logger.Debug("MQTT action dispatched", "action", action, "topic", msg.Topic())
}
