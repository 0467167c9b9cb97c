package mqtt

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/radiotoggle/internal/errors"
	"github.com/jmylchreest/radiotoggle/internal/surface"
	"github.com/jmylchreest/radiotoggle/pkg/brightness"
	"github.com/jmylchreest/radiotoggle/pkg/capability"
)

type publication struct {
	topic   string
	payload string
	retain  bool
}

type fakeClient struct {
	mu        sync.Mutex
	handlers  map[string]Handler
	published []publication
}

func newFakeClient() *fakeClient {
	return &fakeClient{handlers: make(map[string]Handler)}
}

func (f *fakeClient) Subscribe(topic string, cb Handler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = cb
	return nil
}

func (f *fakeClient) Unsubscribe(topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, topic)
	return nil
}

func (f *fakeClient) PublishWith(topic string, payload []byte, retain bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, publication{topic: topic, payload: string(payload), retain: retain})
	return nil
}

func (f *fakeClient) handler(topic string) Handler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handlers[topic]
}

func (f *fakeClient) last(topic string) (publication, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.published) - 1; i >= 0; i-- {
		if f.published[i].topic == topic {
			return f.published[i], true
		}
	}
	return publication{}, false
}

var _ ClientAPI = (*fakeClient)(nil)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type recordingDispatcher struct {
	mu      sync.Mutex
	actions []string
	err     error
}

func (r *recordingDispatcher) Dispatch(_ context.Context, action string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
	return r.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBridge(t *testing.T) (*Bridge, *fakeClient, *recordingDispatcher) {
	t.Helper()
	client := newFakeClient()
	dispatcher := &recordingDispatcher{}
	b := NewBridge(client, dispatcher, "radiotoggle/", testLogger())
	require.NoError(t, b.Start())
	t.Cleanup(b.Stop)
	return b, client, dispatcher
}

func TestBridgeAnnouncesAvailability(t *testing.T) {
	b, client, _ := newTestBridge(t)

	p, ok := client.last("radiotoggle/availability")
	require.True(t, ok)
	assert.Equal(t, "online", p.payload)
	assert.True(t, p.retain)

	b.Stop()
	p, _ = client.last("radiotoggle/availability")
	assert.Equal(t, "offline", p.payload)
	assert.Nil(t, client.handler("radiotoggle/action/set"))
}

func TestBridgePublishesSnapshot(t *testing.T) {
	b, client, _ := newTestBridge(t)
	snap := surface.Snapshot{
		Capabilities: []surface.CapabilityView{
			{Kind: capability.WiFi, State: capability.Transitioning, Indicator: surface.IndicatorMid},
			{Kind: capability.Bluetooth, State: capability.On, Indicator: surface.IndicatorOn},
		},
		Brightness: brightness.View{Mode: brightness.Manual, Level: 204, Icon: brightness.IconHalf},
	}

	b.Present(snap)

	require.Eventually(t, func() bool {
		_, ok := client.last("radiotoggle/brightness/state")
		return ok
	}, time.Second, 5*time.Millisecond)

	state, ok := client.last("radiotoggle/state")
	require.True(t, ok)
	assert.True(t, state.retain)
	var decoded surface.Snapshot
	require.NoError(t, json.Unmarshal([]byte(state.payload), &decoded))
	assert.Equal(t, snap, decoded)

	wifi, _ := client.last("radiotoggle/wifi/state")
	assert.Equal(t, "transitioning", wifi.payload)
	bt, _ := client.last("radiotoggle/bluetooth/state")
	assert.Equal(t, "on", bt.payload)
	level, _ := client.last("radiotoggle/brightness/state")
	assert.Equal(t, "204", level.payload)
}

func TestBridgeKeepsNewestPendingSnapshot(t *testing.T) {
	b := NewBridge(newFakeClient(), &recordingDispatcher{}, "rt", testLogger())

	b.Present(surface.Snapshot{Brightness: brightness.View{Level: 1}})
	b.Present(surface.Snapshot{Brightness: brightness.View{Level: 2}})

	require.Len(t, b.pending, 1)
	assert.Equal(t, 2, (<-b.pending).Brightness.Level)
}

func TestBridgeDispatchesActions(t *testing.T) {
	_, client, dispatcher := newTestBridge(t)
	h := client.handler("radiotoggle/action/set")
	require.NotNil(t, h)

	h(nil, fakeMessage{topic: "radiotoggle/action/set", payload: []byte("wifi\n")})
	h(nil, fakeMessage{topic: "radiotoggle/action/set", payload: []byte(`{"action":"brightness"}`)})

	assert.Equal(t, []string{"wifi", "brightness"}, dispatcher.actions)
}

func TestBridgeSwallowsDispatchErrors(t *testing.T) {
	_, client, dispatcher := newTestBridge(t)
	dispatcher.err = errors.InvalidInputf("unknown action")

	h := client.handler("radiotoggle/action/set")
	assert.NotPanics(t, func() {
		h(nil, fakeMessage{topic: "radiotoggle/action/set", payload: []byte("nfc")})
	})
	assert.Equal(t, []string{"nfc"}, dispatcher.actions)
}

func TestBrokerURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{in: "mqtt://localhost:1883", want: "tcp://localhost:1883"},
		{in: "tcp://broker:1883", want: "tcp://broker:1883"},
		{in: "tls://broker:8883", want: "ssl://broker:8883"},
		{in: "ws://broker:9001/mqtt", want: "ws://broker:9001/mqtt"},
		{in: "http://broker", err: true},
		{in: "localhost", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, _, err := brokerURL(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
