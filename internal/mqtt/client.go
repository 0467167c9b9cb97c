// Package mqtt bridges the control surface to an MQTT broker: snapshots are
// published retained and actions are accepted on a command topic.
package mqtt

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ClientAPI is the broker surface the bridge needs. It lets tests run
// without a live broker.
type ClientAPI interface {
	Subscribe(topic string, cb Handler) error
	Unsubscribe(topic string) error
	PublishWith(topic string, payload []byte, retain bool) error
}

// Message is re-exported for handlers.
type Message = mqtt.Message

// Handler is the paho message callback.
type Handler = mqtt.MessageHandler

type mqttClient = mqtt.Client

// Options configure the broker connection.
type Options struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	WillTopic      string
	ConnectTimeout time.Duration
}

// Client wraps a connected paho client.
type Client struct {
	cli    mqtt.Client
	logger *slog.Logger
}

// brokerURL normalizes mqtt://, tls:// and ws:// style URLs to what paho accepts.
func brokerURL(raw string) (string, *url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", nil, fmt.Errorf("invalid broker url %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", nil, fmt.Errorf("invalid broker url %q: missing host", raw)
	}
	switch u.Scheme {
	case "mqtt", "tcp":
		return "tcp://" + u.Host, u, nil
	case "ssl", "tls", "mqtts":
		return "ssl://" + u.Host, u, nil
	case "ws", "wss":
		return u.Scheme + "://" + u.Host + u.Path, u, nil
	default:
		return "", nil, fmt.Errorf("unsupported broker scheme %q", u.Scheme)
	}
}

// Connect dials the broker. A will marks the daemon offline on WillTopic when
// the connection drops.
func Connect(o Options, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	server, u, err := brokerURL(o.Broker)
	if err != nil {
		return nil, err
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 10 * time.Second
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(server)
	opts.SetClientID(o.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(o.ConnectTimeout)
	opts.OnConnect = func(mqtt.Client) { logger.Info("MQTT connected", "broker", server) }
	opts.OnConnectionLost = func(_ mqtt.Client, err error) { logger.Warn("MQTT connection lost", "error", err) }

	username, password := o.Username, o.Password
	if u.User != nil && username == "" {
		username = u.User.Username()
		password, _ = u.User.Password()
	}
	if username != "" {
		opts.SetUsername(username)
		opts.SetPassword(password)
	}
	if u.Scheme == "ssl" || u.Scheme == "tls" || u.Scheme == "mqtts" || u.Scheme == "wss" {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	if o.WillTopic != "" {
		opts.SetWill(o.WillTopic, "offline", 1, true)
	}

	cli := mqtt.NewClient(opts)
	t := cli.Connect()
	if !t.WaitTimeout(o.ConnectTimeout) {
		return nil, fmt.Errorf("timed out connecting to %s", server)
	}
	if err := t.Error(); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", server, err)
	}
	return &Client{cli: cli, logger: logger}, nil
}

// Subscribe registers cb for topic at QoS 1.
func (c *Client) Subscribe(topic string, cb Handler) error {
	t := c.cli.Subscribe(topic, 1, cb)
	if t.Wait() && t.Error() != nil {
		return t.Error()
	}
	c.logger.Debug("MQTT subscribed", "topic", topic)
	return nil
}

// Unsubscribe removes the subscription for topic.
func (c *Client) Unsubscribe(topic string) error {
	t := c.cli.Unsubscribe(topic)
	if t.Wait() && t.Error() != nil {
		return t.Error()
	}
	c.logger.Debug("MQTT unsubscribed", "topic", topic)
	return nil
}

// PublishWith publishes payload at QoS 0.
func (c *Client) PublishWith(topic string, payload []byte, retain bool) error {
	t := c.cli.Publish(topic, 0, retain, payload)
	if t.Wait() && t.Error() != nil {
		return t.Error()
	}
	return nil
}

// Close disconnects, giving in-flight work quiesce time to finish.
func (c *Client) Close(quiesce time.Duration) {
	c.cli.Disconnect(uint(quiesce.Milliseconds()))
}
