package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/citysense/citysense-core/internal/device"
	"github.com/citysense/citysense-core/internal/infrastructure/config"
	"github.com/citysense/citysense-core/internal/infrastructure/influxdb"
	"github.com/citysense/citysense-core/internal/infrastructure/logging"
	"github.com/citysense/citysense-core/internal/reading"
)

// ErrConnectionFailed indicates the initial broker connection failed.
var ErrConnectionFailed = errors.New("ingest: connection to broker failed")

// connectTimeout bounds the initial broker connection attempt.
const connectTimeout = 10 * time.Second

// handlerTimeout bounds the storage work done per received message.
const handlerTimeout = 5 * time.Second

// Deps holds the dependencies required by the consumer.
type Deps struct {
	Config   config.MQTTConfig
	Logger   *logging.Logger
	Devices  device.Repository
	Readings reading.Repository
	Mirror   *influxdb.Client // optional telemetry mirror
}

// Consumer subscribes to device reading topics and stores incoming
// telemetry. Devices publish to "{prefix}/{deviceId}/readings"; the
// payload is the same JSON shape accepted by POST /api/sensor-data.
//
// Each stored reading also refreshes the device's lastSeen, so a
// steadily publishing device never shows as offline.
type Consumer struct {
	client   pahomqtt.Client
	cfg      config.MQTTConfig
	logger   *logging.Logger
	devices  device.Repository
	readings reading.Repository
	mirror   *influxdb.Client
}

// payload is the expected shape of a reading message.
type payload struct {
	DeviceID       int64              `json:"deviceId"`
	SensorType     reading.SensorType `json:"sensorType"`
	Value          float64            `json:"value"`
	Timestamp      time.Time          `json:"timestamp"`
	BatteryLevel   *int               `json:"batteryLevel"`
	SignalStrength *int               `json:"signalStrength"`
}

// Start connects to the broker and subscribes to the reading topic.
// The consumer keeps running until Close() is called; the paho client
// reconnects and re-subscribes on broker loss.
func Start(deps Deps) (*Consumer, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	c := &Consumer{
		cfg:      deps.Config,
		logger:   deps.Logger,
		devices:  deps.Devices,
		readings: deps.Readings,
		mirror:   deps.Mirror,
	}

	opts := buildClientOptions(deps.Config)
	opts.SetOnConnectHandler(func(client pahomqtt.Client) {
		c.subscribe(client)
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.logger.Warn("broker connection lost", "error", err)
	})

	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c.logger.Info("reading ingest started",
		"broker", fmt.Sprintf("%s:%d", deps.Config.Broker.Host, deps.Config.Broker.Port),
		"topic", c.topic(),
	)
	return c, nil
}

// Close disconnects from the broker, allowing in-flight handlers to
// finish.
func (c *Consumer) Close() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(uint(handlerTimeout.Milliseconds()))
	}
}

// topic returns the subscription filter covering all devices.
func (c *Consumer) topic() string {
	return fmt.Sprintf("%s/+/readings", c.cfg.TopicPrefix)
}

// subscribe registers the message handler. Called on every (re)connect
// since the broker may have dropped the session.
func (c *Consumer) subscribe(client pahomqtt.Client) {
	token := client.Subscribe(c.topic(), byte(c.cfg.QoS), func(_ pahomqtt.Client, msg pahomqtt.Message) {
		c.handleMessage(msg.Topic(), msg.Payload())
	})
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			c.logger.Error("subscribing to reading topic", "topic", c.topic(), "error", err)
		}
	}()
}

// handleMessage stores one published reading. Malformed or invalid
// messages are logged and dropped; the broker is never asked to retry.
func (c *Consumer) handleMessage(topic string, raw []byte) {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.logger.Warn("dropping malformed reading message", "topic", topic, "error", err)
		return
	}

	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	rec := &reading.Reading{
		DeviceID:   p.DeviceID,
		SensorType: p.SensorType,
		Value:      p.Value,
		Timestamp:  p.Timestamp,
	}
	if err := c.readings.Insert(ctx, rec); err != nil {
		c.logger.Warn("dropping rejected reading", "topic", topic, "error", err)
		return
	}

	if err := c.devices.Heartbeat(ctx, p.DeviceID, p.BatteryLevel, p.SignalStrength, p.Timestamp); err != nil {
		c.logger.Warn("recording heartbeat from reading", "deviceId", p.DeviceID, "error", err)
	}

	if c.mirror.IsConnected() {
		//nolint:errcheck // mirror writes are fire-and-forget
		c.mirror.WriteReading(rec)
	}
}

// buildClientOptions translates configuration into paho options.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}

	clientID := cfg.Broker.ClientID
	if clientID == "" {
		clientID = "citysense-ingest"
	}
	// Suffix avoids client-id collisions when several gateways share a broker.
	clientID = fmt.Sprintf("%s-%s", clientID, uuid.NewString()[:8])

	opts := pahomqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port)).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second).
		SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second).
		SetCleanSession(false).
		SetOrderMatters(false)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	return opts
}
