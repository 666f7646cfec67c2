package ingest

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/citysense/citysense-core/internal/device"
	"github.com/citysense/citysense-core/internal/infrastructure/config"
	"github.com/citysense/citysense-core/internal/infrastructure/logging"
	"github.com/citysense/citysense-core/internal/reading"
)

type recordingReadings struct {
	reading.Repository
	mu       sync.Mutex
	inserted []reading.Reading
	err      error
}

func (r *recordingReadings) Insert(_ context.Context, rec *reading.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if !rec.SensorType.Valid() {
		return reading.ErrInvalidSensorType
	}
	rec.Unit = rec.SensorType.Unit()
	r.inserted = append(r.inserted, *rec)
	return nil
}

type recordingDevices struct {
	device.Repository
	mu         sync.Mutex
	heartbeats []int64
	lastSeen   time.Time
	battery    *int
}

func (d *recordingDevices) Heartbeat(_ context.Context, id int64, battery, _ *int, seen time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.heartbeats = append(d.heartbeats, id)
	d.lastSeen = seen
	d.battery = battery
	return nil
}

func testConsumer(readings *recordingReadings, devices *recordingDevices) *Consumer {
	return &Consumer{
		cfg:      config.MQTTConfig{TopicPrefix: "citysense"},
		logger:   &logging.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))},
		devices:  devices,
		readings: readings,
	}
}

func TestHandleMessage_StoresReadingAndHeartbeat(t *testing.T) {
	readings := &recordingReadings{}
	devices := &recordingDevices{}
	c := testConsumer(readings, devices)

	c.handleMessage("citysense/4/readings", []byte(`{
		"deviceId": 4,
		"sensorType": "TEMPERATURE",
		"value": 21.5,
		"timestamp": "2026-08-27T10:00:00Z",
		"batteryLevel": 63
	}`))

	readings.mu.Lock()
	defer readings.mu.Unlock()
	if len(readings.inserted) != 1 {
		t.Fatalf("inserted = %d, want 1", len(readings.inserted))
	}
	rec := readings.inserted[0]
	if rec.DeviceID != 4 || rec.Value != 21.5 {
		t.Errorf("reading = %+v", rec)
	}
	if rec.Unit != reading.UnitCelsius {
		t.Errorf("unit = %q, want derived CELSIUS", rec.Unit)
	}

	devices.mu.Lock()
	defer devices.mu.Unlock()
	if len(devices.heartbeats) != 1 || devices.heartbeats[0] != 4 {
		t.Errorf("heartbeats = %v, want [4]", devices.heartbeats)
	}
	if devices.battery == nil || *devices.battery != 63 {
		t.Errorf("battery = %v, want 63", devices.battery)
	}
	if !devices.lastSeen.Equal(time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("lastSeen = %v, want message timestamp", devices.lastSeen)
	}
}

func TestHandleMessage_DefaultsTimestamp(t *testing.T) {
	readings := &recordingReadings{}
	devices := &recordingDevices{}
	c := testConsumer(readings, devices)

	before := time.Now().UTC()
	c.handleMessage("citysense/1/readings", []byte(`{"deviceId":1,"sensorType":"NOISE","value":44}`))

	readings.mu.Lock()
	defer readings.mu.Unlock()
	if len(readings.inserted) != 1 {
		t.Fatalf("inserted = %d, want 1", len(readings.inserted))
	}
	if readings.inserted[0].Timestamp.Before(before) {
		t.Errorf("timestamp = %v, want defaulted to now", readings.inserted[0].Timestamp)
	}
}

func TestHandleMessage_DropsMalformed(t *testing.T) {
	readings := &recordingReadings{}
	devices := &recordingDevices{}
	c := testConsumer(readings, devices)

	c.handleMessage("citysense/1/readings", []byte(`{not json`))
	c.handleMessage("citysense/1/readings", []byte(`{"deviceId":1,"sensorType":"BANANA","value":1}`))

	readings.mu.Lock()
	defer readings.mu.Unlock()
	if len(readings.inserted) != 0 {
		t.Errorf("inserted = %d, want 0", len(readings.inserted))
	}

	// A rejected reading must not refresh lastSeen.
	devices.mu.Lock()
	defer devices.mu.Unlock()
	if len(devices.heartbeats) != 0 {
		t.Errorf("heartbeats = %v, want none", devices.heartbeats)
	}
}

func TestTopicFilter(t *testing.T) {
	c := testConsumer(&recordingReadings{}, &recordingDevices{})
	if got := c.topic(); got != "citysense/+/readings" {
		t.Errorf("topic() = %q", got)
	}
}
