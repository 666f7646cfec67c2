package gatewayd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/citysense/citysense-core/internal/device"
	"github.com/citysense/citysense-core/internal/infrastructure/config"
	"github.com/citysense/citysense-core/internal/infrastructure/logging"
	"github.com/citysense/citysense-core/internal/reading"
)

// mockDeviceRepo implements device.Repository backed by a slice.
type mockDeviceRepo struct {
	devices []device.Device
	nextID  int64
}

func (m *mockDeviceRepo) GetByID(_ context.Context, id int64) (*device.Device, error) {
	for i := range m.devices {
		if m.devices[i].ID == id {
			return m.devices[i].Clone(), nil
		}
	}
	return nil, device.ErrNotFound
}

func (m *mockDeviceRepo) List(_ context.Context) ([]device.Device, error) {
	out := make([]device.Device, len(m.devices))
	copy(out, m.devices)
	return out, nil
}

func (m *mockDeviceRepo) ListByType(_ context.Context, t device.DeviceType) ([]device.Device, error) {
	var out []device.Device
	for _, d := range m.devices {
		if d.Type == t {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockDeviceRepo) ListByIDs(_ context.Context, ids []int64) ([]device.Device, error) {
	var out []device.Device
	for _, id := range ids {
		for _, d := range m.devices {
			if d.ID == id {
				out = append(out, d)
			}
		}
	}
	return out, nil
}

func (m *mockDeviceRepo) Create(_ context.Context, d *device.Device) error {
	if err := device.Validate(d); err != nil {
		return err
	}
	m.nextID++
	d.ID = m.nextID
	m.devices = append(m.devices, *d)
	return nil
}

func (m *mockDeviceRepo) Update(_ context.Context, d *device.Device) error {
	if err := device.Validate(d); err != nil {
		return err
	}
	for i := range m.devices {
		if m.devices[i].ID == d.ID {
			m.devices[i] = *d
			return nil
		}
	}
	return device.ErrNotFound
}

func (m *mockDeviceRepo) Delete(_ context.Context, id int64) error {
	for i := range m.devices {
		if m.devices[i].ID == id {
			m.devices = append(m.devices[:i], m.devices[i+1:]...)
			return nil
		}
	}
	return device.ErrNotFound
}

func (m *mockDeviceRepo) Heartbeat(_ context.Context, id int64, battery, signal *int, seen time.Time) error {
	for i := range m.devices {
		if m.devices[i].ID == id {
			if battery != nil {
				m.devices[i].BatteryLevel = battery
			}
			if signal != nil {
				m.devices[i].SignalStrength = signal
			}
			m.devices[i].LastSeen = seen
			return nil
		}
	}
	return device.ErrNotFound
}

// mockReadingRepo implements reading.Repository backed by a slice.
type mockReadingRepo struct {
	readings []reading.Reading
	nextID   int64
}

func (m *mockReadingRepo) Insert(_ context.Context, r *reading.Reading) error {
	if !r.SensorType.Valid() {
		return reading.ErrInvalidSensorType
	}
	m.nextID++
	r.ID = m.nextID
	r.Unit = r.SensorType.Unit()
	m.readings = append(m.readings, *r)
	return nil
}

func (m *mockReadingRepo) Find(_ context.Context, q reading.Query) ([]reading.Reading, error) {
	var out []reading.Reading
	for _, r := range m.readings {
		if q.DeviceID != 0 && r.DeviceID != q.DeviceID {
			continue
		}
		if q.SensorType != "" && r.SensorType != q.SensorType {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockReadingRepo) SensorTypes(_ context.Context) ([]reading.SensorType, error) {
	seen := make(map[reading.SensorType]bool)
	var out []reading.SensorType
	for _, r := range m.readings {
		if !seen[r.SensorType] {
			seen[r.SensorType] = true
			out = append(out, r.SensorType)
		}
	}
	return out, nil
}

func (m *mockReadingRepo) DeviceIDsBySensorType(_ context.Context, t reading.SensorType) ([]int64, error) {
	seen := make(map[int64]bool)
	var out []int64
	for _, r := range m.readings {
		if r.SensorType == t && !seen[r.DeviceID] {
			seen[r.DeviceID] = true
			out = append(out, r.DeviceID)
		}
	}
	return out, nil
}

func (m *mockReadingRepo) LatestByDevice(_ context.Context, deviceID int64) (*reading.Reading, error) {
	var latest *reading.Reading
	for i := range m.readings {
		r := &m.readings[i]
		if r.DeviceID != deviceID {
			continue
		}
		if latest == nil || r.Timestamp.After(latest.Timestamp) {
			latest = r
		}
	}
	if latest == nil {
		return nil, reading.ErrNotFound
	}
	out := *latest
	return &out, nil
}

func (m *mockReadingRepo) Average(_ context.Context, t reading.SensorType, start, end time.Time) (float64, error) {
	var sum float64
	var n int
	for _, r := range m.readings {
		if r.SensorType != t || r.Timestamp.Before(start) || r.Timestamp.After(end) {
			continue
		}
		sum += r.Value
		n++
	}
	if n == 0 {
		return 0, reading.ErrNotFound
	}
	return sum / float64(n), nil
}

func testServer(t *testing.T, devices *mockDeviceRepo, readings *mockReadingRepo) http.Handler {
	t.Helper()
	s, err := New(Deps{
		Config:   config.GatewayConfig{},
		Logger:   &logging.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))},
		Devices:  devices,
		Readings: readings,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s.buildRouter()
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func seedDevices() *mockDeviceRepo {
	battery := func(n int) *int { return &n }
	return &mockDeviceRepo{
		nextID: 2,
		devices: []device.Device{
			{ID: 1, Name: "tl-main-5th", Type: device.TypeTrafficLight, Location: "Main & 5th", Active: true, BatteryLevel: battery(80)},
			{ID: 2, Name: "aq-harbour", Type: device.TypeAirQuality, Location: "Harbour Rd", Active: false, BatteryLevel: battery(10)},
		},
	}
}

func TestHandleListDevices(t *testing.T) {
	h := testServer(t, seedDevices(), &mockReadingRepo{})

	rec := doRequest(t, h, http.MethodGet, "/api/devices", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got []device.Device
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("devices = %d, want 2", len(got))
	}
}

func TestHandleGetDevice_NotFound(t *testing.T) {
	h := testServer(t, seedDevices(), &mockReadingRepo{})

	rec := doRequest(t, h, http.MethodGet, "/api/devices/99", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	var e Error
	if err := json.NewDecoder(rec.Body).Decode(&e); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if e.Code != ErrCodeNotFound {
		t.Errorf("code = %q, want %q", e.Code, ErrCodeNotFound)
	}
}

func TestHandleCreateDevice(t *testing.T) {
	repo := seedDevices()
	h := testServer(t, repo, &mockReadingRepo{})

	rec := doRequest(t, h, http.MethodPost, "/api/devices", map[string]any{
		"name":     "sl-park",
		"type":     "STREET_LIGHT",
		"location": "Riverside Park",
		"active":   true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var got device.Device
	json.NewDecoder(rec.Body).Decode(&got)
	if got.ID == 0 {
		t.Error("created device has no id")
	}
	if len(repo.devices) != 3 {
		t.Errorf("repo devices = %d, want 3", len(repo.devices))
	}
}

func TestHandleCreateDevice_InvalidType(t *testing.T) {
	h := testServer(t, seedDevices(), &mockReadingRepo{})

	rec := doRequest(t, h, http.MethodPost, "/api/devices", map[string]any{
		"name": "x",
		"type": "TOASTER",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleToggleDevice(t *testing.T) {
	repo := seedDevices()
	h := testServer(t, repo, &mockReadingRepo{})

	rec := doRequest(t, h, http.MethodPatch, "/api/devices/1/toggle", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got device.Device
	json.NewDecoder(rec.Body).Decode(&got)
	if got.Active {
		t.Error("Active = true, want toggled off")
	}
	if repo.devices[0].Active {
		t.Error("repo record not toggled")
	}
}

func TestHandleUpdateDevice(t *testing.T) {
	h := testServer(t, seedDevices(), &mockReadingRepo{})

	rec := doRequest(t, h, http.MethodPut, "/api/devices/1", map[string]string{
		"name":     "tl-renamed",
		"location": "Main & 6th",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var got device.Device
	json.NewDecoder(rec.Body).Decode(&got)
	if got.Name != "tl-renamed" || got.Location != "Main & 6th" {
		t.Errorf("device = %+v", got)
	}
}

func TestHandleDeleteDevice(t *testing.T) {
	repo := seedDevices()
	h := testServer(t, repo, &mockReadingRepo{})

	rec := doRequest(t, h, http.MethodDelete, "/api/devices/2", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(repo.devices) != 1 {
		t.Errorf("repo devices = %d, want 1", len(repo.devices))
	}

	rec = doRequest(t, h, http.MethodDelete, "/api/devices/2", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestHandleHeartbeat(t *testing.T) {
	repo := seedDevices()
	h := testServer(t, repo, &mockReadingRepo{})

	battery := 42
	rec := doRequest(t, h, http.MethodPost, "/api/devices/1/heartbeat", map[string]any{
		"batteryLevel": battery,
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204: %s", rec.Code, rec.Body.String())
	}
	if repo.devices[0].BatteryLevel == nil || *repo.devices[0].BatteryLevel != 42 {
		t.Errorf("battery = %v, want 42", repo.devices[0].BatteryLevel)
	}
	if repo.devices[0].LastSeen.IsZero() {
		t.Error("lastSeen not refreshed")
	}
}

func TestHandleFleetStats(t *testing.T) {
	h := testServer(t, seedDevices(), &mockReadingRepo{})

	rec := doRequest(t, h, http.MethodGet, "/api/devices/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got map[string]json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	var total, lowBattery int
	json.Unmarshal(got["total"], &total)
	json.Unmarshal(got["lowBattery"], &lowBattery)
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if lowBattery != 1 {
		t.Errorf("lowBattery = %d, want 1", lowBattery)
	}
}

func TestHandleCreateAndQueryReadings(t *testing.T) {
	readings := &mockReadingRepo{}
	h := testServer(t, seedDevices(), readings)

	rec := doRequest(t, h, http.MethodPost, "/api/sensor-data", map[string]any{
		"deviceId":   1,
		"sensorType": "TEMPERATURE",
		"value":      21.5,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var created reading.Reading
	json.NewDecoder(rec.Body).Decode(&created)
	if created.Unit != reading.UnitCelsius {
		t.Errorf("unit = %q, want CELSIUS derived", created.Unit)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/sensor-data?deviceId=1&sensorType=TEMPERATURE", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("query status = %d, want 200", rec.Code)
	}
	var got []reading.Reading
	json.NewDecoder(rec.Body).Decode(&got)
	if len(got) != 1 || got[0].Value != 21.5 {
		t.Errorf("readings = %v", got)
	}
}

func TestHandleQueryReadings_BadParams(t *testing.T) {
	h := testServer(t, seedDevices(), &mockReadingRepo{})

	for _, path := range []string{
		"/api/sensor-data?deviceId=abc",
		"/api/sensor-data?sensorType=BANANA",
		"/api/sensor-data?start=not-a-time",
	} {
		rec := doRequest(t, h, http.MethodGet, path, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", path, rec.Code)
		}
	}
}

func TestHandleDevicesBySensorType(t *testing.T) {
	readings := &mockReadingRepo{
		nextID: 2,
		readings: []reading.Reading{
			{ID: 1, DeviceID: 1, SensorType: reading.SensorTemperature, Value: 20, Timestamp: time.Now()},
			{ID: 2, DeviceID: 2, SensorType: reading.SensorAirQuality, Value: 80, Timestamp: time.Now()},
		},
	}
	h := testServer(t, seedDevices(), readings)

	rec := doRequest(t, h, http.MethodGet, "/api/sensor-data/devices-by-type/TEMPERATURE", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got []device.Device
	json.NewDecoder(rec.Body).Decode(&got)
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("devices = %v, want only device 1", got)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/sensor-data/devices-by-type/BANANA", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid type status = %d, want 400", rec.Code)
	}
}

func TestHandleLatestByDevice(t *testing.T) {
	now := time.Now().UTC()
	readings := &mockReadingRepo{
		nextID: 2,
		readings: []reading.Reading{
			{ID: 1, DeviceID: 1, SensorType: reading.SensorTemperature, Value: 19, Timestamp: now.Add(-time.Hour)},
			{ID: 2, DeviceID: 1, SensorType: reading.SensorTemperature, Value: 22, Timestamp: now},
		},
	}
	h := testServer(t, seedDevices(), readings)

	rec := doRequest(t, h, http.MethodGet, "/api/sensor-data/latest/device/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got reading.Reading
	json.NewDecoder(rec.Body).Decode(&got)
	if got.Value != 22 {
		t.Errorf("value = %v, want latest 22", got.Value)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/sensor-data/latest/device/99", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("no readings status = %d, want 404", rec.Code)
	}
}

func TestHandleAverage(t *testing.T) {
	now := time.Now().UTC()
	readings := &mockReadingRepo{
		nextID: 2,
		readings: []reading.Reading{
			{ID: 1, DeviceID: 1, SensorType: reading.SensorTemperature, Value: 10, Timestamp: now.Add(-time.Hour)},
			{ID: 2, DeviceID: 1, SensorType: reading.SensorTemperature, Value: 30, Timestamp: now.Add(-time.Minute)},
		},
	}
	h := testServer(t, seedDevices(), readings)

	rec := doRequest(t, h, http.MethodGet, "/api/sensor-data/average?sensorType=TEMPERATURE", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Average float64 `json:"average"`
	}
	json.NewDecoder(rec.Body).Decode(&got)
	if got.Average != 20 {
		t.Errorf("average = %v, want 20", got.Average)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/sensor-data/average", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing type status = %d, want 400", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := testServer(t, seedDevices(), &mockReadingRepo{})

	rec := doRequest(t, h, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}
