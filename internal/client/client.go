package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/citysense/citysense-core/internal/device"
	"github.com/citysense/citysense-core/internal/infrastructure/config"
	"github.com/citysense/citysense-core/internal/reading"
)

// maxErrorBodySize bounds how much of an error response body is read
// when extracting a failure message.
const maxErrorBodySize = 4096

// Client is the HTTP client for the CitySense gateway.
//
// Every method issues one request and classifies any failure into the
// taxonomy in errors.go. Requests are bounded by the configured timeout;
// a hung request is aborted and surfaced as ErrNetwork.
//
// Thread Safety: all methods are safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a gateway client from configuration.
func New(cfg config.ClientConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// ListDevices fetches the full device collection.
func (c *Client) ListDevices(ctx context.Context) ([]device.Device, error) {
	var devices []device.Device
	if err := c.do(ctx, "list devices", http.MethodGet, "/devices", nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// ToggleDevice flips the active flag of a device and returns the
// gateway's canonical record.
func (c *Client) ToggleDevice(ctx context.Context, id int64) (*device.Device, error) {
	var d device.Device
	path := fmt.Sprintf("/devices/%d/toggle", id)
	if err := c.do(ctx, "toggle device", http.MethodPatch, path, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateDevice submits a name/location edit and returns the gateway's
// canonical record. The gateway may normalise fields.
func (c *Client) UpdateDevice(ctx context.Context, id int64, name, location string) (*device.Device, error) {
	body := map[string]string{"name": name, "location": location}
	var d device.Device
	path := fmt.Sprintf("/devices/%d", id)
	if err := c.do(ctx, "update device", http.MethodPut, path, body, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// DeleteDevice requests deletion of a device.
func (c *Client) DeleteDevice(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/devices/%d", id)
	return c.do(ctx, "delete device", http.MethodDelete, path, nil, nil)
}

// SensorTypes fetches the distinct sensor types known to the gateway.
func (c *Client) SensorTypes(ctx context.Context) ([]reading.SensorType, error) {
	var types []reading.SensorType
	if err := c.do(ctx, "list sensor types", http.MethodGet, "/sensor-data/types", nil, &types); err != nil {
		return nil, err
	}
	return types, nil
}

// DevicesBySensorType fetches the devices that have reported the given
// sensor type.
func (c *Client) DevicesBySensorType(ctx context.Context, t reading.SensorType) ([]device.Device, error) {
	var devices []device.Device
	path := "/sensor-data/devices-by-type/" + url.PathEscape(string(t))
	if err := c.do(ctx, "list devices by sensor type", http.MethodGet, path, nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// Readings fetches readings matching the query, ordered ascending by
// timestamp.
func (c *Client) Readings(ctx context.Context, q reading.Query) ([]reading.Reading, error) {
	params := url.Values{}
	if q.DeviceID != 0 {
		params.Set("deviceId", strconv.FormatInt(q.DeviceID, 10))
	}
	if q.SensorType != "" {
		params.Set("sensorType", string(q.SensorType))
	}
	if !q.Start.IsZero() {
		params.Set("start", q.Start.UTC().Format(time.RFC3339))
	}
	if !q.End.IsZero() {
		params.Set("end", q.End.UTC().Format(time.RFC3339))
	}

	path := "/sensor-data"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var readings []reading.Reading
	if err := c.do(ctx, "query readings", http.MethodGet, path, nil, &readings); err != nil {
		return nil, err
	}
	return readings, nil
}

// do issues one request and decodes a JSON response into out (when
// out is non-nil). Failures are classified into the error taxonomy.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building %s request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return newNetworkError(op, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read-side close

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(op, resp.StatusCode, readErrorMessage(resp.Body))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return newNetworkError(op, fmt.Errorf("decoding response: %w", err))
		}
	}

	return nil
}

// readErrorMessage extracts a message from a gateway error body.
// The gateway writes {"status":..,"code":..,"message":..}; anything
// else is returned as raw text.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil || len(data) == 0 {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(data))
}
