package gatewayd

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/citysense/citysense-core/internal/device"
	"github.com/citysense/citysense-core/internal/reading"
)

// handleQueryReadings returns readings matching the query parameters
// deviceId, sensorType, start and end (RFC 3339), all optional.
func (s *Server) handleQueryReadings(w http.ResponseWriter, r *http.Request) {
	q, err := parseReadingQuery(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	readings, err := s.readings.Find(r.Context(), q)
	if err != nil {
		s.logger.Error("querying readings", "error", err)
		writeInternalError(w, "failed to query readings")
		return
	}
	if readings == nil {
		readings = []reading.Reading{}
	}
	writeJSON(w, http.StatusOK, readings)
}

func parseReadingQuery(r *http.Request) (reading.Query, error) {
	var q reading.Query
	params := r.URL.Query()

	if v := params.Get("deviceId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return q, errors.New("invalid deviceId")
		}
		q.DeviceID = id
	}
	if v := params.Get("sensorType"); v != "" {
		t := reading.SensorType(v)
		if !t.Valid() {
			return q, errors.New("invalid sensorType")
		}
		q.SensorType = t
	}
	if v := params.Get("start"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return q, errors.New("invalid start timestamp")
		}
		q.Start = ts
	}
	if v := params.Get("end"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return q, errors.New("invalid end timestamp")
		}
		q.End = ts
	}
	return q, nil
}

// createReadingRequest is the payload for POST /api/sensor-data.
type createReadingRequest struct {
	DeviceID   int64              `json:"deviceId"`
	SensorType reading.SensorType `json:"sensorType"`
	Value      float64            `json:"value"`
	Timestamp  time.Time          `json:"timestamp"`
}

// handleCreateReading stores a sensor reading. The unit is derived
// from the sensor type; a missing timestamp defaults to now.
func (s *Server) handleCreateReading(w http.ResponseWriter, r *http.Request) {
	var req createReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now().UTC()
	}

	rec := &reading.Reading{
		DeviceID:   req.DeviceID,
		SensorType: req.SensorType,
		Value:      req.Value,
		Timestamp:  req.Timestamp,
	}

	if err := s.readings.Insert(r.Context(), rec); err != nil {
		switch {
		case errors.Is(err, reading.ErrInvalidSensorType),
			errors.Is(err, reading.ErrInvalidDeviceID),
			errors.Is(err, reading.ErrInvalidTimestamp):
			writeValidationError(w, err.Error())
		default:
			s.logger.Error("inserting reading", "error", err)
			writeInternalError(w, "failed to store reading")
		}
		return
	}

	if s.mirror.IsConnected() {
		//nolint:errcheck // mirror writes are fire-and-forget
		s.mirror.WriteReading(rec)
	}

	writeJSON(w, http.StatusCreated, rec)
}

// handleSensorTypes returns the distinct sensor types with stored data.
func (s *Server) handleSensorTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.readings.SensorTypes(r.Context())
	if err != nil {
		s.logger.Error("listing sensor types", "error", err)
		writeInternalError(w, "failed to list sensor types")
		return
	}
	if types == nil {
		types = []reading.SensorType{}
	}
	writeJSON(w, http.StatusOK, types)
}

// handleDevicesBySensorType returns devices that have reported the
// given sensor type.
func (s *Server) handleDevicesBySensorType(w http.ResponseWriter, r *http.Request) {
	t := reading.SensorType(chi.URLParam(r, "type"))
	if !t.Valid() {
		writeBadRequest(w, "invalid sensor type")
		return
	}

	ids, err := s.readings.DeviceIDsBySensorType(r.Context(), t)
	if err != nil {
		s.logger.Error("listing devices by sensor type", "type", t, "error", err)
		writeInternalError(w, "failed to list devices")
		return
	}

	devices, err := s.devices.ListByIDs(r.Context(), ids)
	if err != nil {
		s.logger.Error("resolving devices by id", "error", err)
		writeInternalError(w, "failed to list devices")
		return
	}
	if devices == nil {
		devices = []device.Device{}
	}
	writeJSON(w, http.StatusOK, devices)
}

// handleLatestByDevice returns the most recent reading for a device.
func (s *Server) handleLatestByDevice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeBadRequest(w, "invalid device id")
		return
	}

	rec, err := s.readings.LatestByDevice(r.Context(), id)
	if err != nil {
		if errors.Is(err, reading.ErrNotFound) {
			writeNotFound(w, "no readings for device")
			return
		}
		s.logger.Error("getting latest reading", "id", id, "error", err)
		writeInternalError(w, "failed to get latest reading")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleAverage returns the mean value for a sensor type over a
// window. sensorType is required; start/end default to the last 24h.
func (s *Server) handleAverage(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	t := reading.SensorType(params.Get("sensorType"))
	if !t.Valid() {
		writeBadRequest(w, "sensorType is required")
		return
	}

	end := time.Now().UTC()
	start := end.Add(-24 * time.Hour)
	if v := params.Get("start"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "invalid start timestamp")
			return
		}
		start = ts
	}
	if v := params.Get("end"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "invalid end timestamp")
			return
		}
		end = ts
	}

	avg, err := s.readings.Average(r.Context(), t, start, end)
	if err != nil {
		if errors.Is(err, reading.ErrNotFound) {
			writeNotFound(w, "no readings in window")
			return
		}
		s.logger.Error("computing average", "type", t, "error", err)
		writeInternalError(w, "failed to compute average")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sensorType": t,
		"average":    avg,
		"start":      start,
		"end":        end,
	})
}
