package gatewayd

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/citysense/citysense-core/internal/device"
	"github.com/citysense/citysense-core/internal/directory"
)

// deviceIDParam parses the {id} URL parameter.
func deviceIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// handleListDevices returns the full device fleet.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.devices.List(r.Context())
	if err != nil {
		s.logger.Error("listing devices", "error", err)
		writeInternalError(w, "failed to list devices")
		return
	}
	if devices == nil {
		devices = []device.Device{}
	}
	writeJSON(w, http.StatusOK, devices)
}

// handleGetDevice returns a single device by id.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id, err := deviceIDParam(r)
	if err != nil {
		writeBadRequest(w, "invalid device id")
		return
	}

	d, err := s.devices.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("getting device", "id", id, "error", err)
		writeInternalError(w, "failed to get device")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// createDeviceRequest is the payload for POST /api/devices.
type createDeviceRequest struct {
	Name           string            `json:"name"`
	Type           device.DeviceType `json:"type"`
	Location       string            `json:"location"`
	Active         bool              `json:"active"`
	BatteryLevel   *int              `json:"batteryLevel"`
	SignalStrength *int              `json:"signalStrength"`
}

// handleCreateDevice registers a new device.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req createDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	d := &device.Device{
		Name:           req.Name,
		Type:           req.Type,
		Location:       req.Location,
		Active:         req.Active,
		BatteryLevel:   req.BatteryLevel,
		SignalStrength: req.SignalStrength,
	}

	if err := s.devices.Create(r.Context(), d); err != nil {
		if isValidationError(err) {
			writeValidationError(w, err.Error())
			return
		}
		s.logger.Error("creating device", "error", err)
		writeInternalError(w, "failed to create device")
		return
	}

	s.logger.Info("device created", "id", d.ID, "type", d.Type)
	writeJSON(w, http.StatusCreated, d)
}

// updateDeviceRequest is the payload for PUT /api/devices/{id}.
type updateDeviceRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// handleUpdateDevice renames or relocates a device.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id, err := deviceIDParam(r)
	if err != nil {
		writeBadRequest(w, "invalid device id")
		return
	}

	var req updateDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	d, err := s.devices.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("getting device for update", "id", id, "error", err)
		writeInternalError(w, "failed to update device")
		return
	}

	d.Name = req.Name
	d.Location = req.Location

	if err := s.devices.Update(r.Context(), d); err != nil {
		if isValidationError(err) {
			writeValidationError(w, err.Error())
			return
		}
		s.logger.Error("updating device", "id", id, "error", err)
		writeInternalError(w, "failed to update device")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleToggleDevice flips the device's active flag and returns the
// updated record.
func (s *Server) handleToggleDevice(w http.ResponseWriter, r *http.Request) {
	id, err := deviceIDParam(r)
	if err != nil {
		writeBadRequest(w, "invalid device id")
		return
	}

	d, err := s.devices.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("getting device for toggle", "id", id, "error", err)
		writeInternalError(w, "failed to toggle device")
		return
	}

	d.Active = !d.Active
	if err := s.devices.Update(r.Context(), d); err != nil {
		s.logger.Error("toggling device", "id", id, "error", err)
		writeInternalError(w, "failed to toggle device")
		return
	}

	s.logger.Info("device toggled", "id", id, "active", d.Active)
	writeJSON(w, http.StatusOK, d)
}

// handleDeleteDevice removes a device and its readings.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id, err := deviceIDParam(r)
	if err != nil {
		writeBadRequest(w, "invalid device id")
		return
	}

	if err := s.devices.Delete(r.Context(), id); err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("deleting device", "id", id, "error", err)
		writeInternalError(w, "failed to delete device")
		return
	}

	s.logger.Info("device deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// heartbeatRequest is the payload for POST /api/devices/{id}/heartbeat.
// Omitted fields leave the stored values untouched.
type heartbeatRequest struct {
	BatteryLevel   *int `json:"batteryLevel"`
	SignalStrength *int `json:"signalStrength"`
}

// handleHeartbeat records a device check-in, refreshing lastSeen and
// optionally battery and signal levels.
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	id, err := deviceIDParam(r)
	if err != nil {
		writeBadRequest(w, "invalid device id")
		return
	}

	var req heartbeatRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "invalid JSON body")
			return
		}
	}

	if err := s.devices.Heartbeat(r.Context(), id, req.BatteryLevel, req.SignalStrength, time.Now().UTC()); err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		if isValidationError(err) {
			writeValidationError(w, err.Error())
			return
		}
		s.logger.Error("recording heartbeat", "id", id, "error", err)
		writeInternalError(w, "failed to record heartbeat")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleFleetStats returns aggregate fleet health counters.
func (s *Server) handleFleetStats(w http.ResponseWriter, r *http.Request) {
	devices, err := s.devices.List(r.Context())
	if err != nil {
		s.logger.Error("listing devices for stats", "error", err)
		writeInternalError(w, "failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, directory.Stats(devices))
}

// isValidationError reports whether err comes from input validation
// rather than storage.
func isValidationError(err error) bool {
	return errors.Is(err, device.ErrInvalidName) ||
		errors.Is(err, device.ErrInvalidType) ||
		errors.Is(err, device.ErrInvalidLocation) ||
		errors.Is(err, device.ErrInvalidPercentage)
}
