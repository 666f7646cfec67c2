package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/citysense/citysense-core/internal/device"
)

// Gateway is the subset of the gateway client the store depends on.
// *client.Client satisfies it; tests substitute a mock.
type Gateway interface {
	ListDevices(ctx context.Context) ([]device.Device, error)
	ToggleDevice(ctx context.Context, id int64) (*device.Device, error)
	UpdateDevice(ctx context.Context, id int64, name, location string) (*device.Device, error)
	DeleteDevice(ctx context.Context, id int64) error
}

// ErrActionInFlight is returned when a mutation is requested for a device
// that already has an unfinished mutation.
var ErrActionInFlight = errors.New("directory: action already in flight for device")

// Store holds the client-side device directory.
//
// It keeps a snapshot of the fleet, tracks per-device in-flight mutations,
// and applies the optimistic-update discipline: toggles flip locally and
// revert on failure, edits and removals only apply after the gateway
// confirms them.
//
// Thread Safety: all methods are safe for concurrent use.
type Store struct {
	gateway Gateway

	mu       sync.RWMutex
	devices  []device.Device
	loading  bool
	loadErr  error
	busy     map[int64]bool
	actErrs  map[int64]string
	watchers []func()
}

// NewStore creates an empty store backed by the given gateway client.
func NewStore(gw Gateway) *Store {
	return &Store{
		gateway: gw,
		busy:    make(map[int64]bool),
		actErrs: make(map[int64]string),
	}
}

// Watch registers a callback invoked after every state change. Callbacks
// run synchronously while no lock is held; keep them cheap.
func (s *Store) Watch(fn func()) {
	s.mu.Lock()
	s.watchers = append(s.watchers, fn)
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.RLock()
	watchers := s.watchers
	s.mu.RUnlock()
	for _, fn := range watchers {
		fn()
	}
}

// Load fetches the full device list from the gateway and replaces the
// snapshot. On failure the previous snapshot is preserved and the error
// is recorded; calling Load again retries from scratch.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.loadErr = nil
	s.mu.Unlock()
	s.notify()

	devices, err := s.gateway.ListDevices(ctx)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.loadErr = err
	} else {
		s.devices = devices
	}
	s.mu.Unlock()
	s.notify()

	return err
}

// Devices returns a copy of the current snapshot.
func (s *Store) Devices() []device.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]device.Device, len(s.devices))
	for i := range s.devices {
		out[i] = *s.devices[i].Clone()
	}
	return out
}

// Get returns the device with the given id from the snapshot, or false.
func (s *Store) Get(id int64) (*device.Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.devices {
		if s.devices[i].ID == id {
			return s.devices[i].Clone(), true
		}
	}
	return nil, false
}

// Loading reports whether a Load is in progress.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LoadError returns the error from the most recent failed Load, or nil.
func (s *Store) LoadError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Busy reports whether the device has an in-flight mutation.
func (s *Store) Busy(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy[id]
}

// ActionError returns the message from the device's most recent failed
// mutation, or "" if the last mutation succeeded.
func (s *Store) ActionError(id int64) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actErrs[id]
}

// ClearActionError dismisses a recorded mutation failure.
func (s *Store) ClearActionError(id int64) {
	s.mu.Lock()
	delete(s.actErrs, id)
	s.mu.Unlock()
	s.notify()
}

// beginAction marks the device busy, rejecting overlap.
func (s *Store) beginAction(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy[id] {
		return fmt.Errorf("%w: device %d", ErrActionInFlight, id)
	}
	s.busy[id] = true
	delete(s.actErrs, id)
	return nil
}

func (s *Store) endAction(id int64, err error) {
	s.mu.Lock()
	delete(s.busy, id)
	if err != nil {
		s.actErrs[id] = err.Error()
	}
	s.mu.Unlock()
	s.notify()
}

// ToggleActive flips the device's active flag optimistically, then asks
// the gateway to confirm. On success the gateway's canonical record
// replaces the local one; on failure the flip is reverted.
func (s *Store) ToggleActive(ctx context.Context, id int64) error {
	if err := s.beginAction(id); err != nil {
		return err
	}

	if !s.setActiveFlipped(id) {
		err := fmt.Errorf("directory: device %d not in snapshot", id)
		s.endAction(id, err)
		return err
	}
	s.notify()

	updated, err := s.gateway.ToggleDevice(ctx, id)
	if err != nil {
		s.setActiveFlipped(id)
	} else {
		s.replace(updated)
	}
	s.endAction(id, err)
	return err
}

// Update renames or relocates a device. The snapshot is untouched until
// the gateway confirms, at which point the returned record replaces the
// local one.
func (s *Store) Update(ctx context.Context, id int64, name, location string) error {
	if err := s.beginAction(id); err != nil {
		return err
	}

	updated, err := s.gateway.UpdateDevice(ctx, id, name, location)
	if err == nil {
		s.replace(updated)
	}
	s.endAction(id, err)
	return err
}

// Remove deletes a device. The local record is dropped only after the
// gateway confirms the deletion.
func (s *Store) Remove(ctx context.Context, id int64) error {
	if err := s.beginAction(id); err != nil {
		return err
	}

	err := s.gateway.DeleteDevice(ctx, id)
	if err == nil {
		s.drop(id)
	}
	s.endAction(id, err)
	return err
}

func (s *Store) setActiveFlipped(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.devices {
		if s.devices[i].ID == id {
			s.devices[i].Active = !s.devices[i].Active
			return true
		}
	}
	return false
}

func (s *Store) replace(d *device.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.devices {
		if s.devices[i].ID == d.ID {
			s.devices[i] = *d.Clone()
			return
		}
	}
	s.devices = append(s.devices, *d.Clone())
}

func (s *Store) drop(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.devices {
		if s.devices[i].ID == id {
			s.devices = append(s.devices[:i], s.devices[i+1:]...)
			return
		}
	}
}
