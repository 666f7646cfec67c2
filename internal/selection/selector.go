package selection

import (
	"context"
	"sync"
	"time"

	"github.com/citysense/citysense-core/internal/device"
	"github.com/citysense/citysense-core/internal/reading"
)

// Gateway is the subset of the gateway client the selector depends on.
type Gateway interface {
	SensorTypes(ctx context.Context) ([]reading.SensorType, error)
	DevicesBySensorType(ctx context.Context, t reading.SensorType) ([]device.Device, error)
	Readings(ctx context.Context, q reading.Query) ([]reading.Reading, error)
}

// defaultWindow is the reading window applied when the caller does not
// narrow the range.
const defaultWindow = 24 * time.Hour

// View is the selector's published state: the available sensor types,
// the devices eligible for the chosen type, and the readings for the
// chosen type/device pair. Readings are only non-nil when both a type
// and a device are selected.
type View struct {
	SensorTypes []reading.SensorType
	SensorType  reading.SensorType
	Eligible    []device.Device
	DeviceID    int64
	Readings    []reading.Reading
	Err         error
}

// Selector implements the two-stage dependent filter: pick a sensor
// type first, then a device known to report that type, and only then
// fetch readings.
//
// Every state change bumps an internal generation counter; a gateway
// response is applied only if the generation has not moved while the
// request was in flight. Responses to superseded selections are
// discarded.
//
// Thread Safety: all methods are safe for concurrent use.
type Selector struct {
	gateway Gateway
	now     func() time.Time

	mu          sync.Mutex
	gen         uint64
	sensorTypes []reading.SensorType
	sensorType  reading.SensorType
	eligible    []device.Device
	deviceID    int64
	readings    []reading.Reading
	viewErr     error
}

// New creates a Selector with no active selection.
func New(gw Gateway) *Selector {
	return &Selector{gateway: gw, now: time.Now}
}

// View returns a copy of the current state.
func (s *Selector) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		SensorType: s.sensorType,
		DeviceID:   s.deviceID,
		Err:        s.viewErr,
	}
	v.SensorTypes = append(v.SensorTypes, s.sensorTypes...)
	v.Eligible = append(v.Eligible, s.eligible...)
	v.Readings = append(v.Readings, s.readings...)
	return v
}

// Init fetches the available sensor types.
func (s *Selector) Init(ctx context.Context) error {
	gen := s.bump()

	types, err := s.gateway.SensorTypes(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return nil
	}
	if err != nil {
		s.viewErr = err
		return err
	}
	s.sensorTypes = types
	s.viewErr = nil
	return nil
}

// SelectType chooses a sensor type and refreshes the eligible device
// list. If the previously selected device does not report the new
// type, the device selection is cleared and no readings are fetched.
func (s *Selector) SelectType(ctx context.Context, t reading.SensorType) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.sensorType = t
	s.readings = nil
	s.viewErr = nil
	prevDevice := s.deviceID
	s.mu.Unlock()

	devices, err := s.gateway.DevicesBySensorType(ctx, t)

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.viewErr = err
		s.eligible = nil
		s.deviceID = 0
		s.mu.Unlock()
		return err
	}
	s.eligible = devices
	keep := false
	for _, d := range devices {
		if d.ID == prevDevice {
			keep = true
			break
		}
	}
	if !keep {
		s.deviceID = 0
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	// Same device still eligible; refresh its readings for the new type.
	return s.fetchReadings(ctx, gen, t, prevDevice)
}

// SelectDevice chooses a device from the eligible list and fetches its
// readings. Selecting a device before a sensor type is a no-op.
func (s *Selector) SelectDevice(ctx context.Context, id int64) error {
	s.mu.Lock()
	if s.sensorType == "" {
		s.mu.Unlock()
		return nil
	}
	s.gen++
	gen := s.gen
	s.deviceID = id
	s.readings = nil
	s.viewErr = nil
	t := s.sensorType
	s.mu.Unlock()

	return s.fetchReadings(ctx, gen, t, id)
}

// ClearType abandons the selection entirely.
func (s *Selector) ClearType() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.sensorType = ""
	s.deviceID = 0
	s.eligible = nil
	s.readings = nil
	s.viewErr = nil
}

// ClearDevice keeps the sensor type but drops the device and its
// readings.
func (s *Selector) ClearDevice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.deviceID = 0
	s.readings = nil
	s.viewErr = nil
}

// Refresh re-fetches readings for the current selection, if complete.
func (s *Selector) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.sensorType == "" || s.deviceID == 0 {
		s.mu.Unlock()
		return nil
	}
	s.gen++
	gen := s.gen
	t := s.sensorType
	id := s.deviceID
	s.mu.Unlock()

	return s.fetchReadings(ctx, gen, t, id)
}

func (s *Selector) bump() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

func (s *Selector) fetchReadings(ctx context.Context, gen uint64, t reading.SensorType, id int64) error {
	end := s.now()
	q := reading.Query{
		DeviceID:   id,
		SensorType: t,
		Start:      end.Add(-defaultWindow),
		End:        end,
	}

	readings, err := s.gateway.Readings(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return nil
	}
	if err != nil {
		s.viewErr = err
		return err
	}
	s.readings = readings
	s.viewErr = nil
	return nil
}
