package influxdb

import (
	"strconv"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"github.com/citysense/citysense-core/internal/reading"
)

// WriteReading queues one sensor reading as a point in the
// "sensor_reading" measurement. The write is asynchronous; errors
// surface on the client's error channel.
func (c *Client) WriteReading(r *reading.Reading) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	point := influxdb2.NewPoint(
		"sensor_reading",
		map[string]string{
			"device_id":   strconv.FormatInt(r.DeviceID, 10),
			"sensor_type": string(r.SensorType),
			"unit":        string(r.Unit),
		},
		map[string]interface{}{
			"value": r.Value,
		},
		r.Timestamp,
	)

	c.writeAPI.WritePoint(point)
	return nil
}
