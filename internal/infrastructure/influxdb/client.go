package influxdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/citysense/citysense-core/internal/infrastructure/config"
	"github.com/citysense/citysense-core/internal/infrastructure/logging"
)

// ErrDisabled indicates the mirror is switched off in configuration.
var ErrDisabled = errors.New("influxdb: mirror disabled")

// ErrNotConnected indicates a write was attempted without a live client.
var ErrNotConnected = errors.New("influxdb: not connected")

// Client mirrors accepted sensor readings into an InfluxDB bucket.
// Writes go through the non-blocking batched write API; a failed batch
// is logged, never surfaced to the ingest path.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	logger   *logging.Logger
	bucket   string
}

// Connect creates a mirror client from configuration. Returns
// ErrDisabled when the mirror is switched off.
func Connect(cfg config.InfluxDBConfig, logger *logging.Logger) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = 5
	}

	opts := influxdb2.DefaultOptions().
		SetBatchSize(uint(batchSize)).
		SetFlushInterval(uint(flushInterval * 1000))

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("influxdb: health check: %w", err)
	}
	if health.Status != "pass" {
		client.Close()
		return nil, fmt.Errorf("influxdb: unhealthy: %s", health.Status)
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)

	c := &Client{
		client:   client,
		writeAPI: writeAPI,
		logger:   logger,
		bucket:   cfg.Bucket,
	}

	// Drain async write failures into the log.
	go func() {
		for err := range writeAPI.Errors() {
			logger.Error("influxdb write failed", "error", err)
		}
	}()

	logger.Info("influxdb mirror connected", "url", cfg.URL, "bucket", cfg.Bucket)
	return c, nil
}

// IsConnected reports whether the client holds a live connection.
func (c *Client) IsConnected() bool {
	return c != nil && c.client != nil
}

// Close flushes pending points and shuts the client down.
func (c *Client) Close() {
	if c == nil || c.client == nil {
		return
	}
	c.writeAPI.Flush()
	c.client.Close()
	c.client = nil
}
