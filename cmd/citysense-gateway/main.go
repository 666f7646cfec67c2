// CitySense Gateway - smart city telemetry backend
//
// The gateway owns the device registry and sensor-data store, serves
// the REST API consumed by dashboards, and optionally ingests readings
// over MQTT and mirrors them to InfluxDB.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/citysense/citysense-core/internal/device"
	"github.com/citysense/citysense-core/internal/gatewayd"
	"github.com/citysense/citysense-core/internal/infrastructure/config"
	"github.com/citysense/citysense-core/internal/infrastructure/database"
	"github.com/citysense/citysense-core/internal/infrastructure/influxdb"
	"github.com/citysense/citysense-core/internal/infrastructure/logging"
	"github.com/citysense/citysense-core/internal/ingest"
	"github.com/citysense/citysense-core/internal/reading"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// defaultConfigPath is used when neither the flag nor the environment
// provides a path.
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main so failures
// propagate as errors rather than os.Exit calls.
func run(ctx context.Context) error {
	configPath := flag.String("config", getConfigPath(), "path to configuration file")
	flag.Parse()

	log := logging.Default()
	log.Info("starting CitySense gateway",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", *configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open database and ensure the schema exists
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if err := db.Setup(ctx); err != nil {
		return fmt.Errorf("setting up schema: %w", err)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	deviceRepo := device.NewSQLiteRepository(db.DB)
	readingRepo := reading.NewSQLiteRepository(db.DB)

	// Optional telemetry mirror
	var mirror *influxdb.Client
	mirror, err = influxdb.Connect(cfg.InfluxDB, log)
	switch {
	case err == nil:
		defer mirror.Close()
	case errors.Is(err, influxdb.ErrDisabled):
		mirror = nil
	default:
		// The mirror is best-effort; the gateway runs without it.
		log.Warn("influxdb mirror unavailable", "error", err)
		mirror = nil
	}

	// Optional MQTT ingest
	if cfg.MQTT.Enabled {
		consumer, ingestErr := ingest.Start(ingest.Deps{
			Config:   cfg.MQTT,
			Logger:   log,
			Devices:  deviceRepo,
			Readings: readingRepo,
			Mirror:   mirror,
		})
		if ingestErr != nil {
			return fmt.Errorf("starting ingest: %w", ingestErr)
		}
		defer consumer.Close()
	}

	server, err := gatewayd.New(gatewayd.Deps{
		Config:   cfg.Gateway,
		Logger:   log,
		Devices:  deviceRepo,
		Readings: readingRepo,
		Mirror:   mirror,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating gateway server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting gateway server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing gateway server", "error", closeErr)
		}
	}()

	log.Info("gateway running", "host", cfg.Gateway.Host, "port", cfg.Gateway.Port)

	// Block until a shutdown signal arrives
	<-ctx.Done()
	log.Info("shutdown signal received")
	return nil
}

// getConfigPath resolves the config path from the environment, falling
// back to the default.
func getConfigPath() string {
	if path := os.Getenv("CITYSENSE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
