// CitySense Dash - terminal dashboard for the CitySense gateway
//
// A thin CLI over the client-side state layer: it loads the device
// directory, prints filtered fleet views and health stats, and can
// drill into one device's telemetry through the dependent
// sensor-type/device selection.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/citysense/citysense-core/internal/client"
	"github.com/citysense/citysense-core/internal/device"
	"github.com/citysense/citysense-core/internal/directory"
	"github.com/citysense/citysense-core/internal/display"
	"github.com/citysense/citysense-core/internal/infrastructure/config"
	"github.com/citysense/citysense-core/internal/infrastructure/logging"
	"github.com/citysense/citysense-core/internal/reading"
	"github.com/citysense/citysense-core/internal/selection"
	"github.com/citysense/citysense-core/internal/telemetry"
)

var (
	version = "dev"
	commit  = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		configPath = flag.String("config", configPathFromEnv(), "path to configuration file")
		search     = flag.String("search", "", "filter devices by name or location")
		deviceType = flag.String("type", "", "filter devices by type (e.g. TRAFFIC_LIGHT)")
		activeOnly = flag.Bool("active", false, "show only active devices")
		sortBy     = flag.String("sort", "name", "sort key: name, type, location, battery, lastSeen")
		showStats  = flag.Bool("stats", false, "print fleet health statistics")
		sensorType = flag.String("sensor", "", "show telemetry for this sensor type (e.g. TEMPERATURE)")
		deviceID   = flag.Int64("device", 0, "device id for telemetry (requires -sensor)")
	)
	flag.Parse()

	log := logging.Default()
	log.Info("starting CitySense dash", "version", version, "commit", commit)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	gw := client.New(cfg.Client)
	store := directory.NewStore(gw)
	if err := store.Load(ctx); err != nil {
		return fmt.Errorf("loading device directory: %w", err)
	}

	devices := store.Devices()

	if *showStats {
		printStats(directory.Stats(devices))
		return nil
	}

	if *sensorType != "" {
		return showTelemetry(ctx, gw, reading.SensorType(*sensorType), *deviceID)
	}

	q := directory.Query{
		Search: *search,
		Type:   device.DeviceType(*deviceType),
		SortBy: directory.SortKey(*sortBy),
	}
	if *activeOnly {
		active := true
		q.Active = &active
	}

	printDevices(directory.Apply(devices, q))
	return nil
}

// printDevices renders the filtered fleet as a table.
func printDevices(devices []device.Device) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDEVICE\tTYPE\tLOCATION\tSTATUS\tBATTERY\tLAST SEEN")
	for _, d := range devices {
		status := "offline"
		if d.Active {
			status = "active"
		}
		battery := "-"
		if d.BatteryLevel != nil {
			battery = fmt.Sprintf("%d%%", *d.BatteryLevel)
		}
		lastSeen := "-"
		if !d.LastSeen.IsZero() {
			lastSeen = d.LastSeen.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%d\t%s %s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID,
			display.DeviceIcon(d.Type), d.Name,
			display.DeviceLabel(d.Type),
			d.Location,
			status,
			battery,
			lastSeen,
		)
	}
	w.Flush()
}

// printStats renders fleet health counters.
func printStats(stats directory.FleetStats) {
	fmt.Printf("Fleet: %d devices, %d active, %d offline, %d low battery\n",
		stats.Total, stats.Active, stats.Offline, stats.LowBattery)
	for _, t := range device.AllDeviceTypes() {
		if n := stats.ByType[t]; n > 0 {
			fmt.Printf("  %s %-22s %d\n", display.DeviceIcon(t), display.DeviceLabel(t), n)
		}
	}
}

// showTelemetry walks the dependent selection: sensor type first, then
// a device reporting it, then the readings.
func showTelemetry(ctx context.Context, gw *client.Client, t reading.SensorType, deviceID int64) error {
	sel := selection.New(gw)
	if err := sel.SelectType(ctx, t); err != nil {
		return fmt.Errorf("selecting sensor type: %w", err)
	}

	view := sel.View()
	if len(view.Eligible) == 0 {
		fmt.Printf("No devices report %s.\n", display.SensorLabel(t))
		return nil
	}

	if deviceID == 0 {
		fmt.Printf("Devices reporting %s %s:\n", display.SensorIcon(t), display.SensorLabel(t))
		for _, d := range view.Eligible {
			fmt.Printf("  %d\t%s %s (%s)\n", d.ID, display.DeviceIcon(d.Type), d.Name, d.Location)
		}
		fmt.Println("Pass -device <id> to see readings.")
		return nil
	}

	if err := sel.SelectDevice(ctx, deviceID); err != nil {
		return fmt.Errorf("selecting device: %w", err)
	}
	view = sel.View()

	if summary, ok := telemetry.Summarize(view.Readings, t); ok {
		unit := t.Unit()
		fmt.Printf("%s %s on device %d (last 24h)\n", display.SensorIcon(t), display.SensorLabel(t), deviceID)
		fmt.Printf("  current %.2f %s, avg %.2f, max %.2f, min %.2f\n",
			summary.Current, unit, summary.Average, summary.Max, summary.Min)
	} else {
		fmt.Printf("No %s readings for device %d in the last 24h.\n", display.SensorLabel(t), deviceID)
		return nil
	}

	for _, row := range telemetry.Aggregate(view.Readings) {
		fmt.Printf("  %s\t%.2f\n", row.Bucket, row.Values[t])
	}
	return nil
}

func configPathFromEnv() string {
	if path := os.Getenv("CITYSENSE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
