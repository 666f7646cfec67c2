// Package gatewayd implements the HTTP gateway serving the device and
// sensor-data API consumed by dashboards and the CLI.
//
// The server follows the same lifecycle pattern as the other
// long-running components:
//
//	server, err := gatewayd.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Routes live under /api: device CRUD plus toggle, heartbeat and fleet
// stats under /api/devices, and reading ingestion and queries under
// /api/sensor-data. When a telemetry mirror is configured, accepted
// readings are additionally written to InfluxDB.
//
// Thread Safety: all methods are safe for concurrent use.
package gatewayd
