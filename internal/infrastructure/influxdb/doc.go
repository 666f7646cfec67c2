// Package influxdb provides the optional telemetry mirror: every
// sensor reading the gateway accepts is additionally written to an
// InfluxDB bucket for long-term retention and ad-hoc querying.
//
// The mirror is fire-and-forget. SQLite remains the source of truth;
// a down or slow InfluxDB never blocks or fails an ingest request.
package influxdb
