// Package ingest consumes sensor readings published over MQTT.
//
// It is the push-based counterpart to POST /api/sensor-data: battery
// powered field devices publish instead of opening HTTP connections.
// Accepted readings land in the same repositories as HTTP ingest, so
// dashboards see both paths identically.
package ingest
