// Package reading defines the sensor reading model for CitySense Core.
//
// A Reading is one timestamped measurement from a device for a given sensor
// type. Readings for a (device, sensor type) pair form a time series; the
// unit is derived from the sensor type rather than stored authoritatively.
//
// The Repository is gateway-side persistence. The dashboard's chart
// transformations over reading sequences live in internal/telemetry.
package reading
