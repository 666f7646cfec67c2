// Package selection drives the dependent sensor-type/device filter
// used by the telemetry views.
//
// A Selector enforces the two-stage ordering: a sensor type must be
// chosen before a device, and readings are fetched only once both are
// set. Changing either stage invalidates any in-flight gateway request
// via a generation counter, so a slow response for an abandoned
// selection can never clobber the state of the current one.
//
// Clearing the selection performs no network calls: with no sensor
// type chosen the caller renders the directory's own snapshot, which
// is already local.
package selection
