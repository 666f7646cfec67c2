// Package directory maintains the client-side view of the device fleet.
//
// The Store wraps a gateway client and owns the authoritative local
// snapshot. Mutations follow a mixed discipline: toggling a device's
// active flag is optimistic (flip locally, revert if the gateway
// rejects it), while edits and removals wait for gateway confirmation
// before touching the snapshot. Each device admits at most one
// in-flight mutation; overlapping requests fail with
// ErrActionInFlight.
//
// Apply and Stats are pure functions over a snapshot: Apply produces
// filtered and sorted list views, Stats summarises fleet health.
package directory
