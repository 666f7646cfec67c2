// Package device defines the shared device model for CitySense Core.
//
// The Device struct is the wire format exchanged with the gateway: the
// gateway's SQLite repository persists it and the dashboard client layer
// mirrors it in memory. The ID is gateway-assigned and stable for the
// device's lifetime; no other component invents or recycles IDs.
//
// # Components
//
//   - Device, DeviceType: the model and its closed type enumeration
//   - Validate: structural validation shared by gateway write paths
//   - Repository, SQLiteRepository: gateway-side persistence
//
// The dashboard's in-memory directory lives in internal/directory and
// consumes this package's types without touching the repository.
package device
