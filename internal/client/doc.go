// Package client is the HTTP client for the CitySense gateway.
//
// It is the single transport boundary of the dashboard state layer: the
// directory store and the selection engine issue all their gateway calls
// through it. The gateway is treated as an unreliable, latent
// request/response collaborator.
//
// # Failure taxonomy
//
// Every failed call unwraps to one of four sentinels:
//
//   - ErrNetwork: transport failure or client-side timeout
//   - ErrNotFound: 404 on a specific entity
//   - ErrServer: 5xx response
//   - ErrValidation: any other 4xx response
//
// Read failures are retryable view-scoped states upstream; write failures
// are action-scoped and never retried silently. Classification happens
// here so upstream packages never inspect HTTP status codes.
package client
