// Package database provides SQLite connection management for the CitySense
// development gateway.
//
// This package manages:
//   - Opening the database with WAL mode and busy timeout pragmas
//   - Applying the gateway schema on startup (idempotent)
//   - Health checks and connection lifecycle
//
// The SQLite file backs the gateway's device directory and sensor reading
// store. The dashboard client layer never touches it; the client keeps only
// an in-memory mirror and talks to the gateway over HTTP.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: "./data/citysense.db", WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//	if err := db.Setup(ctx); err != nil {
//	    log.Fatal(err)
//	}
package database
