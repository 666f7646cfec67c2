// Package telemetry turns raw sensor readings into chart- and
// card-ready shapes: Aggregate produces a minute-bucketed time series
// keyed by sensor type, Summarize reduces one type's series to its
// current, average, maximum and minimum values.
//
// Both functions are pure; they never touch the gateway.
package telemetry
