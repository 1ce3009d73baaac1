// Package progress carries typed scan notifications from scanner and
// pipeline goroutines to a single consumer.
//
// The channel is unbounded so producers never stall behind a slow
// consumer, and events are plain values over a closed kind enum so the
// consumer can fold them into its own accumulator state without sharing
// any mutable state with producers. Complete is always the last event
// of a scan.
package progress
