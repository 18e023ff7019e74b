// Package gps reads NMEA sentences from a receiver and publishes the decoded
// state.
//
// A single goroutine owns the live nmea.Decoder. After every accepted line it
// stores an immutable Snapshot and a deep copy of the decoder, so any number
// of readers can query the latest fix without locking.
//
// Sources are a serial device, a TCP NMEA feed, a recorded replay log or the
// built-in simulated receiver.
package gps
