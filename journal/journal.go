// Package journal records the outcome of each executed signal so that lost
// confirmations and past activity stay observable. It is an observability
// channel only: nothing in the execution pipeline reads it back.
package journal

import "time"

// Entry is one executed (or rejected) signal cycle.
type Entry struct {
	ID      string // cycle correlation id
	Time    time.Time
	Action  string
	Symbol  string
	LotSize float64
	Success bool
	Message string

	// Confirmed reports whether the confirmation POST reached the signal
	// server. Delivery is fire-and-forget, so false here is the only trace a
	// lost confirmation leaves.
	Confirmed bool
}

// Journal stores entries and serves the most recent ones, newest first.
type Journal interface {
	Record(Entry) error
	Recent(n int) ([]Entry, error)
	Close() error
}
