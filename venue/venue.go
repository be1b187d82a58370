// Package venue defines the capability interface the agent uses to talk to a
// trading venue. The venue owns all position state; the agent issues commands
// and re-reads current truth on every query, never caching inventory locally.
package venue

import (
	"context"
	"errors"
)

// ErrSymbolNotFound is returned by ResolveInstrument when the venue does not
// trade the requested symbol.
var ErrSymbolNotFound = errors.New("symbol not found")

// Side is the direction of a position or order.
type Side int

const (
	Long Side = iota
	Short
)

func (s Side) String() string {
	if s == Short {
		return "short"
	}
	return "long"
}

// Quote is the current tradable state of an instrument.
type Quote struct {
	Symbol string
	Bid    float64
	Ask    float64
	Digits int // price decimal precision
}

// Position is an open position as reported by the venue. The agent observes
// positions but never owns them.
type Position struct {
	Ticket string
	Symbol string
	Volume float64
	Side   Side
	Tag    string // order tag of the agent that opened it, if any

	OpenPrice    float64
	CurrentPrice float64
	Profit       float64
}

// OrderRequest is a market order submission. Zero StopLoss/TakeProfit means
// the corresponding protective leg is omitted.
type OrderRequest struct {
	Symbol      string
	Side        Side
	Volume      float64
	Price       float64 // reference price at submission time
	StopLoss    float64
	TakeProfit  float64
	MaxSlippage float64
	Tag         string
}

// OrderResult is the venue's acknowledgement of a market order.
type OrderResult struct {
	Accepted bool
	Ticket   string
	Code     string // venue diagnostic code
	Text     string // venue diagnostic text
}

// Account is a snapshot of the trading account.
type Account struct {
	ID         string
	Currency   string
	Balance    float64
	Equity     float64
	Margin     float64
	FreeMargin float64
}

// Venue is the abstract trading venue. Implementations: metaapi (live MT5
// gateway) and paper (in-process dry-run engine).
type Venue interface {
	// ResolveInstrument returns the current quote and precision for a symbol,
	// or ErrSymbolNotFound.
	ResolveInstrument(ctx context.Context, symbol string) (Quote, error)

	// SubmitMarketOrder places a market order. A transport failure is an
	// error; a venue rejection is a non-accepted OrderResult with diagnostics.
	SubmitMarketOrder(ctx context.Context, req OrderRequest) (OrderResult, error)

	// ListOpenPositions returns the currently open positions. A non-empty tag
	// filters to positions opened with that tag; the empty tag returns all.
	ListOpenPositions(ctx context.Context, tag string) ([]Position, error)

	// ClosePosition closes a single open position by ticket.
	ClosePosition(ctx context.Context, ticket string) error

	// GetAccount returns the current account snapshot.
	GetAccount(ctx context.Context) (Account, error)
}
