// Package paper is an in-process trading venue for dry runs: orders fill
// instantly against a static quote table and positions live in memory.
package paper

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/tradewire/sigagent/venue"
)

// contractSize converts lots to units for the approximate floating P/L shown
// on the status surface. Good enough for a paper account; not an accounting
// engine.
const contractSize = 100000

// Engine implements venue.Venue against in-memory state. All methods are safe
// for concurrent use, although the agent drives it from a single worker.
type Engine struct {
	mu        sync.Mutex
	quotes    map[string]venue.Quote
	positions map[string]venue.Position
	acct      venue.Account
	log       *zap.Logger
}

func NewEngine(quotes []venue.Quote, balance float64, log *zap.Logger) *Engine {
	table := make(map[string]venue.Quote, len(quotes))
	for _, q := range quotes {
		table[q.Symbol] = q
	}
	if balance <= 0 {
		balance = 100000
	}
	return &Engine{
		quotes:    table,
		positions: make(map[string]venue.Position),
		acct: venue.Account{
			ID:       "PAPER-001",
			Currency: "USD",
			Balance:  balance,
		},
		log: log,
	}
}

// SetQuote replaces the quote for a symbol, for tests and scripted runs.
func (e *Engine) SetQuote(q venue.Quote) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.quotes[q.Symbol] = q
}

func (e *Engine) ResolveInstrument(ctx context.Context, symbol string) (venue.Quote, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	q, ok := e.quotes[symbol]
	if !ok {
		return venue.Quote{}, fmt.Errorf("%w: %s", venue.ErrSymbolNotFound, symbol)
	}
	return q, nil
}

func (e *Engine) SubmitMarketOrder(ctx context.Context, req venue.OrderRequest) (venue.OrderResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	q, ok := e.quotes[req.Symbol]
	if !ok {
		return venue.OrderResult{
			Accepted: false,
			Code:     "UNKNOWN_SYMBOL",
			Text:     fmt.Sprintf("no quote for %s", req.Symbol),
		}, nil
	}
	if req.Volume <= 0 {
		return venue.OrderResult{
			Accepted: false,
			Code:     "INVALID_VOLUME",
			Text:     fmt.Sprintf("volume %v", req.Volume),
		}, nil
	}

	// Longs fill at the ask, shorts at the bid.
	fill := q.Ask
	if req.Side == venue.Short {
		fill = q.Bid
	}

	ticket := ulid.Make().String()
	e.positions[ticket] = venue.Position{
		Ticket:       ticket,
		Symbol:       req.Symbol,
		Volume:       req.Volume,
		Side:         req.Side,
		Tag:          req.Tag,
		OpenPrice:    fill,
		CurrentPrice: fill,
	}

	e.log.Info("paper fill",
		zap.String("ticket", ticket),
		zap.String("symbol", req.Symbol),
		zap.String("side", req.Side.String()),
		zap.Float64("volume", req.Volume),
		zap.Float64("price", fill),
		zap.Float64("stop_loss", req.StopLoss),
		zap.Float64("take_profit", req.TakeProfit))

	return venue.OrderResult{Accepted: true, Ticket: ticket, Code: "DONE", Text: "filled"}, nil
}

func (e *Engine) ListOpenPositions(ctx context.Context, tag string) ([]venue.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]venue.Position, 0, len(e.positions))
	for _, p := range e.positions {
		if tag != "" && p.Tag != tag {
			continue
		}
		p.CurrentPrice, p.Profit = e.markLocked(p)
		out = append(out, p)
	}
	// ULID tickets sort by open time.
	sort.Slice(out, func(i, j int) bool { return out[i].Ticket < out[j].Ticket })
	return out, nil
}

// ClosePosition books an opposing fill for the full volume at the current
// price and removes the position.
func (e *Engine) ClosePosition(ctx context.Context, ticket string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.positions[ticket]
	if !ok {
		return fmt.Errorf("close position: no open position %q", ticket)
	}

	closePrice, profit := e.markLocked(p)
	e.acct.Balance += profit
	delete(e.positions, ticket)

	e.log.Info("paper close",
		zap.String("ticket", ticket),
		zap.String("symbol", p.Symbol),
		zap.Float64("close_price", closePrice),
		zap.Float64("profit", profit))
	return nil
}

func (e *Engine) GetAccount(ctx context.Context) (venue.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	floating := 0.0
	for _, p := range e.positions {
		_, profit := e.markLocked(p)
		floating += profit
	}

	acct := e.acct
	acct.Equity = acct.Balance + floating
	acct.FreeMargin = acct.Equity
	return acct, nil
}

// markLocked returns the closing-side price and the approximate floating
// profit for a position at the current quote. Caller holds e.mu.
func (e *Engine) markLocked(p venue.Position) (price, profit float64) {
	q, ok := e.quotes[p.Symbol]
	if !ok {
		return p.OpenPrice, 0
	}
	if p.Side == venue.Long {
		price = q.Bid
		profit = (price - p.OpenPrice) * p.Volume * contractSize
	} else {
		price = q.Ask
		profit = (p.OpenPrice - price) * p.Volume * contractSize
	}
	return price, profit
}

// DefaultQuotes is the quote table shipped with `sigagent config init`.
func DefaultQuotes() []venue.Quote {
	return []venue.Quote{
		{Symbol: "EURUSD", Bid: 1.08490, Ask: 1.08510, Digits: 5},
		{Symbol: "GBPUSD", Bid: 1.26480, Ask: 1.26500, Digits: 5},
		{Symbol: "USDJPY", Bid: 149.980, Ask: 150.000, Digits: 3},
		{Symbol: "XAUUSD", Bid: 2319.50, Ask: 2320.00, Digits: 2},
	}
}
