// Package executor turns an admitted signal into concrete order and position
// operations against the trading venue.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tradewire/sigagent/pips"
	"github.com/tradewire/sigagent/risk"
	"github.com/tradewire/sigagent/signal"
	"github.com/tradewire/sigagent/venue"
)

// Outcome is the result of executing one signal. It is produced once per
// actionable poll cycle and consumed exactly once by the confirmation
// reporter.
type Outcome struct {
	Success bool
	Message string
}

// Defaults are optional protective-leg distances substituted when a signal
// leaves the field at zero. A zero default leaves the leg suppressed.
type Defaults struct {
	StopLossPips   float64
	TakeProfitPips float64
}

// Executor maps validated signals onto venue operations. It holds no state
// between cycles; the venue is the sole source of truth for open positions.
type Executor struct {
	venue    venue.Venue
	limits   risk.Limits
	defaults Defaults
	log      *zap.Logger
}

func New(v venue.Venue, limits risk.Limits, defaults Defaults, log *zap.Logger) *Executor {
	return &Executor{venue: v, limits: limits, defaults: defaults, log: log}
}

// Execute routes a signal by action. Every failure mode is folded into the
// Outcome; no error escapes to the caller.
func (e *Executor) Execute(ctx context.Context, sig signal.Signal, verdict risk.Verdict) Outcome {
	switch sig.Action {
	case signal.ActionBuy, signal.ActionSell:
		return e.enter(ctx, sig, verdict.LotSize)
	case signal.ActionClose:
		return e.closeSymbol(ctx, sig.Symbol)
	case signal.ActionCloseAll:
		return e.closeAll(ctx)
	default:
		e.log.Warn("unknown action in signal", zap.String("action", sig.RawAction))
		return Outcome{Success: false, Message: fmt.Sprintf("Unknown action: %s", sig.RawAction)}
	}
}

// enter opens a market position. The reference price is the ask for a buy and
// the bid for a sell; stop and target are computed in pips from it and
// rounded to the instrument's precision.
func (e *Executor) enter(ctx context.Context, sig signal.Signal, lot float64) Outcome {
	if sig.Symbol == "" {
		return Outcome{Success: false, Message: "Symbol is required for buy/sell"}
	}

	q, err := e.venue.ResolveInstrument(ctx, sig.Symbol)
	if err != nil {
		if errors.Is(err, venue.ErrSymbolNotFound) {
			e.log.Warn("symbol not found", zap.String("symbol", sig.Symbol))
			return Outcome{Success: false, Message: fmt.Sprintf("symbol not found: %s", sig.Symbol)}
		}
		e.log.Error("resolve instrument failed", zap.String("symbol", sig.Symbol), zap.Error(err))
		return Outcome{Success: false, Message: fmt.Sprintf("resolve %s: %v", sig.Symbol, err)}
	}

	side := venue.Long
	dir := pips.Long
	ref := q.Ask
	if sig.Action == signal.ActionSell {
		side = venue.Short
		dir = pips.Short
		ref = q.Bid
	}

	slPips := sig.StopLossPips
	if slPips == 0 {
		slPips = e.defaults.StopLossPips
	}
	tpPips := sig.TakeProfitPips
	if tpPips == 0 {
		tpPips = e.defaults.TakeProfitPips
	}

	req := venue.OrderRequest{
		Symbol:      sig.Symbol,
		Side:        side,
		Volume:      lot,
		Price:       ref,
		StopLoss:    pips.StopLoss(ref, slPips, dir, q.Digits),
		TakeProfit:  pips.TakeProfit(ref, tpPips, dir, q.Digits),
		MaxSlippage: e.limits.MaxSlippage,
		Tag:         e.limits.OrderTag,
	}

	attempt := e.log.With(
		zap.String("symbol", req.Symbol),
		zap.String("side", side.String()),
		zap.Float64("lot", lot),
		zap.Float64("price", ref),
		zap.Float64("stop_loss", req.StopLoss),
		zap.Float64("take_profit", req.TakeProfit),
	)

	res, err := e.venue.SubmitMarketOrder(ctx, req)
	if err != nil {
		attempt.Error("order submit failed", zap.Error(err))
		return Outcome{Success: false, Message: fmt.Sprintf("order submit failed: %v", err)}
	}
	if !res.Accepted {
		attempt.Warn("order rejected by venue",
			zap.String("code", res.Code), zap.String("text", res.Text))
		return Outcome{Success: false, Message: fmt.Sprintf("order rejected: %s %s", res.Code, res.Text)}
	}

	attempt.Info("order executed", zap.String("ticket", res.Ticket))
	return Outcome{
		Success: true,
		Message: fmt.Sprintf("%s %.2f %s executed (ticket %s)",
			strings.ToUpper(string(sig.Action)), lot, sig.Symbol, res.Ticket),
	}
}

// closeSymbol closes every open position on one instrument. Each close is
// independent: one failure does not abort the rest.
func (e *Executor) closeSymbol(ctx context.Context, symbol string) Outcome {
	if symbol == "" {
		return Outcome{Success: false, Message: "Symbol is required for close"}
	}

	open, err := e.venue.ListOpenPositions(ctx, "")
	if err != nil {
		e.log.Error("list positions failed", zap.Error(err))
		return Outcome{Success: false, Message: fmt.Sprintf("list positions: %v", err)}
	}

	closed := 0
	for _, p := range open {
		if p.Symbol != symbol {
			continue
		}
		if err := e.venue.ClosePosition(ctx, p.Ticket); err != nil {
			e.log.Warn("close position failed",
				zap.String("ticket", p.Ticket), zap.String("symbol", p.Symbol), zap.Error(err))
			continue
		}
		e.log.Info("position closed",
			zap.String("ticket", p.Ticket), zap.String("symbol", p.Symbol),
			zap.Float64("volume", p.Volume))
		closed++
	}

	if closed == 0 {
		return Outcome{Success: false, Message: fmt.Sprintf("no matching open positions for %s", symbol)}
	}
	return Outcome{Success: true, Message: fmt.Sprintf("Closed %d position(s) on %s", closed, symbol)}
}

// closeAll closes every open position on the account. Always a success; the
// message reports the count, which may be zero.
func (e *Executor) closeAll(ctx context.Context) Outcome {
	open, err := e.venue.ListOpenPositions(ctx, "")
	if err != nil {
		e.log.Error("list positions failed", zap.Error(err))
		return Outcome{Success: false, Message: fmt.Sprintf("list positions: %v", err)}
	}

	closed := 0
	for _, p := range open {
		if err := e.venue.ClosePosition(ctx, p.Ticket); err != nil {
			e.log.Warn("close position failed",
				zap.String("ticket", p.Ticket), zap.String("symbol", p.Symbol), zap.Error(err))
			continue
		}
		e.log.Info("position closed",
			zap.String("ticket", p.Ticket), zap.String("symbol", p.Symbol),
			zap.Float64("volume", p.Volume))
		closed++
	}

	return Outcome{Success: true, Message: fmt.Sprintf("Closed %d position(s)", closed)}
}
