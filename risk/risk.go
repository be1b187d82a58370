// Package risk holds the immutable limits the agent enforces before any
// order reaches the venue, and the gate that applies them.
package risk

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tradewire/sigagent/signal"
	"github.com/tradewire/sigagent/venue"
)

// Limits is the agent's risk configuration. Loaded once at startup and never
// mutated afterwards.
type Limits struct {
	MaxOpenTrades int
	MaxLotSize    float64
	MaxSlippage   float64
	OrderTag      string // empty means positions are counted venue-wide
}

// Verdict is the gate's decision for one signal.
type Verdict struct {
	Admitted bool
	LotSize  float64 // requested lot, clamped to MaxLotSize
	Reason   string  // human-readable, set when rejected
}

// Gate applies Limits against the venue's current position inventory. It is
// stateless: every admission re-reads the open positions from the venue.
type Gate struct {
	limits Limits
	venue  venue.Venue
	log    *zap.Logger
}

func NewGate(limits Limits, v venue.Venue, log *zap.Logger) *Gate {
	return &Gate{limits: limits, venue: v, log: log}
}

// Admit decides whether a signal may proceed to execution.
//
// Entries (buy/sell) are rejected when the number of open positions carrying
// this agent's order tag is already at or above MaxOpenTrades. Closes never
// increase exposure and bypass the count check entirely. A lot size above
// MaxLotSize is clamped down, never rejected.
func (g *Gate) Admit(ctx context.Context, action signal.Action, lot float64) (Verdict, error) {
	v := Verdict{Admitted: true, LotSize: lot}

	if lot > g.limits.MaxLotSize {
		v.LotSize = g.limits.MaxLotSize
		g.log.Info("lot size clamped",
			zap.Float64("requested", lot),
			zap.Float64("clamped", v.LotSize))
	}

	if action != signal.ActionBuy && action != signal.ActionSell {
		return v, nil
	}

	open, err := g.venue.ListOpenPositions(ctx, g.limits.OrderTag)
	if err != nil {
		return Verdict{}, fmt.Errorf("count open positions: %w", err)
	}
	if len(open) >= g.limits.MaxOpenTrades {
		g.log.Warn("entry rejected, open trade cap reached",
			zap.Int("open", len(open)),
			zap.Int("max", g.limits.MaxOpenTrades))
		return Verdict{
			Admitted: false,
			LotSize:  v.LotSize,
			Reason:   fmt.Sprintf("Max open trades (%d) reached", g.limits.MaxOpenTrades),
		}, nil
	}

	return v, nil
}
