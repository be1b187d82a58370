// Package agent is the control loop: on a fixed cadence it fetches a signal,
// runs it through parse, risk gate and executor, and reports the outcome.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/tradewire/sigagent/executor"
	"github.com/tradewire/sigagent/journal"
	"github.com/tradewire/sigagent/risk"
	"github.com/tradewire/sigagent/signal"
)

// Source is the remote signal server as the agent sees it: one pull and one
// best-effort confirmation per actionable cycle.
type Source interface {
	Fetch(ctx context.Context) (string, error)
	Report(ctx context.Context, oc executor.Outcome) error
}

// Config is the loop's own configuration.
type Config struct {
	PollInterval   time.Duration
	DefaultLotSize float64 // substituted when the signal carries no lot size
}

// Agent drives the pipeline from a single worker. A cycle always runs to
// completion before the next tick is considered, so order submissions are
// never concurrent. The only state carried across cycles is lastPoll.
type Agent struct {
	cfg     Config
	source  Source
	gate    *risk.Gate
	exec    *executor.Executor
	journal journal.Journal
	log     *zap.Logger

	lastPoll time.Time
}

func New(cfg Config, src Source, gate *risk.Gate, exec *executor.Executor, j journal.Journal, log *zap.Logger) *Agent {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	if j == nil {
		j = journal.NewRing(0)
	}
	return &Agent{cfg: cfg, source: src, gate: gate, exec: exec, journal: j, log: log}
}

// Run blocks until ctx is cancelled. Cancellation stops scheduling further
// ticks; a cycle already in flight finishes on its own — an order that has
// been sent to the venue is never interrupted.
func (a *Agent) Run(ctx context.Context) {
	tick := time.Second
	if a.cfg.PollInterval < tick {
		tick = a.cfg.PollInterval
	}

	a.log.Info("agent started", zap.Duration("poll_interval", a.cfg.PollInterval))
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("agent stopped")
			return
		case now := <-ticker.C:
			a.Tick(ctx, now)
		}
	}
}

// Tick runs at most one poll cycle. Ticks arriving before the poll interval
// has elapsed since the last attempt are no-ops.
func (a *Agent) Tick(ctx context.Context, now time.Time) {
	if now.Sub(a.lastPoll) < a.cfg.PollInterval {
		return
	}
	a.lastPoll = now
	a.cycle(ctx)
}

func (a *Agent) cycle(ctx context.Context) {
	cycleID := ulid.Make().String()
	log := a.log.With(zap.String("cycle", cycleID))

	raw, err := a.source.Fetch(ctx)
	if err != nil {
		// Treated exactly like an empty cycle; the next tick retries.
		log.Debug("fetch failed, idling", zap.Error(err))
		return
	}

	sig, ok := signal.Parse(raw)
	if !ok {
		log.Debug("no signal")
		return
	}
	if sig.LotSize == 0 {
		sig.LotSize = a.cfg.DefaultLotSize
	}

	log = log.With(zap.String("action", actionLabel(sig)), zap.String("symbol", sig.Symbol))
	log.Info("signal received", zap.Float64("lot", sig.LotSize),
		zap.Float64("sl_pips", sig.StopLossPips), zap.Float64("tp_pips", sig.TakeProfitPips))

	var oc executor.Outcome
	verdict, err := a.gate.Admit(ctx, sig.Action, sig.LotSize)
	switch {
	case err != nil:
		oc = executor.Outcome{Success: false, Message: fmt.Sprintf("risk check failed: %v", err)}
	case !verdict.Admitted:
		oc = executor.Outcome{Success: false, Message: verdict.Reason}
	default:
		oc = a.exec.Execute(ctx, sig, verdict)
	}

	confirmed := a.source.Report(ctx, oc) == nil

	if err := a.journal.Record(journal.Entry{
		ID:        cycleID,
		Time:      time.Now().UTC(),
		Action:    actionLabel(sig),
		Symbol:    sig.Symbol,
		LotSize:   verdict.LotSize,
		Success:   oc.Success,
		Message:   oc.Message,
		Confirmed: confirmed,
	}); err != nil {
		log.Warn("journal write failed", zap.Error(err))
	}

	log.Info("cycle complete",
		zap.Bool("success", oc.Success),
		zap.String("message", oc.Message),
		zap.Bool("confirmed", confirmed))
}

// actionLabel prefers the raw action string for unknown actions so rejections
// stay diagnosable.
func actionLabel(sig signal.Signal) string {
	if sig.Action == signal.ActionUnknown {
		return sig.RawAction
	}
	return string(sig.Action)
}
