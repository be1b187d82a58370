package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradewire/sigagent/executor"
	"github.com/tradewire/sigagent/journal"
	"github.com/tradewire/sigagent/risk"
	"github.com/tradewire/sigagent/venue/paper"
)

// fakeSource scripts one payload (or error) per fetch and records reports.
type fakeSource struct {
	payloads []string
	fetchErr error

	fetches   int
	reports   []executor.Outcome
	reportErr error
}

func (f *fakeSource) Fetch(ctx context.Context) (string, error) {
	f.fetches++
	if f.fetchErr != nil {
		return "", f.fetchErr
	}
	if len(f.payloads) == 0 {
		return `{"has_signal": false}`, nil
	}
	p := f.payloads[0]
	f.payloads = f.payloads[1:]
	return p, nil
}

func (f *fakeSource) Report(ctx context.Context, oc executor.Outcome) error {
	f.reports = append(f.reports, oc)
	return f.reportErr
}

func newTestAgent(t *testing.T, src *fakeSource, limits risk.Limits) (*Agent, *paper.Engine, *journal.Ring) {
	t.Helper()

	log := zap.NewNop()
	eng := paper.NewEngine(paper.DefaultQuotes(), 100000, log)
	gate := risk.NewGate(limits, eng, log)
	exec := executor.New(eng, limits, executor.Defaults{}, log)
	ring := journal.NewRing(0)

	a := New(Config{PollInterval: time.Minute, DefaultLotSize: 0.01}, src, gate, exec, ring, log)
	return a, eng, ring
}

func limits() risk.Limits {
	return risk.Limits{MaxOpenTrades: 5, MaxLotSize: 1.0, MaxSlippage: 3, OrderTag: "sig-test"}
}

func buyPayload(symbol string, lot float64) string {
	return fmt.Sprintf(`{"has_signal": true, "action":"buy","symbol":"%s","lot_size":%v,"sl_pips":20,"tp_pips":40}`, symbol, lot)
}

func TestTick_IntervalGating(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	a, _, _ := newTestAgent(t, src, limits())

	now := time.Now()
	a.Tick(context.Background(), now)
	a.Tick(context.Background(), now.Add(time.Second))
	a.Tick(context.Background(), now.Add(30*time.Second))
	assert.Equal(t, 1, src.fetches)

	a.Tick(context.Background(), now.Add(time.Minute))
	assert.Equal(t, 2, src.fetches)
}

func TestCycle_TransportErrorReportsNothing(t *testing.T) {
	t.Parallel()

	src := &fakeSource{fetchErr: errors.New("connection refused")}
	a, _, ring := newTestAgent(t, src, limits())

	a.Tick(context.Background(), time.Now())

	assert.Empty(t, src.reports)
	recent, _ := ring.Recent(0)
	assert.Empty(t, recent)

	// Next tick retries with unchanged state.
	src.fetchErr = nil
	a.Tick(context.Background(), time.Now().Add(2*time.Minute))
	assert.Equal(t, 2, src.fetches)
}

func TestCycle_NoSignalIsSilent(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	a, eng, _ := newTestAgent(t, src, limits())

	a.Tick(context.Background(), time.Now())

	assert.Empty(t, src.reports)
	open, _ := eng.ListOpenPositions(context.Background(), "")
	assert.Empty(t, open)
}

func TestCycle_BuyExecutesAndConfirms(t *testing.T) {
	t.Parallel()

	src := &fakeSource{payloads: []string{buyPayload("EURUSD", 0.5)}}
	a, eng, ring := newTestAgent(t, src, limits())

	a.Tick(context.Background(), time.Now())

	require.Len(t, src.reports, 1)
	assert.True(t, src.reports[0].Success)

	open, _ := eng.ListOpenPositions(context.Background(), "sig-test")
	require.Len(t, open, 1)
	assert.Equal(t, "EURUSD", open[0].Symbol)
	assert.InDelta(t, 0.5, open[0].Volume, 1e-12)

	recent, _ := ring.Recent(0)
	require.Len(t, recent, 1)
	assert.True(t, recent[0].Success)
	assert.True(t, recent[0].Confirmed)
	assert.Equal(t, "buy", recent[0].Action)
}

func TestCycle_RejectionAtCapSkipsVenue(t *testing.T) {
	t.Parallel()

	lim := limits()
	lim.MaxOpenTrades = 2

	src := &fakeSource{payloads: []string{
		buyPayload("EURUSD", 0.1),
		buyPayload("EURUSD", 0.1),
		buyPayload("GBPUSD", 0.1),
	}}
	a, eng, _ := newTestAgent(t, src, lim)

	now := time.Now()
	for i := 0; i < 3; i++ {
		a.Tick(context.Background(), now.Add(time.Duration(i)*time.Minute))
	}

	require.Len(t, src.reports, 3)
	assert.True(t, src.reports[0].Success)
	assert.True(t, src.reports[1].Success)
	assert.False(t, src.reports[2].Success)
	assert.Contains(t, src.reports[2].Message, "Max open trades")

	// The rejected buy never reached the venue.
	open, _ := eng.ListOpenPositions(context.Background(), "")
	assert.Len(t, open, 2)
}

func TestCycle_CloseAllRoundTrip(t *testing.T) {
	t.Parallel()

	src := &fakeSource{payloads: []string{
		buyPayload("EURUSD", 0.1),
		buyPayload("GBPUSD", 0.2),
		buyPayload("USDJPY", 0.3),
		`{"has_signal": true, "action":"close_all"}`,
	}}
	a, eng, _ := newTestAgent(t, src, limits())

	now := time.Now()
	for i := 0; i < 4; i++ {
		a.Tick(context.Background(), now.Add(time.Duration(i)*time.Minute))
	}

	require.Len(t, src.reports, 4)
	last := src.reports[3]
	assert.True(t, last.Success)
	assert.Contains(t, last.Message, "Closed 3 position(s)")

	open, _ := eng.ListOpenPositions(context.Background(), "")
	assert.Empty(t, open)
}

func TestCycle_CloseOnlyMatchingSymbol(t *testing.T) {
	t.Parallel()

	src := &fakeSource{payloads: []string{
		buyPayload("GBPUSD", 0.1),
		buyPayload("GBPUSD", 0.1),
		buyPayload("EURUSD", 0.1),
		`{"has_signal": true, "action":"close","symbol":"GBPUSD"}`,
	}}
	a, eng, _ := newTestAgent(t, src, limits())

	now := time.Now()
	for i := 0; i < 4; i++ {
		a.Tick(context.Background(), now.Add(time.Duration(i)*time.Minute))
	}

	last := src.reports[3]
	assert.True(t, last.Success)
	assert.Contains(t, last.Message, "Closed 2 position(s) on GBPUSD")

	open, _ := eng.ListOpenPositions(context.Background(), "")
	require.Len(t, open, 1)
	assert.Equal(t, "EURUSD", open[0].Symbol)
}

func TestCycle_UnknownActionReportedNotDropped(t *testing.T) {
	t.Parallel()

	src := &fakeSource{payloads: []string{`{"has_signal": true, "action":"hedge","symbol":"EURUSD"}`}}
	a, _, ring := newTestAgent(t, src, limits())

	a.Tick(context.Background(), time.Now())

	require.Len(t, src.reports, 1)
	assert.False(t, src.reports[0].Success)
	assert.Contains(t, src.reports[0].Message, "Unknown action: hedge")

	recent, _ := ring.Recent(0)
	require.Len(t, recent, 1)
	assert.Equal(t, "hedge", recent[0].Action)
}

func TestCycle_DefaultLotSubstituted(t *testing.T) {
	t.Parallel()

	src := &fakeSource{payloads: []string{`{"has_signal": true, "action":"buy","symbol":"EURUSD"}`}}
	a, eng, _ := newTestAgent(t, src, limits())

	a.Tick(context.Background(), time.Now())

	open, _ := eng.ListOpenPositions(context.Background(), "")
	require.Len(t, open, 1)
	assert.InDelta(t, 0.01, open[0].Volume, 1e-12)
}

func TestCycle_LostConfirmationJournaledUnconfirmed(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		payloads:  []string{buyPayload("EURUSD", 0.1)},
		reportErr: errors.New("502 bad gateway"),
	}
	a, _, ring := newTestAgent(t, src, limits())

	a.Tick(context.Background(), time.Now())

	recent, _ := ring.Recent(0)
	require.Len(t, recent, 1)
	assert.True(t, recent[0].Success, "venue action stands even when delivery fails")
	assert.False(t, recent[0].Confirmed)
}

func TestRun_StopsOnCancel(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	a, _, _ := newTestAgent(t, src, limits())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("agent did not stop after cancel")
	}
}
