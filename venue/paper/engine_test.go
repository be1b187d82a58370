package paper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradewire/sigagent/venue"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(DefaultQuotes(), 100000, zap.NewNop())
}

func TestResolveInstrument(t *testing.T) {
	t.Parallel()

	e := newEngine(t)

	q, err := e.ResolveInstrument(context.Background(), "EURUSD")
	require.NoError(t, err)
	assert.Equal(t, 5, q.Digits)
	assert.Greater(t, q.Ask, q.Bid)

	_, err = e.ResolveInstrument(context.Background(), "DOGEUSD")
	assert.ErrorIs(t, err, venue.ErrSymbolNotFound)
}

func TestSubmitMarketOrder_FillSides(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	ctx := context.Background()

	long, err := e.SubmitMarketOrder(ctx, venue.OrderRequest{
		Symbol: "EURUSD", Side: venue.Long, Volume: 0.1, Tag: "sig",
	})
	require.NoError(t, err)
	assert.True(t, long.Accepted)

	short, err := e.SubmitMarketOrder(ctx, venue.OrderRequest{
		Symbol: "EURUSD", Side: venue.Short, Volume: 0.1, Tag: "sig",
	})
	require.NoError(t, err)
	assert.True(t, short.Accepted)

	open, err := e.ListOpenPositions(ctx, "")
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.InDelta(t, 1.08510, open[0].OpenPrice, 1e-9) // long fills at ask
	assert.InDelta(t, 1.08490, open[1].OpenPrice, 1e-9) // short fills at bid
}

func TestSubmitMarketOrder_Rejections(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	ctx := context.Background()

	res, err := e.SubmitMarketOrder(ctx, venue.OrderRequest{Symbol: "NOPE", Side: venue.Long, Volume: 0.1})
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, "UNKNOWN_SYMBOL", res.Code)

	res, err = e.SubmitMarketOrder(ctx, venue.OrderRequest{Symbol: "EURUSD", Side: venue.Long, Volume: 0})
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, "INVALID_VOLUME", res.Code)
}

func TestListOpenPositions_TagFilter(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	ctx := context.Background()

	_, err := e.SubmitMarketOrder(ctx, venue.OrderRequest{Symbol: "EURUSD", Side: venue.Long, Volume: 0.1, Tag: "mine"})
	require.NoError(t, err)
	_, err = e.SubmitMarketOrder(ctx, venue.OrderRequest{Symbol: "GBPUSD", Side: venue.Long, Volume: 0.1, Tag: "theirs"})
	require.NoError(t, err)

	mine, err := e.ListOpenPositions(ctx, "mine")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "EURUSD", mine[0].Symbol)

	all, err := e.ListOpenPositions(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestClosePosition_RemovesAndSettles(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	ctx := context.Background()

	res, err := e.SubmitMarketOrder(ctx, venue.OrderRequest{Symbol: "EURUSD", Side: venue.Long, Volume: 0.1})
	require.NoError(t, err)

	// Price moves up 10 pips; the long should settle at a profit.
	e.SetQuote(venue.Quote{Symbol: "EURUSD", Bid: 1.08590, Ask: 1.08610, Digits: 5})

	require.NoError(t, e.ClosePosition(ctx, res.Ticket))

	open, err := e.ListOpenPositions(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, open)

	acct, err := e.GetAccount(ctx)
	require.NoError(t, err)
	assert.Greater(t, acct.Balance, 100000.0)

	assert.Error(t, e.ClosePosition(ctx, res.Ticket), "double close must fail")
}

func TestGetAccount_EquityIncludesFloating(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	ctx := context.Background()

	_, err := e.SubmitMarketOrder(ctx, venue.OrderRequest{Symbol: "EURUSD", Side: venue.Long, Volume: 1.0})
	require.NoError(t, err)

	acct, err := e.GetAccount(ctx)
	require.NoError(t, err)
	// Fresh long marks at the bid, so equity trails balance by the spread.
	assert.Less(t, acct.Equity, acct.Balance)
}
