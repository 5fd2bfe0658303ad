package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memorileak/liquicalc/internal/models"
	"github.com/memorileak/liquicalc/internal/services/bracket"
	"github.com/memorileak/liquicalc/internal/services/ladder"
)

const (
	testSymbol    = "BTCUSDT"
	testMaxOrders = 3
)

func newTestBuilder(t *testing.T) *ladder.Builder {
	t.Helper()
	return newTestBuilderDepth(t, testMaxOrders)
}

func newTestBuilderDepth(t *testing.T, maxOrders int) *ladder.Builder {
	t.Helper()
	resolver := bracket.NewResolver(map[string][]models.RiskBracket{
		testSymbol: {
			{BracketSeq: 1, NotionalFloor: 0, NotionalCap: 1e9, MaintMarginRatio: 0.005, MaintAmount: 0},
		},
	})
	builder, err := ladder.NewBuilder(ladder.NewSimulator(resolver), ladder.BuildParams{
		Symbol:              testSymbol,
		Leverage:            2,
		DeviationPercent:    5,
		DeviationMultiplier: 1,
		SizeMultiplier:      1,
		InitialMargin:       100,
		MaxOrdersPerSide:    maxOrders,
		TakeProfitPercent:   1,
		StopLossPercent:     5,
	})
	require.NoError(t, err)
	return builder
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(testSymbol, models.PriceTimeFrame5m, newTestBuilder(t))
}

func candle(minute int, open, high, low, closePrice float64) models.Price {
	base := time.Date(2024, 11, 17, 0, 0, 0, 0, time.UTC)
	return models.Price{
		Symbol:    testSymbol,
		TimeFrame: models.PriceTimeFrame5m,
		OpenTime:  base.Add(time.Duration(minute) * time.Minute),
		CloseTime: base.Add(time.Duration(minute+5) * time.Minute),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
	}
}

// A new ladder starts two rungs deep: the seed rung is treated as already
// filled at the anchor price, so the first crossing the machine detects is
// the second rung's entry. Depth 1 is never observed.
func TestEngineEntersTwoRungsDeep(t *testing.T) {
	engine := newTestEngine(t)

	candles := []models.Price{
		candle(0, 100, 100, 100, 100), // seeds the ladder at 100, no crossing
		candle(5, 99, 99.5, 94, 95),   // low touches the long second rung at 95
	}
	results, err := engine.Run(candles)
	require.NoError(t, err)

	require.Len(t, results.Events, 1)
	ev := results.Events[0]
	assert.True(t, ev.From.IsFlat())
	assert.Equal(t, State{Side: models.PositionSideLong, Depth: 2}, ev.To)
	assert.Empty(t, ev.Outcome)
	assert.Equal(t, 94.0, ev.Price)
	assert.Equal(t, State{Side: models.PositionSideLong, Depth: 2}, results.FinalState)
}

func TestEngineTakeProfitRebuildsAtTrigger(t *testing.T) {
	engine := newTestEngine(t)

	candles := []models.Price{
		candle(0, 100, 100.5, 94.9, 95.2), // red candle, enters long at depth 2
		candle(5, 95.5, 99, 95, 98.5),     // high crosses the depth-2 take profit (~98.41)
	}
	results, err := engine.Run(candles)
	require.NoError(t, err)

	require.Len(t, results.Events, 2)
	tp := results.Events[1]
	assert.Equal(t, OutcomeProfit, tp.Outcome)
	assert.True(t, tp.To.IsFlat())
	assert.Equal(t, 99.0, tp.Price)
	assert.Equal(t, 1, results.Wins)
	assert.Equal(t, 0, results.Losses)

	// The pair after the run is anchored at the triggering sample, not at
	// the original seed.
	assert.Equal(t, 99.0, results.FinalPair.SeedPrice)
	assert.True(t, results.FinalState.IsFlat())
}

func TestEngineMaxDepthStopLoss(t *testing.T) {
	builder := newTestBuilder(t)
	seedPair, err := builder.Build(100)
	require.NoError(t, err)

	rung3 := seedPair.Short.Rungs[2].Price // 110.25
	stopLoss := seedPair.Short.StopLoss    // ~110.16, below rung3's entry here

	engine := NewEngine(testSymbol, models.PriceTimeFrame5m, builder)
	candles := []models.Price{
		candle(0, 100, 105, 99, 104),            // high touches the short second rung at 105
		candle(5, 105.5, rung3, 105.2, 106),     // fills the deepest rung
		candle(10, 106.5, stopLoss, 106, 106.6), // high reaches the stop loss exactly
	}
	results, err := engine.Run(candles)
	require.NoError(t, err)

	require.Len(t, results.Events, 3)
	assert.Equal(t, State{Side: models.PositionSideShort, Depth: 2}, results.Events[0].To)
	assert.Equal(t, State{Side: models.PositionSideShort, Depth: 3}, results.Events[1].To)

	loss := results.Events[2]
	assert.Equal(t, OutcomeLoss, loss.Outcome)
	assert.True(t, loss.To.IsFlat())
	assert.Equal(t, stopLoss, loss.Price)
	assert.Equal(t, 1, results.Losses)

	// Depth is capped by the configured ladder size.
	for _, ev := range results.Events {
		assert.LessOrEqual(t, ev.To.Depth, testMaxOrders)
	}

	// The next samples run against a ladder re-seeded at the stop loss
	// price, so the stale pair's levels are gone.
	require.NotNil(t, results.FinalPair)
	assert.Equal(t, stopLoss, results.FinalPair.SeedPrice)
	assert.InDelta(t, stopLoss*0.95, results.FinalPair.Long.Rungs[1].Price, 1e-9)
}

// The engine's depth cap is the builder's, so a shallow ladder can never be
// pushed past the rungs its pairs actually carry, no matter how far price
// runs against the position.
func TestEngineDepthFollowsBuilder(t *testing.T) {
	builder := newTestBuilderDepth(t, 2)
	engine := NewEngine(testSymbol, models.PriceTimeFrame5m, builder)

	candles := []models.Price{
		candle(0, 100, 105, 99, 104),    // high fills the short second rung, already max depth
		candle(5, 105, 108, 104.8, 107), // keeps running up; 108 clears the stop loss (~107.56)
	}
	results, err := engine.Run(candles)
	require.NoError(t, err)

	require.Len(t, results.Events, 2)
	assert.Equal(t, State{Side: models.PositionSideShort, Depth: 2}, results.Events[0].To)

	loss := results.Events[1]
	assert.Equal(t, OutcomeLoss, loss.Outcome)
	assert.Equal(t, 108.0, loss.Price)
	assert.Equal(t, 1, results.Losses)

	for _, ev := range results.Events {
		assert.LessOrEqual(t, ev.To.Depth, builder.MaxOrdersPerSide())
	}
	assert.Equal(t, 108.0, results.FinalPair.SeedPrice)
}

func TestEngineDeterminism(t *testing.T) {
	builder := newTestBuilder(t)
	seedPair, err := builder.Build(100)
	require.NoError(t, err)

	candles := []models.Price{
		candle(0, 100, 105, 99, 104),
		candle(5, 105.5, seedPair.Short.Rungs[2].Price, 105.2, 106),
		candle(10, 106.5, seedPair.Short.StopLoss, 106, 106.6),
		candle(15, 106, 107, 105, 106.5),
	}

	first, err := newTestEngine(t).Run(candles)
	require.NoError(t, err)
	second, err := newTestEngine(t).Run(candles)
	require.NoError(t, err)

	assert.Equal(t, first.Events, second.Events)
	assert.Equal(t, first.Wins, second.Wins)
	assert.Equal(t, first.Losses, second.Losses)
	assert.Equal(t, first.FinalState, second.FinalState)
}

func TestEngineMalformedCandleAborts(t *testing.T) {
	engine := newTestEngine(t)

	candles := []models.Price{
		candle(0, 100, 100, 100, 100),
		candle(5, 99, 94, 99.5, 95), // high below low
	}
	_, err := engine.Run(candles)
	require.ErrorIs(t, err, models.ErrMalformedCandle)

	engine = newTestEngine(t)
	candles[1] = candle(5, 99, 99.5, 0, 95) // zero low
	_, err = engine.Run(candles)
	require.ErrorIs(t, err, models.ErrMalformedCandle)
}

func TestEngineRequiresCandles(t *testing.T) {
	_, err := newTestEngine(t).Run(nil)
	require.Error(t, err)
}

func TestIntrabarPathOrdering(t *testing.T) {
	up := candle(0, 100, 102, 99, 101)
	assert.Equal(t, [4]float64{100, 99, 102, 101}, intrabarPath(up))

	down := candle(0, 101, 102, 99, 100)
	assert.Equal(t, [4]float64{101, 102, 99, 100}, intrabarPath(down))

	// A doji ties close to open and deterministically walks low first.
	doji := candle(0, 100, 101, 99, 100)
	assert.Equal(t, [4]float64{100, 99, 101, 100}, intrabarPath(doji))
}
