package ladder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memorileak/liquicalc/internal/models"
	"github.com/memorileak/liquicalc/internal/services/bracket"
)

func testParams() BuildParams {
	return BuildParams{
		Symbol:              "BTCUSDT",
		Leverage:            2,
		DeviationPercent:    5,
		DeviationMultiplier: 1,
		SizeMultiplier:      1,
		InitialMargin:       100,
		MaxOrdersPerSide:    3,
		TakeProfitPercent:   1,
		StopLossPercent:     5,
	}
}

func TestBuildDerivesExitPrices(t *testing.T) {
	sim := newTestSimulator("BTCUSDT")
	builder, err := NewBuilder(sim, testParams())
	require.NoError(t, err)

	pair, err := builder.Build(100)
	require.NoError(t, err)

	require.Len(t, pair.Long.Rungs, 3)
	require.Len(t, pair.Short.Rungs, 3)
	assert.Equal(t, 100.0, pair.SeedPrice)

	// Both sides step adversely from the common seed.
	assert.InDelta(t, 95.0, pair.Long.Rungs[1].Price, 1e-9)
	assert.InDelta(t, 105.0, pair.Short.Rungs[1].Price, 1e-9)

	for i, r := range pair.Long.Rungs {
		assert.InDelta(t, r.AvgEntryPrice*1.01, pair.Long.TakeProfits[i], 1e-9, "long tp %d", i)
	}
	for i, r := range pair.Short.Rungs {
		assert.InDelta(t, r.AvgEntryPrice*0.99, pair.Short.TakeProfits[i], 1e-9, "short tp %d", i)
	}

	lastLong := pair.Long.Rungs[2]
	lastShort := pair.Short.Rungs[2]
	assert.InDelta(t, lastLong.AvgEntryPrice*0.95, pair.Long.StopLoss, 1e-9)
	assert.InDelta(t, lastShort.AvgEntryPrice*1.05, pair.Short.StopLoss, 1e-9)
}

func TestBuildInsufficientRungs(t *testing.T) {
	// Ladder self-limits after one rung, below the configured depth.
	resolver := bracket.NewResolver(map[string][]models.RiskBracket{
		"BTCUSDT": {
			{BracketSeq: 1, NotionalFloor: 0, NotionalCap: 500, MaintMarginRatio: 0.005, MaintAmount: 0},
		},
	})
	builder, err := NewBuilder(NewSimulator(resolver), testParams())
	require.NoError(t, err)

	_, err = builder.Build(70000)
	require.ErrorIs(t, err, ErrInsufficientRungs)
}

func TestNewBuilderRejectsShallowLadder(t *testing.T) {
	params := testParams()
	params.MaxOrdersPerSide = 1

	_, err := NewBuilder(newTestSimulator("BTCUSDT"), params)
	require.ErrorIs(t, err, ErrInvalidConfig)
}
