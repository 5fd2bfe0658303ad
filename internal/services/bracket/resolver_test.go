package bracket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memorileak/liquicalc/internal/models"
)

func testTable() map[string][]models.RiskBracket {
	return map[string][]models.RiskBracket{
		"BTCUSDT": {
			{BracketSeq: 1, NotionalFloor: 0, NotionalCap: 100, MaintMarginRatio: 0.004, MaintAmount: 0, MaxLeverage: 125},
			{BracketSeq: 2, NotionalFloor: 100, NotionalCap: 1000, MaintMarginRatio: 0.005, MaintAmount: 0.1, MaxLeverage: 100},
			{BracketSeq: 3, NotionalFloor: 1000, NotionalCap: 1e6, MaintMarginRatio: 0.01, MaintAmount: 5.1, MaxLeverage: 50},
		},
	}
}

func TestResolvePicksMatchingTier(t *testing.T) {
	r := NewResolver(testTable())

	cases := []struct {
		notional float64
		wantSeq  int
	}{
		{0, 1},
		{99.99, 1},
		{100, 2}, // floor is inclusive, cap is not
		{999.99, 2},
		{1000, 3},
		{999999.99, 3},
	}
	for _, tc := range cases {
		b, err := r.Resolve("BTCUSDT", tc.notional)
		require.NoError(t, err, "notional %v", tc.notional)
		assert.Equal(t, tc.wantSeq, b.BracketSeq, "notional %v", tc.notional)
	}
}

func TestResolveNotionalPastCeiling(t *testing.T) {
	r := NewResolver(testTable())

	_, err := r.Resolve("BTCUSDT", 1e6)
	require.ErrorIs(t, err, ErrNoBracketFound)
}

func TestResolveUnknownSymbol(t *testing.T) {
	r := NewResolver(testTable())

	_, err := r.Resolve("DOGEUSDT", 50)
	require.ErrorIs(t, err, ErrNoBracketFound)
}
