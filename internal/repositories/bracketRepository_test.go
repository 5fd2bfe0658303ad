package repositories

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memorileak/liquicalc/internal/models"
)

func TestBracketRepositoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brackets.json")
	repo := NewBracketRepository(path)

	tables := map[string][]models.RiskBracket{
		"BTCUSDT": {
			{BracketSeq: 1, NotionalFloor: 0, NotionalCap: 50000, MaintMarginRatio: 0.004, MaintAmount: 0, MinLeverage: 101, MaxLeverage: 125},
			{BracketSeq: 2, NotionalFloor: 50000, NotionalCap: 250000, MaintMarginRatio: 0.005, MaintAmount: 50, MinLeverage: 1, MaxLeverage: 100},
		},
		"ETHUSDT": {
			{BracketSeq: 1, NotionalFloor: 0, NotionalCap: 10000, MaintMarginRatio: 0.005, MaintAmount: 0, MinLeverage: 1, MaxLeverage: 100},
		},
	}
	require.NoError(t, repo.Save(tables))

	loaded, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, tables, loaded)

	btc, err := repo.LoadSymbol("BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, tables["BTCUSDT"], btc)
}

func TestBracketRepositoryMissingSymbol(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brackets.json")
	repo := NewBracketRepository(path)

	require.NoError(t, repo.Save(map[string][]models.RiskBracket{
		"BTCUSDT": {{BracketSeq: 1, NotionalCap: 1e9, MaintMarginRatio: 0.004}},
	}))

	_, err := repo.LoadSymbol("DOGEUSDT")
	require.Error(t, err)
}

func TestBracketRepositoryMissingFile(t *testing.T) {
	repo := NewBracketRepository(filepath.Join(t.TempDir(), "nope.json"))

	_, err := repo.Load()
	require.Error(t, err)
}

func TestBracketRepositoryRejectsEmptySave(t *testing.T) {
	repo := NewBracketRepository(filepath.Join(t.TempDir(), "brackets.json"))
	require.Error(t, repo.Save(nil))
}
