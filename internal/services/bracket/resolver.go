package bracket

import (
	"errors"
	"fmt"

	"github.com/memorileak/liquicalc/internal/models"
)

// ErrNoBracketFound means a position notional grew past the exchange's
// published risk tiers. This is a hard stop for the caller, not retryable.
var ErrNoBracketFound = errors.New("no risk bracket found")

// Resolver answers maintenance margin lookups against a fixed set of
// bracket tables. Tables are supplied once at construction and never
// mutated afterwards; load them fresh for each calculation run.
type Resolver struct {
	tables map[string][]models.RiskBracket
}

func NewResolver(tables map[string][]models.RiskBracket) *Resolver {
	return &Resolver{tables: tables}
}

// Resolve returns the tier where notionalFloor <= notional < notionalCap.
func (r *Resolver) Resolve(symbol string, notional float64) (models.RiskBracket, error) {
	brackets, ok := r.tables[symbol]
	if !ok {
		return models.RiskBracket{}, fmt.Errorf("%w: no table loaded for %s", ErrNoBracketFound, symbol)
	}

	for _, b := range brackets {
		if notional >= b.NotionalFloor && notional < b.NotionalCap {
			return b, nil
		}
	}

	return models.RiskBracket{}, fmt.Errorf("%w: %s notional %.2f exceeds published tiers",
		ErrNoBracketFound, symbol, notional)
}
