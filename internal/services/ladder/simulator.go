package ladder

import (
	"errors"
	"fmt"
	"math"

	"github.com/memorileak/liquicalc/internal/models"
	"github.com/memorileak/liquicalc/internal/services/bracket"
)

// ErrInvalidConfig marks ladder parameters that would divide by zero or
// produce a nonsensical ladder. Checked before the rung loop starts.
var ErrInvalidConfig = errors.New("invalid ladder config")

// maxRungIterations bounds the rung loop for configs whose liquidation
// price never catches up with the deviation steps.
const maxRungIterations = 60

// Config describes one simulated direction of a DCA ladder.
type Config struct {
	Symbol              string
	Side                string // models.PositionSideLong or models.PositionSideShort
	Leverage            int
	DeviationPercent    float64 // adverse price step per rung, in percent
	DeviationMultiplier float64 // compounds the step per rung, 1 = fixed step
	SizeMultiplier      float64 // scales the margin added at each new rung
	InitialEntryPrice   float64
	InitialMargin       float64
}

func (c Config) validate() error {
	switch {
	case c.Side != models.PositionSideLong && c.Side != models.PositionSideShort:
		return fmt.Errorf("%w: unknown side %q", ErrInvalidConfig, c.Side)
	case c.Leverage <= 0:
		return fmt.Errorf("%w: leverage must be positive, got %d", ErrInvalidConfig, c.Leverage)
	case c.InitialEntryPrice <= 0:
		return fmt.Errorf("%w: initial entry price must be positive, got %v", ErrInvalidConfig, c.InitialEntryPrice)
	case c.InitialMargin <= 0:
		return fmt.Errorf("%w: initial margin must be positive, got %v", ErrInvalidConfig, c.InitialMargin)
	case c.DeviationPercent <= 0:
		return fmt.Errorf("%w: deviation percent must be positive, got %v", ErrInvalidConfig, c.DeviationPercent)
	case c.DeviationMultiplier < 1:
		return fmt.Errorf("%w: deviation multiplier must be >= 1, got %v", ErrInvalidConfig, c.DeviationMultiplier)
	case c.SizeMultiplier <= 0:
		return fmt.Errorf("%w: size multiplier must be positive, got %v", ErrInvalidConfig, c.SizeMultiplier)
	}
	return nil
}

// Rung is one ladder entry together with the running position state as of
// that entry. Rungs are produced in fill order and never reordered.
type Rung struct {
	Price            float64
	MarginAdded      float64
	QuantityAdded    float64
	AvgEntryPrice    float64
	TotalMargin      float64
	TotalQuantity    float64
	LiquidationPrice float64
}

// Simulator projects a ladder of hypothetical fills for one direction and
// computes the liquidation price at each rung from the symbol's risk
// bracket table. Pure: the same config and table produce the same rungs.
type Simulator struct {
	resolver *bracket.Resolver
}

func NewSimulator(resolver *bracket.Resolver) *Simulator {
	return &Simulator{resolver: resolver}
}

// Simulate walks the ladder rung by rung until the next candidate entry
// would already sit past the running liquidation price, the position
// notional outgrows the bracket table, or the iteration ceiling is hit.
//
// The liquidation price recorded on each rung is the one computed for that
// rung, while the stop check uses the previous rung's value: a rung is only
// invalidated by conditions known after it nominally fills.
func (s *Simulator) Simulate(cfg Config) ([]Rung, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// -1 moves price down for longs, +1 up for shorts.
	adverse := -1.0
	if cfg.Side == models.PositionSideShort {
		adverse = 1.0
	}

	var (
		rungs         []Rung
		price         = cfg.InitialEntryPrice
		margin        = cfg.InitialMargin
		totalMargin   float64
		totalQuantity float64
		totalNotional float64
		liquidation   float64
	)

	for i := 0; i < maxRungIterations; i++ {
		if i > 0 {
			deviation := cfg.DeviationPercent * math.Pow(cfg.DeviationMultiplier, float64(i-1))
			candidate := price * (1 + adverse*deviation/100)

			if crossed(cfg.Side, candidate, liquidation) {
				break
			}
			price = candidate
			margin *= cfg.SizeMultiplier
		}

		quantity := float64(cfg.Leverage) * margin / price
		totalQuantity += quantity
		totalMargin += margin
		totalNotional += price * quantity
		avgEntry := totalNotional / totalQuantity

		positionValue := price * totalQuantity
		tier, err := s.resolver.Resolve(cfg.Symbol, positionValue)
		if err != nil {
			if errors.Is(err, bracket.ErrNoBracketFound) {
				break
			}
			return nil, err
		}

		maintMargin := positionValue*tier.MaintMarginRatio - tier.MaintAmount
		liquidation = avgEntry + adverse*(totalMargin-maintMargin)/totalQuantity

		rungs = append(rungs, Rung{
			Price:            price,
			MarginAdded:      margin,
			QuantityAdded:    quantity,
			AvgEntryPrice:    avgEntry,
			TotalMargin:      totalMargin,
			TotalQuantity:    totalQuantity,
			LiquidationPrice: liquidation,
		})
	}

	return rungs, nil
}

// crossed reports whether an entry price has already breached the
// liquidation price computed at the previous rung.
func crossed(side string, price, liquidation float64) bool {
	if side == models.PositionSideLong {
		return price <= liquidation
	}
	return price >= liquidation
}
