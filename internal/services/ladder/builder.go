package ladder

import (
	"errors"
	"fmt"

	"github.com/memorileak/liquicalc/internal/models"
)

// ErrInsufficientRungs means a side self-liquidated before reaching its
// configured depth. The ladder parameters must change; callers must not
// proceed with a truncated ladder.
var ErrInsufficientRungs = errors.New("ladder produced fewer rungs than configured depth")

// BuildParams are the direction-independent knobs shared by both sides of
// a ladder pair.
type BuildParams struct {
	Symbol              string
	Leverage            int
	DeviationPercent    float64
	DeviationMultiplier float64
	SizeMultiplier      float64
	InitialMargin       float64
	MaxOrdersPerSide    int
	TakeProfitPercent   float64
	StopLossPercent     float64
}

// Side is one direction of a ladder pair: its rungs, a take-profit price
// per rung and a single stop-loss derived from the deepest rung.
type Side struct {
	Rungs       []Rung
	TakeProfits []float64
	StopLoss    float64
}

// Pair holds both directions built from a common seed price. A pair is
// always rebuilt wholesale when the seed changes, never patched.
type Pair struct {
	SeedPrice float64
	Long      Side
	Short     Side
}

// Builder derives dual-side ladder pairs from a seed price.
type Builder struct {
	sim    *Simulator
	params BuildParams
}

func NewBuilder(sim *Simulator, params BuildParams) (*Builder, error) {
	// The state machine enters new ladders at depth 2, so anything
	// shallower can never transition.
	if params.MaxOrdersPerSide < 2 {
		return nil, fmt.Errorf("%w: max orders per side must be >= 2, got %d",
			ErrInvalidConfig, params.MaxOrdersPerSide)
	}
	if params.TakeProfitPercent <= 0 || params.StopLossPercent <= 0 {
		return nil, fmt.Errorf("%w: take profit and stop loss percents must be positive",
			ErrInvalidConfig)
	}
	return &Builder{sim: sim, params: params}, nil
}

// MaxOrdersPerSide reports the configured ladder depth. Every pair this
// builder produces carries exactly that many rungs per side.
func (b *Builder) MaxOrdersPerSide() int {
	return b.params.MaxOrdersPerSide
}

// Build simulates both directions from seedPrice, caps each at
// MaxOrdersPerSide rungs and derives the exit prices per side.
func (b *Builder) Build(seedPrice float64) (*Pair, error) {
	long, err := b.buildSide(models.PositionSideLong, seedPrice)
	if err != nil {
		return nil, err
	}
	short, err := b.buildSide(models.PositionSideShort, seedPrice)
	if err != nil {
		return nil, err
	}

	return &Pair{SeedPrice: seedPrice, Long: long, Short: short}, nil
}

func (b *Builder) buildSide(side string, seedPrice float64) (Side, error) {
	rungs, err := b.sim.Simulate(Config{
		Symbol:              b.params.Symbol,
		Side:                side,
		Leverage:            b.params.Leverage,
		DeviationPercent:    b.params.DeviationPercent,
		DeviationMultiplier: b.params.DeviationMultiplier,
		SizeMultiplier:      b.params.SizeMultiplier,
		InitialEntryPrice:   seedPrice,
		InitialMargin:       b.params.InitialMargin,
	})
	if err != nil {
		return Side{}, err
	}
	if len(rungs) < b.params.MaxOrdersPerSide {
		return Side{}, fmt.Errorf("%w: %s side reached %d of %d rungs from seed %.8f",
			ErrInsufficientRungs, side, len(rungs), b.params.MaxOrdersPerSide, seedPrice)
	}
	rungs = rungs[:b.params.MaxOrdersPerSide]

	// Take profit is relative to the average entry at each depth; the
	// stop loss sits past the deepest rung's average entry.
	tpFactor := 1 + b.params.TakeProfitPercent/100
	slFactor := 1 - b.params.StopLossPercent/100
	if side == models.PositionSideShort {
		tpFactor = 1 - b.params.TakeProfitPercent/100
		slFactor = 1 + b.params.StopLossPercent/100
	}

	takeProfits := make([]float64, len(rungs))
	for i, r := range rungs {
		takeProfits[i] = r.AvgEntryPrice * tpFactor
	}
	stopLoss := rungs[len(rungs)-1].AvgEntryPrice * slFactor

	return Side{Rungs: rungs, TakeProfits: takeProfits, StopLoss: stopLoss}, nil
}
