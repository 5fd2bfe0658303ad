package backtest

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/memorileak/liquicalc/internal/models"
	"github.com/memorileak/liquicalc/internal/services/ladder"
)

// Engine replays historical candles through the ladder state machine.
//
// Each candle is reduced to a four sample intrabar path and every sample is
// checked against the current ladder pair: either the next rung fills, a
// take profit closes the position, or the deepest rung's stop loss fires.
// Every take profit or stop loss rebuilds the pair wholesale, anchored at
// the price that triggered it.
type Engine struct {
	symbol    string
	timeFrame string
	builder   *ladder.Builder
	maxDepth  int

	state  State
	pair   *ladder.Pair
	events []Event
}

// NewEngine wires a builder into a fresh engine. The depth cap comes from
// the builder itself so the state machine can never index past the rungs a
// pair actually carries.
func NewEngine(symbol, timeFrame string, builder *ladder.Builder) *Engine {
	return &Engine{
		symbol:    symbol,
		timeFrame: timeFrame,
		builder:   builder,
		maxDepth:  builder.MaxOrdersPerSide(),
		state:     Flat(),
	}
}

// Run processes candles strictly in the order given. Candles are expected
// ordered by open time; a malformed candle aborts the whole run, because a
// skipped bar would silently corrupt the rung crossing sequence.
func (e *Engine) Run(candles []models.Price) (*Results, error) {
	if len(candles) == 0 {
		return nil, fmt.Errorf("backtest %s: no candles to process", e.symbol)
	}

	for _, c := range candles {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}

	// The first ladder pair is seeded from the open of the first bar.
	pair, err := e.builder.Build(candles[0].Open)
	if err != nil {
		return nil, err
	}
	e.pair = pair
	e.state = Flat()
	e.events = nil

	for _, c := range candles {
		for _, price := range intrabarPath(c) {
			if err := e.step(c.OpenTime, price); err != nil {
				return nil, err
			}
		}
	}

	results := &Results{
		RunID:       uuid.NewString(),
		Symbol:      e.symbol,
		TimeFrame:   e.timeFrame,
		StartTime:   candles[0].OpenTime,
		EndTime:     candles[len(candles)-1].OpenTime,
		CandleCount: len(candles),
		Events:      e.events,
		FinalState:  e.state,
		FinalPair:   e.pair,
	}
	for _, ev := range e.events {
		switch ev.Outcome {
		case OutcomeProfit:
			results.Wins++
		case OutcomeLoss:
			results.Losses++
		}
	}
	return results, nil
}

// step evaluates one sampled price against the current state. At most one
// transition fires per sample.
func (e *Engine) step(ts time.Time, price float64) error {
	switch {
	case e.state.IsFlat():
		// The seed rung counts as already filled at the anchor price, so
		// crossing the second rung's entry puts the ladder two deep.
		if price <= e.pair.Long.Rungs[1].Price {
			e.transition(ts, price, State{Side: models.PositionSideLong, Depth: 2})
		} else if price >= e.pair.Short.Rungs[1].Price {
			e.transition(ts, price, State{Side: models.PositionSideShort, Depth: 2})
		}

	case e.state.Side == models.PositionSideLong:
		side := e.pair.Long
		if e.state.Depth < e.maxDepth {
			if price <= side.Rungs[e.state.Depth].Price {
				e.transition(ts, price, State{Side: models.PositionSideLong, Depth: e.state.Depth + 1})
			} else if price >= side.TakeProfits[e.state.Depth-1] {
				return e.resolve(ts, price, OutcomeProfit)
			}
		} else {
			if price <= side.StopLoss {
				return e.resolve(ts, price, OutcomeLoss)
			} else if price >= side.TakeProfits[e.maxDepth-1] {
				return e.resolve(ts, price, OutcomeProfit)
			}
		}

	case e.state.Side == models.PositionSideShort:
		side := e.pair.Short
		if e.state.Depth < e.maxDepth {
			if price >= side.Rungs[e.state.Depth].Price {
				e.transition(ts, price, State{Side: models.PositionSideShort, Depth: e.state.Depth + 1})
			} else if price <= side.TakeProfits[e.state.Depth-1] {
				return e.resolve(ts, price, OutcomeProfit)
			}
		} else {
			if price >= side.StopLoss {
				return e.resolve(ts, price, OutcomeLoss)
			} else if price <= side.TakeProfits[e.maxDepth-1] {
				return e.resolve(ts, price, OutcomeProfit)
			}
		}
	}
	return nil
}

func (e *Engine) transition(ts time.Time, price float64, to State) {
	e.events = append(e.events, Event{Time: ts, Price: price, From: e.state, To: to})
	e.state = to
}

// resolve closes the position and re-seeds both ladders at the triggering
// price. Nothing from the old pair survives.
func (e *Engine) resolve(ts time.Time, price float64, outcome Outcome) error {
	e.events = append(e.events, Event{Time: ts, Price: price, From: e.state, To: Flat(), Outcome: outcome})
	e.state = Flat()

	pair, err := e.builder.Build(price)
	if err != nil {
		return fmt.Errorf("rebuilding ladder at %.8f: %w", price, err)
	}
	e.pair = pair
	return nil
}

// intrabarPath approximates the within-bar trajectory with four samples:
// open, the two extremes in the order implied by the candle's direction,
// then close. A doji (close == open) walks low before high.
func intrabarPath(c models.Price) [4]float64 {
	if c.Close >= c.Open {
		return [4]float64{c.Open, c.Low, c.High, c.Close}
	}
	return [4]float64{c.Open, c.High, c.Low, c.Close}
}
