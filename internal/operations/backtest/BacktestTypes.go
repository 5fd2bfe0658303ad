package backtest

import (
	"fmt"
	"time"

	"github.com/memorileak/liquicalc/internal/models"
	"github.com/memorileak/liquicalc/internal/services/ladder"
)

// Outcome tags a transition that closes a position.
type Outcome string

const (
	OutcomeProfit Outcome = "profit"
	OutcomeLoss   Outcome = "loss"
)

// State is the entire mutable state of the machine between price samples:
// flat, or a side with the number of rungs currently filled. Depth never
// exceeds the configured max orders per side.
type State struct {
	Side  string // models.PositionSideLong, models.PositionSideShort, or "" when flat
	Depth int    // 0 when flat
}

// Flat is the initial, undecided state.
func Flat() State {
	return State{}
}

func (s State) IsFlat() bool {
	return s.Side == "" && s.Depth == 0
}

func (s State) String() string {
	if s.IsFlat() {
		return "flat"
	}
	return fmt.Sprintf("%s/%d", s.Side, s.Depth)
}

// Event is one transition of the machine. The ordered event slice is the
// full audit trail of a run.
type Event struct {
	Time    time.Time
	Price   float64
	From    State
	To      State
	Outcome Outcome // empty for plain rung fills and entries
}

// Results holds the output of one backtest run.
type Results struct {
	RunID     string
	Symbol    string
	TimeFrame string

	StartTime time.Time
	EndTime   time.Time

	CandleCount int
	Events      []Event
	Wins        int
	Losses      int

	FinalState State
	FinalPair  *ladder.Pair
}

// ToModel converts results into their persisted form.
func (r *Results) ToModel() *models.BacktestRun {
	return &models.BacktestRun{
		ID:          r.RunID,
		Symbol:      r.Symbol,
		TimeFrame:   r.TimeFrame,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		CandleCount: r.CandleCount,
		EventCount:  len(r.Events),
		Wins:        r.Wins,
		Losses:      r.Losses,
	}
}
