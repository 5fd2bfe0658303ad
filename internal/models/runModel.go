package models

import "time"

// BacktestRun is the persisted summary of one backtest execution.
type BacktestRun struct {
	ID        string `gorm:"primaryKey"`
	Symbol    string `gorm:"index;not null"`
	TimeFrame string `gorm:"not null"`

	StartTime time.Time
	EndTime   time.Time

	CandleCount int
	EventCount  int
	Wins        int
	Losses      int

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName sets the table name for BacktestRun model
func (BacktestRun) TableName() string {
	return "backtest_runs"
}
