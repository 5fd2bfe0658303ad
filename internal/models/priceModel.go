package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrMalformedCandle marks candle data that cannot be trusted for simulation.
// A backtest aborts on the first malformed candle instead of skipping it.
var ErrMalformedCandle = errors.New("malformed candle")

type Price struct {
	ID        uint      `gorm:"primaryKey"`
	Symbol    string    `gorm:"index;not null"`
	TimeFrame string    `gorm:"not null"`
	OpenTime  time.Time `gorm:"index;not null"`
	CloseTime time.Time `gorm:"index"`
	Open      float64   `gorm:"type:decimal(20,8)"`
	High      float64   `gorm:"type:decimal(20,8)"`
	Low       float64   `gorm:"type:decimal(20,8)"`
	Close     float64   `gorm:"type:decimal(20,8)"`
	Volume    float64   `gorm:"type:decimal(20,8)"`
}

const (
	PriceTimeFrame1m  = "1m"
	PriceTimeFrame5m  = "5m"
	PriceTimeFrame15m = "15m"
	PriceTimeFrame1h  = "1h"
	PriceTimeFrame4h  = "4h"
)

// TableName sets the table name for Price model
func (Price) TableName() string {
	return "prices"
}

// Validate rejects candles with non-positive, non-finite or inverted OHLC values.
func (p Price) Validate() error {
	for _, v := range []float64{p.Open, p.High, p.Low, p.Close} {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s %s has invalid OHLC value %v",
				ErrMalformedCandle, p.Symbol, p.OpenTime.Format(time.RFC3339), v)
		}
	}
	if p.High < p.Low {
		return fmt.Errorf("%w: %s %s has high %v below low %v",
			ErrMalformedCandle, p.Symbol, p.OpenTime.Format(time.RFC3339), p.High, p.Low)
	}
	return nil
}
