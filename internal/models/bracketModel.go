package models

// RiskBracket is one tier of a symbol's maintenance margin schedule as
// published by the exchange. Tiers are contiguous and ordered by BracketSeq,
// together covering every notional value from zero upward.
type RiskBracket struct {
	BracketSeq       int     `json:"bracketSeq"`
	NotionalFloor    float64 `json:"notionalFloor"`
	NotionalCap      float64 `json:"notionalCap"`
	MaintMarginRatio float64 `json:"maintMarginRatio"`
	MaintAmount      float64 `json:"maintAmount"`
	MinLeverage      int     `json:"minLeverage"`
	MaxLeverage      int     `json:"maxLeverage"`
}

// SymbolPrecision carries the rounding rules an order for a symbol must obey.
type SymbolPrecision struct {
	Symbol            string
	PricePrecision    int
	QuantityPrecision int
	TickSize          float64
}

const (
	PositionSideLong  = "long"
	PositionSideShort = "short"
)
