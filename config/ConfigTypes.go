package config

type Config struct {
	Exchange ExchangeConfig
	Database DatabaseConfig
	Ladder   LadderConfig
	Backtest BacktestConfig
	Symbols  []string

	// Local JSON file holding fetched risk bracket tables
	BracketFile string
}

type ExchangeConfig struct {
	APIKey    string
	SecretKey string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

type LadderConfig struct {
	Leverage            int
	InitialMargin       float64
	DeviationPercent    float64
	DeviationMultiplier float64
	SizeMultiplier      float64
	MaxOrdersPerSide    int
	TakeProfitPercent   float64
	StopLossPercent     float64
}

type BacktestConfig struct {
	TimeFrame string
	Days      int
}
