package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	return &Config{
		Exchange: ExchangeConfig{
			APIKey:    os.Getenv("BINANCE_API_KEY"),
			SecretKey: os.Getenv("BINANCE_SECRET_KEY"),
		},
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     EnvtoInt(os.Getenv("DB_PORT"), 5432),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		Ladder: LadderConfig{
			Leverage:            EnvtoInt(os.Getenv("LEVERAGE"), 10),
			InitialMargin:       EnvtoFloat(os.Getenv("INITIAL_MARGIN"), 100),
			DeviationPercent:    EnvtoFloat(os.Getenv("DEVIATION_PERCENT"), 2),
			DeviationMultiplier: EnvtoFloat(os.Getenv("DEVIATION_MULTIPLIER"), 1),
			SizeMultiplier:      EnvtoFloat(os.Getenv("SIZE_MULTIPLIER"), 1.5),
			MaxOrdersPerSide:    EnvtoInt(os.Getenv("MAX_ORDERS_PER_SIDE"), 5),
			TakeProfitPercent:   EnvtoFloat(os.Getenv("TAKE_PROFIT_PERCENT"), 1),
			StopLossPercent:     EnvtoFloat(os.Getenv("STOP_LOSS_PERCENT"), 5),
		},
		Backtest: BacktestConfig{
			TimeFrame: envOrDefault("BACKTEST_TIMEFRAME", "5m"),
			Days:      EnvtoInt(os.Getenv("BACKTEST_DAYS"), 30),
		},
		Symbols:     getSymbols(),
		BracketFile: envOrDefault("BRACKET_FILE", "brackets.json"),
	}, nil
}

// helper env(string) to int
func EnvtoInt(s string, fallback int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return i
}

// helper env(string) to float
func EnvtoFloat(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// helper to get symbols
func getSymbols() []string {
	symbols := os.Getenv("TRADING_SYMBOLS")
	if symbols == "" {
		return []string{"BTCUSDT", "ETHUSDT"} // Default pairs if none specified
	}
	return strings.Split(symbols, ",")
}
