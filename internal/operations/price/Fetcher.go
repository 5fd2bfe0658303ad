package price

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"

	"github.com/memorileak/liquicalc/internal/models"
	"github.com/memorileak/liquicalc/internal/operations/binance"
)

type PriceFetcher struct {
	client *binance.BinanceClient
}

func NewPriceFetcher(client *binance.BinanceClient) *PriceFetcher {
	return &PriceFetcher{client: client}
}

// FetchPrices downloads candle history for one symbol in 500-candle
// windows. A kline field that fails to parse aborts the fetch: zeroed
// candles would later corrupt the backtest crossing sequence.
func (f *PriceFetcher) FetchPrices(ctx context.Context, symbol, timeframe string, days int) ([]models.Price, error) {
	endTime := time.Now()
	startTime := endTime.AddDate(0, 0, -days)
	var allPrices []models.Price

	chunkDuration := calculateChunkDuration(timeframe)
	currentStart := startTime
	currentEnd := currentStart.Add(chunkDuration)

	for currentStart.Before(endTime) {
		if currentEnd.After(endTime) {
			currentEnd = endTime
		}

		klines, err := f.client.GetKlines(ctx, symbol, timeframe,
			currentStart.UnixMilli(), currentEnd.UnixMilli())
		if err != nil {
			return nil, fmt.Errorf("fetching %s %s klines: %w", symbol, timeframe, err)
		}

		for _, k := range klines {
			price, err := klineToPrice(symbol, timeframe, k)
			if err != nil {
				return nil, err
			}
			allPrices = append(allPrices, price)
		}

		log.Printf("Fetched %d %s candles for %s from %s to %s",
			len(klines),
			timeframe,
			symbol,
			currentStart.Format("2006-01-02 15:04:05"),
			currentEnd.Format("2006-01-02 15:04:05"))

		currentStart = currentEnd
		currentEnd = currentStart.Add(chunkDuration)
	}

	return allPrices, nil
}

func klineToPrice(symbol, timeframe string, k *futures.Kline) (models.Price, error) {
	open, err1 := parseFloat(k.Open)
	high, err2 := parseFloat(k.High)
	low, err3 := parseFloat(k.Low)
	closePrice, err4 := parseFloat(k.Close)
	volume, err5 := parseFloat(k.Volume)

	for _, err := range []error{err1, err2, err3, err4, err5} {
		if err != nil {
			return models.Price{}, fmt.Errorf("%w: %s %s kline at %d: %v",
				models.ErrMalformedCandle, symbol, timeframe, k.OpenTime, err)
		}
	}

	price := models.Price{
		Symbol:    symbol,
		TimeFrame: timeframe,
		OpenTime:  time.Unix(k.OpenTime/1000, 0),
		CloseTime: time.Unix(k.CloseTime/1000, 0),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    volume,
	}
	if err := price.Validate(); err != nil {
		return models.Price{}, err
	}
	return price, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func calculateChunkDuration(timeframe string) time.Duration {
	// How much wall time 500 candles cover, Binance's per-request limit.
	intervalsMap := map[string]time.Duration{
		models.PriceTimeFrame1m:  time.Minute,
		models.PriceTimeFrame5m:  5 * time.Minute,
		models.PriceTimeFrame15m: 15 * time.Minute,
		models.PriceTimeFrame1h:  time.Hour,
		models.PriceTimeFrame4h:  4 * time.Hour,
	}

	interval, ok := intervalsMap[timeframe]
	if !ok {
		interval = time.Hour
	}
	return interval * 500
}
