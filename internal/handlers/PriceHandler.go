package handlers

import (
	"context"
	"log"

	"github.com/memorileak/liquicalc/internal/operations/binance"
	"github.com/memorileak/liquicalc/internal/operations/price"
	"github.com/memorileak/liquicalc/internal/repositories"
)

type PriceHandler struct {
	priceRepo    *repositories.PriceRepository
	priceFetcher *price.PriceFetcher
	symbols      []string
}

func NewPriceHandler(client *binance.BinanceClient, priceRepo *repositories.PriceRepository, symbols []string) *PriceHandler {
	return &PriceHandler{
		priceRepo:    priceRepo,
		priceFetcher: price.NewPriceFetcher(client),
		symbols:      symbols,
	}
}

// SyncHistory replaces stored candles for each configured symbol with a
// fresh download of the requested window.
func (h *PriceHandler) SyncHistory(ctx context.Context, timeframe string, days int) error {
	for _, symbol := range h.symbols {
		log.Printf("Fetching %d days of %s candles for %s", days, timeframe, symbol)

		prices, err := h.priceFetcher.FetchPrices(ctx, symbol, timeframe, days)
		if err != nil {
			return err
		}

		if err := h.priceRepo.DeleteBySymbol(symbol); err != nil {
			return err
		}
		if err := h.priceRepo.CreateBatch(prices); err != nil {
			return err
		}

		latest, err := h.priceRepo.GetLatestPriceByTimeFrame(symbol, timeframe)
		if err != nil {
			return err
		}
		if latest != nil {
			log.Printf("Stored %d candles for %s, coverage up to %s",
				len(prices), symbol, latest.OpenTime.Format("2006-01-02 15:04:05"))
		} else {
			log.Printf("Stored %d candles for %s", len(prices), symbol)
		}
	}
	return nil
}
