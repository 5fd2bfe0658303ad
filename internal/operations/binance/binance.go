package binance

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"golang.org/x/time/rate"

	"github.com/memorileak/liquicalc/internal/models"
)

// BinanceClient wraps the futures REST client with a rate limiter and the
// handful of calls the calculator needs. Metadata and order calls are
// one-shot: failures propagate to the caller, which owns retry policy.
type BinanceClient struct {
	client      *futures.Client
	rateLimiter *rate.Limiter
	httpClient  *http.Client
}

func NewBinanceClient(apiKey, secretKey string) *BinanceClient {
	// Create custom HTTP client with timeouts
	httpClient := &http.Client{
		Timeout: time.Second * 10,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	futuresClient := futures.NewClient(apiKey, secretKey)
	futuresClient.HTTPClient = httpClient

	// 10 requests per second with burst of 20
	limiter := rate.NewLimiter(rate.Limit(10), 20)

	return &BinanceClient{
		client:      futuresClient,
		rateLimiter: limiter,
		httpClient:  httpClient,
	}
}

// GetLeverageBrackets fetches the symbol's maintenance margin tiers,
// ordered by bracket sequence. The minimum leverage of a tier is derived
// from the next tier's cap, the way the exchange publishes the table.
func (c *BinanceClient) GetLeverageBrackets(ctx context.Context, symbol string) ([]models.RiskBracket, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	res, err := c.client.NewGetLeverageBracketService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching leverage brackets for %s: %w", symbol, err)
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("no leverage brackets returned for %s", symbol)
	}

	raw := res[0].Brackets
	brackets := make([]models.RiskBracket, 0, len(raw))
	for i, b := range raw {
		minLeverage := 1
		if i+1 < len(raw) {
			minLeverage = raw[i+1].InitialLeverage + 1
		}
		brackets = append(brackets, models.RiskBracket{
			BracketSeq:       b.Bracket,
			NotionalFloor:    b.NotionalFloor,
			NotionalCap:      b.NotionalCap,
			MaintMarginRatio: b.MaintMarginRatio,
			MaintAmount:      b.Cum,
			MinLeverage:      minLeverage,
			MaxLeverage:      b.InitialLeverage,
		})
	}
	return brackets, nil
}

// GetSymbolPrecision returns the rounding rules for one symbol.
func (c *BinanceClient) GetSymbolPrecision(ctx context.Context, symbol string) (models.SymbolPrecision, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return models.SymbolPrecision{}, err
	}

	info, err := c.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return models.SymbolPrecision{}, fmt.Errorf("fetching exchange info: %w", err)
	}

	for _, s := range info.Symbols {
		if s.Symbol != symbol {
			continue
		}
		precision := models.SymbolPrecision{
			Symbol:            s.Symbol,
			PricePrecision:    s.PricePrecision,
			QuantityPrecision: s.QuantityPrecision,
		}
		if f := s.PriceFilter(); f != nil {
			tick, err := strconv.ParseFloat(f.TickSize, 64)
			if err != nil {
				return models.SymbolPrecision{}, fmt.Errorf("parsing tick size %q for %s: %w", f.TickSize, symbol, err)
			}
			precision.TickSize = tick
		}
		return precision, nil
	}

	return models.SymbolPrecision{}, fmt.Errorf("symbol %s not found in exchange info", symbol)
}

// GetMarkPrice returns the current mark price for a symbol.
func (c *BinanceClient) GetMarkPrice(ctx context.Context, symbol string) (float64, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return 0, err
	}

	res, err := c.client.NewPremiumIndexService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching mark price for %s: %w", symbol, err)
	}
	if len(res) == 0 {
		return 0, fmt.Errorf("no mark price returned for %s", symbol)
	}

	price, err := strconv.ParseFloat(res[0].MarkPrice, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing mark price %q for %s: %w", res[0].MarkPrice, symbol, err)
	}
	return price, nil
}

// OrderParams is one pre-formatted limit order of a ladder batch.
type OrderParams struct {
	Symbol   string
	Side     futures.SideType
	Price    string
	Quantity string
}

// PlaceBatchOrders submits the ladder as a single batch of GTC limit
// orders. No retry: a failed batch is reported as-is.
func (c *BinanceClient) PlaceBatchOrders(ctx context.Context, params []OrderParams) ([]*futures.Order, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	orders := make([]*futures.CreateOrderService, 0, len(params))
	for _, p := range params {
		orders = append(orders, c.client.NewCreateOrderService().
			Symbol(p.Symbol).
			Side(p.Side).
			Type(futures.OrderTypeLimit).
			TimeInForce(futures.TimeInForceTypeGTC).
			Price(p.Price).
			Quantity(p.Quantity))
	}

	res, err := c.client.NewCreateBatchOrdersService().OrderList(orders).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("placing batch of %d orders: %w", len(params), err)
	}
	return res.Orders, nil
}

// GetKlines fetches one window of candles with retries and exponential
// backoff, respecting the shared rate limiter.
func (c *BinanceClient) GetKlines(ctx context.Context, symbol, interval string, startTime, endTime int64) ([]*futures.Kline, error) {
	var klines []*futures.Kline
	maxRetries := 3
	backoff := 100 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := c.rateLimiter.Wait(ctx)
		if err != nil {
			return nil, err
		}

		klines, err = c.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(startTime).
			EndTime(endTime).
			Limit(500).
			Do(ctx)

		if err == nil {
			return klines, nil
		}

		if attempt == maxRetries {
			return nil, err
		}

		waitTime := time.Duration(math.Pow(2, float64(attempt))) * backoff

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(waitTime):
			continue
		}
	}

	return klines, nil
}
