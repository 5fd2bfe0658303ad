package position

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/adshao/go-binance/v2/futures"

	"github.com/memorileak/liquicalc/internal/models"
	"github.com/memorileak/liquicalc/internal/operations/binance"
	"github.com/memorileak/liquicalc/internal/services/ladder"
)

// Executor turns one side of a ladder pair into exchange-acceptable batch
// order parameters and submits them. Confirmation with the operator happens
// before Execute is called; this layer never prompts.
type Executor struct {
	client    *binance.BinanceClient
	precision models.SymbolPrecision
}

func NewExecutor(client *binance.BinanceClient, precision models.SymbolPrecision) *Executor {
	return &Executor{
		client:    client,
		precision: precision,
	}
}

// PlanOrders formats each rung as a GTC limit order, rounding price down to
// the tick size and quantity down to the symbol's quantity precision.
func (e *Executor) PlanOrders(side string, rungs []ladder.Rung) ([]binance.OrderParams, error) {
	orderSide := futures.SideTypeBuy
	if side == models.PositionSideShort {
		orderSide = futures.SideTypeSell
	}

	params := make([]binance.OrderParams, 0, len(rungs))
	for _, r := range rungs {
		price := e.formatPrice(r.Price)
		quantity := e.formatQuantity(r.QuantityAdded)
		if quantity == "0" {
			return nil, fmt.Errorf("rung at price %s rounds to zero quantity for %s",
				price, e.precision.Symbol)
		}
		params = append(params, binance.OrderParams{
			Symbol:   e.precision.Symbol,
			Side:     orderSide,
			Price:    price,
			Quantity: quantity,
		})
	}
	return params, nil
}

// Execute submits the planned batch.
func (e *Executor) Execute(ctx context.Context, params []binance.OrderParams) ([]*futures.Order, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("no orders to place for %s", e.precision.Symbol)
	}
	return e.client.PlaceBatchOrders(ctx, params)
}

func (e *Executor) formatPrice(price float64) string {
	if e.precision.TickSize > 0 {
		price = math.Floor(price/e.precision.TickSize) * e.precision.TickSize
	}
	return strconv.FormatFloat(price, 'f', e.precision.PricePrecision, 64)
}

func (e *Executor) formatQuantity(quantity float64) string {
	step := math.Pow(10, float64(e.precision.QuantityPrecision))
	quantity = math.Floor(quantity*step) / step
	s := strconv.FormatFloat(quantity, 'f', e.precision.QuantityPrecision, 64)
	if parsed, err := strconv.ParseFloat(s, 64); err == nil && parsed == 0 {
		return "0"
	}
	return s
}
