package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/memorileak/liquicalc/config"
	"github.com/memorileak/liquicalc/internal/handlers"
	"github.com/memorileak/liquicalc/internal/models"
	"github.com/memorileak/liquicalc/internal/operations/backtest"
	"github.com/memorileak/liquicalc/internal/operations/binance"
	"github.com/memorileak/liquicalc/internal/operations/position"
	"github.com/memorileak/liquicalc/internal/repositories"
	"github.com/memorileak/liquicalc/internal/services/bracket"
	"github.com/memorileak/liquicalc/internal/services/ladder"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	mode := "ladder"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	client := binance.NewBinanceClient(cfg.Exchange.APIKey, cfg.Exchange.SecretKey)
	ctx := context.Background()

	switch mode {
	case "brackets":
		runBrackets(ctx, cfg, client)
	case "fetch":
		runFetch(ctx, cfg, client)
	case "ladder":
		runLadder(ctx, cfg, client)
	case "backtest":
		runBacktest(cfg)
	case "runs":
		runList(cfg)
	case "order":
		runOrder(ctx, cfg, client)
	default:
		log.Fatalf("unknown command %q (want brackets, fetch, ladder, backtest, runs or order)", mode)
	}
}

// runBrackets downloads each symbol's risk bracket table and stores the set
// as one JSON file for later runs.
func runBrackets(ctx context.Context, cfg *config.Config, client *binance.BinanceClient) {
	tables := make(map[string][]models.RiskBracket, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		brackets, err := client.GetLeverageBrackets(ctx, symbol)
		if err != nil {
			log.Fatal("Failed to fetch brackets:", err)
		}
		tables[symbol] = brackets
		log.Printf("Fetched %d brackets for %s", len(brackets), symbol)
	}

	bracketRepo := repositories.NewBracketRepository(cfg.BracketFile)
	if err := bracketRepo.Save(tables); err != nil {
		log.Fatal("Failed to save brackets:", err)
	}
	log.Printf("Saved bracket tables to %s", cfg.BracketFile)
}

// runFetch downloads candle history for all configured symbols into postgres.
func runFetch(ctx context.Context, cfg *config.Config, client *binance.BinanceClient) {
	db := setupDatabase(cfg.Database)
	priceRepo := repositories.NewPriceRepository(db)

	priceHandler := handlers.NewPriceHandler(client, priceRepo, cfg.Symbols)
	if err := priceHandler.SyncHistory(ctx, cfg.Backtest.TimeFrame, cfg.Backtest.Days); err != nil {
		log.Fatal("Failed to sync candle history:", err)
	}
}

// runLadder computes and prints the dual-side ladder anchored at the
// current mark price.
func runLadder(ctx context.Context, cfg *config.Config, client *binance.BinanceClient) {
	symbol := pickSymbol(cfg)

	builder, err := newBuilder(cfg, symbol)
	if err != nil {
		log.Fatal("Failed to build ladder calculator:", err)
	}

	markPrice, err := client.GetMarkPrice(ctx, symbol)
	if err != nil {
		log.Fatal("Failed to fetch mark price:", err)
	}

	pair, err := builder.Build(markPrice)
	if err != nil {
		log.Fatal("Failed to build ladder:", err)
	}

	fmt.Printf("\n%s ladder @ %.4f (leverage %dx)\n", symbol, markPrice, cfg.Ladder.Leverage)
	printSide("LONG", pair.Long)
	printSide("SHORT", pair.Short)
}

// runBacktest replays stored candles through the state machine and persists
// the run summary.
func runBacktest(cfg *config.Config) {
	symbol := pickSymbol(cfg)

	db := setupDatabase(cfg.Database)
	priceRepo := repositories.NewPriceRepository(db)
	runRepo := repositories.NewRunRepository(db)

	builder, err := newBuilder(cfg, symbol)
	if err != nil {
		log.Fatal("Failed to build ladder calculator:", err)
	}

	end := time.Now()
	start := end.AddDate(0, 0, -cfg.Backtest.Days)
	candles, err := priceRepo.GetPricesByTimeFrame(symbol, cfg.Backtest.TimeFrame, start, end)
	if err != nil {
		log.Fatal("Failed to load candles:", err)
	}
	log.Printf("Loaded %d %s candles for %s", len(candles), cfg.Backtest.TimeFrame, symbol)

	engine := backtest.NewEngine(symbol, cfg.Backtest.TimeFrame, builder)
	results, err := engine.Run(candles)
	if err != nil {
		log.Fatal("Backtest failed:", err)
	}

	if err := runRepo.Create(results.ToModel()); err != nil {
		log.Fatal("Failed to store run:", err)
	}

	fmt.Println("\n=== Backtest Results ===")
	fmt.Printf("Run ID: %s\n", results.RunID)
	fmt.Printf("Candles: %d (%s .. %s)\n", results.CandleCount,
		results.StartTime.Format("2006-01-02 15:04:05"),
		results.EndTime.Format("2006-01-02 15:04:05"))
	fmt.Printf("Events: %d\n", len(results.Events))
	fmt.Printf("Take Profits: %d\n", results.Wins)
	fmt.Printf("Stop Losses: %d\n", results.Losses)
	fmt.Printf("Final State: %s\n", results.FinalState)
}

// runList prints stored backtest runs for a symbol, newest first. Passing a
// run ID instead of a symbol shows just that run.
func runList(cfg *config.Config) {
	db := setupDatabase(cfg.Database)
	runRepo := repositories.NewRunRepository(db)

	if len(os.Args) > 2 {
		if id, err := uuid.Parse(os.Args[2]); err == nil {
			run, err := runRepo.FindByID(id.String())
			if err != nil {
				log.Fatal("Failed to load run:", err)
			}
			if run == nil {
				log.Fatalf("No run with id %s", id)
			}
			printRuns([]models.BacktestRun{*run})
			return
		}
	}

	symbol := pickSymbol(cfg)
	runs, err := runRepo.FindBySymbol(symbol)
	if err != nil {
		log.Fatal("Failed to load runs:", err)
	}
	if len(runs) == 0 {
		log.Printf("No stored runs for %s", symbol)
		return
	}
	printRuns(runs)
}

func printRuns(runs []models.BacktestRun) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYMBOL\tTIMEFRAME\tCANDLES\tEVENTS\tTP\tSL\tCREATED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.ID, r.Symbol, r.TimeFrame, r.CandleCount, r.EventCount, r.Wins, r.Losses,
			r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	w.Flush()
}

// runOrder builds a ladder from the mark price, prints the planned orders
// for one side and places them after explicit confirmation.
func runOrder(ctx context.Context, cfg *config.Config, client *binance.BinanceClient) {
	symbol := cfg.Symbols[0]
	side := models.PositionSideLong
	for _, arg := range os.Args[2:] {
		switch {
		case strings.EqualFold(arg, models.PositionSideShort):
			side = models.PositionSideShort
		case strings.EqualFold(arg, models.PositionSideLong):
			side = models.PositionSideLong
		default:
			symbol = strings.ToUpper(arg)
		}
	}

	builder, err := newBuilder(cfg, symbol)
	if err != nil {
		log.Fatal("Failed to build ladder calculator:", err)
	}

	markPrice, err := client.GetMarkPrice(ctx, symbol)
	if err != nil {
		log.Fatal("Failed to fetch mark price:", err)
	}

	pair, err := builder.Build(markPrice)
	if err != nil {
		log.Fatal("Failed to build ladder:", err)
	}

	rungs := pair.Long.Rungs
	if side == models.PositionSideShort {
		rungs = pair.Short.Rungs
	}

	precision, err := client.GetSymbolPrecision(ctx, symbol)
	if err != nil {
		log.Fatal("Failed to fetch symbol precision:", err)
	}

	executor := position.NewExecutor(client, precision)
	params, err := executor.PlanOrders(side, rungs)
	if err != nil {
		log.Fatal("Failed to plan orders:", err)
	}

	fmt.Printf("\nPlanned %s orders for %s:\n", side, symbol)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSIDE\tPRICE\tQUANTITY")
	for i, p := range params {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, p.Side, p.Price, p.Quantity)
	}
	w.Flush()

	if !confirm(fmt.Sprintf("Place %d live orders on %s?", len(params), symbol)) {
		log.Println("Aborted, no orders placed")
		return
	}

	orders, err := executor.Execute(ctx, params)
	if err != nil {
		log.Fatal("Failed to place orders:", err)
	}
	log.Printf("Placed %d orders", len(orders))
}

func newBuilder(cfg *config.Config, symbol string) (*ladder.Builder, error) {
	bracketRepo := repositories.NewBracketRepository(cfg.BracketFile)
	brackets, err := bracketRepo.LoadSymbol(symbol)
	if err != nil {
		return nil, err
	}

	resolver := bracket.NewResolver(map[string][]models.RiskBracket{symbol: brackets})
	sim := ladder.NewSimulator(resolver)

	return ladder.NewBuilder(sim, ladder.BuildParams{
		Symbol:              symbol,
		Leverage:            cfg.Ladder.Leverage,
		DeviationPercent:    cfg.Ladder.DeviationPercent,
		DeviationMultiplier: cfg.Ladder.DeviationMultiplier,
		SizeMultiplier:      cfg.Ladder.SizeMultiplier,
		InitialMargin:       cfg.Ladder.InitialMargin,
		MaxOrdersPerSide:    cfg.Ladder.MaxOrdersPerSide,
		TakeProfitPercent:   cfg.Ladder.TakeProfitPercent,
		StopLossPercent:     cfg.Ladder.StopLossPercent,
	})
}

func pickSymbol(cfg *config.Config) string {
	if len(os.Args) > 2 {
		return strings.ToUpper(os.Args[2])
	}
	return cfg.Symbols[0]
}

func printSide(label string, side ladder.Side) {
	fmt.Printf("\n%s (stop loss %.4f)\n", label, side.StopLoss)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tPRICE\tMARGIN\tAVG ENTRY\tLIQUIDATION\tTAKE PROFIT")
	for i, r := range side.Rungs {
		fmt.Fprintf(w, "%d\t%.4f\t%.2f\t%.4f\t%.4f\t%.4f\n",
			i+1, r.Price, r.MarginAdded, r.AvgEntryPrice, r.LiquidationPrice, side.TakeProfits[i])
	}
	w.Flush()
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func setupDatabase(dbConfig config.DatabaseConfig) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := db.AutoMigrate(&models.Price{}, &models.BacktestRun{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	return db
}
