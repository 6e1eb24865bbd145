package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"MiniShop/internal/catalog"
	"MiniShop/internal/config"
	"MiniShop/internal/driver"
	"MiniShop/pkg/kit"
)

const service = "shops"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(getenv("SHOPS_CONFIG", "config.yaml"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := kit.NewLogger(service, cfg.Log.Level)
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	deps := driver.Deps{Log: logger, Metrics: kit.NewMetrics(reg)}

	if err := run(ctx, cfg, deps); err != nil {
		logger.Error("run failed", zap.String("mode", cfg.Mode), zap.Error(err))
		os.Exit(1)
	}

	if cfg.Metrics.Dump {
		if err := kit.LogSnapshot(logger, reg); err != nil {
			logger.Warn("metrics snapshot failed", zap.Error(err))
		}
	}
}

func run(ctx context.Context, cfg *config.Config, deps driver.Deps) error {
	switch cfg.Mode {
	case config.ModeScenario:
		report, err := driver.RunScenario(ctx, deps, cfg.Scenario)
		if err != nil {
			return err
		}
		for _, r := range report.Rounds {
			deps.Log.Info("round", zap.Int("round", r.Index), zap.Any("sales", r.Sales))
		}
		return nil

	case config.ModeStress:
		report, err := driver.RunStress(ctx, deps, cfg.Stress)
		if err != nil {
			return err
		}
		for _, s := range report.Shops {
			deps.Log.Info("shop",
				zap.Int("shop", s.ID),
				zap.Int("expected", s.Expected),
				zap.Int("live", s.Live),
				zap.Int("after_release", s.AfterRelease),
			)
		}
		return report.Verify()

	case config.ModePipeline:
		report, err := driver.RunPipeline(ctx, deps, demoShops, demoEvents())
		if err != nil {
			return err
		}
		for _, s := range report.Sells {
			deps.Log.Info("sell", zap.Int("shop", s.Shop), zap.String("kind", string(s.Kind)), zap.Float64("price", s.Price))
		}
		return nil
	}

	return fmt.Errorf("unknown mode %q", cfg.Mode)
}

const demoShops = 1

// demoEvents is the single-shop walk-through: A(10) sells at 10, then at
// 16, then not at all once released.
func demoEvents() []driver.Event {
	return []driver.Event{
		{Op: driver.OpCreate, Product: "a", Kind: catalog.KindA, Price: 10},
		{Op: driver.OpAttach, Product: "a", Shop: 1},
		{Op: driver.OpStart, Product: "a"},
		{Op: driver.OpSell, Shop: 1, Kind: catalog.KindA},
		{Op: driver.OpPrice, Product: "a", Price: 16},
		{Op: driver.OpSell, Shop: 1, Kind: catalog.KindA},
		{Op: driver.OpRelease, Product: "a"},
		{Op: driver.OpSell, Shop: 1, Kind: catalog.KindA},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
