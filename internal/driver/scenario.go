package driver

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"MiniShop/internal/catalog"
	"MiniShop/internal/config"
)

const scenarioShops = 3

type Round struct {
	Index int
	Sales []catalog.Sale
}

type Report struct {
	Rounds []Round
}

// RunScenario replays the demo timeline on three shops. The product
// goroutine moves at whole steps:
//
//	0: A(15) on sale, attached to shops 1 and 2
//	1: B(13) on sale, attached to shops 3 and 1
//	2: A leaves shop 2, B leaves shop 3, B costs 12.99, A costs 16
//	3: C(45), never on sale, attached to shop 1; then every product is released
//
// The seller sweeps all shops at half steps, once per round.
func RunScenario(ctx context.Context, deps Deps, cfg config.Scenario) (Report, error) {
	log := deps.log()
	shops := deps.shops(scenarioShops)
	f := deps.factory()
	step := cfg.Step
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a := f.NewA(15)
		defer a.Release()
		a.StartSales()
		a.Attach(shops[0])
		a.Attach(shops[1])

		if err := sleepUntil(gctx, start.Add(step)); err != nil {
			return err
		}
		b := f.NewB(13)
		defer b.Release()
		b.StartSales()
		b.Attach(shops[2])
		b.Attach(shops[0])

		if err := sleepUntil(gctx, start.Add(2*step)); err != nil {
			return err
		}
		a.Detach(shops[1])
		b.Detach(shops[2])
		b.ChangePrice(12.99)
		a.ChangePrice(16)

		if err := sleepUntil(gctx, start.Add(3*step)); err != nil {
			return err
		}
		c := f.NewC(45)
		defer c.Release()
		c.Attach(shops[0])

		log.Debug("scenario products done")
		return nil
	})

	rounds := make([]Round, 0, cfg.Rounds)
	g.Go(func() error {
		for i := range cfg.Rounds {
			at := start.Add(step/2 + time.Duration(i)*step)
			if err := sleepUntil(gctx, at); err != nil {
				return err
			}

			r := Round{Index: i}
			for _, s := range shops {
				r.Sales = append(r.Sales, s.SellAll()...)
			}
			rounds = append(rounds, r)

			log.Info("round done", zap.Int("round", i), zap.Int("sales", len(r.Sales)))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return Report{Rounds: rounds}, err
	}
	return Report{Rounds: rounds}, nil
}
