package driver

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"MiniShop/internal/catalog"
	"MiniShop/internal/config"
)

type ShopResult struct {
	ID       int
	Expected int
	Live     int
	// AfterRelease is LiveLen once every kept product was released.
	AfterRelease int
}

type StressReport struct {
	Shops []ShopResult

	Created  uint64
	Released uint64
	Sweeps   uint64
	Sales    uint64
	BadSales uint64
}

// Verify checks the catalogs against the producers' books.
func (r StressReport) Verify() error {
	var errs []error
	for _, s := range r.Shops {
		if s.Live != s.Expected {
			errs = append(errs, fmt.Errorf("%w: shop %d live=%d expected=%d", ErrMismatch, s.ID, s.Live, s.Expected))
		}
		if s.AfterRelease != 0 {
			errs = append(errs, fmt.Errorf("%w: shop %d still has %d live entries after release", ErrMismatch, s.ID, s.AfterRelease))
		}
	}
	if r.BadSales > 0 {
		errs = append(errs, fmt.Errorf("%w: %d sales with a negative price", ErrMismatch, r.BadSales))
	}
	return errors.Join(errs...)
}

// producer owns the kinds "w<id>-k<n>", so no other producer can
// overwrite its entries and its books stay exact. It holds at most one
// product per kind.
type producer struct {
	id    int
	rng   *rand.Rand
	f     catalog.Factory
	shops []*catalog.Catalog
	kinds []catalog.Kind

	owned    map[catalog.Kind]*catalog.Handle
	attached []map[catalog.Kind]struct{}

	created  uint64
	released uint64
}

func newProducer(id int, seed int64, f catalog.Factory, shops []*catalog.Catalog, kinds int) *producer {
	p := &producer{
		id:       id,
		rng:      rand.New(rand.NewSource(seed + int64(id))),
		f:        f,
		shops:    shops,
		owned:    map[catalog.Kind]*catalog.Handle{},
		attached: make([]map[catalog.Kind]struct{}, len(shops)),
	}
	for i := range kinds {
		p.kinds = append(p.kinds, catalog.Kind(fmt.Sprintf("w%d-k%d", id, i)))
	}
	for i := range p.attached {
		p.attached[i] = map[catalog.Kind]struct{}{}
	}
	return p
}

func (p *producer) step() {
	kind := p.kinds[p.rng.Intn(len(p.kinds))]

	h, ok := p.owned[kind]
	if !ok {
		h = p.f.New(kind, 1+float64(p.rng.Intn(10000))/100)
		p.created++
		if p.rng.Intn(2) == 0 {
			h.StartSales()
		}
		for i, s := range p.shops {
			if p.rng.Intn(2) == 0 {
				h.Attach(s)
				p.attached[i][kind] = struct{}{}
			}
		}
		p.owned[kind] = h
		return
	}

	switch p.rng.Intn(5) {
	case 0:
		h.ChangePrice(1 + float64(p.rng.Intn(10000))/100)
	case 1:
		if h.OnSale() {
			h.StopSales()
		} else {
			h.StartSales()
		}
	case 2:
		i := p.rng.Intn(len(p.shops))
		h.Detach(p.shops[i])
		delete(p.attached[i], kind)
	case 3:
		i := p.rng.Intn(len(p.shops))
		h.Attach(p.shops[i])
		p.attached[i][kind] = struct{}{}
	default:
		p.drop(kind, h)
	}
}

// drop releases the product without detaching it. Its entries stay in
// the catalogs but must no longer count as live.
func (p *producer) drop(kind catalog.Kind, h *catalog.Handle) {
	h.Release()
	p.released++
	delete(p.owned, kind)
	for i := range p.attached {
		delete(p.attached[i], kind)
	}
}

func (p *producer) releaseAll() {
	for kind, h := range p.owned {
		p.drop(kind, h)
	}
}

// RunStress runs producers against consumers for cfg.Duration. It
// returns once all goroutines have stopped and every product has been
// released.
func RunStress(ctx context.Context, deps Deps, cfg config.Stress) (StressReport, error) {
	log := deps.log()
	shops := deps.shops(cfg.Shops)
	f := deps.factory()

	runCtx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	producers := make([]*producer, cfg.Producers)
	for i := range producers {
		producers[i] = newProducer(i, cfg.Seed, f, shops, cfg.Kinds)
	}

	var sweeps, sales, bad atomic.Uint64

	g, gctx := errgroup.WithContext(runCtx)
	for _, p := range producers {
		g.Go(func() error {
			for gctx.Err() == nil {
				p.step()
			}
			return nil
		})
	}
	for range cfg.Consumers {
		g.Go(func() error {
			for gctx.Err() == nil {
				for _, s := range shops {
					for _, sale := range s.SellAll() {
						sales.Inc()
						if sale.Price < 0 {
							bad.Inc()
						}
					}
				}
				sweeps.Inc()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return StressReport{}, err
	}

	report := StressReport{
		Shops:    make([]ShopResult, len(shops)),
		Sweeps:   sweeps.Load(),
		Sales:    sales.Load(),
		BadSales: bad.Load(),
	}
	for i, s := range shops {
		expected := 0
		for _, p := range producers {
			expected += len(p.attached[i])
		}
		report.Shops[i] = ShopResult{ID: s.ID, Expected: expected, Live: s.LiveLen()}
	}

	for _, p := range producers {
		p.releaseAll()
		report.Created += p.created
		report.Released += p.released
	}
	for i, s := range shops {
		report.Shops[i].AfterRelease = s.LiveLen()
	}

	log.Info("stress done",
		zap.Uint64("created", report.Created),
		zap.Uint64("released", report.Released),
		zap.Uint64("sweeps", report.Sweeps),
		zap.Uint64("sales", report.Sales),
	)

	if ctx.Err() != nil {
		return report, ctx.Err()
	}
	return report, nil
}
