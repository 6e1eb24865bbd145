package driver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"MiniShop/internal/catalog"
	"MiniShop/internal/handoff"
)

type Op string

const (
	OpCreate  Op = "create"
	OpAttach  Op = "attach"
	OpDetach  Op = "detach"
	OpPrice   Op = "price"
	OpStart   Op = "start"
	OpStop    Op = "stop"
	OpRelease Op = "release"
	OpSell    Op = "sell"
)

// Event is one step of a pipeline. Product names a handle created by an
// earlier OpCreate; Shop is a 1-based shop number.
type Event struct {
	Op      Op
	Product string
	Kind    catalog.Kind
	Shop    int
	Price   float64
}

type SellResult struct {
	Shop  int
	Kind  catalog.Kind
	Price float64
}

type PipelineReport struct {
	Applied int
	Sells   []SellResult
}

// RunPipeline streams events from a producer goroutine to a consumer
// goroutine through a handoff queue; the consumer applies them in order.
func RunPipeline(ctx context.Context, deps Deps, shopCount int, events []Event) (PipelineReport, error) {
	log := deps.log()
	a := &applier{
		f:        deps.factory(),
		shops:    deps.shops(shopCount),
		products: map[string]*catalog.Handle{},
	}
	defer a.releaseAll()

	q := handoff.New[Event]()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer q.Close()
		for _, ev := range events {
			if err := q.Put(ev); err != nil {
				// The consumer gave up; its error is the one to report.
				return nil
			}
		}
		return nil
	})

	done := make(chan struct{})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			q.Close()
		case <-done:
		}
		return nil
	})

	var report PipelineReport
	g.Go(func() error {
		// A producer blocked in Put must see the queue closed as soon
		// as the consumer stops.
		defer func() {
			q.Close()
			close(done)
		}()
		for {
			ev, err := q.Take()
			if errors.Is(err, handoff.ErrClosed) {
				return gctx.Err()
			}
			if err := a.apply(ev, &report); err != nil {
				log.Warn("pipeline event failed", zap.String("op", string(ev.Op)), zap.Error(err))
				return err
			}
			report.Applied++
		}
	})

	err := g.Wait()
	return report, err
}

type applier struct {
	f        catalog.Factory
	shops    []*catalog.Catalog
	products map[string]*catalog.Handle
}

func (a *applier) apply(ev Event, report *PipelineReport) error {
	if ev.Op == OpCreate {
		if _, ok := a.products[ev.Product]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateName, ev.Product)
		}
		a.products[ev.Product] = a.f.New(ev.Kind, ev.Price)
		return nil
	}

	if ev.Op == OpSell {
		s, err := a.shop(ev.Shop)
		if err != nil {
			return err
		}
		report.Sells = append(report.Sells, SellResult{Shop: ev.Shop, Kind: ev.Kind, Price: s.Sell(ev.Kind)})
		return nil
	}

	h, ok := a.products[ev.Product]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProduct, ev.Product)
	}

	switch ev.Op {
	case OpAttach, OpDetach:
		s, err := a.shop(ev.Shop)
		if err != nil {
			return err
		}
		if ev.Op == OpAttach {
			h.Attach(s)
		} else {
			h.Detach(s)
		}
	case OpPrice:
		h.ChangePrice(ev.Price)
	case OpStart:
		h.StartSales()
	case OpStop:
		h.StopSales()
	case OpRelease:
		h.Release()
		delete(a.products, ev.Product)
	default:
		return fmt.Errorf("unknown op %q", ev.Op)
	}
	return nil
}

func (a *applier) shop(n int) (*catalog.Catalog, error) {
	if n < 1 || n > len(a.shops) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownShop, n)
	}
	return a.shops[n-1], nil
}

func (a *applier) releaseAll() {
	for name, h := range a.products {
		h.Release()
		delete(a.products, name)
	}
}
