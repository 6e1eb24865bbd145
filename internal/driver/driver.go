// Package driver runs products and shops against each other from
// separate goroutines.
package driver

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"MiniShop/internal/catalog"
	"MiniShop/pkg/kit"
)

var (
	ErrMismatch       = errors.New("catalog does not match producer books")
	ErrUnknownShop    = errors.New("unknown shop")
	ErrUnknownProduct = errors.New("unknown product")
	ErrDuplicateName  = errors.New("product name already in use")
)

type Deps struct {
	Log     *zap.Logger
	Metrics *kit.Metrics
}

func (d Deps) log() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

func (d Deps) factory() catalog.Factory {
	return catalog.Factory{Log: d.Log, Metrics: d.Metrics}
}

// shops returns catalogs numbered 1..n.
func (d Deps) shops(n int) []*catalog.Catalog {
	out := make([]*catalog.Catalog, n)
	for i := range out {
		c := catalog.NewCatalog(i + 1)
		c.Log = d.Log
		c.Metrics = d.Metrics
		out[i] = c
	}
	return out
}

func sleepUntil(ctx context.Context, t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
