package catalog

import (
	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"MiniShop/pkg/kit"
)

type Kind string

const (
	KindA Kind = "A"
	KindB Kind = "B"
	KindC Kind = "C"
)

// Product is the capability set every kind of product shares. Price and
// sale flag are independently atomic; nothing links them.
//
// The interface is sealed: Weak wraps this package's reference count, so
// only products built by New and its per-kind variants implement it.
type Product interface {
	ID() string
	Kind() Kind

	ChangePrice(value float64)
	Price() float64

	StartSales()
	StopSales()
	OnSale() bool

	Attach(shop Shop)
	Detach(shop Shop)

	// Weak returns the non-owning reference catalogs store.
	Weak() Weak
}

type item struct {
	id   string
	kind Kind

	price   atomic.Float64
	forSale atomic.Bool

	lease lease

	log     *zap.Logger
	metrics *kit.Metrics
}

// Factory creates products. The zero value works; Log and Metrics are
// optional.
type Factory struct {
	Log     *zap.Logger
	Metrics *kit.Metrics
}

var defaultFactory Factory

func New(kind Kind, price float64) *Handle { return defaultFactory.New(kind, price) }
func NewA(price float64) *Handle           { return defaultFactory.NewA(price) }
func NewB(price float64) *Handle           { return defaultFactory.NewB(price) }
func NewC(price float64) *Handle           { return defaultFactory.NewC(price) }

func (f Factory) NewA(price float64) *Handle { return f.New(KindA, price) }
func (f Factory) NewB(price float64) *Handle { return f.New(KindB, price) }
func (f Factory) NewC(price float64) *Handle { return f.New(KindC, price) }

// New returns the first owning handle of a fresh product. The product
// starts off sale.
func (f Factory) New(kind Kind, price float64) *Handle {
	p := &item{
		id:      "p_" + uuid.NewString(),
		kind:    kind,
		log:     f.Log,
		metrics: f.Metrics,
	}
	p.price.Store(price)
	p.lease.refs.Store(1)

	f.Metrics.ProductCreated()
	if f.Log != nil {
		f.Log.Debug("product created",
			zap.String("product_id", p.id),
			zap.String("kind", string(kind)),
			zap.Float64("price", price),
		)
	}

	return &Handle{item: p}
}

func (p *item) ID() string { return p.id }
func (p *item) Kind() Kind { return p.kind }

func (p *item) ChangePrice(value float64) { p.price.Store(value) }
func (p *item) Price() float64            { return p.price.Load() }

func (p *item) StartSales()  { p.forSale.Store(true) }
func (p *item) StopSales()   { p.forSale.Store(false) }
func (p *item) OnSale() bool { return p.forSale.Load() }

func (p *item) Attach(shop Shop) {
	if shop == nil {
		return
	}
	shop.AddProduct(p)
}

func (p *item) Detach(shop Shop) {
	if shop == nil {
		return
	}
	shop.DelProduct(p)
}

func (p *item) Weak() Weak { return Weak{p: p} }

// teardown runs exactly once, on the goroutine that released the last
// reference.
func (p *item) teardown() {
	p.StopSales()
	p.metrics.ProductDropped()

	if p.log != nil {
		p.log.Debug("product destroyed",
			zap.String("product_id", p.id),
			zap.String("kind", string(p.kind)),
		)
	}
}
