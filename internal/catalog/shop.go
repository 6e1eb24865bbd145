package catalog

import (
	"slices"
	"sync"

	"go.uber.org/zap"

	"MiniShop/pkg/kit"
)

const (
	// NoSale is what Sell returns when nothing can be sold for a kind.
	NoSale = -1.0

	service = "catalog"
)

// Shop is anything with a catalog products can attach to.
type Shop interface {
	AddProduct(p Product)
	DelProduct(p Product)
	SellAll() []Sale
}

type Sale struct {
	ShopID    int     `json:"shop_id"`
	Kind      Kind    `json:"kind"`
	ProductID string  `json:"product_id"`
	Price     float64 `json:"price"`
}

// Catalog maps each kind to at most one product. It never owns the
// products it lists: entries are Weak and are pinned for every read.
// Entries of torn-down products stay in place until overwritten or
// deleted.
type Catalog struct {
	ID      int
	Log     *zap.Logger
	Metrics *kit.Metrics

	mu      sync.Mutex
	entries map[Kind]Weak
}

var _ Shop = (*Catalog)(nil)

func NewCatalog(id int) *Catalog {
	return &Catalog{ID: id, entries: map[Kind]Weak{}}
}

// AddProduct stores p under its kind, replacing whatever was there.
func (c *Catalog) AddProduct(p Product) {
	if c == nil || p == nil {
		return
	}
	w := p.Weak()
	if !w.Alive() {
		return
	}

	done := c.Metrics.Track(service, "add")

	c.mu.Lock()
	if c.entries == nil {
		c.entries = map[Kind]Weak{}
	}
	c.entries[p.Kind()] = w
	c.mu.Unlock()

	done(kit.ResultOK)
}

// DelProduct removes the entry for p's kind, whichever product it holds.
func (c *Catalog) DelProduct(p Product) {
	if c == nil || p == nil {
		return
	}

	done := c.Metrics.Track(service, "del")

	c.mu.Lock()
	_, ok := c.entries[p.Kind()]
	delete(c.entries, p.Kind())
	c.mu.Unlock()

	done(result(ok))
}

// SellAll sells every live, on-sale product in kind order.
func (c *Catalog) SellAll() []Sale {
	if c == nil {
		return nil
	}

	done := c.Metrics.Track(service, "sell_all")

	c.mu.Lock()
	sales := make([]Sale, 0, len(c.entries))
	for _, kind := range sortedKinds(c.entries) {
		s, ok := c.sellLocked(kind)
		if !ok {
			continue
		}
		sales = append(sales, s)

		if c.Log != nil {
			c.Log.Info("sell",
				zap.Int("shop", s.ShopID),
				zap.String("kind", string(s.Kind)),
				zap.String("product_id", s.ProductID),
				zap.Float64("price", s.Price),
			)
		}
	}
	c.mu.Unlock()

	done(result(len(sales) > 0))
	return sales
}

// Sell returns the current price of kind, or NoSale.
func (c *Catalog) Sell(kind Kind) float64 {
	if price, ok := c.Lookup(kind); ok {
		return price
	}
	return NoSale
}

func (c *Catalog) Lookup(kind Kind) (float64, bool) {
	if c == nil {
		return 0, false
	}

	done := c.Metrics.Track(service, "sell")

	c.mu.Lock()
	s, ok := c.sellLocked(kind)
	c.mu.Unlock()

	done(result(ok))
	if !ok {
		return 0, false
	}
	return s.Price, true
}

// sellLocked pins the entry for kind for the duration of the read. A
// product that died before the pin is skipped; one that dies after it
// is torn down when the pin is released.
func (c *Catalog) sellLocked(kind Kind) (Sale, bool) {
	w, ok := c.entries[kind]
	if !ok {
		return Sale{}, false
	}

	h, ok := w.Pin()
	if !ok {
		return Sale{}, false
	}
	defer h.Release()

	if !h.OnSale() {
		return Sale{}, false
	}
	return Sale{
		ShopID:    c.ID,
		Kind:      kind,
		ProductID: h.ID(),
		Price:     h.Price(),
	}, true
}

// Holds reports whether the entry for p's kind refers to p itself.
func (c *Catalog) Holds(p Product) bool {
	if c == nil || p == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.entries[p.Kind()]
	return ok && w.Same(p)
}

// Len counts entries, dead ones included.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// LiveLen counts entries whose product is still alive.
func (c *Catalog) LiveLen() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, w := range c.entries {
		if w.Alive() {
			n++
		}
	}
	return n
}

func (c *Catalog) Kinds() []Kind {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return sortedKinds(c.entries)
}

func sortedKinds(m map[Kind]Weak) []Kind {
	out := make([]Kind, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func result(ok bool) string {
	if ok {
		return kit.ResultOK
	}
	return kit.ResultMiss
}
