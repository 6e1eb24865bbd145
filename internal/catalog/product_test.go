package catalog

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MiniShop/pkg/kit"
)

func TestProduct_Kinds(t *testing.T) {
	assert.Equal(t, KindA, NewA(1).Kind())
	assert.Equal(t, KindB, NewB(1).Kind())
	assert.Equal(t, KindC, NewC(1).Kind())
	assert.Equal(t, Kind("Z"), New("Z", 1).Kind())

	a, b := NewA(1), NewA(1)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Regexp(t, `^p_[0-9a-f-]{36}$`, a.ID())
}

func TestProduct_PriceAndSales(t *testing.T) {
	p := NewA(10)
	defer p.Release()

	assert.Equal(t, 10.0, p.Price())
	assert.False(t, p.OnSale(), "new product starts off sale")

	p.ChangePrice(12.5)
	assert.Equal(t, 12.5, p.Price())

	p.StartSales()
	p.StartSales()
	assert.True(t, p.OnSale())

	p.StopSales()
	p.StopSales()
	assert.False(t, p.OnSale())
}

func TestProduct_PriceVisibleAcrossGoroutines(t *testing.T) {
	p := NewB(1)
	defer p.Release()

	for i := range 100 {
		want := float64(i) + 0.5

		done := make(chan struct{})
		go func() {
			p.ChangePrice(want)
			close(done)
		}()
		<-done

		got := make(chan float64)
		go func() { got <- p.Price() }()
		require.Equal(t, want, <-got)
	}
}

func TestHandle_ReleaseTearsDown(t *testing.T) {
	p := NewA(10)
	p.StartSales()
	w := p.Weak()
	require.True(t, w.Alive())

	p.Release()

	assert.True(t, p.Released())
	assert.False(t, w.Alive())
	assert.False(t, p.OnSale(), "teardown stops sales")

	h, ok := w.Pin()
	assert.False(t, ok)
	assert.Nil(t, h)

	p.Release()
	assert.Equal(t, int32(0), p.lease.count(), "second release must not go negative")
}

func TestHandle_CloneKeepsAlive(t *testing.T) {
	p := NewC(45)
	c, ok := p.Clone()
	require.True(t, ok)
	assert.Equal(t, p.ID(), c.ID())

	p.Release()
	assert.True(t, c.Weak().Alive(), "clone still owns the product")

	_, ok = p.Clone()
	assert.False(t, ok, "a released handle cannot clone")

	c.Release()
	assert.False(t, c.Weak().Alive())
}

func TestHandle_PinOutlivesOwner(t *testing.T) {
	p := NewA(10)
	p.StartSales()

	pin, ok := p.Weak().Pin()
	require.True(t, ok)

	p.Release()
	assert.True(t, pin.OnSale(), "pinned product is not torn down yet")
	assert.Equal(t, 10.0, pin.Price())

	pin.Release()
	assert.False(t, pin.OnSale())
	_, ok = pin.Weak().Pin()
	assert.False(t, ok)
}

func TestWeak_Zero(t *testing.T) {
	var w Weak
	assert.False(t, w.Alive())
	_, ok := w.Pin()
	assert.False(t, ok)
	assert.False(t, w.Same(NewA(1)))
	assert.False(t, w.Same(nil))
}

func TestHandle_ConcurrentPinRelease(t *testing.T) {
	p := NewA(1)
	w := p.Weak()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				if h, ok := w.Pin(); ok {
					_ = h.Price()
					h.Release()
				}
			}
		}()
	}

	p.Release()
	wg.Wait()

	assert.Equal(t, int32(0), p.lease.count())
	assert.False(t, w.Alive())
}

func TestFactory_LiveGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := kit.NewMetrics(reg)
	f := Factory{Metrics: m}

	a := f.New(KindA, 1)
	b := f.New(KindB, 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Live))

	b2, _ := b.Clone()
	b.Release()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Live))

	b2.Release()
	a.Release()
	a.Release()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Live))
}
