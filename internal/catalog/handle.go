package catalog

import "go.uber.org/atomic"

// Handle is one strong reference to a product. The product stays alive
// while at least one Handle is unreleased.
type Handle struct {
	*item
	released atomic.Bool
}

// Release drops this handle's reference. Calling it twice is a no-op.
// The product is torn down when the last reference goes.
func (h *Handle) Release() {
	if h == nil || h.item == nil {
		return
	}
	if !h.released.CompareAndSwap(false, true) {
		return
	}
	if h.lease.unpin() {
		h.teardown()
	}
}

// Clone adds another owner. It fails once this handle was released.
func (h *Handle) Clone() (*Handle, bool) {
	if h == nil || h.released.Load() {
		return nil, false
	}
	return h.Weak().Pin()
}

func (h *Handle) Released() bool {
	return h.released.Load()
}

// Weak is a non-owning reference. It never keeps a product alive; Pin is
// the only way to read through it.
type Weak struct {
	p *item
}

// Pin promotes w to a strong handle if the product is still alive. The
// caller must Release the handle.
func (w Weak) Pin() (*Handle, bool) {
	if w.p == nil || !w.p.lease.tryPin() {
		return nil, false
	}
	return &Handle{item: w.p}, true
}

// Alive is advisory: the answer may be stale by the time it returns.
func (w Weak) Alive() bool {
	return w.p != nil && w.p.lease.active()
}

func (w Weak) Same(p Product) bool {
	return p != nil && w.p != nil && p.Weak().p == w.p
}
