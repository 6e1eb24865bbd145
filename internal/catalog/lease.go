package catalog

import "go.uber.org/atomic"

// lease is the reference count shared by every Handle of one product.
// Zero is terminal: once the last owner lets go, tryPin never succeeds
// again.
type lease struct {
	refs atomic.Int32
}

func (l *lease) tryPin() bool {
	for {
		n := l.refs.Load()
		if n <= 0 {
			return false
		}
		if l.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// unpin reports whether the caller dropped the last reference.
func (l *lease) unpin() bool {
	return l.refs.Dec() == 0
}

func (l *lease) active() bool {
	return l.refs.Load() > 0
}

func (l *lease) count() int32 {
	return l.refs.Load()
}
