// Package guard provides a non-blocking advisory lock. A call made while the
// guard is held is rejected immediately and reported through a callback.
package guard

import (
	"sync/atomic"

	"odootest/pkg/logging"
)

// Guard is a named exclusion domain.
type Guard struct {
	name       string
	held       atomic.Bool
	onConflict func()
}

// New returns a free guard. onConflict runs, once per rejected call, whenever
// an operation is attempted while the guard is held. It may be nil.
func New(name string, onConflict func()) *Guard {
	return &Guard{name: name, onConflict: onConflict}
}

// Name returns the guard name.
func (g *Guard) Name() string {
	return g.name
}

// Held reports whether an operation currently holds the guard.
func (g *Guard) Held() bool {
	return g.held.Load()
}

// Do runs fn while holding the guard. If the guard is already held fn is not
// run, the conflict callback fires and Do returns (false, nil). The guard is
// released on every exit path of fn, panics included.
func (g *Guard) Do(fn func() error) (ran bool, err error) {
	if !g.held.CompareAndSwap(false, true) {
		logging.Debug("Guard", "%s is held, rejecting operation", g.name)
		if g.onConflict != nil {
			g.onConflict()
		}
		return false, nil
	}
	defer g.held.Store(false)
	return true, fn()
}

// All runs fn while holding every guard, acquired in order. The first held
// guard rejects the call and releases the ones acquired before it.
func All(fn func() error, guards ...*Guard) (ran bool, err error) {
	if len(guards) == 0 {
		return true, fn()
	}
	var innerRan bool
	outerRan, err := guards[0].Do(func() error {
		var innerErr error
		innerRan, innerErr = All(fn, guards[1:]...)
		return innerErr
	})
	return outerRan && innerRan, err
}
