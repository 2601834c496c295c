// Package auth defines the pluggable authorization backend consumed by the
// protocol engine's gate.
package auth

// Backend decides whether a credential may act on a collection owned by the
// given principal. Decisions are never cached across requests.
type Backend interface {
	Authorize(owner, user, password string) bool
}

// Open grants every request. It stands in for a backend during development
// and in tests; the engine skips gating entirely when no backend is set.
type Open struct{}

func (Open) Authorize(owner, user, password string) bool { return true }

// Func adapts a plain function to a Backend.
type Func func(owner, user, password string) bool

func (f Func) Authorize(owner, user, password string) bool { return f(owner, user, password) }
