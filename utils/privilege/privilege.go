// Package privilege checks that provisioning runs with root rights on the
// host. debootstrap, systemd-nspawn and writes below /var/lib/machines all
// require them.
package privilege

import "os"

// UIDFunc reports an effective user id.
type UIDFunc func() int

// Checker verifies host privileges.
type Checker struct {
	euid UIDFunc
}

// Option configures a Checker.
type Option func(*Checker)

// WithUID swaps the uid source, mainly for tests.
func WithUID(fn UIDFunc) Option {
	return func(c *Checker) {
		if fn != nil {
			c.euid = fn
		}
	}
}

// NewChecker returns a Checker backed by os.Geteuid.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{euid: os.Geteuid}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// EnsureRoot fails with NotRootError unless the effective uid is 0.
func (c *Checker) EnsureRoot() error {
	if uid := c.euid(); uid != 0 {
		return NotRootError{UID: uid}
	}
	return nil
}
