// Package overrides tracks time-boxed, host-scoped bypasses of blocking.
// An override exists only because the user explicitly chose to proceed past
// a warning page; it is a one-shot bypass to let a page load complete, not
// a persistent trust decision.
//
// Overrides are keyed by host rather than exact URL: the browser may issue
// several same-host navigations (redirect chains, sub-navigations) right
// after the user's choice, and exact-URL keying would re-trigger blocking
// mid-flow.
package overrides

import (
	"sync"
	"time"
)

// DefaultTTL applies when the control API is invoked without an explicit
// TTL. The warning-page button uses a much shorter 10s TTL.
const DefaultTTL = 5 * time.Minute

// Store maps a lowercase hostname to an override expiry. Safe for
// concurrent use; eviction is lazy.
type Store struct {
	mu    sync.Mutex
	hosts map[string]time.Time

	now func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		hosts: make(map[string]time.Time),
		now:   time.Now,
	}
}

// IsAllowed reports whether a live override exists for host, evicting the
// entry if it has expired.
func (s *Store) IsAllowed(host string) bool {
	if host == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.hosts[host]
	if !ok {
		return false
	}
	if s.now().After(exp) {
		delete(s.hosts, host)
		return false
	}
	return true
}

// Allow inserts or refreshes the override for host with
// expiry = now + ttl. A non-positive ttl falls back to DefaultTTL.
func (s *Store) Allow(host string, ttl time.Duration) {
	if host == "" {
		return
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.hosts[host] = s.now().Add(ttl)
}

// Size returns the number of overrides including possibly-expired ones not
// yet swept. Diagnostics only.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hosts)
}

// SetNow overrides the clock. Test hook.
func (s *Store) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
