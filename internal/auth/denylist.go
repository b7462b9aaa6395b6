package auth

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Denylist reports revoked token ids. A nil Denylist disables revocation.
type Denylist interface {
	Revoke(jti string, expiresAt time.Time)
	Revoked(jti string) bool
}

// LRUDenylist keeps revoked jtis in a bounded, expiring cache. Entries live
// for the remaining token lifetime plus leeway, capped at maxTTL.
type LRUDenylist struct {
	cache  *expirable.LRU[string, time.Time]
	leeway time.Duration
	now    func() time.Time
}

// NewLRUDenylist creates a denylist holding at most size entries, each kept
// for no longer than maxTTL.
func NewLRUDenylist(size int, maxTTL time.Duration) *LRUDenylist {
	if size <= 0 {
		size = 1
	}
	return &LRUDenylist{
		cache:  expirable.NewLRU[string, time.Time](size, nil, maxTTL+DefaultLeeway),
		leeway: DefaultLeeway,
		now:    time.Now,
	}
}

func (d *LRUDenylist) Revoke(jti string, expiresAt time.Time) {
	if jti == "" {
		return
	}
	d.cache.Add(jti, expiresAt.Add(d.leeway))
}

func (d *LRUDenylist) Revoked(jti string) bool {
	if jti == "" {
		return false
	}
	until, ok := d.cache.Get(jti)
	if !ok {
		return false
	}
	if d.now().After(until) {
		d.cache.Remove(jti)
		return false
	}
	return true
}

// Len returns the number of tracked revocations.
func (d *LRUDenylist) Len() int { return d.cache.Len() }
