// Package guard decides whether an incoming request from a user is served.
// Cooldown violations are strikes: they accumulate on the persisted record and
// eventually block the user for good, so a rejected request can still mutate
// state.
package guard

import (
	"log"
	"sync"
	"time"

	"github.com/artur/urban-waffle/internal/storage"
)

// Verdict is the guard's answer for one request.
type Verdict int

const (
	Allow Verdict = iota
	TemporaryBan
	PermanentBan
	TooFast
)

func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case TemporaryBan:
		return "temporary_ban"
	case PermanentBan:
		return "permanent_ban"
	case TooFast:
		return "too_fast"
	}
	return "unknown"
}

// Decision carries the verdict and the warning count after any strike.
type Decision struct {
	Verdict  Verdict
	Warnings int
}

const lockStripes = 64

// Guard enforces the temporary ban, the permanent ban and the cooldown, in
// that order. The cooldown table lives only in memory; restarting the process
// forgives pending cooldowns but never warnings.
type Guard struct {
	store       *storage.Store
	rateLimit   time.Duration
	maxWarnings int

	mu       sync.Mutex
	cooldown map[int64]time.Time

	// Striped by user ID so one user's check-then-mutate never races with
	// itself while different users keep running concurrently.
	locks [lockStripes]sync.Mutex
}

func New(store *storage.Store, rateLimit time.Duration, maxWarnings int) *Guard {
	return &Guard{
		store:       store,
		rateLimit:   rateLimit,
		maxWarnings: maxWarnings,
		cooldown:    make(map[int64]time.Time),
	}
}

func (g *Guard) stripe(id int64) *sync.Mutex {
	return &g.locks[uint64(id)%lockStripes]
}

// Check evaluates the rules for one request at the given instant. On Allow it
// stamps the cooldown table; on a cooldown violation it records a strike on
// the persisted record before rejecting.
func (g *Guard) Check(id int64, now time.Time) (Decision, error) {
	lock := g.stripe(id)
	lock.Lock()
	defer lock.Unlock()

	u, err := g.store.GetOrCreateUser(id)
	if err != nil {
		return Decision{}, err
	}

	if u.BanUntil != nil && u.BanUntil.After(now) {
		return Decision{Verdict: TemporaryBan, Warnings: u.Warnings}, nil
	}

	if u.Warnings >= g.maxWarnings {
		return Decision{Verdict: PermanentBan, Warnings: u.Warnings}, nil
	}

	if now.Sub(g.lastAccepted(id)) < g.rateLimit {
		warnings, err := g.store.IncrementWarnings(id)
		if err != nil {
			return Decision{}, err
		}
		log.Printf("[GUARD] Strike for user %d (%d/%d)", id, warnings, g.maxWarnings)
		return Decision{Verdict: TooFast, Warnings: warnings}, nil
	}

	g.setLastAccepted(id, now)
	return Decision{Verdict: Allow, Warnings: u.Warnings}, nil
}

func (g *Guard) lastAccepted(id int64) time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cooldown[id]
}

func (g *Guard) setLastAccepted(id int64, t time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cooldown[id] = t
}
