// Package ratelimit implements the adaptive limiter guarding the moderation
// endpoint: per-fingerprint sliding windows with strike-driven exponential
// cooldowns, so abusive clients back off hard while calm ones recover.
package ratelimit

import (
	"strings"
	"sync"
	"time"
)

const maxStrikes = 8

type Config struct {
	Window       time.Duration
	MaxRequests  int
	BaseCooldown time.Duration
	MaxCooldown  time.Duration
	TrackTTL     time.Duration
}

func DefaultConfig() Config {
	return Config{
		Window:       10 * time.Second,
		MaxRequests:  25,
		BaseCooldown: 5 * time.Second,
		MaxCooldown:  2 * time.Minute,
		TrackTTL:     15 * time.Minute,
	}
}

type entry struct {
	hits          []time.Time
	strikes       int
	cooldownUntil time.Time
	lastSeen      time.Time
}

// Verdict reports the outcome of a single request check. RetryAfter and
// Strikes are only meaningful when Limited.
type Verdict struct {
	Limited    bool
	RetryAfter time.Duration
	Strikes    int
}

// Limiter is shared by every request against the moderation endpoint; the
// per-fingerprint update is an atomic read-modify-write under one mutex.
type Limiter struct {
	cfg Config

	mu      sync.Mutex
	clients map[string]*entry
}

func New(cfg Config) *Limiter {
	if cfg.MaxRequests < 5 {
		cfg.MaxRequests = 5
	}
	return &Limiter{cfg: cfg, clients: make(map[string]*entry)}
}

// methodBudget reduces the window budget for mutating methods: writes get
// 60%, other non-GET 70%, reads the full budget.
func methodBudget(method string, maxRequests int) int {
	budget := maxRequests
	switch strings.ToUpper(method) {
	case "POST", "PUT":
		budget = maxRequests * 6 / 10
	case "GET":
		return maxRequests
	default:
		budget = maxRequests * 7 / 10
	}
	if budget < 3 {
		budget = 3
	}
	return budget
}

func (l *Limiter) escalate(e *entry, now time.Time) time.Duration {
	if e.strikes < maxStrikes {
		e.strikes++
	}
	cooldown := l.cfg.BaseCooldown
	for i := 1; i < e.strikes; i++ {
		cooldown *= 2
		if cooldown >= l.cfg.MaxCooldown {
			cooldown = l.cfg.MaxCooldown
			break
		}
	}
	return cooldown
}

// Check records one request for the fingerprint and decides whether it may
// proceed. now is injected so tests can drive the clock.
func (l *Limiter) Check(fingerprint, method string, now time.Time) Verdict {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(now)

	e, ok := l.clients[fingerprint]
	if !ok {
		e = &entry{}
		l.clients[fingerprint] = e
	}
	e.lastSeen = now

	kept := e.hits[:0]
	for _, ts := range e.hits {
		if now.Sub(ts) <= l.cfg.Window {
			kept = append(kept, ts)
		}
	}
	e.hits = kept

	// Requests inside an active cooldown extend it.
	if e.cooldownUntil.After(now) {
		cooldown := l.escalate(e, now)
		if until := now.Add(cooldown); until.After(e.cooldownUntil) {
			e.cooldownUntil = until
		}
		retry := e.cooldownUntil.Sub(now)
		if retry < time.Second {
			retry = time.Second
		}
		return Verdict{Limited: true, RetryAfter: retry, Strikes: e.strikes}
	}

	e.hits = append(e.hits, now)
	budget := methodBudget(method, l.cfg.MaxRequests)
	if len(e.hits) > budget {
		cooldown := l.escalate(e, now)
		e.cooldownUntil = now.Add(cooldown)
		// The next window starts clean once the cooldown lapses.
		e.hits = nil
		return Verdict{Limited: true, RetryAfter: cooldown, Strikes: e.strikes}
	}

	// Calm behavior pays a strike back down.
	if e.strikes > 0 && len(e.hits) <= budget/3 {
		e.strikes--
	}
	return Verdict{Limited: false}
}

// prune drops fingerprints idle past the tracking TTL; called lazily under
// the lock so memory stays bounded without a background sweep.
func (l *Limiter) prune(now time.Time) {
	for key, e := range l.clients {
		if e == nil || now.Sub(e.lastSeen) > l.cfg.TrackTTL {
			delete(l.clients, key)
		}
	}
}

// Size reports the tracked-fingerprint count, for health reporting.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
