// Package ratelimit limite les requêtes des endpoints publics par clé (ex: "subscribe:<ip>").
//
// L'algorithme est une fenêtre fixe, pas une fenêtre glissante : jusqu'à 2×max requêtes
// peuvent passer de part et d'autre d'une frontière de fenêtre. C'est une approximation
// acceptée (dissuasion d'abus occasionnels, pas de quota strict).
//
// Chaque processus a son propre espace de clés, sans synchronisation entre instances :
// avec N instances, la limite effective est max × N. Pour une limite partagée, brancher
// une autre implémentation de Limiter (compteur externe) sans toucher aux appelants.
package ratelimit

import (
	"sync"
	"time"
)

// DefaultMaxKeys est le nombre de clés suivies au-delà duquel les entrées expirées sont purgées.
const DefaultMaxKeys = 10_000

// Limiter admet ou rejette une opération identifiée par key.
type Limiter interface {
	Allow(key string) bool
}

type entry struct {
	count   int
	resetAt time.Time
}

// FixedWindow est un compteur à fenêtre fixe, sûr en concurrence :
// le check-then-increment se fait sous mutex.
type FixedWindow struct {
	mu      sync.Mutex
	entries map[string]*entry

	now     func() time.Time
	maxKeys int

	// Limite par défaut utilisée par Allow.
	max    int
	window time.Duration
}

type Option func(*FixedWindow)

func WithClock(now func() time.Time) Option {
	return func(l *FixedWindow) {
		if now != nil {
			l.now = now
		}
	}
}

func WithMaxKeys(n int) Option {
	return func(l *FixedWindow) {
		if n > 0 {
			l.maxKeys = n
		}
	}
}

func WithLimit(max int, window time.Duration) Option {
	return func(l *FixedWindow) {
		l.max = max
		l.window = window
	}
}

func NewFixedWindow(opts ...Option) *FixedWindow {
	l := &FixedWindow{
		entries: make(map[string]*entry),
		now:     time.Now,
		maxKeys: DefaultMaxKeys,
		max:     10,
		window:  time.Minute,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow applique la limite configurée par WithLimit.
func (l *FixedWindow) Allow(key string) bool {
	return l.Check(key, l.max, l.window)
}

// Check admet la requête si moins de max requêtes ont été admises pour key
// dans la fenêtre courante. Un rejet ne modifie pas le compteur.
func (l *FixedWindow) Check(key string, max int, window time.Duration) bool {
	if max <= 0 {
		return false
	}
	if window <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.entries) > l.maxKeys {
		l.sweepLocked(now)
	}

	e, ok := l.entries[key]
	if !ok || !now.Before(e.resetAt) {
		l.entries[key] = &entry{count: 1, resetAt: now.Add(window)}
		return true
	}
	if e.count >= max {
		return false
	}
	e.count++
	return true
}

// Len renvoie le nombre de clés suivies (expirées comprises).
func (l *FixedWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *FixedWindow) sweepLocked(now time.Time) {
	for k, e := range l.entries {
		if !now.Before(e.resetAt) {
			delete(l.entries, k)
		}
	}
}

// Func adapte une fonction en Limiter (tests, désactivation).
type Func func(key string) bool

func (f Func) Allow(key string) bool { return f(key) }
