package app

import (
	"context"
	"sync"
)

// SendGate borne le nombre d'envois groupés simultanés.
// Avec une capacité de 1, le rythme d'envoi vaut pour tout le process,
// quel que soit le nombre de workers.
type SendGate struct {
	mu       sync.Mutex
	capacity int
	running  int
	wake     chan struct{}
}

func NewSendGate(capacity int) *SendGate {
	if capacity <= 0 {
		capacity = 1
	}
	return &SendGate{capacity: capacity, wake: make(chan struct{})}
}

func (g *SendGate) Capacity() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.capacity
}

func (g *SendGate) Running() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// Resize change la capacité à chaud et réveille les appelants en attente.
func (g *SendGate) Resize(capacity int) {
	if capacity <= 0 {
		capacity = 1
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.capacity == capacity {
		return
	}
	g.capacity = capacity
	g.broadcastLocked()
}

// Enter bloque jusqu'à obtenir une place ou jusqu'à l'annulation du contexte.
func (g *SendGate) Enter(ctx context.Context) error {
	for {
		g.mu.Lock()
		if g.running < g.capacity {
			g.running++
			g.mu.Unlock()
			return nil
		}
		wake := g.wake
		g.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
		}
	}
}

func (g *SendGate) Leave() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running > 0 {
		g.running--
	}
	g.broadcastLocked()
}

func (g *SendGate) broadcastLocked() {
	close(g.wake)
	g.wake = make(chan struct{})
}
