package memorybus

import (
	"strings"
	"sync"

	"github.com/stoop-politics/stoop/internal/ports"
)

type subscriber struct {
	prefix string
}

// Bus diffuse les évènements en mémoire, au sein du process.
type Bus struct {
	mu    sync.Mutex
	subs  map[chan ports.Event]subscriber
	alive bool
}

func New() *Bus {
	return &Bus{subs: make(map[chan ports.Event]subscriber), alive: true}
}

func (b *Bus) Publish(topic string, payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.alive {
		return
	}
	evt := ports.Event{Topic: topic, Payload: payload}
	for ch, sub := range b.subs {
		if sub.prefix != "" && !strings.HasPrefix(topic, sub.prefix) {
			continue
		}
		select {
		case ch <- evt:
		default:
			// drop si le client est trop lent
		}
	}
}

func (b *Bus) Subscribe(prefix string) (<-chan ports.Event, func()) {
	ch := make(chan ports.Event, 64)
	b.mu.Lock()
	if !b.alive {
		close(ch)
		b.mu.Unlock()
		return ch, func() {}
	}
	b.subs[ch] = subscriber{prefix: prefix}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}

	return ch, cancel
}

// Close ferme tous les abonnements ; les Publish suivants sont ignorés.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.alive {
		return
	}
	b.alive = false
	for ch := range b.subs {
		close(ch)
	}
	b.subs = map[chan ports.Event]subscriber{}
}
