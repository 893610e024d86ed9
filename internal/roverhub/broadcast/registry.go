package broadcast

import (
	"sync"

	"github.com/autopeer-io/roverhub/internal/pkg/metrics"
	"github.com/autopeer-io/roverhub/pkg/log"
)

// Observer is a connected real-time client.
type Observer interface {
	ID() string

	// Deliver enqueues msg without blocking. It returns false when the
	// observer cannot take it, either because its buffer is full or because
	// it is closed.
	Deliver(msg *Message) bool

	// Close releases the observer. It must be idempotent and non-blocking.
	Close()
}

type entry struct {
	observer    Observer
	lastVersion uint64
}

// Registry tracks the connected observers and delivers messages to them.
// Delivery is at most once with no backlog: an observer that cannot keep up
// is evicted.
type Registry struct {
	mu        sync.Mutex
	observers map[string]*entry
	log       log.Logger
}

func NewRegistry() *Registry {
	return &Registry{
		observers: make(map[string]*entry),
		log:       log.WithName("registry"),
	}
}

// Register adds obs and delivers initial() to it before any other message.
// initial runs under the registry lock so no publish can slip in between.
func (r *Registry) Register(obs Observer, initial func() *Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := &entry{observer: obs}
	if initial != nil {
		if msg := initial(); msg != nil {
			if !obs.Deliver(msg) {
				obs.Close()
				return false
			}
			e.lastVersion = msg.Version
		}
	}

	r.observers[obs.ID()] = e
	metrics.ObserversConnected.Set(float64(len(r.observers)))
	r.log.Info("Observer registered", "observer", obs.ID(), "observers", len(r.observers))
	return true
}

// Unregister removes the observer with id. Unknown ids are ignored.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.observers[id]; !ok {
		return
	}
	delete(r.observers, id)
	metrics.ObserversConnected.Set(float64(len(r.observers)))
	r.log.Info("Observer unregistered", "observer", id, "observers", len(r.observers))
}

// Publish delivers msg to every observer. Versioned messages are skipped for
// observers that already saw that version or a newer one.
func (r *Registry) Publish(msg *Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.observers {
		if msg.Version > 0 && msg.Version <= e.lastVersion {
			continue
		}
		if !e.observer.Deliver(msg) {
			delete(r.observers, id)
			e.observer.Close()
			metrics.ObserverEvictionsTotal.Inc()
			r.log.Warn("Observer evicted, send buffer full or closed", "observer", id, "event", msg.Event)
			continue
		}
		if msg.Version > 0 {
			e.lastVersion = msg.Version
		}
	}
	metrics.ObserversConnected.Set(float64(len(r.observers)))
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.observers)
}

// CloseAll closes and forgets every observer.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.observers {
		e.observer.Close()
		delete(r.observers, id)
	}
	metrics.ObserversConnected.Set(0)
}
