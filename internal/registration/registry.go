package registration

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry незавершённые регистрации в памяти процесса.
// Простаивающие дольше ttl удаляются при следующем обращении, таймера нет.
type Registry struct {
	deps Deps
	ttl  time.Duration

	mu    sync.Mutex
	items map[string]*Workflow
}

func NewRegistry(deps Deps, ttl time.Duration) *Registry {
	return &Registry{deps: deps, ttl: ttl, items: make(map[string]*Workflow)}
}

// Start новая регистрация с шага 1
func (r *Registry) Start() *Workflow {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evict()

	w := NewWorkflow(uuid.NewString(), r.deps)
	r.items[w.ID()] = w
	return w
}

func (r *Registry) Get(id string) (*Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evict()

	w, ok := r.items[id]
	if !ok {
		return nil, ErrUnknownRegistration
	}
	return w, nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evict()
	return len(r.items)
}

func (r *Registry) evict() {
	if r.ttl <= 0 {
		return
	}
	cutoff := r.deps.now().Add(-r.ttl)
	for id, w := range r.items {
		if w.idleSince().Before(cutoff) {
			w.close()
			delete(r.items, id)
		}
	}
}
