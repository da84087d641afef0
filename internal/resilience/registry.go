package resilience

import (
	"sort"
	"sync"

	"github.com/sony/gobreaker/v2"
)

// Health represents the breaker state of a registered executor.
type Health struct {
	Name         string
	CircuitState gobreaker.State
	Counts       gobreaker.Counts
}

// IsHealthy returns true if the circuit is closed.
func (h Health) IsHealthy() bool {
	return h.CircuitState == gobreaker.StateClosed
}

// IsDegraded returns true if the circuit is half-open.
func (h Health) IsDegraded() bool {
	return h.CircuitState == gobreaker.StateHalfOpen
}

// Registry tracks executors so operational endpoints can report on them.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]*Executor
}

// NewRegistry creates a new executor registry.
func NewRegistry() *Registry {
	return &Registry{
		executors: make(map[string]*Executor),
	}
}

// Register adds an executor under its name.
func (r *Registry) Register(e *Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[e.Name()] = e
}

// Health returns the health of every registered executor, sorted by name.
func (r *Registry) Health() []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Health, 0, len(r.executors))
	for name, e := range r.executors {
		result = append(result, Health{
			Name:         name,
			CircuitState: e.State(),
			Counts:       e.Counts(),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result
}
