package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ProviderHealth is a point-in-time view of one upstream dependency.
type ProviderHealth struct {
	Name          string
	CircuitState  gobreaker.State
	Counts        gobreaker.Counts
	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastError     string
}

// IsHealthy reports a closed circuit.
func (h ProviderHealth) IsHealthy() bool { return h.CircuitState == gobreaker.StateClosed }

// IsDegraded reports a half-open circuit: probes are getting through.
func (h ProviderHealth) IsDegraded() bool { return h.CircuitState == gobreaker.StateHalfOpen }

// IsUnhealthy reports an open circuit: calls fail fast.
func (h ProviderHealth) IsUnhealthy() bool { return h.CircuitState == gobreaker.StateOpen }

// BreakerSource exposes a provider's circuit breaker. *Client satisfies it,
// as does the Gemini drafter, which guards SDK calls rather than raw HTTP.
type BreakerSource interface {
	CircuitBreakerState() gobreaker.State
	CircuitBreakerCounts() gobreaker.Counts
}

// Registry is shared by the API and the worker so that readiness, health
// endpoints and degradation flags read one view of every provider.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*entry
	now       func() time.Time
}

type entry struct {
	source        BreakerSource
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]*entry), now: time.Now}
}

// Register adds source under name. Re-registering a name resets its history.
func (r *Registry) Register(name string, source BreakerSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = &entry{source: source}
}

// RecordSuccess stamps a successful call. Unknown names are ignored.
func (r *Registry) RecordSuccess(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.providers[name]; ok {
		now := r.now()
		e.lastSuccessAt = &now
	}
}

// RecordFailure stamps a failed call and keeps err's message for the ops view.
// Unknown names are ignored.
func (r *Registry) RecordFailure(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.providers[name]
	if !ok {
		return
	}
	now := r.now()
	e.lastFailureAt = &now
	if err != nil {
		e.lastError = err.Error()
	}
}

// Health returns the view of one provider.
func (r *Registry) Health(name string) (ProviderHealth, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.providers[name]
	if !ok {
		return ProviderHealth{}, false
	}
	return e.health(name), true
}

// Snapshot returns every provider's view, ordered by name.
func (r *Registry) Snapshot() []ProviderHealth {
	r.mu.RLock()
	out := make([]ProviderHealth, 0, len(r.providers))
	for name, e := range r.providers {
		out = append(out, e.health(name))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the registered provider names in order.
func (r *Registry) Names() []string {
	snap := r.Snapshot()
	names := make([]string, len(snap))
	for i, h := range snap {
		names[i] = h.Name
	}
	return names
}

// Ready is false while any provider's circuit is open.
func (r *Registry) Ready() bool {
	for _, h := range r.Snapshot() {
		if h.IsUnhealthy() {
			return false
		}
	}
	return true
}

func (e *entry) health(name string) ProviderHealth {
	return ProviderHealth{
		Name:          name,
		CircuitState:  e.source.CircuitBreakerState(),
		Counts:        e.source.CircuitBreakerCounts(),
		LastSuccessAt: e.lastSuccessAt,
		LastFailureAt: e.lastFailureAt,
		LastError:     e.lastError,
	}
}
