// Package registry tracks the set of resources currently known to be
// seeds, independent of resource kind, so the namespace dispatcher can
// fan every registered seed out to a newly active namespace without
// caring whether each one is a ConfigMap or a Secret.
package registry

import (
	"context"
	"sync"

	"github.com/go-logr/logr"

	"github.com/geeko-me/sprouter-controller/pkg/engine"
	"github.com/geeko-me/sprouter-controller/pkg/sprout"
)

// fanner re-fans one registered seed into a newly active namespace. It
// closes over the seed's identity and the kind-specific engine that
// knows how to re-fetch and grow it, so Registry itself never needs to
// be generic over resource kind.
type fanner func(ctx context.Context, targetNamespace string) error

type entry struct {
	key sprout.Key
	fan fanner
}

// Registry is the RWMutex-guarded set of known seeds. Reads and writes
// to the underlying map happen entirely under lock; any gateway or
// engine call this package makes happens after the lock is released, so
// a slow API call never blocks an unrelated dispatcher loop.
type Registry struct {
	mu      sync.RWMutex
	entries map[sprout.Key]entry
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[sprout.Key]entry)}
}

// Len reports how many seeds are currently registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) insert(e entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.key] = e
}

func (r *Registry) remove(key sprout.Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

func (r *Registry) contains(key sprout.Key) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key]
	return ok
}

func (r *Registry) snapshot() []entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}

// FanToNamespace fans every registered seed whose own namespace isn't
// targetNamespace into targetNamespace. Seeds are copied out from under
// the lock before any gateway call is made. One seed's fan-out failing
// is logged and does not stop the rest from being tried.
func (r *Registry) FanToNamespace(ctx context.Context, targetNamespace string, log logr.Logger) {
	for _, e := range r.snapshot() {
		if e.key.Namespace == targetNamespace {
			continue
		}
		if err := e.fan(ctx, targetNamespace); err != nil {
			log.Error(err, "fan-out to namespace failed for seed", "seedKind", e.key.Kind, "seedNamespace", e.key.Namespace, "seedName", e.key.Name, "targetNamespace", targetNamespace)
		}
	}
}

// namedObject is the sliver of metav1.Object that Key needs; kept
// narrow so Key isn't forced to depend on sprout.Resource's full
// constraint.
type namedObject interface {
	GetNamespace() string
	GetName() string
}

// Key returns the registry key for obj of the given kind.
func Key(kind sprout.Kind, obj namedObject) sprout.Key {
	return sprout.Key{Kind: kind, Namespace: obj.GetNamespace(), Name: obj.GetName()}
}

// Contains reports whether obj is currently a registered seed.
func Contains[T sprout.Resource](r *Registry, eng *engine.Engine[T], obj T) bool {
	return r.contains(Key(eng.Kind(), obj))
}

// Add registers obj as a seed, then reconciles it. The key is inserted
// before the reconcile runs so that a namespace created concurrently
// with this call is guaranteed to see the seed as already registered by
// the time its own Active-phase fan-out runs.
func Add[T sprout.Resource](ctx context.Context, r *Registry, eng *engine.Engine[T], obj T) (engine.Counts, error) {
	key := Key(eng.Kind(), obj)
	seedNamespace, seedName := obj.GetNamespace(), obj.GetName()
	r.insert(entry{
		key: key,
		fan: func(ctx context.Context, targetNamespace string) error {
			return eng.FanOne(ctx, seedNamespace, seedName, targetNamespace)
		},
	})
	return eng.Reconcile(ctx, obj)
}

// Remove deregisters obj as a seed, then sweeps its sprouts. The key is
// removed before the sweep runs, mirroring Add's insert-then-act order.
func Remove[T sprout.Resource](ctx context.Context, r *Registry, eng *engine.Engine[T], obj T) (int, error) {
	key := Key(eng.Kind(), obj)
	r.remove(key)
	return eng.Sweep(ctx, obj)
}
