// Package engine implements the reconciliation logic that turns one
// seed into sprouts across every other namespace, and removes those
// sprouts again when the seed stops being one.
package engine

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/geeko-me/sprouter-controller/pkg/gateway"
	"github.com/geeko-me/sprouter-controller/pkg/metrics"
	"github.com/geeko-me/sprouter-controller/pkg/sprout"
)

// Counts tallies the outcome of a single Reconcile pass, one entry per
// target namespace visited.
type Counts struct {
	Created   int
	Updated   int
	Validated int
	Ignored   int
}

// Engine drives reconciliation and sweep for one resource kind.
type Engine[T sprout.Resource] struct {
	gateway *gateway.Gateway[T]
	adapter sprout.Adapter[T]
	log     logr.Logger
	metrics *metrics.Metrics
}

// New builds an Engine backed by gw, reporting through m and logging
// through log.
func New[T sprout.Resource](gw *gateway.Gateway[T], m *metrics.Metrics, log logr.Logger) *Engine[T] {
	return &Engine[T]{
		gateway: gw,
		adapter: gw.Adapter(),
		metrics: m,
		log:     log.WithValues("kind", gw.Kind()),
	}
}

// Kind reports which resource kind this engine reconciles.
func (e *Engine[T]) Kind() sprout.Kind { return e.adapter.Kind() }

// Reconcile fans seed out to every namespace but its own, classifying
// each target as: absent (create), a matching sprout (leave alone), a
// stale sprout (update), or an alien resource that happens to share the
// name (log and ignore). It never touches the seed's own namespace.
func (e *Engine[T]) Reconcile(ctx context.Context, seed T) (Counts, error) {
	var counts Counts

	srcNamespace := seed.GetNamespace()
	name := seed.GetName()
	hash := e.adapter.Hash(seed)
	desired := sprout.MakeSprout(e.adapter, seed, hash)

	namespaces, err := e.gateway.ListNamespaces(ctx)
	if err != nil {
		return counts, fmt.Errorf("reconcile %s %s/%s: %w", e.adapter.Kind(), srcNamespace, name, err)
	}

	for _, ns := range namespaces {
		if ns == srcNamespace {
			continue
		}

		existing, ok, err := e.gateway.Get(ctx, ns, name)
		if err != nil {
			return counts, err
		}

		switch {
		case !ok:
			if err := e.gateway.Create(ctx, ns, desired); err != nil {
				return counts, err
			}
			counts.Created++
			e.log.Info("created sprout", "namespace", srcNamespace, "name", name, "targetNamespace", ns)

		case sprout.IsSprout(existing):
			if sprout.IsSproutRecent(existing, hash) {
				counts.Validated++
			} else {
				if err := e.gateway.Update(ctx, ns, desired); err != nil {
					return counts, err
				}
				counts.Updated++
				e.log.Info("updated sprout", "namespace", srcNamespace, "name", name, "targetNamespace", ns)
			}

		default:
			counts.Ignored++
			e.log.Info("ignoring alien resource with matching name", "namespace", srcNamespace, "name", name, "targetNamespace", ns)
		}
	}

	e.metrics.ObserveReconcile(e.adapter.Kind(), counts.Created, counts.Updated, counts.Validated, counts.Ignored)
	e.log.Info("reconcile complete",
		"namespace", srcNamespace, "name", name,
		"created", counts.Created, "updated", counts.Updated,
		"validated", counts.Validated, "ignored", counts.Ignored)

	return counts, nil
}

// Sweep removes seed's sprouts from every other namespace: a target
// that's already gone is skipped, a sprout is deleted, and an alien
// resource sharing the name is left alone and logged.
func (e *Engine[T]) Sweep(ctx context.Context, seed T) (int, error) {
	srcNamespace := seed.GetNamespace()
	name := seed.GetName()

	namespaces, err := e.gateway.ListNamespaces(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweep %s %s/%s: %w", e.adapter.Kind(), srcNamespace, name, err)
	}

	deleted := 0
	for _, ns := range namespaces {
		if ns == srcNamespace {
			continue
		}

		existing, ok, err := e.gateway.Get(ctx, ns, name)
		if err != nil {
			return deleted, err
		}
		if !ok {
			continue
		}

		if !sprout.IsSprout(existing) {
			e.log.Info("leaving alien resource with matching name during sweep", "namespace", srcNamespace, "name", name, "targetNamespace", ns)
			continue
		}

		if err := e.gateway.Delete(ctx, ns, name); err != nil {
			return deleted, err
		}
		deleted++
		e.log.Info("deleted sprout", "namespace", srcNamespace, "name", name, "targetNamespace", ns)
	}

	e.metrics.ObserveSweep(e.adapter.Kind(), deleted)
	e.log.Info("sweep complete", "namespace", srcNamespace, "name", name, "deleted", deleted)

	return deleted, nil
}

// FanOne re-fetches seedName's current form from seedNamespace and
// creates its sprout in targetNamespace. Used when a namespace
// transitions to Active after the seed was already registered: the
// registry only remembers the seed's identity, not a stale snapshot of
// its content, so the fan-out always reads the seed fresh.
func (e *Engine[T]) FanOne(ctx context.Context, seedNamespace, seedName, targetNamespace string) error {
	if seedNamespace == targetNamespace {
		return nil
	}

	seed, ok, err := e.gateway.Get(ctx, seedNamespace, seedName)
	if err != nil {
		return fmt.Errorf("fan %s %s/%s to %s: %w", e.adapter.Kind(), seedNamespace, seedName, targetNamespace, err)
	}
	if !ok {
		e.log.V(1).Info("seed vanished before fan-out", "namespace", seedNamespace, "name", seedName, "targetNamespace", targetNamespace)
		return nil
	}

	hash := e.adapter.Hash(seed)
	desired := sprout.MakeSprout(e.adapter, seed, hash)
	if err := e.gateway.Create(ctx, targetNamespace, desired); err != nil {
		return fmt.Errorf("fan %s %s/%s to %s: %w", e.adapter.Kind(), seedNamespace, seedName, targetNamespace, err)
	}
	e.log.Info("fanned seed to namespace", "namespace", seedNamespace, "name", seedName, "targetNamespace", targetNamespace)
	return nil
}
