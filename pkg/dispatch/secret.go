package dispatch

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/informers"
	"k8s.io/client-go/tools/cache"

	"github.com/geeko-me/sprouter-controller/pkg/engine"
	"github.com/geeko-me/sprouter-controller/pkg/metrics"
	"github.com/geeko-me/sprouter-controller/pkg/registry"
	"github.com/geeko-me/sprouter-controller/pkg/sprout"
)

// SecretDispatcher watches Secrets cluster-wide and keeps the registry
// and engine in sync with which ones are currently seeds.
type SecretDispatcher struct {
	informer cache.SharedIndexInformer
	engine   *engine.Engine[*corev1.Secret]
	registry *registry.Registry
	metrics  *metrics.Metrics
	log      logr.Logger
	ctx      context.Context
}

// NewSecretDispatcher builds a SecretDispatcher and registers its event
// handlers against factory. It must be called before factory.Start.
func NewSecretDispatcher(factory informers.SharedInformerFactory, eng *engine.Engine[*corev1.Secret], reg *registry.Registry, m *metrics.Metrics, log logr.Logger) *SecretDispatcher {
	d := &SecretDispatcher{
		informer: factory.Core().V1().Secrets().Informer(),
		engine:   eng,
		registry: reg,
		metrics:  m,
		log:      log.WithValues("loop", "secret"),
		ctx:      context.Background(),
	}
	d.informer.AddEventHandler(cache.ResourceEventHandlerFuncs{
		AddFunc:    func(obj interface{}) { d.handleApply(obj.(*corev1.Secret)) },
		UpdateFunc: func(_, obj interface{}) { d.handleApply(obj.(*corev1.Secret)) },
		DeleteFunc: func(obj interface{}) {
			if s, ok := unwrap[*corev1.Secret](obj); ok {
				d.handleDelete(s)
			}
		},
	})
	return d
}

func (d *SecretDispatcher) handleApply(s *corev1.Secret) {
	known := registry.Contains(d.registry, d.engine, s)
	isSeed := sprout.IsSeed(s)

	switch {
	case known && isSeed, !known && isSeed:
		if _, err := registry.Add(d.ctx, d.registry, d.engine, s); err != nil {
			d.log.Error(err, "reconcile failed", "namespace", s.Namespace, "name", s.Name)
		}
		d.metrics.SetSeedsRegistered(d.registry.Len())
	case known && !isSeed:
		if _, err := registry.Remove(d.ctx, d.registry, d.engine, s); err != nil {
			d.log.Error(err, "sweep failed", "namespace", s.Namespace, "name", s.Name)
		}
		d.metrics.SetSeedsRegistered(d.registry.Len())
	}
}

func (d *SecretDispatcher) handleDelete(s *corev1.Secret) {
	if !sprout.IsSeed(s) {
		return
	}
	if _, err := registry.Remove(d.ctx, d.registry, d.engine, s); err != nil {
		d.log.Error(err, "sweep on delete failed", "namespace", s.Namespace, "name", s.Name)
	}
	d.metrics.SetSeedsRegistered(d.registry.Len())
}

// Run blocks until ctx is done. The informer itself is already running,
// started once by the shared informer factory in Supervisor.Run; Run
// here only waits for its cache to sync and then holds the loop open so
// the supervisor's errgroup can observe this watch as long as it lives.
func (d *SecretDispatcher) Run(ctx context.Context) error {
	d.ctx = ctx
	if !cache.WaitForCacheSync(ctx.Done(), d.informer.HasSynced) {
		return fmt.Errorf("secret dispatcher: cache sync failed")
	}
	d.log.Info("watch started")
	<-ctx.Done()
	d.log.Info("watch stopped")
	return nil
}
