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

// ConfigMapDispatcher watches ConfigMaps cluster-wide and keeps the
// registry and engine in sync with which ones are currently seeds.
type ConfigMapDispatcher struct {
	informer cache.SharedIndexInformer
	engine   *engine.Engine[*corev1.ConfigMap]
	registry *registry.Registry
	metrics  *metrics.Metrics
	log      logr.Logger
	ctx      context.Context
}

// NewConfigMapDispatcher builds a ConfigMapDispatcher and registers its
// event handlers against factory. It must be called before
// factory.Start.
func NewConfigMapDispatcher(factory informers.SharedInformerFactory, eng *engine.Engine[*corev1.ConfigMap], reg *registry.Registry, m *metrics.Metrics, log logr.Logger) *ConfigMapDispatcher {
	d := &ConfigMapDispatcher{
		informer: factory.Core().V1().ConfigMaps().Informer(),
		engine:   eng,
		registry: reg,
		metrics:  m,
		log:      log.WithValues("loop", "configmap"),
		ctx:      context.Background(),
	}
	d.informer.AddEventHandler(cache.ResourceEventHandlerFuncs{
		AddFunc:    func(obj interface{}) { d.handleApply(obj.(*corev1.ConfigMap)) },
		UpdateFunc: func(_, obj interface{}) { d.handleApply(obj.(*corev1.ConfigMap)) },
		DeleteFunc: func(obj interface{}) {
			if cm, ok := unwrap[*corev1.ConfigMap](obj); ok {
				d.handleDelete(cm)
			}
		},
	})
	return d
}

// handleApply classifies an Add or Update event per the dispatcher's
// seed-transition table: a known seed whose annotation persists is
// re-added (picking up any content change), a known seed that lost the
// annotation is demoted, a newly-annotated resource is registered for
// the first time, and everything else is ignored.
func (d *ConfigMapDispatcher) handleApply(cm *corev1.ConfigMap) {
	known := registry.Contains(d.registry, d.engine, cm)
	isSeed := sprout.IsSeed(cm)

	switch {
	case known && isSeed, !known && isSeed:
		if _, err := registry.Add(d.ctx, d.registry, d.engine, cm); err != nil {
			d.log.Error(err, "reconcile failed", "namespace", cm.Namespace, "name", cm.Name)
		}
		d.metrics.SetSeedsRegistered(d.registry.Len())
	case known && !isSeed:
		if _, err := registry.Remove(d.ctx, d.registry, d.engine, cm); err != nil {
			d.log.Error(err, "sweep failed", "namespace", cm.Namespace, "name", cm.Name)
		}
		d.metrics.SetSeedsRegistered(d.registry.Len())
	}
}

func (d *ConfigMapDispatcher) handleDelete(cm *corev1.ConfigMap) {
	if !sprout.IsSeed(cm) {
		return
	}
	if _, err := registry.Remove(d.ctx, d.registry, d.engine, cm); err != nil {
		d.log.Error(err, "sweep on delete failed", "namespace", cm.Namespace, "name", cm.Name)
	}
	d.metrics.SetSeedsRegistered(d.registry.Len())
}

// Run blocks until ctx is done. The informer itself is already running,
// started once by the shared informer factory in Supervisor.Run; Run
// here only waits for its cache to sync and then holds the loop open so
// the supervisor's errgroup can observe this watch as long as it lives.
func (d *ConfigMapDispatcher) Run(ctx context.Context) error {
	d.ctx = ctx
	if !cache.WaitForCacheSync(ctx.Done(), d.informer.HasSynced) {
		return fmt.Errorf("configmap dispatcher: cache sync failed")
	}
	d.log.Info("watch started")
	<-ctx.Done()
	d.log.Info("watch stopped")
	return nil
}
