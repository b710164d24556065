package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/informers"
	"k8s.io/client-go/tools/cache"

	"github.com/geeko-me/sprouter-controller/pkg/registry"
)

// NamespaceDispatcher watches namespace phase transitions and fans the
// registry's seeds out to every namespace the moment it first becomes
// Active. A namespace can report Active repeatedly across resyncs; the
// seen set debounces those so a namespace is only fanned into once.
type NamespaceDispatcher struct {
	informer cache.SharedIndexInformer
	registry *registry.Registry
	log      logr.Logger
	ctx      context.Context

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewNamespaceDispatcher builds a NamespaceDispatcher and registers its
// event handlers against factory. It must be called before
// factory.Start.
func NewNamespaceDispatcher(factory informers.SharedInformerFactory, reg *registry.Registry, log logr.Logger) *NamespaceDispatcher {
	d := &NamespaceDispatcher{
		informer: factory.Core().V1().Namespaces().Informer(),
		registry: reg,
		log:      log.WithValues("loop", "namespace"),
		ctx:      context.Background(),
		seen:     make(map[string]struct{}),
	}
	d.informer.AddEventHandler(cache.ResourceEventHandlerFuncs{
		AddFunc:    func(obj interface{}) { d.handleApply(obj.(*corev1.Namespace)) },
		UpdateFunc: func(_, obj interface{}) { d.handleApply(obj.(*corev1.Namespace)) },
		DeleteFunc: func(obj interface{}) {
			if ns, ok := unwrap[*corev1.Namespace](obj); ok {
				d.handleDelete(ns)
			}
		},
	})
	return d
}

func (d *NamespaceDispatcher) handleApply(ns *corev1.Namespace) {
	if ns.Status.Phase != corev1.NamespaceActive {
		return
	}

	d.mu.Lock()
	_, already := d.seen[ns.Name]
	if !already {
		d.seen[ns.Name] = struct{}{}
	}
	d.mu.Unlock()

	if already {
		return
	}

	d.log.Info("namespace became active", "namespace", ns.Name)
	d.registry.FanToNamespace(d.ctx, ns.Name, d.log)
}

func (d *NamespaceDispatcher) handleDelete(ns *corev1.Namespace) {
	d.mu.Lock()
	delete(d.seen, ns.Name)
	d.mu.Unlock()
}

// Run blocks until ctx is done. The informer itself is already running,
// started once by the shared informer factory in Supervisor.Run; Run
// here only waits for its cache to sync and then holds the loop open so
// the supervisor's errgroup can observe this watch as long as it lives.
func (d *NamespaceDispatcher) Run(ctx context.Context) error {
	d.ctx = ctx
	if !cache.WaitForCacheSync(ctx.Done(), d.informer.HasSynced) {
		return fmt.Errorf("namespace dispatcher: cache sync failed")
	}
	d.log.Info("watch started")
	<-ctx.Done()
	d.log.Info("watch stopped")
	return nil
}
