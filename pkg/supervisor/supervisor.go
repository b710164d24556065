// Package supervisor bootstraps the controller: an initial full scan to
// populate the seed registry from cluster state, followed by the three
// watch loops and the operational HTTP server running concurrently
// until one of them fails or the context is cancelled.
package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/informers"
	"k8s.io/client-go/kubernetes"

	"github.com/geeko-me/sprouter-controller/pkg/dispatch"
	"github.com/geeko-me/sprouter-controller/pkg/engine"
	"github.com/geeko-me/sprouter-controller/pkg/gateway"
	"github.com/geeko-me/sprouter-controller/pkg/httpserver"
	"github.com/geeko-me/sprouter-controller/pkg/metrics"
	"github.com/geeko-me/sprouter-controller/pkg/registry"
	"github.com/geeko-me/sprouter-controller/pkg/sprout"
)

// defaultResyncInterval is how often the informer factory replays its
// cache as synthetic Update events, a safety net against any watch
// event sprouter itself missed.
const defaultResyncInterval = 10 * time.Minute

// Supervisor wires the gateway, engine, registry, and dispatcher layers
// together into a single runnable process.
type Supervisor struct {
	client kubernetes.Interface
	log    logr.Logger

	cmGateway  *gateway.Gateway[*corev1.ConfigMap]
	secGateway *gateway.Gateway[*corev1.Secret]
	cmEngine   *engine.Engine[*corev1.ConfigMap]
	secEngine  *engine.Engine[*corev1.Secret]

	registry *registry.Registry
	metrics  *metrics.Metrics
	promReg  *prometheus.Registry
	httpAddr string
}

// New builds a Supervisor over client, logging through log and serving
// /healthz and /metrics on httpAddr.
func New(client kubernetes.Interface, log logr.Logger, httpAddr string) *Supervisor {
	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)

	cmGateway := gateway.NewConfigMapGateway(client)
	secGateway := gateway.NewSecretGateway(client)

	return &Supervisor{
		client:     client,
		log:        log,
		cmGateway:  cmGateway,
		secGateway: secGateway,
		cmEngine:   engine.New(cmGateway, m, log),
		secEngine:  engine.New(secGateway, m, log),
		registry:   registry.New(),
		metrics:    m,
		promReg:    promReg,
		httpAddr:   httpAddr,
	}
}

// Init performs the startup scan: every ConfigMap and Secret in the
// cluster is listed once, and each one already carrying the seed
// annotation is registered and reconciled before any watch starts, so
// that a restart never leaves previously-seeded sprouts stale.
func (s *Supervisor) Init(ctx context.Context) error {
	cms, err := s.cmGateway.List(ctx)
	if err != nil {
		return fmt.Errorf("initial scan: %w", err)
	}
	for _, cm := range cms {
		if sprout.IsSeed(cm) {
			if _, err := registry.Add(ctx, s.registry, s.cmEngine, cm); err != nil {
				s.log.Error(err, "initial reconcile failed", "kind", sprout.KindConfigMap, "namespace", cm.Namespace, "name", cm.Name)
			}
		}
	}

	secrets, err := s.secGateway.List(ctx)
	if err != nil {
		return fmt.Errorf("initial scan: %w", err)
	}
	for _, sec := range secrets {
		if sprout.IsSeed(sec) {
			if _, err := registry.Add(ctx, s.registry, s.secEngine, sec); err != nil {
				s.log.Error(err, "initial reconcile failed", "kind", sprout.KindSecret, "namespace", sec.Namespace, "name", sec.Name)
			}
		}
	}

	s.metrics.SetSeedsRegistered(s.registry.Len())
	s.log.Info("initial scan complete", "seeds", s.registry.Len())
	return nil
}

// Run starts the three watch loops and the HTTP server, and blocks
// until ctx is cancelled or one of them returns an error, at which
// point the rest are cancelled and given a chance to shut down.
func (s *Supervisor) Run(ctx context.Context) error {
	factory := informers.NewSharedInformerFactory(s.client, defaultResyncInterval)

	cmDispatcher := dispatch.NewConfigMapDispatcher(factory, s.cmEngine, s.registry, s.metrics, s.log)
	secDispatcher := dispatch.NewSecretDispatcher(factory, s.secEngine, s.registry, s.metrics, s.log)
	nsDispatcher := dispatch.NewNamespaceDispatcher(factory, s.registry, s.log)

	factory.Start(ctx.Done())
	synced := factory.WaitForCacheSync(ctx.Done())
	for informerType, ok := range synced {
		if !ok {
			return fmt.Errorf("cache sync failed for %v", informerType)
		}
	}
	s.log.Info("caches synced, dispatchers starting")

	srv := httpserver.New(s.httpAddr, s.promReg, s.log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return cmDispatcher.Run(gctx) })
	g.Go(func() error { return secDispatcher.Run(gctx) })
	g.Go(func() error { return nsDispatcher.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx) })

	return g.Wait()
}
