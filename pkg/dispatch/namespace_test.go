package dispatch

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8sfake "k8s.io/client-go/kubernetes/fake"

	"github.com/geeko-me/sprouter-controller/pkg/engine"
	"github.com/geeko-me/sprouter-controller/pkg/gateway"
	"github.com/geeko-me/sprouter-controller/pkg/metrics"
	"github.com/geeko-me/sprouter-controller/pkg/registry"
	"github.com/geeko-me/sprouter-controller/pkg/sprout"
)

func newNamespaceDispatcherForTest() (*NamespaceDispatcher, *registry.Registry, *gateway.Gateway[*corev1.ConfigMap], *engine.Engine[*corev1.ConfigMap]) {
	client := k8sfake.NewSimpleClientset(namespaces("a", "d")...)
	gw := gateway.NewConfigMapGateway(client)
	eng := engine.New(gw, metrics.New(prometheus.NewRegistry()), logr.Discard())
	reg := registry.New()
	return &NamespaceDispatcher{
		registry: reg,
		log:      logr.Discard(),
		ctx:      context.Background(),
		seen:     make(map[string]struct{}),
	}, reg, gw, eng
}

func TestNamespaceDispatcherFansSeedsOnFirstActiveEvent(t *testing.T) {
	g := NewWithT(t)
	d, reg, gw, eng := newNamespaceDispatcherForTest()
	ctx := context.Background()

	seed := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Namespace:   "a",
			Name:        "cfg",
			Annotations: map[string]string{sprout.AnnotationEnabled: "true"},
		},
	}
	g.Expect(gw.Create(ctx, "a", seed)).To(Succeed())
	_, err := registry.Add(ctx, reg, eng, seed)
	g.Expect(err).NotTo(HaveOccurred())

	d.handleApply(&corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: "d"},
		Status:     corev1.NamespaceStatus{Phase: corev1.NamespaceActive},
	})

	got, ok, err := gw.Get(ctx, "d", "cfg")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(ok).To(BeTrue())
	g.Expect(got.Annotations).To(HaveKeyWithValue(sprout.AnnotationSproutOf, "a/cfg"))
}

func TestNamespaceDispatcherDebouncesRepeatedActiveEvents(t *testing.T) {
	g := NewWithT(t)
	d, _, _, _ := newNamespaceDispatcherForTest()

	active := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: "d"},
		Status:     corev1.NamespaceStatus{Phase: corev1.NamespaceActive},
	}
	d.handleApply(active)
	g.Expect(d.seen).To(HaveKey("d"))

	// a second Active event for the same namespace must not re-enter
	// the seen set as a "new" transition; handleApply is idempotent
	// about bookkeeping even though we can't observe the skipped
	// FanToNamespace call directly from here.
	d.handleApply(active)
	g.Expect(d.seen).To(HaveLen(1))
}

func TestNamespaceDispatcherIgnoresNonActivePhase(t *testing.T) {
	g := NewWithT(t)
	d, _, _, _ := newNamespaceDispatcherForTest()

	d.handleApply(&corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: "d"},
		Status:     corev1.NamespaceStatus{Phase: corev1.NamespaceTerminating},
	})

	g.Expect(d.seen).NotTo(HaveKey("d"))
}

func TestNamespaceDispatcherDeleteClearsSeen(t *testing.T) {
	g := NewWithT(t)
	d, _, _, _ := newNamespaceDispatcherForTest()

	ns := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: "d"},
		Status:     corev1.NamespaceStatus{Phase: corev1.NamespaceActive},
	}
	d.handleApply(ns)
	g.Expect(d.seen).To(HaveKey("d"))

	d.handleDelete(ns)
	g.Expect(d.seen).NotTo(HaveKey("d"))
}
