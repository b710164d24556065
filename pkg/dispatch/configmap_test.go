package dispatch

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	k8sfake "k8s.io/client-go/kubernetes/fake"

	"github.com/geeko-me/sprouter-controller/pkg/engine"
	"github.com/geeko-me/sprouter-controller/pkg/gateway"
	"github.com/geeko-me/sprouter-controller/pkg/metrics"
	"github.com/geeko-me/sprouter-controller/pkg/registry"
	"github.com/geeko-me/sprouter-controller/pkg/sprout"
)

func namespaces(names ...string) []runtime.Object {
	objs := make([]runtime.Object, len(names))
	for i, n := range names {
		objs[i] = &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: n}}
	}
	return objs
}

func newConfigMapDispatcherForTest(objs ...runtime.Object) *ConfigMapDispatcher {
	client := k8sfake.NewSimpleClientset(objs...)
	gw := gateway.NewConfigMapGateway(client)
	m := metrics.New(prometheus.NewRegistry())
	eng := engine.New(gw, m, logr.Discard())
	reg := registry.New()
	return &ConfigMapDispatcher{
		engine:   eng,
		registry: reg,
		metrics:  m,
		log:      logr.Discard(),
		ctx:      context.Background(),
	}
}

func TestConfigMapDispatcherApplyRegistersNewSeed(t *testing.T) {
	g := NewWithT(t)
	d := newConfigMapDispatcherForTest(namespaces("a", "b")...)

	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Namespace:   "a",
			Name:        "cfg",
			Annotations: map[string]string{sprout.AnnotationEnabled: "true"},
		},
	}
	d.handleApply(cm)

	g.Expect(registry.Contains(d.registry, d.engine, cm)).To(BeTrue())
}

func TestConfigMapDispatcherApplyDemotesKnownSeed(t *testing.T) {
	g := NewWithT(t)
	d := newConfigMapDispatcherForTest(namespaces("a", "b")...)

	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Namespace:   "a",
			Name:        "cfg",
			Annotations: map[string]string{sprout.AnnotationEnabled: "true"},
		},
	}
	d.handleApply(cm)
	g.Expect(registry.Contains(d.registry, d.engine, cm)).To(BeTrue())

	demoted := cm.DeepCopy()
	delete(demoted.Annotations, sprout.AnnotationEnabled)
	d.handleApply(demoted)

	g.Expect(registry.Contains(d.registry, d.engine, demoted)).To(BeFalse())
}

func TestConfigMapDispatcherIgnoresUnrelatedApply(t *testing.T) {
	g := NewWithT(t)
	d := newConfigMapDispatcherForTest(namespaces("a", "b")...)

	cm := &corev1.ConfigMap{ObjectMeta: metav1.ObjectMeta{Namespace: "a", Name: "plain"}}
	d.handleApply(cm)

	g.Expect(registry.Contains(d.registry, d.engine, cm)).To(BeFalse())
}

func TestConfigMapDispatcherDeleteSweepsKnownSeed(t *testing.T) {
	g := NewWithT(t)
	d := newConfigMapDispatcherForTest(namespaces("a", "b")...)

	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Namespace:   "a",
			Name:        "cfg",
			Annotations: map[string]string{sprout.AnnotationEnabled: "true"},
		},
	}
	d.handleApply(cm)
	d.handleDelete(cm)

	g.Expect(registry.Contains(d.registry, d.engine, cm)).To(BeFalse())
}
