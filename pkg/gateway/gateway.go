// Package gateway is the controller's only point of contact with the
// Kubernetes API: every read or write of a seed or sprout goes through a
// Gateway, which normalizes the 404/409 responses the reconciliation
// engine would otherwise have to special-case at every call site.
package gateway

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/geeko-me/sprouter-controller/pkg/sprout"
)

// Gateway is a typed CRUD surface over one resource kind, generic over
// sprout.Resource so the reconciliation engine never has to branch on
// ConfigMap vs. Secret itself.
type Gateway[T sprout.Resource] struct {
	adapter sprout.Adapter[T]
	client  kubernetes.Interface

	list   func(ctx context.Context, namespace string) ([]T, error)
	get    func(ctx context.Context, namespace, name string) (T, error)
	create func(ctx context.Context, namespace string, obj T) (T, error)
	update func(ctx context.Context, namespace string, obj T) (T, error)
	delete func(ctx context.Context, namespace, name string) error
}

// Kind reports which resource kind this gateway serves.
func (g *Gateway[T]) Kind() sprout.Kind { return g.adapter.Kind() }

// Adapter exposes the adapter this gateway was built with, so callers
// that already hold a Gateway don't need to carry a separate Adapter
// reference of their own.
func (g *Gateway[T]) Adapter() sprout.Adapter[T] { return g.adapter }

// ListNamespaces returns every namespace name visible to the controller,
// regardless of phase. Reconcile and Sweep use the list unfiltered; the
// namespace dispatcher checks phase on its own watch events instead.
func (g *Gateway[T]) ListNamespaces(ctx context.Context) ([]string, error) {
	list, err := g.client.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list namespaces: %w", err)
	}
	names := make([]string, 0, len(list.Items))
	for _, ns := range list.Items {
		names = append(names, ns.Name)
	}
	return names, nil
}

// List returns every resource of this kind across all namespaces, used
// once at startup to seed the registry from cluster state.
func (g *Gateway[T]) List(ctx context.Context) ([]T, error) {
	items, err := g.list(ctx, metav1.NamespaceAll)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", g.adapter.Kind(), err)
	}
	return items, nil
}

// Get fetches the named resource in namespace. The second return value
// is false, with a nil error, when the resource does not exist.
func (g *Gateway[T]) Get(ctx context.Context, namespace, name string) (T, bool, error) {
	obj, err := g.get(ctx, namespace, name)
	if apierrors.IsNotFound(err) {
		var zero T
		return zero, false, nil
	}
	if err != nil {
		var zero T
		return zero, false, fmt.Errorf("get %s %s/%s: %w", g.adapter.Kind(), namespace, name, err)
	}
	return obj, true, nil
}

// Create grows obj in namespace. obj's namespace, resource version, and
// UID are cleared before the create so a copy carried over from another
// namespace never collides on those fields; a 409 (the target already
// exists, e.g. created by a racing event) is swallowed rather than
// returned, matching the "already converged" outcome it represents.
func (g *Gateway[T]) Create(ctx context.Context, namespace string, obj T) error {
	cp := g.adapter.DeepCopy(obj)
	cp.SetNamespace(namespace)
	cp.SetResourceVersion("")
	cp.SetUID("")

	_, err := g.create(ctx, namespace, cp)
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("create %s %s/%s: %w", g.adapter.Kind(), namespace, cp.GetName(), err)
	}
	return nil
}

// Update replaces the existing resource in namespace with obj in full.
// obj's resource version and UID are cleared first: the update is a
// blind replace of content, not a conditional patch, so the server
// assigns a fresh resource version from whatever it currently holds.
func (g *Gateway[T]) Update(ctx context.Context, namespace string, obj T) error {
	cp := g.adapter.DeepCopy(obj)
	cp.SetNamespace(namespace)
	cp.SetResourceVersion("")
	cp.SetUID("")

	if _, err := g.update(ctx, namespace, cp); err != nil {
		return fmt.Errorf("update %s %s/%s: %w", g.adapter.Kind(), namespace, cp.GetName(), err)
	}
	return nil
}

// Delete removes name from namespace. A 404 is swallowed: the sprout
// being gone already is the outcome delete was asked to produce.
func (g *Gateway[T]) Delete(ctx context.Context, namespace, name string) error {
	if err := g.delete(ctx, namespace, name); err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("delete %s %s/%s: %w", g.adapter.Kind(), namespace, name, err)
	}
	return nil
}

// NewConfigMapGateway builds a Gateway for ConfigMaps over client.
func NewConfigMapGateway(client kubernetes.Interface) *Gateway[*corev1.ConfigMap] {
	cms := client.CoreV1()
	return &Gateway[*corev1.ConfigMap]{
		adapter: sprout.ConfigMapAdapter(),
		client:  client,
		list: func(ctx context.Context, namespace string) ([]*corev1.ConfigMap, error) {
			list, err := cms.ConfigMaps(namespace).List(ctx, metav1.ListOptions{})
			if err != nil {
				return nil, err
			}
			out := make([]*corev1.ConfigMap, len(list.Items))
			for i := range list.Items {
				out[i] = &list.Items[i]
			}
			return out, nil
		},
		get: func(ctx context.Context, namespace, name string) (*corev1.ConfigMap, error) {
			return cms.ConfigMaps(namespace).Get(ctx, name, metav1.GetOptions{})
		},
		create: func(ctx context.Context, namespace string, obj *corev1.ConfigMap) (*corev1.ConfigMap, error) {
			return cms.ConfigMaps(namespace).Create(ctx, obj, metav1.CreateOptions{})
		},
		update: func(ctx context.Context, namespace string, obj *corev1.ConfigMap) (*corev1.ConfigMap, error) {
			return cms.ConfigMaps(namespace).Update(ctx, obj, metav1.UpdateOptions{})
		},
		delete: func(ctx context.Context, namespace, name string) error {
			return cms.ConfigMaps(namespace).Delete(ctx, name, metav1.DeleteOptions{})
		},
	}
}

// NewSecretGateway builds a Gateway for Secrets over client.
func NewSecretGateway(client kubernetes.Interface) *Gateway[*corev1.Secret] {
	cv1 := client.CoreV1()
	return &Gateway[*corev1.Secret]{
		adapter: sprout.SecretAdapter(),
		client:  client,
		list: func(ctx context.Context, namespace string) ([]*corev1.Secret, error) {
			list, err := cv1.Secrets(namespace).List(ctx, metav1.ListOptions{})
			if err != nil {
				return nil, err
			}
			out := make([]*corev1.Secret, len(list.Items))
			for i := range list.Items {
				out[i] = &list.Items[i]
			}
			return out, nil
		},
		get: func(ctx context.Context, namespace, name string) (*corev1.Secret, error) {
			return cv1.Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
		},
		create: func(ctx context.Context, namespace string, obj *corev1.Secret) (*corev1.Secret, error) {
			return cv1.Secrets(namespace).Create(ctx, obj, metav1.CreateOptions{})
		},
		update: func(ctx context.Context, namespace string, obj *corev1.Secret) (*corev1.Secret, error) {
			return cv1.Secrets(namespace).Update(ctx, obj, metav1.UpdateOptions{})
		},
		delete: func(ctx context.Context, namespace, name string) error {
			return cv1.Secrets(namespace).Delete(ctx, name, metav1.DeleteOptions{})
		},
	}
}
