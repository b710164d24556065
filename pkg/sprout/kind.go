// Package sprout holds the vocabulary shared by every other package:
// the two resource kinds the controller understands, the annotation
// contract that marks a seed and its sprouts, and the content hash used
// to detect drift between them.
package sprout

import "fmt"

// Kind identifies which core API type a seed or sprout is.
type Kind string

const (
	KindConfigMap Kind = "ConfigMap"
	KindSecret    Kind = "Secret"
)

func (k Kind) String() string { return string(k) }

// Key identifies a single seed across the cluster, independent of which
// namespace currently holds the registry's bookkeeping for it.
type Key struct {
	Kind      Kind
	Namespace string
	Name      string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s/%s", k.Kind, k.Namespace, k.Name)
}
