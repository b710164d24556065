package sprout

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
)

// Resource is the set of concrete API types sprouter knows how to seed
// and grow. Both satisfy metav1.Object and runtime.Object through their
// embedded ObjectMeta and generated DeepCopyObject, which is all the
// generic packages above sprout need to touch metadata and clone values.
type Resource interface {
	*corev1.ConfigMap | *corev1.Secret
	metav1.Object
	runtime.Object
}

// Adapter supplies the kind-specific behavior that lets the rest of the
// controller stay generic over ConfigMap and Secret: which Kind a type
// is, how to hash its payload, and how to deep-copy a value of it.
type Adapter[T Resource] interface {
	Kind() Kind
	Hash(obj T) string
	DeepCopy(obj T) T
}

type configMapAdapter struct{}

// ConfigMapAdapter is the Adapter for *corev1.ConfigMap.
func ConfigMapAdapter() Adapter[*corev1.ConfigMap] { return configMapAdapter{} }

func (configMapAdapter) Kind() Kind { return KindConfigMap }

func (configMapAdapter) Hash(obj *corev1.ConfigMap) string {
	payload := make(map[string][]byte, len(obj.Data)+len(obj.BinaryData))
	for k, v := range obj.Data {
		payload[k] = []byte(v)
	}
	for k, v := range obj.BinaryData {
		payload[k] = v
	}
	return Hash(payload)
}

func (configMapAdapter) DeepCopy(obj *corev1.ConfigMap) *corev1.ConfigMap { return obj.DeepCopy() }

type secretAdapter struct{}

// SecretAdapter is the Adapter for *corev1.Secret.
func SecretAdapter() Adapter[*corev1.Secret] { return secretAdapter{} }

func (secretAdapter) Kind() Kind { return KindSecret }

func (secretAdapter) Hash(obj *corev1.Secret) string {
	// client-go already decodes Secret.Data from base64 on the wire, so
	// the raw bytes here are the same payload a consumer of the secret
	// would see.
	payload := make(map[string][]byte, len(obj.Data))
	for k, v := range obj.Data {
		payload[k] = v
	}
	return Hash(payload)
}

func (secretAdapter) DeepCopy(obj *corev1.Secret) *corev1.Secret { return obj.DeepCopy() }

// MakeSprout builds the sprout form of seed: a deep copy with the
// enabled annotation stripped, the sprout-of back-reference set to
// seed's own namespace/name, and the seed-hash annotation set to hash
// (or removed, if hash is the empty-payload sentinel). Callers still
// need to set the copy's namespace to the target namespace and clear
// its identity fields before creating it.
func MakeSprout[T Resource](adapter Adapter[T], seed T, hash string) T {
	cp := adapter.DeepCopy(seed)

	ann := cp.GetAnnotations()
	if ann == nil {
		ann = map[string]string{}
	} else {
		clone := make(map[string]string, len(ann))
		for k, v := range ann {
			clone[k] = v
		}
		ann = clone
	}
	delete(ann, AnnotationEnabled)
	ann[AnnotationSproutOf] = cp.GetNamespace() + "/" + cp.GetName()
	if hash == "" {
		delete(ann, AnnotationSeedHash)
	} else {
		ann[AnnotationSeedHash] = hash
	}
	cp.SetAnnotations(ann)

	return cp
}
