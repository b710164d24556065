package dispatch

import "k8s.io/client-go/tools/cache"

// unwrap recovers T from an informer DeleteFunc argument, which may
// arrive as a cache.DeletedFinalStateUnknown tombstone when the delete
// event was missed and only discovered on relist. ok is false if obj
// was neither a T nor a tombstone wrapping one.
func unwrap[T any](obj interface{}) (T, bool) {
	if v, ok := obj.(T); ok {
		return v, true
	}
	if tomb, ok := obj.(cache.DeletedFinalStateUnknown); ok {
		v, ok := tomb.Obj.(T)
		return v, ok
	}
	var zero T
	return zero, false
}
