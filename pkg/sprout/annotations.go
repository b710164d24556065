package sprout

import metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

// Annotation keys making up the seed/sprout contract. These are the only
// fields the controller reads from or writes to on a resource's metadata.
const (
	// AnnotationEnabled marks a resource as a seed when set to "true".
	AnnotationEnabled = "sprouter.geeko.me/enabled"
	// AnnotationSproutOf marks a resource as a sprout, recording the
	// "<namespace>/<name>" of the seed it was grown from.
	AnnotationSproutOf = "sprouter.geeko.me/sprout-of"
	// AnnotationSeedHash records the content hash of the seed a sprout
	// was last grown or updated from.
	AnnotationSeedHash = "sprouter.geeko.me/seed-hash"
)

// IsSeed reports whether obj is annotated as a seed.
func IsSeed(obj metav1.Object) bool {
	return obj.GetAnnotations()[AnnotationEnabled] == "true"
}

// IsSprout reports whether obj carries a sprout-of back-reference.
func IsSprout(obj metav1.Object) bool {
	_, ok := obj.GetAnnotations()[AnnotationSproutOf]
	return ok
}

// SproutOf returns the "<namespace>/<name>" back-reference recorded on a
// sprout, and whether one was present at all.
func SproutOf(obj metav1.Object) (string, bool) {
	v, ok := obj.GetAnnotations()[AnnotationSproutOf]
	return v, ok
}

// IsSproutRecent reports whether a sprout's recorded seed-hash annotation
// matches expectedHash. A seed with no content hashes to the empty
// string, so a sprout grown from an empty seed carries no seed-hash
// annotation at all; both sides of that comparison are represented here
// as "".
func IsSproutRecent(obj metav1.Object, expectedHash string) bool {
	return obj.GetAnnotations()[AnnotationSeedHash] == expectedHash
}
