package sprout

import (
	"testing"

	. "github.com/onsi/gomega"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func withAnnotations(ann map[string]string) metav1.Object {
	return &metav1.ObjectMeta{Annotations: ann}
}

func TestIsSeed(t *testing.T) {
	g := NewWithT(t)

	g.Expect(IsSeed(withAnnotations(map[string]string{AnnotationEnabled: "true"}))).To(BeTrue())
	g.Expect(IsSeed(withAnnotations(map[string]string{AnnotationEnabled: "false"}))).To(BeFalse())
	g.Expect(IsSeed(withAnnotations(nil))).To(BeFalse())
}

func TestIsSprout(t *testing.T) {
	g := NewWithT(t)

	g.Expect(IsSprout(withAnnotations(map[string]string{AnnotationSproutOf: "a/cfg"}))).To(BeTrue())
	g.Expect(IsSprout(withAnnotations(nil))).To(BeFalse())
}

func TestIsSproutRecentTreatsAbsenceAsEmptyHash(t *testing.T) {
	g := NewWithT(t)

	noHash := withAnnotations(nil)
	g.Expect(IsSproutRecent(noHash, "")).To(BeTrue())
	g.Expect(IsSproutRecent(noHash, "deadbeef")).To(BeFalse())

	withHash := withAnnotations(map[string]string{AnnotationSeedHash: "deadbeef"})
	g.Expect(IsSproutRecent(withHash, "deadbeef")).To(BeTrue())
	g.Expect(IsSproutRecent(withHash, "")).To(BeFalse())
}
