package k8sgateway

import (
	"testing"

	"github.com/apolo-sh/platform-disk-api/internal/disk"
	"github.com/apolo-sh/platform-disk-api/internal/naming"
)

func TestNamingRefRoundTrip(t *testing.T) {
	ref := disk.NamingRef{
		Name:     "disk-mydata",
		DiskName: "mydata",
		Org:      "acme",
		Project:  "ml",
		DiskID:   "pvc-123",
	}
	namespace := namespaceOfRef(ref)

	u := fromNamingRef(namespace, ref)
	if u.GetName() != ref.Name {
		t.Fatalf("name = %q, want %q", u.GetName(), ref.Name)
	}
	if u.GetNamespace() != namespace {
		t.Fatalf("namespace = %q, want %q", u.GetNamespace(), namespace)
	}

	got := toNamingRef(u)
	if got.Name != ref.Name || got.Org != ref.Org || got.Project != ref.Project || got.DiskID != ref.DiskID {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, ref)
	}
	if got.DiskName != ref.DiskName {
		t.Fatalf("DiskName = %q, want %q", got.DiskName, ref.DiskName)
	}
}

func TestNamespaceOfRefMatchesNamingPackage(t *testing.T) {
	ref := disk.NamingRef{Org: "acme", Project: "ml"}
	got := namespaceOfRef(ref)
	if got == "" {
		t.Fatal("namespaceOfRef returned empty namespace")
	}
	if want := naming.GenerateNamespaceName("acme", "ml"); got != want {
		t.Fatalf("namespaceOfRef = %q, want %q", got, want)
	}
}
