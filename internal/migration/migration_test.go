package migration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/apolo-sh/platform-disk-api/internal/disk"
)

type fakeGateway struct {
	created bool
	mounts  int
}

func (f *fakeGateway) ListMarkedPVCs(ctx context.Context, ns string) ([]PVCRef, error) {
	return []PVCRef{{
		Namespace: ns,
		Name:      "disk-1",
		UID:       "uid-1",
		Bound:     true,
		PVName:    "pv-1",
		Labels:    map[string]string{"platform.apolo.us/user": "acme--widgets"},
	}}, nil
}
func (f *fakeGateway) EnsureNamespaceExists(ctx context.Context, ns string) error { return nil }
func (f *fakeGateway) PodsMountingPVC(ctx context.Context, ns, name string) (int, error) {
	return f.mounts, nil
}
func (f *fakeGateway) SetReclaimPolicyRetain(ctx context.Context, pv string) error { return nil }
func (f *fakeGateway) SetReclaimPolicyDelete(ctx context.Context, pv string) error { return nil }
func (f *fakeGateway) DeletePVCAndWait(ctx context.Context, ns, name string, timeout time.Duration) error {
	return nil
}
func (f *fakeGateway) ClearClaimRef(ctx context.Context, pv string) error { return nil }
func (f *fakeGateway) CreatePVCBoundToPV(ctx context.Context, ns, name, pv string, labels, annotations map[string]string) error {
	f.created = true
	return nil
}
func (f *fakeGateway) WaitClaimRefSet(ctx context.Context, pv string, timeout time.Duration) error {
	return nil
}
func (f *fakeGateway) DeleteDiskNaming(ctx context.Context, ns, name string) error { return nil }
func (f *fakeGateway) CreateDiskNaming(ctx context.Context, ref disk.NamingRef) error { return nil }

func TestMigrateDiskHappyPath(t *testing.T) {
	gw := &fakeGateway{}
	m := New(gw, zap.NewNop())

	err := m.Run(context.Background(), "legacy-ns")
	require.NoError(t, err)
	assert.True(t, gw.created)
}

func TestMigrateDiskSkipsWhenMounted(t *testing.T) {
	gw := &fakeGateway{mounts: 1}
	m := New(gw, zap.NewNop())

	err := m.Run(context.Background(), "legacy-ns")
	require.NoError(t, err) // mounted PVCs are skipped, not fatal
	assert.False(t, gw.created)
}

func TestResolveOrgProjectFallsBackToUserLabel(t *testing.T) {
	org, project := resolveOrgProject(map[string]string{"platform.apolo.us/user": "acme--widgets"})
	assert.Equal(t, "acme", org)
	assert.Equal(t, "widgets", project)
}

func TestResolveOrgProjectPrefersExplicitLabels(t *testing.T) {
	org, project := resolveOrgProject(map[string]string{
		"platform.apolo.us/org":     "acme",
		"platform.apolo.us/project": "widgets",
	})
	assert.Equal(t, "acme", org)
	assert.Equal(t, "widgets", project)
}
