package k8sgateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/labels"
	k8sfake "k8s.io/client-go/kubernetes/fake"

	"github.com/apolo-sh/platform-disk-api/internal/disk"
)

func newTestGateway() *Gateway {
	return &Gateway{
		Clientset:    k8sfake.NewSimpleClientset(),
		StorageClass: "standard",
	}
}

func TestCreateAndGetPVC(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()

	created, err := g.CreatePVC(ctx, disk.PVCWrite{
		Namespace:        "platform--org--proj--abc",
		Name:             "disk-1",
		StorageRequested: 1024,
		Labels:           disk.BuildPVCLabels("org", "proj", ""),
	})
	require.NoError(t, err)
	assert.Equal(t, disk.PhasePending, created.Phase)

	got, err := g.GetPVC(ctx, "platform--org--proj--abc", "disk-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1024), got.StorageRequested)
}

func TestGetPVCNotFound(t *testing.T) {
	g := newTestGateway()
	_, err := g.GetPVC(context.Background(), "ns", "missing")
	require.Error(t, err)
	assert.Equal(t, disk.KindNotFound, disk.KindOf(err))
}

func TestListPVCsBySelector(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()

	pvcLabels := disk.BuildPVCLabels("org", "proj", "")
	_, err := g.CreatePVC(ctx, disk.PVCWrite{Namespace: "ns", Name: "a", StorageRequested: 1, Labels: pvcLabels})
	require.NoError(t, err)
	_, err = g.CreatePVC(ctx, disk.PVCWrite{Namespace: "ns", Name: "b", StorageRequested: 2, Labels: map[string]string{"other": "x"}})
	require.NoError(t, err)

	list, err := g.ListPVCs(ctx, "ns", labels.SelectorFromSet(pvcLabels).String())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].Name)
}

func TestPatchPVCLabelsMarksDeleted(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()
	_, err := g.CreatePVC(ctx, disk.PVCWrite{Namespace: "ns", Name: "a", StorageRequested: 1, Labels: disk.MarkLabels()})
	require.NoError(t, err)

	require.NoError(t, g.PatchPVCLabels(ctx, "ns", "a", disk.DeletedMarkLabels()))

	got, err := g.GetPVC(ctx, "ns", "a")
	require.NoError(t, err)
	assert.True(t, disk.IsMarked(got.Labels))
	assert.True(t, disk.IsDeleted(got.Labels))
}

func TestPatchPVCAnnotationsRecordsUsage(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()
	_, err := g.CreatePVC(ctx, disk.PVCWrite{Namespace: "ns", Name: "a", StorageRequested: 1})
	require.NoError(t, err)

	require.NoError(t, g.PatchPVCAnnotations(ctx, "ns", "a", disk.UsedBytesAnnotations(4096)))

	got, err := g.GetPVC(ctx, "ns", "a")
	require.NoError(t, err)
	used, ok := disk.UsedBytes(got.Annotations)
	require.True(t, ok)
	assert.Equal(t, int64(4096), used)
}

func TestGetPVCHonorsVClusterObjectNameOverride(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()
	_, err := g.CreatePVC(ctx, disk.PVCWrite{
		Namespace:        "ns",
		Name:             "pvc-host-mangled",
		StorageRequested: 1,
		Annotations:      map[string]string{vclusterObjectNameAnnotation: "disk-tenant-visible"},
	})
	require.NoError(t, err)

	got, err := g.GetPVC(ctx, "ns", "pvc-host-mangled")
	require.NoError(t, err)
	assert.Equal(t, "disk-tenant-visible", got.Name)
}

func TestDeletePVC(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()
	_, err := g.CreatePVC(ctx, disk.PVCWrite{Namespace: "ns", Name: "a", StorageRequested: 1})
	require.NoError(t, err)

	require.NoError(t, g.DeletePVC(ctx, "ns", "a"))
	_, err = g.GetPVC(ctx, "ns", "a")
	assert.Equal(t, disk.KindNotFound, disk.KindOf(err))
}
