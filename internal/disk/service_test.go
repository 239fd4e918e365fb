package disk_test

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apolo-sh/platform-disk-api/internal/disk"
	"github.com/apolo-sh/platform-disk-api/internal/disk/mock_disk"
	"github.com/apolo-sh/platform-disk-api/internal/naming"
)

func TestServiceCreateAnonymousDisk(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	gw := mock_disk.NewMockGateway(ctrl)
	svc := disk.NewService(gw, "standard", 0)

	ns := naming.GenerateNamespaceName("org", "proj")
	gw.EXPECT().CreatePVC(gomock.Any(), gomock.Any()).Return(disk.PVCRead{
		Namespace:        ns,
		Name:             "disk-abc",
		UID:              "uid-1",
		Phase:            disk.PhasePending,
		StorageRequested: 1024,
	}, nil)

	d, err := svc.Create(context.Background(), disk.Request{Org: "org", Project: "proj", Owner: "alice", Storage: 1024})
	require.NoError(t, err)
	assert.Equal(t, "disk-abc", d.ID)
	assert.Equal(t, disk.StatusPending, d.Status)
}

func TestServiceCreateNamedDiskConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	gw := mock_disk.NewMockGateway(ctrl)
	svc := disk.NewService(gw, "standard", 0)

	gw.EXPECT().CreateDiskNaming(gomock.Any(), gomock.Any()).
		Return(disk.Conflict("disk naming already exists", nil))

	_, err := svc.Create(context.Background(), disk.Request{Name: "cache", Org: "org", Project: "proj", Storage: 1024})
	require.Error(t, err)
	assert.Equal(t, disk.KindConflict, disk.KindOf(err))
}

func TestServiceCreateCompensatesDiskNamingOnPVCFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	gw := mock_disk.NewMockGateway(ctrl)
	svc := disk.NewService(gw, "standard", 0)

	gw.EXPECT().CreateDiskNaming(gomock.Any(), gomock.Any()).Return(nil)
	gw.EXPECT().CreatePVC(gomock.Any(), gomock.Any()).Return(disk.PVCRead{}, disk.Transient("quota rejected", nil))
	gw.EXPECT().DeleteDiskNaming(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	_, err := svc.Create(context.Background(), disk.Request{Name: "cache", Org: "org", Project: "proj", Storage: 1024})
	require.Error(t, err)
}

func TestServiceCreateQuotaExceeded(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	gw := mock_disk.NewMockGateway(ctrl)
	svc := disk.NewService(gw, "standard", 2000)

	gw.EXPECT().ListPVCs(gomock.Any(), gomock.Any(), disk.LiveSelector()).
		Return([]disk.PVCRead{{StorageRequested: 1500}}, nil)

	_, err := svc.Create(context.Background(), disk.Request{Org: "org", Project: "proj", Storage: 1000})
	require.Error(t, err)
	assert.Equal(t, disk.KindQuotaExceeded, disk.KindOf(err))
}

func TestServiceRemoveDeletesNamingWhenNamed(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	gw := mock_disk.NewMockGateway(ctrl)
	svc := disk.NewService(gw, "standard", 0)

	annotations := disk.BuildPVCAnnotations("cache", disk.CreatedAt(nil))
	gw.EXPECT().GetPVC(gomock.Any(), gomock.Any(), "disk-1").
		Return(disk.PVCRead{Name: "disk-1", Annotations: annotations}, nil)
	gw.EXPECT().DeleteDiskNaming(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	gw.EXPECT().PatchPVCLabels(gomock.Any(), gomock.Any(), "disk-1", disk.DeletedMarkLabels()).Return(nil)
	gw.EXPECT().DeletePVC(gomock.Any(), gomock.Any(), "disk-1").Return(nil)

	err := svc.Remove(context.Background(), "org", "proj", "disk-1")
	require.NoError(t, err)
}
