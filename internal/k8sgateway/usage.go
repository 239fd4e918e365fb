package k8sgateway

import (
	"context"
	"fmt"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/apolo-sh/platform-disk-api/internal/disk"
	"github.com/apolo-sh/platform-disk-api/internal/naming"
)

// ListPVCsAllNamespaces lists every PVC across every namespace, used by
// the usage watcher's lifespan sweep.
func (g *Gateway) ListPVCsAllNamespaces(ctx context.Context) ([]disk.PVCRead, error) {
	list, err := g.Clientset.CoreV1().PersistentVolumeClaims(metav1.NamespaceAll).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, translateErr("list pvcs across namespaces", err)
	}
	out := make([]disk.PVCRead, 0, len(list.Items))
	for i := range list.Items {
		out = append(out, toPVCRead(&list.Items[i]))
	}
	return out, nil
}

// MarkDiskLastUsed records the time a disk's PVC was last observed mounted
// by a running pod, in both annotation families.
func (g *Gateway) MarkDiskLastUsed(ctx context.Context, namespace, pvcName string, at time.Time) error {
	return g.PatchPVCAnnotations(ctx, namespace, pvcName, disk.LastUsageAnnotations(at))
}

// SetDiskUsedBytes records a disk's kubelet-observed used-byte count, in
// both annotation families.
func (g *Gateway) SetDiskUsedBytes(ctx context.Context, namespace, pvcName string, bytes int64) error {
	return g.PatchPVCAnnotations(ctx, namespace, pvcName, disk.UsedBytesAnnotations(bytes))
}

// RemoveDisk tears down a PVC whose life span has elapsed, following the
// same three-step sequence as disk.Service.Remove: delete the matching
// DiskNaming object (if named), patch the deleted-mark label so
// concurrent lists exclude it, then delete the PVC.
func (g *Gateway) RemoveDisk(ctx context.Context, namespace, pvcName string) error {
	pvc, err := g.GetPVC(ctx, namespace, pvcName)
	if err != nil {
		return fmt.Errorf("get pvc before removal: %w", err)
	}

	if name, ok := disk.DiskName(pvc.Annotations); ok && name != "" {
		org, project, _ := disk.OrgProjectUser(pvc.Labels)
		dnName := naming.DiskNamingName(name, org, project)
		if err := g.DeleteDiskNaming(ctx, namespace, dnName); err != nil && disk.KindOf(err) != disk.KindNotFound {
			return fmt.Errorf("delete disk naming %q: %w", dnName, err)
		}
	}

	if err := g.PatchPVCLabels(ctx, namespace, pvcName, disk.DeletedMarkLabels()); err != nil && disk.KindOf(err) != disk.KindNotFound {
		return fmt.Errorf("mark disk deleted: %w", err)
	}

	return g.DeletePVC(ctx, namespace, pvcName)
}
