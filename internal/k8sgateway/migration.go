package k8sgateway

import (
	"context"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/apolo-sh/platform-disk-api/internal/disk"
	"github.com/apolo-sh/platform-disk-api/internal/migration"
)

var _ migration.Gateway = (*Gateway)(nil)

// ListMarkedPVCs lists PVCs in a namespace carrying the disk-API mark
// label, the set the migration job operates on.
func (g *Gateway) ListMarkedPVCs(ctx context.Context, namespace string) ([]migration.PVCRef, error) {
	list, err := g.Clientset.CoreV1().PersistentVolumeClaims(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, translateErr("list pvcs for migration", err)
	}
	var out []migration.PVCRef
	for i := range list.Items {
		pvc := &list.Items[i]
		if !disk.IsMarked(pvc.Labels) {
			continue
		}
		out = append(out, migration.PVCRef{
			Namespace: pvc.Namespace,
			Name:      pvc.Name,
			UID:       string(pvc.UID),
			Bound:     pvc.Status.Phase == corev1.ClaimBound,
			Labels:    pvc.Labels,
			PVName:    pvc.Spec.VolumeName,
		})
	}
	return out, nil
}

// PodsMountingPVC counts the pod volumes in namespace that mount pvcName,
// across pods in any phase, used to guard against deleting an in-use
// volume.
func (g *Gateway) PodsMountingPVC(ctx context.Context, namespace, pvcName string) (int, error) {
	pods, err := g.Clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return 0, translateErr("list pods to check pvc usage", err)
	}
	count := 0
	for _, pod := range pods.Items {
		for _, vol := range pod.Spec.Volumes {
			if vol.PersistentVolumeClaim != nil && vol.PersistentVolumeClaim.ClaimName == pvcName {
				count++
			}
		}
	}
	return count, nil
}

func (g *Gateway) setReclaimPolicy(ctx context.Context, pvName string, policy corev1.PersistentVolumeReclaimPolicy) error {
	pv, err := g.Clientset.CoreV1().PersistentVolumes().Get(ctx, pvName, metav1.GetOptions{})
	if err != nil {
		return translateErr("get pv", err)
	}
	pv.Spec.PersistentVolumeReclaimPolicy = policy
	_, err = g.Clientset.CoreV1().PersistentVolumes().Update(ctx, pv, metav1.UpdateOptions{})
	if err != nil {
		return translateErr("update pv reclaim policy", err)
	}
	return nil
}

func (g *Gateway) SetReclaimPolicyRetain(ctx context.Context, pvName string) error {
	return g.setReclaimPolicy(ctx, pvName, corev1.PersistentVolumeReclaimRetain)
}

func (g *Gateway) SetReclaimPolicyDelete(ctx context.Context, pvName string) error {
	return g.setReclaimPolicy(ctx, pvName, corev1.PersistentVolumeReclaimDelete)
}

// DeletePVCAndWait deletes a PVC and polls until it is gone or timeout
// elapses.
func (g *Gateway) DeletePVCAndWait(ctx context.Context, namespace, name string, timeout time.Duration) error {
	if err := g.DeletePVC(ctx, namespace, name); err != nil {
		return err
	}
	return wait.PollUntilContextTimeout(ctx, 2*time.Second, timeout, true, func(ctx context.Context) (bool, error) {
		_, err := g.Clientset.CoreV1().PersistentVolumeClaims(namespace).Get(ctx, name, metav1.GetOptions{})
		if apierrors.IsNotFound(err) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		return false, nil
	})
}

// ClearClaimRef nils out a PV's claimRef so a new PVC can bind to it.
func (g *Gateway) ClearClaimRef(ctx context.Context, pvName string) error {
	pv, err := g.Clientset.CoreV1().PersistentVolumes().Get(ctx, pvName, metav1.GetOptions{})
	if err != nil {
		return translateErr("get pv", err)
	}
	pv.Spec.ClaimRef = nil
	_, err = g.Clientset.CoreV1().PersistentVolumes().Update(ctx, pv, metav1.UpdateOptions{})
	if err != nil {
		return translateErr("clear pv claimref", err)
	}
	return nil
}

// CreatePVCBoundToPV creates a new PVC in namespace explicitly bound to an
// existing PV, the "pointer PVC" pattern from pkg/k8s/volumn.go's
// MountExistingVolumeToProject, generalized to preserve the original PV's
// storage class and binding rather than mounting a second, separate PV.
func (g *Gateway) CreatePVCBoundToPV(ctx context.Context, namespace, name, pvName string, labelSet, annotations map[string]string) error {
	if err := g.EnsureNamespaceExists(ctx, namespace); err != nil {
		return err
	}
	pv, err := g.Clientset.CoreV1().PersistentVolumes().Get(ctx, pvName, metav1.GetOptions{})
	if err != nil {
		return translateErr("get pv for rebind", err)
	}

	pvc := &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:        name,
			Namespace:   namespace,
			Labels:      labelSet,
			Annotations: annotations,
		},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes:      pv.Spec.AccessModes,
			StorageClassName: &pv.Spec.StorageClassName,
			VolumeName:       pvName,
			Resources: corev1.VolumeResourceRequirements{
				Requests: pv.Spec.Capacity,
			},
		},
	}
	_, err = g.Clientset.CoreV1().PersistentVolumeClaims(namespace).Create(ctx, pvc, metav1.CreateOptions{})
	if err != nil {
		return translateErr("create rebound pvc", err)
	}
	return nil
}

// WaitClaimRefSet polls until the PV's claimRef is populated (the PVC
// controller has bound it).
func (g *Gateway) WaitClaimRefSet(ctx context.Context, pvName string, timeout time.Duration) error {
	return wait.PollUntilContextTimeout(ctx, 2*time.Second, timeout, true, func(ctx context.Context) (bool, error) {
		pv, err := g.Clientset.CoreV1().PersistentVolumes().Get(ctx, pvName, metav1.GetOptions{})
		if err != nil {
			return false, err
		}
		return pv.Spec.ClaimRef != nil, nil
	})
}

