package k8sgateway

import (
	"context"
	"encoding/json"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"

	"github.com/apolo-sh/platform-disk-api/internal/disk"
)

// vclusterObjectNameAnnotation, when present, overrides a PVC's apparent
// name as the disk ID. Behind a vcluster, the PVC's real (host-side) name
// is a mangled alias; vcluster stamps the tenant-visible name here so the
// disk API can still hand callers back the name they created the disk
// with.
const vclusterObjectNameAnnotation = "vcluster.loft.sh/object-name"

func phaseOf(p corev1.PersistentVolumeClaimPhase) disk.Phase {
	switch p {
	case corev1.ClaimBound:
		return disk.PhaseBound
	case corev1.ClaimLost:
		return disk.PhaseLost
	default:
		return disk.PhasePending
	}
}

func toPVCRead(pvc *corev1.PersistentVolumeClaim) disk.PVCRead {
	requested := pvc.Spec.Resources.Requests[corev1.ResourceStorage]
	name := pvc.Name
	if override, ok := pvc.Annotations[vclusterObjectNameAnnotation]; ok && override != "" {
		name = override
	}
	read := disk.PVCRead{
		Namespace:        pvc.Namespace,
		Name:             name,
		UID:              string(pvc.UID),
		Phase:            phaseOf(pvc.Status.Phase),
		StorageRequested: requested.Value(),
		Labels:           pvc.Labels,
		Annotations:      pvc.Annotations,
		CreationTime:     pvc.CreationTimestamp.Time,
	}
	if real, ok := pvc.Status.Capacity[corev1.ResourceStorage]; ok {
		v := real.Value()
		read.StorageReal = &v
	}
	return read
}

// CreatePVC creates the disk's backing PersistentVolumeClaim, ensuring the
// target namespace exists first.
func (g *Gateway) CreatePVC(ctx context.Context, w disk.PVCWrite) (disk.PVCRead, error) {
	if err := g.EnsureNamespaceExists(ctx, w.Namespace); err != nil {
		return disk.PVCRead{}, fmt.Errorf("ensure namespace %q: %w", w.Namespace, err)
	}

	storageClass := w.StorageClassName
	if storageClass == "" {
		storageClass = g.StorageClass
	}

	pvc := &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:        w.Name,
			Namespace:   w.Namespace,
			Labels:      w.Labels,
			Annotations: w.Annotations,
		},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes:      []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			StorageClassName: &storageClass,
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{
					corev1.ResourceStorage: *resource.NewQuantity(w.StorageRequested, resource.BinarySI),
				},
			},
		},
	}

	created, err := g.Clientset.CoreV1().PersistentVolumeClaims(w.Namespace).Create(ctx, pvc, metav1.CreateOptions{})
	if err != nil {
		return disk.PVCRead{}, translateErr("create pvc", err)
	}
	return toPVCRead(created), nil
}

// GetPVC fetches a PVC by name. A disk's ID is its PVC name: the service
// always creates PVCs named "disk-<uuid>" and passes that name through as
// the disk ID.
func (g *Gateway) GetPVC(ctx context.Context, namespace, name string) (disk.PVCRead, error) {
	pvc, err := g.Clientset.CoreV1().PersistentVolumeClaims(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return disk.PVCRead{}, translateErr("get pvc", err)
	}
	return toPVCRead(pvc), nil
}

// ListPVCs lists PVCs in a namespace, optionally filtered by a raw label
// selector expression (e.g. "k=v,!k2" to express negation); an empty
// selector lists everything.
func (g *Gateway) ListPVCs(ctx context.Context, namespace string, selector string) ([]disk.PVCRead, error) {
	opts := metav1.ListOptions{}
	if selector != "" {
		opts.LabelSelector = selector
	}
	list, err := g.Clientset.CoreV1().PersistentVolumeClaims(namespace).List(ctx, opts)
	if err != nil {
		return nil, translateErr("list pvcs", err)
	}
	out := make([]disk.PVCRead, 0, len(list.Items))
	for i := range list.Items {
		out = append(out, toPVCRead(&list.Items[i]))
	}
	return out, nil
}

// DeletePVC deletes a PVC by name; a missing PVC is reported as a
// NotFound error.
func (g *Gateway) DeletePVC(ctx context.Context, namespace, name string) error {
	err := g.Clientset.CoreV1().PersistentVolumeClaims(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil {
		return translateErr("delete pvc", err)
	}
	return nil
}

// PatchPVCLabels merge-patches the given labels onto a PVC, leaving any
// other labels untouched.
func (g *Gateway) PatchPVCLabels(ctx context.Context, namespace, name string, newLabels map[string]string) error {
	patch, err := json.Marshal(map[string]any{
		"metadata": map[string]any{"labels": newLabels},
	})
	if err != nil {
		return fmt.Errorf("marshal label patch: %w", err)
	}
	_, err = g.Clientset.CoreV1().PersistentVolumeClaims(namespace).Patch(ctx, name, types.MergePatchType, patch, metav1.PatchOptions{})
	if err != nil {
		return translateErr("patch pvc labels", err)
	}
	return nil
}

// PatchPVCAnnotations merge-patches the given annotations onto a PVC,
// leaving any other annotations untouched.
func (g *Gateway) PatchPVCAnnotations(ctx context.Context, namespace, name string, annotations map[string]string) error {
	patch, err := json.Marshal(map[string]any{
		"metadata": map[string]any{"annotations": annotations},
	})
	if err != nil {
		return fmt.Errorf("marshal annotation patch: %w", err)
	}
	_, err = g.Clientset.CoreV1().PersistentVolumeClaims(namespace).Patch(ctx, name, types.MergePatchType, patch, metav1.PatchOptions{})
	if err != nil {
		return translateErr("patch pvc annotations", err)
	}
	return nil
}
