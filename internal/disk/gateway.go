package disk

import (
	"context"
	"time"
)

// Phase mirrors a Kubernetes PersistentVolumeClaim's status.phase.
type Phase string

const (
	PhasePending Phase = "Pending"
	PhaseBound   Phase = "Bound"
	PhaseLost    Phase = "Lost"
)

// PVCWrite is everything the gateway needs to create a disk's backing PVC.
type PVCWrite struct {
	Namespace        string
	Name             string
	StorageClassName string
	StorageRequested int64
	Labels           map[string]string
	Annotations      map[string]string
}

// PVCRead is the gateway's read-side view of a PersistentVolumeClaim,
// generalizing kube_client.py's PersistentVolumeClaimRead.
type PVCRead struct {
	Namespace        string
	Name             string
	UID              string
	Phase            Phase
	StorageRequested int64
	StorageReal      *int64
	Labels           map[string]string
	Annotations      map[string]string
	CreationTime     time.Time
}

// Gateway is the subset of the Kubernetes API the disk service needs.
// internal/k8sgateway implements this against a real or fake clientset;
// tests substitute a hand-written mock_disk.MockGateway.
type Gateway interface {
	CreatePVC(ctx context.Context, pvc PVCWrite) (PVCRead, error)
	GetPVC(ctx context.Context, namespace, name string) (PVCRead, error)
	// ListPVCs takes a raw label selector expression (e.g. "k=v,!k2") so
	// callers can express negation, which a map[string]string cannot.
	ListPVCs(ctx context.Context, namespace string, labelSelector string) ([]PVCRead, error)
	DeletePVC(ctx context.Context, namespace, name string) error
	PatchPVCLabels(ctx context.Context, namespace, name string, labels map[string]string) error
	PatchPVCAnnotations(ctx context.Context, namespace, name string, annotations map[string]string) error

	GetDiskNaming(ctx context.Context, namespace, name string) (NamingRef, error)
	CreateDiskNaming(ctx context.Context, ref NamingRef) error
	DeleteDiskNaming(ctx context.Context, namespace, name string) error
}
