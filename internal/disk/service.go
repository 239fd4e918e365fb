package disk

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/apolo-sh/platform-disk-api/internal/naming"
)

// Service implements disk create/get/list/remove against a Gateway,
// generalizing original_source's Service from a single flat namespace to
// org/project-scoped namespaces and named (not just anonymous) disks.
type Service struct {
	gateway          Gateway
	storageClassName string
	storageLimit     int64 // per-project byte limit; 0 disables enforcement
}

func NewService(gateway Gateway, storageClassName string, storageLimitBytes int64) *Service {
	return &Service{
		gateway:          gateway,
		storageClassName: storageClassName,
		storageLimit:     storageLimitBytes,
	}
}

func (s *Service) namespace(org, project string) string {
	return naming.GenerateNamespaceName(org, project)
}

// Create provisions a new disk. The disk's ID is chosen up front as the
// PVC name it will carry, so a named disk's DiskNaming object can be
// created before the PVC itself exists: a name collision then surfaces as
// a Conflict from CreateDiskNaming, before any storage is provisioned. If
// the PVC create subsequently fails, the DiskNaming is compensated away.
func (s *Service) Create(ctx context.Context, req Request) (Disk, error) {
	ns := s.namespace(req.Org, req.Project)

	if s.storageLimit > 0 {
		used, err := s.projectStorageUsed(ctx, ns)
		if err != nil {
			return Disk{}, err
		}
		if used+req.Storage > s.storageLimit {
			return Disk{}, QuotaExceeded(fmt.Sprintf("project storage limit of %d bytes exceeded", s.storageLimit), nil)
		}
	}

	pvcName := "disk-" + uuid.NewString()

	var dnName string
	if req.Name != "" {
		dnName = naming.DiskNamingName(req.Name, req.Org, req.Project)
		ref := NamingRef{Name: dnName, DiskName: req.Name, Org: req.Org, Project: req.Project, DiskID: pvcName}
		if err := s.gateway.CreateDiskNaming(ctx, ref); err != nil {
			if KindOf(err) == KindConflict {
				return Disk{}, Conflict(fmt.Sprintf("disk with name %q already exists", req.Name), err)
			}
			return Disk{}, fmt.Errorf("create disk naming: %w", err)
		}
	}

	createdAt := time.Now()
	labels := BuildPVCLabels(req.Org, req.Project, req.Owner)
	for k, v := range MarkLabels() {
		labels[k] = v
	}
	annotations := BuildPVCAnnotations(req.Name, createdAt)
	if req.LifeSpan != nil {
		for k, v := range LifeSpanAnnotations(*req.LifeSpan) {
			annotations[k] = v
		}
	}

	write := PVCWrite{
		Namespace:        ns,
		Name:             pvcName,
		StorageClassName: s.storageClassName,
		StorageRequested: req.Storage,
		Labels:           labels,
		Annotations:      annotations,
	}

	read, err := s.gateway.CreatePVC(ctx, write)
	if err != nil {
		if dnName != "" {
			if delErr := s.gateway.DeleteDiskNaming(ctx, ns, dnName); delErr != nil && KindOf(delErr) != KindNotFound {
				return Disk{}, fmt.Errorf("create disk pvc: %w (compensating disk naming delete also failed: %v)", err, delErr)
			}
		}
		return Disk{}, fmt.Errorf("create disk pvc: %w", err)
	}

	d := pvcToDisk(read)
	d.Name = req.Name
	d.LifeSpan = req.LifeSpan
	return d, nil
}

// RemoveProjectDisks deletes every disk belonging to a project, used by
// the project-event consumer when a project is torn down.
func (s *Service) RemoveProjectDisks(ctx context.Context, org, project string) error {
	disks, err := s.List(ctx, org, project)
	if err != nil {
		return fmt.Errorf("list disks for project removal: %w", err)
	}
	for _, d := range disks {
		if err := s.Remove(ctx, org, project, d.ID); err != nil && KindOf(err) != KindNotFound {
			return fmt.Errorf("remove disk %q: %w", d.ID, err)
		}
	}
	return nil
}

func (s *Service) projectStorageUsed(ctx context.Context, namespace string) (int64, error) {
	pvcs, err := s.gateway.ListPVCs(ctx, namespace, LiveSelector())
	if err != nil {
		return 0, fmt.Errorf("list pvcs for quota check: %w", err)
	}
	var total int64
	for _, p := range pvcs {
		total += p.StorageRequested
	}
	return total, nil
}

// Get fetches a disk by its PVC (== disk) ID within an org/project.
func (s *Service) Get(ctx context.Context, org, project, id string) (Disk, error) {
	ns := s.namespace(org, project)
	read, err := s.gateway.GetPVC(ctx, ns, id)
	if err != nil {
		return Disk{}, err
	}
	d := pvcToDisk(read)
	if name, ok := DiskName(read.Annotations); ok {
		d.Name = name
	}
	return d, nil
}

// GetByName resolves a named disk via its DiskNaming object, then fetches
// the PVC it points to.
func (s *Service) GetByName(ctx context.Context, org, project, name string) (Disk, error) {
	ns := s.namespace(org, project)
	dnName := naming.DiskNamingName(name, org, project)
	ref, err := s.gateway.GetDiskNaming(ctx, ns, dnName)
	if err != nil {
		return Disk{}, err
	}
	return s.Get(ctx, org, project, ref.DiskID)
}

// List returns every live (managed, not-yet-deleted-marked) disk in an
// org/project.
func (s *Service) List(ctx context.Context, org, project string) ([]Disk, error) {
	ns := s.namespace(org, project)
	pvcs, err := s.gateway.ListPVCs(ctx, ns, LiveSelector())
	if err != nil {
		return nil, err
	}
	disks := make([]Disk, 0, len(pvcs))
	for _, p := range pvcs {
		d := pvcToDisk(p)
		if name, ok := DiskName(p.Annotations); ok {
			d.Name = name
		}
		disks = append(disks, d)
	}
	return disks, nil
}

// Remove tears a disk down in three steps: delete its DiskNaming object
// (if named), patch the deleted-mark label onto the PVC so concurrent
// lists exclude it, then delete the PVC itself. The deleted-mark step
// guarantees no List/quota-scan observes a disk whose storage has already
// vanished underneath it.
func (s *Service) Remove(ctx context.Context, org, project, id string) error {
	ns := s.namespace(org, project)
	read, err := s.gateway.GetPVC(ctx, ns, id)
	if err != nil {
		return err
	}
	if name, ok := DiskName(read.Annotations); ok {
		dnName := naming.DiskNamingName(name, org, project)
		if err := s.gateway.DeleteDiskNaming(ctx, ns, dnName); err != nil && KindOf(err) != KindNotFound {
			return fmt.Errorf("delete disk naming: %w", err)
		}
	}
	if err := s.gateway.PatchPVCLabels(ctx, ns, id, DeletedMarkLabels()); err != nil && KindOf(err) != KindNotFound {
		return fmt.Errorf("mark disk deleted: %w", err)
	}
	if err := s.gateway.DeletePVC(ctx, ns, id); err != nil {
		return fmt.Errorf("delete disk pvc: %w", err)
	}
	return nil
}

var phaseToStatus = map[Phase]Status{
	PhasePending: StatusPending,
	PhaseBound:   StatusReady,
	PhaseLost:    StatusBroken,
}

// pvcToDisk maps a PVCRead onto the domain Disk type, generalizing
// original_source's Service._pvc_to_disk: StorageRequested carries the
// requested size and StorageUsed the PVC's reported capacity (nil until
// the cluster reports one), and CreatedAt backfills from the PVC's own creation timestamp when the
// annotation is absent (e.g. disks created before the annotation existed).
// The disk ID is the PVC's own name (§3/§4.C), not its Kubernetes UID:
// GetPVC/DeletePVC fetch by name, so a UID-sourced ID could never
// round-trip to the PVC a Create just returned.
func pvcToDisk(p PVCRead) Disk {
	org, project, user := OrgProjectUser(p.Labels)
	createdAt := CreatedAt(p.Annotations)
	if createdAt.IsZero() {
		createdAt = p.CreationTime
	}
	var lastUsed *time.Time
	if t, ok := LastUsage(p.Annotations); ok {
		lastUsed = &t
	}
	return Disk{
		ID:               p.Name,
		Org:              org,
		Project:          project,
		Owner:            user,
		StorageRequested: p.StorageRequested,
		StorageUsed:      p.StorageReal,
		Status:           phaseToStatus[p.Phase],
		CreatedAt:        createdAt,
		LastUsedAt:       lastUsed,
	}
}
