// Package migration implements the one-shot namespace migration job: for
// every marked PVC sitting in a flat legacy namespace, it moves the
// underlying volume into the org/project-derived namespace without
// provisioning a new volume, following
// original_source/platform_disk_api/project_namespace_migration_job.py's
// migrate_disk algorithm almost step for step.
package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/apolo-sh/platform-disk-api/internal/disk"
	"github.com/apolo-sh/platform-disk-api/internal/naming"
)

// ErrPVCInUse is returned when a PVC scheduled for migration is still
// mounted by a running pod; migrate_disk's Python counterpart raises
// PvcInUseError in the same situation and the caller retries later.
var ErrPVCInUse = errors.New("pvc is still mounted by a running pod")

// PVCRef is the minimal view of a legacy-namespace PVC the migrator reads.
type PVCRef struct {
	Namespace string
	Name      string
	UID       string
	Bound     bool
	Labels    map[string]string
	PVName    string
}

// Gateway is the cluster-access surface the migrator needs. It is
// implemented by k8sgateway.Gateway (internal/k8sgateway/migration.go),
// which cmd/migrate passes in; it is kept separate here so the algorithm
// is unit-testable against a fake.
type Gateway interface {
	ListMarkedPVCs(ctx context.Context, legacyNamespace string) ([]PVCRef, error)
	EnsureNamespaceExists(ctx context.Context, namespace string) error
	PodsMountingPVC(ctx context.Context, namespace, pvcName string) (int, error)
	SetReclaimPolicyRetain(ctx context.Context, pvName string) error
	SetReclaimPolicyDelete(ctx context.Context, pvName string) error
	DeletePVCAndWait(ctx context.Context, namespace, name string, timeout time.Duration) error
	ClearClaimRef(ctx context.Context, pvName string) error
	CreatePVCBoundToPV(ctx context.Context, namespace, name, pvName string, labels, annotations map[string]string) error
	WaitClaimRefSet(ctx context.Context, pvName string, timeout time.Duration) error
	DeleteDiskNaming(ctx context.Context, namespace, name string) error
	CreateDiskNaming(ctx context.Context, ref disk.NamingRef) error
}

type Migrator struct {
	gw  Gateway
	log *zap.Logger
}

func New(gw Gateway, log *zap.Logger) *Migrator {
	return &Migrator{gw: gw, log: log}
}

// Run migrates every marked PVC found in legacyNamespace. It does not stop
// at the first failure: a disk whose pod is still running is skipped (to
// be retried on a future invocation) while the rest proceed.
func (m *Migrator) Run(ctx context.Context, legacyNamespace string) error {
	pvcs, err := m.gw.ListMarkedPVCs(ctx, legacyNamespace)
	if err != nil {
		return fmt.Errorf("list marked pvcs in %q: %w", legacyNamespace, err)
	}

	var firstErr error
	for _, pvc := range pvcs {
		if err := m.migrateDisk(ctx, legacyNamespace, pvc); err != nil {
			if errors.Is(err, ErrPVCInUse) {
				m.log.Info("pvc still in use, will retry later", zap.String("pvc", pvc.Name))
				continue
			}
			m.log.Error("migrate disk failed", zap.String("pvc", pvc.Name), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// migrateDisk moves one PVC's volume into its org/project namespace,
// following migrate_disk: resolve destination -> (if bound) flip reclaim
// policy to Retain -> delete old PVC -> clear claimRef -> create new PVC
// preserving the PV binding and both label families -> flip reclaim
// policy back to Delete -> recreate DiskNaming in the destination.
func (m *Migrator) migrateDisk(ctx context.Context, legacyNamespace string, pvc PVCRef) error {
	org, project := resolveOrgProject(pvc.Labels)
	destNamespace := naming.GenerateNamespaceName(org, project)

	if err := m.gw.EnsureNamespaceExists(ctx, destNamespace); err != nil {
		return fmt.Errorf("ensure destination namespace %q: %w", destNamespace, err)
	}

	if !pvc.Bound {
		// Nothing bound yet; nothing to preserve, so just let a future
		// pass handle it once it binds.
		return nil
	}

	mounts, err := m.gw.PodsMountingPVC(ctx, legacyNamespace, pvc.Name)
	if err != nil {
		return fmt.Errorf("check pods mounting pvc %q: %w", pvc.Name, err)
	}
	if mounts > 0 {
		return ErrPVCInUse
	}

	if err := m.gw.SetReclaimPolicyRetain(ctx, pvc.PVName); err != nil {
		return fmt.Errorf("set reclaim policy retain on pv %q: %w", pvc.PVName, err)
	}

	if err := m.gw.DeletePVCAndWait(ctx, legacyNamespace, pvc.Name, 2*time.Minute); err != nil {
		return fmt.Errorf("delete old pvc %q: %w", pvc.Name, err)
	}

	if err := m.gw.ClearClaimRef(ctx, pvc.PVName); err != nil {
		return fmt.Errorf("clear claimref on pv %q: %w", pvc.PVName, err)
	}

	labels := disk.BuildPVCLabels(org, project, "")
	for k, v := range disk.MarkLabels() {
		labels[k] = v
	}
	annotations := disk.BuildPVCAnnotations("", time.Now()) // name/created-at preserved by caller if present

	if err := m.gw.CreatePVCBoundToPV(ctx, destNamespace, pvc.Name, pvc.PVName, labels, annotations); err != nil {
		return fmt.Errorf("create migrated pvc %q: %w", pvc.Name, err)
	}

	if err := m.gw.WaitClaimRefSet(ctx, pvc.PVName, 2*time.Minute); err != nil {
		return fmt.Errorf("wait for claimref on pv %q: %w", pvc.PVName, err)
	}

	if err := m.gw.SetReclaimPolicyDelete(ctx, pvc.PVName); err != nil {
		return fmt.Errorf("restore reclaim policy delete on pv %q: %w", pvc.PVName, err)
	}

	if name, ok := disk.DiskName(annotations); ok && name != "" {
		oldName := naming.DiskNamingName(name, org, project)
		if err := m.gw.DeleteDiskNaming(ctx, legacyNamespace, oldName); err != nil {
			m.log.Warn("delete old disk naming", zap.String("name", oldName), zap.Error(err))
		}
		if err := m.gw.CreateDiskNaming(ctx, disk.NamingRef{Name: oldName, DiskName: name, Org: org, Project: project, DiskID: pvc.Name}); err != nil {
			return fmt.Errorf("recreate disk naming %q in %q: %w", oldName, destNamespace, err)
		}
	}

	return nil
}

// resolveOrgProject reads org/project from the PVC's own labels, falling
// back to splitting the legacy "user" label on "--" the way
// project_namespace_migration_job.py does for PVCs created before org/
// project labels existed.
func resolveOrgProject(labels map[string]string) (org, project string) {
	org, project, user := disk.OrgProjectUser(labels)
	if project != "" {
		return org, project
	}
	parts := strings.SplitN(user, "--", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return org, user
}
