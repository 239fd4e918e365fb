package admission

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	admissionv1 "k8s.io/api/admission/v1"
	corev1 "k8s.io/api/core/v1"

	"go.uber.org/zap"

	"github.com/apolo-sh/platform-disk-api/internal/disk"
	"github.com/apolo-sh/platform-disk-api/internal/naming"
)

// statefulSetOrdinal extracts the trailing "-<N>" ordinal a StatefulSet's
// volumeClaimTemplate controller appends to a PVC name
// ("<template>-<statefulset>-<ordinal>"), if present.
var statefulSetOrdinal = regexp.MustCompile(`-(\d+)$`)

func (s *Server) handlePVC(w http.ResponseWriter, r *http.Request) {
	review, err := decodeReview(r)
	if err != nil {
		s.log.Error("decode pvc admission review", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := s.mutatePVC(r.Context(), review.Request)
	if err != nil {
		s.writeReview(w, review, toErrorResponse(err))
		return
	}
	s.writeReview(w, review, resp)
}

func (s *Server) mutatePVC(ctx context.Context, req *admissionv1.AdmissionRequest) (*admissionv1.AdmissionResponse, error) {
	if req == nil {
		return allow(nil), nil
	}

	var pvc corev1.PersistentVolumeClaim
	if err := json.Unmarshal(req.Object.Raw, &pvc); err != nil {
		return nil, disk.Validation("decode pvc object", err)
	}

	org, project, err := s.gateway.NamespaceOrgProject(ctx, req.Namespace)
	if err != nil {
		return nil, err
	}
	if org == "" || project == "" {
		// Not a platform-managed namespace; pass through unchanged.
		return allow(nil), nil
	}

	var patch []patchOp

	existingLabels := pvc.Labels
	_, _, existingOwner := disk.OrgProjectUser(existingLabels)
	wantLabels := disk.BuildPVCLabels(org, project, existingOwner)
	for k, v := range disk.MarkLabels() {
		wantLabels[k] = v
	}
	patch = append(patch, labelPatches(existingLabels, wantLabels)...)

	if cls, ok := s.resolveStorageClass(ctx, pvc.Spec.StorageClassName); ok {
		patch = append(patch, replaceOp("/spec/storageClassName", cls))
	}

	diskName, hasName := disk.DiskName(pvc.Annotations)
	if hasName {
		diskName = withStatefulSetOrdinal(diskName, pvc.Name)
		patch = append(patch, annotationPatches(pvc.Annotations, disk.BuildPVCAnnotations(diskName, pvcTimestampOr(pvc)))...)

		if err := s.ensureDiskNaming(ctx, org, project, diskName, pvc.Name); err != nil {
			return nil, err
		}
	}

	return allow(patch), nil
}

// resolveStorageClass reports whether the PVC's requested storage class is
// missing or not the cluster's canonical one, returning the class it
// should be overridden to when so.
func (s *Server) resolveStorageClass(ctx context.Context, requested *string) (string, bool) {
	cluster, err := s.gateway.ClusterStorageClass(ctx)
	if err != nil || cluster == "" {
		return "", false
	}
	if requested != nil && *requested == cluster {
		return "", false
	}
	return cluster, true
}

func withStatefulSetOrdinal(diskName, pvcName string) string {
	m := statefulSetOrdinal.FindStringSubmatch(pvcName)
	if m == nil {
		return diskName
	}
	if strings.HasSuffix(diskName, "-"+m[1]) {
		return diskName
	}
	return diskName + "-" + m[1]
}

func pvcTimestampOr(pvc corev1.PersistentVolumeClaim) time.Time {
	if pvc.CreationTimestamp.IsZero() {
		// The object being admitted is not persisted yet, so its own
		// CreationTimestamp is still the zero value.
		return time.Now()
	}
	return pvc.CreationTimestamp.Time
}

// ensureDiskNaming creates the DiskNaming object pointing at pvcName,
// following §4.C's create-then-reconcile flow: attempt the create
// directly (no pre-emptive GET, which would race a concurrent creator),
// and on Conflict fetch the existing object to tell an idempotent
// re-invocation (same PVC) from a genuine name collision (different PVC).
func (s *Server) ensureDiskNaming(ctx context.Context, org, project, diskName, pvcName string) error {
	name := naming.DiskNamingName(diskName, org, project)
	namespace := naming.GenerateNamespaceName(org, project)
	err := s.gateway.CreateDiskNaming(ctx, disk.NamingRef{
		Name:     name,
		DiskName: diskName,
		Org:      org,
		Project:  project,
		DiskID:   pvcName,
	})
	if err == nil {
		return nil
	}
	if disk.KindOf(err) != disk.KindConflict {
		return err
	}
	existing, getErr := s.gateway.GetDiskNaming(ctx, namespace, name)
	if getErr != nil {
		return err
	}
	if existing.DiskID == pvcName {
		// Idempotent re-invocation: DiskNaming already points at this PVC.
		return nil
	}
	return err
}

// labelPatches returns JSON Patch "add" ops for any wanted label missing or
// differing from existing.
func labelPatches(existing, want map[string]string) []patchOp {
	var ops []patchOp
	base := "/metadata/labels/"
	first := len(existing) == 0
	for k, v := range want {
		if existing[k] == v {
			continue
		}
		if first {
			ops = append(ops, addOp("/metadata/labels", want))
			return ops
		}
		ops = append(ops, addOp(base+pathEscape(k), v))
	}
	return ops
}

func annotationPatches(existing, want map[string]string) []patchOp {
	var ops []patchOp
	base := "/metadata/annotations/"
	first := len(existing) == 0
	for k, v := range want {
		if existing[k] == v {
			continue
		}
		if first {
			ops = append(ops, addOp("/metadata/annotations", want))
			return ops
		}
		ops = append(ops, addOp(base+pathEscape(k), v))
	}
	return ops
}
