package admission

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	admissionv1 "k8s.io/api/admission/v1"
	corev1 "k8s.io/api/core/v1"

	"go.uber.org/zap"

	"github.com/apolo-sh/platform-disk-api/internal/disk"
	"github.com/apolo-sh/platform-disk-api/internal/naming"
)

// injectionEntry is the parsed form of one entry in the pod's
// disk-injection annotation.
type injectionEntry struct {
	MountPath string `json:"mount_path"`
	DiskURI   string `json:"disk_uri"`
	MountMode string `json:"mount_mode"`
}

func (e injectionEntry) readOnly() bool {
	return e.MountMode == "r"
}

func (s *Server) handlePod(w http.ResponseWriter, r *http.Request) {
	review, err := decodeReview(r)
	if err != nil {
		s.log.Error("decode pod admission review", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !s.cfg.EnablePodInjection {
		s.writeReview(w, review, allow(nil))
		return
	}

	resp, err := s.mutatePod(r.Context(), review.Request)
	if err != nil {
		s.writeReview(w, review, toErrorResponse(err))
		return
	}
	s.writeReview(w, review, resp)
}

func (s *Server) mutatePod(ctx context.Context, req *admissionv1.AdmissionRequest) (*admissionv1.AdmissionResponse, error) {
	if req == nil {
		return allow(nil), nil
	}

	var pod corev1.Pod
	if err := json.Unmarshal(req.Object.Raw, &pod); err != nil {
		return nil, disk.Validation("decode pod object", err)
	}

	raw, ok := disk.InjectionAnnotation(pod.Annotations)
	if !ok {
		return allow(nil), nil
	}

	// §4.D: only pods that already carry their own org/project labels are
	// eligible for injection; a pod without them passes through unmutated
	// and unrejected.
	podOrg, podProject, hasLabels := disk.OrgProjectLabelsPresent(pod.Labels)
	if !hasLabels {
		return allow(nil), nil
	}

	if err := checkNamespaceAgreement(ctx, s.gateway, req.Namespace, podOrg, podProject); err != nil {
		return nil, err
	}

	var entries []injectionEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, disk.Validation("injection spec is invalid", err)
	}
	if len(entries) == 0 {
		return allow(nil), nil
	}

	namespace := naming.GenerateNamespaceName(podOrg, podProject)

	var patch []patchOp
	volumes := make([]corev1.Volume, 0, len(entries))
	mountsByContainer := map[int][]corev1.VolumeMount{}

	for _, entry := range entries {
		idOrName, diskOrg, diskProject, err := parseDiskRef(entry.DiskURI)
		if err != nil {
			return nil, err
		}
		if diskOrg != "" && diskOrg != podOrg {
			return nil, disk.Permission("metadata value mismatch", nil)
		}
		if diskProject != "" && diskProject != podProject {
			return nil, disk.Permission("metadata value mismatch", nil)
		}

		pvcName, err := resolveDiskPVCName(ctx, s.gateway, namespace, podOrg, podProject, idOrName)
		if err != nil {
			return nil, err
		}

		volName := disk.InjectedVolumeName()
		volumes = append(volumes, corev1.Volume{
			Name: volName,
			VolumeSource: corev1.VolumeSource{
				PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{
					ClaimName: pvcName,
					ReadOnly:  entry.readOnly(),
				},
			},
		})
		for c := range pod.Spec.Containers {
			mountsByContainer[c] = append(mountsByContainer[c], corev1.VolumeMount{
				Name:      volName,
				MountPath: entry.MountPath,
				ReadOnly:  entry.readOnly(),
			})
		}
	}

	if len(pod.Spec.Volumes) == 0 {
		patch = append(patch, addOp("/spec/volumes", volumes))
	} else {
		patch = append(patch, addOp("/spec/volumes/-", volumes))
	}

	for c, mounts := range mountsByContainer {
		existing := pod.Spec.Containers[c].VolumeMounts
		path := fmt.Sprintf("/spec/containers/%d/volumeMounts", c)
		if len(existing) == 0 {
			patch = append(patch, addOp(path, mounts))
		} else {
			patch = append(patch, addOp(path+"/-", mounts))
		}
	}

	return allow(patch), nil
}

// checkNamespaceAgreement enforces that the pod's own org/project labels
// agree with the namespace it is being admitted into, once both are
// known to be present on the pod (§4.D's single-tenant-per-pod
// invariant). A disagreement is a permission failure (403), not a
// malformed request (422).
func checkNamespaceAgreement(ctx context.Context, gw NamespaceLookup, namespace, podOrg, podProject string) error {
	nsOrg, nsProject, err := gw.NamespaceOrgProject(ctx, namespace)
	if err != nil {
		return err
	}
	if podOrg != nsOrg || podProject != nsProject {
		return disk.Permission("metadata value mismatch", nil)
	}
	return nil
}

// resolveDiskPVCName resolves a disk reference that may be either the
// disk's own ID (its PVC name) or a human-chosen disk name, trying the
// ID interpretation first and falling back to a DiskNaming lookup, so a
// caller never has to know which form it is passing.
func resolveDiskPVCName(ctx context.Context, gw NamespaceLookup, namespace, org, project, idOrName string) (string, error) {
	if pvc, err := gw.GetPVC(ctx, namespace, idOrName); err == nil {
		return pvc.Name, nil
	} else if disk.KindOf(err) != disk.KindNotFound {
		return "", err
	}

	dnName := naming.DiskNamingName(idOrName, org, project)
	ref, err := gw.GetDiskNaming(ctx, namespace, dnName)
	if err != nil {
		return "", err
	}
	return ref.DiskID, nil
}

// parseDiskRef accepts either a bare disk ID/name, or the full
// disk://<cluster>/<org>/<project>/<id-or-name> URI, returning the parsed
// org/project when the URI form was used (empty strings otherwise, which
// callers treat as "no constraint to check").
func parseDiskRef(ref string) (id, org, project string, err error) {
	if !strings.HasPrefix(ref, "disk://") {
		return ref, "", "", nil
	}
	rest := strings.TrimPrefix(ref, "disk://")
	parts := strings.Split(rest, "/")
	if len(parts) != 4 {
		return "", "", "", disk.Validation(fmt.Sprintf("invalid disk uri %q", ref), nil)
	}
	_, org, project, idOrName := parts[0], parts[1], parts[2], parts[3]
	return idOrName, org, project, nil
}
