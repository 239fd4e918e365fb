package disk

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// The platform carries two label/annotation vocabularies side by side: the
// legacy "neuromation.io"/"platform.neuromation.io" family still read by
// older controllers, and the current "platform.apolo.us" family. Every
// writer in this repository sets both; every reader unions them, current
// family first. Keeping the mapping in one table (rather than repeating both key
// strings at every call site) means there is exactly one place that knows
// about both families, matching original_source's DISK_ANNOTATION_MAP.
//
// Key literals below follow the authoritative table: mark, deleted-mark,
// and org use distinct per-family strings; project and user reuse the
// same local name across both families.

const (
	legacyMarkLabel  = "platform.neuromation.io/disk-api-pvc"
	apoloMarkLabel   = "platform.apolo.us/disk"
	legacyDeletedMarkLabel = "platform.neuromation.io/disk-api-pvc-deleted"
	apoloDeletedMarkLabel  = "platform.apolo.us/disk-deleted"

	legacyOrgLabel     = "platform.neuromation.io/disk-api-org-name"
	apoloOrgLabel      = "platform.apolo.us/org"
	legacyProjectLabel = "platform.neuromation.io/project"
	apoloProjectLabel  = "platform.apolo.us/project"
	legacyUserLabel    = "platform.neuromation.io/user"
	apoloUserLabel     = "platform.apolo.us/user"

	legacyNameAnnotation      = "platform.neuromation.io/disk-api-name"
	apoloNameAnnotation       = "platform.apolo.us/disk-api-name"
	legacyCreatedAtAnnotation = "platform.neuromation.io/disk-api-created-at"
	apoloCreatedAtAnnotation  = "platform.apolo.us/disk-api-created-at"
	legacyLastUsageAnnotation = "platform.neuromation.io/disk-api-last-usage"
	apoloLastUsageAnnotation  = "platform.apolo.us/disk-api-last-usage"
	legacyLifeSpanAnnotation  = "platform.neuromation.io/disk-api-life-span"
	apoloLifeSpanAnnotation   = "platform.apolo.us/disk-api-life-span"
	legacyUsedBytesAnnotation = "platform.neuromation.io/disk-api-used-bytes"
	apoloUsedBytesAnnotation  = "platform.apolo.us/disk-api-used-bytes"

	// injectAnnotation carries no legacy counterpart; it is read by this
	// repository's own admission webhook only, never by an older
	// controller.
	injectAnnotation = "platform.apolo.us/inject-disk"

	injectedVolumeNamePrefix = "disk-auto-injected-volume-"

	noOrg = "no-org"
)

// labelPair is one (legacy key, current key) pair. A writer sets both
// keys to the same value; a reader checks the current key first, falling
// back to the legacy one.
type labelPair struct {
	Legacy, Apolo string
}

var orgLabelPair = labelPair{legacyOrgLabel, apoloOrgLabel}
var projectLabelPair = labelPair{legacyProjectLabel, apoloProjectLabel}
var userLabelPair = labelPair{legacyUserLabel, apoloUserLabel}
var nameAnnotationPair = labelPair{legacyNameAnnotation, apoloNameAnnotation}
var createdAtAnnotationPair = labelPair{legacyCreatedAtAnnotation, apoloCreatedAtAnnotation}
var lastUsageAnnotationPair = labelPair{legacyLastUsageAnnotation, apoloLastUsageAnnotation}
var lifeSpanAnnotationPair = labelPair{legacyLifeSpanAnnotation, apoloLifeSpanAnnotation}
var usedBytesAnnotationPair = labelPair{legacyUsedBytesAnnotation, apoloUsedBytesAnnotation}
var markLabelPair = labelPair{legacyMarkLabel, apoloMarkLabel}
var deletedMarkLabelPair = labelPair{legacyDeletedMarkLabel, apoloDeletedMarkLabel}

// dualLabelPairs lists every label pair a PVC or DiskNaming object for a
// disk should carry. Iterated by both writers (BuildPVCLabels) and the
// migration job, so adding a new dual-vocabulary field only means editing
// this slice.
var dualLabelPairs = []struct {
	Pair  labelPair
	Value func(org, project, user string) string
}{
	{orgLabelPair, func(org, _, _ string) string { return org }},
	{projectLabelPair, func(_, project, _ string) string { return project }},
	{userLabelPair, func(_, _, user string) string { return user }},
}

// setDual writes value into both keys of pair within m, creating m if nil.
func setDual(m map[string]string, pair labelPair, value string) map[string]string {
	if m == nil {
		m = map[string]string{}
	}
	m[pair.Legacy] = value
	m[pair.Apolo] = value
	return m
}

// getDual reads the current-family key first, falling back to legacy.
func getDual(m map[string]string, pair labelPair) (string, bool) {
	if v, ok := m[pair.Apolo]; ok {
		return v, true
	}
	if v, ok := m[pair.Legacy]; ok {
		return v, true
	}
	return "", false
}

// sanitizeOwner turns a user login into a valid label value: Kubernetes
// label values cannot contain "/", so per §3 the owner's "/" is
// substituted with "--" before storage.
func sanitizeOwner(owner string) string {
	return strings.ReplaceAll(owner, "/", "--")
}

// BuildPVCLabels returns the label set a disk's PVC must carry, with both
// label families populated for org/project/user.
func BuildPVCLabels(org, project, owner string) map[string]string {
	if org == "" {
		org = noOrg
	}
	var labels map[string]string
	for _, f := range dualLabelPairs {
		labels = setDual(labels, f.Pair, f.Value(org, project, sanitizeOwner(owner)))
	}
	return labels
}

// BuildPVCAnnotations returns the annotation set a named disk's PVC must
// carry: the disk's chosen name and its creation timestamp, in both
// annotation families.
func BuildPVCAnnotations(name string, createdAt time.Time) map[string]string {
	ann := setDual(nil, nameAnnotationPair, name)
	ann = setDual(ann, createdAtAnnotationPair, createdAt.UTC().Format(time.RFC3339))
	return ann
}

// LastUsageAnnotations returns the merge-patch annotation set recording a
// disk's last-observed-mounted time, in both families.
func LastUsageAnnotations(at time.Time) map[string]string {
	return setDual(nil, lastUsageAnnotationPair, at.UTC().Format(time.RFC3339))
}

// UsedBytesAnnotations returns the merge-patch annotation set recording a
// disk's kubelet-observed used-byte count, in both families.
func UsedBytesAnnotations(bytes int64) map[string]string {
	return setDual(nil, usedBytesAnnotationPair, strconv.FormatInt(bytes, 10))
}

// LifeSpanAnnotations returns the merge-patch annotation set recording a
// disk's configured life span, in both families.
func LifeSpanAnnotations(d time.Duration) map[string]string {
	return setDual(nil, lifeSpanAnnotationPair, d.String())
}

// DeletedMarkLabels returns the deleted-mark label, in both families, set
// to "true". Writers patch this onto a PVC as the first step of deletion
// so concurrent lists exclude it before the PVC itself is gone.
func DeletedMarkLabels() map[string]string {
	return setDual(nil, deletedMarkLabelPair, "true")
}

// OrgProjectUser reads the org/project/user triple from a PVC's labels,
// unioning legacy and current families. A missing org is normalized to
// "no-org" rather than left empty.
func OrgProjectUser(labels map[string]string) (org, project, user string) {
	if v, ok := getDual(labels, orgLabelPair); ok {
		org = v
	} else {
		org = noOrg
	}
	project, _ = getDual(labels, projectLabelPair)
	user, _ = getDual(labels, userLabelPair)
	return org, project, user
}

// OrgProjectLabelsPresent reports the raw org/project label values on an
// object (no "no-org" defaulting) and whether BOTH were actually present.
// Used by the pod admission webhook, which must leave a pod untouched
// (not error) when it carries no org/project labels of its own, rather
// than treating an absent org as the sentinel "no-org".
func OrgProjectLabelsPresent(labels map[string]string) (org, project string, ok bool) {
	org, orgOK := getDual(labels, orgLabelPair)
	project, projectOK := getDual(labels, projectLabelPair)
	return org, project, orgOK && projectOK
}

// DiskName reads the disk's human-chosen name from a PVC's annotations, if
// one was given; ok is false for anonymous disks.
func DiskName(annotations map[string]string) (name string, ok bool) {
	name, ok = getDual(annotations, nameAnnotationPair)
	return name, ok && name != ""
}

// CreatedAt reads the disk's creation timestamp from a PVC's annotations,
// falling back to zero time when absent (backfilled by callers from the
// PVC's own CreationTimestamp).
func CreatedAt(annotations map[string]string) time.Time {
	v, ok := getDual(annotations, createdAtAnnotationPair)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// LastUsage reads the disk's last-observed-mounted timestamp, if any.
func LastUsage(annotations map[string]string) (time.Time, bool) {
	v, ok := getDual(annotations, lastUsageAnnotationPair)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// LifeSpan reads the disk's configured life span, if any.
func LifeSpan(annotations map[string]string) (time.Duration, bool) {
	v, ok := getDual(annotations, lifeSpanAnnotationPair)
	if !ok || v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}

// UsedBytes reads the disk's kubelet-observed used-byte count, if any has
// been recorded yet.
func UsedBytes(annotations map[string]string) (int64, bool) {
	v, ok := getDual(annotations, usedBytesAnnotationPair)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsMarked reports whether a PVC carries the disk-API mark label used by
// the migration job and the service's list/quota scans to find PVCs it
// owns, in either label family.
func IsMarked(labels map[string]string) bool {
	_, legacy := labels[legacyMarkLabel]
	_, apolo := labels[apoloMarkLabel]
	return legacy || apolo
}

// IsDeleted reports whether a PVC carries the deleted-mark label, in
// either family.
func IsDeleted(labels map[string]string) bool {
	_, legacy := labels[legacyDeletedMarkLabel]
	_, apolo := labels[apoloDeletedMarkLabel]
	return legacy || apolo
}

// MarkLabels returns the mark label, in both families, set to "true".
func MarkLabels() map[string]string {
	return setDual(nil, markLabelPair, "true")
}

// LiveSelector is the label selector identifying "live" disks: managed
// (mark=true) and not yet deleted-marked. Built off the current-family
// keys only, since every writer in this repository always sets both
// families together.
func LiveSelector() string {
	return apoloMarkLabel + "=true,!" + apoloDeletedMarkLabel
}

// InjectionAnnotation reads the raw pod injection annotation value.
func InjectionAnnotation(annotations map[string]string) (string, bool) {
	v, ok := annotations[injectAnnotation]
	return v, ok
}

// InjectedVolumeName derives a fresh, collision-resistant name for a
// volume injected into a pod by the admission webhook.
func InjectedVolumeName() string {
	return injectedVolumeNamePrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
