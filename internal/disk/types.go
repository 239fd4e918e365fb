package disk

import "time"

// Status mirrors the Disk.Status enum from the original service: the PVC's
// Kubernetes phase collapsed into the three states callers care about.
type Status string

const (
	StatusPending Status = "Pending"
	StatusReady   Status = "Ready"
	StatusBroken  Status = "Broken"
)

// Disk is the domain representation of a platform disk, independent of
// its Kubernetes backing (a PersistentVolumeClaim).
type Disk struct {
	ID              string
	Name            string // empty for anonymous disks
	Org             string
	Project         string
	Owner           string
	StorageRequested int64
	StorageUsed      *int64 // the PVC's reported capacity; nil until the cluster reports one
	Status           Status
	CreatedAt        time.Time
	LastUsedAt       *time.Time
	LifeSpan         *time.Duration
}

// Request is the input to Service.Create.
type Request struct {
	Name     string // optional
	Org      string
	Project  string
	Owner    string // authenticated username creating the disk
	Storage  int64
	LifeSpan *time.Duration
}

// NamingRef is the domain view of a DiskNaming object: a stable mapping
// from a human-chosen disk name to the PVC (by ID) it currently resolves
// to, scoped to an org/project.
type NamingRef struct {
	Name      string // the DiskNaming object's own name
	DiskName  string
	Org       string
	Project   string
	DiskID    string
}
