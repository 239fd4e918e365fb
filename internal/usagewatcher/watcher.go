// Package usagewatcher runs the three background loops that keep disk
// usage metadata current: marking which disks are actively mounted,
// polling kubelet stats for bytes used, and sweeping expired disks. Each
// loop is its own goroutine under one context.Context, following
// original_source's usage_watcher.py structure generalized from one loop
// to three, and the spec's "structured concurrency" framing (no in-process
// shared mutable state: every write goes straight to the cluster).
package usagewatcher

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/watch"

	"github.com/apolo-sh/platform-disk-api/internal/disk"
	"github.com/apolo-sh/platform-disk-api/internal/k8sgateway"
)

// Gateway is the cluster-access surface the watcher needs.
type Gateway interface {
	WatchPods(ctx context.Context, namespace string, events chan<- k8sgateway.PodEvent) error
	ListNodeNames(ctx context.Context) ([]string, error)
	NodeStatsSummary(ctx context.Context, node string) (k8sgateway.StatsSummary, error)
	ListPVCsAllNamespaces(ctx context.Context) ([]disk.PVCRead, error)
	MarkDiskLastUsed(ctx context.Context, namespace, pvcName string, at time.Time) error
	SetDiskUsedBytes(ctx context.Context, namespace, pvcName string, bytes int64) error
	RemoveDisk(ctx context.Context, namespace, pvcName string) error
}

// Watcher owns the three loops.
type Watcher struct {
	gw            Gateway
	log           *zap.Logger
	pollInterval  time.Duration
	sweepInterval time.Duration
}

func New(gw Gateway, log *zap.Logger, pollInterval, sweepInterval time.Duration) *Watcher {
	return &Watcher{gw: gw, log: log, pollInterval: pollInterval, sweepInterval: sweepInterval}
}

// Run starts all three loops and blocks until ctx is cancelled or one loop
// returns a non-context-cancellation error.
func (w *Watcher) Run(ctx context.Context) error {
	errCh := make(chan error, 3)

	go func() { errCh <- w.watchDiskUsage(ctx) }()
	go func() { errCh <- w.watchUsedBytes(ctx) }()
	go func() { errCh <- w.watchLifespanEnded(ctx) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// watchDiskUsage watches every pod across namespaces (via the
// all-namespaces pseudo-namespace "") and, for every pod whose volumes
// reference a PVC, marks that PVC as in use at the current time.
func (w *Watcher) watchDiskUsage(ctx context.Context) error {
	events := make(chan k8sgateway.PodEvent, 64)
	go func() {
		if err := w.gw.WatchPods(ctx, "", events); err != nil && ctx.Err() == nil {
			w.log.Error("watch pods for disk usage", zap.Error(err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return fmt.Errorf("pod usage watch channel closed")
			}
			if ev.Type != watch.Added && ev.Type != watch.Modified {
				continue
			}
			w.markPodVolumesInUse(ctx, ev)
		}
	}
}

func (w *Watcher) markPodVolumesInUse(ctx context.Context, ev k8sgateway.PodEvent) {
	if ev.Pod == nil {
		return
	}
	for _, vol := range ev.Pod.Spec.Volumes {
		if vol.PersistentVolumeClaim == nil {
			continue
		}
		if err := w.gw.MarkDiskLastUsed(ctx, ev.Pod.Namespace, vol.PersistentVolumeClaim.ClaimName, time.Now()); err != nil {
			w.log.Warn("mark disk last used", zap.String("pvc", vol.PersistentVolumeClaim.ClaimName), zap.Error(err))
		}
	}
}

// watchUsedBytes polls every node's kubelet stats-summary once per
// pollInterval, updating each disk's observed used-byte count.
func (w *Watcher) watchUsedBytes(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.pollUsedBytesOnce(ctx)
		}
	}
}

func (w *Watcher) pollUsedBytesOnce(ctx context.Context) {
	nodes, err := w.gw.ListNodeNames(ctx)
	if err != nil {
		w.log.Error("list nodes for usage poll", zap.Error(err))
		return
	}
	for _, node := range nodes {
		summary, err := w.gw.NodeStatsSummary(ctx, node)
		if err != nil {
			w.log.Warn("fetch node stats summary", zap.String("node", node), zap.Error(err))
			continue
		}
		for _, pod := range summary.Pods {
			for _, vol := range pod.Volumes {
				if vol.PVCRef == nil || vol.UsedBytes == nil {
					continue
				}
				if err := w.gw.SetDiskUsedBytes(ctx, vol.PVCRef.Namespace, vol.PVCRef.Name, *vol.UsedBytes); err != nil {
					w.log.Warn("set disk used bytes", zap.String("pvc", vol.PVCRef.Name), zap.Error(err))
				}
			}
		}
	}
}

// watchLifespanEnded sweeps every disk once per sweepInterval, removing
// any whose life span has elapsed since its last recorded usage, or since
// creation when no usage has been recorded.
func (w *Watcher) watchLifespanEnded(ctx context.Context) error {
	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.sweepLifespanOnce(ctx)
		}
	}
}

func (w *Watcher) sweepLifespanOnce(ctx context.Context) {
	pvcs, err := w.gw.ListPVCsAllNamespaces(ctx)
	if err != nil {
		w.log.Error("list pvcs for lifespan sweep", zap.Error(err))
		return
	}
	now := time.Now()
	for _, p := range pvcs {
		if !disk.IsMarked(p.Labels) || disk.IsDeleted(p.Labels) {
			continue
		}
		lifeSpan, ok := disk.LifeSpan(p.Annotations)
		if !ok {
			continue
		}
		baseline := disk.CreatedAt(p.Annotations)
		if baseline.IsZero() {
			baseline = p.CreationTime
		}
		if lastUsed, ok := disk.LastUsage(p.Annotations); ok {
			baseline = lastUsed
		}
		if now.Before(baseline.Add(lifeSpan)) {
			continue
		}
		if err := w.gw.RemoveDisk(ctx, p.Namespace, p.Name); err != nil {
			w.log.Warn("remove expired disk", zap.String("pvc", p.Name), zap.Error(err))
		}
	}
}
