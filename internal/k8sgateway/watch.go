package k8sgateway

import (
	"context"
	"errors"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
)

// PodEvent is emitted by WatchPods for every add/modify/delete observed.
type PodEvent struct {
	Type watch.EventType
	Pod  *corev1.Pod
}

// WatchPods watches every pod in namespace, restarting the watch on a 410
// Gone (resourceVersion too old, re-list from scratch) or a 401
// Unauthorized (the bearer token may have rotated; the caller's client
// already reloads its token file on each request, so simply retrying is
// enough), the same recovery pattern as pkg/k8s/client.go's
// WatchNamespaceResources. Bookmark events are swallowed; the caller only
// sees real Added/Modified/Deleted events.
func (g *Gateway) WatchPods(ctx context.Context, namespace string, events chan<- PodEvent) error {
	resourceVersion := ""
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		opts := metav1.ListOptions{
			Watch:                true,
			ResourceVersion:      resourceVersion,
			AllowWatchBookmarks:  true,
		}
		w, err := g.Clientset.CoreV1().Pods(namespace).Watch(ctx, opts)
		if err != nil {
			if apierrors.IsResourceExpired(err) || apierrors.IsGone(err) {
				resourceVersion = ""
				continue
			}
			if apierrors.IsUnauthorized(err) {
				continue
			}
			return translateErr("watch pods", err)
		}

		if err := g.drainPodWatch(ctx, w, &resourceVersion, events); err != nil {
			if errors.Is(err, errWatchClosed) {
				continue
			}
			return err
		}
	}
}

var errWatchClosed = errors.New("watch channel closed")

func (g *Gateway) drainPodWatch(ctx context.Context, w watch.Interface, resourceVersion *string, events chan<- PodEvent) error {
	defer w.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.ResultChan():
			if !ok {
				return errWatchClosed
			}
			if ev.Type == watch.Bookmark {
				if pod, ok := ev.Object.(*corev1.Pod); ok {
					*resourceVersion = pod.ResourceVersion
				}
				continue
			}
			if ev.Type == watch.Error {
				return errWatchClosed
			}
			pod, ok := ev.Object.(*corev1.Pod)
			if !ok {
				continue
			}
			*resourceVersion = pod.ResourceVersion
			select {
			case events <- PodEvent{Type: ev.Type, Pod: pod}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
