package k8sgateway

import (
	"context"
	"testing"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8sfake "k8s.io/client-go/kubernetes/fake"
)

func TestWatchPodsDeliversAddedEvent(t *testing.T) {
	clientset := k8sfake.NewSimpleClientset()
	g := &Gateway{Clientset: clientset}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events := make(chan PodEvent, 1)
	done := make(chan error, 1)
	go func() { done <- g.WatchPods(ctx, "ns1", events) }()

	_, err := clientset.CoreV1().Pods("ns1").Create(ctx, &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "pod-a", Namespace: "ns1"},
	}, metav1.CreateOptions{})
	if err != nil {
		t.Fatalf("create pod: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Pod.Name != "pod-a" {
			t.Fatalf("got pod %q, want pod-a", ev.Pod.Name)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for pod event")
	}

	cancel()
	<-done
}
