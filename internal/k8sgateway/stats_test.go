package k8sgateway

import (
	"context"
	"encoding/json"
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8sfake "k8s.io/client-go/kubernetes/fake"
)

func TestListNodeNames(t *testing.T) {
	clientset := k8sfake.NewSimpleClientset(
		&corev1.Node{ObjectMeta: metav1.ObjectMeta{Name: "node-a"}},
		&corev1.Node{ObjectMeta: metav1.ObjectMeta{Name: "node-b"}},
	)
	g := &Gateway{Clientset: clientset}

	names, err := g.ListNodeNames(context.Background())
	if err != nil {
		t.Fatalf("ListNodeNames: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("got %d names, want 2: %v", len(names), names)
	}
}

func TestStatsSummaryDecoding(t *testing.T) {
	body := []byte(`{"pods":[{"podRef":{"name":"p1","namespace":"ns1"},"volume":[{"name":"data","pvcRef":{"name":"disk-1","namespace":"ns1"},"usedBytes":1024}]}]}`)
	var summary StatsSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(summary.Pods) != 1 || summary.Pods[0].PodRef.Name != "p1" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Pods[0].Volumes[0].PVCRef == nil || summary.Pods[0].Volumes[0].PVCRef.Name != "disk-1" {
		t.Fatalf("unexpected volume ref: %+v", summary.Pods[0].Volumes[0])
	}
	if summary.Pods[0].Volumes[0].UsedBytes == nil || *summary.Pods[0].Volumes[0].UsedBytes != 1024 {
		t.Fatalf("unexpected used bytes: %+v", summary.Pods[0].Volumes[0])
	}
}
