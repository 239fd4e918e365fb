package k8sgateway

import (
	"context"
	"encoding/json"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// StatsSummary is the subset of the kubelet /stats/summary response this
// repository cares about: per-pod ephemeral and volume usage, keyed so the
// usage watcher can find the PVC each volume backs.
type StatsSummary struct {
	Pods []PodStats `json:"pods"`
}

type PodStats struct {
	PodRef  PodRef        `json:"podRef"`
	Volumes []VolumeStats `json:"volume"`
}

type PodRef struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
}

type VolumeStats struct {
	Name       string `json:"name"`
	PVCRef     *PVCRef `json:"pvcRef,omitempty"`
	UsedBytes  *int64  `json:"usedBytes,omitempty"`
	CapacityBytes *int64 `json:"capacityBytes,omitempty"`
}

type PVCRef struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
}

// NodeStatsSummary fetches and decodes a node's kubelet stats-summary,
// proxied through the API server at
// /api/v1/nodes/{name}/proxy/stats/summary.
func (g *Gateway) NodeStatsSummary(ctx context.Context, nodeName string) (StatsSummary, error) {
	body, err := g.Clientset.CoreV1().RESTClient().
		Get().
		Resource("nodes").
		Name(nodeName).
		SubResource("proxy").
		Suffix("stats/summary").
		DoRaw(ctx)
	if err != nil {
		return StatsSummary{}, translateErr(fmt.Sprintf("fetch stats summary for node %q", nodeName), err)
	}
	var summary StatsSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return StatsSummary{}, fmt.Errorf("decode stats summary for node %q: %w", nodeName, err)
	}
	return summary, nil
}

// ListNodeNames returns the names of every node in the cluster, used by
// the usage watcher to enumerate which kubelets to poll.
func (g *Gateway) ListNodeNames(ctx context.Context) ([]string, error) {
	nodes, err := g.Clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, translateErr("list nodes", err)
	}
	names := make([]string, 0, len(nodes.Items))
	for _, n := range nodes.Items {
		names = append(names, n.Name)
	}
	return names, nil
}
