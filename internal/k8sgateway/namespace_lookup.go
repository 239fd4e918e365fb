package k8sgateway

import (
	"context"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	storagev1 "k8s.io/api/storage/v1"

	"github.com/apolo-sh/platform-disk-api/internal/disk"
)

// NamespaceOrgProject reads the org/project a namespace belongs to from
// its own labels. EnsureNamespaceExists creates namespaces without any
// labels, so a namespace it created reads as ("", "") until the labels
// are added. A namespace without a project label is reported as ("", "")
// so the admission webhook can treat it as non-platform-managed and pass
// requests through unchanged.
func (g *Gateway) NamespaceOrgProject(ctx context.Context, namespace string) (string, string, error) {
	ns, err := g.Clientset.CoreV1().Namespaces().Get(ctx, namespace, metav1.GetOptions{})
	if err != nil {
		return "", "", translateErr("get namespace", err)
	}
	org, project, _ := disk.OrgProjectUser(ns.Labels)
	if _, ok := ns.Labels[apoloProjectLabelKey]; !ok {
		if _, ok := ns.Labels[legacyProjectLabelKey]; !ok {
			return "", "", nil
		}
	}
	return org, project, nil
}

const (
	apoloProjectLabelKey  = "platform.apolo.us/project"
	legacyProjectLabelKey = "platform.neuromation.io/project"
)

// ClusterStorageClass returns the configured storage class when one is
// set, otherwise the cluster's default StorageClass (the first listed
// class when none is annotated as default), used by the admission webhook
// to override any PVC that requests a different or missing class.
func (g *Gateway) ClusterStorageClass(ctx context.Context) (string, error) {
	if g.StorageClass != "" {
		return g.StorageClass, nil
	}
	list, err := g.Clientset.StorageV1().StorageClasses().List(ctx, metav1.ListOptions{})
	if err != nil {
		return "", translateErr("list storage classes", err)
	}
	for _, sc := range list.Items {
		if isDefaultStorageClass(sc) {
			return sc.Name, nil
		}
	}
	if len(list.Items) > 0 {
		return list.Items[0].Name, nil
	}
	return "", nil
}

func isDefaultStorageClass(sc storagev1.StorageClass) bool {
	return sc.Annotations["storageclass.kubernetes.io/is-default-class"] == "true"
}
