package k8sgateway

import (
	"context"
	"fmt"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/apolo-sh/platform-disk-api/internal/disk"
	"github.com/apolo-sh/platform-disk-api/internal/naming"
)

// diskNamingGVK identifies the DiskNaming custom resource. There is no
// generated clientset for it in this repository (it has no stable Go
// type shared across clusters), so it is addressed through the dynamic
// client and a RESTMapper, the same way the teacher's pkg/k8s/json.go
// handles arbitrary unstructured manifests.
var diskNamingGVK = schema.GroupVersionKind{
	Group:   "neuromation.io",
	Version: "v1",
	Kind:    "DiskNaming",
}

func (g *Gateway) diskNamingResource(namespace string) (dynamicResourceInterface, error) {
	mapping, err := g.Mapper.RESTMapping(diskNamingGVK.GroupKind(), diskNamingGVK.Version)
	if err != nil {
		return nil, fmt.Errorf("resolve DiskNaming rest mapping: %w", err)
	}
	return g.Dynamic.Resource(mapping.Resource).Namespace(namespace), nil
}

// dynamicResourceInterface is the narrow slice of dynamic.ResourceInterface
// this file needs; declared locally so tests can substitute a fake without
// pulling in the full dynamic-client fake machinery.
type dynamicResourceInterface interface {
	Get(ctx context.Context, name string, opts metav1.GetOptions, subresources ...string) (*unstructured.Unstructured, error)
	Create(ctx context.Context, obj *unstructured.Unstructured, opts metav1.CreateOptions, subresources ...string) (*unstructured.Unstructured, error)
	Delete(ctx context.Context, name string, opts metav1.DeleteOptions, subresources ...string) error
}

func toNamingRef(u *unstructured.Unstructured) disk.NamingRef {
	spec, _, _ := unstructured.NestedMap(u.Object, "spec")
	diskID, _ := spec["pvcName"].(string)
	labels := u.GetLabels()
	org, project, _ := disk.OrgProjectUser(labels)
	name, _ := disk.DiskName(u.GetAnnotations())
	return disk.NamingRef{
		Name:     u.GetName(),
		DiskName: name,
		Org:      org,
		Project:  project,
		DiskID:   diskID,
	}
}

func fromNamingRef(namespace string, ref disk.NamingRef) *unstructured.Unstructured {
	u := &unstructured.Unstructured{}
	u.SetGroupVersionKind(diskNamingGVK)
	u.SetName(ref.Name)
	u.SetNamespace(namespace)
	u.SetLabels(disk.BuildPVCLabels(ref.Org, ref.Project, ""))
	u.SetAnnotations(disk.BuildPVCAnnotations(ref.DiskName, time.Now()))
	_ = unstructured.SetNestedField(u.Object, ref.DiskID, "spec", "pvcName")
	return u
}

// GetDiskNaming fetches a DiskNaming object by name.
func (g *Gateway) GetDiskNaming(ctx context.Context, namespace, name string) (disk.NamingRef, error) {
	res, err := g.diskNamingResource(namespace)
	if err != nil {
		return disk.NamingRef{}, err
	}
	u, err := res.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return disk.NamingRef{}, translateErr("get disk naming", err)
	}
	return toNamingRef(u), nil
}

// CreateDiskNaming creates a DiskNaming object pointing at a PVC.
func (g *Gateway) CreateDiskNaming(ctx context.Context, ref disk.NamingRef) error {
	namespace := namespaceOfRef(ref)
	res, err := g.diskNamingResource(namespace)
	if err != nil {
		return err
	}
	_, err = res.Create(ctx, fromNamingRef(namespace, ref), metav1.CreateOptions{})
	if err != nil {
		return translateErr("create disk naming", err)
	}
	return nil
}

// DeleteDiskNaming deletes a DiskNaming object; absence is not an error.
func (g *Gateway) DeleteDiskNaming(ctx context.Context, namespace, name string) error {
	res, err := g.diskNamingResource(namespace)
	if err != nil {
		return err
	}
	if err := res.Delete(ctx, name, metav1.DeleteOptions{}); err != nil && !apierrors.IsNotFound(err) {
		return translateErr("delete disk naming", err)
	}
	return nil
}

// namespaceOfRef recovers the namespace a NamingRef belongs to from its
// org/project, since disk.NamingRef itself is namespace-agnostic at the
// domain layer.
func namespaceOfRef(ref disk.NamingRef) string {
	return naming.GenerateNamespaceName(ref.Org, ref.Project)
}
