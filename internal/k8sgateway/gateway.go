// Package k8sgateway is the sole owner of Kubernetes API access in this
// repository: typed clientset calls for PVC/Pod/Namespace/StorageClass,
// the dynamic client + RESTMapper for the unregistered DiskNaming custom
// resource, and node stats-summary proxying. Bootstrap mirrors the
// teacher's pkg/k8s/client.go Init/InitTestCluster pair.
package k8sgateway

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"

	"github.com/apolo-sh/platform-disk-api/internal/disk"
)

// Gateway implements disk.Gateway and internal/admission's and
// internal/usagewatcher's cluster-access needs against a real cluster.
type Gateway struct {
	Clientset     kubernetes.Interface
	Dynamic       dynamic.Interface
	Mapper        *restmapper.DeferredDiscoveryRESTMapper
	StorageClass  string
}

var (
	_ disk.Gateway = (*Gateway)(nil)
)

// New builds a Gateway from a *rest.Config, wiring the typed clientset,
// the dynamic client, and a cached discovery RESTMapper the way the
// teacher's pkg/k8s/client.go Init does.
func New(cfg *rest.Config, storageClass string) (*Gateway, error) {
	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build clientset: %w", err)
	}
	dyn, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build dynamic client: %w", err)
	}
	dc, err := discovery.NewDiscoveryClientForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build discovery client: %w", err)
	}
	mapper := restmapper.NewDeferredDiscoveryRESTMapper(memory.NewMemCacheClient(dc))

	return &Gateway{
		Clientset:    clientset,
		Dynamic:      dyn,
		Mapper:       mapper,
		StorageClass: storageClass,
	}, nil
}

// LoadConfig resolves a *rest.Config the way most of the corpus's
// CLI-driven tools do: in-cluster first, falling back to
// $KUBECONFIG/~/.kube/config for local development.
func LoadConfig() (*rest.Config, error) {
	if cfg, err := rest.InClusterConfig(); err == nil {
		return cfg, nil
	}
	kubeconfig := os.Getenv("KUBECONFIG")
	if kubeconfig == "" {
		if home := homedir.HomeDir(); home != "" {
			kubeconfig = filepath.Join(home, ".kube", "config")
		}
	}
	cfg, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("load kubeconfig %q: %w", kubeconfig, err)
	}
	return cfg, nil
}

// translateErr maps an apierrors status error onto a disk.Error Kind.
func translateErr(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case apierrors.IsNotFound(err):
		return disk.NotFound(op, err)
	case apierrors.IsAlreadyExists(err), apierrors.IsConflict(err):
		return disk.Conflict(op, err)
	case apierrors.IsInvalid(err), apierrors.IsBadRequest(err):
		return disk.Validation(op, err)
	case apierrors.IsForbidden(err), apierrors.IsUnauthorized(err):
		return disk.Permission(err.Error(), err)
	case apierrors.IsTimeout(err), apierrors.IsServerTimeout(err), apierrors.IsTooManyRequests(err):
		return disk.Transient(op, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// EnsureNamespaceExists creates the namespace if absent, idempotently,
// mirroring pkg/k8s/namespace.go's EnsureNamespaceExists.
func (g *Gateway) EnsureNamespaceExists(ctx context.Context, name string) error {
	_, err := g.Clientset.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		return nil
	}
	if !apierrors.IsNotFound(err) {
		return translateErr("get namespace", err)
	}
	ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: name}}
	_, err = g.Clientset.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return translateErr("create namespace", err)
	}
	return nil
}
