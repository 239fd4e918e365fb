// Package admission implements the mutating admission webhook for
// PersistentVolumeClaim and Pod, as a standalone net/http + crypto/tls
// server with no controller-runtime dependency — matching the retrieved
// rkitindi-kr-pvc-webhook, itself a plain http.Handler over the same
// admission/v1 API types.
package admission

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	admissionv1 "k8s.io/api/admission/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/serializer"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"go.uber.org/zap"

	"github.com/apolo-sh/platform-disk-api/internal/disk"
)

var (
	runtimeScheme = runtime.NewScheme()
	codecs        = serializer.NewCodecFactory(runtimeScheme)
	deserializer  = codecs.UniversalDeserializer()
)

func init() {
	_ = admissionv1.AddToScheme(runtimeScheme)
}

// Config controls which mutation paths are active.
type Config struct {
	EnablePodInjection bool
	StorageClassName    string
	ClusterName         string
}

// Server is the admission webhook's HTTP server.
type Server struct {
	cfg     Config
	gateway NamespaceLookup
	log     *zap.Logger
	http    *http.Server
}

// NamespaceLookup is the narrow gateway surface the webhook needs: reading
// a namespace's own org/project labels and creating DiskNaming objects.
type NamespaceLookup interface {
	NamespaceOrgProject(ctx context.Context, namespace string) (org, project string, err error)
	CreateDiskNaming(ctx context.Context, ref disk.NamingRef) error
	GetDiskNaming(ctx context.Context, namespace, name string) (disk.NamingRef, error)
	GetPVC(ctx context.Context, namespace, name string) (disk.PVCRead, error)
	ClusterStorageClass(ctx context.Context) (string, error)
}

func NewServer(addr string, tlsCfg *tls.Config, cfg Config, gateway NamespaceLookup, log *zap.Logger) *Server {
	s := &Server{cfg: cfg, gateway: gateway, log: log}
	mux := http.NewServeMux()
	mux.HandleFunc("/mutate/pvc", s.handlePVC)
	mux.HandleFunc("/mutate/pod", s.handlePod)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	s.http = &http.Server{Addr: addr, Handler: mux, TLSConfig: tlsCfg}
	return s
}

func (s *Server) ListenAndServeTLS(certFile, keyFile string) error {
	return s.http.ListenAndServeTLS(certFile, keyFile)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func decodeReview(r *http.Request) (*admissionv1.AdmissionReview, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	review := &admissionv1.AdmissionReview{}
	if _, _, err := deserializer.Decode(body, nil, review); err != nil {
		return nil, fmt.Errorf("decode admission review: %w", err)
	}
	return review, nil
}

func (s *Server) writeReview(w http.ResponseWriter, req *admissionv1.AdmissionReview, resp *admissionv1.AdmissionResponse) {
	out := &admissionv1.AdmissionReview{
		TypeMeta: req.TypeMeta,
		Response: resp,
	}
	if req.Request != nil {
		out.Response.UID = req.Request.UID
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		s.log.Error("encode admission review response", zap.Error(err))
	}
}

func allow(patch []patchOp) *admissionv1.AdmissionResponse {
	resp := &admissionv1.AdmissionResponse{Allowed: true}
	if len(patch) == 0 {
		return resp
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		return &admissionv1.AdmissionResponse{Allowed: true}
	}
	patchType := admissionv1.PatchTypeJSONPatch
	resp.Patch = raw
	resp.PatchType = &patchType
	return resp
}

// toErrorResponse maps a domain error onto an AdmissionResponse, following
// the Kind -> status-code table described in SPEC_FULL.md §7.
func toErrorResponse(err error) *admissionv1.AdmissionResponse {
	code := int32(http.StatusBadRequest)
	switch disk.KindOf(err) {
	case disk.KindValidation:
		code = http.StatusUnprocessableEntity
	case disk.KindNotFound:
		code = http.StatusNotFound
	case disk.KindConflict:
		code = http.StatusConflict
	case disk.KindPermission:
		code = http.StatusForbidden
	}
	return &admissionv1.AdmissionResponse{
		Allowed: false,
		Result: &metav1.Status{
			Message: err.Error(),
			Code:    code,
		},
	}
}
