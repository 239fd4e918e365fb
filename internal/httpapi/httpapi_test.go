package httpapi_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apolo-sh/platform-disk-api/internal/disk"
	"github.com/apolo-sh/platform-disk-api/internal/disk/mock_disk"
	"github.com/apolo-sh/platform-disk-api/internal/httpapi"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type headerAuth struct{}

func (headerAuth) Authenticate(r *http.Request) (string, error) {
	if r.Header.Get("X-Platform-User") == "" {
		return "", disk.Permission("missing header", nil)
	}
	return r.Header.Get("X-Platform-User"), nil
}

func newTestAPI(t *testing.T) (*httpapi.API, *mock_disk.MockGateway) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	gw := mock_disk.NewMockGateway(ctrl)
	svc := disk.NewService(gw, "standard", 0)
	return httpapi.NewAPI(svc, headerAuth{}), gw
}

func TestListDisksRequiresAuth(t *testing.T) {
	api, _ := newTestAPI(t)
	router := api.Router()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orgs/acme/projects/widgets/disks", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListDisksReturnsServiceResults(t *testing.T) {
	api, gw := newTestAPI(t)
	router := api.Router()

	gw.EXPECT().ListPVCs(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]disk.PVCRead{{UID: "uid-1", Phase: disk.PhasePending, StorageRequested: 1024}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orgs/acme/projects/widgets/disks", nil)
	req.Header.Set("X-Platform-User", "alice")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestCreateDiskThreadsAuthenticatedOwner(t *testing.T) {
	api, gw := newTestAPI(t)
	router := api.Router()

	gw.EXPECT().CreatePVC(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, write disk.PVCWrite) (disk.PVCRead, error) {
			assert.Equal(t, "alice", write.Labels["platform.apolo.us/user"])
			return disk.PVCRead{Name: write.Name, Labels: write.Labels, Phase: disk.PhasePending, StorageRequested: 1024}, nil
		})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orgs/acme/projects/widgets/disks", strings.NewReader(`{"storage":"1Gi"}`))
	req.Header.Set("X-Platform-User", "alice")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateDiskInvalidStorage(t *testing.T) {
	api, _ := newTestAPI(t)
	router := api.Router()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orgs/acme/projects/widgets/disks", strings.NewReader(`{}`))
	req.Header.Set("X-Platform-User", "alice")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	// Missing "storage" fails JSON binding before reaching quantity
	// parsing; this exercises the early validation-error path.
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
