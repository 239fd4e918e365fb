// Package httpapi is a thin REST surface in front of the disk service,
// using gin-gonic/gin and gin-contrib/cors the way the teacher's own
// handlers package does, and the teacher's flat
// {"error": "..."}/{"message": "..."} response shape.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/apolo-sh/platform-disk-api/internal/disk"
)

// ErrorResponse mirrors response.ErrorResponse from the teacher repo.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse mirrors response.MessageResponse.
type MessageResponse struct {
	Message string `json:"message"`
}

// Authenticator resolves the calling user's identity from a request. Auth
// token parsing proper is out of scope (spec.md §1); the default
// implementation below trusts a header, adequate only for wiring this
// collaborator layer.
type Authenticator interface {
	Authenticate(r *http.Request) (user string, err error)
}

// TrustedHeaderAuthenticator trusts the X-Platform-User header verbatim.
type TrustedHeaderAuthenticator struct{}

func (TrustedHeaderAuthenticator) Authenticate(r *http.Request) (string, error) {
	user := r.Header.Get("X-Platform-User")
	if user == "" {
		return "", disk.Permission("missing X-Platform-User header", nil)
	}
	return user, nil
}

// API wires the disk service into gin routes.
type API struct {
	service *disk.Service
	auth    Authenticator
}

func NewAPI(service *disk.Service, auth Authenticator) *API {
	return &API{service: service, auth: auth}
}

// Router builds the gin engine, with CORS enabled the way the teacher's
// middleware/cors_middleware.go does.
func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "DELETE"},
		AllowHeaders:    []string{"Authorization", "Content-Type", "X-Platform-User"},
	}))

	r.GET("/api/v1/orgs/:org/projects/:project/disks", a.listDisks)
	r.POST("/api/v1/orgs/:org/projects/:project/disks", a.createDisk)
	r.GET("/api/v1/orgs/:org/projects/:project/disks/:id", a.getDisk)
	r.GET("/api/v1/orgs/:org/projects/:project/disks/by-name/:name", a.getDiskByName)
	r.DELETE("/api/v1/orgs/:org/projects/:project/disks/:id", a.removeDisk)
	return r
}

func statusFor(err error) int {
	switch disk.KindOf(err) {
	case disk.KindNotFound:
		return http.StatusNotFound
	case disk.KindConflict:
		return http.StatusConflict
	case disk.KindValidation:
		return http.StatusBadRequest
	case disk.KindPermission:
		return http.StatusForbidden
	case disk.KindQuotaExceeded:
		return http.StatusUnprocessableEntity
	case disk.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// requireAuth aborts the request and returns ("", false) if authentication
// fails, otherwise returns the authenticated username.
func (a *API) requireAuth(c *gin.Context) (string, bool) {
	user, err := a.auth.Authenticate(c.Request)
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		c.Abort()
		return "", false
	}
	return user, true
}

type createDiskRequest struct {
	Name     string  `json:"name"`
	Storage  string  `json:"storage" binding:"required"`
	LifeSpan *string `json:"life_span"`
}

func (a *API) createDisk(c *gin.Context) {
	user, ok := a.requireAuth(c)
	if !ok {
		return
	}
	var body createDiskRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	storage, err := disk.ParseQuantity(body.Storage)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	var lifeSpan *time.Duration
	if body.LifeSpan != nil {
		d, err := time.ParseDuration(*body.LifeSpan)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		lifeSpan = &d
	}

	d, err := a.service.Create(c.Request.Context(), disk.Request{
		Name:     body.Name,
		Org:      c.Param("org"),
		Project:  c.Param("project"),
		Owner:    user,
		Storage:  storage,
		LifeSpan: lifeSpan,
	})
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (a *API) getDisk(c *gin.Context) {
	if _, ok := a.requireAuth(c); !ok {
		return
	}
	d, err := a.service.Get(c.Request.Context(), c.Param("org"), c.Param("project"), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (a *API) getDiskByName(c *gin.Context) {
	if _, ok := a.requireAuth(c); !ok {
		return
	}
	d, err := a.service.GetByName(c.Request.Context(), c.Param("org"), c.Param("project"), c.Param("name"))
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (a *API) listDisks(c *gin.Context) {
	if _, ok := a.requireAuth(c); !ok {
		return
	}
	disks, err := a.service.List(c.Request.Context(), c.Param("org"), c.Param("project"))
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, disks)
}

func (a *API) removeDisk(c *gin.Context) {
	if _, ok := a.requireAuth(c); !ok {
		return
	}
	if err := a.service.Remove(c.Request.Context(), c.Param("org"), c.Param("project"), c.Param("id")); err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "disk removed"})
}
