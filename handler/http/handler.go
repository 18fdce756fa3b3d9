package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"comptadoc/src/core/document"
	"comptadoc/src/core/search"
	"comptadoc/src/core/user"
	"comptadoc/src/infrastructure/job"
)

const currentUserKey = "currentUser"

type Handler struct {
	docService    *document.Service
	searchService *search.Service
	userService   *user.Service
	jobService    *job.Service
}

func NewHandler(docService *document.Service, searchService *search.Service, userService *user.Service, jobService *job.Service) *Handler {
	return &Handler{
		docService:    docService,
		searchService: searchService,
		userService:   userService,
		jobService:    jobService,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/v1/health", h.CheckHealth)

	v1 := r.Group("/api/v1")
	v1.Use(h.requireUser)

	// Document routes
	v1.POST("/documents", h.UploadDocument)
	v1.GET("/documents", h.ListDocuments)
	v1.GET("/documents/:id", h.GetDocument)
	v1.GET("/documents/:id/url", h.GetDocumentURL)
	v1.GET("/documents/:id/shared-users", h.GetSharedUsers)
	v1.POST("/documents/:id/share", h.ShareDocument)
	v1.DELETE("/documents/:id/share/:userId", h.UnshareDocument)
	v1.PATCH("/documents/:id/visibility", h.SetDocumentVisibility)
	v1.DELETE("/documents/:id", h.DeleteDocument)

	// Search routes
	v1.GET("/documents/search", h.SimpleSearch)
	v1.POST("/documents/search/advanced", h.AdvancedSearch)
	v1.POST("/documents/search/semantic", h.SemanticSearch)
	v1.POST("/documents/search/hybrid", h.HybridSearch)
	v1.POST("/documents/search/smart", h.SmartSearch)

	// User routes
	v1.POST("/users", h.CreateUser)
	v1.GET("/users/me", h.GetProfile)
}

// requireUser resolves the authenticated user id injected by the upstream
// gateway. Token mechanics live outside this service.
func (h *Handler) requireUser(c *gin.Context) {
	id := c.GetHeader("X-User-ID")
	if id == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
			Code:    "UNAUTHENTICATED",
			Message: "missing X-User-ID header",
		})
		return
	}
	u, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
			Code:    "UNAUTHENTICATED",
			Message: "unknown user",
		})
		return
	}
	c.Set(currentUserKey, u)
	c.Next()
}

func currentUser(c *gin.Context) *user.User {
	u, _ := c.MustGet(currentUserKey).(*user.User)
	return u
}

// CheckHealth godoc
// @Summary Service liveness
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) CheckHealth(c *gin.Context) {
	sendJSON(c, http.StatusOK, gin.H{"status": "ok"})
}

// Common error response structure
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func sendError(c *gin.Context, status int, err error) {
	var code string
	switch {
	case errors.Is(err, document.ErrNotFound), errors.Is(err, user.ErrNotFound),
		errors.Is(err, document.ErrNoShareTargets):
		code = "NOT_FOUND"
		status = http.StatusNotFound
	case errors.Is(err, document.ErrForbidden):
		code = "FORBIDDEN"
		status = http.StatusForbidden
	case errors.Is(err, document.ErrInvalidArgument), errors.Is(err, user.ErrInvalidRole),
		errors.Is(err, user.ErrEmailRequired):
		code = "INVALID_ARGUMENT"
		status = http.StatusBadRequest
	case errors.Is(err, user.ErrEmailTaken):
		code = "CONFLICT"
		status = http.StatusConflict
	default:
		if status == 0 || status == http.StatusInternalServerError {
			code = "INTERNAL_ERROR"
			status = http.StatusInternalServerError
		} else {
			code = "BAD_REQUEST"
		}
	}

	c.JSON(status, ErrorResponse{
		Code:    code,
		Message: err.Error(),
	})
}

func sendJSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}
