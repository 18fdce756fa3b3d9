package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"comptadoc/src/core/user"
)

type createUserRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required"`
	PasswordHash string `json:"passwordHash"`
	Role         string `json:"role" binding:"required"`
}

// CreateUser godoc
// @Summary Register a user (admin only)
// @Tags users
// @Accept json
// @Param body body createUserRequest true "New user"
// @Produce json
// @Success 201 {object} user.User
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /users [post]
func (h *Handler) CreateUser(c *gin.Context) {
	caller := currentUser(c)
	if !caller.Can(func(caps user.Capabilities) bool { return caps.ManageUsers }) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Code:    "FORBIDDEN",
			Message: "only administrators can create users",
		})
		return
	}

	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	u, err := h.userService.Create(c.Request.Context(), req.Name, req.Email, req.PasswordHash, user.Role(req.Role))
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusCreated, u)
}

// GetProfile godoc
// @Summary The authenticated user's profile and capabilities
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /users/me [get]
func (h *Handler) GetProfile(c *gin.Context) {
	u := currentUser(c)
	sendJSON(c, http.StatusOK, gin.H{
		"user":         u,
		"capabilities": user.CapabilitiesOf(u.Role),
	})
}
