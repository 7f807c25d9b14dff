package handler

import (
	"context"

	identityapp "github.com/astralisone/platform/internal/application/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserHandler handles user management endpoints
type UserHandler struct {
	BaseHandler
	userService *identityapp.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *identityapp.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// AssignRoleRequest is the request body for a role change
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=owner admin member"`
}

// ResetPasswordRequest is the request body for an admin password reset
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// Create adds a user to the organization
func (h *UserHandler) Create(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req identityapp.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.Create(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}

// Get returns one user
func (h *UserHandler) Get(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	userID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid user ID")
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), orgID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// List returns the organization's users
func (h *UserHandler) List(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	listReq, err := bindListRequest(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	users, total, err := h.userService.List(c.Request.Context(), orgID, identityapp.UserListFilter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
		Search:   listReq.Search,
		Status:   c.Query("status"),
		Role:     c.Query("role"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, users, total, listReq.Page, listReq.PageSize)
}

// Update changes a user's profile
func (h *UserHandler) Update(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	userID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid user ID")
		return
	}

	var req identityapp.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.Update(c.Request.Context(), orgID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// AssignRole changes a user's role
func (h *UserHandler) AssignRole(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	userID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid user ID")
		return
	}

	var req AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.AssignRole(c.Request.Context(), orgID, userID, req.Role)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// Activate re-enables a user account
func (h *UserHandler) Activate(c *gin.Context) {
	h.lifecycle(c, h.userService.Activate)
}

// Deactivate disables a user account
func (h *UserHandler) Deactivate(c *gin.Context) {
	h.lifecycle(c, h.userService.Deactivate)
}

// Unlock clears a lockout after failed logins
func (h *UserHandler) Unlock(c *gin.Context) {
	h.lifecycle(c, h.userService.Unlock)
}

// ResetPassword sets a new password for a user
func (h *UserHandler) ResetPassword(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	userID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid user ID")
		return
	}

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.userService.ResetPassword(c.Request.Context(), orgID, userID, req.Password); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *UserHandler) lifecycle(c *gin.Context, fn func(ctx context.Context, orgID, userID uuid.UUID) (*identityapp.UserResponse, error)) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	userID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid user ID")
		return
	}

	user, err := fn(c.Request.Context(), orgID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}
