package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"solar-fleet-backend/internal/apperr"
	"solar-fleet-backend/internal/audit"
	"solar-fleet-backend/internal/auth"
	"solar-fleet-backend/internal/model"
	"solar-fleet-backend/internal/mw"
)

var assignableRoles = map[model.Role]bool{
	model.RoleTenantAdmin:  true,
	model.RoleInstaller:    true,
	model.RoleSupportAgent: true,
	model.RoleEndUser:      true,
}

type inviteUserRequest struct {
	Email    string     `json:"email" binding:"required,email"`
	Name     string     `json:"name"`
	Role     model.Role `json:"role" binding:"required"`
	Password string     `json:"password"`
}

// InviteUser attaches a user to the active tenant under a role, creating
// the account first when the email is unknown.
func (h *Handler) InviteUser(c *gin.Context) {
	var req inviteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Validation(err.Error()))
		return
	}
	if !assignableRoles[req.Role] {
		h.fail(c, apperr.Validation("role cannot be assigned via invite"))
		return
	}

	ctx := c.Request.Context()
	tenantID := mw.ActiveTenantID(c)
	p := mw.GetPrincipal(c)

	user, err := h.store.GetUserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		// existing account, just add the membership
	case errors.Is(err, gorm.ErrRecordNotFound):
		password := req.Password
		status := model.UserStatusActive
		if password == "" {
			// placeholder credential until the invitee sets their own
			password = model.NewID()
			status = model.UserStatusInvited
		}
		hash, herr := auth.HashPassword(password)
		if herr != nil {
			h.fail(c, herr)
			return
		}
		user = &model.User{
			ID:           model.NewID(),
			Email:        req.Email,
			Name:         req.Name,
			PasswordHash: hash,
			Status:       status,
		}
		if cerr := h.store.CreateUser(ctx, user); cerr != nil {
			h.fail(c, cerr)
			return
		}
	default:
		h.fail(c, err)
		return
	}

	membership := &model.Membership{
		ID:       model.NewID(),
		UserID:   user.ID,
		TenantID: tenantID,
		Role:     req.Role,
	}
	if err := h.store.CreateMembership(ctx, membership); err != nil {
		if apperr.IsDuplicate(err) {
			h.fail(c, apperr.Conflict("user is already a member of this tenant"))
			return
		}
		h.fail(c, err)
		return
	}

	h.audit.Record(ctx, audit.Entry{
		TenantID:    &tenantID,
		ActorUserID: &p.UserID,
		ActorType:   model.ActorUser,
		Action:      model.AuditUserInvited,
		EntityType:  "user",
		EntityID:    user.ID,
		Metadata:    map[string]any{"email": user.Email, "role": string(req.Role)},
	})
	c.JSON(http.StatusCreated, gin.H{"user": user, "membership": membership})
}

type changeRoleRequest struct {
	Role model.Role `json:"role" binding:"required"`
}

// ChangeRole updates a member's role within the active tenant.
func (h *Handler) ChangeRole(c *gin.Context) {
	var req changeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Validation(err.Error()))
		return
	}
	if !assignableRoles[req.Role] {
		h.fail(c, apperr.Validation("role cannot be assigned"))
		return
	}

	ctx := c.Request.Context()
	tenantID := mw.ActiveTenantID(c)
	p := mw.GetPrincipal(c)
	userID := c.Param("userId")

	membership, err := h.store.GetMembership(ctx, userID, tenantID)
	if err != nil {
		h.fail(c, err)
		return
	}
	previous := membership.Role
	membership.Role = req.Role
	if err := h.store.SaveMembership(ctx, membership); err != nil {
		h.fail(c, err)
		return
	}

	h.audit.Record(ctx, audit.Entry{
		TenantID:    &tenantID,
		ActorUserID: &p.UserID,
		ActorType:   model.ActorUser,
		Action:      model.AuditRoleChanged,
		EntityType:  "membership",
		EntityID:    membership.ID,
		Metadata:    map[string]any{"userId": userID, "from": string(previous), "to": string(req.Role)},
	})
	c.JSON(http.StatusOK, membership)
}

// Me returns the authenticated user with memberships.
func (h *Handler) Me(c *gin.Context) {
	p := mw.GetPrincipal(c)
	user, err := h.store.GetUser(c.Request.Context(), p.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	user.Memberships = p.Memberships
	c.JSON(http.StatusOK, user)
}
