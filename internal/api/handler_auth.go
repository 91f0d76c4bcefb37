package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"solar-fleet-backend/internal/apperr"
	"solar-fleet-backend/internal/auth"
	"solar-fleet-backend/internal/model"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

// Register creates a user with no memberships and returns a fresh token.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Validation(err.Error()))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	user := &model.User{
		ID:           model.NewID(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Status:       model.UserStatusActive,
	}
	if err := h.store.CreateUser(c.Request.Context(), user); err != nil {
		if apperr.IsDuplicate(err) {
			h.fail(c, apperr.Conflict("email already registered"))
			return
		}
		h.fail(c, err)
		return
	}

	token, err := h.issuer.Mint(user.ID, user.Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies the password and returns the token plus memberships.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Validation(err.Error()))
		return
	}

	user, err := h.store.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.fail(c, apperr.Unauthorized("invalid credentials"))
			return
		}
		h.fail(c, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		h.fail(c, apperr.Unauthorized("invalid credentials"))
		return
	}
	if user.Status == model.UserStatusSuspended {
		h.fail(c, apperr.Forbidden("account suspended"))
		return
	}

	memberships, err := h.store.ListMemberships(c.Request.Context(), user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	user.Memberships = memberships

	token, err := h.issuer.Mint(user.ID, user.Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}
