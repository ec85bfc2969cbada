package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"parking-core/internal/api/middleware"
	"parking-core/internal/apperr"
	"parking-core/internal/identity"
	"parking-core/internal/response"
)

// AuthHandler fronts the identity service with the subset of the
// credential surface that has a concrete implementation in this
// deployment: login, refresh, logout, profile and change-password.
// Forgot-password/reset-otp/reset-password are not implemented — they
// require an email or SMS delivery channel this deployment doesn't have.
type AuthHandler struct {
	Identity *identity.Service
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "email and password are required"))
		return
	}
	u, tokens, err := h.Identity.Login(c.Request.Context(), req.Email, req.Password, time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "login successful", gin.H{
		"user":         u,
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "refreshToken is required"))
		return
	}
	_, tokens, err := h.Identity.Refresh(c.Request.Context(), req.RefreshToken, time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "token refreshed", gin.H{
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(middleware.UserID(c))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Unauthorized, "invalid session"))
		return
	}
	if err := h.Identity.Logout(c.Request.Context(), userID); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "logged out", nil)
}

func (h *AuthHandler) Profile(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(middleware.UserID(c))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Unauthorized, "invalid session"))
		return
	}
	u, err := h.Identity.Profile(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "profile retrieved", u)
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "oldPassword and newPassword (min 8 chars) are required"))
		return
	}
	userID, err := primitive.ObjectIDFromHex(middleware.UserID(c))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Unauthorized, "invalid session"))
		return
	}
	if err := h.Identity.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "password changed", nil)
}
