package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-academic-core/internal/middleware"
	"github.com/noah-isme/sma-academic-core/internal/models"
	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
	"github.com/noah-isme/sma-academic-core/pkg/response"
)

// CurrentUserResponse describes the caller and what it may do.
type CurrentUserResponse struct {
	UserID       string              `json:"user_id"`
	Email        string              `json:"email,omitempty"`
	FullName     string              `json:"full_name,omitempty"`
	Role         models.UserRole     `json:"role"`
	Capabilities []models.Capability `json:"capabilities"`
}

// AuthHandler exposes the identity carried by the access token.
type AuthHandler struct{}

// NewAuthHandler creates a new handler.
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// Me godoc
// @Summary Current user
// @Description Returns the token's subject and the capabilities of its role
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.OK(c, CurrentUserResponse{
		UserID:       claims.UserID,
		Email:        claims.Email,
		FullName:     claims.FullName,
		Role:         claims.Role,
		Capabilities: claims.Role.Capabilities(),
	})
}
