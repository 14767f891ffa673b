package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/http/response"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// POST /login
// body: { "username": "...", "password": "..." }
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := ah.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"access_token": res.AccessToken,
		"token_type":   "Bearer",
		"expires_at":   res.ExpiresAt,
		"expires_in":   int(ah.authService.GetAccessTTL().Seconds()),
		"user_id":      res.UserID,
	})
}
