package api

import (
	"net/http"

	"aster-trading-bot/internal/auth"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// handleLogin authenticates the dashboard operator and issues an access
// token
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "username and password are required")
		return
	}

	pair, err := s.authService.Login(req.Username, req.Password)
	if err != nil {
		authErr, ok := err.(auth.AuthError)
		if !ok {
			authErr = auth.ErrInvalidCredentials
		}
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   authErr.Code,
			"message": authErr.Message,
		})
		return
	}

	successResponse(c, pair)
}
