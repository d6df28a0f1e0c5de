package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/souta-ok/storesync/internal/auth"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister handles POST /v1/auth/register
func HandleRegister(users UserService, tokens *auth.Tokens, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		user, err := users.CreateUserWithPassword(c.Request.Context(), req.Email, req.Password, req.Name)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		token, err := tokens.Issue(user.ID)
		if err != nil {
			logger.Error("Failed to issue session token", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"token": token,
			"user": gin.H{
				"id":    user.ID,
				"email": user.Email,
				"name":  user.Name,
			},
		})
	}
}

// HandleLogin handles POST /v1/auth/login
func HandleLogin(users UserService, tokens *auth.Tokens, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		user, err := users.Authenticate(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		token, err := tokens.Issue(user.ID)
		if err != nil {
			logger.Error("Failed to issue session token", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user": gin.H{
				"id":    user.ID,
				"email": user.Email,
				"name":  user.Name,
			},
		})
	}
}
