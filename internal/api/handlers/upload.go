package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/souta-ok/storesync/internal/domain"
)

type uploadRequest struct {
	Domain     string           `json:"domain"`
	AdminToken string           `json:"adminToken"`
	Products   []domain.Product `json:"products"`
}

// HandleUpload handles POST /v1/upload: push products to one explicit store
func HandleUpload(groups GroupService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req uploadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if req.Domain == "" || req.AdminToken == "" || req.Products == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "domain, adminToken, and products array are required"})
			return
		}

		store := domain.StoreRef{Domain: req.Domain, AdminToken: req.AdminToken}
		result, err := groups.Upload(c.Request.Context(), store, req.Products)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"uploaded": result.Uploaded,
			"failed":   result.Failed,
			"results":  result.Results,
			"errors":   result.Errors,
		})
	}
}
