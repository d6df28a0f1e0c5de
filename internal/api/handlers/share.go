package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/souta-ok/storesync/internal/api/middleware"
	"github.com/souta-ok/storesync/internal/domain"
)

type shareRequest struct {
	GroupID  string           `json:"groupId"`
	Products []domain.Product `json:"products"`
}

// HandleShare handles POST /v1/share: fan products out to a group's children
func HandleShare(groups GroupService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req shareRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if req.GroupID == "" || req.Products == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "groupId and products array are required"})
			return
		}
		groupID, err := uuid.Parse(req.GroupID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
			return
		}

		result, err := groups.Share(c.Request.Context(), groupID, user.ID, req.Products)
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
