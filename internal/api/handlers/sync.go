package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/souta-ok/storesync/internal/api/middleware"
	"github.com/souta-ok/storesync/internal/domain"
)

type syncRequest struct {
	Action string `json:"action"`
}

// HandleToggleSync handles POST /v1/groups/:id/sync with action sync|unsync
func HandleToggleSync(groups GroupService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		id, ok := pathGroupID(c)
		if !ok {
			return
		}

		var req syncRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		action := domain.SyncAction(req.Action)
		group, err := groups.ToggleSync(c.Request.Context(), id, user.ID, action)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		message := "Sync stopped"
		if action == domain.SyncActionStart {
			message = "Sync started"
		}
		c.JSON(http.StatusOK, gin.H{"group": group, "message": message})
	}
}
