package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/souta-ok/storesync/internal/api/middleware"
	"github.com/souta-ok/storesync/internal/service"
)

// HandleListGroups handles GET /v1/groups (caller's groups, newest first)
func HandleListGroups(groups GroupService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		list, err := groups.List(c.Request.Context(), user.ID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"groups": list})
	}
}

// HandleCreateGroup handles POST /v1/groups
func HandleCreateGroup(groups GroupService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var input service.CreateGroupInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		group, err := groups.Create(c.Request.Context(), user.ID, input)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"group": group})
	}
}

// HandleGetGroup handles GET /v1/groups/:id
func HandleGetGroup(groups GroupService, logger *zap.Logger) gin.HandlerFunc {
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

		group, err := groups.Get(c.Request.Context(), id, user.ID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"group": group})
	}
}

// HandleUpdateGroup handles PUT /v1/groups/:id
func HandleUpdateGroup(groups GroupService, logger *zap.Logger) gin.HandlerFunc {
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

		var patch service.GroupPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		group, err := groups.Update(c.Request.Context(), id, user.ID, patch)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"group": group})
	}
}

// HandleDeleteGroup handles DELETE /v1/groups/:id
func HandleDeleteGroup(groups GroupService, logger *zap.Logger) gin.HandlerFunc {
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

		if err := groups.Delete(c.Request.Context(), id, user.ID); err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "group deleted successfully"})
	}
}

// HandleGetGroupProducts handles GET /v1/groups/:id/products (parent catalog)
func HandleGetGroupProducts(groups GroupService, logger *zap.Logger) gin.HandlerFunc {
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

		products, err := groups.FetchProducts(c.Request.Context(), id, user.ID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products})
	}
}
