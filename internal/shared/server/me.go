package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ifs-actionplan/internal/shared/server/middleware"
	"ifs-actionplan/internal/shared/server/respond"
)

// registerMeRoutes attaches the /me endpoint, which echoes the resolved guest identity.
func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", meHandler)
}

func meHandler(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}
	respond.OK(c, gin.H{
		"userId":  userID,
		"guestId": strings.TrimPrefix(userID, "guest:"),
	})
}
