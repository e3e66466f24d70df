package handlers

import (
	"net/http"
	"strconv"

	"github.com/doeboy11/TAKE-ME-THERE-sub000/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func viewEventFromContext(c *gin.Context) services.ViewEvent {
	ev := services.ViewEvent{
		SessionID: c.GetHeader("X-Session-ID"),
		UserAgent: c.GetHeader("User-Agent"),
		IPAddress: c.ClientIP(),
	}
	if identity, ok := currentIdentity(c); ok {
		ev.UserID = uuid.NullUUID{UUID: identity.ID, Valid: true}
	}
	return ev
}

// TrackBusinessView handles POST /api/v1/businesses/:id/view.
// Fire-and-forget: the response is success even when the write fails, so
// a broken analytics path can never block navigation.
func TrackBusinessView(c *gin.Context) {
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	ev := viewEventFromContext(c)
	ev.Source = c.Query("source")
	analyticsService.TrackView(businessID, ev)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// TrackBusinessContact handles POST /api/v1/businesses/:id/contact.
// Same contract as TrackBusinessView.
func TrackBusinessContact(c *gin.Context) {
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	var req struct {
		Channel string `json:"channel"`
	}
	_ = c.ShouldBindJSON(&req)

	analyticsService.TrackContact(businessID, req.Channel, viewEventFromContext(c))

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetMyViews handles GET /api/v1/my/views for the owner dashboard.
func GetMyViews(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil {
		limit = 100
	}

	views, err := analyticsService.GetViewsForOwner(identity.ID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"views": views, "count": len(views)})
}
