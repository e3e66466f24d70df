package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminMiddleware checks if the user is an admin
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
			c.Abort()
			return
		}

		// Check if user is admin
		var role string
		query := `SELECT role FROM users WHERE id = $1`
		err := DB.QueryRow(query, userID).Scan(&role)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check user role"})
			c.Abort()
			return
		}

		if role != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}

		c.Set("user_role", role)
		c.Next()
	}
}

type statusChangeRequest struct {
	AdminNotes *string `json:"admin_notes"`
}

// ApproveBusiness handles PUT /api/v1/admin/businesses/:id/approve
func ApproveBusiness(c *gin.Context) {
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid business ID"})
		return
	}

	identity, ok := currentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req statusChangeRequest
	// Body is optional; notes only
	_ = c.ShouldBindJSON(&req)

	business, err := businessService.Approve(businessID, identity, req.AdminNotes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"business": business, "message": "Business approved"})
}

// RejectBusiness handles PUT /api/v1/admin/businesses/:id/reject
func RejectBusiness(c *gin.Context) {
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid business ID"})
		return
	}

	identity, ok := currentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req statusChangeRequest
	_ = c.ShouldBindJSON(&req)

	business, err := businessService.Reject(businessID, identity, req.AdminNotes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"business": business, "message": "Business rejected"})
}

// AdminListBusinesses handles GET /api/v1/admin/businesses?status=pending
func AdminListBusinesses(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	status := c.DefaultQuery("status", "pending")
	businesses, err := businessService.ListByStatus(identity, status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"businesses": businesses, "status": status, "count": len(businesses)})
}

// GetAdminStats returns dashboard statistics
func GetAdminStats(c *gin.Context) {
	counts, err := businessService.CountByStatus()
	if err != nil {
		respondError(c, err)
		return
	}

	totalViews, totalReviews, err := analyticsService.ViewTotals()
	if err != nil {
		respondError(c, err)
		return
	}

	var totalUsers int
	if err := DB.QueryRow("SELECT COUNT(*) FROM users").Scan(&totalUsers); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get users count"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pendingBusinesses":  counts["pending"],
		"approvedBusinesses": counts["approved"],
		"rejectedBusinesses": counts["rejected"],
		"totalReviews":       totalReviews,
		"totalViews":         totalViews,
		"totalUsers":         totalUsers,
	})
}

// PruneViews handles DELETE /api/v1/admin/views?days=N
func PruneViews(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	days, err := strconv.Atoi(c.DefaultQuery("days", "0"))
	if err != nil || days < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
		return
	}

	deleted, err := analyticsService.PruneViews(identity, days)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted, "days": days})
}
