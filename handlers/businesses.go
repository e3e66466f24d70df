package handlers

import (
	"net/http"
	"strconv"

	"github.com/doeboy11/TAKE-ME-THERE-sub000/models"
	"github.com/doeboy11/TAKE-ME-THERE-sub000/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateBusiness handles POST /api/v1/businesses
func CreateBusiness(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var in services.BusinessInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	business, err := businessService.Create(identity, in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"business": business,
		"message":  "Business submitted for review",
	})
}

// GetBusiness handles GET /api/v1/businesses/:id
func GetBusiness(c *gin.Context) {
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid business ID"})
		return
	}

	business, err := businessService.GetByID(businessID)
	if err != nil {
		respondError(c, err)
		return
	}

	// Pending/rejected listings stay hidden from the public; the owner and
	// admins can still pull them up.
	if business.ApprovalStatus != models.StatusApproved {
		identity, ok := currentIdentity(c)
		if !ok || (identity.ID != business.OwnerID && !identity.IsAdmin()) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Business not found"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"business": business})
}

// ListBusinesses handles GET /api/v1/businesses?page=1&page_size=20
func ListBusinesses(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil {
		pageSize = 20
	}

	businesses, err := businessService.ListApproved(page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"businesses": businesses,
		"page":       page,
		"page_size":  pageSize,
		"count":      len(businesses),
	})
}

// ListMyBusinesses handles GET /api/v1/my/businesses
func ListMyBusinesses(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	businesses, err := businessService.ListByOwner(identity.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"businesses": businesses, "count": len(businesses)})
}

// UpdateBusiness handles PUT /api/v1/businesses/:id
func UpdateBusiness(c *gin.Context) {
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

	var in services.BusinessUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	business, err := businessService.Update(businessID, identity, in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"business": business, "message": "Business updated"})
}

// DeleteBusiness handles DELETE /api/v1/businesses/:id
func DeleteBusiness(c *gin.Context) {
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

	if err := businessService.Delete(businessID, identity); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Business deleted"})
}

// GetMostViewedBusinesses handles GET /api/v1/businesses/most-viewed
func GetMostViewedBusinesses(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		limit = 10
	}

	businesses, err := analyticsService.MostViewed(limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"businesses": businesses, "count": len(businesses)})
}
