package handlers

import (
	"net/http"
	"time"

	"github.com/doeboy11/TAKE-ME-THERE-sub000/config"
	"github.com/doeboy11/TAKE-ME-THERE-sub000/database"
	"github.com/doeboy11/TAKE-ME-THERE-sub000/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DB is set once at startup by InitializeHandlers.
var DB *database.DB

var (
	businessService  *services.BusinessService
	reviewService    *services.ReviewService
	analyticsService *services.AnalyticsService
)

// InitializeHandlers wires the handler package to the database and builds
// the services the endpoints delegate to.
func InitializeHandlers(db *database.DB) {
	DB = db
	businessService = services.NewBusinessService(db.DB)
	reviewService = services.NewReviewService(db.DB)
	analyticsService = services.NewAnalyticsService(db.DB)
}

// Claims represents the JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// generateJWT generates a token with 15 days expiration
func generateJWT(userID, email, role string) (string, error) {
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * 24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// currentIdentity rebuilds the caller identity the auth middleware stored
// in the gin context.
func currentIdentity(c *gin.Context) (services.Identity, bool) {
	idStr, exists := c.Get("user_id")
	if !exists {
		return services.Identity{}, false
	}
	id, err := uuid.Parse(idStr.(string))
	if err != nil {
		return services.Identity{}, false
	}

	identity := services.Identity{ID: id}
	if email, ok := c.Get("user_email"); ok {
		identity.Email = email.(string)
	}
	if role, ok := c.Get("user_role"); ok {
		identity.Role = role.(string)
	}
	if name, ok := c.Get("user_name"); ok {
		if s, ok := name.(string); ok && s != "" {
			identity.Name = &s
		}
	}
	return identity, true
}

// respondError maps a service error kind to an HTTP status.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch services.KindOf(err) {
	case services.KindValidation:
		status = http.StatusBadRequest
	case services.KindAuth:
		status = http.StatusUnauthorized
	case services.KindForbidden:
		status = http.StatusForbidden
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindConflict:
		status = http.StatusConflict
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		// Don't leak backend details to clients
		msg = "Internal server error"
	}
	c.JSON(status, gin.H{"error": msg})
}
