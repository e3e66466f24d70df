package main

import (
	"log"
	"net/http"

	"github.com/doeboy11/TAKE-ME-THERE-sub000/config"
	"github.com/doeboy11/TAKE-ME-THERE-sub000/database"
	"github.com/doeboy11/TAKE-ME-THERE-sub000/handlers"
	"github.com/doeboy11/TAKE-ME-THERE-sub000/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

func main() {
	// Load configuration
	if err := config.Load(); err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Connect to database
	db, err := database.Connect(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	// Initialize tables
	if err := db.InitializeTables(); err != nil {
		log.Fatal("Failed to initialize tables:", err)
	}

	// Initialize Cloudinary; uploads stay disabled if this fails
	if config.AppConfig.CloudinaryURL != "" {
		if err := services.InitializeCloudinary(config.AppConfig.CloudinaryURL); err != nil {
			log.Printf("Failed to initialize Cloudinary: %v", err)
		} else {
			log.Printf("Cloudinary initialized")
		}
	} else {
		log.Printf("CLOUDINARY_URL not set, image uploads disabled")
	}

	// Set Gin mode
	if config.AppConfig.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.Default()

	// Add CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Configure this properly for production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Take Me There server is running",
		})
	})

	// Initialize handlers
	handlers.InitializeHandlers(db)

	// API routes
	api := router.Group("/api/v1")
	{
		// Authentication routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.RegisterUser)
			auth.POST("/login", handlers.LoginUser)
			auth.POST("/logout", handlers.LogoutUser)
			auth.GET("/validate", handlers.ValidateToken)
			auth.GET("/me", handlers.AuthMiddleware(), handlers.GetMe)
		}

		// Public directory routes
		businesses := api.Group("/businesses")
		{
			businesses.GET("/", handlers.ListBusinesses)
			businesses.GET("/most-viewed", handlers.GetMostViewedBusinesses)
			businesses.GET("/:id", handlers.OptionalAuthMiddleware(), handlers.GetBusiness)
			businesses.GET("/:id/reviews", handlers.ListReviews)

			// Analytics tracking (anonymous or authenticated)
			businesses.POST("/:id/view", handlers.OptionalAuthMiddleware(), handlers.TrackBusinessView)
			businesses.POST("/:id/contact", handlers.OptionalAuthMiddleware(), handlers.TrackBusinessContact)

			// Owner submission and maintenance
			businesses.POST("/", handlers.AuthMiddleware(), handlers.CreateBusiness)
			businesses.PUT("/:id", handlers.AuthMiddleware(), handlers.UpdateBusiness)
			businesses.DELETE("/:id", handlers.AuthMiddleware(), handlers.DeleteBusiness)

			// Reviews
			businesses.POST("/:id/reviews", handlers.AuthMiddleware(), handlers.AddReview)
		}

		// Review maintenance routes (protected)
		reviews := api.Group("/reviews")
		reviews.Use(handlers.AuthMiddleware())
		{
			reviews.PUT("/:id", handlers.UpdateReview)
			reviews.DELETE("/:id", handlers.DeleteReview)
			reviews.POST("/:id/vote", handlers.VoteReview)
		}

		// Owner dashboard routes (protected)
		my := api.Group("/my")
		my.Use(handlers.AuthMiddleware())
		{
			my.GET("/businesses", handlers.ListMyBusinesses)
			my.GET("/views", handlers.GetMyViews)
		}

		// Image uploads (protected)
		uploads := api.Group("/uploads")
		uploads.Use(handlers.AuthMiddleware())
		{
			uploads.POST("/image", handlers.UploadImage)
		}

		// Admin routes (protected with admin middleware)
		admin := api.Group("/admin")
		admin.Use(handlers.AuthMiddleware(), handlers.AdminMiddleware())
		{
			admin.GET("/stats", handlers.GetAdminStats)
			admin.GET("/businesses", handlers.AdminListBusinesses)
			admin.PUT("/businesses/:id/approve", handlers.ApproveBusiness)
			admin.PUT("/businesses/:id/reject", handlers.RejectBusiness)
			admin.DELETE("/views", handlers.PruneViews)
		}
	}

	// Start server
	log.Printf("Starting Take Me There server on 0.0.0.0:%s", config.AppConfig.ServerPort)
	log.Fatal(http.ListenAndServe("0.0.0.0:"+config.AppConfig.ServerPort, c.Handler(router)))
}
