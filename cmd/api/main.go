package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gruhabuddy/backend/internal/config"
	"github.com/gruhabuddy/backend/internal/handlers"
	"github.com/gruhabuddy/backend/internal/middleware"
	"github.com/gruhabuddy/backend/internal/models"
	"github.com/gruhabuddy/backend/internal/repository"
	"github.com/gruhabuddy/backend/internal/services"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.New()

	// Initialize database
	db, err := models.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Run migrations
	if err := models.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Redis
	redisClient := models.InitRedis(cfg)
	defer redisClient.Close()

	// Initialize services
	roomRepo := repository.NewRoomRepository(db)
	storageService := services.NewStorageService(cfg)

	var s3Service *services.S3Service
	if cfg.MediaS3Enabled {
		s3Service, err = services.NewS3Service(cfg)
		if err != nil {
			log.Fatalf("Failed to init S3 service: %v", err)
		}
	}

	aiClient := services.NewAIClient(cfg)
	designService := services.NewDesignService(roomRepo, storageService, s3Service, aiClient, cfg.UploadMaxImageSize)
	chatService := services.NewChatService(cfg)

	// Setup Gin router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg))
	router.Use(middleware.RateLimiter(redisClient, cfg))

	// Initialize handlers
	designHandler := handlers.NewDesignHandler(designService, cfg.UploadMaxImageSize)
	chatHandler := handlers.NewChatHandler(chatService)

	// Health check outside API group (no /api/v1 prefix)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Uploaded room photos and generated designs, served read-only
	router.Static(cfg.UploadURLPrefix, cfg.UploadsPath)

	// Setup routes
	api := router.Group("/api/v1")
	{
		// Health check also available under /api/v1/health for compatibility
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		})

		// Catch-all OPTIONS handler for CORS preflight requests
		api.OPTIONS("/*path", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})

		// Chat proxy (no auth, matches the public chat widget)
		api.POST("/chat", chatHandler.Chat)

		// Design workflow routes
		design := api.Group("/design")
		design.Use(middleware.Auth(cfg))
		{
			design.GET("/rooms", designHandler.GetUserRooms)
			design.DELETE("/rooms/:id", designHandler.DeleteRoom)
			design.POST("/generate", designHandler.Generate)
			design.POST("/analyze", designHandler.Analyze)
			design.POST("/recommend", designHandler.Recommend)

			// Upload with per-user daily rate limiting
			uploadGroup := design.Group("")
			uploadGroup.Use(middleware.UploadRateLimit(redisClient, cfg.UploadMaxPerDay))
			{
				uploadGroup.POST("/upload", designHandler.Upload)
			}
		}
	}

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
