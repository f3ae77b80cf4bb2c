package main

import (
	"fmt"
	"log"
	"net/http"

	"retrodrome/backend/internal/admin"
	"retrodrome/backend/internal/auth"
	"retrodrome/backend/internal/catalog"
	"retrodrome/backend/internal/config"
	"retrodrome/backend/internal/database"
	"retrodrome/backend/internal/handler"
	"retrodrome/backend/internal/hub"
	"retrodrome/backend/internal/models"
	"retrodrome/backend/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	// Swagger imports
	_ "retrodrome/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           Retrodrome API
// @version         1.0
// @description     This is the API for the Retrodrome retro-game catalog.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// The declared collection schema must agree with the entity shape
	// before anything is served.
	if err := admin.Games.CheckModel(models.Game{}); err != nil {
		logger.Fatal("collection schema mismatch", zap.Error(err))
	}

	// Connect to the database
	database.Connect(config.AppConfig.DatabaseURL)

	// Stores and services, wired once and passed by reference.
	gameRepo := repository.NewGameRepository(database.DB)
	catalogStore := catalog.NewStore(gameRepo)
	eventHub := hub.NewHub()

	authService := auth.NewService(database.DB, logger, config.AppConfig.GoogleClientID)
	sessionStore := auth.NewSessionStore(authService)
	defer sessionStore.Close()

	// Mirror session transitions onto the event stream.
	sessionStore.Subscribe(func(user *auth.Identity) {
		if user != nil {
			eventHub.Broadcast(hub.Event{Type: "auth.signed_in", Payload: user})
		} else {
			eventHub.Broadcast(hub.Event{Type: "auth.signed_out"})
		}
	})

	gameHandler := handler.NewGameHandler(catalogStore, gameRepo, eventHub, logger)
	adminHandler := handler.NewAdminHandler(gameRepo, catalogStore, eventHub, logger)
	authHandler := handler.NewAuthHandler(authService, sessionStore, database.DB, logger)
	eventsHandler := handler.NewEventsHandler(eventHub)

	router := gin.Default()

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/google", authHandler.GoogleSignIn)
			authRoutes.GET("/session", authHandler.GetSession)

			protected := authRoutes.Group("")
			protected.Use(auth.AuthMiddleware())
			{
				protected.POST("/logout", authHandler.Logout)
				protected.GET("/me", authHandler.GetMe)
			}
		}

		// Public catalog routes. Optional auth lets responses include
		// the caller's own rating.
		gameRoutes := apiV1.Group("/games")
		gameRoutes.Use(auth.OptionalAuthMiddleware())
		{
			gameRoutes.GET("", gameHandler.ListGames)
			gameRoutes.GET("/featured", gameHandler.GetFeaturedGames)
			gameRoutes.GET("/:slug", gameHandler.GetGameBySlug)
			gameRoutes.GET("/:slug/play", gameHandler.GetPlayConfig)
		}

		// Rating requires a signed-in user.
		rateRoutes := apiV1.Group("/games")
		rateRoutes.Use(auth.AuthMiddleware())
		{
			rateRoutes.POST("/:slug/rate", gameHandler.RateGame)
		}

		apiV1.GET("/platforms", gameHandler.ListPlatforms)
		apiV1.GET("/events", eventsHandler.Stream)

		// Admin routes (protected by auth and admin check)
		adminRoutes := apiV1.Group("/admin")
		adminRoutes.Use(auth.AuthMiddleware(), auth.AdminMiddleware())
		{
			adminGameRoutes := adminRoutes.Group("/games")
			{
				adminGameRoutes.POST("", adminHandler.CreateGame)
				adminGameRoutes.PUT("/:id", adminHandler.UpdateGame)
				adminGameRoutes.DELETE("/:id", adminHandler.DeleteGame)
			}
		}
	}

	addr := ":" + config.AppConfig.Port
	fmt.Printf("Server is running on %s\n", addr)
	fmt.Printf("Swagger UI is available at http://localhost%s/swagger/index.html\n", addr)
	log.Fatal(router.Run(addr))
}
