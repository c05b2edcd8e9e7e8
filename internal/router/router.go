package router

import (
	"log"

	"firebase.google.com/go/v4/auth"
	"github.com/encoreline/backend/internal/handlers"
	"github.com/encoreline/backend/internal/middleware"
	"github.com/encoreline/backend/internal/models"
	"github.com/encoreline/backend/internal/realtime"
	"github.com/encoreline/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Logger())
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies.
// firebaseAuthClient may be nil (local JWT only); redisClient may be nil
// (instance-local invalidation, uncached counts).
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, redisClient *redis.Client, firebaseAuthClient *auth.Client, notifier *realtime.Notifier, authMode string) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.FriendRequest{},
		&models.Friendship{},
		&models.Block{},
		&models.Notification{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	followRepo := repositories.NewPostgresFollowRepository(pgdb)
	requestRepo := repositories.NewPostgresFriendRequestRepository(pgdb)
	friendshipRepo := repositories.NewPostgresFriendshipRepository(pgdb)
	blockRepo := repositories.NewPostgresBlockRepository(pgdb)
	countRepo := repositories.NewRelationCountRepository(pgdb, redisClient)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)
	eventRepo := repositories.NewMongoRelationEventRepository(mgClient.Database("encoreline"))

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, firebaseAuthClient)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// --- Protected routes ---
	api := e.Group("/api/v1")
	if authMode == "firebase" && firebaseAuthClient != nil {
		api.Use(middleware.FirebaseAuthMiddleware(firebaseAuthClient, userRepo))
		log.Println("Firebase authentication middleware applied to /api/v1 group.")
	} else {
		api.Use(middleware.JWTAuthMiddleware())
		log.Println("JWT authentication middleware applied to /api/v1 group.")
	}

	// Profile lookup routes
	userHandler := handlers.NewUserHandler(userRepo)
	userHandler.RegisterProfileRoutes(api)
	log.Println("User profile routes configured.")

	// Follow routes
	followHandler := handlers.NewFollowHandler(followRepo, userRepo, countRepo, notificationRepo, eventRepo, notifier)
	followHandler.RegisterFollowRoutes(api)
	log.Println("Follow routes configured.")

	// Friendship routes
	friendshipHandler := handlers.NewFriendshipHandler(requestRepo, friendshipRepo, userRepo, notificationRepo, eventRepo, notifier)
	friendshipHandler.RegisterFriendshipRoutes(api)
	log.Println("Friendship routes configured.")

	// Block routes
	blockHandler := handlers.NewBlockHandler(blockRepo, userRepo, eventRepo, notifier)
	blockHandler.RegisterBlockRoutes(api)
	log.Println("Block routes configured.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	// Relation event journal routes
	eventHandler := handlers.NewRelationEventHandler(eventRepo)
	eventHandler.RegisterRelationEventRoutes(api)
	log.Println("Relation event routes configured.")

	// Realtime invalidation stream
	realtimeHandler := handlers.NewRealtimeHandler(notifier)
	realtimeHandler.RegisterRealtimeRoutes(api)
	log.Println("Realtime routes configured.")

	log.Println("All routes configured.")
}
