package main

import (
	"context"
	"log"
	"os"

	"firebase.google.com/go/v4/auth"
	"github.com/encoreline/backend/internal/realtime"
	"github.com/encoreline/backend/internal/router"
	"github.com/encoreline/backend/pkg/config"
	"github.com/encoreline/backend/pkg/firebase"
	"github.com/encoreline/backend/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Initialize Firebase (optional)
	ctx := context.Background()
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	// Realtime invalidation: local hub bridged over Redis when available
	notifier := realtime.NewNotifier(db.Redis)
	if err := notifier.Start(ctx); err != nil {
		log.Fatalf("Failed to start realtime notifier: %v", err)
	}

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Validator
	e.Validator = validators.NewValidator()

	// Setup routes and dependencies
	var authClient *auth.Client
	if firebaseApp != nil {
		authClient = firebaseApp.AuthClient
	}
	router.SetupRoutes(e, db.Postgres, db.Mongo, db.Redis, authClient, notifier, os.Getenv("AUTH_MODE"))

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
