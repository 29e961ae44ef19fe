package main

import (
	"context"
	"log"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/labstack/echo/v4"
	"github.com/regami-app/backend/internal/repositories"
	"github.com/regami-app/backend/internal/router"
	"github.com/regami-app/backend/pkg/config"
	"github.com/regami-app/backend/pkg/firebase"
	"github.com/regami-app/backend/validators"
)

const expirySweepInterval = 5 * time.Minute

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Initialize Firebase messaging (optional: without credentials the
	// service runs with native push disabled)
	ctx := context.Background()
	var messagingClient *messaging.Client
	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
		messagingClient = firebaseApp.MessagingClient
	} else {
		log.Println("FIREBASE_CREDENTIALS_PATH not set, push notifications disabled.")
	}

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, db.Postgres, db.Mongo, messagingClient)

	// Validator
	e.Validator = validators.NewValidator()

	// Periodically expire availability windows that have fully passed
	go func() {
		availabilityRepo := repositories.NewPostgresAvailabilityRepository(db.Postgres)
		ticker := time.NewTicker(expirySweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			n, err := availabilityRepo.ExpireStale(time.Now())
			if err != nil {
				log.Printf("Expiry sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("Expired %d stale availability records.", n)
			}
		}
	}()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
