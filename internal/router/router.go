package router

import (
	"log"

	"firebase.google.com/go/v4/messaging"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/regami-app/backend/internal/handlers"
	"github.com/regami-app/backend/internal/matching"
	"github.com/regami-app/backend/internal/middleware"
	"github.com/regami-app/backend/internal/models"
	"github.com/regami-app/backend/internal/realtime"
	"github.com/regami-app/backend/internal/repositories"
	pkgfirebase "github.com/regami-app/backend/pkg/firebase"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies.
// messagingClient may be nil, which disables native push.
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, messagingClient *messaging.Client) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.AvailabilityOffer{},
		&models.AvailabilityRequest{},
		&models.Match{},
		&models.Notification{},
		&models.NotificationSequence{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"message": "Regami matching service"})
	})

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	availabilityRepo := repositories.NewPostgresAvailabilityRepository(pgdb)
	matchRepo := repositories.NewPostgresMatchRepository(pgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)
	messageRepo := repositories.NewMongoMessageRepository(mgClient.Database("regami"))

	// --- Initialize the realtime and matching core ---
	registry := realtime.NewRegistry()
	var push realtime.PushSender
	if messagingClient != nil {
		push = pkgfirebase.NewSender(messagingClient)
	} else {
		log.Println("No Firebase messaging client, native push disabled.")
	}
	dispatcher := realtime.NewDispatcher(registry, notificationRepo, userRepo, push)
	lifecycle := matching.NewLifecycle(matchRepo, availabilityRepo, dispatcher)
	matcher := matching.NewMatcher(availabilityRepo, lifecycle)

	// --- Protected routes (acting user injected by the auth gateway) ---
	api := e.Group("/api/v1")
	api.Use(middleware.UserContext())
	log.Println("User context middleware applied to /api/v1 group.")

	userHandler := handlers.NewUserHandler(userRepo)
	userHandler.RegisterUserRoutes(api)
	log.Println("User routes configured.")

	availabilityHandler := handlers.NewAvailabilityHandler(availabilityRepo, matcher)
	availabilityHandler.RegisterAvailabilityRoutes(api)
	log.Println("Availability routes configured.")

	matchHandler := handlers.NewMatchHandler(matchRepo, lifecycle)
	matchHandler.RegisterMatchRoutes(api)
	log.Println("Match routes configured.")

	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	messageHandler := handlers.NewMessageHandler(messageRepo, matchRepo, availabilityRepo, dispatcher)
	messageHandler.RegisterMessageRoutes(api)
	log.Println("Message routes configured.")

	// Live channel
	wsHandler := handlers.NewWSHandler(registry, dispatcher)
	e.GET("/ws", wsHandler.Serve, middleware.UserContext())
	log.Println("WebSocket route configured.")

	log.Println("All routes configured.")
}
