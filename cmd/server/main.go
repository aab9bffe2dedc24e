package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/schemahub/schemahub/internal/api"
	"github.com/schemahub/schemahub/internal/config"
	"github.com/schemahub/schemahub/internal/db"
	"github.com/schemahub/schemahub/internal/export"
	"github.com/schemahub/schemahub/internal/middleware"
	"github.com/schemahub/schemahub/internal/notifications"
	"github.com/schemahub/schemahub/internal/registry"
	"github.com/schemahub/schemahub/internal/repository"
	"github.com/schemahub/schemahub/migrations"
)

func main() {
	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup database connection
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	// Run migrations
	if err := db.RunMigrations(migrations.Files, ".", cfg.Database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create repositories
	changeRepo := repository.NewChangeRepository(conn.Pool)
	subscriptionRepo := repository.NewSubscriptionRepository(conn.Pool)
	preferencesRepo := repository.NewPreferencesRepository(conn.Pool)
	hierarchyRepo := repository.NewHierarchyRepository(conn.Pool)
	userRepo := repository.NewUserRepository(conn.Pool)

	// Create services
	notificationSvc := notifications.NewService(changeRepo, subscriptionRepo, preferencesRepo)
	registrySvc := registry.NewService(hierarchyRepo, notificationSvc)
	exportSvc := export.NewService(notificationSvc)

	// Assemble the REST surface
	router := api.NewRouter(registrySvc, notificationSvc, exportSvc, userRepo)

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	handler := corsHandler.Handler(
		middleware.LoggingMiddleware(
			middleware.UserMiddleware(router),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.ListenAddr)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
