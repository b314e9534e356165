package main

import (
	"alcyxob/workout-planner/internal/api"
	"alcyxob/workout-planner/internal/app"
	"alcyxob/workout-planner/internal/config"
	"alcyxob/workout-planner/internal/logger"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

// @title Workout Planner API
// @version 1.0
// @description Recurring workout plans, materialized schedules and calendar overrides.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	logg, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("FATAL: Could not build logger: %v", err)
	}
	defer logg.Sync()
	logg.Info("starting workout planner server", "driver", cfg.Database.Driver, "lookahead_days", cfg.Schedule.LookaheadDays)

	if cfg.JWT.Secret == "" {
		logg.Fatal("jwt.secret must be set")
	}

	// --- Repositories and services ---
	ctx := context.Background()
	application, err := app.New(ctx, cfg, logg)
	if err != nil {
		logg.Fatal("could not initialize application", "error", err)
	}
	defer func() {
		if err := application.Close(context.Background()); err != nil {
			logg.Error("failed to release resources", "error", err)
		}
	}()

	// --- Initialize Gin Engine ---
	if cfg.Log.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, cfg.JWT.Secret, application.Services, logg)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful Shutdown ---
	go func() {
		logg.Info("server listening", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("ListenAndServe error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logg.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logg.Error("server forced to shutdown", "error", err)
	}
	logg.Info("server exiting")
}
