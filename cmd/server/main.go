package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/projectmap/internal/config"
	"github.com/stwalsh4118/projectmap/internal/database"
	apierrors "github.com/stwalsh4118/projectmap/internal/errors"
	"github.com/stwalsh4118/projectmap/internal/handlers"
	"github.com/stwalsh4118/projectmap/internal/logger"
	"github.com/stwalsh4118/projectmap/internal/middleware"
	"github.com/stwalsh4118/projectmap/internal/repository"
	"github.com/stwalsh4118/projectmap/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env)
	log.Info("Starting projectmap server", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
		"store":       cfg.Dataset.Store,
	})

	store, closeStore := openStore(cfg, log)
	defer closeStore()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(cfg, log, store)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}

// openStore opens the configured project store. A JSON dataset with missing
// files still starts; the affected endpoints answer 503.
func openStore(cfg *config.Config, log *logger.Logger) (repository.Store, func()) {
	if cfg.Dataset.Store == config.StorePostgres {
		db, err := database.NewPostgresPool(context.Background(), cfg.Database)
		if err != nil {
			log.Fatal("Failed to connect to database", err, map[string]interface{}{
				"host": cfg.Database.Host,
				"port": cfg.Database.Port,
				"name": cfg.Database.Name,
			})
		}
		log.Info("Database connection established", map[string]interface{}{
			"host":     cfg.Database.Host,
			"database": cfg.Database.Name,
			"pool_min": cfg.Database.PoolMin,
			"pool_max": cfg.Database.PoolMax,
		})
		return repository.NewPostgresStore(db), db.Close
	}

	store := repository.NewJSONStore(cfg.Dataset.DataDir)
	for name, err := range store.LoadErrors() {
		log.Error("Failed to load dataset file", err, map[string]interface{}{
			"dataset":  name,
			"data_dir": cfg.Dataset.DataDir,
		})
	}
	return store, func() {}
}

// newRouter builds the gin engine with middleware, API routes and the
// static page.
func newRouter(cfg *config.Config, log *logger.Logger, store repository.Store) *gin.Engine {
	handlers.RegisterValidators()

	router := gin.New()

	// Middleware order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	projectService := services.NewProjectService(store, log, cfg.Search.DefaultLimit, cfg.Search.MaxLimit)

	healthHandler := handlers.NewHealthHandler(projectService, cfg.Dataset.Store, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)

	projectHandler := handlers.NewProjectHandler(projectService)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	api := router.Group("/api")
	api.Use(middleware.RateLimit(limiter, func(c *gin.Context) {
		apierrors.TooManyRequests(c, "Too many requests, slow down")
	}))
	{
		api.GET("/info", healthHandler.Info)
		api.GET("/points", projectHandler.Points)
		api.GET("/search", projectHandler.Search)
		api.GET("/locations", projectHandler.Lookup(repository.LookupLocations))
		api.GET("/property-types", projectHandler.Lookup(repository.LookupPropertyTypes))
		api.GET("/building-status", projectHandler.Lookup(repository.LookupBuildingStatuses))
	}

	pageHandler := handlers.NewPageHandler(cfg.Server.IndexTemplate, cfg.Server.MapsAPIKey, cfg.Server.PublicDir)
	router.GET("/", pageHandler.Index)
	router.NoRoute(pageHandler.Static)

	return router
}
