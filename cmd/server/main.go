package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BusselW/DDH3/internal/config"
	"github.com/BusselW/DDH3/internal/database"
	"github.com/BusselW/DDH3/internal/handlers"
	"github.com/BusselW/DDH3/internal/lists"
	"github.com/BusselW/DDH3/internal/logger"
	"github.com/BusselW/DDH3/internal/middleware"
	"github.com/BusselW/DDH3/internal/repository"
	"github.com/BusselW/DDH3/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
	startupTimeout  = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithOptions(logger.Options{
		Env:   cfg.Server.Env,
		Level: cfg.Server.LogLevel,
	})
	log.Info("Starting DDH dashboard API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
		"backend":     cfg.Backend,
	})

	schemas, err := cfg.Schemas()
	if err != nil {
		log.Fatal("Invalid list schema", err, nil)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), startupTimeout)
	backend, closeBackend, err := openBackend(startCtx, cfg, schemas, log)
	cancelStart()
	if err != nil {
		log.Fatal("Failed to open list backend", err, map[string]interface{}{
			"backend": cfg.Backend,
		})
	}
	defer closeBackend()

	locationRepo := repository.NewLocationRepository(backend, schemas)
	problemRepo := repository.NewProblemRepository(backend, schemas)

	joiner := services.NewJoiner(locationRepo, problemRepo, log)
	cache := services.NewDashboardCache(joiner, services.CacheOptions{
		TTL:         cfg.Cache.TTL,
		WaitTimeout: cfg.Cache.WaitTimeout,
	}, log)

	dashboardService := services.NewDashboardService(cache, nil, log)
	adminService := services.NewAdminService(locationRepo, problemRepo, cache, nil, log)
	principalService := services.NewPrincipalService(backend, cfg.Principals.CacheSize, cfg.Principals.CacheTTL, log)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// RequestID -> Logger -> Recovery -> Metrics -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS(cfg.CORS.Origins))

	handlers.RegisterRoutes(router, handlers.Handlers{
		Health:     handlers.NewHealthHandler(backend, cfg.Backend, cfg.Server.Env),
		Dashboard:  handlers.NewDashboardHandler(dashboardService),
		Admin:      handlers.NewAdminHandler(adminService),
		Principals: handlers.NewPrincipalHandler(principalService),
	})

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// openBackend connects the configured list backend. The returned func
// releases its resources.
func openBackend(ctx context.Context, cfg *config.Config, schemas lists.Schemas, log *logger.Logger) (lists.Backend, func(), error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		if cfg.Database.Migrate {
			if err := database.Migrate(cfg.Database.DSN(), log); err != nil {
				return nil, nil, err
			}
		}
		db, err := database.NewPostgresPool(ctx, cfg.Database, log)
		if err != nil {
			return nil, nil, err
		}
		return lists.NewPostgresClient(db.Pool, schemas, log), db.Close, nil

	case config.BackendSharePoint:
		client := lists.NewSharePointClient(lists.SharePointConfig{
			SiteURL:  cfg.SharePoint.SiteURL,
			Timeout:  cfg.SharePoint.Timeout,
			Username: cfg.SharePoint.Username,
			Password: cfg.SharePoint.Password,
			MaxPages: cfg.SharePoint.MaxPages,
		}, schemas, log)
		if err := client.Ping(ctx); err != nil {
			// The site may come up later; readiness reports it until then.
			log.Warn("SharePoint site not reachable at startup", map[string]interface{}{
				"site_url": cfg.SharePoint.SiteURL,
				"error":    err.Error(),
			})
		}
		return client, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown list backend %q", cfg.Backend)
	}
}
