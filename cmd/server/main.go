package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/autoorder/internal/api"
	"github.com/andresuchdata/autoorder/internal/cache"
	"github.com/andresuchdata/autoorder/internal/config"
	"github.com/andresuchdata/autoorder/internal/drive"
	"github.com/andresuchdata/autoorder/internal/repository"
	"github.com/andresuchdata/autoorder/internal/repository/postgres"
	"github.com/andresuchdata/autoorder/internal/service"
	"github.com/andresuchdata/autoorder/internal/storage"
	"github.com/andresuchdata/autoorder/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	logger.Configure(cfg.Log.Format, cfg.Log.Level)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	weekRepo := postgres.NewWeekRepository(db)
	orderRepo := postgres.NewOrderRepository(db)
	catalogRepo := postgres.NewCatalogRepository(db)

	planCache, err := cache.NewWeekPlanCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Plan cache unavailable, continuing without cache")
		planCache = cache.NewNoopWeekPlanCache()
	}

	var objectStore storage.ObjectStorage
	if cfg.Storage.Enabled {
		minioClient, err := storage.NewMinioClient(ctx, storage.MinioConfig{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Object storage unavailable, exports disabled")
		} else {
			objectStore = minioClient
		}
	}

	planningService := service.NewPlanningService(weekRepo, orderRepo, catalogRepo, planCache, objectStore, service.PlanningOptions{
		Workers:      cfg.Planner.Workers,
		ExportPrefix: cfg.Storage.Prefix,
	})

	services := &api.Services{
		Planning:      planningService,
		Catalog:       service.NewCatalogService(catalogRepo),
		DriveFolderID: cfg.Drive.FolderID,
		OnImported:    planningService.InvalidatePlans,
	}

	if cfg.Drive.CredentialsJSON != "" || cfg.Drive.CredentialsFile != "" {
		driveService, err := drive.NewServiceFromConfig(ctx, cfg.Drive.CredentialsJSON, cfg.Drive.CredentialsFile)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Google Drive unavailable, imports disabled")
		} else {
			services.Importer = drive.NewIngestService(driveService, weekRepo, repository.NewIngestRepository(db.DB.DB))
		}
	}

	router := api.NewRouter(services, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
