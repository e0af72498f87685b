package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"

	"fleet-service/internal/auth"
	"fleet-service/internal/cache"
	"fleet-service/internal/client"
	"fleet-service/internal/config"
	httphandler "fleet-service/internal/http"
	"fleet-service/internal/http/middleware"
	"fleet-service/internal/logger"
	"fleet-service/internal/service"
	"fleet-service/internal/storage/postgres"
	"fleet-service/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	store, err := postgres.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	tokens := auth.NewManager(cfg.Auth.AccessSecret, cfg.Auth.AccessTTL)

	var summaryCache *cache.SummaryCache
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			appLogger.Fatal().Err(err).Msg("failed to connect redis")
		}
		summaryCache = cache.NewSummaryCache(redisClient, cfg.Redis.SummaryTTL, appLogger)
	}

	var vinClient *client.VINClient
	if cfg.ExternalServices.VINDecoderURL != "" {
		vinClient = client.NewVINClient(cfg)
	}

	hub := ws.NewHub(appLogger)
	go hub.Run()

	vehicleService := service.NewVehicleService(store, vinClient, hub, summaryCache, appLogger)
	tripService := service.NewTripService(store, hub, summaryCache, appLogger)
	maintenanceService := service.NewMaintenanceService(store, hub, summaryCache, appLogger)
	bookingService := service.NewBookingService(store, summaryCache, appLogger)
	userService := service.NewUserService(store, appLogger)
	dashboardService := service.NewDashboardService(store, summaryCache, appLogger)

	if err := userService.EnsureAdmin(context.Background(), cfg.Auth.BootstrapAdminPassword); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to bootstrap admin user")
	}

	handler := httphandler.NewHandler(
		store,
		vehicleService,
		tripService,
		maintenanceService,
		bookingService,
		userService,
		dashboardService,
		tokens,
		hub,
		appLogger,
	)
	authMiddleware := middleware.Auth(tokens)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	appLogger.Info().Str("addr", addr).Msg("starting fleet service")

	if err := router.Run(addr); err != nil {
		appLogger.Error().Err(err).Msg("failed to start server")
		os.Exit(1)
	}
}
