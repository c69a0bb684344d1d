package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medivisit/hospitalfinder/internal/adapters/cache"
	"github.com/medivisit/hospitalfinder/internal/adapters/providers/registry"
	"github.com/medivisit/hospitalfinder/internal/api/handlers"
	"github.com/medivisit/hospitalfinder/internal/api/routes"
	"github.com/medivisit/hospitalfinder/internal/application/services"
	"github.com/medivisit/hospitalfinder/internal/domain/providers"
	"github.com/medivisit/hospitalfinder/internal/infrastructure/clients/redis"
	"github.com/medivisit/hospitalfinder/internal/infrastructure/observability"
	"github.com/medivisit/hospitalfinder/pkg/config"
	"github.com/medivisit/hospitalfinder/pkg/retry"
	"github.com/medivisit/hospitalfinder/pkg/secrets"
)

func main() {
	// Vault runs before config.Load so it can supply the registry credential.
	vaultCfg := secrets.LoadVaultConfigFromEnv()
	vaultResult, vaultErr := secrets.ApplyVaultSecrets(context.Background(), vaultCfg, retry.StartupConfig())

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	if vaultErr != nil {
		log.Fatal().Err(vaultErr).Str("path", vaultCfg.Path).Msg("failed to load secrets from vault")
	}
	if vaultCfg.Enabled {
		log.Info().
			Strs("loaded", vaultResult.Loaded).
			Strs("skipped", vaultResult.Skipped).
			Int("ignored", vaultResult.Ignored).
			Msg("vault secrets applied")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	var hospitalRegistry providers.HospitalRegistry = registry.NewHIRAProvider(cfg.Registry, metrics)
	log.Info().
		Str("format", cfg.Registry.Format).
		Int("num_of_rows", cfg.Registry.NumOfRows).
		Dur("timeout", cfg.Registry.Timeout).
		Msg("hospital registry configured")

	// Redis is optional: without it department lookups go straight to the registry.
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis, retry.StartupConfig())
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable; department cache disabled")
		} else {
			defer redisClient.Close()
			hospitalRegistry = registry.NewCachedRegistry(
				hospitalRegistry,
				cache.NewRedisAdapter(redisClient),
				cfg.Registry.DetailCacheTTL,
				metrics,
			)
			log.Info().Str("addr", cfg.Redis.RedisAddr()).Int("ttl_seconds", cfg.Registry.DetailCacheTTL).Msg("department cache enabled")
		}
	}

	hospitalService := services.NewHospitalService(hospitalRegistry, metrics)

	router := routes.NewRouter(
		handlers.NewHospitalHandler(hospitalService),
		handlers.NewHospitalDetailHandler(hospitalService),
		cfg.Server.AllowedOrigins,
		metrics,
	)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupRoutes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Large enough for a registry call plus its timeout.
		WriteTimeout: cfg.Registry.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	log.Info().Msg("server stopped")
}
