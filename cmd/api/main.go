// Package main is the entry point for the billing back office API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/smartmeter/billing-system/docs"
	"github.com/smartmeter/billing-system/internal/api"
	"github.com/smartmeter/billing-system/internal/core/service"
	"github.com/smartmeter/billing-system/internal/infrastructure/config"
	mongodb "github.com/smartmeter/billing-system/internal/infrastructure/db/mongo"
	redisdb "github.com/smartmeter/billing-system/internal/infrastructure/db/redis"
	"github.com/smartmeter/billing-system/internal/infrastructure/queue"
	"github.com/smartmeter/billing-system/pkg/logger"
)

// @title Utility Billing Back Office API
// @version 1.0
// @description Back office for a smart-meter utility: operator and consumer authentication, consumer management, meters, readings, tariffs, and billing.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() {
		_ = rdb.Close()
	}()

	// --- Repositories ---
	operatorRepo := mongodb.NewOperatorRepository(db)
	consumerRepo := mongodb.NewConsumerRepository(db)
	orgUnitRepo := mongodb.NewOrgUnitRepository(db)
	meterRepo := mongodb.NewMeterRepository(db)
	readingRepo := mongodb.NewReadingRepository(db)
	tariffRepo := mongodb.NewTariffRepository(db)
	billingRepo := mongodb.NewBillingRepository(db)
	addressRepo := mongodb.NewAddressRepository(db)

	for _, ensure := range []func(context.Context) error{
		operatorRepo.EnsureIndexes,
		consumerRepo.EnsureIndexes,
		readingRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatal().Err(err).Msg("index creation failed")
		}
	}

	// --- Services ---
	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authService := service.NewAuthService(operatorRepo, consumerRepo, tokens, log)
	consumerService := service.NewConsumerService(consumerRepo, log)
	orgUnitService := service.NewOrgUnitService(orgUnitRepo, log)
	meterService := service.NewMeterService(meterRepo, consumerRepo, log)
	dedup := redisdb.NewReadingDedup(rdb)
	readingService := service.NewReadingService(readingRepo, meterRepo, dedup, log)
	tariffService := service.NewTariffService(tariffRepo, log)
	billingService := service.NewBillingService(billingRepo, consumerRepo, meterRepo, log)
	addressService := service.NewAddressService(addressRepo, consumerRepo, log)

	// --- Ingestion pipeline ---
	dispatcher := queue.NewDispatcher(cfg.Workers, readingService, log)
	dispatcher.Start(ctx)

	e := api.NewRouter(api.Dependencies{
		Auth:       authService,
		Consumers:  consumerService,
		OrgUnits:   orgUnitService,
		Meters:     meterService,
		Readings:   readingService,
		Tariffs:    tariffService,
		Billing:    billingService,
		Addresses:  addressService,
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Mongo:      db,
		Redis:      rdb,
		UploadDir:  cfg.UploadDir,
		BaseURL:    cfg.BaseURL,
		Logger:     log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
