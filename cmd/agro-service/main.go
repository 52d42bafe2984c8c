package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"agro-service/internal/client"
	"agro-service/internal/config"
	"agro-service/internal/db"
	httphandler "agro-service/internal/http"
	"agro-service/internal/logger"
	"agro-service/internal/repository"
	"agro-service/internal/service"
)

type stores struct {
	environment     service.EnvironmentStore
	recommendations service.RecommendationStore
	chats           service.ChatStore
	yields          service.YieldStore
	close           func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)
	ctx := context.Background()

	st, err := openStores(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("failed to open store")
	}
	defer st.close()

	agroClient := client.NewAgroClient(cfg)
	aggregationService := service.NewAggregationService(cfg, service.Sources{
		SoilSensor:    agroClient,
		Vegetation:    agroClient,
		SoilChemistry: client.NewSoilGridsClient(cfg),
		Weather:       client.NewOpenMeteoClient(cfg),
	}, st.environment, appLogger)

	var completer client.Completer = client.NewDemoCompleter()
	if cfg.ExternalServices.GeminiAPIKey != "" {
		gemini, err := client.NewGeminiClient(ctx, cfg.ExternalServices.GeminiAPIKey)
		if err != nil {
			appLogger.Fatal().Err(err).Msg("failed to create assistant client")
		}
		completer = gemini
	} else {
		appLogger.Warn().Msg("gemini api key not set, chat runs in demo mode")
	}

	handler := httphandler.NewHandler(
		aggregationService,
		service.NewFieldService(cfg),
		service.NewCropService(st.recommendations),
		service.NewIrrigationService(st.environment),
		service.NewChatService(cfg, completer, st.chats),
		service.NewPlaceService(client.NewGeocodeClient(cfg), appLogger),
		service.NewYieldService(st.yields),
		appLogger,
	)
	router := httphandler.NewRouter(handler, appLogger, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	appLogger.Info().Str("addr", addr).Str("store", cfg.Store.Backend).Msg("starting agro service")

	if err := router.Run(addr); err != nil {
		appLogger.Error().Err(err).Msg("failed to start server")
		os.Exit(1)
	}
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendFirestore:
		fs, err := repository.NewFirestoreClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &stores{
			environment:     repository.NewFirestoreEnvironmentRepository(fs),
			recommendations: repository.NewFirestoreCropRecommendationRepository(fs),
			chats:           repository.NewFirestoreChatRepository(fs),
			yields:          repository.NewFirestoreYieldHistoryRepository(fs),
			close: func() {
				if err := fs.Close(); err != nil {
					log.Warn().Err(err).Msg("close firestore client")
				}
			},
		}, nil
	default:
		database, err := db.New(cfg, log)
		if err != nil {
			return nil, err
		}
		return &stores{
			environment:     repository.NewFarmEnvironmentRepository(database),
			recommendations: repository.NewCropRecommendationRepository(database),
			chats:           repository.NewChatRepository(database),
			yields:          repository.NewYieldHistoryRepository(database),
			close: func() {
				if sqlDB, err := database.DB(); err == nil {
					_ = sqlDB.Close()
				}
			},
		}, nil
	}
}
