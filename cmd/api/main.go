package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/BuysCode/giovannibot/backend/internal/config"
	"github.com/BuysCode/giovannibot/backend/internal/handler"
	"github.com/BuysCode/giovannibot/backend/internal/model/region"
	"github.com/BuysCode/giovannibot/backend/internal/service/ai"
	"github.com/BuysCode/giovannibot/backend/internal/service/chat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if envErr != nil {
		logger.Info("no .env file loaded, using system environment only", zap.Error(envErr))
	}

	aiService, err := ai.NewService(ctx, cfg.AI, logger)
	if err != nil {
		logger.Fatal("failed to initialize completion client", zap.Error(err))
	}
	if cfg.AI.Provider == config.ProviderOpenRouter && cfg.AI.APIKey == "" {
		logger.Warn("OPENROUTER_API_KEY is empty; every reply will be the apology message")
	}
	logger.Info("completion client ready", zap.String("provider", aiService.Provider()))

	regions := region.NewMemoryStore(region.Seed())
	chatService := chat.NewService(aiService,
		chat.WithLogger(logger.Named("session")),
		chat.WithDefaultRegion(cfg.Chat.DefaultRegion),
	)

	router := handler.NewRouter(regions, chatService, cfg.Chat.DefaultRegion, logger)

	startServer(ctx, cfg.Server, router, logger)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("Giovanni Bot backend listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
