package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/BuysCode/giovannibot/backend/internal/config"
)

// Service is the completion client: it renders the region prompt and runs
// it through the configured chat model.
type Service struct {
	chain    compose.Runnable[map[string]any, *schema.Message]
	provider string
	logger   *zap.Logger
}

// NewService creates the completion client for the configured provider.
func NewService(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var chatModel model.BaseChatModel
	switch cfg.Provider {
	case config.ProviderArk:
		arkModel, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
		chatModel = arkModel
	case config.ProviderOpenRouter, "":
		chatModel = NewOpenRouterModel(OpenRouterConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Referer:     cfg.Referer,
			Title:       cfg.Title,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			HTTPClient:  &http.Client{Timeout: cfg.Timeout},
			Logger:      logger,
		})
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}

	svc, err := NewServiceWithModel(ctx, chatModel, logger)
	if err != nil {
		return nil, err
	}
	svc.provider = cfg.Provider
	return svc, nil
}

// NewServiceWithModel compiles the prompt template and chatModel into a
// single chain.
func NewServiceWithModel(ctx context.Context, chatModel model.BaseChatModel, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(newPromptTemplate())
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile completion chain: %w", err)
	}

	return &Service{
		chain:    runnable,
		provider: "custom",
		logger:   logger.Named("ai"),
	}, nil
}

// Provider names the backend in use.
func (s *Service) Provider() string {
	return s.provider
}

// Complete asks the model about topic and returns the first choice verbatim.
// Failures are always a *CompletionError; anything the model reports without
// a classification is treated as a transport failure.
func (s *Service) Complete(ctx context.Context, topic, userMessage string) (string, error) {
	response, err := s.chain.Invoke(ctx, map[string]any{
		"topic":    topic,
		"question": userMessage,
	})
	if err != nil {
		var classified *CompletionError
		if !errors.As(err, &classified) {
			err = transportError(err)
		}
		s.logger.Warn("completion failed",
			zap.String("provider", s.provider),
			zap.String("topic", topic),
			zap.String("kind", KindOf(err)),
			zap.Error(err),
		)
		return "", err
	}

	s.logger.Debug("completion succeeded",
		zap.String("provider", s.provider),
		zap.String("topic", topic),
		zap.Int("length", len(response.Content)),
	)
	return response.Content, nil
}
