package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

// maxResponseBytes caps how much of a completion response is read.
const maxResponseBytes = 4 << 20

// OpenRouterConfig configures the OpenRouter chat completions backend.
type OpenRouterConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Referer     string
	Title       string
	MaxTokens   int
	Temperature float32
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// OpenRouterModel is an eino chat model speaking the OpenAI-compatible
// /chat/completions protocol exposed by OpenRouter. Each Generate call issues
// exactly one request.
type OpenRouterModel struct {
	apiKey      string
	endpoint    string
	model       string
	referer     string
	title       string
	maxTokens   int
	temperature float32
	client      *http.Client
	logger      *zap.Logger
}

var _ model.ChatModel = (*OpenRouterModel)(nil)

// NewOpenRouterModel builds the model. A nil HTTPClient falls back to
// http.DefaultClient and a nil Logger to zap.NewNop.
func NewOpenRouterModel(cfg OpenRouterConfig) *OpenRouterModel {
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OpenRouterModel{
		apiKey:      cfg.APIKey,
		endpoint:    cfg.BaseURL + "/chat/completions",
		model:       cfg.Model,
		referer:     cfg.Referer,
		title:       cfg.Title,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		client:      client,
		logger:      logger.Named("openrouter"),
	}
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float32       `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
}

// Generate sends input as the conversation and returns the first choice.
func (m *OpenRouterModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{
		Model:       &m.model,
		MaxTokens:   &m.maxTokens,
		Temperature: &m.temperature,
	}, opts...)

	payload := completionRequest{
		Model:       *options.Model,
		Messages:    make([]wireMessage, 0, len(input)),
		MaxTokens:   *options.MaxTokens,
		Temperature: *options.Temperature,
	}
	for _, msg := range input {
		payload.Messages = append(payload.Messages, wireMessage{Role: string(msg.Role), Content: msg.Content})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, transportError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("HTTP-Referer", m.referer)
	req.Header.Set("X-Title", m.title)

	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.Error("completion request failed", zap.String("endpoint", m.endpoint), zap.Error(err))
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		m.logger.Error("failed to read completion response", zap.Int("status", resp.StatusCode), zap.Error(err))
		return nil, transportError(err)
	}
	if len(respBody) > maxResponseBytes {
		m.logger.Error("completion response too large", zap.Int("status", resp.StatusCode), zap.Int("limit", maxResponseBytes))
		return nil, transportError(fmt.Errorf("response body exceeds %d bytes", maxResponseBytes))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		m.logger.Error("completion API error",
			zap.Int("status", resp.StatusCode),
			diagnosticBody(respBody),
		)
		return nil, authenticationError(resp.StatusCode)
	}

	var result completionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		m.logger.Error("failed to decode completion response", zap.Error(err), diagnosticBody(respBody))
		return nil, transportError(fmt.Errorf("decoding response: %w", err))
	}
	if len(result.Choices) == 0 {
		m.logger.Error("completion response has no choices", diagnosticBody(respBody))
		return nil, transportError(errors.New("no choices in response"))
	}

	return schema.AssistantMessage(result.Choices[0].Message.Content, nil), nil
}

// Stream wraps Generate in a single-chunk stream; partial output is not
// supported.
func (m *OpenRouterModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// BindTools always fails: the region assistant never calls tools.
func (m *OpenRouterModel) BindTools(_ []*schema.ToolInfo) error {
	return errors.New("openrouter: tool calling is not supported")
}

// diagnosticBody logs a response body as structured JSON when possible.
func diagnosticBody(body []byte) zap.Field {
	var parsed any
	if err := json.Unmarshal(body, &parsed); err == nil {
		return zap.Any("body", parsed)
	}
	return zap.ByteString("body", body)
}
