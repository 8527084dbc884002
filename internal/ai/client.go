// Package ai — клиенты внешнего генератора текста.
// Поддерживаются OpenAI-совместимые API (Groq) и локальный Ollama.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/prometheus/client_golang/prometheus"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ErrGenerationFailed - ошибка при генерации текста AI
var ErrGenerationFailed = errors.New("ошибка генерации текста AI")

// UsageInfo содержит информацию об использовании токенов.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client — интерфейс генератора: один составной промпт на вход,
// текст ответа на выход.
type Client interface {
	Generate(ctx context.Context, userID string, prompt string) (string, UsageInfo, error)
}

// Options — фиксированные параметры генерации, задаются при создании клиента.
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// --- OpenAI-compatible client (Groq) ---

// Compile-time check
var _ Client = (*openAIClient)(nil)

type openAIClient struct {
	client      *openaigo.Client
	model       string
	temperature float64
	maxTokens   int
	logger      *zap.Logger
}

// NewOpenAIClient создает клиент для OpenAI-совместимого API.
// BaseURL позволяет указать endpoint Groq (https://api.groq.com/openai/v1).
func NewOpenAIClient(opts Options, logger *zap.Logger) Client {
	cfg := openaigo.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &openAIClient{
		client:      openaigo.NewClientWithConfig(cfg),
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		logger:      logger.Named("OpenAIClient"),
	}
}

// Generate отправляет промпт одним user-сообщением, как это делал
// исходный движок Horror-Studio.
func (c *openAIClient) Generate(ctx context.Context, userID string, prompt string) (string, UsageInfo, error) {
	usageInfo := UsageInfo{}

	if strings.TrimSpace(prompt) == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", usageInfo, fmt.Errorf("%w: промпт пуст", ErrGenerationFailed)
	}

	startTime := time.Now()
	c.logger.Debug("Отправка запроса к AI",
		zap.String("model", c.model),
		zap.Int("promptBytes", len(prompt)),
		zap.String("userID", userID),
	)

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openaigo.ChatCompletionRequest{
			Model: c.model,
			Messages: []openaigo.ChatCompletionMessage{
				{
					Role:    openaigo.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: float32(c.temperature),
			MaxTokens:   c.maxTokens,
		},
	)

	duration := time.Since(startTime)

	if err != nil {
		c.logger.Warn("Ошибка от AI API",
			zap.Duration("duration", duration),
			zap.String("userID", userID),
			zap.Error(err),
		)
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", usageInfo, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		c.logger.Warn("AI API вернул пустой ответ",
			zap.Duration("duration", duration),
			zap.String("userID", userID),
		)
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_empty_response"}).Inc()
		return "", usageInfo, fmt.Errorf("%w: получен пустой ответ", ErrGenerationFailed)
	}

	aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"model": c.model}).Observe(duration.Seconds())

	generatedText := resp.Choices[0].Message.Content
	c.logger.Debug("Ответ от AI API получен",
		zap.Duration("duration", duration),
		zap.Int("replyLen", len(generatedText)),
		zap.String("userID", userID),
	)

	if resp.Usage.TotalTokens > 0 {
		aiPromptTokens.With(prometheus.Labels{"model": c.model}).Observe(float64(resp.Usage.PromptTokens))
		aiCompletionTokens.With(prometheus.Labels{"model": c.model}).Observe(float64(resp.Usage.CompletionTokens))
		aiTotalTokens.With(prometheus.Labels{"model": c.model}).Observe(float64(resp.Usage.TotalTokens))

		usageInfo.PromptTokens = resp.Usage.PromptTokens
		usageInfo.CompletionTokens = resp.Usage.CompletionTokens
		usageInfo.TotalTokens = resp.Usage.TotalTokens
	}

	return generatedText, usageInfo, nil
}

// --- Ollama client ---

// Compile-time check
var _ Client = (*ollamaClient)(nil)

type ollamaClient struct {
	client      *api.Client
	model       string
	temperature float64
	maxTokens   int
	logger      *zap.Logger
}

// NewOllamaClient создает клиент для локального Ollama API.
func NewOllamaClient(opts Options, logger *zap.Logger) (Client, error) {
	// Нативный API Ollama живет не под /v1
	baseURL := strings.TrimSuffix(opts.BaseURL, "/v1")
	baseURL = strings.TrimSuffix(baseURL, "/")

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга Ollama Base URL '%s': %w", baseURL, err)
	}

	return &ollamaClient{
		client:      api.NewClient(parsedURL, http.DefaultClient),
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		logger:      logger.Named("OllamaClient"),
	}, nil
}

func (c *ollamaClient) Generate(ctx context.Context, userID string, prompt string) (string, UsageInfo, error) {
	usageInfo := UsageInfo{}

	if strings.TrimSpace(prompt) == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", usageInfo, fmt.Errorf("%w: промпт пуст", ErrGenerationFailed)
	}

	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
		Stream: func(b bool) *bool { return &b }(false),
		Options: map[string]interface{}{
			"temperature": c.temperature,
			"num_predict": c.maxTokens,
		},
	}

	startTime := time.Now()
	c.logger.Debug("Отправка запроса к Ollama",
		zap.String("model", c.model),
		zap.Int("promptBytes", len(prompt)),
		zap.String("userID", userID),
	)

	var resp api.ChatResponse
	err := c.client.Chat(ctx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})

	duration := time.Since(startTime)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.logger.Warn("Таймаут запроса к Ollama", zap.Duration("duration", duration), zap.String("userID", userID))
		} else {
			c.logger.Warn("Ошибка от Ollama API", zap.Duration("duration", duration), zap.String("userID", userID), zap.Error(err))
		}
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", usageInfo, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if resp.Message.Content == "" {
		c.logger.Warn("Ollama API вернул пустой ответ", zap.Duration("duration", duration), zap.String("userID", userID))
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_empty_response"}).Inc()
		return "", usageInfo, fmt.Errorf("%w: получен пустой ответ", ErrGenerationFailed)
	}

	aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"model": c.model}).Observe(duration.Seconds())

	usageInfo.PromptTokens = resp.PromptEvalCount
	usageInfo.CompletionTokens = resp.EvalCount
	usageInfo.TotalTokens = resp.PromptEvalCount + resp.EvalCount
	if usageInfo.TotalTokens > 0 {
		aiPromptTokens.With(prometheus.Labels{"model": c.model}).Observe(float64(usageInfo.PromptTokens))
		aiCompletionTokens.With(prometheus.Labels{"model": c.model}).Observe(float64(usageInfo.CompletionTokens))
		aiTotalTokens.With(prometheus.Labels{"model": c.model}).Observe(float64(usageInfo.TotalTokens))
	}

	return resp.Message.Content, usageInfo, nil
}
