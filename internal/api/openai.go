package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"screening-bot/internal/config"
	"screening-bot/internal/metrics"
)

// Message — одна реплика диалога для генератора
type Message struct {
	Role    string
	Content string
}

// Температура для структурированной оценки ниже разговорной:
// результат должен быть воспроизводимым
const evaluationTemperature = 0.3

// Client оборачивает OpenAI API: разговорные реплики интервьюера
// и структурированные (JSON Schema) оценки
type Client struct {
	client  *openai.Client
	cfg     *config.OpenAIConfig
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewClient создает клиент генерации
func NewClient(cfg *config.OpenAIConfig, m *metrics.Metrics, logger *zap.Logger) *Client {
	return &Client{
		client:  openai.NewClient(cfg.APIKey),
		cfg:     cfg,
		metrics: m,
		logger:  logger,
	}
}

// Complete генерирует одну реплику по списку сообщений диалога
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    chatMessages,
		Temperature: float32(c.cfg.Temperature),
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		c.metrics.IncrementAPICall(false)
		c.logger.Warn("ошибка вызова OpenAI", zap.Error(err))
		return "", fmt.Errorf("ошибка вызова OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		c.metrics.IncrementAPICall(false)
		return "", fmt.Errorf("пустой ответ от OpenAI")
	}

	c.metrics.IncrementAPICall(true)
	return resp.Choices[0].Message.Content, nil
}

// CompleteJSON выполняет запрос со строгой JSON-схемой ответа.
// Возвращает сырой JSON; разбор и fallback — на стороне вызывающего.
func (c *Client) CompleteJSON(ctx context.Context, prompt, schemaName string, schema json.RawMessage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
		},
		Temperature: evaluationTemperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: schema,
				Strict: true,
			},
		},
	})
	if err != nil {
		c.metrics.IncrementAPICall(false)
		c.logger.Warn("ошибка структурированного вызова OpenAI", zap.Error(err))
		return "", fmt.Errorf("ошибка структурированного вызова OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		c.metrics.IncrementAPICall(false)
		return "", fmt.Errorf("пустой ответ от OpenAI")
	}

	c.metrics.IncrementAPICall(true)
	return resp.Choices[0].Message.Content, nil
}
