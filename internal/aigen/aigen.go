// Package aigen генерирует контент через OpenAI-совместимый API.
// Тяжелые функции вроде аудита профиля получают увеличенный таймаут,
// короткие подписи и хэштеги отсекаются быстрее.
package aigen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/instagrowth/credit-service/internal/config"
)

// ErrGenerationTimeout возвращается, когда генерация не уложилась в таймаут функции.
var ErrGenerationTimeout = errors.New("generation timed out")

// ErrEmptyCompletion возвращается при пустом ответе модели.
var ErrEmptyCompletion = errors.New("empty completion")

const (
	shortTimeout  = 30 * time.Second
	mediumTimeout = 60 * time.Second
	longTimeout   = 120 * time.Second
)

// featureTimeouts таймауты генерации по функциям. Неизвестные функции
// получают короткий таймаут.
var featureTimeouts = map[string]time.Duration{
	"audit":                   longTimeout,
	"growth_plan":             longTimeout,
	"competitor_analysis":     longTimeout,
	"content_ideas":           mediumTimeout,
	"posting_recommendations": mediumTimeout,
	"ab_test":                 mediumTimeout,
	"caption":                 shortTimeout,
	"hashtags":                shortTimeout,
	"hooks":                   shortTimeout,
	"dm_reply":                shortTimeout,
}

const systemPrompt = "You are an expert Instagram growth strategist. " +
	"Give specific, actionable advice tailored to the user's niche and audience."

// Generator описывает генерацию контента для одной AI-функции.
type Generator interface {
	Generate(ctx context.Context, feature, prompt string) (string, error)
}

type completionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client реализует Generator поверх OpenAI API.
type Client struct {
	api   completionClient
	model string
	log   *slog.Logger
}

// New создает новый клиент генерации из конфигурации.
func New(cfg *config.Config, log *slog.Logger) *Client {
	return &Client{
		api:   openai.NewClient(cfg.OpenAIAPIKey),
		model: cfg.OpenAIModel,
		log:   log,
	}
}

// TimeoutFor возвращает таймаут генерации для функции.
func TimeoutFor(feature string) time.Duration {
	if d, ok := featureTimeouts[feature]; ok {
		return d
	}
	return shortTimeout
}

// Generate выполняет запрос к модели с таймаутом функции.
// Превышение таймаута превращается в ErrGenerationTimeout, чтобы
// вызывающий мог вернуть клиенту 503 вместо списания кредитов.
func (c *Client) Generate(ctx context.Context, feature, prompt string) (string, error) {
	const op = "aigen.Generate"

	ctx, cancel := context.WithTimeout(ctx, TimeoutFor(feature))
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.7,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%s: %w", op, ErrGenerationTimeout)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyCompletion)
	}

	c.log.Info("content generated",
		slog.String("feature", feature),
		slog.String("model", c.model))
	return resp.Choices[0].Message.Content, nil
}
