// Package titles generates alternative video titles through Groq's
// OpenAI-compatible completion endpoint.
//
// The model is asked for a JSON array of title strings, but models drift from
// format instructions often enough that parsing falls back through JSON
// repair and pipe splitting before canned titles fill whatever is missing.
// Callers always receive exactly three suggestions.
package titles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/tubedesk/internal/retry"
)

const (
	suggestionCount = 3

	defaultBaseURL = "https://api.groq.com/openai/v1"
	defaultModel   = "llama-3.3-70b-versatile"

	defaultTemperature = 0.9
	defaultMaxTokens   = 200
	generateTimeout    = 15 * time.Second
)

// LLMClient defines the interface for LLM clients.
type LLMClient interface {
	GenerateResponse(ctx context.Context, prompt string) (string, error)
}

// Config contains the Groq connection settings. Zero values fall back to the
// package defaults.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

// Service produces title suggestions for videos.
type Service struct {
	llm         LLMClient
	retryConfig retry.RetryConfig
}

// NewService builds a Service backed by Groq. Without an API key the service
// still works, it just serves the canned suggestions.
func NewService(cfg Config) (*Service, error) {
	svc := &Service{retryConfig: retry.LLMRetryConfig()}

	if cfg.APIKey == "" {
		log.Warn().Msg("Groq API key not configured, title suggestions will be canned")
		return svc, nil
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	llm, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithModel(model),
		openai.WithBaseURL(baseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Groq client: %w", err)
	}

	svc.llm = &groqClient{model: llm, temperature: temperature, maxTokens: maxTokens}
	return svc, nil
}

// Suggest returns exactly three alternative titles for a video. Generation
// failures are absorbed: once retries are exhausted the canned fallbacks are
// served instead, so the caller never sees an error.
func (s *Service) Suggest(ctx context.Context, currentTitle string) []string {
	if s.llm == nil {
		return fallbackTitles(currentTitle)
	}

	prompt := buildPrompt(currentTitle)

	var raw string
	result := retry.RetryWithBackoff(ctx, "generate_titles", s.retryConfig, func() error {
		callCtx, cancel := context.WithTimeout(ctx, generateTimeout)
		defer cancel()

		var err error
		raw, err = s.llm.GenerateResponse(callCtx, prompt)
		return err
	})
	if !result.Success {
		log.Warn().
			Err(result.LastError).
			Int("attempts", result.Attempts).
			Msg("title generation failed, serving canned suggestions")
		return fallbackTitles(currentTitle)
	}

	titles := parseTitles(raw)
	if len(titles) > suggestionCount {
		titles = titles[:suggestionCount]
	}
	for _, fallback := range fallbackTitles(currentTitle) {
		if len(titles) >= suggestionCount {
			break
		}
		titles = append(titles, fallback)
	}

	return titles
}

func buildPrompt(currentTitle string) string {
	var prompt strings.Builder

	prompt.WriteString("You are a YouTube growth expert. ")
	fmt.Fprintf(&prompt, "Give me exactly %d viral, click-worthy YouTube titles for a video currently titled: %q. ", suggestionCount, currentTitle)
	prompt.WriteString("Return ONLY a JSON array of the title strings with no extra text, numbering, or explanation. ")
	prompt.WriteString(`Example format: ["Title One", "Title Two", "Title Three"]`)

	return prompt.String()
}

// fallbackTitles are the suggestions of last resort. They keep the endpoint
// useful when the model is unreachable or returns nothing usable.
func fallbackTitles(currentTitle string) []string {
	return []string{
		fmt.Sprintf("You Won't Believe What Happened with %s", currentTitle),
		fmt.Sprintf("The Truth About %s Nobody Tells You", currentTitle),
		fmt.Sprintf("I Tried %s for 30 Days - Here's What Happened", currentTitle),
	}
}

// groqClient adapts a langchaingo model to the LLMClient interface.
type groqClient struct {
	model       llms.Model
	temperature float64
	maxTokens   int
}

func (g *groqClient) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, g.model, prompt,
		llms.WithTemperature(g.temperature),
		llms.WithMaxTokens(g.maxTokens),
	)
}
