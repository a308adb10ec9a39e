package narrate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"randomradio/cache"
	"randomradio/logger"
	"randomradio/model"
)

// ErrUnavailable is returned when the narration endpoint is unreachable,
// times out, or answers with garbage. Callers skip narration and play the
// track silently.
var ErrUnavailable = errors.New("narration endpoint unavailable")

// GeneratorConfig contains configuration for the narration generator.
type GeneratorConfig struct {
	APIBaseURL  string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Generator produces short DJ introductions via an OpenAI-compatible chat
// endpoint, typically a local Ollama server.
type Generator struct {
	config     *GeneratorConfig
	httpClient *http.Client
}

// NewGenerator creates a narration generator.
func NewGenerator(config *GeneratorConfig) *Generator {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Generator{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Generate returns an introduction of at most two sentences for the given
// track and mood. Results are cached per (track, mood) when Redis is up, so
// replaying an album does not hammer the model.
func (g *Generator) Generate(ctx context.Context, track model.Track, mood string) (string, error) {
	if cached, ok := cache.GetNarration(ctx, track.FilePath, mood); ok {
		logger.Debug("Narration cache hit",
			logger.String("track", track.Title),
			logger.String("mood", mood))
		return cached, nil
	}

	text, err := g.chat(ctx, BuildMessages(track, mood))
	if err != nil {
		return "", err
	}

	text = ClampSentences(text, 2)
	if text == "" {
		return "", fmt.Errorf("empty narration for %s: %w", track.Title, ErrUnavailable)
	}

	cache.SetNarration(ctx, track.FilePath, mood, text)
	return text, nil
}

// chat performs one non-streaming chat completion call.
func (g *Generator) chat(ctx context.Context, messages []model.OpenAIChatMessage) (string, error) {
	reqBody := model.OpenAIChatRequest{
		Model:       g.config.Model,
		Messages:    messages,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
		Stream:      false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.config.APIBaseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if g.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w: %w", err, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat API returned status %d: %s: %w", resp.StatusCode, string(body), ErrUnavailable)
	}

	var chatResp model.OpenAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w: %w", err, ErrUnavailable)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned: %w", ErrUnavailable)
	}

	return chatResp.Choices[0].Message.Content, nil
}

// Ping checks whether the narration endpoint answers at all. Used by the
// doctor command; the station itself degrades per call instead.
func (g *Generator) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", g.config.APIBaseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if g.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("narration endpoint unreachable: %w: %w", err, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("narration endpoint returned status %d: %w", resp.StatusCode, ErrUnavailable)
	}
	return nil
}
