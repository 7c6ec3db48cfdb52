package translator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// ============================================================================
// GEMINI PROVIDER — Calls Google Gemini for question → Draft
// ============================================================================
// This is the ONLY file that makes external API calls.
//
// Calls are rate limited client-side and guarded by a circuit breaker that
// fails fast after consecutive failures. Nothing is retried here; a failed
// turn is reported and the user may ask again.
// ============================================================================

// GeminiConfig configures the Gemini provider.
type GeminiConfig struct {
	APIKey   string
	Model    string
	Endpoint string

	// RatePerMinute caps outgoing requests. Zero disables limiting.
	RatePerMinute int
	// BreakerFailures is the number of consecutive failures that opens the breaker.
	BreakerFailures uint32
	// BreakerCooldown is how long the breaker stays open before probing again.
	BreakerCooldown time.Duration

	HTTPClient *http.Client
}

// DefaultGeminiConfig returns the production defaults, without an API key.
func DefaultGeminiConfig() GeminiConfig {
	return GeminiConfig{
		Model:           "gemini-2.5-flash-lite",
		Endpoint:        "https://generativelanguage.googleapis.com/v1beta/models",
		RatePerMinute:   30,
		BreakerFailures: 3,
		BreakerCooldown: 30 * time.Second,
	}
}

// GeminiProvider implements Provider using the Gemini generateContent API.
type GeminiProvider struct {
	cfg       GeminiConfig
	client    *http.Client
	limiter   *rate.Limiter
	cb        *gobreaker.CircuitBreaker[string]
	logger    zerolog.Logger
	observers []func(from, to gobreaker.State)
}

// GeminiOption customizes a GeminiProvider.
type GeminiOption func(*GeminiProvider)

// WithGeminiLogger routes provider events to logger.
func WithGeminiLogger(logger zerolog.Logger) GeminiOption {
	return func(g *GeminiProvider) {
		g.logger = logger
	}
}

// WithBreakerObserver registers fn to be called on every breaker transition.
func WithBreakerObserver(fn func(from, to gobreaker.State)) GeminiOption {
	return func(g *GeminiProvider) {
		g.observers = append(g.observers, fn)
	}
}

// NewGemini creates a Gemini provider. Zero config fields take the defaults.
func NewGemini(cfg GeminiConfig, opts ...GeminiOption) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	def := DefaultGeminiConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = def.Endpoint
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = def.BreakerFailures
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = def.BreakerCooldown
	}

	g := &GeminiProvider{
		cfg:    cfg,
		client: cfg.HTTPClient,
		logger: zerolog.Nop(),
	}
	if g.client == nil {
		g.client = &http.Client{}
	}
	if cfg.RatePerMinute > 0 {
		g.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), 1)
	}
	for _, opt := range opts {
		opt(g)
	}

	g.cb = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up is not a service failure.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			g.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			for _, fn := range g.observers {
				fn(from, to)
			}
		},
	})
	return g, nil
}

// State returns the current circuit breaker state.
func (g *GeminiProvider) State() gobreaker.State {
	return g.cb.State()
}

// Draft sends the schema-driven prompt and parses the model's JSON draft.
func (g *GeminiProvider) Draft(ctx context.Context, req Request) (Draft, error) {
	prompt := BuildPrompt(req)

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("gemini rate limit: %w", err)
		}
	}

	start := time.Now()
	text, err := g.cb.Execute(func() (string, error) {
		return g.call(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			g.logger.Warn().Err(err).Msg("gemini request rejected")
		}
		return nil, fmt.Errorf("gemini API error: %w", err)
	}

	g.logger.Debug().
		Str("model", g.cfg.Model).
		Dur("duration", time.Since(start)).
		Str("question", truncate(req.Question, 80)).
		Msg("gemini draft received")

	return parseDraft(text)
}

// ============================================================================
// GEMINI API CALL
// ============================================================================

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// call sends a prompt to the Gemini API and returns the text response.
func (g *GeminiProvider) call(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/%s:generateContent", g.cfg.Endpoint, g.cfg.Model)

	body, err := json.Marshal(geminiRequest{
		Contents:         []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: generationConfig{Temperature: 0, ResponseMimeType: "application/json"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.cfg.APIKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini returned %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var gr geminiResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return "", fmt.Errorf("failed to parse gemini response: %w", err)
	}
	if gr.Error != nil {
		return "", fmt.Errorf("gemini error %d: %s", gr.Error.Code, gr.Error.Message)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini returned an empty response")
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
