package recognition

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/harshakrishna15/SlopScan/internal/domain"
	"github.com/harshakrishna15/SlopScan/internal/observability"
	"github.com/harshakrishna15/SlopScan/internal/retry"
)

// Client calls an OpenAI-compatible chat-completions endpoint with the image
// attached as a data URI.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	maxGuesses int
	retry      retry.Config
	breaker    *gobreaker.CircuitBreaker[string]
	logger     *observability.Logger
}

// Config holds recognizer client configuration.
type Config struct {
	APIKey     string
	Model      string // e.g. "google/gemini-2.0-flash-001"
	BaseURL    string // Default: https://openrouter.ai/api/v1
	Timeout    time.Duration
	MaxRetries int
	MaxGuesses int

	// Breaker settings; zero values use defaults.
	BreakerFailures uint32
	BreakerTimeout  time.Duration

	Logger *observability.Logger
}

// NewClient creates a recognizer client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, domain.ConfigError("recognition API key is required", nil)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "google/gemini-2.0-flash-001"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.MaxGuesses <= 0 {
		cfg.MaxGuesses = DefaultMaxGuesses
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}
	logger = logger.WithOperation("recognition")

	rc := retry.DefaultConfig()
	rc.MaxRetries = cfg.MaxRetries

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "recognizer",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		// Callers hanging up say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxGuesses: cfg.MaxGuesses,
		retry:      rc,
		breaker:    breaker,
		logger:     logger,
	}, nil
}

type message struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Recognize sends the image to the model and parses its guesses.
// Unparseable model output is logged and returned as an empty Result.
func (c *Client) Recognize(ctx context.Context, image []byte) (Result, error) {
	if len(image) == 0 {
		return Result{}, domain.ValidationError("image is empty", nil)
	}

	mime := http.DetectContentType(image)
	if !strings.HasPrefix(mime, "image/") {
		return Result{}, domain.ValidationError(fmt.Sprintf("unsupported image type %q", mime), nil)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []message{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: Prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)}},
			},
		}},
	})
	if err != nil {
		return Result{}, domain.RecognitionError("marshal request", err)
	}

	start := time.Now()
	text, err := c.breaker.Execute(func() (string, error) {
		return c.complete(ctx, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Result{}, domain.RecognitionError("recognizer temporarily unavailable", err)
		}
		return Result{}, domain.RecognitionError("recognizer request failed", err)
	}

	log := c.logger.WithContext(ctx)
	log.Debug().
		Dur("latency", time.Since(start)).
		Str("raw", truncate(text, 500)).
		Msg("recognizer response")

	res, perr := ParseResult(text, c.maxGuesses)
	if perr != nil {
		log.Warn().Err(perr).Str("raw", truncate(text, 500)).Msg("could not parse recognizer output")
	}
	return res, nil
}

func (c *Client) complete(ctx context.Context, body []byte) (string, error) {
	resp, err := retry.Do(ctx, c.retry, c.logger, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("X-Title", "SlopScan")
		return c.httpClient.Do(req)
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var chat chatResponse
	decodeErr := json.Unmarshal(raw, &chat)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && chat.Error != nil {
			return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, chat.Error.Message)
		}
		return "", fmt.Errorf("API error: status %d, body: %s", resp.StatusCode, truncate(string(raw), 256))
	}
	if decodeErr != nil {
		return "", fmt.Errorf("unmarshal response: %w", decodeErr)
	}
	if len(chat.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return chat.Choices[0].Message.Content, nil
}

// State reports the circuit breaker state for health checks.
func (c *Client) State() string {
	return c.breaker.State().String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ Recognizer = (*Client)(nil)
