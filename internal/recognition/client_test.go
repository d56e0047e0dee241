package recognition

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshakrishna15/SlopScan/internal/domain"
)

// pngHeader is enough for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func chatReply(content string) []byte {
	resp := map[string]any{
		"choices": []map[string]any{{"message": map[string]any{"content": content}}},
	}
	b, _ := json.Marshal(resp)
	return b
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{APIKey: "k", BaseURL: srv.URL, Model: "vision-model"}
	for _, o := range opts {
		o(&cfg)
	}
	c, err := NewClient(cfg)
	require.NoError(t, err)
	c.retry.InitialBackoff = 0
	return c
}

func TestClient_Recognize(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "vision-model", req.Model)
		require.Len(t, req.Messages, 1)
		require.Len(t, req.Messages[0].Content, 2)
		assert.Equal(t, Prompt, req.Messages[0].Content[0].Text)
		assert.True(t, strings.HasPrefix(req.Messages[0].Content[1].ImageURL.URL, "data:image/png;base64,"))

		w.Write(chatReply("```json\n{\"guesses\":[\"Diet Coke\",\"Coca-Cola Zero\"],\"brand\":\"Coca-Cola\"}\n```"))
	})

	res, err := c.Recognize(context.Background(), pngHeader)
	require.NoError(t, err)
	assert.Equal(t, []string{"Diet Coke", "Coca-Cola Zero"}, res.Guesses)
	assert.Equal(t, "Coca-Cola", res.Brand)
}

func TestClient_UnparseableOutputIsEmptyResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatReply("Sorry, I can't tell."))
	})

	res, err := c.Recognize(context.Background(), pngHeader)
	require.NoError(t, err)
	assert.Empty(t, res.Guesses)
}

func TestClient_EmptyImageIsValidationError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := c.Recognize(context.Background(), nil)
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	_, err = c.Recognize(context.Background(), []byte("plain text, not an image"))
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestClient_UpstreamFailureIsRecognitionError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, func(cfg *Config) { cfg.MaxRetries = 1 })

	_, err := c.Recognize(context.Background(), pngHeader)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindRecognition))
	assert.Equal(t, int32(2), calls.Load(), "one retry")
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad image"}}`))
	}, func(cfg *Config) {
		cfg.BreakerFailures = 2
		cfg.BreakerTimeout = time.Hour
	})

	for i := 0; i < 2; i++ {
		_, err := c.Recognize(context.Background(), pngHeader)
		require.ErrorContains(t, err, "bad image")
	}
	assert.Equal(t, "open", c.State())

	_, err := c.Recognize(context.Background(), pngHeader)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindRecognition))
	assert.ErrorContains(t, err, "temporarily unavailable")
	assert.Equal(t, int32(2), calls.Load(), "open breaker short-circuits")
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.True(t, domain.IsKind(err, domain.KindConfig))
}
