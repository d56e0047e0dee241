package recognition

import (
	"github.com/harshakrishna15/SlopScan/internal/config"
	"github.com/harshakrishna15/SlopScan/internal/observability"
)

// New builds a recognizer client from configuration.
func New(cfg config.RecognitionConfig, logger *observability.Logger) (*Client, error) {
	return NewClient(Config{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		BaseURL:    cfg.BaseURL,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		MaxGuesses: cfg.MaxGuesses,
		Logger:     logger,
	})
}
