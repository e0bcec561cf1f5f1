// Package provider builds llm.Streamer implementations by name.
package provider

import (
	"fmt"
	"time"

	"github.com/papercomputeco/ragchat/pkg/llm"
	"github.com/papercomputeco/ragchat/pkg/llm/provider/ollama"
	"github.com/papercomputeco/ragchat/pkg/llm/provider/openai"
)

// Supported provider type constants
const (
	OpenAI = "openai"
	Ollama = "ollama"
)

// SupportedProviders returns the list of all supported provider type names.
func SupportedProviders() []string {
	return []string{OpenAI, Ollama}
}

// Config selects and configures a provider.
type Config struct {
	Provider string

	// Target is the provider base URL. Empty uses the provider default.
	Target string

	APIKey  string
	Timeout time.Duration
}

// New creates a new Streamer for the configured provider type.
// Returns an error wrapping llm.ErrUnknownProvider if the type is not recognized.
func New(cfg Config) (llm.Streamer, error) {
	switch cfg.Provider {
	case OpenAI:
		return openai.New(openai.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.Target,
			Timeout: cfg.Timeout,
		})
	case Ollama:
		return ollama.New(ollama.Config{
			BaseURL: cfg.Target,
			Timeout: cfg.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: %v)", llm.ErrUnknownProvider, cfg.Provider, SupportedProviders())
	}
}
