package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	JSONOutput  bool // Ask the backend for a JSON-only answer when supported
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithJSONOutput() Option {
	return func(o *Options) {
		o.JSONOutput = true
	}
}

// ApplyOptions resolves opts over the given default temperature.
func ApplyOptions(defaultTemp float64, opts ...Option) *Options {
	options := &Options{Temperature: defaultTemp}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// Provider is a single generation backend. Implementations must return a
// *ProviderError for every failure that originates at the provider so the
// gateway can decide whether to rotate.
type Provider interface {
	Name() string

	// Generate sends one prompt to model authenticated with credential.
	Generate(ctx context.Context, prompt, model, credential string, options ...Option) (string, error)
}
