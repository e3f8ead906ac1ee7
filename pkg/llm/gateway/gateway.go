// Package gateway cascades a prompt through generation tiers, models and
// rotating credentials until one combination answers.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shop-assistant-be/internal/pkg/logger"
	"shop-assistant-be/pkg/credential"
	"shop-assistant-be/pkg/llm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const logModule = "GATEWAY"

var (
	// ErrGenerationExhausted means every tier, model and credential failed
	// with a retryable error.
	ErrGenerationExhausted = errors.New("generation exhausted")
	ErrNoTiers             = errors.New("gateway has no usable tiers")
	ErrUnknownTier         = errors.New("tier is not configured")
)

// TierConfig describes one priority class: which backend to call, the models
// to try in order and the credential pool to rotate through.
type TierConfig struct {
	Provider llm.Provider
	Models   []string
	Pool     *credential.Pool
}

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRetryable
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	default:
		return "fatal"
	}
}

// Attempt records one provider call of a cascade. It is never persisted.
type Attempt struct {
	Tier            credential.Tier
	Model           string
	CredentialIndex int
	Outcome         Outcome
	Err             error
	Duration        time.Duration
}

// Observer is notified after every attempt.
type Observer func(Attempt)

type Gateway struct {
	tiers          []TierConfig
	attemptTimeout time.Duration
	logger         logger.ILogger
	observer       Observer
	tracer         trace.Tracer
}

type Option func(*Gateway)

// WithAttemptTimeout bounds each single provider call.
func WithAttemptTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.attemptTimeout = d
	}
}

func WithLogger(l logger.ILogger) Option {
	return func(g *Gateway) {
		g.logger = l
	}
}

func WithObserver(o Observer) Option {
	return func(g *Gateway) {
		g.observer = o
	}
}

// New builds a gateway. Tiers are tried in the given order; tiers without a
// provider, pool or models are dropped.
func New(tiers []TierConfig, opts ...Option) (*Gateway, error) {
	g := &Gateway{
		attemptTimeout: 30 * time.Second,
		logger:         logger.NewNopLogger(),
		tracer:         otel.Tracer("shop-assistant-be/gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}

	for _, t := range tiers {
		if t.Provider == nil || t.Pool == nil || len(t.Models) == 0 {
			continue
		}
		g.tiers = append(g.tiers, t)
	}
	if len(g.tiers) == 0 {
		return nil, ErrNoTiers
	}
	return g, nil
}

// Generate runs the full cascade over every configured tier.
func (g *Gateway) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return g.cascade(ctx, g.tiers, prompt, opts)
}

// GenerateWithTier runs the cascade restricted to a single tier.
func (g *Gateway) GenerateWithTier(ctx context.Context, tier credential.Tier, prompt string, opts ...llm.Option) (string, error) {
	for _, t := range g.tiers {
		if t.Pool.Tier() == tier {
			return g.cascade(ctx, []TierConfig{t}, prompt, opts)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownTier, tier)
}

func (g *Gateway) cascade(ctx context.Context, tiers []TierConfig, prompt string, opts []llm.Option) (string, error) {
	ctx, span := g.tracer.Start(ctx, "gateway.Generate")
	defer span.End()

	attempts := 0
	var lastErr error

	for _, t := range tiers {
		tier := t.Pool.Tier()
		for _, model := range t.Models {
			// Each credential is visited exactly once per model, starting at
			// the shared cursor. Concurrent callers may move the cursor under
			// us, so the sweep uses its own offset.
			start := t.Pool.Cursor()
			for i := 0; i < t.Pool.Size(); i++ {
				if err := ctx.Err(); err != nil {
					span.SetStatus(codes.Error, err.Error())
					return "", err
				}

				idx := (start + i) % t.Pool.Size()
				attempts++

				began := time.Now()
				text, err := g.call(ctx, t.Provider, model, t.Pool.At(idx), prompt, opts)
				attempt := Attempt{
					Tier:            tier,
					Model:           model,
					CredentialIndex: idx,
					Err:             err,
					Duration:        time.Since(began),
				}

				if err == nil {
					attempt.Outcome = OutcomeSuccess
					g.observe(attempt)
					span.SetAttributes(
						attribute.Int("gateway.attempts", attempts),
						attribute.String("gateway.tier", string(tier)),
						attribute.String("gateway.model", model),
					)
					if attempts > 1 {
						g.logger.Info(logModule, "Generation succeeded after fallback", map[string]interface{}{
							"tier":     tier,
							"model":    model,
							"attempts": attempts,
						})
					}
					return text, nil
				}

				if !llm.IsRetryable(err) {
					attempt.Outcome = OutcomeFatal
					g.observe(attempt)
					g.logger.Error(logModule, "Fatal provider error, aborting cascade", map[string]interface{}{
						"tier":             tier,
						"model":            model,
						"credential_index": idx,
						"error":            err.Error(),
					})
					span.RecordError(err)
					span.SetStatus(codes.Error, "fatal provider error")
					return "", err
				}

				attempt.Outcome = OutcomeRetryable
				g.observe(attempt)
				g.logger.Warn(logModule, "Retryable provider error, rotating credential", map[string]interface{}{
					"tier":             tier,
					"model":            model,
					"credential_index": idx,
					"error":            err.Error(),
				})
				lastErr = err
				t.Pool.Advance()
			}
		}
	}

	span.SetAttributes(attribute.Int("gateway.attempts", attempts))
	span.SetStatus(codes.Error, ErrGenerationExhausted.Error())
	g.logger.Error(logModule, "All tiers exhausted", map[string]interface{}{
		"attempts": attempts,
	})

	if lastErr == nil {
		return "", ErrGenerationExhausted
	}
	return "", fmt.Errorf("%w after %d attempts: %w", ErrGenerationExhausted, attempts, lastErr)
}

func (g *Gateway) call(ctx context.Context, p llm.Provider, model, key, prompt string, opts []llm.Option) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, g.attemptTimeout)
	defer cancel()

	text, err := p.Generate(attemptCtx, prompt, model, key, opts...)
	if err == nil {
		return text, nil
	}

	// A provider that leaks a bare deadline error still timed out on our
	// per-attempt budget; only the caller's own cancellation is terminal.
	var pe *llm.ProviderError
	if !errors.As(err, &pe) && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return "", llm.NewRetryable(p.Name(), llm.KindTimeout, err)
	}
	return "", err
}

func (g *Gateway) observe(a Attempt) {
	if g.observer != nil {
		g.observer(a)
	}
}
