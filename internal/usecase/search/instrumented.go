package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	domrec "github.com/abdul7867/SearchAi/internal/domain/record"
	"github.com/abdul7867/SearchAi/internal/metrics"
)

// InstrumentedGenerator wraps a Generator with logging, latency and token metrics.
type InstrumentedGenerator struct {
	inner    Generator
	provider string
	model    string
	logger   *zap.Logger
}

// NewInstrumentedGenerator wraps a generator with observability.
func NewInstrumentedGenerator(inner Generator, provider, model string, logger *zap.Logger) *InstrumentedGenerator {
	return &InstrumentedGenerator{
		inner:    inner,
		provider: provider,
		model:    model,
		logger:   logger,
	}
}

// Generate delegates to the inner generator and records the outcome.
func (g *InstrumentedGenerator) Generate(ctx context.Context, p domrec.Prompt) (domrec.Generation, error) {
	start := time.Now()
	gen, err := g.inner.Generate(ctx, p)
	duration := time.Since(start)

	metrics.GeneratorRequestDuration.WithLabelValues(g.provider, g.model).Observe(duration.Seconds())

	if err != nil {
		metrics.GeneratorErrorsTotal.WithLabelValues(g.provider, g.model).Inc()
		g.logger.Error("Answer generation failed",
			zap.String("provider", g.provider),
			zap.String("model", g.model),
			zap.String("focus", string(p.Focus)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domrec.Generation{}, fmt.Errorf("generate: %w", err)
	}

	if gen.TokensUsed > 0 {
		metrics.GeneratorTokensTotal.WithLabelValues(g.provider, g.model).Add(float64(gen.TokensUsed))
	}

	g.logger.Debug("Answer generation completed",
		zap.String("provider", g.provider),
		zap.String("model", g.model),
		zap.String("focus", string(p.Focus)),
		zap.Duration("duration", duration),
		zap.Int("sources", len(gen.Sources)),
		zap.Int("tokens_used", gen.TokensUsed),
	)
	return gen, nil
}

// HealthCheck forwards to the inner generator when it supports health checks.
func (g *InstrumentedGenerator) HealthCheck(ctx context.Context) error {
	hc, ok := g.inner.(interface{ HealthCheck(context.Context) error })
	if !ok {
		return nil
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("generator health: %w", err)
	}
	return nil
}
