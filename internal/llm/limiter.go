package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/agenthands/tally/internal/metrics"
)

// Limited throttles calls to the wrapped client with a token bucket.
type Limited struct {
	next    LLMClient
	limiter *rate.Limiter
}

// NewLimited wraps next with perMinute requests and burst. A non-positive rate disables limiting.
func NewLimited(next LLMClient, perMinute float64, burst int) LLMClient {
	if perMinute <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &Limited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perMinute/60.0), burst),
	}
}

func (l *Limited) Generate(ctx context.Context, prompt string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", &UpstreamError{Provider: "ratelimit", Err: err}
	}
	return l.next.Generate(ctx, prompt)
}

// Instrumented records call latency for the wrapped client.
type Instrumented struct {
	next     LLMClient
	provider string
	metrics  *metrics.Metrics
}

func NewInstrumented(next LLMClient, provider string, m *metrics.Metrics) LLMClient {
	if m == nil {
		return next
	}
	return &Instrumented{next: next, provider: provider, metrics: m}
}

func (i *Instrumented) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := i.next.Generate(ctx, prompt)
	i.metrics.ObserveExtraction(i.provider, time.Since(start), err)
	return text, err
}
