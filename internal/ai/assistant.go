package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	openai "github.com/sashabaranov/go-openai"

	"github.com/facturaIA/invoice-ai-service/internal/apperr"
)

// Options bounds and formats AI calls
type Options struct {
	Timeout  time.Duration
	Retries  int
	Currency string
}

// Assistant turns model output into validated invoice seeds, reminder emails
// and dashboard insights. The provider is injected so tests can script it.
type Assistant struct {
	provider Provider
	timeout  time.Duration
	retries  int
	currency string
	logger   *zap.Logger
}

func NewAssistant(provider Provider, opts Options, logger *zap.Logger) *Assistant {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Currency == "" {
		opts.Currency = "₹"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{
		provider: provider,
		timeout:  opts.Timeout,
		retries:  opts.Retries,
		currency: opts.Currency,
		logger:   logger.Named("ai"),
	}
}

// ProviderName returns the configured backend, for health reporting
func (a *Assistant) ProviderName() string {
	return a.provider.Name()
}

// generate performs one bounded call, retried on transient failure.
// An empty reply is never retried.
func (a *Assistant) generate(ctx context.Context, op string, req Request) (string, error) {
	var lastErr error
	timedOut := false

	for attempt := 1; attempt <= a.retries+1; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		start := time.Now()
		text, err := a.provider.Generate(callCtx, req)
		deadline := errors.Is(callCtx.Err(), context.DeadlineExceeded)
		cancel()

		if err == nil {
			a.logger.Info("generated",
				zap.String("op", op),
				zap.String("provider", a.provider.Name()),
				zap.Int("attempt", attempt),
				zap.Duration("duration", time.Since(start)),
				zap.Int("response_length", len(text)),
			)
			a.logger.Debug("raw response", zap.String("op", op), zap.String("text", text))

			if strings.TrimSpace(text) == "" {
				return "", apperr.New(apperr.AIMalformed, "AI returned an empty response")
			}
			return text, nil
		}

		lastErr = err
		timedOut = deadline
		a.logger.Warn("generation failed",
			zap.String("op", op),
			zap.String("provider", a.provider.Name()),
			zap.Int("attempt", attempt),
			zap.Duration("duration", time.Since(start)),
			zap.Bool("timeout", deadline),
			zap.Error(err),
		)

		// the caller went away; retrying cannot help
		if ctx.Err() != nil {
			break
		}
		if !deadline && !isTransient(err) {
			break
		}
	}

	if timedOut || errors.Is(lastErr, context.DeadlineExceeded) {
		return "", apperr.Wrap(apperr.Timeout, "AI service timed out", lastErr)
	}
	return "", apperr.Wrap(apperr.AIUnavailable, "AI service unavailable", lastErr)
}

// isTransient reports rate limiting, server-side failures and unavailability
// as seen by the OpenAI and Google client libraries.
func isTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return transientHTTP(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return transientHTTP(reqErr.HTTPStatusCode)
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return transientHTTP(gErr.Code)
	}
	var httpCoder interface{ HTTPCode() int }
	if errors.As(err, &httpCoder) && httpCoder.HTTPCode() > 0 {
		return transientHTTP(httpCoder.HTTPCode())
	}
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded:
			return true
		}
	}
	return false
}

func transientHTTP(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
