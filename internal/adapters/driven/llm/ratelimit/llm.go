// Package ratelimit decorates an LLMService with request throttling and a
// per-call deadline.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// LLMService throttles calls to an inner LLMService.
type LLMService struct {
	inner   driven.LLMService
	bucket  *rate.Limiter
	timeout time.Duration
}

// Wrap returns inner throttled to rps requests per second, each bounded by
// timeout. A zero rps disables throttling and a zero timeout disables the
// deadline. When both are zero inner is returned unchanged.
func Wrap(inner driven.LLMService, rps float64, timeout time.Duration) driven.LLMService {
	if inner == nil || (rps <= 0 && timeout <= 0) {
		return inner
	}
	s := &LLMService{inner: inner, timeout: timeout}
	if rps > 0 {
		s.bucket = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return s
}

// Complete waits for a token and forwards the call under the deadline.
func (s *LLMService) Complete(
	ctx context.Context,
	system, user string,
	opts driven.CompletionOptions,
) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if s.bucket != nil {
		if err := s.bucket.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: waiting for rate limit: %w", domain.ErrCollaboratorTimeout, err)
		}
	}

	out, err := s.inner.Complete(ctx, system, user, opts)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrCollaboratorTimeout) {
		return "", fmt.Errorf("%w: after %s: %w", domain.ErrCollaboratorTimeout, s.timeout, err)
	}
	return out, err
}

// ModelName returns the inner model name.
func (s *LLMService) ModelName() string { return s.inner.ModelName() }

// Ping forwards to the inner service without throttling.
func (s *LLMService) Ping(ctx context.Context) error { return s.inner.Ping(ctx) }

// Close closes the inner service.
func (s *LLMService) Close() error { return s.inner.Close() }
