package recovery

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/wayfarerhq/datacore/internal/core/domain"
)

// executeRetry re-invokes the original operation up to maxAttempts
// total attempts with exponentially increasing (capped) delay.
func (s *Service) executeRetry(ctx context.Context, call Call) *domain.RecoveryResult {
	if call.Invoke == nil {
		return failure(domain.StrategyRetry, "no operation available to retry")
	}

	base := s.cfg.RetryBaseDelay
	if base <= 0 {
		base = time.Second
	}
	cap := s.cfg.RetryMaxDelay
	if cap <= 0 {
		cap = 30 * time.Second
	}

	backoff := retry.WithMaxRetries(maxAttempts-1,
		retry.WithCappedDuration(cap, retry.NewExponential(base)))

	var (
		attempt int
		out     any
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		v, err := call.Invoke(ctx, call.Params)
		if err != nil {
			s.log.Debug("Retry attempt failed",
				"service", call.Service,
				"method", call.Method,
				"attempt", attempt,
				"error", err,
			)
			return retry.RetryableError(err)
		}
		out = v
		return nil
	})
	if err != nil {
		return failure(domain.StrategyRetry,
			fmt.Sprintf("all %d retry attempts failed: %v", maxAttempts, err))
	}

	return &domain.RecoveryResult{
		Success:  true,
		Strategy: domain.StrategyRetry,
		Result:   out,
		Metadata: map[string]any{"retry_attempt": attempt},
	}
}
