package sheets

import (
	"context"
	"time"

	"github.com/duquesnay/google-sheets-mcp-server/internal/telemetry"
	"github.com/sirupsen/logrus"
)

// RetryConfig controls how backend calls are retried. Only transient
// failures (rate limiting, 5xx) are retried; request errors and domain
// errors return immediately.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultRetryConfig matches the quota-friendly policy the hosted API
// tolerates well: three attempts with exponential backoff between 4s and 10s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 4 * time.Second,
		MaxWait:     10 * time.Second,
		Multiplier:  2,
	}
}

// withRetry runs fn until it succeeds, fails permanently, or attempts are
// exhausted. The last error is returned as-is so callers keep the typed
// error from the final attempt.
func withRetry(ctx context.Context, logger *logrus.Logger, cfg RetryConfig, operation string, fn func(context.Context) error) error {
	wait := cfg.InitialWait
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil || !IsRetryable(err) || attempt >= cfg.MaxAttempts {
			return err
		}

		logger.WithFields(logrus.Fields{
			"operation": operation,
			"attempt":   attempt,
			"wait":      wait.String(),
		}).Warn("Transient Sheets API error, retrying")
		telemetry.RecordSheetsRetry(ctx, operation)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		wait = time.Duration(float64(wait) * cfg.Multiplier)
		if wait > cfg.MaxWait {
			wait = cfg.MaxWait
		}
	}
}
