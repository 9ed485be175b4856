package rpc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// RetryConfig defines retry behavior for transport-level failures.
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     3,
	InitialDelay:    500 * time.Millisecond,
	MaxDelay:        10 * time.Second,
	BackoffMultiple: 2.0,
}

// ErrorAction determines how to handle an error.
type ErrorAction int

const (
	ActionRetry ErrorAction = iota
	ActionFailover
	ActionFatal
)

// ClassifyError determines the action for a given error. Fatal errors are
// request problems a different provider cannot fix; failover errors are
// provider-specific; everything else (network, 5xx) is retried.
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionRetry // Should not happen
	}

	var rpcErr *jsonRPCError
	if errors.As(err, &rpcErr) {
		switch rpcErr.Code {
		case -32700, -32600, -32601, -32602:
			return ActionFatal
		}
		// Execution reverts and gas estimation failures are deterministic;
		// another provider will say the same thing.
		if strings.Contains(strings.ToLower(rpcErr.Message), "revert") {
			return ActionFatal
		}
		return ActionFailover
	}

	sLower := strings.ToLower(err.Error())
	if strings.Contains(sLower, "429") || strings.Contains(sLower, "too many requests") ||
		strings.Contains(sLower, "quota") || strings.Contains(sLower, "rate limit") ||
		strings.Contains(sLower, "forbidden") || strings.Contains(sLower, "unauthorized") {
		return ActionFailover
	}

	return ActionRetry
}

// callWithRetry executes a call with exponential backoff on retryable
// errors, stopping early on fatal or failover classification.
func callWithRetry(
	ctx context.Context,
	config RetryConfig,
	call func() (any, error),
) (any, error) {
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		result, err := call()
		if err == nil {
			return result, nil
		}

		lastErr = err

		switch ClassifyError(err) {
		case ActionFatal, ActionFailover:
			return nil, err
		}

		if attempt == config.MaxAttempts-1 {
			break
		}

		delay := calculateBackoff(attempt, config)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffMultiple, float64(attempt))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}
