package rpc

import (
	"context"
	"fmt"
	"time"

	logger "log/slog"

	"github.com/vietddude/realitymod/internal/core/metrics"
)

// Client fans JSON-RPC calls out over one or more providers with retry
// and failover. It carries no protocol state; every call stands alone.
type Client struct {
	network   string
	providers []Provider
	retry     RetryConfig
	log       *logger.Logger
}

// NewClient creates a client for a network with an ordered provider list.
func NewClient(network string, providers []Provider) (*Client, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("no providers for network %s", network)
	}
	return &Client{
		network:   network,
		providers: providers,
		retry:     DefaultRetryConfig,
		log:       logger.With("network", network),
	}, nil
}

// Network returns the network this client serves.
func (c *Client) Network() string { return c.network }

// Call makes a JSON-RPC call, retrying per provider and failing over to
// the next provider on provider-specific errors.
func (c *Client) Call(ctx context.Context, method string, params []any) (any, error) {
	var lastErr error

	for _, p := range c.providers {
		start := time.Now()
		result, err := callWithRetry(ctx, c.retry, func() (any, error) {
			return p.Call(ctx, method, params)
		})
		c.record(p, method, start, err)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if ClassifyError(err) == ActionFatal {
			return nil, fmt.Errorf("%s via %s: %w", method, p.Name(), err)
		}
		c.log.Warn("provider failed, trying next",
			"provider", p.Name(), "method", method, "error_rate", errorRate(p), "error", err)
	}

	return nil, fmt.Errorf("all providers failed for %s: %w", method, lastErr)
}

// BatchCall sends multiple requests in one round-trip, with the same
// failover behavior as Call. Either every response is returned or the
// batch as a whole fails.
func (c *Client) BatchCall(ctx context.Context, requests []BatchRequest) ([]BatchResponse, error) {
	if len(requests) == 0 {
		return nil, nil
	}

	var lastErr error

	for _, p := range c.providers {
		start := time.Now()
		result, err := callWithRetry(ctx, c.retry, func() (any, error) {
			return p.BatchCall(ctx, requests)
		})
		c.record(p, "batch", start, err)
		if err == nil {
			return result.([]BatchResponse), nil
		}

		lastErr = err
		if ClassifyError(err) == ActionFatal {
			return nil, fmt.Errorf("batch via %s: %w", p.Name(), err)
		}
		c.log.Warn("provider failed batch, trying next",
			"provider", p.Name(), "error_rate", errorRate(p), "error", err)
	}

	return nil, fmt.Errorf("all providers failed for batch: %w", lastErr)
}

// Close closes all providers.
func (c *Client) Close() error {
	var firstErr error
	for _, p := range c.providers {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// errorRate reports the provider's cumulative failure fraction when it
// tracks one.
func errorRate(p Provider) float64 {
	if tracked, ok := p.(interface{ ErrorRate() float64 }); ok {
		return tracked.ErrorRate()
	}
	return 0
}

func (c *Client) record(p Provider, method string, start time.Time, err error) {
	metrics.RPCCallsTotal.WithLabelValues(c.network, p.Name(), method).Inc()
	metrics.RPCLatency.WithLabelValues(c.network, p.Name(), method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RPCErrorsTotal.WithLabelValues(c.network, p.Name(), method).Inc()
	}
}
