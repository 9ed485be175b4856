package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RPCCallsTotal tracks JSON-RPC calls per network and provider
	RPCCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realitymod_rpc_calls_total",
			Help: "Total number of RPC calls",
		},
		[]string{"network", "provider", "method"},
	)

	// RPCErrorsTotal tracks JSON-RPC failures per network and provider
	RPCErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realitymod_rpc_errors_total",
			Help: "Total number of RPC errors",
		},
		[]string{"network", "provider", "method"},
	)

	// RPCLatency tracks JSON-RPC call latency
	RPCLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "realitymod_rpc_latency_seconds",
			Help:    "RPC call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"network", "provider", "method"},
	)

	// StagedOperationsTotal tracks staged mutating operations by outcome
	StagedOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realitymod_staged_operations_total",
			Help: "Total number of staged operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	// AnswerEventsScanned tracks decoded answer events per network
	AnswerEventsScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realitymod_answer_events_scanned_total",
			Help: "Total number of answer events decoded from logs",
		},
		[]string{"network"},
	)

	// TokenCacheHits tracks token metadata cache hits and misses
	TokenCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realitymod_token_cache_total",
			Help: "Token metadata cache lookups by result",
		},
		[]string{"result"},
	)
)
