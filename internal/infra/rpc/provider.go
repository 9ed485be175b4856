// Package rpc provides the JSON-RPC transport for the protocol engine:
// HTTP providers, retry with error classification, and a multi-provider
// failover client. Protocol-level operations are never retried here; a
// failed read or write surfaces to the caller as a TransportError.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Provider is a single JSON-RPC endpoint.
type Provider interface {
	Call(ctx context.Context, method string, params []any) (any, error)
	BatchCall(ctx context.Context, requests []BatchRequest) ([]BatchResponse, error)
	Name() string
	Close() error
}

// BatchRequest is a single request in a batch call.
type BatchRequest struct {
	Method string
	Params []any
}

// BatchResponse is a single response from a batch call.
type BatchResponse struct {
	Result any
	Error  error
}

// HTTPProvider implements Provider for JSON-RPC over HTTP.
type HTTPProvider struct {
	name       string
	endpoint   string
	httpClient *http.Client

	mu           sync.Mutex
	failureCount int
	requestCount int
}

// NewHTTPProvider creates a new HTTP-based JSON-RPC provider.
func NewHTTPProvider(name, endpoint string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		name:     name,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Call makes a single JSON-RPC call.
func (p *HTTPProvider) Call(ctx context.Context, method string, params []any) (any, error) {
	reqBody := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
		"id":      1,
	}

	body, err := p.post(ctx, reqBody)
	if err != nil {
		return nil, err
	}

	var rpcResp struct {
		Result any           `json:"result"`
		Error  *jsonRPCError `json:"error"`
	}
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		p.recordFailure()
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if rpcResp.Error != nil {
		p.recordFailure()
		return nil, rpcResp.Error
	}

	p.recordSuccess()
	return rpcResp.Result, nil
}

// BatchCall makes multiple JSON-RPC calls in one request. Responses are
// matched back to requests by id; providers may reorder them.
func (p *HTTPProvider) BatchCall(ctx context.Context, requests []BatchRequest) ([]BatchResponse, error) {
	batchReq := make([]map[string]any, len(requests))
	for i, req := range requests {
		batchReq[i] = map[string]any{
			"jsonrpc": "2.0",
			"method":  req.Method,
			"params":  req.Params,
			"id":      i + 1,
		}
	}

	body, err := p.post(ctx, batchReq)
	if err != nil {
		return nil, err
	}

	var batchResp []struct {
		ID     int           `json:"id"`
		Result any           `json:"result"`
		Error  *jsonRPCError `json:"error"`
	}
	if err := json.Unmarshal(body, &batchResp); err != nil {
		p.recordFailure()
		return nil, fmt.Errorf("parse batch response: %w", err)
	}
	if len(batchResp) != len(requests) {
		p.recordFailure()
		return nil, fmt.Errorf("batch size mismatch: sent %d, got %d", len(requests), len(batchResp))
	}

	responses := make([]BatchResponse, len(requests))
	for _, r := range batchResp {
		idx := r.ID - 1
		if idx < 0 || idx >= len(responses) {
			p.recordFailure()
			return nil, fmt.Errorf("batch response with unknown id %d", r.ID)
		}
		if r.Error != nil {
			responses[idx] = BatchResponse{Error: r.Error}
		} else {
			responses[idx] = BatchResponse{Result: r.Result}
		}
	}

	p.recordSuccess()
	return responses, nil
}

func (p *HTTPProvider) post(ctx context.Context, payload any) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		p.recordFailure()
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		p.recordFailure()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.recordFailure()
		return nil, fmt.Errorf("rpc call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 429 {
		p.recordFailure()
		return nil, fmt.Errorf("rate limited (429), retry after: %s", resp.Header.Get("Retry-After"))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.recordFailure()
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		p.recordFailure()
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// Name returns the provider's name.
func (p *HTTPProvider) Name() string {
	return p.name
}

// Close cleans up resources.
func (p *HTTPProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// ErrorRate returns the fraction of failed requests.
func (p *HTTPProvider) ErrorRate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.requestCount == 0 {
		return 0
	}
	return float64(p.failureCount) / float64(p.requestCount)
}

func (p *HTTPProvider) recordSuccess() {
	p.mu.Lock()
	p.requestCount++
	p.mu.Unlock()
}

func (p *HTTPProvider) recordFailure() {
	p.mu.Lock()
	p.requestCount++
	p.failureCount++
	p.mu.Unlock()
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func (e *jsonRPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}
