// Package eth is the contract-level transport: ABI-encoded reads (single
// and batched), raw transaction submission with receipt polling, and
// event-log scanning. It owns no protocol logic; callers inject it as an
// already-resolved handle.
package eth

import (
	"context"
	"fmt"
	"math/big"

	logger "log/slog"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/vietddude/realitymod/internal/core/domain"
	"github.com/vietddude/realitymod/internal/infra/rpc"
)

// Call is one contract read: target, interface, method and arguments.
type Call struct {
	To     common.Address
	ABI    *abi.ABI
	Method string
	Args   []any
}

// Caller performs read-only contract calls over a JSON-RPC client.
type Caller struct {
	client *rpc.Client
	log    *logger.Logger
}

// NewCaller creates a caller on top of an RPC client.
func NewCaller(client *rpc.Client) *Caller {
	return &Caller{
		client: client,
		log:    logger.With("component", "eth.caller"),
	}
}

// Read performs one eth_call and unpacks the outputs.
func (c *Caller) Read(ctx context.Context, call Call) ([]any, error) {
	data, err := call.ABI.Pack(call.Method, call.Args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", call.Method, err)
	}

	result, err := c.client.Call(ctx, "eth_call", []any{
		map[string]any{"to": call.To.Hex(), "data": hexutil.Encode(data)},
		"latest",
	})
	if err != nil {
		return nil, &domain.TransportError{Op: "eth_call " + call.Method, Err: err}
	}

	return unpackResult(call, result)
}

// BatchRead performs many eth_calls in a single round-trip, preserving
// order. Either every call decodes or the batch fails; no partial result
// is returned.
func (c *Caller) BatchRead(ctx context.Context, calls []Call) ([][]any, error) {
	if len(calls) == 0 {
		return nil, nil
	}

	requests := make([]rpc.BatchRequest, len(calls))
	for i, call := range calls {
		data, err := call.ABI.Pack(call.Method, call.Args...)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", call.Method, err)
		}
		requests[i] = rpc.BatchRequest{
			Method: "eth_call",
			Params: []any{
				map[string]any{"to": call.To.Hex(), "data": hexutil.Encode(data)},
				"latest",
			},
		}
	}

	responses, err := c.client.BatchCall(ctx, requests)
	if err != nil {
		return nil, &domain.TransportError{Op: "batch eth_call", Err: err}
	}

	results := make([][]any, len(calls))
	for i, resp := range responses {
		if resp.Error != nil {
			return nil, &domain.TransportError{
				Op:  "eth_call " + calls[i].Method,
				Err: resp.Error,
			}
		}
		out, err := unpackResult(calls[i], resp.Result)
		if err != nil {
			return nil, err
		}
		results[i] = out
	}
	return results, nil
}

// BlockNumber returns the current chain head.
func (c *Caller) BlockNumber(ctx context.Context) (uint64, error) {
	result, err := c.client.Call(ctx, "eth_blockNumber", []any{})
	if err != nil {
		return 0, &domain.TransportError{Op: "eth_blockNumber", Err: err}
	}
	return parseHexUint(getString(result))
}

// FilterLogs queries contract logs in [fromBlock, toBlock], chain-native
// ordering (oldest first). Topic positions with a nil entry match
// anything.
func (c *Caller) FilterLogs(
	ctx context.Context,
	address common.Address,
	topics []any,
	fromBlock, toBlock uint64,
) ([]domain.Log, error) {
	result, err := c.client.Call(ctx, "eth_getLogs", []any{
		map[string]any{
			"address":   address.Hex(),
			"topics":    topics,
			"fromBlock": fmt.Sprintf("0x%x", fromBlock),
			"toBlock":   fmt.Sprintf("0x%x", toBlock),
		},
	})
	if err != nil {
		return nil, &domain.TransportError{Op: "eth_getLogs", Err: err}
	}

	rawLogs, ok := result.([]any)
	if !ok {
		return nil, &domain.TransportError{
			Op:  "eth_getLogs",
			Err: fmt.Errorf("unexpected log list format %T", result),
		}
	}

	logs := make([]domain.Log, 0, len(rawLogs))
	for _, rawLog := range rawLogs {
		entry, ok := rawLog.(map[string]any)
		if !ok {
			continue
		}
		parsed, err := parseLog(entry)
		if err != nil {
			c.log.Warn("skipping undecodable log", "error", err)
			continue
		}
		logs = append(logs, parsed)
	}
	return logs, nil
}

func parseLog(raw map[string]any) (domain.Log, error) {
	blockNumber, err := parseHexUint(getString(raw["blockNumber"]))
	if err != nil {
		return domain.Log{}, fmt.Errorf("blockNumber: %w", err)
	}
	logIndex, err := parseHexUint(getString(raw["logIndex"]))
	if err != nil {
		return domain.Log{}, fmt.Errorf("logIndex: %w", err)
	}

	var topics []common.Hash
	if rawTopics, ok := raw["topics"].([]any); ok {
		for _, t := range rawTopics {
			topics = append(topics, common.HexToHash(getString(t)))
		}
	}

	return domain.Log{
		Address:     common.HexToAddress(getString(raw["address"])),
		Topics:      topics,
		Data:        common.FromHex(getString(raw["data"])),
		BlockNumber: blockNumber,
		TxHash:      common.HexToHash(getString(raw["transactionHash"])),
		Index:       uint(logIndex),
	}, nil
}

func unpackResult(call Call, result any) ([]any, error) {
	hexData := getString(result)
	out, err := call.ABI.Unpack(call.Method, common.FromHex(hexData))
	if err != nil {
		return nil, &domain.TransportError{
			Op:  "decode " + call.Method,
			Err: err,
		}
	}
	return out, nil
}

// Typed accessors for unpacked ABI outputs. Decoding already enforced the
// ABI types; these only normalize the dynamic typing of []any.

func AsAddress(v any) common.Address {
	a, _ := v.(common.Address)
	return a
}

func AsHash(v any) common.Hash {
	b, _ := v.([32]byte)
	return common.Hash(b)
}

func AsBigInt(v any) *big.Int {
	if n, ok := v.(*big.Int); ok {
		return n
	}
	return big.NewInt(0)
}

func AsBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func AsUint32(v any) uint32 {
	n, _ := v.(uint32)
	return n
}

func AsUint8(v any) uint8 {
	n, _ := v.(uint8)
	return n
}

func AsString(v any) string {
	s, _ := v.(string)
	return s
}
