package eth

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	logger "log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vietddude/realitymod/internal/core/domain"
	"github.com/vietddude/realitymod/internal/infra/rpc"
)

// Writer builds, signs and submits transactions and awaits their
// receipts. One Writer per signing key and chain.
type Writer struct {
	client       *rpc.Client
	key          *ecdsa.PrivateKey
	from         common.Address
	chainID      *big.Int
	pollInterval time.Duration
	log          *logger.Logger
}

// NewWriter creates a writer from a hex-encoded private key.
func NewWriter(client *rpc.Client, chainID *big.Int, hexKey string) (*Writer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	from := crypto.PubkeyToAddress(key.PublicKey)
	return &Writer{
		client:       client,
		key:          key,
		from:         from,
		chainID:      chainID,
		pollInterval: 4 * time.Second,
		log:          logger.With("component", "eth.writer", "from", from.Hex()),
	}, nil
}

// From returns the signer address.
func (w *Writer) From() common.Address { return w.from }

// Send signs and submits a transaction. Once accepted by the network it
// is not retractable; callers must treat the returned hash as committed.
func (w *Writer) Send(
	ctx context.Context,
	to common.Address,
	value *big.Int,
	data []byte,
) (common.Hash, error) {
	nonce, err := w.pendingNonce(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	gasPrice, err := w.gasPrice(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	gas, err := w.estimateGas(ctx, to, value, data)
	if err != nil {
		return common.Hash{}, err
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &to,
		Value:    value,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(w.chainID), w.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode transaction: %w", err)
	}

	result, err := w.client.Call(ctx, "eth_sendRawTransaction", []any{hexutil.Encode(raw)})
	if err != nil {
		return common.Hash{}, &domain.TransportError{Op: "eth_sendRawTransaction", Err: err}
	}

	txHash := common.HexToHash(getString(result))
	w.log.Info("transaction submitted", "tx", txHash.Hex(), "to", to.Hex(), "nonce", nonce)
	return txHash, nil
}

// WaitMined polls for the transaction receipt until it appears or the
// context is cancelled. Cancellation does not retract the transaction.
func (w *Writer) WaitMined(ctx context.Context, txHash common.Hash) (*domain.Receipt, error) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		result, err := w.client.Call(ctx, "eth_getTransactionReceipt", []any{txHash.Hex()})
		if err != nil {
			return nil, &domain.TransportError{Op: "eth_getTransactionReceipt", Err: err}
		}
		if raw, ok := result.(map[string]any); ok {
			return parseReceipt(txHash, raw)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *Writer) pendingNonce(ctx context.Context) (uint64, error) {
	result, err := w.client.Call(ctx, "eth_getTransactionCount", []any{w.from.Hex(), "pending"})
	if err != nil {
		return 0, &domain.TransportError{Op: "eth_getTransactionCount", Err: err}
	}
	return parseHexUint(getString(result))
}

func (w *Writer) gasPrice(ctx context.Context) (*big.Int, error) {
	result, err := w.client.Call(ctx, "eth_gasPrice", []any{})
	if err != nil {
		return nil, &domain.TransportError{Op: "eth_gasPrice", Err: err}
	}
	return parseHexBig(getString(result))
}

func (w *Writer) estimateGas(
	ctx context.Context,
	to common.Address,
	value *big.Int,
	data []byte,
) (uint64, error) {
	msg := map[string]any{
		"from": w.from.Hex(),
		"to":   to.Hex(),
		"data": hexutil.Encode(data),
	}
	if value != nil && value.Sign() > 0 {
		msg["value"] = hexutil.EncodeBig(value)
	}
	result, err := w.client.Call(ctx, "eth_estimateGas", []any{msg})
	if err != nil {
		return 0, &domain.TransportError{Op: "eth_estimateGas", Err: err}
	}
	return parseHexUint(getString(result))
}

func parseReceipt(txHash common.Hash, raw map[string]any) (*domain.Receipt, error) {
	status, err := parseHexUint(getString(raw["status"]))
	if err != nil {
		return nil, fmt.Errorf("receipt status: %w", err)
	}
	blockNumber, _ := parseHexUint(getString(raw["blockNumber"]))
	gasUsed, _ := parseHexUint(getString(raw["gasUsed"]))

	receipt := &domain.Receipt{
		TxHash:      txHash,
		BlockNumber: blockNumber,
		GasUsed:     gasUsed,
		Status:      status,
	}

	if rawLogs, ok := raw["logs"].([]any); ok {
		for _, rawLog := range rawLogs {
			entry, ok := rawLog.(map[string]any)
			if !ok {
				continue
			}
			parsed, err := parseLog(entry)
			if err != nil {
				continue
			}
			receipt.Logs = append(receipt.Logs, parsed)
		}
	}

	return receipt, nil
}
