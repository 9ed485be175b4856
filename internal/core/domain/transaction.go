package domain

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Operation selects how the avatar performs a proposal transaction.
type Operation uint8

const (
	OperationCall         Operation = 0
	OperationDelegateCall Operation = 1
)

// Transaction is one entry of a proposal batch. It is immutable once
// hashed; Value and Nonce are decimal strings so that omitted fields can
// be distinguished from explicit zeros before defaulting.
type Transaction struct {
	To        string    `json:"to"`
	Value     string    `json:"value"`
	Data      string    `json:"data"`
	Operation Operation `json:"operation"`
	Nonce     string    `json:"nonce"`
}

// Validate checks the transaction against the batch validity rules.
func (t Transaction) Validate() error {
	if t.To != "" && !common.IsHexAddress(t.To) {
		return fmt.Errorf("to %q is not an address", t.To)
	}
	if t.Data != "" {
		if _, err := ParseHexBytes(t.Data); err != nil {
			return fmt.Errorf("data: %w", err)
		}
	}
	if t.Operation != OperationCall && t.Operation != OperationDelegateCall {
		return fmt.Errorf("operation %d is not call or delegatecall", t.Operation)
	}
	if _, err := parseUint(t.Value); err != nil {
		return fmt.Errorf("value: %w", err)
	}
	if _, err := parseUint(t.Nonce); err != nil {
		return fmt.Errorf("nonce: %w", err)
	}
	return nil
}

// ValueInt returns the transaction value, defaulting to zero when omitted.
func (t Transaction) ValueInt() *big.Int {
	v, _ := parseUint(t.Value)
	return v
}

// NonceInt returns the transaction nonce, defaulting to zero when omitted.
func (t Transaction) NonceInt() *big.Int {
	n, _ := parseUint(t.Nonce)
	return n
}

// DataBytes returns the call data, defaulting to empty when omitted.
func (t Transaction) DataBytes() []byte {
	if t.Data == "" {
		return []byte{}
	}
	b, _ := ParseHexBytes(t.Data)
	return b
}

// ToAddress returns the target address, the zero address when omitted.
func (t Transaction) ToAddress() common.Address {
	if t.To == "" {
		return common.Address{}
	}
	return common.HexToAddress(t.To)
}

// ParseHexBytes decodes a 0x-prefixed hex string. "0x" and "" decode to
// empty bytes.
func ParseHexBytes(s string) ([]byte, error) {
	raw := strings.TrimPrefix(s, "0x")
	if raw == s {
		return nil, fmt.Errorf("hex string %q missing 0x prefix", s)
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return b, nil
}

func parseUint(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("%q is not a non-negative integer", s)
	}
	return n, nil
}
