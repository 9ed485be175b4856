package domain

import (
	"github.com/ethereum/go-ethereum/common"
)

// Log is an emitted contract event, chain-native ordering.
type Log struct {
	Address     common.Address
	Topics      []common.Hash
	Data        []byte
	BlockNumber uint64
	TxHash      common.Hash
	Index       uint
}

// Receipt is the confirmation record of a submitted transaction.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	GasUsed     uint64
	Status      uint64
	Logs        []Log
}

// Reverted reports whether the transaction was mined but failed.
func (r *Receipt) Reverted() bool { return r.Status == 0 }
