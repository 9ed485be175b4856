// Package hashing deterministically encodes proposal batches into the
// hashes and question identifiers the on-chain verifier re-derives. Any
// change to the encodings here breaks interoperability and must be
// versioned, never silently altered.
package hashing

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vietddude/realitymod/internal/core/domain"
)

// EIP-712 type hashes. The field schema is a protocol constant shared
// with the module contract.
var (
	domainTypeHash = crypto.Keccak256Hash(
		[]byte("EIP712Domain(uint256 chainId,address verifyingContract)"),
	)
	transactionTypeHash = crypto.Keccak256Hash(
		[]byte("Transaction(address to,uint256 value,bytes data,uint8 operation,uint256 nonce)"),
	)
)

// HashBatch hashes every transaction of a batch under the module's typed
// data domain, preserving batch order. Pure; the same input always yields
// the same hashes. Fails with InvalidTransaction before any hashing if an
// entry violates the batch validity rules.
func HashBatch(chainID *big.Int, module common.Address, batch []domain.Transaction) ([]common.Hash, error) {
	for i, tx := range batch {
		if err := tx.Validate(); err != nil {
			return nil, &domain.InvalidTransactionError{Index: i, Err: err}
		}
	}

	sep := domainSeparator(chainID, module)
	hashes := make([]common.Hash, len(batch))
	for i, tx := range batch {
		hashes[i] = hashTransaction(sep, tx)
	}
	return hashes, nil
}

func domainSeparator(chainID *big.Int, module common.Address) common.Hash {
	return crypto.Keccak256Hash(
		domainTypeHash.Bytes(),
		common.LeftPadBytes(chainID.Bytes(), 32),
		common.LeftPadBytes(module.Bytes(), 32),
	)
}

func hashTransaction(domainSep common.Hash, tx domain.Transaction) common.Hash {
	// Dynamic `bytes` enters the struct hash as keccak256(data), per the
	// typed-data encoding rules. Omitted data and "0x" are equivalent.
	structHash := crypto.Keccak256Hash(
		transactionTypeHash.Bytes(),
		common.LeftPadBytes(tx.ToAddress().Bytes(), 32),
		common.LeftPadBytes(tx.ValueInt().Bytes(), 32),
		crypto.Keccak256(tx.DataBytes()),
		common.LeftPadBytes([]byte{byte(tx.Operation)}, 32),
		common.LeftPadBytes(tx.NonceInt().Bytes(), 32),
	)
	return crypto.Keccak256Hash(
		[]byte{0x19, 0x01},
		domainSep.Bytes(),
		structHash.Bytes(),
	)
}
