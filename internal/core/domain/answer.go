package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AnswerEvent is one entry of the oracle's append-only answer history.
// HistoryHash commits to the previous entry; entries are immutable once
// emitted.
type AnswerEvent struct {
	QuestionID  common.Hash
	User        common.Address
	HistoryHash common.Hash
	Bond        *big.Int
	Answer      common.Hash
	Timestamp   uint64
	BlockNumber uint64
	LogIndex    uint
	TxHash      common.Hash
}

// ClaimBundle is the ordered argument set of the oracle's claim operation:
// parallel arrays, newest answer first, with the genesis slot replaced by
// the zero sentinel.
type ClaimBundle struct {
	HistoryHashes []common.Hash
	Users         []string
	Bonds         []*big.Int
	Answers       []common.Hash
}

// Len returns the number of reconstructed answers.
func (b ClaimBundle) Len() int { return len(b.HistoryHashes) }

// ClaimComputation is the result of reconstructing a question's answer
// chain for the current actor.
type ClaimComputation struct {
	Bundle ClaimBundle

	AlreadyClaimed    bool
	AnsweredCorrectly bool
	ResidualBalance   bool
	CanClaim          bool

	Asset Asset
}
