package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ModuleConfig is the on-chain configuration of a reality module.
type ModuleConfig struct {
	Oracle           common.Address
	QuestionTimeout  uint32
	QuestionCooldown uint32
	AnswerExpiration uint32 // 0 = answers never expire
	MinimumBond      *big.Int
}

// QuestionState is the oracle-side resolution state of a question. Read,
// never locally mutated; always re-fetched from the chain of record.
type QuestionState struct {
	Oracle      common.Address
	BestAnswer  common.Hash
	HistoryHash common.Hash
	Finalized   bool
	FinalizeTS  uint64
	Bond        *big.Int
	MinimumBond *big.Int
}

// TransactionStatus is the per-transaction execution view of a proposal.
type TransactionStatus struct {
	Hash       common.Hash
	Executed   bool
	Executable bool
}

// ProposalDescriptor merges module, oracle and execution state for one
// proposal into a single read-model.
type ProposalDescriptor struct {
	ProposalID   string
	Question     string
	QuestionHash common.Hash
	QuestionID   common.Hash

	Module ModuleConfig
	Oracle QuestionState

	QuestionExists bool
	Approved       bool
	CooldownEnds   time.Time
	Expired        bool
	Transactions   []TransactionStatus
}

// ApprovedAnswer is the oracle answer that approves proposal execution.
var ApprovedAnswer = common.BigToHash(big.NewInt(1))
