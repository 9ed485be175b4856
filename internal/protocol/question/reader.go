// Package question assembles the current on-chain state of a proposal's
// dispute question into a single read-model.
package question

import (
	"context"
	"math/big"
	"time"

	logger "log/slog"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/realitymod/internal/core/domain"
	"github.com/vietddude/realitymod/internal/infra/eth"
	"github.com/vietddude/realitymod/internal/protocol/hashing"
)

// ContractReader is the read-only slice of the contract transport the
// reader needs.
type ContractReader interface {
	Read(ctx context.Context, call eth.Call) ([]any, error)
	BatchRead(ctx context.Context, calls []eth.Call) ([][]any, error)
}

// Reader builds proposal descriptors from read-only chain queries. It
// performs no state-mutating submission.
type Reader struct {
	caller ContractReader
	now    func() time.Time
	log    *logger.Logger
}

// NewReader creates a reader on top of a contract transport.
func NewReader(caller ContractReader) *Reader {
	return &Reader{
		caller: caller,
		now:    time.Now,
		log:    logger.With("component", "question.reader"),
	}
}

// DescribeProposal derives the proposal's question, then merges module
// configuration, oracle resolution state and per-transaction execution
// state into one descriptor. All-or-nothing: if any read fails the whole
// call fails, tagged by the dependency that failed.
func (r *Reader) DescribeProposal(
	ctx context.Context,
	chainID *big.Int,
	module common.Address,
	proposalID string,
	batch []domain.Transaction,
) (*domain.ProposalDescriptor, error) {
	hashes, err := hashing.HashBatch(chainID, module, batch)
	if err != nil {
		return nil, err
	}
	questionText := hashing.BuildQuestion(proposalID, hashes)
	questionHash := hashing.HashQuestion(questionText)

	moduleCfg, questionID, err := r.readModuleState(ctx, module, questionHash)
	if err != nil {
		return nil, &domain.DependencyError{Dependency: domain.DependencyModule, Err: err}
	}

	desc := &domain.ProposalDescriptor{
		ProposalID:   proposalID,
		Question:     questionText,
		QuestionHash: questionHash,
		QuestionID:   questionID,
		Module:       moduleCfg,
		Transactions: make([]domain.TransactionStatus, len(hashes)),
	}
	for i, h := range hashes {
		desc.Transactions[i] = domain.TransactionStatus{Hash: h}
	}

	desc.QuestionExists = questionID != (common.Hash{})
	if !desc.QuestionExists {
		return desc, nil
	}

	// Oracle resolution state and execution flags have no data dependency
	// on each other, so the two batches overlap.
	var (
		oracleState domain.QuestionState
		executed    []bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		state, err := r.readOracleState(gctx, moduleCfg, questionID)
		if err != nil {
			return &domain.DependencyError{Dependency: domain.DependencyOracle, Err: err}
		}
		oracleState = state
		return nil
	})
	g.Go(func() error {
		flags, err := r.readExecutedFlags(gctx, module, questionHash, hashes)
		if err != nil {
			return &domain.DependencyError{Dependency: domain.DependencyModule, Err: err}
		}
		executed = flags
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	desc.Oracle = oracleState
	r.applyEligibility(desc, executed)
	return desc, nil
}

func (r *Reader) readModuleState(
	ctx context.Context,
	module common.Address,
	questionHash common.Hash,
) (domain.ModuleConfig, common.Hash, error) {
	calls := []eth.Call{
		{To: module, ABI: eth.ModuleABI, Method: "oracle"},
		{To: module, ABI: eth.ModuleABI, Method: "questionTimeout"},
		{To: module, ABI: eth.ModuleABI, Method: "questionCooldown"},
		{To: module, ABI: eth.ModuleABI, Method: "answerExpiration"},
		{To: module, ABI: eth.ModuleABI, Method: "minimumBond"},
		{To: module, ABI: eth.ModuleABI, Method: "questionIds", Args: []any{questionHash}},
	}
	results, err := r.caller.BatchRead(ctx, calls)
	if err != nil {
		return domain.ModuleConfig{}, common.Hash{}, err
	}

	cfg := domain.ModuleConfig{
		Oracle:           eth.AsAddress(results[0][0]),
		QuestionTimeout:  eth.AsUint32(results[1][0]),
		QuestionCooldown: eth.AsUint32(results[2][0]),
		AnswerExpiration: eth.AsUint32(results[3][0]),
		MinimumBond:      eth.AsBigInt(results[4][0]),
	}
	return cfg, eth.AsHash(results[5][0]), nil
}

func (r *Reader) readOracleState(
	ctx context.Context,
	cfg domain.ModuleConfig,
	questionID common.Hash,
) (domain.QuestionState, error) {
	args := []any{questionID}
	calls := []eth.Call{
		{To: cfg.Oracle, ABI: eth.OracleABI, Method: "getBestAnswer", Args: args},
		{To: cfg.Oracle, ABI: eth.OracleABI, Method: "isFinalized", Args: args},
		{To: cfg.Oracle, ABI: eth.OracleABI, Method: "getFinalizeTS", Args: args},
		{To: cfg.Oracle, ABI: eth.OracleABI, Method: "getBond", Args: args},
		{To: cfg.Oracle, ABI: eth.OracleABI, Method: "getHistoryHash", Args: args},
	}
	results, err := r.caller.BatchRead(ctx, calls)
	if err != nil {
		return domain.QuestionState{}, err
	}

	return domain.QuestionState{
		Oracle:      cfg.Oracle,
		BestAnswer:  eth.AsHash(results[0][0]),
		Finalized:   eth.AsBool(results[1][0]),
		FinalizeTS:  uint64(eth.AsUint32(results[2][0])),
		Bond:        eth.AsBigInt(results[3][0]),
		HistoryHash: eth.AsHash(results[4][0]),
		MinimumBond: cfg.MinimumBond,
	}, nil
}

func (r *Reader) readExecutedFlags(
	ctx context.Context,
	module common.Address,
	questionHash common.Hash,
	hashes []common.Hash,
) ([]bool, error) {
	calls := make([]eth.Call, len(hashes))
	for i, h := range hashes {
		calls[i] = eth.Call{
			To:     module,
			ABI:    eth.ModuleABI,
			Method: "executedProposalTransactions",
			Args:   []any{questionHash, h},
		}
	}
	results, err := r.caller.BatchRead(ctx, calls)
	if err != nil {
		return nil, err
	}

	flags := make([]bool, len(hashes))
	for i, out := range results {
		flags[i] = eth.AsBool(out[0])
	}
	return flags, nil
}

// applyEligibility derives execution eligibility: the oracle finalized
// the approving answer, the module cooldown elapsed, the answer window
// has not expired, and transactions execute in batch order.
func (r *Reader) applyEligibility(desc *domain.ProposalDescriptor, executed []bool) {
	now := r.now().Unix()

	desc.Approved = desc.Oracle.Finalized && desc.Oracle.BestAnswer == domain.ApprovedAnswer
	if desc.Oracle.FinalizeTS > 0 {
		desc.CooldownEnds = time.Unix(
			int64(desc.Oracle.FinalizeTS)+int64(desc.Module.QuestionCooldown), 0,
		)
		if desc.Module.AnswerExpiration > 0 {
			expiry := int64(desc.Oracle.FinalizeTS) + int64(desc.Module.AnswerExpiration)
			desc.Expired = now > expiry
		}
	}

	cooldownPassed := desc.Approved && now >= desc.CooldownEnds.Unix()
	previousExecuted := true
	for i := range desc.Transactions {
		desc.Transactions[i].Executed = executed[i]
		desc.Transactions[i].Executable = cooldownPassed &&
			!desc.Expired &&
			!executed[i] &&
			previousExecuted
		previousExecuted = executed[i]
	}
}
