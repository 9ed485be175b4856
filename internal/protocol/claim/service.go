package claim

import (
	"context"

	logger "log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/realitymod/internal/core/domain"
	"github.com/vietddude/realitymod/internal/infra/eth"
	"github.com/vietddude/realitymod/internal/protocol/bond"
)

// ContractReader is the read-only slice of the contract transport the
// service needs.
type ContractReader interface {
	BatchRead(ctx context.Context, calls []eth.Call) ([][]any, error)
}

// Scanner reads answer events from the chain, oldest first.
type Scanner interface {
	ScanAnswers(ctx context.Context, oracle common.Address, questionID common.Hash, fromBlock uint64) ([]domain.AnswerEvent, uint64, error)
}

// Archive persists already-scanned answer events. Events are append-only
// and immutable once emitted, so the archive only ever grows a question's
// history forward. Optional; a nil archive rescans from the network's
// start block.
type Archive interface {
	Load(ctx context.Context, questionID common.Hash) (events []domain.AnswerEvent, nextBlock uint64, found bool, err error)
	Store(ctx context.Context, questionID common.Hash, events []domain.AnswerEvent, scannedTo uint64) error
}

// Service computes claim entitlements: answer history from archive plus
// fresh tail scan, resolution state and balance from the oracle.
type Service struct {
	caller     ContractReader
	scanner    Scanner
	archive    Archive
	prober     *bond.Prober
	startBlock uint64
	log        *logger.Logger
}

// NewService creates a claim service. archive may be nil.
func NewService(
	caller ContractReader,
	scanner Scanner,
	archive Archive,
	prober *bond.Prober,
	startBlock uint64,
) *Service {
	return &Service{
		caller:     caller,
		scanner:    scanner,
		archive:    archive,
		prober:     prober,
		startBlock: startBlock,
		log:        logger.With("component", "claim.service"),
	}
}

// Compute reconstructs the question's answer chain and the user's claim
// entitlement from current chain state.
func (s *Service) Compute(
	ctx context.Context,
	oracle common.Address,
	questionID common.Hash,
	user common.Address,
) (*domain.ClaimComputation, error) {
	events, err := s.loadEvents(ctx, oracle, questionID)
	if err != nil {
		return nil, err
	}

	calls := []eth.Call{
		{To: oracle, ABI: eth.OracleABI, Method: "getHistoryHash", Args: []any{questionID}},
		{To: oracle, ABI: eth.OracleABI, Method: "getBestAnswer", Args: []any{questionID}},
		{To: oracle, ABI: eth.OracleABI, Method: "isFinalized", Args: []any{questionID}},
		{To: oracle, ABI: eth.OracleABI, Method: "balanceOf", Args: []any{user}},
	}
	results, err := s.caller.BatchRead(ctx, calls)
	if err != nil {
		return nil, &domain.DependencyError{Dependency: domain.DependencyOracle, Err: err}
	}

	comp := Reconstruct(
		events,
		user,
		eth.AsHash(results[0][0]),
		eth.AsHash(results[1][0]),
		eth.AsBool(results[2][0]),
		eth.AsBigInt(results[3][0]),
	)

	asset, err := s.prober.ProbeAsset(ctx, oracle)
	if err != nil {
		return nil, err
	}
	comp.Asset = asset
	return comp, nil
}

func (s *Service) loadEvents(
	ctx context.Context,
	oracle common.Address,
	questionID common.Hash,
) ([]domain.AnswerEvent, error) {
	fromBlock := s.startBlock
	var archived []domain.AnswerEvent

	if s.archive != nil {
		events, nextBlock, found, err := s.archive.Load(ctx, questionID)
		if err != nil {
			// The archive is an accelerator, never a gatekeeper.
			s.log.Warn("archive load failed, rescanning", "question", questionID.Hex(), "error", err)
		} else if found {
			archived = events
			fromBlock = nextBlock
		}
	}

	fresh, head, err := s.scanner.ScanAnswers(ctx, oracle, questionID, fromBlock)
	if err != nil {
		return nil, &domain.DependencyError{Dependency: domain.DependencyOracle, Err: err}
	}
	fresh = dropArchived(archived, fresh)

	if s.archive != nil && (len(fresh) > 0 || head >= fromBlock) {
		if err := s.archive.Store(ctx, questionID, fresh, head); err != nil {
			s.log.Warn("archive store failed", "question", questionID.Hex(), "error", err)
		}
	}

	return append(archived, fresh...), nil
}

type eventKey struct {
	block uint64
	index uint
}

// dropArchived removes scanned events the archive already holds. The
// scan window may overlap archived blocks; the claim bundle must list
// each answer exactly once or the oracle rejects it.
func dropArchived(archived, fresh []domain.AnswerEvent) []domain.AnswerEvent {
	if len(archived) == 0 || len(fresh) == 0 {
		return fresh
	}
	seen := make(map[eventKey]struct{}, len(archived))
	for _, e := range archived {
		seen[eventKey{e.BlockNumber, e.LogIndex}] = struct{}{}
	}
	out := make([]domain.AnswerEvent, 0, len(fresh))
	for _, e := range fresh {
		if _, ok := seen[eventKey{e.BlockNumber, e.LogIndex}]; ok {
			continue
		}
		out = append(out, e)
	}
	return out
}
