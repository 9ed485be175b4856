package staged

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/realitymod/internal/core/domain"
	"github.com/vietddude/realitymod/internal/infra/eth"
	"github.com/vietddude/realitymod/internal/protocol/bond"
)

// Checkpoint labels, stable strings for callers that switch on them.
const (
	LabelSubmitProposal = "submit proposal"
	LabelApproveBond    = "approve bond allowance"
	LabelSubmitAnswer   = "submit answer"
	LabelExecute        = "execute transaction"
	LabelClaim          = "claim winnings"
	LabelWithdraw       = "withdraw balance"
)

// SubmitProposal commits a proposal's hash list to the module and opens
// its dispute question.
func SubmitProposal(module common.Address, proposalID string, hashes []common.Hash) Operation {
	return Operation{
		Name: "submit_proposal",
		Steps: []Step{{
			Label: LabelSubmitProposal,
			Build: func(ctx context.Context) (Message, error) {
				data, err := eth.ModuleABI.Pack("addProposal", proposalID, hashes)
				if err != nil {
					return Message{}, fmt.Errorf("pack addProposal: %w", err)
				}
				return Message{To: module, Data: data}, nil
			},
		}},
	}
}

// ExecuteTransaction executes one transaction of an approved proposal.
// index is the transaction's position within the committed hash list; the
// module independently verifies it against the committed array, so the
// hash list passed here must be the one used for submission.
func ExecuteTransaction(
	module common.Address,
	proposalID string,
	hashes []common.Hash,
	tx domain.Transaction,
	index int,
) (Operation, error) {
	if index < 0 || index >= len(hashes) {
		return Operation{}, fmt.Errorf("transaction index %d out of range [0,%d)", index, len(hashes))
	}
	if err := tx.Validate(); err != nil {
		return Operation{}, &domain.InvalidTransactionError{Index: index, Err: err}
	}

	return Operation{
		Name: "execute_transaction",
		Steps: []Step{{
			Label: LabelExecute,
			Build: func(ctx context.Context) (Message, error) {
				data, err := eth.ModuleABI.Pack("executeProposalWithIndex",
					proposalID,
					hashes,
					tx.ToAddress(),
					tx.ValueInt(),
					tx.DataBytes(),
					uint8(tx.Operation),
					big.NewInt(int64(index)),
				)
				if err != nil {
					return Message{}, fmt.Errorf("pack executeProposalWithIndex: %w", err)
				}
				return Message{To: module, Data: data}, nil
			},
		}},
	}, nil
}

// ClaimWinnings hands the reconstructed answer chain back to the oracle
// to collect bonds.
func ClaimWinnings(oracle common.Address, questionID common.Hash, bundle domain.ClaimBundle) Operation {
	return Operation{
		Name: "claim_winnings",
		Steps: []Step{{
			Label: LabelClaim,
			Build: func(ctx context.Context) (Message, error) {
				addrs := make([]common.Address, len(bundle.Users))
				for i, u := range bundle.Users {
					addrs[i] = common.HexToAddress(u)
				}
				data, err := eth.OracleABI.Pack("claimWinnings",
					questionID,
					bundle.HistoryHashes,
					addrs,
					bundle.Bonds,
					bundle.Answers,
				)
				if err != nil {
					return Message{}, fmt.Errorf("pack claimWinnings: %w", err)
				}
				return Message{To: oracle, Data: data}, nil
			},
		}},
	}
}

// Withdraw pulls the caller's accumulated oracle balance out.
func Withdraw(oracle common.Address) Operation {
	return Operation{
		Name: "withdraw",
		Steps: []Step{{
			Label: LabelWithdraw,
			Build: func(ctx context.Context) (Message, error) {
				data, err := eth.OracleABI.Pack("withdraw")
				if err != nil {
					return Message{}, fmt.Errorf("pack withdraw: %w", err)
				}
				return Message{To: oracle, Data: data}, nil
			},
		}},
	}
}

// AnswerFactory builds answer-submission operations. It needs read access
// for the bond computation and the allowance check.
type AnswerFactory struct {
	caller bond.ContractReader
	prober *bond.Prober
	from   common.Address
}

// NewAnswerFactory creates a factory for the given signer address.
func NewAnswerFactory(caller bond.ContractReader, prober *bond.Prober, from common.Address) *AnswerFactory {
	return &AnswerFactory{caller: caller, prober: prober, from: from}
}

// SubmitAnswer stakes an answer on a question: an allowance approval step
// when the oracle is token-backed and the current allowance falls short,
// then the answer itself. The bond is computed once per run, fresh from
// chain state; the pre-escalation bond rides along as max_previous so a
// concurrent answer makes the submission fail instead of overpaying.
func (f *AnswerFactory) SubmitAnswer(
	oracle common.Address,
	questionID common.Hash,
	answer common.Hash,
	minimumBond *big.Int,
) Operation {
	var (
		computed *domain.Bond
		maxPrev  *big.Int
	)
	ensureBond := func(ctx context.Context) error {
		if computed != nil {
			return nil
		}
		out, err := f.caller.Read(ctx, eth.Call{
			To: oracle, ABI: eth.OracleABI, Method: "getBond", Args: []any{questionID},
		})
		if err != nil {
			return err
		}
		current := eth.AsBigInt(out[0])

		asset, err := f.prober.ProbeAsset(ctx, oracle)
		if err != nil {
			return err
		}

		maxPrev = current
		computed = &domain.Bond{
			Amount: bond.NextAmount(current, minimumBond, asset.Decimals),
			Asset:  asset,
		}
		return nil
	}

	return Operation{
		Name: "submit_answer",
		Steps: []Step{
			{
				Label: LabelApproveBond,
				Skip: func(ctx context.Context) (bool, error) {
					if err := ensureBond(ctx); err != nil {
						return false, err
					}
					if computed.Asset.Kind != domain.AssetERC20 {
						return true, nil
					}
					out, err := f.caller.Read(ctx, eth.Call{
						To:     computed.Asset.Token,
						ABI:    eth.ERC20ABI,
						Method: "allowance",
						Args:   []any{f.from, oracle},
					})
					if err != nil {
						return false, err
					}
					return eth.AsBigInt(out[0]).Cmp(computed.Amount) >= 0, nil
				},
				Build: func(ctx context.Context) (Message, error) {
					data, err := eth.ERC20ABI.Pack("approve", oracle, computed.Amount)
					if err != nil {
						return Message{}, fmt.Errorf("pack approve: %w", err)
					}
					return Message{To: computed.Asset.Token, Data: data}, nil
				},
			},
			{
				Label: LabelSubmitAnswer,
				Build: func(ctx context.Context) (Message, error) {
					if err := ensureBond(ctx); err != nil {
						return Message{}, err
					}
					if computed.Asset.Kind == domain.AssetERC20 {
						data, err := eth.OracleABI.Pack("submitAnswerERC20",
							questionID, answer, maxPrev, computed.Amount)
						if err != nil {
							return Message{}, fmt.Errorf("pack submitAnswerERC20: %w", err)
						}
						return Message{To: oracle, Data: data}, nil
					}
					data, err := eth.OracleABI.Pack("submitAnswer", questionID, answer, maxPrev)
					if err != nil {
						return Message{}, fmt.Errorf("pack submitAnswer: %w", err)
					}
					return Message{To: oracle, Value: computed.Amount, Data: data}, nil
				},
			},
		},
	}
}
