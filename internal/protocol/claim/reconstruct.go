// Package claim rebuilds the oracle's answer chain into the exact ordered
// argument bundle its claim operation verifies, and decides whether the
// current actor has anything to collect.
package claim

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/realitymod/internal/core/domain"
)

// zeroHistoryHash stands in for the genesis entry's predecessor. The
// chain has no link before its first answer; the verifier expects this
// sentinel there, not a real hash.
var zeroHistoryHash = common.Hash{}

// Reconstruct turns the question's answer events (oldest first, as
// received from the chain) into the claim bundle plus the claim
// entitlement of user. Pure; asset metadata is attached by the caller.
func Reconstruct(
	events []domain.AnswerEvent,
	user common.Address,
	currentHistoryHash common.Hash,
	bestAnswer common.Hash,
	finalized bool,
	balance *big.Int,
) *domain.ClaimComputation {
	n := len(events)
	bundle := domain.ClaimBundle{
		HistoryHashes: make([]common.Hash, n),
		Users:         make([]string, n),
		Bonds:         make([]*big.Int, n),
		Answers:       make([]common.Hash, n),
	}

	// The verifier walks the chain backward from the current head, so the
	// arrays are newest first.
	for i, event := range events {
		j := n - 1 - i
		bundle.HistoryHashes[j] = event.HistoryHash
		bundle.Users[j] = strings.ToLower(event.User.Hex())
		bundle.Bonds[j] = event.Bond
		bundle.Answers[j] = event.Answer
	}
	if n > 0 {
		bundle.HistoryHashes[n-1] = zeroHistoryHash
	}

	userHex := strings.ToLower(user.Hex())
	answeredCorrectly := false
	if finalized {
		for i := range bundle.Users {
			if bundle.Users[i] == userHex && bundle.Answers[i] == bestAnswer {
				answeredCorrectly = true
				break
			}
		}
	}

	alreadyClaimed := currentHistoryHash == zeroHistoryHash
	residualBalance := finalized && balance != nil && balance.Sign() != 0

	return &domain.ClaimComputation{
		Bundle:            bundle,
		AlreadyClaimed:    alreadyClaimed,
		AnsweredCorrectly: answeredCorrectly,
		ResidualBalance:   residualBalance,
		CanClaim:          (!alreadyClaimed && answeredCorrectly) || residualBalance,
	}
}
