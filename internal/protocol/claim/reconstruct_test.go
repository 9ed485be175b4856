package claim

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/realitymod/internal/core/domain"
)

var (
	alice = common.HexToAddress("0xA11ce00000000000000000000000000000000001")
	bob   = common.HexToAddress("0xB0b0000000000000000000000000000000000002")

	answerYes = common.BigToHash(big.NewInt(1))
	answerNo  = common.BigToHash(big.NewInt(0))
)

func testEvents() []domain.AnswerEvent {
	// Oldest to newest: E1, E2, E3.
	return []domain.AnswerEvent{
		{
			User:        alice,
			HistoryHash: common.HexToHash("0x11"),
			Bond:        big.NewInt(10),
			Answer:      answerNo,
			BlockNumber: 100,
		},
		{
			User:        bob,
			HistoryHash: common.HexToHash("0x22"),
			Bond:        big.NewInt(20),
			Answer:      answerYes,
			BlockNumber: 101,
		},
		{
			User:        alice,
			HistoryHash: common.HexToHash("0x33"),
			Bond:        big.NewInt(40),
			Answer:      answerYes,
			BlockNumber: 102,
		},
	}
}

func TestReconstructChainInvariant(t *testing.T) {
	events := testEvents()
	head := common.HexToHash("0x33")

	comp := Reconstruct(events, alice, head, answerYes, true, big.NewInt(0))
	bundle := comp.Bundle

	if bundle.Len() != len(events) {
		t.Fatalf("bundle length %d != event count %d", bundle.Len(), len(events))
	}

	// Reverse chronological: E3, E2, E1.
	wantBonds := []int64{40, 20, 10}
	for i, want := range wantBonds {
		if bundle.Bonds[i].Int64() != want {
			t.Errorf("bonds[%d] = %s, want %d", i, bundle.Bonds[i], want)
		}
	}
	if bundle.Users[0] != "0xa11ce00000000000000000000000000000000001" {
		t.Errorf("users must be lowercased, got %q", bundle.Users[0])
	}

	// The originally-oldest slot carries the zero sentinel even though
	// E1's history hash was non-zero.
	if bundle.HistoryHashes[2] != (common.Hash{}) {
		t.Errorf("tail history hash = %s, want zero sentinel", bundle.HistoryHashes[2])
	}
	if bundle.HistoryHashes[0] != common.HexToHash("0x33") {
		t.Errorf("head history hash = %s, want E3's", bundle.HistoryHashes[0])
	}
}

func TestReconstructCanClaim(t *testing.T) {
	events := testEvents()
	head := common.HexToHash("0x33")

	cases := []struct {
		name      string
		user      common.Address
		current   common.Hash
		finalized bool
		balance   *big.Int
		want      bool
	}{
		{"correct answer, unclaimed", alice, head, true, big.NewInt(0), true},
		{"already claimed overrides correctness", alice, common.Hash{}, true, big.NewInt(0), false},
		{"not finalized", alice, head, false, big.NewInt(99), false},
		{"residual balance without answering", common.HexToAddress("0xc0"), head, true, big.NewInt(1), true},
		{"residual balance even when claimed", alice, common.Hash{}, true, big.NewInt(1), true},
		{"wrong answer only", bob, head, true, big.NewInt(0), true}, // bob answered yes too
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			comp := Reconstruct(events, tc.user, tc.current, answerYes, tc.finalized, tc.balance)
			if comp.CanClaim != tc.want {
				t.Errorf("CanClaim = %v, want %v", comp.CanClaim, tc.want)
			}
		})
	}
}

func TestReconstructUserOnWrongSideCannotClaim(t *testing.T) {
	events := testEvents()
	head := common.HexToHash("0x33")

	// Finalized answer is "no"; only alice's first answer matches, so she
	// can claim, bob cannot.
	comp := Reconstruct(events, bob, head, answerNo, true, big.NewInt(0))
	if comp.CanClaim {
		t.Error("bob never answered the winning answer and holds no balance")
	}
	comp = Reconstruct(events, alice, head, answerNo, true, big.NewInt(0))
	if !comp.CanClaim {
		t.Error("alice answered the winning answer")
	}
}

func TestReconstructZeroEvents(t *testing.T) {
	comp := Reconstruct(nil, alice, common.HexToHash("0x01"), answerYes, true, big.NewInt(0))
	if comp.Bundle.Len() != 0 {
		t.Errorf("expected empty bundle, got %d entries", comp.Bundle.Len())
	}
	if comp.AlreadyClaimed {
		t.Error("non-zero current history hash means not yet claimed")
	}

	comp = Reconstruct(nil, alice, common.Hash{}, answerYes, true, big.NewInt(0))
	if !comp.AlreadyClaimed {
		t.Error("zero current history hash means already claimed")
	}
}
