package hashing

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/realitymod/internal/core/domain"
)

var (
	testChainID = big.NewInt(1)
	testModule  = common.HexToAddress("0x1c511d88ba898b4D9cd9113D13B9c360a02Fcea1")
)

func testBatch() []domain.Transaction {
	return []domain.Transaction{
		{
			To:        "0xAAfa4Bd43bCdEeF36Dee2311a1b9b1a4c2F8E2b1",
			Value:     "0",
			Data:      "0x",
			Operation: domain.OperationCall,
			Nonce:     "1",
		},
		{
			To:        "0xBB8523e7bd8B0a1C7Ca4a12Ec9f1565E2a4C3702",
			Value:     "5",
			Operation: domain.OperationDelegateCall,
			Nonce:     "2",
		},
	}
}

func TestHashBatchDeterminism(t *testing.T) {
	batch := testBatch()

	first, err := HashBatch(testChainID, testModule, batch)
	if err != nil {
		t.Fatalf("HashBatch failed: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 hashes, got %d", len(first))
	}
	if first[0] == first[1] {
		t.Error("distinct transactions must hash differently")
	}

	for i := 0; i < 3; i++ {
		again, err := HashBatch(testChainID, testModule, batch)
		if err != nil {
			t.Fatalf("repeat HashBatch failed: %v", err)
		}
		for j := range first {
			if again[j] != first[j] {
				t.Errorf("run %d: hash %d changed: %s != %s", i, j, again[j], first[j])
			}
		}
	}
}

func TestHashBatchDefaultFieldEquivalence(t *testing.T) {
	base := domain.Transaction{
		To:        "0xAAfa4Bd43bCdEeF36Dee2311a1b9b1a4c2F8E2b1",
		Operation: domain.OperationCall,
	}

	omitted := base // nonce and data omitted
	explicit := base
	explicit.Nonce = "0"
	explicit.Data = "0x"

	a, err := HashBatch(testChainID, testModule, []domain.Transaction{omitted})
	if err != nil {
		t.Fatalf("HashBatch(omitted) failed: %v", err)
	}
	b, err := HashBatch(testChainID, testModule, []domain.Transaction{explicit})
	if err != nil {
		t.Fatalf("HashBatch(explicit) failed: %v", err)
	}
	if a[0] != b[0] {
		t.Errorf("omitted fields must hash like explicit defaults: %s != %s", a[0], b[0])
	}
}

func TestHashBatchDomainSensitivity(t *testing.T) {
	batch := testBatch()

	mainnet, err := HashBatch(big.NewInt(1), testModule, batch)
	if err != nil {
		t.Fatalf("HashBatch failed: %v", err)
	}
	gnosis, err := HashBatch(big.NewInt(100), testModule, batch)
	if err != nil {
		t.Fatalf("HashBatch failed: %v", err)
	}
	if mainnet[0] == gnosis[0] {
		t.Error("chain id must be part of the hash domain")
	}

	otherModule, err := HashBatch(big.NewInt(1), common.HexToAddress("0x01"), batch)
	if err != nil {
		t.Fatalf("HashBatch failed: %v", err)
	}
	if mainnet[0] == otherModule[0] {
		t.Error("module address must be part of the hash domain")
	}
}

func TestHashBatchRejectsInvalidTransaction(t *testing.T) {
	cases := []struct {
		name string
		tx   domain.Transaction
	}{
		{"bad address", domain.Transaction{To: "0x123"}},
		{"bad hex data", domain.Transaction{Data: "0xzz"}},
		{"unprefixed data", domain.Transaction{Data: "deadbeef"}},
		{"bad operation", domain.Transaction{Operation: 2}},
		{"negative value", domain.Transaction{Value: "-1"}},
		{"non-numeric nonce", domain.Transaction{Nonce: "abc"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			batch := []domain.Transaction{testBatch()[0], tc.tx}
			_, err := HashBatch(testChainID, testModule, batch)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var invalid *domain.InvalidTransactionError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidTransactionError, got %T: %v", err, err)
			}
			if invalid.Index != 1 {
				t.Errorf("expected failing index 1, got %d", invalid.Index)
			}
		})
	}
}

func TestBuildQuestionEncoding(t *testing.T) {
	h1 := common.HexToHash("0x01")
	h2 := common.HexToHash("0x02")

	got := BuildQuestion("prop-1", []common.Hash{h1, h2})
	want := "prop-1" + "␟" + h1.Hex() + "," + h2.Hex()
	if got != want {
		t.Errorf("question encoding mismatch:\n got %q\nwant %q", got, want)
	}

	// Content addressing: identical proposals map to the identical digest.
	if HashQuestion(got) != HashQuestion(want) {
		t.Error("identical questions must hash identically")
	}
	if HashQuestion(got) == HashQuestion("prop-2"+"␟"+h1.Hex()+","+h2.Hex()) {
		t.Error("different proposal ids must hash differently")
	}
}

func TestBuildQuestionEmptyBatch(t *testing.T) {
	got := BuildQuestion("prop-1", nil)
	if got != "prop-1␟" {
		t.Errorf("unexpected encoding for empty hash list: %q", got)
	}
}
