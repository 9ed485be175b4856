package claim

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/realitymod/internal/core/domain"
	"github.com/vietddude/realitymod/internal/infra/eth"
	"github.com/vietddude/realitymod/internal/protocol/bond"
)

var (
	testOracle = common.HexToAddress("0x5b7bF88B3fE1D3935580a1449B96b30045D20a14")
	questionID = common.HexToHash("0xabcdef")
)

type fakeReader struct {
	byMethod map[string][]any
}

func (f *fakeReader) Read(_ context.Context, call eth.Call) ([]any, error) {
	out, ok := f.byMethod[call.Method]
	if !ok {
		return nil, fmt.Errorf("unexpected read %s", call.Method)
	}
	return out, nil
}

func (f *fakeReader) BatchRead(ctx context.Context, calls []eth.Call) ([][]any, error) {
	results := make([][]any, len(calls))
	for i, call := range calls {
		out, err := f.Read(ctx, call)
		if err != nil {
			return nil, err
		}
		results[i] = out
	}
	return results, nil
}

type fakeScanner struct {
	events    []domain.AnswerEvent
	head      uint64
	fromBlock uint64 // records the requested scan start
}

func (f *fakeScanner) ScanAnswers(
	_ context.Context,
	_ common.Address,
	_ common.Hash,
	fromBlock uint64,
) ([]domain.AnswerEvent, uint64, error) {
	f.fromBlock = fromBlock
	var out []domain.AnswerEvent
	for _, e := range f.events {
		if e.BlockNumber >= fromBlock {
			out = append(out, e)
		}
	}
	return out, f.head, nil
}

type memArchive struct {
	events    []domain.AnswerEvent
	nextBlock uint64
	found     bool
	stored    []domain.AnswerEvent
	scannedTo uint64
}

func (m *memArchive) Load(_ context.Context, _ common.Hash) ([]domain.AnswerEvent, uint64, bool, error) {
	return m.events, m.nextBlock, m.found, nil
}

func (m *memArchive) Store(_ context.Context, _ common.Hash, events []domain.AnswerEvent, scannedTo uint64) error {
	m.stored = append(m.stored, events...)
	m.scannedTo = scannedTo
	return nil
}

func chainEvents() []domain.AnswerEvent {
	return []domain.AnswerEvent{
		{User: alice, HistoryHash: common.HexToHash("0x11"), Bond: big.NewInt(10), Answer: answerYes, BlockNumber: 100},
		{User: bob, HistoryHash: common.HexToHash("0x22"), Bond: big.NewInt(20), Answer: answerYes, BlockNumber: 105},
	}
}

func oracleReads(historyHash common.Hash, finalized bool, balance int64) map[string][]any {
	return map[string][]any{
		"getHistoryHash": {[32]byte(historyHash)},
		"getBestAnswer":  {[32]byte(answerYes)},
		"isFinalized":    {finalized},
		"balanceOf":      {big.NewInt(balance)},
	}
}

func TestServiceComputeWithoutArchive(t *testing.T) {
	reader := &fakeReader{byMethod: oracleReads(common.HexToHash("0x22"), true, 0)}
	scanner := &fakeScanner{events: chainEvents(), head: 110}
	prober := bond.NewProber(reader, nil, domain.Asset{Kind: domain.AssetNative, Symbol: "ETH", Decimals: 18})

	svc := NewService(reader, scanner, nil, prober, 50)
	comp, err := svc.Compute(context.Background(), testOracle, questionID, alice)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if scanner.fromBlock != 50 {
		t.Errorf("scan started at %d, want the start block 50", scanner.fromBlock)
	}
	if comp.Bundle.Len() != 2 {
		t.Fatalf("bundle length = %d, want 2", comp.Bundle.Len())
	}
	if !comp.CanClaim {
		t.Error("alice answered the winning answer and has not claimed")
	}
	if comp.Asset.Kind != domain.AssetNative {
		t.Errorf("asset kind = %s, want native", comp.Asset.Kind)
	}
}

func TestServiceComputeUsesArchiveCursor(t *testing.T) {
	events := chainEvents()
	reader := &fakeReader{byMethod: oracleReads(common.HexToHash("0x22"), true, 0)}
	scanner := &fakeScanner{events: events, head: 110}
	archive := &memArchive{events: events[:1], nextBlock: 101, found: true}
	prober := bond.NewProber(reader, nil, domain.Asset{Kind: domain.AssetNative, Symbol: "ETH", Decimals: 18})

	svc := NewService(reader, scanner, archive, prober, 50)
	comp, err := svc.Compute(context.Background(), testOracle, questionID, bob)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if scanner.fromBlock != 101 {
		t.Errorf("scan started at %d, want the archive cursor 101", scanner.fromBlock)
	}
	// Archived E1 + freshly scanned E2.
	if comp.Bundle.Len() != 2 {
		t.Fatalf("bundle length = %d, want 2", comp.Bundle.Len())
	}
	if len(archive.stored) != 1 || archive.stored[0].BlockNumber != 105 {
		t.Errorf("archive must receive only the fresh tail, got %+v", archive.stored)
	}
	if archive.scannedTo != 110 {
		t.Errorf("archive cursor advanced to %d, want head 110", archive.scannedTo)
	}
}

func TestServiceComputeDropsEventsArchiveAlreadyHolds(t *testing.T) {
	// The archive holds both events but its cursor sits below the newest
	// one, so the tail scan returns E2 again.
	events := chainEvents()
	reader := &fakeReader{byMethod: oracleReads(common.HexToHash("0x22"), true, 0)}
	scanner := &fakeScanner{events: events, head: 110}
	archive := &memArchive{events: events, nextBlock: 104, found: true}
	prober := bond.NewProber(reader, nil, domain.Asset{Kind: domain.AssetNative, Symbol: "ETH", Decimals: 18})

	svc := NewService(reader, scanner, archive, prober, 50)
	comp, err := svc.Compute(context.Background(), testOracle, questionID, bob)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	// Two answer events exist; the bundle must list each exactly once.
	if comp.Bundle.Len() != 2 {
		t.Fatalf("bundle length = %d, want 2", comp.Bundle.Len())
	}
	if len(archive.stored) != 0 {
		t.Errorf("re-scanned events must not be stored again, got %+v", archive.stored)
	}
	if archive.scannedTo != 110 {
		t.Errorf("archive cursor advanced to %d, want head 110", archive.scannedTo)
	}
}
