package staged

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/realitymod/internal/core/domain"
	"github.com/vietddude/realitymod/internal/infra/eth"
	"github.com/vietddude/realitymod/internal/protocol/bond"
)

var (
	testModule = common.HexToAddress("0x1c511d88ba898b4D9cd9113D13B9c360a02Fcea1")
	testOracle = common.HexToAddress("0x5b7bF88B3fE1D3935580a1449B96b30045D20a14")
	testToken  = common.HexToAddress("0x7000000000000000000000000000000000000002")
	testFrom   = common.HexToAddress("0xF00d000000000000000000000000000000000001")
	questionID = common.HexToHash("0xabcdef")
	answerYes  = common.BigToHash(big.NewInt(1))
)

// fakeSubmitter records sent messages and mints sequential receipts.
type fakeSubmitter struct {
	sent     []Message
	statuses []uint64 // per send, default success
	sendErr  error
}

func (f *fakeSubmitter) From() common.Address { return testFrom }

func (f *fakeSubmitter) Send(_ context.Context, to common.Address, value *big.Int, data []byte) (common.Hash, error) {
	if f.sendErr != nil {
		return common.Hash{}, f.sendErr
	}
	f.sent = append(f.sent, Message{To: to, Value: value, Data: data})
	return common.BigToHash(big.NewInt(int64(len(f.sent)))), nil
}

func (f *fakeSubmitter) WaitMined(_ context.Context, txHash common.Hash) (*domain.Receipt, error) {
	status := uint64(1)
	idx := int(txHash.Big().Int64()) - 1
	if idx < len(f.statuses) {
		status = f.statuses[idx]
	}
	return &domain.Receipt{TxHash: txHash, BlockNumber: 1000 + uint64(idx), Status: status}, nil
}

// fakeReader serves contract reads keyed by method.
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

func collectProgress(dst *[]Progress) ProgressFunc {
	return func(p Progress) { *dst = append(*dst, p) }
}

func TestRunSingleStepLifecycle(t *testing.T) {
	writer := &fakeSubmitter{}
	var progress []Progress
	driver := NewDriver(writer, collectProgress(&progress))

	op := SubmitProposal(testModule, "prop-1", []common.Hash{common.HexToHash("0x01")})
	receipt, err := driver.Run(context.Background(), op)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if receipt == nil || receipt.Status != 1 {
		t.Fatalf("expected success receipt, got %+v", receipt)
	}

	wantStages := []Stage{StageBuilt, StageCheckpoint, StageSubmitted, StageConfirmed}
	if len(progress) != len(wantStages) {
		t.Fatalf("expected %d progress events, got %d", len(wantStages), len(progress))
	}
	for i, want := range wantStages {
		if progress[i].Stage != want {
			t.Errorf("event %d stage = %s, want %s", i, progress[i].Stage, want)
		}
	}
	if progress[1].Label != LabelSubmitProposal {
		t.Errorf("checkpoint label = %q, want %q", progress[1].Label, LabelSubmitProposal)
	}
	if len(writer.sent) != 1 || writer.sent[0].To != testModule {
		t.Errorf("expected one message to the module, got %+v", writer.sent)
	}
}

func TestRunRevertedStep(t *testing.T) {
	writer := &fakeSubmitter{statuses: []uint64{0}}
	driver := NewDriver(writer, nil)

	op := Withdraw(testOracle)
	_, err := driver.Run(context.Background(), op)

	var reverted *domain.RevertError
	if !errors.As(err, &reverted) {
		t.Fatalf("expected RevertError, got %v", err)
	}
	if reverted.Stage != LabelWithdraw {
		t.Errorf("revert stage = %q, want %q", reverted.Stage, LabelWithdraw)
	}
	if reverted.Receipt == nil || !reverted.Receipt.Reverted() {
		t.Error("revert error must carry the failed receipt")
	}
}

func TestRunStepCountBounds(t *testing.T) {
	driver := NewDriver(&fakeSubmitter{}, nil)

	if _, err := driver.Run(context.Background(), Operation{Name: "empty"}); err == nil {
		t.Error("zero steps must be rejected")
	}

	step := Withdraw(testOracle).Steps[0]
	threeSteps := Operation{Name: "too_many", Steps: []Step{step, step, step}}
	if _, err := driver.Run(context.Background(), threeSteps); err == nil {
		t.Error("three steps must be rejected")
	}
}

func erc20AnswerReader(currentBond, allowance int64) *fakeReader {
	return &fakeReader{byMethod: map[string][]any{
		"getBond":   {big.NewInt(currentBond)},
		"token":     {testToken},
		"decimals":  {uint8(18)},
		"symbol":    {"GNO"},
		"allowance": {big.NewInt(allowance)},
	}}
}

func nativeAsset() domain.Asset {
	return domain.Asset{Kind: domain.AssetNative, Symbol: "ETH", Decimals: 18}
}

func TestSubmitAnswerERC20ApproveThenAnswer(t *testing.T) {
	reader := erc20AnswerReader(100, 0)
	prober := bond.NewProber(reader, nil, nativeAsset())
	factory := NewAnswerFactory(reader, prober, testFrom)

	writer := &fakeSubmitter{}
	var progress []Progress
	driver := NewDriver(writer, collectProgress(&progress))

	op := factory.SubmitAnswer(testOracle, questionID, answerYes, big.NewInt(0))
	if _, err := driver.Run(context.Background(), op); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(writer.sent) != 2 {
		t.Fatalf("expected approve + answer, got %d messages", len(writer.sent))
	}
	if writer.sent[0].To != testToken {
		t.Errorf("first message must approve on the token, went to %s", writer.sent[0].To)
	}
	if writer.sent[1].To != testOracle {
		t.Errorf("second message must answer on the oracle, went to %s", writer.sent[1].To)
	}
	if writer.sent[1].Value != nil && writer.sent[1].Value.Sign() != 0 {
		t.Error("erc20 answer must not carry native value")
	}

	// The approve checkpoint must be fully confirmed before the answer is
	// submitted.
	var sawApproveConfirmed bool
	for _, p := range progress {
		if p.Label == LabelApproveBond && p.Stage == StageConfirmed {
			sawApproveConfirmed = true
		}
		if p.Label == LabelSubmitAnswer && p.Stage == StageSubmitted && !sawApproveConfirmed {
			t.Fatal("answer submitted before approval confirmed")
		}
	}
	if !sawApproveConfirmed {
		t.Error("approve step never confirmed")
	}
}

func TestSubmitAnswerERC20SkipsApproveWhenAllowanceCovers(t *testing.T) {
	reader := erc20AnswerReader(100, 1_000_000)
	prober := bond.NewProber(reader, nil, nativeAsset())
	factory := NewAnswerFactory(reader, prober, testFrom)

	writer := &fakeSubmitter{}
	driver := NewDriver(writer, nil)

	op := factory.SubmitAnswer(testOracle, questionID, answerYes, big.NewInt(0))
	if _, err := driver.Run(context.Background(), op); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(writer.sent) != 1 {
		t.Fatalf("expected answer only, got %d messages", len(writer.sent))
	}
	if writer.sent[0].To != testOracle {
		t.Errorf("message went to %s, want oracle", writer.sent[0].To)
	}
}

func TestSubmitAnswerNativeCarriesBondAsValue(t *testing.T) {
	reader := &fakeReader{byMethod: map[string][]any{
		"getBond": {big.NewInt(0)},
		// No token method: the probe fails over to the native asset.
	}}
	prober := bond.NewProber(reader, nil, nativeAsset())
	factory := NewAnswerFactory(reader, prober, testFrom)

	writer := &fakeSubmitter{}
	driver := NewDriver(writer, nil)

	op := factory.SubmitAnswer(testOracle, questionID, answerYes, big.NewInt(0))
	if _, err := driver.Run(context.Background(), op); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(writer.sent) != 1 {
		t.Fatalf("expected answer only, got %d messages", len(writer.sent))
	}
	want := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	if writer.sent[0].Value == nil || writer.sent[0].Value.Cmp(want) != 0 {
		t.Errorf("native answer value = %v, want %s", writer.sent[0].Value, want)
	}
}

func TestExecuteTransactionIndexBounds(t *testing.T) {
	hashes := []common.Hash{common.HexToHash("0x01"), common.HexToHash("0x02")}
	tx := domain.Transaction{To: "0xAAfa4Bd43bCdEeF36Dee2311a1b9b1a4c2F8E2b1", Nonce: "1"}

	if _, err := ExecuteTransaction(testModule, "prop-1", hashes, tx, 2); err == nil {
		t.Error("out-of-range index must be rejected")
	}
	if _, err := ExecuteTransaction(testModule, "prop-1", hashes, tx, -1); err == nil {
		t.Error("negative index must be rejected")
	}
	if _, err := ExecuteTransaction(testModule, "prop-1", hashes, tx, 1); err != nil {
		t.Errorf("valid index rejected: %v", err)
	}
}
