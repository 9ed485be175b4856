package bond

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/realitymod/internal/core/domain"
	"github.com/vietddude/realitymod/internal/infra/eth"
)

func TestNextAmountEscalationLaw(t *testing.T) {
	cases := []struct {
		name     string
		current  int64
		minimum  int64
		decimals uint8
		want     string
	}{
		{"fresh question uses minimum bond", 0, 500, 18, "500"},
		{"fresh question without minimum, 18 decimals", 0, 0, 18, "1000000000000000000"},
		{"fresh question without minimum, 6 decimals", 0, 0, 6, "1000000"},
		{"existing bond doubles", 100, 500, 18, "200"},
		{"doubling ignores minimum", 3, 500, 18, "6"},
		{"large bond doubles", 1 << 40, 0, 18, fmt.Sprint(int64(1) << 41)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextAmount(big.NewInt(tc.current), big.NewInt(tc.minimum), tc.decimals)
			if got.String() != tc.want {
				t.Errorf("NextAmount(%d, %d, %d) = %s, want %s",
					tc.current, tc.minimum, tc.decimals, got, tc.want)
			}
		})
	}
}

func TestNextAmountNilCurrent(t *testing.T) {
	got := NextAmount(nil, big.NewInt(7), 18)
	if got.String() != "7" {
		t.Errorf("nil current bond must open at the minimum, got %s", got)
	}
}

// fakeReader answers contract reads from a fixed table keyed by
// address+method.
type fakeReader struct {
	reads map[string][]any
	errs  map[string]error
}

func readKey(to common.Address, method string) string {
	return to.Hex() + ":" + method
}

func (f *fakeReader) Read(_ context.Context, call eth.Call) ([]any, error) {
	key := readKey(call.To, call.Method)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	out, ok := f.reads[key]
	if !ok {
		return nil, fmt.Errorf("unexpected read %s", key)
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

var (
	testOracle = common.HexToAddress("0x0bEEF00000000000000000000000000000000001")
	testToken  = common.HexToAddress("0x7000000000000000000000000000000000000002")
	nativeETH  = domain.Asset{Kind: domain.AssetNative, Symbol: "ETH", Decimals: 18}
)

func TestProbeAssetNativeOnFailedProbe(t *testing.T) {
	reader := &fakeReader{
		errs: map[string]error{
			readKey(testOracle, "token"): &domain.TransportError{Op: "eth_call token", Err: fmt.Errorf("execution reverted")},
		},
	}
	p := NewProber(reader, nil, nativeETH)

	asset, err := p.ProbeAsset(context.Background(), testOracle)
	if err != nil {
		t.Fatalf("probe failure must classify, not error: %v", err)
	}
	if asset.Kind != domain.AssetNative || asset.Symbol != "ETH" || asset.Decimals != 18 {
		t.Errorf("expected native asset, got %+v", asset)
	}
}

func TestProbeAssetERC20(t *testing.T) {
	reader := &fakeReader{
		reads: map[string][]any{
			readKey(testOracle, "token"):   {testToken},
			readKey(testToken, "decimals"): {uint8(6)},
			readKey(testToken, "symbol"):   {"USDC"},
		},
	}
	p := NewProber(reader, nil, nativeETH)

	asset, err := p.ProbeAsset(context.Background(), testOracle)
	if err != nil {
		t.Fatalf("ProbeAsset failed: %v", err)
	}
	if asset.Kind != domain.AssetERC20 {
		t.Fatalf("expected erc20, got %s", asset.Kind)
	}
	if asset.Token != testToken || asset.Decimals != 6 || asset.Symbol != "USDC" {
		t.Errorf("unexpected asset %+v", asset)
	}
}

func TestNextBondFreshERC20Question(t *testing.T) {
	reader := &fakeReader{
		reads: map[string][]any{
			readKey(testOracle, "getBond"): {big.NewInt(0)},
			readKey(testOracle, "token"):   {testToken},
			readKey(testToken, "decimals"): {uint8(6)},
			readKey(testToken, "symbol"):   {"USDC"},
		},
	}
	p := NewProber(reader, nil, nativeETH)

	b, err := p.NextBond(context.Background(), testOracle, common.HexToHash("0x01"), big.NewInt(0))
	if err != nil {
		t.Fatalf("NextBond failed: %v", err)
	}
	if b.Amount.String() != "1000000" {
		t.Errorf("opening bond = %s, want 10^6", b.Amount)
	}
	if b.Asset.Kind != domain.AssetERC20 {
		t.Errorf("expected erc20 bond, got %s", b.Asset.Kind)
	}
}

func TestNextBondDoubles(t *testing.T) {
	reader := &fakeReader{
		reads: map[string][]any{
			readKey(testOracle, "getBond"): {big.NewInt(250)},
		},
		errs: map[string]error{
			readKey(testOracle, "token"): fmt.Errorf("no such function"),
		},
	}
	p := NewProber(reader, nil, nativeETH)

	b, err := p.NextBond(context.Background(), testOracle, common.HexToHash("0x01"), big.NewInt(10))
	if err != nil {
		t.Fatalf("NextBond failed: %v", err)
	}
	if b.Amount.String() != "500" {
		t.Errorf("escalated bond = %s, want 500", b.Amount)
	}
	if b.Asset.Kind != domain.AssetNative {
		t.Errorf("expected native bond, got %s", b.Asset.Kind)
	}
}
