package bond

import (
	"context"
	"math/big"

	logger "log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/realitymod/internal/core/domain"
	"github.com/vietddude/realitymod/internal/infra/eth"
)

// ContractReader is the read-only slice of the contract transport the
// prober needs.
type ContractReader interface {
	Read(ctx context.Context, call eth.Call) ([]any, error)
	BatchRead(ctx context.Context, calls []eth.Call) ([][]any, error)
}

// AssetCache caches immutable token metadata. Optional; a nil cache
// degrades to direct chain reads.
type AssetCache interface {
	Get(ctx context.Context, token common.Address) (domain.Asset, bool)
	Put(ctx context.Context, asset domain.Asset)
}

// Prober classifies the bond asset of an oracle and computes the next
// required stake.
type Prober struct {
	caller ContractReader
	cache  AssetCache
	native domain.Asset
	log    *logger.Logger
}

// NewProber creates a prober. native describes the network's native asset
// and is the classification result when the oracle holds no token.
func NewProber(caller ContractReader, cache AssetCache, native domain.Asset) *Prober {
	return &Prober{
		caller: caller,
		cache:  cache,
		native: native,
		log:    logger.With("component", "bond.prober"),
	}
}

// ProbeAsset classifies the oracle's bond asset. The probe reads the
// oracle's token attribute; a failing read is the expected signal for a
// native-asset oracle, not a fault, and is never surfaced to the caller.
func (p *Prober) ProbeAsset(ctx context.Context, oracle common.Address) (domain.Asset, error) {
	out, err := p.caller.Read(ctx, eth.Call{To: oracle, ABI: eth.OracleABI, Method: "token"})
	if err != nil || len(out) == 0 {
		p.log.Debug("token probe failed, classifying as native asset", "oracle", oracle.Hex())
		return p.native, nil
	}

	token := eth.AsAddress(out[0])
	if token == (common.Address{}) {
		return p.native, nil
	}

	if p.cache != nil {
		if asset, ok := p.cache.Get(ctx, token); ok {
			return asset, nil
		}
	}

	results, err := p.caller.BatchRead(ctx, []eth.Call{
		{To: token, ABI: eth.ERC20ABI, Method: "decimals"},
		{To: token, ABI: eth.ERC20ABI, Method: "symbol"},
	})
	if err != nil {
		// The oracle is token-backed, so unreadable metadata is a real
		// failure, unlike the probe itself.
		return domain.Asset{}, err
	}

	asset := domain.Asset{
		Kind:     domain.AssetERC20,
		Token:    token,
		Decimals: eth.AsUint8(results[0][0]),
		Symbol:   eth.AsString(results[1][0]),
	}
	if p.cache != nil {
		p.cache.Put(ctx, asset)
	}
	return asset, nil
}

// NextBond reads the question's current bond fresh from the chain and
// computes the stake the next answer must carry. Never cached; chain
// state may have changed since the last call.
func (p *Prober) NextBond(
	ctx context.Context,
	oracle common.Address,
	questionID common.Hash,
	minimumBond *big.Int,
) (domain.Bond, error) {
	out, err := p.caller.Read(ctx, eth.Call{
		To:     oracle,
		ABI:    eth.OracleABI,
		Method: "getBond",
		Args:   []any{questionID},
	})
	if err != nil {
		return domain.Bond{}, err
	}
	current := eth.AsBigInt(out[0])

	asset, err := p.ProbeAsset(ctx, oracle)
	if err != nil {
		return domain.Bond{}, err
	}

	return domain.Bond{
		Amount: NextAmount(current, minimumBond, asset.Decimals),
		Asset:  asset,
	}, nil
}
