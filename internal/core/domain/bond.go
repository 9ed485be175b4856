package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AssetKind classifies the asset a bond is staked in.
type AssetKind string

const (
	AssetNative AssetKind = "native"
	AssetERC20  AssetKind = "erc20"
)

// Asset identifies the bond asset of an oracle. Token is only set for
// ERC20 oracles.
type Asset struct {
	Kind     AssetKind
	Token    common.Address
	Symbol   string
	Decimals uint8
}

// Bond is a stake requirement computed fresh per answer attempt. Never
// cached across calls; chain state may have changed concurrently.
type Bond struct {
	Amount *big.Int
	Asset  Asset
}
