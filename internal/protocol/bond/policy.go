// Package bond computes the stake required to submit the next answer to
// a dispute question.
package bond

import (
	"math/big"
)

// NextAmount returns the stake the oracle requires for the next answer,
// in the asset's smallest unit. A fresh question opens at the module's
// minimum bond, falling back to one whole asset unit (10^decimals) when
// no minimum is configured; every later answer doubles the current bond.
// Doubling bounds the number of dispute rounds.
func NextAmount(currentBond, minimumBond *big.Int, decimals uint8) *big.Int {
	if currentBond == nil || currentBond.Sign() == 0 {
		if minimumBond != nil && minimumBond.Sign() > 0 {
			return new(big.Int).Set(minimumBond)
		}
		return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	}
	return new(big.Int).Lsh(currentBond, 1)
}
