package loyalty

import "math/big"

const (
	// baseUnitDecimals is the fixed decimal scale assumed for every payment
	// token. Accrual divides the raw payment amount by 10^18 regardless of
	// the token's actual precision, so tokens with fewer decimals earn no
	// points in practice. The convention is deliberate and matched by the
	// redemption rate below; it is not configurable per token.
	baseUnitDecimals = 18
	// RedeemRateDivisor converts points back to token value: one point
	// redeems for baseUnit/100, i.e. one hundredth of a whole token.
	RedeemRateDivisor = 100
)

// BaseUnit returns the fixed 10^18 accrual divisor as a fresh big.Int.
func BaseUnit() *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(baseUnitDecimals), nil)
}
