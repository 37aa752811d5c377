package curve

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

const uiPricePrecision = 18

var q128 = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 128), 0)

// UIPrice converts a Q64.64 sqrt price into the quote-token price of one whole
// base token, adjusting for the decimals of both sides.
func UIPrice(sqrtPrice *uint256.Int, baseDecimals, quoteDecimals uint8) decimal.Decimal {
	if sqrtPrice == nil || sqrtPrice.IsZero() {
		return decimal.Zero
	}
	s := decimal.NewFromBigInt(sqrtPrice.ToBig(), 0)
	raw := s.Mul(s).DivRound(q128, uiPricePrecision+int32(baseDecimals))
	return raw.Shift(int32(baseDecimals) - int32(quoteDecimals)).Round(uiPricePrecision)
}
