package report

import (
	"math/big"

	"github.com/holiman/uint256"

	"walienPool/internal/curve"
	"walienPool/internal/sale"
)

const ratioScale = 18

func formatTokenAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	if decimals == 0 {
		return value.String()
	}
	sign := value.Sign()
	abs := new(big.Int).Abs(value)
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	rat := new(big.Rat).SetFrac(abs, denom)
	text := rat.FloatString(int(decimals))
	if sign < 0 {
		return "-" + text
	}
	return text
}

// computeAvgPrice returns the stable paid per whole sale token, or nil when
// nothing was sold.
func computeAvgPrice(stable, allocation *big.Int) *string {
	if stable == nil || allocation == nil || allocation.Sign() == 0 {
		return nil
	}
	shift := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(sale.SaleDecimals-sale.StableDecimals)), nil)
	num := new(big.Int).Mul(stable, shift)
	val := new(big.Rat).SetFrac(num, allocation).FloatString(ratioScale)
	return &val
}

func computeLastPrice(sqrtPrice *uint256.Int) (*string, *string) {
	if sqrtPrice == nil {
		return nil, nil
	}
	raw := sqrtPrice.Dec()
	price := curve.UIPrice(sqrtPrice, sale.SaleDecimals, sale.StableDecimals).String()
	return &raw, &price
}
