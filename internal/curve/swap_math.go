package curve

import (
	"math"

	"github.com/holiman/uint256"

	"walienPool/internal/errs"
)

const q64Resolution = 64

var (
	u64Max = new(uint256.Int).SetUint64(math.MaxUint64)
	one    = uint256.NewInt(1)
)

func increasingPriceOrder(p0, p1 *uint256.Int) (*uint256.Int, *uint256.Int) {
	if p0.Gt(p1) {
		return p1, p0
	}
	return p0, p1
}

// tryAmountDeltaA computes the token A amount between two prices:
// L * (upper - lower) * 2^64 / (upper * lower). exceeds is set when the result
// does not fit in u64.
func tryAmountDeltaA(p0, p1, liquidity *uint256.Int, roundUp bool) (uint64, bool, error) {
	lower, upper := increasingPriceOrder(p0, p1)
	diff := new(uint256.Int).Sub(upper, lower)

	product, overflow := new(uint256.Int).MulOverflow(liquidity, diff)
	if overflow || product.BitLen() > 256-q64Resolution {
		return 0, false, errs.ErrMultiplicationOverflow
	}
	numerator := new(uint256.Int).Lsh(product, q64Resolution)
	denominator := new(uint256.Int).Mul(upper, lower)
	if denominator.IsZero() {
		return 0, false, errs.ErrDivideByZero
	}

	quotient := new(uint256.Int).Div(numerator, denominator)
	remainder := new(uint256.Int).Mod(numerator, denominator)
	if roundUp && !remainder.IsZero() {
		quotient.Add(quotient, one)
	}
	if !quotient.IsUint64() {
		return 0, true, nil
	}
	return quotient.Uint64(), false, nil
}

// tryAmountDeltaB computes the token B amount between two prices:
// L * (upper - lower) / 2^64.
func tryAmountDeltaB(p0, p1, liquidity *uint256.Int, roundUp bool) (uint64, bool, error) {
	lower, upper := increasingPriceOrder(p0, p1)
	diff := new(uint256.Int).Sub(upper, lower)
	if liquidity.IsZero() || diff.IsZero() {
		return 0, false, nil
	}

	product, overflow := new(uint256.Int).MulOverflow(liquidity, diff)
	if overflow {
		return 0, false, errs.ErrMultiplicationOverflow
	}
	result := new(uint256.Int).Rsh(product, q64Resolution)
	if roundUp && !new(uint256.Int).And(product, u64Max).IsZero() {
		result.Add(result, one)
	}
	if !result.IsUint64() {
		return 0, true, nil
	}
	return result.Uint64(), false, nil
}

func amountDeltaA(p0, p1, liquidity *uint256.Int, roundUp bool) (uint64, error) {
	v, exceeds, err := tryAmountDeltaA(p0, p1, liquidity, roundUp)
	if err != nil {
		return 0, err
	}
	if exceeds {
		return 0, errs.ErrTokenMaxExceeded
	}
	return v, nil
}

func amountDeltaB(p0, p1, liquidity *uint256.Int, roundUp bool) (uint64, error) {
	v, exceeds, err := tryAmountDeltaB(p0, p1, liquidity, roundUp)
	if err != nil {
		return 0, err
	}
	if exceeds {
		return 0, errs.ErrTokenMaxExceeded
	}
	return v, nil
}

// nextSqrtPriceFromA moves the price after adding (input) or removing (output)
// amount of token A, rounding up.
func nextSqrtPriceFromA(sqrtPrice, liquidity *uint256.Int, amount uint64, isInput bool) (*uint256.Int, error) {
	if amount == 0 {
		return new(uint256.Int).Set(sqrtPrice), nil
	}

	product := new(uint256.Int).Mul(sqrtPrice, uint256.NewInt(amount))
	lp, overflow := new(uint256.Int).MulOverflow(liquidity, sqrtPrice)
	if overflow || lp.BitLen() > 256-q64Resolution {
		return nil, errs.ErrMultiplicationOverflow
	}
	numerator := new(uint256.Int).Lsh(lp, q64Resolution)
	liquidityX64 := new(uint256.Int).Lsh(liquidity, q64Resolution)

	var denominator *uint256.Int
	if isInput {
		denominator = new(uint256.Int).Add(liquidityX64, product)
	} else {
		if !liquidityX64.Gt(product) {
			return nil, errs.ErrDivideByZero
		}
		denominator = new(uint256.Int).Sub(liquidityX64, product)
	}

	price := divRoundUp(numerator, denominator)
	if price.BitLen() > 128 {
		return nil, errs.ErrNumberDownCastError
	}
	if price.Lt(MinSqrtPrice) {
		return nil, errs.ErrTokenMinSubceeded
	}
	if price.Gt(MaxSqrtPrice) {
		return nil, errs.ErrTokenMaxExceeded
	}
	return price, nil
}

// nextSqrtPriceFromB moves the price after adding (input) or removing (output)
// amount of token B, rounding down.
func nextSqrtPriceFromB(sqrtPrice, liquidity *uint256.Int, amount uint64, isInput bool) (*uint256.Int, error) {
	if liquidity.IsZero() {
		return nil, errs.ErrDivideByZero
	}
	amountX64 := new(uint256.Int).Lsh(uint256.NewInt(amount), q64Resolution)

	var delta *uint256.Int
	if isInput {
		delta = new(uint256.Int).Div(amountX64, liquidity)
	} else {
		delta = divRoundUp(amountX64, liquidity)
	}

	var price *uint256.Int
	if isInput {
		price = new(uint256.Int).Add(sqrtPrice, delta)
	} else {
		if sqrtPrice.Lt(delta) {
			return nil, errs.ErrSqrtPriceOutOfBounds
		}
		price = new(uint256.Int).Sub(sqrtPrice, delta)
	}
	if price.Lt(MinSqrtPrice) || price.Gt(MaxSqrtPrice) {
		return nil, errs.ErrSqrtPriceOutOfBounds
	}
	return price, nil
}

func divRoundUp(numerator, denominator *uint256.Int) *uint256.Int {
	quotient := new(uint256.Int).Div(numerator, denominator)
	if !new(uint256.Int).Mod(numerator, denominator).IsZero() {
		quotient.Add(quotient, one)
	}
	return quotient
}

// mulDiv returns floor or ceil of a*b/d as u64.
func mulDiv(a, b, d uint64, roundUp bool) (uint64, error) {
	if d == 0 {
		return 0, errs.ErrDivideByZero
	}
	product := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	denominator := uint256.NewInt(d)

	var result *uint256.Int
	if roundUp {
		result = divRoundUp(product, denominator)
	} else {
		result = new(uint256.Int).Div(product, denominator)
	}
	if !result.IsUint64() {
		return 0, errs.ErrMulDivOverflow
	}
	return result.Uint64(), nil
}
