package curve

import (
	"github.com/holiman/uint256"

	"walienPool/internal/errs"
)

const (
	// FeeRateMulValue is the denominator of FeeRate (hundredths of a basis point).
	FeeRateMulValue = 1_000_000
	// MaxFeeRate caps the fee rate at 6%.
	MaxFeeRate = 60_000
)

// SwapInput is one swap step request against a single liquidity range.
type SwapInput struct {
	Amount          uint64
	FeeRate         uint32
	Liquidity       uint256.Int
	SqrtPrice       uint256.Int
	SqrtPriceTarget uint256.Int
	AmountIsInput   bool
	AToB            bool
}

// SwapStep is the result of a swap step.
type SwapStep struct {
	AmountIn      uint64
	AmountOut     uint64
	FeeAmount     uint64
	NextSqrtPrice uint256.Int
}

// Engine prices swaps over one concentrated-liquidity range. It is stateless.
type Engine struct{}

// NewEngine returns the single-range swap engine.
func NewEngine() *Engine {
	return &Engine{}
}

// FeeRateFromBps converts basis points into the engine's fee rate units
// (hundredths of a basis point).
func FeeRateFromBps(bps uint16) uint32 {
	return uint32(bps) * 100
}

// ComputeSwap consumes up to in.Amount and moves the price toward
// in.SqrtPriceTarget, stopping at the target when the range is exhausted.
// With AToB false the price only rises; with AToB true it only falls.
func (e *Engine) ComputeSwap(in SwapInput) (SwapStep, error) {
	if in.Amount == 0 {
		return SwapStep{}, errs.ErrZeroTradableAmount
	}
	if in.Liquidity.IsZero() {
		return SwapStep{}, errs.ErrLiquidityZero
	}
	if in.Liquidity.BitLen() > 128 {
		return SwapStep{}, errs.ErrLiquidityTooHigh
	}
	if in.FeeRate > MaxFeeRate {
		return SwapStep{}, errs.ErrInvalidFeeRate
	}

	current := new(uint256.Int).Set(&in.SqrtPrice)
	target := new(uint256.Int).Set(&in.SqrtPriceTarget)
	liquidity := new(uint256.Int).Set(&in.Liquidity)

	for _, price := range []*uint256.Int{current, target} {
		if price.Lt(MinSqrtPrice) || price.Gt(MaxSqrtPrice) {
			return SwapStep{}, errs.ErrSqrtPriceOutOfBounds
		}
	}
	if (in.AToB && target.Gt(current)) || (!in.AToB && target.Lt(current)) {
		return SwapStep{}, errs.ErrInvalidSqrtPriceLimitDirection
	}

	amountCalc := in.Amount
	if in.AmountIsInput {
		v, err := mulDiv(in.Amount, FeeRateMulValue-uint64(in.FeeRate), FeeRateMulValue, false)
		if err != nil {
			return SwapStep{}, err
		}
		amountCalc = v
	}

	fixed, exceeds, err := fixedDelta(current, target, liquidity, in.AmountIsInput, in.AToB)
	if err != nil {
		return SwapStep{}, err
	}

	var next *uint256.Int
	if !exceeds && fixed <= amountCalc {
		next = new(uint256.Int).Set(target)
	} else {
		next, err = nextSqrtPrice(current, liquidity, amountCalc, in.AmountIsInput, in.AToB)
		if err != nil {
			return SwapStep{}, err
		}
	}
	isMaxSwap := next.Eq(target)

	unfixed, err := unfixedDelta(current, next, liquidity, in.AmountIsInput, in.AToB)
	if err != nil {
		return SwapStep{}, err
	}
	if !isMaxSwap {
		fixed, exceeds, err = fixedDelta(current, next, liquidity, in.AmountIsInput, in.AToB)
		if err != nil {
			return SwapStep{}, err
		}
		if exceeds {
			return SwapStep{}, errs.ErrTokenMaxExceeded
		}
	}

	var amountIn, amountOut uint64
	if in.AmountIsInput {
		amountIn, amountOut = fixed, unfixed
	} else {
		amountIn, amountOut = unfixed, fixed
	}
	if !in.AmountIsInput && amountOut > in.Amount {
		amountOut = in.Amount
	}

	var fee uint64
	if in.AmountIsInput && !isMaxSwap {
		if amountIn > in.Amount {
			return SwapStep{}, errs.ErrAmountRemainingOverflow
		}
		fee = in.Amount - amountIn
	} else {
		fee, err = mulDiv(amountIn, uint64(in.FeeRate), FeeRateMulValue-uint64(in.FeeRate), true)
		if err != nil {
			return SwapStep{}, err
		}
	}

	return SwapStep{
		AmountIn:      amountIn,
		AmountOut:     amountOut,
		FeeAmount:     fee,
		NextSqrtPrice: *next,
	}, nil
}

func fixedDelta(current, target, liquidity *uint256.Int, isInput, aToB bool) (uint64, bool, error) {
	if aToB == isInput {
		return tryAmountDeltaA(current, target, liquidity, isInput)
	}
	return tryAmountDeltaB(current, target, liquidity, isInput)
}

func unfixedDelta(current, target, liquidity *uint256.Int, isInput, aToB bool) (uint64, error) {
	if aToB == isInput {
		return amountDeltaB(current, target, liquidity, !isInput)
	}
	return amountDeltaA(current, target, liquidity, !isInput)
}

func nextSqrtPrice(current, liquidity *uint256.Int, amount uint64, isInput, aToB bool) (*uint256.Int, error) {
	if isInput == aToB {
		return nextSqrtPriceFromA(current, liquidity, amount, isInput)
	}
	return nextSqrtPriceFromB(current, liquidity, amount, isInput)
}
