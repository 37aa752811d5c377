package curve

import (
	"math"
	"testing"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"pgregory.net/rapid"

	"walienPool/internal/errs"
)

const (
	saleLiquidity = 106167919507750
	saleSqrtPrice = 18446744073709552
	saleTickUpper = -61081
)

type fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

func saleInput(t fataler, amount uint64, feeRate uint32) SwapInput {
	t.Helper()
	target, err := SqrtPriceFromTick(saleTickUpper)
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	in := SwapInput{
		Amount:        amount,
		FeeRate:       feeRate,
		AmountIsInput: true,
	}
	in.Liquidity.SetUint64(saleLiquidity)
	in.SqrtPrice.SetUint64(saleSqrtPrice)
	in.SqrtPriceTarget.Set(target)
	return in
}

func TestComputeSwapExactInputNoFee(t *testing.T) {
	step, err := NewEngine().ComputeSwap(saleInput(t, 1_000_000, 0))
	if err != nil {
		t.Fatalf("compute swap: %v", err)
	}
	if step.AmountIn != 1_000_000 || step.FeeAmount != 0 {
		t.Fatalf("unexpected input side: in=%d fee=%d", step.AmountIn, step.FeeAmount)
	}
	if step.AmountOut != 999_990_581_043 {
		t.Fatalf("unexpected amount out %d", step.AmountOut)
	}
	if step.NextSqrtPrice.Uint64() != 18446917824350604 {
		t.Fatalf("unexpected next price %s", step.NextSqrtPrice.ToBig().String())
	}
}

func TestFeeRateFromBps(t *testing.T) {
	cases := []struct {
		bps  uint16
		want uint32
	}{
		{0, 0},
		{1, 100},
		{30, 3_000},
		{600, MaxFeeRate},
	}
	for _, tc := range cases {
		if got := FeeRateFromBps(tc.bps); got != tc.want {
			t.Fatalf("FeeRateFromBps(%d) = %d, want %d", tc.bps, got, tc.want)
		}
	}
	if FeeRateFromBps(601) <= MaxFeeRate {
		t.Fatalf("601 bps must exceed the engine limit")
	}
}

func TestComputeSwapTakesFeeFromInput(t *testing.T) {
	step, err := NewEngine().ComputeSwap(saleInput(t, 1_000_000, FeeRateFromBps(30)))
	if err != nil {
		t.Fatalf("compute swap: %v", err)
	}
	if step.AmountIn != 997_000 || step.FeeAmount != 3_000 {
		t.Fatalf("unexpected input side: in=%d fee=%d", step.AmountIn, step.FeeAmount)
	}
	if step.AmountIn+step.FeeAmount != 1_000_000 {
		t.Fatalf("input and fee must add up to the amount")
	}
	if step.AmountOut != 996_990_637_472 {
		t.Fatalf("unexpected amount out %d", step.AmountOut)
	}
}

func TestComputeSwapStopsAtCurveBound(t *testing.T) {
	in := saleInput(t, 1_000_000_000_000_000, 0)
	step, err := NewEngine().ComputeSwap(in)
	if err != nil {
		t.Fatalf("compute swap: %v", err)
	}
	if !step.NextSqrtPrice.Eq(&in.SqrtPriceTarget) {
		t.Fatalf("expected price to stop at the bound, got %s", step.NextSqrtPrice.ToBig().String())
	}
	if step.AmountIn != 4_902_273_031_759 {
		t.Fatalf("unexpected amount in %d", step.AmountIn)
	}
	if step.AmountOut != 103_917_393_397_473_436 {
		t.Fatalf("unexpected amount out %d", step.AmountOut)
	}
}

func TestComputeSwapRejectsDegenerateInput(t *testing.T) {
	engine := NewEngine()

	if _, err := engine.ComputeSwap(saleInput(t, 0, 0)); !errs.Is(err, errs.ErrZeroTradableAmount) {
		t.Fatalf("expected zero tradable amount, got %v", err)
	}

	in := saleInput(t, 1_000_000, 0)
	in.Liquidity.Clear()
	if _, err := engine.ComputeSwap(in); !errs.Is(err, errs.ErrLiquidityZero) {
		t.Fatalf("expected liquidity zero, got %v", err)
	}

	in = saleInput(t, 1_000_000, MaxFeeRate+1)
	if _, err := engine.ComputeSwap(in); !errs.Is(err, errs.ErrInvalidFeeRate) {
		t.Fatalf("expected invalid fee rate, got %v", err)
	}

	in = saleInput(t, 1_000_000, 0)
	in.SqrtPriceTarget.SetUint64(saleSqrtPrice - 1)
	if _, err := engine.ComputeSwap(in); !errs.Is(err, errs.ErrInvalidSqrtPriceLimitDirection) {
		t.Fatalf("expected direction error, got %v", err)
	}

	in = saleInput(t, 1_000_000, 0)
	in.SqrtPrice.SetUint64(1)
	if _, err := engine.ComputeSwap(in); !errs.Is(err, errs.ErrSqrtPriceOutOfBounds) {
		t.Fatalf("expected out of bounds, got %v", err)
	}
}

func TestComputeSwapTinyInputMovesPriceSlightly(t *testing.T) {
	step, err := NewEngine().ComputeSwap(saleInput(t, 1, 0))
	if err != nil {
		t.Fatalf("compute swap: %v", err)
	}
	delta := step.NextSqrtPrice.Uint64() - saleSqrtPrice
	if delta == 0 || delta > 1_000_000_000 {
		t.Fatalf("unexpected price delta %d", delta)
	}
}

func TestComputeSwapMonotonicInSize(t *testing.T) {
	engine := NewEngine()
	rapid.Check(t, func(t *rapid.T) {
		fee := rapid.Uint32Range(0, MaxFeeRate).Draw(t, "fee")
		a := rapid.Uint64Range(1, 200_000_000_000).Draw(t, "a")
		b := rapid.Uint64Range(a, math.MaxUint32*100).Draw(t, "b")

		small, err := engine.ComputeSwap(saleInput(t, a, fee))
		if err != nil {
			t.Fatalf("small: %v", err)
		}
		large, err := engine.ComputeSwap(saleInput(t, b, fee))
		if err != nil {
			t.Fatalf("large: %v", err)
		}
		if large.NextSqrtPrice.Lt(&small.NextSqrtPrice) {
			t.Fatalf("larger input landed below smaller input's price")
		}
		if large.AmountOut < small.AmountOut {
			t.Fatalf("larger input produced less output: %d < %d", large.AmountOut, small.AmountOut)
		}
		if small.NextSqrtPrice.Lt(uint256.NewInt(saleSqrtPrice)) {
			t.Fatalf("price moved against the trade direction")
		}
		if small.AmountIn+small.FeeAmount > a {
			t.Fatalf("consumed more than offered: %d+%d > %d", small.AmountIn, small.FeeAmount, a)
		}
	})
}

func TestUIPrice(t *testing.T) {
	unit := new(uint256.Int).Lsh(uint256.NewInt(1), 64)
	if got := UIPrice(unit, 9, 6); !got.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected 1000, got %s", got)
	}

	got := UIPrice(uint256.NewInt(saleSqrtPrice), 9, 6)
	want := decimal.RequireFromString("0.001")
	if got.Sub(want).Abs().GreaterThan(decimal.RequireFromString("0.000000001")) {
		t.Fatalf("expected about %s, got %s", want, got)
	}

	if !UIPrice(nil, 9, 6).IsZero() {
		t.Fatalf("nil price must be zero")
	}
}
