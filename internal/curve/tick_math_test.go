package curve

import (
	"testing"

	"github.com/holiman/uint256"

	"walienPool/internal/errs"
)

func TestSqrtPriceFromTickKnownValues(t *testing.T) {
	cases := []struct {
		tick int32
		want string
	}{
		{0, "18446744073709551616"},
		{1, "18447666387855959850"},
		{-1, "18445821805675392311"},
		{-61081, "870219825957491590"},
		{MinTick, "4295048016"},
		{MaxTick, "79226673515401279992447579055"},
	}
	for _, tc := range cases {
		got, err := SqrtPriceFromTick(tc.tick)
		if err != nil {
			t.Fatalf("tick %d: %v", tc.tick, err)
		}
		if got.ToBig().String() != tc.want {
			t.Fatalf("tick %d: expected %s, got %s", tc.tick, tc.want, got.ToBig().String())
		}
	}
}

func TestSqrtPriceFromTickOutOfRange(t *testing.T) {
	for _, tick := range []int32{MinTick - 1, MaxTick + 1} {
		if _, err := SqrtPriceFromTick(tick); !errs.Is(err, errs.ErrInvalidTickIndex) {
			t.Fatalf("tick %d: expected invalid tick index, got %v", tick, err)
		}
	}
}

func TestTickFromSqrtPriceRoundTrip(t *testing.T) {
	for _, tick := range []int32{MinTick, -69078, -61081, -1, 0, 1, 1000, MaxTick} {
		price, err := SqrtPriceFromTick(tick)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		got, err := TickFromSqrtPrice(price)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		if got != tick {
			t.Fatalf("expected tick %d, got %d", tick, got)
		}
		if tick == MaxTick {
			continue
		}
		between := new(uint256.Int).Add(price, uint256.NewInt(1))
		got, err = TickFromSqrtPrice(between)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		if got != tick {
			t.Fatalf("price just above tick %d resolved to %d", tick, got)
		}
	}
}

func TestTickFromSqrtPriceBounds(t *testing.T) {
	below := new(uint256.Int).Sub(MinSqrtPrice, uint256.NewInt(1))
	if _, err := TickFromSqrtPrice(below); !errs.Is(err, errs.ErrSqrtPriceOutOfBounds) {
		t.Fatalf("expected out of bounds, got %v", err)
	}
	if _, err := TickFromSqrtPrice(nil); !errs.Is(err, errs.ErrSqrtPriceOutOfBounds) {
		t.Fatalf("expected out of bounds for nil, got %v", err)
	}
}
