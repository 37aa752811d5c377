package curve

import (
	"math/big"

	"github.com/holiman/uint256"

	"walienPool/internal/errs"
)

const (
	// MinTick and MaxTick bound the tick range the Q64.64 sqrt price can express.
	MinTick int32 = -443636
	MaxTick int32 = 443636
)

var (
	// MinSqrtPrice is the sqrt price at MinTick.
	MinSqrtPrice = mustDecimal("4295048016")
	// MaxSqrtPrice is the sqrt price at MaxTick.
	MaxSqrtPrice = mustDecimal("79226673515401279992447579055")
)

// Q96 ratios for sqrt(1.0001)^(2^i), i = 1..18, used for positive ticks.
var positiveTickRatios = []*uint256.Int{
	mustDecimal("79236085330515764027303304731"),
	mustDecimal("79244008939048815603706035061"),
	mustDecimal("79259858533276714757314932305"),
	mustDecimal("79291567232598584799939703904"),
	mustDecimal("79355022692464371645785046466"),
	mustDecimal("79482085999252804386437311141"),
	mustDecimal("79736823300114093921829183326"),
	mustDecimal("80248749790819932309965073892"),
	mustDecimal("81282483887344747381513967011"),
	mustDecimal("83390072131320151908154831281"),
	mustDecimal("87770609709833776024991924138"),
	mustDecimal("97234110755111693312479820773"),
	mustDecimal("119332217159966728226237229890"),
	mustDecimal("179736315981702064433883588727"),
	mustDecimal("407748233172238350107850275304"),
	mustDecimal("2098478828474011932436660412517"),
	mustDecimal("55581415166113811149459800483533"),
	mustDecimal("38992368544603139932233054999993551"),
}

// Q64 ratios for 1/sqrt(1.0001)^(2^i), i = 1..18, used for negative ticks.
var negativeTickRatios = []uint64{
	18444899583751176498,
	18443055278223354162,
	18439367220385604838,
	18431993317065449817,
	18417254355718160513,
	18387811781193591352,
	18329067761203520168,
	18212142134806087854,
	17980523815641551639,
	17526086738831147013,
	16651378430235024244,
	15030750278693429944,
	12247334978882834399,
	8131365268884726200,
	3584323654723342297,
	696457651847595233,
	26294789957452057,
	37481735321082,
}

// SqrtPriceFromTick returns sqrt(1.0001^tick) as a Q64.64 value.
func SqrtPriceFromTick(tick int32) (*uint256.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, errs.ErrInvalidTickIndex
	}
	if tick >= 0 {
		return sqrtPricePositiveTick(tick), nil
	}
	return sqrtPriceNegativeTick(tick), nil
}

func sqrtPricePositiveTick(tick int32) *uint256.Int {
	var ratio *uint256.Int
	if tick&1 != 0 {
		ratio = mustDecimal("79232123823359799118286999567")
	} else {
		ratio = mustDecimal("79228162514264337593543950336")
	}

	for i, factor := range positiveTickRatios {
		if tick&(1<<(i+1)) != 0 {
			ratio.Mul(ratio, factor)
			ratio.Rsh(ratio, 96)
		}
	}

	return ratio.Rsh(ratio, 32)
}

func sqrtPriceNegativeTick(tick int32) *uint256.Int {
	abs := -tick

	var ratio *uint256.Int
	if abs&1 != 0 {
		ratio = uint256.NewInt(18445821805675392311)
	} else {
		ratio = new(uint256.Int).Lsh(uint256.NewInt(1), 64)
	}

	for i, factor := range negativeTickRatios {
		if abs&(1<<(i+1)) != 0 {
			ratio.Mul(ratio, uint256.NewInt(factor))
			ratio.Rsh(ratio, 64)
		}
	}

	return ratio
}

// TickFromSqrtPrice returns the greatest tick whose sqrt price does not exceed
// sqrtPrice.
func TickFromSqrtPrice(sqrtPrice *uint256.Int) (int32, error) {
	if sqrtPrice == nil || sqrtPrice.Lt(MinSqrtPrice) || sqrtPrice.Gt(MaxSqrtPrice) {
		return 0, errs.ErrSqrtPriceOutOfBounds
	}

	lo, hi := MinTick, MaxTick
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		price, err := SqrtPriceFromTick(mid)
		if err != nil {
			return 0, err
		}
		if price.Gt(sqrtPrice) {
			hi = mid - 1
		} else {
			lo = mid
		}
	}
	return lo, nil
}

func mustDecimal(value string) *uint256.Int {
	b, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("curve: invalid decimal constant " + value)
	}
	out, overflow := uint256.FromBig(b)
	if overflow {
		panic("curve: constant overflows 256 bits " + value)
	}
	return out
}
