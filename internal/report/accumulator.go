package report

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"walienPool/internal/model"
)

// Accumulator holds aggregate values for one sale window. FirstSeq is the
// log sequence of the first record folded into it.
type Accumulator struct {
	WindowStart     uint64
	WindowEnd       uint64
	BuyCount        uint64
	ClaimCount      uint64
	StableVolume    *big.Int
	AllocationSold  *big.Int
	AllocationClaim *big.Int
	LastSqrtPrice   *uint256.Int
	LastTS          uint64
	FirstSeq        uint64

	buyers map[string]struct{}
}

func NewAccumulator(windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		WindowStart:     windowStart,
		WindowEnd:       windowEnd,
		StableVolume:    big.NewInt(0),
		AllocationSold:  big.NewInt(0),
		AllocationClaim: big.NewInt(0),
		buyers:          make(map[string]struct{}),
	}
}

// UniqueBuyers returns the number of distinct wallets that bought in the window.
func (a *Accumulator) UniqueBuyers() uint64 {
	return uint64(len(a.buyers))
}

func (a *Accumulator) AddEvent(record model.EventRecord, ts uint64) error {
	switch record.EventName {
	case model.EventBuy:
		var buy model.BuyEventData
		if err := json.Unmarshal(record.Decoded, &buy); err != nil {
			return fmt.Errorf("decode buy: %w", err)
		}
		if err := a.applyBuy(buy); err != nil {
			return err
		}
	case model.EventClaim:
		var claim model.ClaimEvent
		if err := json.Unmarshal(record.Decoded, &claim); err != nil {
			return fmt.Errorf("decode claim: %w", err)
		}
		a.ClaimCount++
		a.AllocationClaim.Add(a.AllocationClaim, new(big.Int).SetUint64(claim.WalienAmount))
	default:
		return nil
	}
	if ts >= a.LastTS {
		a.LastTS = ts
	}
	return nil
}

func (a *Accumulator) applyBuy(buy model.BuyEventData) error {
	price, err := uint256.FromDecimal(buy.PriceAfter)
	if err != nil {
		return fmt.Errorf("parse price_after %q: %w", buy.PriceAfter, err)
	}

	a.BuyCount++
	a.StableVolume.Add(a.StableVolume, new(big.Int).SetUint64(buy.UsdcAmount))
	a.AllocationSold.Add(a.AllocationSold, new(big.Int).SetUint64(buy.WalienAmount))
	a.buyers[buy.User] = struct{}{}

	// Buys can reach the log out of settlement order, but the curve only
	// rises, so the highest price seen is the window's closing price.
	if a.LastSqrtPrice == nil || price.Gt(a.LastSqrtPrice) {
		a.LastSqrtPrice = price
	}
	return nil
}
