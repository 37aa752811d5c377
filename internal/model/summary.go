package model

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Summary aggregates a buyer's open positions.
type Summary struct {
	Owner               solana.PublicKey `json:"owner"`
	TotalStableLocked   uint64           `json:"total_stable_locked"`
	TotalAllocationOwed uint64           `json:"total_allocation_owed"`
	LastPurchaseAt      int64            `json:"last_purchase_at"`
	LastGlobalIndex     uint64           `json:"last_global_index"`
	PositionCount       uint64           `json:"position_count"`
}

const SummarySpace = DiscriminatorSize + 32 + 8 + 8 + 8 + 8 + 8

var summaryDiscriminator = Discriminator("UserSummary")

func (s *Summary) Discriminator() [DiscriminatorSize]byte { return summaryDiscriminator }

// Empty reports whether both running totals are zero.
func (s *Summary) Empty() bool {
	return s.TotalStableLocked == 0 && s.TotalAllocationOwed == 0
}

func (s *Summary) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := encoder.WriteBytes(s.Owner[:], false); err != nil {
		return err
	}
	for _, v := range []uint64{s.TotalStableLocked, s.TotalAllocationOwed} {
		if err := encoder.WriteUint64(v, bin.LE); err != nil {
			return err
		}
	}
	if err := encoder.WriteInt64(s.LastPurchaseAt, bin.LE); err != nil {
		return err
	}
	if err := encoder.WriteUint64(s.LastGlobalIndex, bin.LE); err != nil {
		return err
	}
	return encoder.WriteUint64(s.PositionCount, bin.LE)
}

func (s *Summary) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	if s.Owner, err = readPublicKey(decoder); err != nil {
		return err
	}
	if s.TotalStableLocked, err = decoder.ReadUint64(bin.LE); err != nil {
		return err
	}
	if s.TotalAllocationOwed, err = decoder.ReadUint64(bin.LE); err != nil {
		return err
	}
	if s.LastPurchaseAt, err = decoder.ReadInt64(bin.LE); err != nil {
		return err
	}
	if s.LastGlobalIndex, err = decoder.ReadUint64(bin.LE); err != nil {
		return err
	}
	s.PositionCount, err = decoder.ReadUint64(bin.LE)
	return err
}
