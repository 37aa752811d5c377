package model

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Position is the escrow record of a single buy.
type Position struct {
	Owner       solana.PublicKey `json:"owner"`
	Index       uint64           `json:"index"`
	StableSpent uint64           `json:"stable_spent"`
	Allocation  uint64           `json:"allocation"`
	CreatedAt   int64            `json:"created_at"`
}

const PositionSpace = DiscriminatorSize + 32 + 8 + 8 + 8 + 8

var positionDiscriminator = Discriminator("UserPosition")

func (p *Position) Discriminator() [DiscriminatorSize]byte { return positionDiscriminator }

func (p *Position) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := encoder.WriteBytes(p.Owner[:], false); err != nil {
		return err
	}
	if err := encoder.WriteUint64(p.Index, bin.LE); err != nil {
		return err
	}
	if err := encoder.WriteUint64(p.StableSpent, bin.LE); err != nil {
		return err
	}
	if err := encoder.WriteUint64(p.Allocation, bin.LE); err != nil {
		return err
	}
	return encoder.WriteInt64(p.CreatedAt, bin.LE)
}

func (p *Position) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	if p.Owner, err = readPublicKey(decoder); err != nil {
		return err
	}
	if p.Index, err = decoder.ReadUint64(bin.LE); err != nil {
		return err
	}
	if p.StableSpent, err = decoder.ReadUint64(bin.LE); err != nil {
		return err
	}
	if p.Allocation, err = decoder.ReadUint64(bin.LE); err != nil {
		return err
	}
	p.CreatedAt, err = decoder.ReadInt64(bin.LE)
	return err
}
