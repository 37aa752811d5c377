package model

import (
	"encoding/json"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
)

// Pool is the singleton sale ledger stored at the config address.
type Pool struct {
	Admin             solana.PublicKey
	StableMint        solana.PublicKey
	SaleMint          *solana.PublicKey
	SaleActive        bool
	ClaimActive       bool
	AvailableForSwap  uint64
	NextPositionIndex uint64
	Bump              uint8
	TickUpper         int32
	FeeBps            uint16 // basis points (engine rate FeeBps*100); a raw per-million rate must be divided by 100
	Liquidity         uint256.Int
	SqrtPrice         uint256.Int
}

// PoolSpace is the allocated record size, sized for a set sale mint.
const PoolSpace = DiscriminatorSize + 32 + 32 + 33 + 1 + 1 + 8 + 8 + 1 + 4 + 2 + 16 + 16

var poolDiscriminator = Discriminator("GlobalConfig")

func (p *Pool) Discriminator() [DiscriminatorSize]byte { return poolDiscriminator }

func (p *Pool) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := encoder.WriteBytes(p.Admin[:], false); err != nil {
		return err
	}
	if err := encoder.WriteBytes(p.StableMint[:], false); err != nil {
		return err
	}
	if err := encoder.WriteOption(p.SaleMint != nil); err != nil {
		return err
	}
	if p.SaleMint != nil {
		if err := encoder.WriteBytes(p.SaleMint[:], false); err != nil {
			return err
		}
	}
	if err := encoder.WriteBool(p.SaleActive); err != nil {
		return err
	}
	if err := encoder.WriteBool(p.ClaimActive); err != nil {
		return err
	}
	if err := encoder.WriteUint64(p.AvailableForSwap, bin.LE); err != nil {
		return err
	}
	if err := encoder.WriteUint64(p.NextPositionIndex, bin.LE); err != nil {
		return err
	}
	if err := encoder.WriteUint8(p.Bump); err != nil {
		return err
	}
	if err := encoder.WriteInt32(p.TickUpper, bin.LE); err != nil {
		return err
	}
	if err := encoder.WriteUint16(p.FeeBps, bin.LE); err != nil {
		return err
	}
	if err := writeU128(encoder, &p.Liquidity); err != nil {
		return fmt.Errorf("liquidity: %w", err)
	}
	if err := writeU128(encoder, &p.SqrtPrice); err != nil {
		return fmt.Errorf("sqrt price: %w", err)
	}
	return nil
}

func (p *Pool) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	if p.Admin, err = readPublicKey(decoder); err != nil {
		return err
	}
	if p.StableMint, err = readPublicKey(decoder); err != nil {
		return err
	}
	hasSaleMint, err := decoder.ReadOption()
	if err != nil {
		return err
	}
	p.SaleMint = nil
	if hasSaleMint {
		mint, err := readPublicKey(decoder)
		if err != nil {
			return err
		}
		p.SaleMint = &mint
	}
	if p.SaleActive, err = decoder.ReadBool(); err != nil {
		return err
	}
	if p.ClaimActive, err = decoder.ReadBool(); err != nil {
		return err
	}
	if p.AvailableForSwap, err = decoder.ReadUint64(bin.LE); err != nil {
		return err
	}
	if p.NextPositionIndex, err = decoder.ReadUint64(bin.LE); err != nil {
		return err
	}
	if p.Bump, err = decoder.ReadUint8(); err != nil {
		return err
	}
	if p.TickUpper, err = decoder.ReadInt32(bin.LE); err != nil {
		return err
	}
	if p.FeeBps, err = decoder.ReadUint16(bin.LE); err != nil {
		return err
	}
	if err = readU128(decoder, &p.Liquidity); err != nil {
		return err
	}
	return readU128(decoder, &p.SqrtPrice)
}

// SaleMintSet reports whether the sale token has been configured.
func (p *Pool) SaleMintSet() bool {
	return p.SaleMint != nil && !p.SaleMint.IsZero()
}

type poolJSON struct {
	Admin             string  `json:"admin"`
	StableMint        string  `json:"stable_mint"`
	SaleMint          *string `json:"sale_mint"`
	SaleActive        bool    `json:"sale_active"`
	ClaimActive       bool    `json:"claim_active"`
	AvailableForSwap  uint64  `json:"available_for_swap"`
	NextPositionIndex uint64  `json:"next_position_index"`
	Bump              uint8   `json:"bump"`
	TickUpper         int32   `json:"tick_upper"`
	FeeBps            uint16  `json:"fee_bps"`
	Liquidity         string  `json:"liquidity"`
	SqrtPrice         string  `json:"sqrt_price"`
}

// MarshalJSON encodes u128 fields as decimal strings.
func (p Pool) MarshalJSON() ([]byte, error) {
	out := poolJSON{
		Admin:             p.Admin.String(),
		StableMint:        p.StableMint.String(),
		SaleActive:        p.SaleActive,
		ClaimActive:       p.ClaimActive,
		AvailableForSwap:  p.AvailableForSwap,
		NextPositionIndex: p.NextPositionIndex,
		Bump:              p.Bump,
		TickUpper:         p.TickUpper,
		FeeBps:            p.FeeBps,
		Liquidity:         p.Liquidity.Dec(),
		SqrtPrice:         p.SqrtPrice.Dec(),
	}
	if p.SaleMint != nil {
		s := p.SaleMint.String()
		out.SaleMint = &s
	}
	return json.Marshal(out)
}

func writeU128(encoder *bin.Encoder, v *uint256.Int) error {
	if v.BitLen() > 128 {
		return fmt.Errorf("value %s exceeds 128 bits", v.Dec())
	}
	return writeUint128(encoder, v[0], v[1])
}

func readU128(decoder *bin.Decoder, v *uint256.Int) error {
	lo, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}
	hi, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}
	*v = uint256.Int{lo, hi, 0, 0}
	return nil
}
