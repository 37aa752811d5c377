package model

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	// TokenAccountSize and MintSize follow the SPL token program layouts.
	TokenAccountSize = 165
	MintSize         = 82

	TokenAccountInitialized uint8 = 1
)

// TokenAccount holds a balance of one mint for one owner.
type TokenAccount struct {
	Mint   solana.PublicKey `json:"mint"`
	Owner  solana.PublicKey `json:"owner"`
	Amount uint64           `json:"amount"`
	State  uint8            `json:"state"`
}

func (t *TokenAccount) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := encoder.WriteBytes(t.Mint[:], false); err != nil {
		return err
	}
	if err := encoder.WriteBytes(t.Owner[:], false); err != nil {
		return err
	}
	if err := encoder.WriteUint64(t.Amount, bin.LE); err != nil {
		return err
	}
	if err := writeNoneKey(encoder); err != nil { // delegate
		return err
	}
	if err := encoder.WriteUint8(t.State); err != nil {
		return err
	}
	if err := encoder.WriteCOption(false); err != nil { // is_native
		return err
	}
	if err := encoder.WriteUint64(0, bin.LE); err != nil {
		return err
	}
	if err := encoder.WriteUint64(0, bin.LE); err != nil { // delegated_amount
		return err
	}
	return writeNoneKey(encoder) // close_authority
}

func (t *TokenAccount) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	if t.Mint, err = readPublicKey(decoder); err != nil {
		return err
	}
	if t.Owner, err = readPublicKey(decoder); err != nil {
		return err
	}
	if t.Amount, err = decoder.ReadUint64(bin.LE); err != nil {
		return err
	}
	if err = decoder.SkipBytes(4 + solana.PublicKeyLength); err != nil {
		return err
	}
	t.State, err = decoder.ReadUint8()
	if err != nil {
		return err
	}
	return decoder.SkipBytes(4 + 8 + 8 + 4 + solana.PublicKeyLength)
}

// Mint describes a token mint.
type Mint struct {
	Authority *solana.PublicKey `json:"authority"`
	Supply    uint64            `json:"supply"`
	Decimals  uint8             `json:"decimals"`
}

func (m *Mint) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := writeOptionalKey(encoder, m.Authority); err != nil {
		return err
	}
	if err := encoder.WriteUint64(m.Supply, bin.LE); err != nil {
		return err
	}
	if err := encoder.WriteUint8(m.Decimals); err != nil {
		return err
	}
	if err := encoder.WriteBool(true); err != nil {
		return err
	}
	return writeNoneKey(encoder) // freeze_authority
}

func (m *Mint) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	hasAuthority, err := decoder.ReadCOption()
	if err != nil {
		return err
	}
	key, err := readPublicKey(decoder)
	if err != nil {
		return err
	}
	m.Authority = nil
	if hasAuthority {
		m.Authority = &key
	}
	if m.Supply, err = decoder.ReadUint64(bin.LE); err != nil {
		return err
	}
	if m.Decimals, err = decoder.ReadUint8(); err != nil {
		return err
	}
	initialized, err := decoder.ReadBool()
	if err != nil {
		return err
	}
	if !initialized {
		return fmt.Errorf("mint is not initialized")
	}
	return decoder.SkipBytes(4 + solana.PublicKeyLength)
}

// EncodeTokenAccount returns the SPL layout of t.
func EncodeTokenAccount(t TokenAccount) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := t.MarshalWithEncoder(bin.NewBorshEncoder(buf)); err != nil {
		return nil, fmt.Errorf("encode token account: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeTokenAccount parses the SPL layout. Data of any other size is rejected.
func DecodeTokenAccount(data []byte) (TokenAccount, error) {
	if len(data) != TokenAccountSize {
		return TokenAccount{}, fmt.Errorf("token account: expected %d bytes, got %d", TokenAccountSize, len(data))
	}
	var t TokenAccount
	if err := t.UnmarshalWithDecoder(bin.NewBorshDecoder(data)); err != nil {
		return TokenAccount{}, fmt.Errorf("decode token account: %w", err)
	}
	return t, nil
}

// EncodeMint returns the SPL layout of m.
func EncodeMint(m Mint) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := m.MarshalWithEncoder(bin.NewBorshEncoder(buf)); err != nil {
		return nil, fmt.Errorf("encode mint: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeMint parses the SPL mint layout.
func DecodeMint(data []byte) (Mint, error) {
	if len(data) != MintSize {
		return Mint{}, fmt.Errorf("mint: expected %d bytes, got %d", MintSize, len(data))
	}
	var m Mint
	if err := m.UnmarshalWithDecoder(bin.NewBorshDecoder(data)); err != nil {
		return Mint{}, fmt.Errorf("decode mint: %w", err)
	}
	return m, nil
}

func writeNoneKey(encoder *bin.Encoder) error {
	return writeOptionalKey(encoder, nil)
}

func writeOptionalKey(encoder *bin.Encoder, key *solana.PublicKey) error {
	if err := encoder.WriteCOption(key != nil); err != nil {
		return err
	}
	var raw solana.PublicKey
	if key != nil {
		raw = *key
	}
	return encoder.WriteBytes(raw[:], false)
}
