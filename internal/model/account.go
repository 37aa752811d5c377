package model

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"walienPool/internal/errs"
)

// DiscriminatorSize is the length of the type tag prefixed to program records.
const DiscriminatorSize = 8

// AccountInfo is a stored account: lamports held for rent, the owning program
// and the raw record bytes.
type AccountInfo struct {
	Lamports uint64           `json:"lamports"`
	Owner    solana.PublicKey `json:"owner"`
	Data     []byte           `json:"data"`
}

func (a AccountInfo) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := encoder.WriteUint64(a.Lamports, bin.LE); err != nil {
		return err
	}
	if err := encoder.WriteBytes(a.Owner[:], false); err != nil {
		return err
	}
	return encoder.WriteBytes(a.Data, true)
}

func (a *AccountInfo) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	if a.Lamports, err = decoder.ReadUint64(bin.LE); err != nil {
		return err
	}
	if a.Owner, err = readPublicKey(decoder); err != nil {
		return err
	}
	raw, err := decoder.ReadByteSlice()
	if err != nil {
		return err
	}
	a.Data = append([]byte(nil), raw...)
	return nil
}

// EncodeAccount serializes an AccountInfo for the ledger store.
func EncodeAccount(a AccountInfo) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := a.MarshalWithEncoder(bin.NewBorshEncoder(buf)); err != nil {
		return nil, fmt.Errorf("encode account: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeAccount is the inverse of EncodeAccount.
func DecodeAccount(data []byte) (AccountInfo, error) {
	var a AccountInfo
	if err := a.UnmarshalWithDecoder(bin.NewBorshDecoder(data)); err != nil {
		return AccountInfo{}, fmt.Errorf("decode account: %w", err)
	}
	return a, nil
}

// Discriminator returns the 8-byte tag for a program record type name.
func Discriminator(name string) [DiscriminatorSize]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var out [DiscriminatorSize]byte
	copy(out[:], sum[:DiscriminatorSize])
	return out
}

// Record is a program-owned ledger record with a discriminator prefix.
type Record interface {
	bin.EncoderDecoder
	Discriminator() [DiscriminatorSize]byte
}

// EncodeRecord serializes r prefixed with its discriminator.
func EncodeRecord(r Record) ([]byte, error) {
	buf := new(bytes.Buffer)
	disc := r.Discriminator()
	buf.Write(disc[:])
	if err := r.MarshalWithEncoder(bin.NewBorshEncoder(buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeRecord checks the discriminator and decodes the remainder into r.
func DecodeRecord(data []byte, r Record) error {
	disc := r.Discriminator()
	if len(data) < DiscriminatorSize || !bytes.Equal(data[:DiscriminatorSize], disc[:]) {
		return errs.ErrAccountDiscriminator
	}
	if err := r.UnmarshalWithDecoder(bin.NewBorshDecoder(data[DiscriminatorSize:])); err != nil {
		return errorsmod.Wrap(errs.ErrAccountDidNotSerialize, err.Error())
	}
	return nil
}

func readPublicKey(decoder *bin.Decoder) (solana.PublicKey, error) {
	raw, err := decoder.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(raw), nil
}

func writeUint128(encoder *bin.Encoder, lo, hi uint64) error {
	if err := encoder.WriteUint64(lo, bin.LE); err != nil {
		return err
	}
	return encoder.WriteUint64(hi, bin.LE)
}
