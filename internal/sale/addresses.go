package sale

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const (
	ConfigSeed      = "config"
	StableVaultSeed = "vault_usdc"
	SaleVaultSeed   = "vault_walien"
	SummarySeed     = "user_summary"

	StableDecimals uint8 = 6
	SaleDecimals   uint8 = 9

	// AbsoluteCap bounds the stable inventory a pool may ever offer.
	AbsoluteCap uint64 = 100_000 * 1_000_000
)

// Addresses are the fixed program-derived addresses of one deployment.
type Addresses struct {
	ProgramID   solana.PublicKey `json:"program_id"`
	Pool        solana.PublicKey `json:"pool"`
	StableVault solana.PublicKey `json:"stable_vault"`
	SaleVault   solana.PublicKey `json:"sale_vault"`
	Bump        uint8            `json:"bump"`
}

// DeriveAddresses computes the pool, vault and authority addresses for programID.
func DeriveAddresses(programID solana.PublicKey) (Addresses, error) {
	pool, bump, err := solana.FindProgramAddress([][]byte{[]byte(ConfigSeed)}, programID)
	if err != nil {
		return Addresses{}, fmt.Errorf("derive pool: %w", err)
	}
	stableVault, _, err := solana.FindProgramAddress([][]byte{[]byte(StableVaultSeed)}, programID)
	if err != nil {
		return Addresses{}, fmt.Errorf("derive stable vault: %w", err)
	}
	saleVault, _, err := solana.FindProgramAddress([][]byte{[]byte(SaleVaultSeed)}, programID)
	if err != nil {
		return Addresses{}, fmt.Errorf("derive sale vault: %w", err)
	}
	return Addresses{
		ProgramID:   programID,
		Pool:        pool,
		StableVault: stableVault,
		SaleVault:   saleVault,
		Bump:        bump,
	}, nil
}

// PositionAddress is keyed by the pool and the little-endian position index.
func PositionAddress(programID, pool solana.PublicKey, index uint64) (solana.PublicKey, error) {
	var le [8]byte
	binary.LittleEndian.PutUint64(le[:], index)
	addr, _, err := solana.FindProgramAddress([][]byte{pool[:], le[:]}, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive position %d: %w", index, err)
	}
	return addr, nil
}

// SummaryAddress is the per-owner summary address.
func SummaryAddress(programID, owner solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{[]byte(SummarySeed), owner[:]}, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive summary for %s: %w", owner, err)
	}
	return addr, nil
}

// authority signs for the vaults. It holds no private key: it is the pool
// address recomputed from the config seed and the stored bump, and only the
// service can construct one.
type authority struct {
	key solana.PublicKey
}

func newAuthority(programID solana.PublicKey, bump uint8) (authority, error) {
	key, err := solana.CreateProgramAddress([][]byte{[]byte(ConfigSeed), {bump}}, programID)
	if err != nil {
		return authority{}, fmt.Errorf("pool authority: %w", err)
	}
	return authority{key: key}, nil
}
