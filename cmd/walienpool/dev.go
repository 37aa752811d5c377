package main

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"walienPool/internal/custody"
	"walienPool/internal/storage"
)

// newDevCmd groups helpers that stand up wallets and mints on a local ledger.
func newDevCmd() *cobra.Command {
	dev := &cobra.Command{
		Use:   "dev",
		Short: "Local ledger helpers (wallets, mints, airdrops)",
	}

	wallet := &cobra.Command{
		Use:   "wallet",
		Short: "Generate a new wallet and fund it with lamports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lamports, _ := cmd.Flags().GetUint64("lamports")
			key := solana.NewWallet().PublicKey()
			return devUpdate(cmd, "wallet created", func(tx storage.Tx) error {
				if err := custody.Airdrop(tx, key, lamports); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), key.String())
				return nil
			}, zap.String("wallet", key.String()))
		},
	}
	wallet.Flags().Uint64("lamports", 10_000_000_000, "lamports to airdrop")

	airdrop := &cobra.Command{
		Use:   "airdrop",
		Short: "Credit lamports to a wallet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			value, _ := cmd.Flags().GetString("to")
			to, err := parseKey("to", value)
			if err != nil {
				return err
			}
			lamports, _ := cmd.Flags().GetUint64("lamports")
			return devUpdate(cmd, "airdrop", func(tx storage.Tx) error {
				return custody.Airdrop(tx, to, lamports)
			}, zap.String("to", to.String()), zap.Uint64("lamports", lamports))
		},
	}
	airdrop.Flags().String("to", "", "wallet to credit")
	airdrop.Flags().Uint64("lamports", 10_000_000_000, "lamports to airdrop")
	_ = airdrop.MarkFlagRequired("to")

	createMint := &cobra.Command{
		Use:   "create-mint",
		Short: "Create a token mint controlled by an authority wallet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			value, _ := cmd.Flags().GetString("authority")
			authority, err := parseKey("authority", value)
			if err != nil {
				return err
			}
			decimals, _ := cmd.Flags().GetUint8("decimals")
			mint := solana.NewWallet().PublicKey()
			return devUpdate(cmd, "mint created", func(tx storage.Tx) error {
				if err := custody.CreateMint(tx, authority, mint, authority, decimals); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), mint.String())
				return nil
			}, zap.String("mint", mint.String()), zap.Uint8("decimals", decimals))
		},
	}
	createMint.Flags().String("authority", "", "mint authority, pays the mint rent")
	createMint.Flags().Uint8("decimals", 6, "mint decimals")
	_ = createMint.MarkFlagRequired("authority")

	mintTo := &cobra.Command{
		Use:   "mint-to",
		Short: "Mint base units into a wallet's associated token account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			mintFlag, _ := flags.GetString("mint")
			walletFlag, _ := flags.GetString("to")
			authorityFlag, _ := flags.GetString("authority")
			amount, _ := flags.GetUint64("amount")

			mint, err := parseKey("mint", mintFlag)
			if err != nil {
				return err
			}
			to, err := parseKey("to", walletFlag)
			if err != nil {
				return err
			}
			authority, err := parseKey("authority", authorityFlag)
			if err != nil {
				return err
			}
			return devUpdate(cmd, "minted", func(tx storage.Tx) error {
				ata, err := custody.AssociatedAddress(to, mint)
				if err != nil {
					return err
				}
				exists, err := custody.Exists(tx, ata)
				if err != nil {
					return err
				}
				if !exists {
					if _, err := custody.CreateAssociatedAccount(tx, to, to, mint); err != nil {
						return err
					}
				}
				return custody.MintTo(tx, mint, ata, authority, amount)
			}, zap.String("mint", mint.String()), zap.String("to", to.String()), zap.Uint64("amount", amount))
		},
	}
	mintTo.Flags().String("mint", "", "token mint")
	mintTo.Flags().String("to", "", "receiving wallet")
	mintTo.Flags().String("authority", "", "mint authority")
	mintTo.Flags().Uint64("amount", 0, "base units to mint")
	for _, name := range []string{"mint", "to", "authority", "amount"} {
		_ = mintTo.MarkFlagRequired(name)
	}

	dev.AddCommand(wallet, airdrop, createMint, mintTo)
	return dev
}

func devUpdate(cmd *cobra.Command, msg string, fn func(storage.Tx) error, fields ...zap.Field) error {
	return runLedger(cmd, func(ctx context.Context, a *app) error {
		if err := a.store.Update(ctx, fn); err != nil {
			return err
		}
		a.logger.Info(msg, fields...)
		return nil
	})
}
