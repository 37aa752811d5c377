package main

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"walienPool/internal/sale"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the pool and its USDC vault",
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			adminFlag, _ := flags.GetString("admin")
			mintFlag, _ := flags.GetString("stable-mint")
			available, _ := flags.GetString("available")
			tickUpper, _ := flags.GetInt32("tick-upper")
			feeBps, _ := flags.GetUint16("fee-bps")
			liquidityFlag, _ := flags.GetString("liquidity")
			sqrtFlag, _ := flags.GetString("sqrt-price")

			admin, err := parseKey("admin", adminFlag)
			if err != nil {
				return err
			}
			mint, err := parseKey("stable-mint", mintFlag)
			if err != nil {
				return err
			}
			amount, err := parseAmount(available, sale.StableDecimals)
			if err != nil {
				return err
			}
			liquidity, err := parseU128("liquidity", liquidityFlag)
			if err != nil {
				return err
			}
			sqrtPrice, err := parseU128("sqrt-price", sqrtFlag)
			if err != nil {
				return err
			}

			return runLedger(cmd, func(ctx context.Context, a *app) error {
				pool, err := a.svc.Initialize(ctx, admin, sale.InitParams{
					StableMint:       mint,
					AvailableForSwap: amount,
					TickUpper:        tickUpper,
					FeeBps:           feeBps,
					Liquidity:        liquidity,
					SqrtPrice:        sqrtPrice,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), pool)
			})
		},
	}
	cmd.Flags().String("admin", "", "admin wallet, pays for the pool records")
	cmd.Flags().String("stable-mint", "", "USDC mint")
	cmd.Flags().String("available", "100000", "USDC the curve may absorb")
	cmd.Flags().Int32("tick-upper", 0, "upper tick bounding the curve")
	cmd.Flags().Uint16("fee-bps", 0, "swap fee in basis points")
	cmd.Flags().String("liquidity", "", "curve liquidity (u128)")
	cmd.Flags().String("sqrt-price", "", "starting sqrt price (Q64.64)")
	for _, name := range []string{"admin", "stable-mint", "tick-upper", "liquidity", "sqrt-price"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newAdminCmd() *cobra.Command {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Pool administration",
	}
	adminCmd.PersistentFlags().String("admin", "", "current pool admin")
	_ = adminCmd.MarkPersistentFlagRequired("admin")

	saleToken := &cobra.Command{
		Use:   "sale-token",
		Short: "Set the WALIEN mint and create its vault",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mintFlag, _ := cmd.Flags().GetString("mint")
			mint, err := parseKey("mint", mintFlag)
			if err != nil {
				return err
			}
			return adminAction(cmd, func(ctx context.Context, a *app, admin solana.PublicKey) error {
				return a.svc.SetSaleToken(ctx, admin, mint)
			})
		},
	}
	saleToken.Flags().String("mint", "", "WALIEN mint")
	_ = saleToken.MarkFlagRequired("mint")

	saleActive := &cobra.Command{
		Use:   "sale-active",
		Short: "Open or close purchases",
		RunE: func(cmd *cobra.Command, _ []string) error {
			active, _ := cmd.Flags().GetBool("active")
			return adminAction(cmd, func(ctx context.Context, a *app, admin solana.PublicKey) error {
				return a.svc.SetSaleActive(ctx, admin, active)
			})
		},
	}
	saleActive.Flags().Bool("active", true, "sale state")

	claimActive := &cobra.Command{
		Use:   "claim-active",
		Short: "Open or close claims",
		RunE: func(cmd *cobra.Command, _ []string) error {
			active, _ := cmd.Flags().GetBool("active")
			return adminAction(cmd, func(ctx context.Context, a *app, admin solana.PublicKey) error {
				return a.svc.SetClaimActive(ctx, admin, active)
			})
		},
	}
	claimActive.Flags().Bool("active", true, "claim state")

	transfer := &cobra.Command{
		Use:   "transfer",
		Short: "Hand the admin role to another wallet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			value, _ := cmd.Flags().GetString("new-admin")
			next, err := parseKey("new-admin", value)
			if err != nil {
				return err
			}
			return adminAction(cmd, func(ctx context.Context, a *app, admin solana.PublicKey) error {
				return a.svc.TransferAdmin(ctx, admin, next)
			})
		},
	}
	transfer.Flags().String("new-admin", "", "wallet receiving the admin role")
	_ = transfer.MarkFlagRequired("new-admin")

	deposit := &cobra.Command{
		Use:   "deposit",
		Short: "Move WALIEN from the admin into the sale vault",
		RunE: func(cmd *cobra.Command, _ []string) error {
			value, _ := cmd.Flags().GetString("amount")
			amount, err := parseAmount(value, sale.SaleDecimals)
			if err != nil {
				return err
			}
			return adminAction(cmd, func(ctx context.Context, a *app, admin solana.PublicKey) error {
				return a.svc.DepositSaleToken(ctx, admin, amount)
			})
		},
	}
	deposit.Flags().String("amount", "", "WALIEN to deposit")
	_ = deposit.MarkFlagRequired("amount")

	withdrawSale := &cobra.Command{
		Use:   "withdraw-sale",
		Short: "Return the whole WALIEN vault to the admin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return adminAction(cmd, func(ctx context.Context, a *app, admin solana.PublicKey) error {
				moved, err := a.svc.WithdrawSaleToken(ctx, admin)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "withdrew %s WALIEN\n", formatAmount(moved, sale.SaleDecimals))
				return nil
			})
		},
	}

	adminCmd.AddCommand(saleToken, saleActive, claimActive, transfer, deposit, withdrawSale)
	return adminCmd
}

func adminAction(cmd *cobra.Command, fn func(context.Context, *app, solana.PublicKey) error) error {
	value, _ := cmd.Flags().GetString("admin")
	admin, err := parseKey("admin", value)
	if err != nil {
		return err
	}
	return runLedger(cmd, func(ctx context.Context, a *app) error {
		return fn(ctx, a, admin)
	})
}
