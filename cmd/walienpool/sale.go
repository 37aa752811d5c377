package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"walienPool/internal/sale"
)

// runLedger opens the ledger for the duration of fn.
func runLedger(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a buy without executing it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			usdc, _ := cmd.Flags().GetString("usdc")
			amount, err := parseAmount(usdc, sale.StableDecimals)
			if err != nil {
				return err
			}
			return runLedger(cmd, func(ctx context.Context, a *app) error {
				q, err := a.svc.QuoteDetail(ctx, amount)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "usdc in:     %s\n", formatAmount(q.AmountIn, sale.StableDecimals))
				fmt.Fprintf(out, "fee:         %s\n", formatAmount(q.Fee, sale.StableDecimals))
				fmt.Fprintf(out, "transfer:    %s\n", formatAmount(q.Transfer, sale.StableDecimals))
				fmt.Fprintf(out, "walien out:  %s\n", formatAmount(q.AmountOut, sale.SaleDecimals))
				fmt.Fprintf(out, "price after: %s USDC\n", q.Price.String())
				fmt.Fprintf(out, "sqrt after:  %s\n", q.NextSqrtPrice.Dec())
				return nil
			})
		},
	}
	cmd.Flags().String("usdc", "", "USDC to spend (e.g. 25.5)")
	_ = cmd.MarkFlagRequired("usdc")
	return cmd
}

func newBuyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buy",
		Short: "Buy a position with USDC",
		RunE: func(cmd *cobra.Command, _ []string) error {
			buyerFlag, _ := cmd.Flags().GetString("buyer")
			usdc, _ := cmd.Flags().GetString("usdc")
			minOut, _ := cmd.Flags().GetString("min-out")

			buyer, err := parseKey("buyer", buyerFlag)
			if err != nil {
				return err
			}
			amount, err := parseAmount(usdc, sale.StableDecimals)
			if err != nil {
				return err
			}
			minimum, err := parseAmount(minOut, sale.SaleDecimals)
			if err != nil {
				return err
			}
			return runLedger(cmd, func(ctx context.Context, a *app) error {
				ev, err := a.svc.Buy(ctx, buyer, amount, minimum)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), ev)
			})
		},
	}
	cmd.Flags().String("buyer", "", "buyer wallet")
	cmd.Flags().String("usdc", "", "USDC to spend")
	cmd.Flags().String("min-out", "0", "minimum WALIEN to accept")
	_ = cmd.MarkFlagRequired("buyer")
	_ = cmd.MarkFlagRequired("usdc")
	return cmd
}

func newClaimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Deliver a position's WALIEN to its owner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return positionAction(cmd, "caller", func(ctx context.Context, a *app, caller solana.PublicKey, index uint64) (interface{}, error) {
				return a.svc.Claim(ctx, caller, index)
			})
		},
	}
	cmd.Flags().String("caller", "", "wallet paying for the claim")
	cmd.Flags().Uint64("index", 0, "position index")
	_ = cmd.MarkFlagRequired("caller")
	_ = cmd.MarkFlagRequired("index")
	return cmd
}

func newWithdrawCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Cancel your own position and recover its USDC",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return positionAction(cmd, "owner", func(ctx context.Context, a *app, owner solana.PublicKey, index uint64) (interface{}, error) {
				return a.svc.Withdraw(ctx, owner, index)
			})
		},
	}
	cmd.Flags().String("owner", "", "position owner")
	cmd.Flags().Uint64("index", 0, "position index")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("index")
	return cmd
}

func newRollbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Cancel any position as the admin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return positionAction(cmd, "admin", func(ctx context.Context, a *app, admin solana.PublicKey, index uint64) (interface{}, error) {
				return a.svc.Rollback(ctx, admin, index)
			})
		},
	}
	cmd.Flags().String("admin", "", "pool admin")
	cmd.Flags().Uint64("index", 0, "position index")
	_ = cmd.MarkFlagRequired("admin")
	_ = cmd.MarkFlagRequired("index")
	return cmd
}

func positionAction(cmd *cobra.Command, signerFlag string, fn func(context.Context, *app, solana.PublicKey, uint64) (interface{}, error)) error {
	value, _ := cmd.Flags().GetString(signerFlag)
	signer, err := parseKey(signerFlag, value)
	if err != nil {
		return err
	}
	index, _ := cmd.Flags().GetUint64("index")
	return runLedger(cmd, func(ctx context.Context, a *app) error {
		out, err := fn(ctx, a, signer, index)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	})
}

func newShowCmd() *cobra.Command {
	show := &cobra.Command{
		Use:   "show",
		Short: "Print ledger records",
	}

	show.AddCommand(&cobra.Command{
		Use:   "pool",
		Short: "Print the pool record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLedger(cmd, func(ctx context.Context, a *app) error {
				pool, err := a.svc.Pool(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), pool)
			})
		},
	})

	position := &cobra.Command{
		Use:   "position",
		Short: "Print a position record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			index, _ := cmd.Flags().GetUint64("index")
			return runLedger(cmd, func(ctx context.Context, a *app) error {
				pos, err := a.svc.Position(ctx, index)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), pos)
			})
		},
	}
	position.Flags().Uint64("index", 0, "position index")
	_ = position.MarkFlagRequired("index")
	show.AddCommand(position)

	summary := &cobra.Command{
		Use:   "summary",
		Short: "Print an owner's summary record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			value, _ := cmd.Flags().GetString("owner")
			owner, err := parseKey("owner", value)
			if err != nil {
				return err
			}
			return runLedger(cmd, func(ctx context.Context, a *app) error {
				sum, err := a.svc.Summary(ctx, owner)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), sum)
			})
		},
	}
	summary.Flags().String("owner", "", "summary owner")
	_ = summary.MarkFlagRequired("owner")
	show.AddCommand(summary)

	addresses := &cobra.Command{
		Use:   "addresses",
		Short: "Print the derived pool and vault addresses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLedger(cmd, func(_ context.Context, a *app) error {
				return printJSON(cmd.OutOrStdout(), a.svc.Addresses())
			})
		},
	}
	show.AddCommand(addresses)
	return show
}

func newAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Check summaries and vault balances against open positions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLedger(cmd, func(ctx context.Context, a *app) error {
				report, err := a.svc.Audit(ctx)
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
				if !report.OK() {
					a.logger.Warn("audit found violations", zap.Int("violations", len(report.Violations)))
					return fmt.Errorf("audit found %d violations", len(report.Violations))
				}
				return nil
			})
		},
	}
}
