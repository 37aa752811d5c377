package sale

import (
	"context"
	"fmt"
	"sort"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gagliardetto/solana-go"

	"walienPool/internal/custody"
	"walienPool/internal/errs"
	"walienPool/internal/model"
	"walienPool/internal/storage"
)

// Violation is one ledger inconsistency found by Audit.
type Violation struct {
	Kind   string `json:"kind"`
	Owner  string `json:"owner,omitempty"`
	Detail string `json:"detail"`
}

// AuditReport summarizes the open positions and the invariants checked
// against them.
type AuditReport struct {
	OpenPositions  int         `json:"open_positions"`
	Owners         int         `json:"owners"`
	StableLocked   uint64      `json:"stable_locked"`
	AllocationOwed uint64      `json:"allocation_owed"`
	StableVault    uint64      `json:"stable_vault"`
	SaleVault      uint64      `json:"sale_vault"`
	Violations     []Violation `json:"violations"`
}

// OK reports whether no violation was found.
func (r AuditReport) OK() bool {
	return len(r.Violations) == 0
}

type ownerTotals struct {
	stable     uint64
	allocation uint64
}

// Audit walks every position index issued so far and checks that each
// owner's summary equals the sum of their open positions and that the stable
// vault covers everything still locked.
func (s *Service) Audit(ctx context.Context) (AuditReport, error) {
	var report AuditReport
	err := s.store.View(ctx, func(r storage.Reader) error {
		pool, err := s.loadPool(r)
		if err != nil {
			return err
		}

		owners := make(map[solana.PublicKey]*ownerTotals)
		for index := uint64(1); index < pool.NextPositionIndex; index++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, pos, err := s.loadPosition(r, index)
			if errorsmod.IsOf(err, errs.ErrAccountNotInitialized) {
				continue
			}
			if err != nil {
				return fmt.Errorf("position %d: %w", index, err)
			}
			report.OpenPositions++
			t := owners[pos.Owner]
			if t == nil {
				t = &ownerTotals{}
				owners[pos.Owner] = t
			}
			t.stable = addOrFlag(&report, pos.Owner, "stable", t.stable, pos.StableSpent)
			t.allocation = addOrFlag(&report, pos.Owner, "allocation", t.allocation, pos.Allocation)
			report.StableLocked = addOrFlag(&report, pos.Owner, "stable", report.StableLocked, pos.StableSpent)
			report.AllocationOwed = addOrFlag(&report, pos.Owner, "allocation", report.AllocationOwed, pos.Allocation)
		}
		report.Owners = len(owners)

		keys := make([]solana.PublicKey, 0, len(owners))
		for owner := range owners {
			keys = append(keys, owner)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

		for _, owner := range keys {
			t := owners[owner]
			_, sum, err := s.loadSummary(r, owner)
			if errorsmod.IsOf(err, errs.ErrAccountNotInitialized) {
				report.Violations = append(report.Violations, Violation{
					Kind:   "missing_summary",
					Owner:  owner.String(),
					Detail: "owner has open positions but no summary",
				})
				continue
			}
			if err != nil {
				return fmt.Errorf("summary %s: %w", owner, err)
			}
			report.Violations = append(report.Violations, compareSummary(owner, &sum, t)...)
		}

		if report.StableVault, err = custody.Balance(r, s.addrs.StableVault); err != nil {
			return fmt.Errorf("stable vault: %w", err)
		}
		if report.StableVault < report.StableLocked {
			report.Violations = append(report.Violations, Violation{
				Kind:   "stable_vault_short",
				Detail: fmt.Sprintf("vault holds %d, positions lock %d", report.StableVault, report.StableLocked),
			})
		}
		if pool.SaleMintSet() {
			if report.SaleVault, err = custody.Balance(r, s.addrs.SaleVault); err != nil {
				return fmt.Errorf("sale vault: %w", err)
			}
		}
		return nil
	})
	return report, err
}

func compareSummary(owner solana.PublicKey, sum *model.Summary, t *ownerTotals) []Violation {
	var out []Violation
	if sum.TotalStableLocked != t.stable {
		out = append(out, Violation{
			Kind:   "summary_stable_mismatch",
			Owner:  owner.String(),
			Detail: fmt.Sprintf("summary %d, positions %d", sum.TotalStableLocked, t.stable),
		})
	}
	if sum.TotalAllocationOwed != t.allocation {
		out = append(out, Violation{
			Kind:   "summary_allocation_mismatch",
			Owner:  owner.String(),
			Detail: fmt.Sprintf("summary %d, positions %d", sum.TotalAllocationOwed, t.allocation),
		})
	}
	return out
}

func addOrFlag(report *AuditReport, owner solana.PublicKey, what string, a, b uint64) uint64 {
	total, overflow := math.SafeAdd(a, b)
	if overflow {
		report.Violations = append(report.Violations, Violation{
			Kind:   "overflow",
			Owner:  owner.String(),
			Detail: what + " total overflows u64",
		})
		return a
	}
	return total
}
