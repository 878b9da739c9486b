/*
balance.go - Balance calculation from request history

PURPOSE:
  Balances are never stored. They are recomputed from the full history on
  every call, because any entry's status may have changed since the last
  computation. There is no cache to invalidate.

FORMULA:
  balance(type) = annualLimit(type) - sum(days(r) for approved r of type)

  A negative balance is possible only after administrative imports and is
  reported as-is, never treated as an error.

SEE ALSO:
  - validator.go: Uses balances for the insufficient_balance check
  - ledger.go:    Summary() bundles balances with the history
*/
package leave

import (
	"github.com/shopspring/decimal"
)

// Balances maps leave type code to remaining days.
type Balances map[string]int

// ComputeBalances returns the remaining days for every catalog code.
// Pure function of history.
func ComputeBalances(catalog *Catalog, history []LeaveRequest) Balances {
	used := usedDays(history, StatusApproved)

	balances := make(Balances, len(catalog.order))
	for _, t := range catalog.All() {
		balances[t.Code] = t.AnnualLimit - used[t.Code]
	}
	return balances
}

func usedDays(history []LeaveRequest, status Status) map[string]int {
	used := make(map[string]int)
	for _, r := range history {
		if r.Status == status {
			used[r.LeaveType] += r.Days()
		}
	}
	return used
}

// =============================================================================
// SUMMARY - Display values per leave type
// =============================================================================

// BalanceSummary is the per-type breakdown shown next to the history.
type BalanceSummary struct {
	Code        string          `json:"code"`
	DisplayName string          `json:"display_name"`
	AnnualLimit int             `json:"annual_limit"`
	Used        int             `json:"used"`
	Pending     int             `json:"pending"`
	Remaining   int             `json:"remaining"`
	Utilization decimal.Decimal `json:"utilization"`
}

// Summarize breaks balances down per catalog code. Utilization is the
// percentage of the annual limit already approved, rounded to 2 places.
func Summarize(catalog *Catalog, history []LeaveRequest) []BalanceSummary {
	used := usedDays(history, StatusApproved)
	pending := usedDays(history, StatusPending)

	hundred := decimal.NewFromInt(100)
	out := make([]BalanceSummary, 0, len(catalog.order))
	for _, t := range catalog.All() {
		utilization := decimal.Zero
		if t.AnnualLimit > 0 {
			utilization = decimal.NewFromInt(int64(used[t.Code])).
				Mul(hundred).
				Div(decimal.NewFromInt(int64(t.AnnualLimit))).
				Round(2)
		}
		out = append(out, BalanceSummary{
			Code:        t.Code,
			DisplayName: t.DisplayName,
			AnnualLimit: t.AnnualLimit,
			Used:        used[t.Code],
			Pending:     pending[t.Code],
			Remaining:   t.AnnualLimit - used[t.Code],
			Utilization: utilization,
		})
	}
	return out
}

// =============================================================================
// STATS - Admin dashboard counters
// =============================================================================

type Stats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

func ComputeStats(requests []LeaveRequest) Stats {
	s := Stats{Total: len(requests)}
	for _, r := range requests {
		switch r.Status {
		case StatusPending:
			s.Pending++
		case StatusApproved:
			s.Approved++
		case StatusRejected:
			s.Rejected++
		}
	}
	return s
}
