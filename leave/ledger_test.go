package leave_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/leave/store"
	"go.uber.org/zap"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger(t *testing.T, opts ...leave.Option) (*leave.Ledger, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()

	var n int
	var mu sync.Mutex
	base := []leave.Option{
		leave.WithClock(leave.FixedClock(today)),
		leave.WithLogger(zap.NewNop()),
		leave.WithIDGenerator(func() leave.RequestID {
			mu.Lock()
			defer mu.Unlock()
			n++
			return leave.RequestID(fmt.Sprintf("req-%d", n))
		}),
	}
	return leave.NewLedger(mem, testCatalog(t), append(base, opts...)...), mem
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestLedger_SubmitCreatesPendingRequest(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	r, err := ledger.Submit(ctx, "emp-1", leave.Candidate{
		FromDate:  d("2025-01-15"),
		ToDate:    d("2025-01-17"),
		LeaveType: " EL ",
		Reason:    "  Family function  ",
	})
	require.NoError(t, err)

	assert.Equal(t, leave.RequestID("req-1"), r.ID)
	assert.Equal(t, leave.EmployeeID("emp-1"), r.EmployeeID)
	assert.Equal(t, leave.StatusPending, r.Status)
	assert.Equal(t, "EL", r.LeaveType)
	assert.Equal(t, "Family function", r.Reason)
	assert.Equal(t, today, r.AppliedDate)
	assert.Equal(t, "", r.AdminRemarks)
	assert.Equal(t, 3, r.Days())
}

func TestLedger_SubmitRejectedLeavesHistoryUntouched(t *testing.T) {
	ledger, mem := newTestLedger(t)

	_, err := ledger.Submit(context.Background(), "emp-1", leave.Candidate{LeaveType: "CL"})

	var verr *leave.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, mem.Len())
}

func TestLedger_SubmitRequiresEmployee(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.Submit(context.Background(), " ", leave.Candidate{})

	assert.Error(t, err)
}

func TestLedger_HistoryIsNewestFirst(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	for _, from := range []string{"2025-02-01", "2025-03-01", "2025-04-01"} {
		_, err := ledger.Submit(ctx, "emp-1", leave.Candidate{
			FromDate: d(from), ToDate: d(from), LeaveType: "EL", Reason: "trip",
		})
		require.NoError(t, err)
	}

	history, err := ledger.History(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, leave.RequestID("req-3"), history[0].ID)
	assert.Equal(t, leave.RequestID("req-1"), history[2].ID)
}

// =============================================================================
// DECIDE
// =============================================================================

func TestLedger_ApproveReducesBalance_RejectDoesNot(t *testing.T) {
	// GIVEN: Two pending EL requests of 3 and 5 days
	// WHEN: The first is approved and the second rejected
	// THEN: EL balance is 30 - 3

	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	first, err := ledger.Submit(ctx, "emp-1", candidate("EL", "2025-01-15", "2025-01-17"))
	require.NoError(t, err)
	second, err := ledger.Submit(ctx, "emp-1", candidate("EL", "2025-02-01", "2025-02-05"))
	require.NoError(t, err)

	balances, err := ledger.Balances(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 30, balances["EL"], "pending requests do not reduce the balance")

	approved, err := ledger.Decide(ctx, first.ID, leave.ActionApprove, " Enjoy ")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, approved.Status)
	assert.Equal(t, "Enjoy", approved.AdminRemarks)

	_, err = ledger.Decide(ctx, second.ID, leave.ActionReject, "")
	require.NoError(t, err)

	balances, err = ledger.Balances(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 27, balances["EL"])
}

func TestLedger_SecondDecisionFails(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	r, err := ledger.Submit(ctx, "emp-1", candidate("CL", "2025-01-15", "2025-01-16"))
	require.NoError(t, err)
	_, err = ledger.Decide(ctx, r.ID, leave.ActionApprove, "ok")
	require.NoError(t, err)

	_, err = ledger.Decide(ctx, r.ID, leave.ActionReject, "changed my mind")

	assert.ErrorIs(t, err, leave.ErrAlreadyDecided)
	assert.True(t, leave.IsConflict(err))
	got, err := ledger.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, got.Status)
	assert.Equal(t, "ok", got.AdminRemarks)
}

func TestLedger_DecideUnknownRequest(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.Decide(context.Background(), "missing", leave.ActionApprove, "")

	assert.ErrorIs(t, err, leave.ErrNotFound)
	assert.True(t, leave.IsNotFound(err))
}

func TestLedger_DecideInvalidAction(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.Decide(context.Background(), "req-1", leave.Action("cancel"), "")

	assert.ErrorIs(t, err, leave.ErrInvalidAction)
}

func TestLedger_RejectedOverlapDoesNotBlockCasualLeave(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	el, err := ledger.Submit(ctx, "emp-1", candidate("EL", "2025-01-15", "2025-01-17"))
	require.NoError(t, err)

	_, err = ledger.Submit(ctx, "emp-1", candidate("CL", "2025-01-16", "2025-01-16"))
	var verr *leave.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has(leave.KindNonCombinableOverlap))

	_, err = ledger.Decide(ctx, el.ID, leave.ActionReject, "")
	require.NoError(t, err)

	_, err = ledger.Submit(ctx, "emp-1", candidate("CL", "2025-01-16", "2025-01-16"))
	assert.NoError(t, err)
}

func TestLedger_OverlapIsPerEmployee(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.Submit(ctx, "emp-1", candidate("EL", "2025-01-15", "2025-01-17"))
	require.NoError(t, err)

	_, err = ledger.Submit(ctx, "emp-2", candidate("CL", "2025-01-16", "2025-01-16"))
	assert.NoError(t, err)
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestLedger_ConcurrentSubmissionsCannotOverdraw(t *testing.T) {
	// GIVEN: SCL limit 3, reserve-on-submit, 10 concurrent 1-day submissions
	// WHEN: They race
	// THEN: Exactly 3 are admitted

	ledger, mem := newTestLedger(t, leave.WithReservePending(true))
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			day := today.AddDays(10 + 2*i).String()
			_, errs[i] = ledger.Submit(ctx, "emp-1", leave.Candidate{
				FromDate: d(day), ToDate: d(day), LeaveType: "SCL", Reason: "r",
			})
		}(i)
	}
	wg.Wait()

	admitted := 0
	for _, err := range errs {
		if err == nil {
			admitted++
			continue
		}
		var verr *leave.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.True(t, verr.Has(leave.KindInsufficientBalance))
	}
	assert.Equal(t, 3, admitted)
	assert.Equal(t, 3, mem.Len())
}

func TestLedger_ConcurrentDecisionsOnlyOneWins(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	r, err := ledger.Submit(ctx, "emp-1", candidate("EL", "2025-01-15", "2025-01-17"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			action := leave.ActionApprove
			if i%2 == 1 {
				action = leave.ActionReject
			}
			_, results[i] = ledger.Decide(ctx, r.ID, action, "")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, leave.ErrAlreadyDecided)
		}
	}
	assert.Equal(t, 1, wins)
}

// =============================================================================
// READS
// =============================================================================

func TestLedger_SummaryOfUnknownEmployee(t *testing.T) {
	ledger, _ := newTestLedger(t)

	s, err := ledger.Summary(context.Background(), "nobody")
	require.NoError(t, err)

	assert.NotNil(t, s.Requests)
	assert.Empty(t, s.Requests)
	assert.Equal(t, 10, s.Balances["CL"])
	assert.Len(t, s.Summary, 5)
}

func TestLedger_ListAndStats(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	a, err := ledger.Submit(ctx, "emp-1", candidate("EL", "2025-01-15", "2025-01-17"))
	require.NoError(t, err)
	_, err = ledger.Submit(ctx, "emp-2", candidate("EL", "2025-01-15", "2025-01-17"))
	require.NoError(t, err)
	_, err = ledger.Decide(ctx, a.ID, leave.ActionApprove, "")
	require.NoError(t, err)

	pending, err := ledger.List(ctx, leave.ListFilter{Status: leave.StatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, leave.EmployeeID("emp-2"), pending[0].EmployeeID)

	stats, err := ledger.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, leave.Stats{Total: 2, Pending: 1, Approved: 1}, stats)

	_, err = ledger.Get(ctx, "nope")
	assert.ErrorIs(t, err, leave.ErrNotFound)
}

// =============================================================================
// IMPORT
// =============================================================================

func TestLedger_ImportBypassesEligibility(t *testing.T) {
	// GIVEN: A past, already approved request that exceeds its limit
	// WHEN: Importing it
	// THEN: It is stored as-is and counts against the balance

	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	imported, err := ledger.Import(ctx, leave.LeaveRequest{
		ID: "hist-1", EmployeeID: "emp-1",
		FromDate: d("2024-01-01"), ToDate: d("2024-01-05"),
		LeaveType: "SCL", Reason: "Examination",
		Status: leave.StatusApproved, AppliedDate: d("2023-12-20"),
	})
	require.NoError(t, err)
	require.Len(t, imported, 1)

	balances, err := ledger.Balances(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, -2, balances["SCL"])
}

func TestLedger_ImportDefaultsAndDuplicates(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	imported, err := ledger.Import(ctx, leave.LeaveRequest{
		EmployeeID: "emp-1", FromDate: d("2024-01-01"), ToDate: d("2024-01-02"),
		LeaveType: "EL", Reason: "r",
	})
	require.NoError(t, err)
	assert.Equal(t, leave.RequestID("req-1"), imported[0].ID)
	assert.Equal(t, leave.StatusPending, imported[0].Status)
	assert.Equal(t, today, imported[0].AppliedDate)

	_, err = ledger.Import(ctx, imported[0])
	assert.ErrorIs(t, err, leave.ErrDuplicateRequest)
}

func TestLedger_ImportStillChecksStructure(t *testing.T) {
	ledger, mem := newTestLedger(t)
	ctx := context.Background()

	bad := []leave.LeaveRequest{
		{ID: "a", FromDate: d("2024-01-01"), ToDate: d("2024-01-02"), LeaveType: "EL", Reason: "r"},
		{ID: "b", EmployeeID: "e", FromDate: d("2024-01-03"), ToDate: d("2024-01-02"), LeaveType: "EL", Reason: "r"},
		{ID: "c", EmployeeID: "e", FromDate: d("2024-01-01"), ToDate: d("2024-01-02"), LeaveType: "ZZ", Reason: "r"},
		{ID: "d", EmployeeID: "e", FromDate: d("2024-01-01"), ToDate: d("2024-01-02"), LeaveType: "EL"},
		{ID: "e", EmployeeID: "e", FromDate: d("2024-01-01"), ToDate: d("2024-01-02"), LeaveType: "EL", Reason: "r", Status: "void"},
		{ID: "f", EmployeeID: "e", FromDate: d("2024-01-01"), ToDate: d("2024-01-02"), LeaveType: "EL", Reason: "r", AdminRemarks: "ok"},
	}
	for _, r := range bad {
		_, err := ledger.Import(ctx, r)
		assert.Error(t, err, string(r.ID))
	}
	assert.Equal(t, 0, mem.Len())
}
