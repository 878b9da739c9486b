/*
handlers_test.go - HTTP tests for API handlers

Tests for:
- Submission: 201, 422 with every violation, 400 on malformed input
- Decisions: 200, 404, 409, 400
- History, balances, admin queue and stats
- Rate limiting
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/factory"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
	"go.uber.org/zap"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testToday = leave.MustParseDate("2025-01-10")

func newTestServer(t *testing.T, opts RouterOptions) (http.Handler, *Handler) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	catalog, err := factory.NewCatalogFactory().Default()
	require.NoError(t, err)

	ledger := leave.NewLedger(store, catalog,
		leave.WithClock(leave.FixedClock(testToday)),
		leave.WithLogger(zap.NewNop()),
	)
	h := NewHandler(ledger, zap.NewNop())
	opts.Logger = zap.NewNop()
	return NewRouter(h, opts), h
}

func do(t *testing.T, srv http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func submit(t *testing.T, srv http.Handler, employee string, body SubmitLeaveRequest) *httptest.ResponseRecorder {
	return do(t, srv, http.MethodPost, "/api/employees/"+employee+"/leave-requests", body)
}

// =============================================================================
// CATALOG / HEALTH
// =============================================================================

func TestHealthAndLeaveTypes(t *testing.T) {
	srv, _ := newTestServer(t, RouterOptions{})

	rec := do(t, srv, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/leave-types", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	types := decode[[]LeaveTypeDTO](t, rec)
	require.Len(t, types, 8)
	assert.Equal(t, "CL", types[0].Code)
	assert.Equal(t, 10, types[0].AnnualLimit)
	assert.False(t, types[0].Combinable)
}

// =============================================================================
// SUBMISSION
// =============================================================================

func TestSubmit_Created(t *testing.T) {
	srv, _ := newTestServer(t, RouterOptions{})

	rec := submit(t, srv, "emp-1", SubmitLeaveRequest{
		FromDate: "2025-01-15", ToDate: "2025-01-17", LeaveType: "EL", Reason: "Family function",
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dto := decode[LeaveRequestDTO](t, rec)
	assert.NotEmpty(t, dto.ID)
	assert.Equal(t, "emp-1", dto.EmployeeID)
	assert.Equal(t, "pending", dto.Status)
	assert.Equal(t, 3, dto.Days)
	assert.Equal(t, "Earned Leave", dto.LeaveTypeName)
	assert.Equal(t, "2025-01-10", dto.AppliedDate)
}

func TestSubmit_ValidationFailureListsEveryViolation(t *testing.T) {
	// GIVEN: A past, inverted range with no reason
	// WHEN: Submitting
	// THEN: 422 with past_date, invalid_range and missing_field(reason)

	srv, _ := newTestServer(t, RouterOptions{})

	rec := submit(t, srv, "emp-1", SubmitLeaveRequest{
		FromDate: "2025-01-05", ToDate: "2025-01-01", LeaveType: "EL",
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode[ValidationErrorResponse](t, rec)
	assert.Equal(t, "validation_failed", resp.Code)
	assert.Equal(t, []leave.ErrorKind{
		leave.KindMissingField, leave.KindPastDate, leave.KindInvalidRange,
	}, resp.Kinds)
	assert.Equal(t, leave.FieldReason, resp.Violations[0].Field)
}

func TestSubmit_InsufficientBalanceReportsNumbers(t *testing.T) {
	srv, _ := newTestServer(t, RouterOptions{})

	rec := submit(t, srv, "emp-1", SubmitLeaveRequest{
		FromDate: "2025-02-01", ToDate: "2025-02-04", LeaveType: "SCL", Reason: "Exams",
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode[ValidationErrorResponse](t, rec)
	require.Len(t, resp.Violations, 1)
	assert.Equal(t, leave.InsufficientBalance(3, 4), resp.Violations[0])
}

func TestSubmit_ExhaustedBalanceWritesZeroAvailable(t *testing.T) {
	// GIVEN: An employee whose 3 SCL days are all approved
	// WHEN: Submitting one more SCL day
	// THEN: The raw 422 body carries available 0 next to requested 1

	srv, h := newTestServer(t, RouterOptions{})
	_, err := h.Ledger.Import(context.Background(), leave.LeaveRequest{
		EmployeeID: "emp-1",
		FromDate:   leave.MustParseDate("2024-12-02"),
		ToDate:     leave.MustParseDate("2024-12-04"),
		LeaveType:  "SCL",
		Reason:     "Exams",
		Status:     leave.StatusApproved,
	})
	require.NoError(t, err)

	rec := submit(t, srv, "emp-1", SubmitLeaveRequest{
		FromDate: "2025-02-03", ToDate: "2025-02-03", LeaveType: "SCL", Reason: "Exams",
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"available":0`)
	assert.Contains(t, body, `"requested":1`)
}

func TestSubmit_EmptyDatesAreMissingFields(t *testing.T) {
	srv, _ := newTestServer(t, RouterOptions{})

	rec := submit(t, srv, "emp-1", SubmitLeaveRequest{LeaveType: "EL", Reason: "r"})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode[ValidationErrorResponse](t, rec)
	assert.Equal(t, []leave.Violation{
		leave.MissingField(leave.FieldFromDate),
		leave.MissingField(leave.FieldToDate),
	}, resp.Violations)
}

func TestSubmit_MalformedInputIsBadRequest(t *testing.T) {
	srv, _ := newTestServer(t, RouterOptions{})

	rec := do(t, srv, http.MethodPost, "/api/employees/emp-1/leave-requests", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = submit(t, srv, "emp-1", SubmitLeaveRequest{
		FromDate: "15/01/2025", ToDate: "2025-01-17", LeaveType: "EL", Reason: "r",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid from_date", decode[ErrorResponse](t, rec).Error)
}

// =============================================================================
// DECISIONS
// =============================================================================

func TestDecision_ApproveThenConflict(t *testing.T) {
	srv, _ := newTestServer(t, RouterOptions{})
	created := decode[LeaveRequestDTO](t, submit(t, srv, "emp-1", SubmitLeaveRequest{
		FromDate: "2025-01-15", ToDate: "2025-01-17", LeaveType: "EL", Reason: "Family function",
	}))
	path := "/api/leave-requests/" + created.ID + "/decision"

	rec := do(t, srv, http.MethodPost, path, DecisionRequest{Action: "approve", Remarks: "Enjoy"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dto := decode[LeaveRequestDTO](t, rec)
	assert.Equal(t, "approved", dto.Status)
	assert.Equal(t, "Enjoy", dto.AdminRemarks)

	rec = do(t, srv, http.MethodPost, path, DecisionRequest{Action: "reject"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_decided", decode[ErrorResponse](t, rec).Code)

	rec = do(t, srv, http.MethodGet, "/api/employees/emp-1/balances", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 27, decode[BalancesResponse](t, rec).Balances["EL"])
}

func TestDecision_RejectKeepsBalance(t *testing.T) {
	srv, _ := newTestServer(t, RouterOptions{})
	created := decode[LeaveRequestDTO](t, submit(t, srv, "emp-1", SubmitLeaveRequest{
		FromDate: "2025-01-15", ToDate: "2025-01-17", LeaveType: "EL", Reason: "Family function",
	}))

	rec := do(t, srv, http.MethodPost, "/api/leave-requests/"+created.ID+"/decision",
		DecisionRequest{Action: "REJECT"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/employees/emp-1/balances", nil)
	assert.Equal(t, 30, decode[BalancesResponse](t, rec).Balances["EL"])
}

func TestDecision_Errors(t *testing.T) {
	srv, _ := newTestServer(t, RouterOptions{})

	rec := do(t, srv, http.MethodPost, "/api/leave-requests/nope/decision", DecisionRequest{Action: "approve"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/leave-requests/nope/decision", DecisionRequest{Action: "cancel"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/leave-requests/nope/decision", "[]")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecision_LongRemarksNameTheField(t *testing.T) {
	srv, _ := newTestServer(t, RouterOptions{})
	created := decode[LeaveRequestDTO](t, submit(t, srv, "emp-1", SubmitLeaveRequest{
		FromDate: "2025-01-15", ToDate: "2025-01-17", LeaveType: "EL", Reason: "Family function",
	}))
	path := "/api/leave-requests/" + created.ID + "/decision"

	rec := do(t, srv, http.MethodPost, path, DecisionRequest{Action: "approve", Remarks: strings.Repeat("x", 1001)})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "remarks must be at most 1000 characters", decode[ErrorResponse](t, rec).Error)

	rec = do(t, srv, http.MethodPost, path, DecisionRequest{Action: "cancel"})
	assert.Equal(t, leave.ErrInvalidAction.Error(), decode[ErrorResponse](t, rec).Error)

	rec = do(t, srv, http.MethodGet, "/api/leave-requests/"+created.ID, nil)
	assert.Equal(t, "pending", decode[LeaveRequestDTO](t, rec).Status)
}

// =============================================================================
// READS
// =============================================================================

func TestEmployeeHistory_NewestFirstWithSummary(t *testing.T) {
	srv, _ := newTestServer(t, RouterOptions{})
	for _, from := range []string{"2025-02-01", "2025-03-01"} {
		rec := submit(t, srv, "emp-1", SubmitLeaveRequest{
			FromDate: from, ToDate: from, LeaveType: "EL", Reason: "r",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := do(t, srv, http.MethodGet, "/api/employees/emp-1/leave-requests", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[HistoryResponse](t, rec)
	require.Len(t, resp.Requests, 2)
	assert.Equal(t, "2025-03-01", resp.Requests[0].FromDate)
	assert.Equal(t, 30, resp.Balances["EL"])
	assert.Len(t, resp.Summary, 8)
	assert.Equal(t, 2, resp.Summary[1].Pending)
}

func TestEmployeeHistory_UnknownEmployeeIsEmpty(t *testing.T) {
	srv, _ := newTestServer(t, RouterOptions{})

	rec := do(t, srv, http.MethodGet, "/api/employees/ghost/leave-requests", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"requests":[]`)
}

func TestAdminQueueAndStats(t *testing.T) {
	srv, _ := newTestServer(t, RouterOptions{})
	a := decode[LeaveRequestDTO](t, submit(t, srv, "emp-1", SubmitLeaveRequest{
		FromDate: "2025-01-15", ToDate: "2025-01-17", LeaveType: "EL", Reason: "r",
	}))
	submit(t, srv, "emp-2", SubmitLeaveRequest{
		FromDate: "2025-01-15", ToDate: "2025-01-16", LeaveType: "CL", Reason: "r",
	})
	do(t, srv, http.MethodPost, "/api/leave-requests/"+a.ID+"/decision", DecisionRequest{Action: "approve"})

	rec := do(t, srv, http.MethodGet, "/api/leave-requests?status=pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	queue := decode[ListResponse](t, rec)
	require.Len(t, queue.Requests, 1)
	assert.Equal(t, "emp-2", queue.Requests[0].EmployeeID)

	rec = do(t, srv, http.MethodGet, "/api/leave-requests", nil)
	assert.Len(t, decode[ListResponse](t, rec).Requests, 2)

	rec = do(t, srv, http.MethodGet, "/api/leave-requests?status=archived", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/leave-requests/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, leave.Stats{Total: 2, Pending: 1, Approved: 1}, decode[leave.Stats](t, rec))

	rec = do(t, srv, http.MethodGet, "/api/leave-requests/"+a.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "approved", decode[LeaveRequestDTO](t, rec).Status)

	rec = do(t, srv, http.MethodGet, "/api/leave-requests/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func TestRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, RouterOptions{RateLimitRPS: 1, RateLimitBurst: 2})

	codes := make([]int, 3)
	for i := range codes {
		codes[i] = do(t, srv, http.MethodGet, "/api/health", nil).Code
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
