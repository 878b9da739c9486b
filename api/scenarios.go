/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built leave histories that populate the ledger with the
	data the employee and admin dashboards were first demoed with.

AVAILABLE SCENARIOS:

	employee-dashboard: One approved EL and one pending CL
	admin-queue:        Two pending requests and one approved SCL

HOW SCENARIOS WORK:
 1. Each scenario owns a fixed employee id and fixed request ids
 2. Requests are imported oldest first, so history reads back newest first
 3. Import bypasses the submission checks (the dates are in the past)

	The request log is append-only, so scenarios are never reset. Loading a
	scenario twice answers 409 because its request ids already exist.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "admin-queue"}

SEE ALSO:
  - handlers.go: Handler and error mapping
  - leave/ledger.go: Import
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/warp/leave-engine/leave"
	"go.uber.org/zap"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "employee-dashboard",
		Name:        "Employee Dashboard",
		Description: "Approved earned leave plus a pending casual leave",
		EmployeeID:  "emp-demo",
	},
	{
		ID:          "admin-queue",
		Name:        "Admin Queue",
		Description: "Two pending applications and an approved special casual leave",
		EmployeeID:  "emp-admin-demo",
	},
}

// scenarioRequests returns the requests of a scenario, oldest first.
func scenarioRequests(id string) ([]leave.LeaveRequest, bool) {
	d := leave.MustParseDate

	switch id {
	case "employee-dashboard":
		emp := leave.EmployeeID("emp-demo")
		return []leave.LeaveRequest{
			{
				ID: "employee-dashboard-2", EmployeeID: emp,
				FromDate: d("2024-02-20"), ToDate: d("2024-02-22"),
				LeaveType: "CL", Reason: "Personal work",
				Status: leave.StatusPending, AppliedDate: d("2024-02-18"),
			},
			{
				ID: "employee-dashboard-1", EmployeeID: emp,
				FromDate: d("2024-01-15"), ToDate: d("2024-01-17"),
				LeaveType: "EL", Reason: "Family function",
				Status: leave.StatusApproved, AppliedDate: d("2024-01-10"),
				AdminRemarks: "Approved for family function",
			},
		}, true

	case "admin-queue":
		emp := leave.EmployeeID("emp-admin-demo")
		return []leave.LeaveRequest{
			{
				ID: "admin-queue-3", EmployeeID: emp,
				FromDate: d("2024-01-05"), ToDate: d("2024-01-07"),
				LeaveType: "SCL", Reason: "Examination",
				Status: leave.StatusApproved, AppliedDate: d("2024-01-01"),
				AdminRemarks: "Approved for examination purpose",
			},
			{
				ID: "admin-queue-2", EmployeeID: emp,
				FromDate: d("2024-02-20"), ToDate: d("2024-02-22"),
				LeaveType: "CL", Reason: "Personal work",
				Status: leave.StatusPending, AppliedDate: d("2024-02-18"),
			},
			{
				ID: "admin-queue-1", EmployeeID: emp,
				FromDate: d("2024-01-15"), ToDate: d("2024-01-17"),
				LeaveType: "EL", Reason: "Family function",
				Status: leave.StatusPending, AppliedDate: d("2024-01-10"),
			},
		}, true
	}
	return nil, false
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns all available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario imports a predefined scenario into the ledger.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "scenario_id is required", nil)
		return
	}

	requests, ok := scenarioRequests(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	imported, err := h.Ledger.Import(r.Context(), requests...)
	if err != nil {
		if errors.Is(err, leave.ErrDuplicateRequest) {
			writeError(w, http.StatusConflict, "Scenario already loaded", err)
			return
		}
		h.logger.Error("scenario load failed", zap.String("scenario_id", req.ScenarioID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.logger.Info("scenario loaded",
		zap.String("scenario_id", req.ScenarioID),
		zap.Int("requests", len(imported)),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "loaded",
		"scenario": req.ScenarioID,
		"requests": len(imported),
	})
}
