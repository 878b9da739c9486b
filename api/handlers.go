/*
handlers.go - HTTP API handlers for the leave ledger

PURPOSE:
  Exposes the leave engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates every rule to leave.Ledger.

ENDPOINTS:
  Catalog:
    GET    /api/leave-types                            Leave type catalog

  Employees:
    POST   /api/employees/{employeeID}/leave-requests  Submit application
    GET    /api/employees/{employeeID}/leave-requests  History + balances
    GET    /api/employees/{employeeID}/balances        Balances only

  Admin:
    GET    /api/leave-requests?status=pending          Queue across employees
    GET    /api/leave-requests/stats                   Counts per status
    GET    /api/leave-requests/{id}                    Single request
    POST   /api/leave-requests/{id}/decision           Approve or reject

  Scenarios:
    GET    /api/scenarios              List demo scenarios
    POST   /api/scenarios/load         Load a demo scenario

REQUEST FLOW:
  1. Parse HTTP request
  2. Convert to engine types (dates, action)
  3. Call the ledger
  4. Serialize response
  5. Map errors

ERROR HANDLING:
  - 400: Malformed body, unparsable date, invalid action or status filter
  - 404: Request not found
  - 409: Already decided, duplicate id
  - 422: Submission rejected; every violation is listed
  - 500: Storage failures

SECURITY NOTE:
  No authentication. The employee id in the path is trusted as-is.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/warp/leave-engine/leave"
	"go.uber.org/zap"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger *leave.Ledger

	logger   *zap.Logger
	validate *validator.Validate
}

// NewHandler creates a new handler around the ledger.
func NewHandler(ledger *leave.Ledger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.L()
	}
	return &Handler{
		Ledger:   ledger,
		logger:   logger.Named("api"),
		validate: validator.New(),
	}
}

// Health reports liveness.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// ListLeaveTypes returns the catalog in configuration order.
// GET /api/leave-types
func (h *Handler) ListLeaveTypes(w http.ResponseWriter, r *http.Request) {
	types := h.Ledger.Catalog.All()
	dtos := make([]LeaveTypeDTO, len(types))
	for i, t := range types {
		dtos[i] = toLeaveTypeDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// SubmitLeaveRequest validates and records a new application.
// POST /api/employees/{employeeID}/leave-requests
func (h *Handler) SubmitLeaveRequest(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := employeeParam(w, r)
	if !ok {
		return
	}

	var req SubmitLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	from, err := leave.ParseDate(req.FromDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from_date", err)
		return
	}
	to, err := leave.ParseDate(req.ToDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to_date", err)
		return
	}

	created, err := h.Ledger.Submit(r.Context(), employeeID, leave.Candidate{
		FromDate:  from,
		ToDate:    to,
		LeaveType: req.LeaveType,
		Reason:    req.Reason,
	})
	if err != nil {
		h.writeLedgerError(w, "Failed to submit leave request", err)
		return
	}

	writeJSON(w, http.StatusCreated, toLeaveRequestDTO(h.Ledger.Catalog, created))
}

// GetEmployeeLeave returns history (newest first) with balances.
// GET /api/employees/{employeeID}/leave-requests
func (h *Handler) GetEmployeeLeave(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := employeeParam(w, r)
	if !ok {
		return
	}

	summary, err := h.Ledger.Summary(r.Context(), employeeID)
	if err != nil {
		h.writeLedgerError(w, "Failed to load leave history", err)
		return
	}

	writeJSON(w, http.StatusOK, HistoryResponse{
		EmployeeID: string(employeeID),
		Requests:   toLeaveRequestDTOs(h.Ledger.Catalog, summary.Requests),
		Balances:   summary.Balances,
		Summary:    summary.Summary,
	})
}

// GetBalances returns the remaining days per leave type.
// GET /api/employees/{employeeID}/balances
func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := employeeParam(w, r)
	if !ok {
		return
	}

	summary, err := h.Ledger.Summary(r.Context(), employeeID)
	if err != nil {
		h.writeLedgerError(w, "Failed to compute balances", err)
		return
	}

	writeJSON(w, http.StatusOK, BalancesResponse{
		EmployeeID: string(employeeID),
		Balances:   summary.Balances,
		Summary:    summary.Summary,
	})
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ListLeaveRequests returns requests across employees, newest first.
// GET /api/leave-requests?status=pending&employee_id=...
func (h *Handler) ListLeaveRequests(w http.ResponseWriter, r *http.Request) {
	filter := leave.ListFilter{
		EmployeeID: leave.EmployeeID(r.URL.Query().Get("employee_id")),
	}
	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = leave.Status(strings.ToLower(s))
		if !filter.Status.Valid() {
			writeError(w, http.StatusBadRequest, "Invalid status filter", nil)
			return
		}
	}

	requests, err := h.Ledger.List(r.Context(), filter)
	if err != nil {
		h.writeLedgerError(w, "Failed to list leave requests", err)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Requests: toLeaveRequestDTOs(h.Ledger.Catalog, requests),
	})
}

// GetStats returns request counts per status.
// GET /api/leave-requests/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Ledger.Stats(r.Context())
	if err != nil {
		h.writeLedgerError(w, "Failed to compute stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetLeaveRequest returns one request.
// GET /api/leave-requests/{id}
func (h *Handler) GetLeaveRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))

	req, err := h.Ledger.Get(r.Context(), id)
	if err != nil {
		h.writeLedgerError(w, "Failed to load leave request", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(h.Ledger.Catalog, req))
}

// decisionFieldMessage names the DecisionRequest field that failed validation.
func decisionFieldMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 && fieldErrs[0].Field() == "Remarks" {
		return fmt.Sprintf("remarks must be at most %s characters", fieldErrs[0].Param())
	}
	return leave.ErrInvalidAction.Error()
}

// DecideLeaveRequest approves or rejects a pending request.
// POST /api/leave-requests/{id}/decision
func (h *Handler) DecideLeaveRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.Action = strings.ToLower(strings.TrimSpace(req.Action))
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, decisionFieldMessage(err), nil)
		return
	}

	action, err := leave.ParseAction(req.Action)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	decided, err := h.Ledger.Decide(r.Context(), id, action, req.Remarks)
	if err != nil {
		h.writeLedgerError(w, "Failed to decide leave request", err)
		return
	}

	writeJSON(w, http.StatusOK, toLeaveRequestDTO(h.Ledger.Catalog, decided))
}

// =============================================================================
// HELPERS
// =============================================================================

func employeeParam(w http.ResponseWriter, r *http.Request) (leave.EmployeeID, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "employeeID"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "employee id is required", nil)
		return "", false
	}
	return leave.EmployeeID(id), true
}

// writeLedgerError maps engine errors to HTTP statuses.
func (h *Handler) writeLedgerError(w http.ResponseWriter, message string, err error) {
	var verr *leave.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
			Error:      verr.Error(),
			Code:       "validation_failed",
			Kinds:      verr.Kinds(),
			Violations: verr.Violations,
		})
	case leave.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Leave request not found", err)
	case errors.Is(err, leave.ErrAlreadyDecided):
		writeErrorCode(w, http.StatusConflict, "Leave request already decided", "already_decided", err)
	case errors.Is(err, leave.ErrDuplicateRequest):
		writeErrorCode(w, http.StatusConflict, "Duplicate leave request", "duplicate_request", err)
	case leave.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.logger.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	writeErrorCode(w, status, message, "", err)
}

func writeErrorCode(w http.ResponseWriter, status int, message, code string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
