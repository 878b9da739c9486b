/*
dto.go - Data Transfer Objects for API requests and responses

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Leave submissions are validated by the engine (all violations reported
  together, 422). Decision bodies are checked with struct tags.
*/
package api

import (
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// LEAVE TYPES
// =============================================================================

// LeaveTypeDTO represents a catalog entry in API responses.
type LeaveTypeDTO struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
	AnnualLimit int    `json:"annual_limit"`
	Combinable  bool   `json:"combinable"`
	Notes       string `json:"notes,omitempty"`
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

// SubmitLeaveRequest is the body of POST /employees/{id}/leave-requests.
// Dates are YYYY-MM-DD; empty strings are reported as missing fields.
type SubmitLeaveRequest struct {
	FromDate  string `json:"from_date"`
	ToDate    string `json:"to_date"`
	LeaveType string `json:"leave_type"`
	Reason    string `json:"reason"`
}

// DecisionRequest is the body of POST /leave-requests/{id}/decision.
type DecisionRequest struct {
	Action  string `json:"action" validate:"required,oneof=approve reject"`
	Remarks string `json:"remarks" validate:"max=1000"`
}

// LeaveRequestDTO represents a leave request in API responses.
type LeaveRequestDTO struct {
	ID            string `json:"id"`
	EmployeeID    string `json:"employee_id"`
	FromDate      string `json:"from_date"`
	ToDate        string `json:"to_date"`
	Days          int    `json:"days"`
	LeaveType     string `json:"leave_type"`
	LeaveTypeName string `json:"leave_type_name"`
	Reason        string `json:"reason"`
	Status        string `json:"status"`
	AppliedDate   string `json:"applied_date"`
	AdminRemarks  string `json:"admin_remarks,omitempty"`
}

// HistoryResponse is the employee dashboard: history plus balances.
type HistoryResponse struct {
	EmployeeID string                 `json:"employee_id"`
	Requests   []LeaveRequestDTO      `json:"requests"`
	Balances   leave.Balances         `json:"balances"`
	Summary    []leave.BalanceSummary `json:"summary"`
}

// BalancesResponse is GET /employees/{id}/balances.
type BalancesResponse struct {
	EmployeeID string                 `json:"employee_id"`
	Balances   leave.Balances         `json:"balances"`
	Summary    []leave.BalanceSummary `json:"summary"`
}

// ListResponse is the admin queue.
type ListResponse struct {
	Requests []LeaveRequestDTO `json:"requests"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	EmployeeID  string `json:"employee_id"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// ValidationErrorResponse is returned with 422 when a submission is rejected.
type ValidationErrorResponse struct {
	Error      string            `json:"error"`
	Code       string            `json:"code"`
	Kinds      []leave.ErrorKind `json:"kinds"`
	Violations []leave.Violation `json:"violations"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toLeaveTypeDTO(t leave.LeaveType) LeaveTypeDTO {
	return LeaveTypeDTO{
		Code:        t.Code,
		DisplayName: t.DisplayName,
		AnnualLimit: t.AnnualLimit,
		Combinable:  t.Combinable,
		Notes:       t.Notes,
	}
}

// toLeaveRequestDTO resolves the display name through MustLookup: every
// stored request passed catalog validation on its way in.
func toLeaveRequestDTO(catalog *leave.Catalog, r leave.LeaveRequest) LeaveRequestDTO {
	return LeaveRequestDTO{
		ID:            string(r.ID),
		EmployeeID:    string(r.EmployeeID),
		FromDate:      r.FromDate.String(),
		ToDate:        r.ToDate.String(),
		Days:          r.Days(),
		LeaveType:     r.LeaveType,
		LeaveTypeName: catalog.MustLookup(r.LeaveType).DisplayName,
		Reason:        r.Reason,
		Status:        string(r.Status),
		AppliedDate:   r.AppliedDate.String(),
		AdminRemarks:  r.AdminRemarks,
	}
}

func toLeaveRequestDTOs(catalog *leave.Catalog, rs []leave.LeaveRequest) []LeaveRequestDTO {
	dtos := make([]LeaveRequestDTO, len(rs))
	for i, r := range rs {
		dtos[i] = toLeaveRequestDTO(catalog, r)
	}
	return dtos
}
