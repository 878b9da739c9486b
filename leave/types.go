/*
Package leave implements the leave ledger and eligibility engine.

PURPOSE:
  Employees apply for leave against per-type annual limits; administrators
  approve or reject the applications. This package owns the rules: the leave
  type catalog, balance computation, request validation and the one-way
  decision transition. It has no knowledge of HTTP or SQL.

KEY CONCEPTS IN THIS FILE (types.go):
  - LeaveType:    Catalog entry (code, annual limit, combinable flag)
  - LeaveRequest: One application in an employee's history
  - Status:       pending -> approved | rejected, never back
  - Candidate:    Unvalidated submission coming from a form or API body

BALANCE RULE:
  balance(type) = annualLimit(type) - sum(duration of APPROVED requests)
  Pending and rejected requests never reduce the balance.

SEE ALSO:
  - catalog.go:   Leave type catalog
  - balance.go:   Balance calculator
  - validator.go: Submission checks
  - ledger.go:    Owned, per-employee serialized service
*/
package leave

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type RequestID string

// =============================================================================
// LEAVE TYPE - Static catalog entry
// =============================================================================

type LeaveType struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
	AnnualLimit int    `json:"annual_limit"`
	// Combinable is false for casual-leave class types: they may not overlap
	// any other non-rejected request of the same employee.
	Combinable bool   `json:"combinable"`
	Notes      string `json:"notes,omitempty"`
}

// =============================================================================
// STATUS
// =============================================================================

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Action is an administrator decision on a pending request.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// ParseAction accepts "approve" or "reject".
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionApprove, ActionReject:
		return a, nil
	}
	return "", ErrInvalidAction
}

// Status returns the terminal status the action moves a request to.
func (a Action) Status() Status {
	if a == ActionApprove {
		return StatusApproved
	}
	return StatusRejected
}

// =============================================================================
// LEAVE REQUEST
// =============================================================================

type LeaveRequest struct {
	ID           RequestID  `json:"id"`
	EmployeeID   EmployeeID `json:"employee_id"`
	FromDate     Date       `json:"from_date"`
	ToDate       Date       `json:"to_date"`
	LeaveType    string     `json:"leave_type"`
	Reason       string     `json:"reason"`
	Status       Status     `json:"status"`
	AppliedDate  Date       `json:"applied_date"`
	AdminRemarks string     `json:"admin_remarks,omitempty"`
}

// Days is the inclusive duration of the request.
func (r LeaveRequest) Days() int {
	return Duration(r.FromDate, r.ToDate)
}

// Overlaps reports whether the request shares a day with [from, to].
func (r LeaveRequest) Overlaps(from, to Date) bool {
	return Overlaps(r.FromDate, r.ToDate, from, to)
}

// Candidate is a submission before validation. Zero values mean "absent".
type Candidate struct {
	FromDate  Date
	ToDate    Date
	LeaveType string
	Reason    string
}

// Days is the inclusive duration, or 0 when the range is incomplete or inverted.
func (c Candidate) Days() int {
	if c.FromDate.IsZero() || c.ToDate.IsZero() || c.FromDate.After(c.ToDate) {
		return 0
	}
	return Duration(c.FromDate, c.ToDate)
}
