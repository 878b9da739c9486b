/*
store.go - Persistence interface for leave requests

APPEND-ONLY CONTRACT:
  - Append() is the only way a request enters the log
  - Decide() is the only mutation, and only from pending
  - NO Delete() method exists

  Decide must be conditional on the stored status (compare-and-set) so a
  second decision fails with ErrAlreadyDecided even if two processes race.

IMPLEMENTATIONS:
  - leave/store/memory.go:   In-memory for tests and development
  - store/sqlite/sqlite.go:  SQLite
*/
package leave

import "context"

type Store interface {
	// Append adds a new request. Fails with ErrDuplicateRequest on id clash.
	Append(ctx context.Context, r LeaveRequest) error

	// Get returns the request or nil when it does not exist.
	Get(ctx context.Context, id RequestID) (*LeaveRequest, error)

	// History returns one employee's requests, newest first.
	History(ctx context.Context, employeeID EmployeeID) ([]LeaveRequest, error)

	// List returns requests across employees, newest first.
	List(ctx context.Context, filter ListFilter) ([]LeaveRequest, error)

	// Decide moves a pending request to status and stores remarks.
	// Fails with ErrNotFound or ErrAlreadyDecided.
	Decide(ctx context.Context, id RequestID, status Status, remarks string) (LeaveRequest, error)
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	Status     Status
	EmployeeID EmployeeID
}

func (f ListFilter) Match(r LeaveRequest) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.EmployeeID != "" && r.EmployeeID != f.EmployeeID {
		return false
	}
	return true
}
