/*
ledger.go - Per-employee leave ledger service

PURPOSE:
  The Ledger is the owned, injectable resource that holds every employee's
  request history. Callers (HTTP handlers, scenario loaders, tests) hold no
  business state themselves; they submit candidates and decisions here.

REQUEST FLOW:
  Submit:  lock(employee) -> load history -> balances -> validate -> append pending
  Decide:  get request -> lock(owner) -> conditional pending -> approved|rejected

CONCURRENCY:
  Mutations are serialized per employee, so two concurrent submissions
  cannot both pass a balance check that only one of them can satisfy.
  Different employees never contend. Decide additionally relies on the
  store's conditional update.

SEE ALSO:
  - validator.go: Eligibility rules
  - store.go:     Persistence contract
*/
package leave

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ledger serializes submissions and decisions per employee.
type Ledger struct {
	Store     Store
	Catalog   *Catalog
	Validator *Validator
	Clock     Clock

	// NewID assigns request ids; defaults to random UUIDs.
	NewID func() RequestID

	logger *zap.Logger

	mu    sync.Mutex
	locks map[EmployeeID]*sync.Mutex
}

// Option configures a Ledger.
type Option func(*Ledger)

func WithClock(c Clock) Option { return func(l *Ledger) { l.Clock = c } }

func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger.Named("leave.ledger")
		}
	}
}

func WithIDGenerator(fn func() RequestID) Option { return func(l *Ledger) { l.NewID = fn } }

// WithReservePending switches the balance check to reserve-on-submit.
func WithReservePending(reserve bool) Option {
	return func(l *Ledger) { l.Validator.ReservePending = reserve }
}

func NewLedger(store Store, catalog *Catalog, opts ...Option) *Ledger {
	l := &Ledger{
		Store:   store,
		Catalog: catalog,
		NewID:   func() RequestID { return RequestID(uuid.NewString()) },
		logger:  zap.L().Named("leave.ledger"),
		locks:   make(map[EmployeeID]*sync.Mutex),
	}
	l.Validator = NewValidator(catalog, nil)
	for _, opt := range opts {
		opt(l)
	}
	l.Validator.Clock = l.Clock
	return l
}

func (l *Ledger) lockFor(employeeID EmployeeID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[employeeID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[employeeID] = m
	}
	return m
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit validates the candidate against the employee's history and, when
// eligible, appends it as a pending request.
func (l *Ledger) Submit(ctx context.Context, employeeID EmployeeID, c Candidate) (LeaveRequest, error) {
	if strings.TrimSpace(string(employeeID)) == "" {
		return LeaveRequest{}, fmt.Errorf("employee id is required")
	}

	m := l.lockFor(employeeID)
	m.Lock()
	defer m.Unlock()

	history, err := l.Store.History(ctx, employeeID)
	if err != nil {
		l.logger.Error("submit load history failed", zap.String("employee_id", string(employeeID)), zap.Error(err))
		return LeaveRequest{}, fmt.Errorf("failed to load history: %w", err)
	}

	balances := ComputeBalances(l.Catalog, history)
	if err := l.Validator.Validate(c, history, balances); err != nil {
		l.logger.Info("submit rejected",
			zap.String("employee_id", string(employeeID)),
			zap.String("leave_type", c.LeaveType),
			zap.Error(err),
		)
		return LeaveRequest{}, err
	}

	r := LeaveRequest{
		ID:          l.NewID(),
		EmployeeID:  employeeID,
		FromDate:    c.FromDate,
		ToDate:      c.ToDate,
		LeaveType:   strings.TrimSpace(c.LeaveType),
		Reason:      strings.TrimSpace(c.Reason),
		Status:      StatusPending,
		AppliedDate: l.Clock.Today(),
	}
	if err := l.Store.Append(ctx, r); err != nil {
		l.logger.Error("submit persist failed", zap.String("request_id", string(r.ID)), zap.Error(err))
		return LeaveRequest{}, err
	}

	l.logger.Info("leave request submitted",
		zap.String("request_id", string(r.ID)),
		zap.String("employee_id", string(employeeID)),
		zap.String("leave_type", r.LeaveType),
		zap.Int("days", r.Days()),
	)
	return r, nil
}

// =============================================================================
// DECIDE
// =============================================================================

// Decide applies an administrator decision to a pending request. This is the
// only mutation of a request after creation.
func (l *Ledger) Decide(ctx context.Context, id RequestID, action Action, remarks string) (LeaveRequest, error) {
	if action != ActionApprove && action != ActionReject {
		return LeaveRequest{}, ErrInvalidAction
	}

	existing, err := l.Store.Get(ctx, id)
	if err != nil {
		return LeaveRequest{}, fmt.Errorf("failed to load request: %w", err)
	}
	if existing == nil {
		return LeaveRequest{}, ErrNotFound
	}

	m := l.lockFor(existing.EmployeeID)
	m.Lock()
	defer m.Unlock()

	updated, err := l.Store.Decide(ctx, id, action.Status(), strings.TrimSpace(remarks))
	if err != nil {
		l.logger.Info("decision refused",
			zap.String("request_id", string(id)),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		return LeaveRequest{}, err
	}

	l.logger.Info("leave request decided",
		zap.String("request_id", string(id)),
		zap.String("employee_id", string(updated.EmployeeID)),
		zap.String("status", string(updated.Status)),
	)
	return updated, nil
}

// =============================================================================
// READS
// =============================================================================

// EmployeeSummary is the employee dashboard view.
type EmployeeSummary struct {
	EmployeeID EmployeeID       `json:"employee_id"`
	Requests   []LeaveRequest   `json:"requests"`
	Balances   Balances         `json:"balances"`
	Summary    []BalanceSummary `json:"summary"`
}

func (l *Ledger) History(ctx context.Context, employeeID EmployeeID) ([]LeaveRequest, error) {
	return l.Store.History(ctx, employeeID)
}

func (l *Ledger) Balances(ctx context.Context, employeeID EmployeeID) (Balances, error) {
	history, err := l.Store.History(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return ComputeBalances(l.Catalog, history), nil
}

// Summary returns history, balances and the per-type breakdown from a
// single read of the history.
func (l *Ledger) Summary(ctx context.Context, employeeID EmployeeID) (EmployeeSummary, error) {
	history, err := l.Store.History(ctx, employeeID)
	if err != nil {
		return EmployeeSummary{}, err
	}
	if history == nil {
		history = []LeaveRequest{}
	}
	return EmployeeSummary{
		EmployeeID: employeeID,
		Requests:   history,
		Balances:   ComputeBalances(l.Catalog, history),
		Summary:    Summarize(l.Catalog, history),
	}, nil
}

// Get returns a request or ErrNotFound.
func (l *Ledger) Get(ctx context.Context, id RequestID) (LeaveRequest, error) {
	r, err := l.Store.Get(ctx, id)
	if err != nil {
		return LeaveRequest{}, err
	}
	if r == nil {
		return LeaveRequest{}, ErrNotFound
	}
	return *r, nil
}

func (l *Ledger) List(ctx context.Context, filter ListFilter) ([]LeaveRequest, error) {
	return l.Store.List(ctx, filter)
}

func (l *Ledger) Stats(ctx context.Context) (Stats, error) {
	all, err := l.Store.List(ctx, ListFilter{})
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(all), nil
}

// =============================================================================
// IMPORT - Administrative load of historical records
// =============================================================================

// Import appends already-decided or historical requests without the
// eligibility checks (past dates and overdrawn balances are accepted).
// Structural invariants still hold: known type, ordered range, reason and
// a valid status. Requests are appended in slice order, so the last one
// becomes the newest entry of its employee's history.
func (l *Ledger) Import(ctx context.Context, requests ...LeaveRequest) ([]LeaveRequest, error) {
	imported := make([]LeaveRequest, 0, len(requests))
	for _, r := range requests {
		if r.ID == "" {
			r.ID = l.NewID()
		}
		if r.Status == "" {
			r.Status = StatusPending
		}
		if r.AppliedDate.IsZero() {
			r.AppliedDate = l.Clock.Today()
		}
		if err := l.checkImport(r); err != nil {
			return imported, fmt.Errorf("import %s: %w", r.ID, err)
		}

		m := l.lockFor(r.EmployeeID)
		m.Lock()
		err := l.Store.Append(ctx, r)
		m.Unlock()
		if err != nil {
			return imported, fmt.Errorf("import %s: %w", r.ID, err)
		}
		imported = append(imported, r)
	}

	l.logger.Info("leave requests imported", zap.Int("count", len(imported)))
	return imported, nil
}

func (l *Ledger) checkImport(r LeaveRequest) error {
	switch {
	case r.EmployeeID == "":
		return fmt.Errorf("employee id is required")
	case r.FromDate.IsZero() || r.ToDate.IsZero():
		return fmt.Errorf("from and to dates are required")
	case r.ToDate.Before(r.FromDate):
		return fmt.Errorf("to date %s is before from date %s", r.ToDate, r.FromDate)
	case strings.TrimSpace(r.Reason) == "":
		return fmt.Errorf("reason is required")
	case !r.Status.Valid():
		return fmt.Errorf("invalid status %q", r.Status)
	case r.Status == StatusPending && r.AdminRemarks != "":
		return fmt.Errorf("pending request %s cannot carry admin remarks", r.ID)
	}
	if _, err := l.Catalog.Lookup(r.LeaveType); err != nil {
		return err
	}
	return nil
}
