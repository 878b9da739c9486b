package leave

import "strings"

// =============================================================================
// VALIDATOR - Eligibility checks for a new submission
// =============================================================================

// Validator checks a Candidate against the catalog and the employee's
// history. Every check runs; all violations are reported together.
type Validator struct {
	Catalog *Catalog
	Clock   Clock

	// ReservePending subtracts days held by other pending requests of the
	// same type from the available balance (reserve-on-submit). When false,
	// only approved requests count (reserve-on-approve).
	ReservePending bool
}

func NewValidator(catalog *Catalog, clock Clock) *Validator {
	return &Validator{Catalog: catalog, Clock: clock}
}

// Validate returns nil when the candidate may be admitted, otherwise a
// *ValidationError. balances must be computed over history, which must not
// contain the candidate.
func (v *Validator) Validate(c Candidate, history []LeaveRequest, balances Balances) error {
	var violations []Violation

	// 1. Required fields
	if c.FromDate.IsZero() {
		violations = append(violations, MissingField(FieldFromDate))
	}
	if c.ToDate.IsZero() {
		violations = append(violations, MissingField(FieldToDate))
	}
	if strings.TrimSpace(c.LeaveType) == "" {
		violations = append(violations, MissingField(FieldLeaveType))
	}
	if strings.TrimSpace(c.Reason) == "" {
		violations = append(violations, MissingField(FieldReason))
	}

	// 2. Past date
	if !c.FromDate.IsZero() && c.FromDate.Before(v.Clock.Today()) {
		violations = append(violations, Violation{Kind: KindPastDate})
	}

	// 3. Range
	rangeOK := !c.FromDate.IsZero() && !c.ToDate.IsZero()
	if rangeOK && c.FromDate.After(c.ToDate) {
		violations = append(violations, Violation{Kind: KindInvalidRange})
		rangeOK = false
	}

	// 4. Catalog membership
	var (
		leaveType LeaveType
		typeOK    bool
	)
	if code := strings.TrimSpace(c.LeaveType); code != "" {
		t, err := v.Catalog.Lookup(code)
		if err != nil {
			violations = append(violations, Violation{Kind: KindUnknownLeaveType})
		} else {
			leaveType, typeOK = t, true
		}
	}

	if typeOK && rangeOK {
		// 5. Balance
		requested := c.Days()
		available := v.available(leaveType.Code, history, balances)
		if requested > available {
			violations = append(violations, InsufficientBalance(available, requested))
		}

		// 6. Non-combinable overlap, against requests of any type
		if !leaveType.Combinable && overlapsActive(history, c.FromDate, c.ToDate) {
			violations = append(violations, Violation{Kind: KindNonCombinableOverlap})
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func (v *Validator) available(code string, history []LeaveRequest, balances Balances) int {
	available, ok := balances[code]
	if !ok {
		available = ComputeBalances(v.Catalog, history)[code]
	}
	if v.ReservePending {
		for _, r := range history {
			if r.Status == StatusPending && r.LeaveType == code {
				available -= r.Days()
			}
		}
	}
	return available
}

func overlapsActive(history []LeaveRequest, from, to Date) bool {
	for _, r := range history {
		if r.Status != StatusRejected && r.Overlaps(from, to) {
			return true
		}
	}
	return false
}
