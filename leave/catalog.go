package leave

import (
	"fmt"
	"strings"
)

// =============================================================================
// CATALOG - Fixed configuration, immutable after construction
// =============================================================================

// Catalog maps leave type codes to their definitions. Codes are a closed set:
// anything not configured is rejected as ErrUnknownLeaveType.
type Catalog struct {
	types map[string]LeaveType
	order []string
}

// NewCatalog validates and freezes the given leave types. Codes must be
// non-empty and unique; annual limits must be non-negative.
func NewCatalog(types ...LeaveType) (*Catalog, error) {
	c := &Catalog{types: make(map[string]LeaveType, len(types))}
	for _, t := range types {
		t.Code = strings.TrimSpace(t.Code)
		if t.Code == "" {
			return nil, fmt.Errorf("leave type code is required")
		}
		if _, dup := c.types[t.Code]; dup {
			return nil, fmt.Errorf("duplicate leave type code %q", t.Code)
		}
		if t.AnnualLimit < 0 {
			return nil, fmt.Errorf("leave type %q: annual limit must be >= 0, got %d", t.Code, t.AnnualLimit)
		}
		if t.DisplayName == "" {
			t.DisplayName = t.Code
		}
		c.types[t.Code] = t
		c.order = append(c.order, t.Code)
	}
	if len(c.order) == 0 {
		return nil, fmt.Errorf("catalog must define at least one leave type")
	}
	return c, nil
}

// Lookup returns the definition for code.
func (c *Catalog) Lookup(code string) (LeaveType, error) {
	t, ok := c.types[code]
	if !ok {
		return LeaveType{}, fmt.Errorf("%w: %q", ErrUnknownLeaveType, code)
	}
	return t, nil
}

// MustLookup is Lookup for codes the engine already admitted. A miss means
// stored data and configuration disagree, which is a defect, not user input.
func (c *Catalog) MustLookup(code string) LeaveType {
	t, err := c.Lookup(code)
	if err != nil {
		panic(fmt.Sprintf("leave: catalog invariant broken: %v", err))
	}
	return t
}

// Contains reports whether code is configured.
func (c *Catalog) Contains(code string) bool {
	_, ok := c.types[code]
	return ok
}

// Codes returns every code in configuration order.
func (c *Catalog) Codes() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// All returns every leave type in configuration order.
func (c *Catalog) All() []LeaveType {
	out := make([]LeaveType, len(c.order))
	for i, code := range c.order {
		out[i] = c.types[code]
	}
	return out
}
