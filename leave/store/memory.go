// Package store provides Store implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	requests []leave.LeaveRequest // append order, oldest first
	index    map[leave.RequestID]int
}

var _ leave.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{index: make(map[leave.RequestID]int)}
}

// Append adds a request. Append-only.
func (m *Memory) Append(_ context.Context, r leave.LeaveRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.index[r.ID]; exists {
		return leave.ErrDuplicateRequest
	}
	m.index[r.ID] = len(m.requests)
	m.requests = append(m.requests, r)
	return nil
}

func (m *Memory) Get(_ context.Context, id leave.RequestID) (*leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.index[id]
	if !ok {
		return nil, nil
	}
	r := m.requests[i]
	return &r, nil
}

func (m *Memory) History(ctx context.Context, employeeID leave.EmployeeID) ([]leave.LeaveRequest, error) {
	return m.List(ctx, leave.ListFilter{EmployeeID: employeeID})
}

// List walks newest to oldest and copies matches out.
func (m *Memory) List(_ context.Context, filter leave.ListFilter) ([]leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []leave.LeaveRequest
	for i := len(m.requests) - 1; i >= 0; i-- {
		if filter.Match(m.requests[i]) {
			result = append(result, m.requests[i])
		}
	}
	return result, nil
}

// Decide is a compare-and-set on the pending status.
func (m *Memory) Decide(_ context.Context, id leave.RequestID, status leave.Status, remarks string) (leave.LeaveRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[id]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrNotFound
	}
	if m.requests[i].Status != leave.StatusPending {
		return leave.LeaveRequest{}, leave.ErrAlreadyDecided
	}
	m.requests[i].Status = status
	m.requests[i].AdminRemarks = remarks
	return m.requests[i], nil
}

// Len returns the number of stored requests.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}
