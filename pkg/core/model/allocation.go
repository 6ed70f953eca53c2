package model

import (
	"errors"
	"fmt"
	"time"
)

type AllocationStatus string

const (
	StatusPending   AllocationStatus = "pending"
	StatusActive    AllocationStatus = "active"
	StatusCompleted AllocationStatus = "completed"
	StatusCancelled AllocationStatus = "cancelled"
)

// ErrInvalidTransition is returned when an allocation status change is not allowed
var ErrInvalidTransition = errors.New("invalid allocation status transition")

func (s AllocationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsHolding returns true for statuses that occupy a seat
func (s AllocationStatus) IsHolding() bool {
	return s == StatusPending || s == StatusActive
}

// CanTransition reports whether moving from s to next is allowed:
// pending -> active -> completed, and pending/active -> cancelled
func (s AllocationStatus) CanTransition(next AllocationStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusActive || next == StatusCancelled
	case StatusActive:
		return next == StatusCompleted || next == StatusCancelled
	}
	return false
}

// Allocation is a committed (employee, seat) pairing
type Allocation struct {
	ID         string
	EmployeeID string
	ResourceID string
	SeatID     string
	Score      float64
	Status     AllocationStatus
	// From and To bound the period the allocation covers; a zero To is open ended
	From      time.Time
	To        time.Time
	CreatedAt time.Time
}

// Transition moves the allocation to next or returns ErrInvalidTransition
func (a *Allocation) Transition(next AllocationStatus) error {
	if !a.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, next)
	}
	a.Status = next
	return nil
}

// Overlaps reports whether the allocation's date range intersects [from, to].
// Zero bounds are unbounded.
func (a *Allocation) Overlaps(from, to time.Time) bool {
	if !to.IsZero() && !a.From.IsZero() && a.From.After(to) {
		return false
	}
	if !from.IsZero() && !a.To.IsZero() && a.To.Before(from) {
		return false
	}
	return true
}
