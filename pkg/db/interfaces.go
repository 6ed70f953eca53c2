package db

import (
	"context"

	"github.com/jakechorley/seatplanner/pkg/core/model"
)

// LockMode selects how a transaction is serialised against others
type LockMode int

const (
	// LockShared is taken by manual single seat operations. They may run
	// side by side and must re-check seat occupancy before writing.
	LockShared LockMode = iota
	// LockExclusive is taken by batch runs. No other transaction runs
	// alongside it.
	LockExclusive
)

func (m LockMode) String() string {
	if m == LockExclusive {
		return "exclusive"
	}
	return "shared"
}

// Store opens transactions. Both MemoryStore and postgres.DB implement it.
type Store interface {
	// InTx runs fn in a transaction. The transaction commits if fn returns
	// nil and rolls back otherwise.
	InTx(ctx context.Context, mode LockMode, fn func(tx Tx) error) error
	Close()
}

// RosterStore holds employees, resources and seats
type RosterStore interface {
	GetEmployees(ctx context.Context) ([]model.Employee, error)
	GetResources(ctx context.Context) ([]model.Resource, error)
	GetSeats(ctx context.Context) ([]model.Seat, error)

	UpsertEmployees(ctx context.Context, employees []model.Employee) error
	UpsertResources(ctx context.Context, resources []model.Resource) error
	UpsertSeats(ctx context.Context, seats []model.Seat) error
}

// AllocationStore holds allocations and the seat occupancy they imply
type AllocationStore interface {
	GetAllocations(ctx context.Context) ([]model.Allocation, error)

	// GetAllocation returns ErrNotFound for an unknown id
	GetAllocation(ctx context.Context, id string) (model.Allocation, error)

	// LockSeat reads a seat and holds it until the transaction ends.
	// Returns ErrNotFound for an unknown id.
	LockSeat(ctx context.Context, seatID string) (model.Seat, error)

	// InsertAllocations stores allocations. Holding allocations mark their
	// seat occupied; a seat or employee that already holds one fails with a
	// *ConcurrentMutationError.
	InsertAllocations(ctx context.Context, allocations []model.Allocation) error

	// UpdateAllocationStatus moves an allocation from one status to another.
	// If the stored status is no longer from it fails with a
	// *ConcurrentMutationError. Leaving a holding status frees the seat.
	UpdateAllocationStatus(ctx context.Context, id string, from, to model.AllocationStatus) error
}

// Tx is the set of operations available inside a transaction
type Tx interface {
	RosterStore
	AllocationStore
}
