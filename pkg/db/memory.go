package db

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/jakechorley/seatplanner/pkg/core/model"
)

// MemoryStore is an in-process Store used by tests, dry runs and the YAML
// roster workflow.
//
// Exclusive transactions hold the write lock throughout. Shared transactions
// work on a private copy under the read lock and commit only if no other
// transaction committed in the meantime; otherwise they fail with a
// *ConcurrentMutationError.
type MemoryStore struct {
	mu      sync.RWMutex
	state   *memoryState
	version uint64
	now     func() time.Time
}

type memoryState struct {
	employees   []model.Employee
	resources   []model.Resource
	seats       []model.Seat
	allocations []model.Allocation
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memoryState{},
		now:   time.Now,
	}
}

func (s *MemoryStore) Close() {}

func (s *MemoryStore) InTx(ctx context.Context, mode LockMode, fn func(tx Tx) error) error {
	if mode == LockExclusive {
		s.mu.Lock()
		defer s.mu.Unlock()

		staged := &memoryTx{state: s.state.clone(), now: s.now}
		if err := fn(staged); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		s.state = staged.state
		s.version++
		return nil
	}

	s.mu.RLock()
	version := s.version
	staged := &memoryTx{state: s.state.clone(), now: s.now}
	s.mu.RUnlock()

	if err := fn(staged); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !staged.dirty {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != version {
		return &ConcurrentMutationError{Entity: "store", ID: "memory", Detail: "another transaction committed first"}
	}
	s.state = staged.state
	s.version++
	return nil
}

func (st *memoryState) clone() *memoryState {
	out := &memoryState{
		employees:   make([]model.Employee, len(st.employees)),
		resources:   make([]model.Resource, len(st.resources)),
		seats:       slices.Clone(st.seats),
		allocations: slices.Clone(st.allocations),
	}
	for i, e := range st.employees {
		e.PreferredColleagues = slices.Clone(e.PreferredColleagues)
		e.Constraints = slices.Clone(e.Constraints)
		out.employees[i] = e
	}
	for i, r := range st.resources {
		r.Features = slices.Clone(r.Features)
		out.resources[i] = r
	}
	return out
}

// memoryTx operates on a staged copy of the store state
type memoryTx struct {
	state *memoryState
	dirty bool
	now   func() time.Time
}

func (tx *memoryTx) GetEmployees(ctx context.Context) ([]model.Employee, error) {
	return slices.Clone(tx.state.employees), nil
}

func (tx *memoryTx) GetResources(ctx context.Context) ([]model.Resource, error) {
	return slices.Clone(tx.state.resources), nil
}

func (tx *memoryTx) GetSeats(ctx context.Context) ([]model.Seat, error) {
	return slices.Clone(tx.state.seats), nil
}

func (tx *memoryTx) UpsertEmployees(ctx context.Context, employees []model.Employee) error {
	for _, e := range employees {
		i := slices.IndexFunc(tx.state.employees, func(x model.Employee) bool { return x.ID == e.ID })
		if i >= 0 {
			tx.state.employees[i] = e
		} else {
			tx.state.employees = append(tx.state.employees, e)
		}
	}
	tx.dirty = true
	return nil
}

func (tx *memoryTx) UpsertResources(ctx context.Context, resources []model.Resource) error {
	for _, r := range resources {
		i := slices.IndexFunc(tx.state.resources, func(x model.Resource) bool { return x.ID == r.ID })
		if i >= 0 {
			tx.state.resources[i] = r
		} else {
			tx.state.resources = append(tx.state.resources, r)
		}
	}
	tx.dirty = true
	return nil
}

// UpsertSeats keeps the occupant of existing seats; occupancy is owned by allocations
func (tx *memoryTx) UpsertSeats(ctx context.Context, seats []model.Seat) error {
	for _, seat := range seats {
		i := tx.seatIndex(seat.ID)
		if i >= 0 {
			seat.OccupantID = tx.state.seats[i].OccupantID
			tx.state.seats[i] = seat
		} else {
			tx.state.seats = append(tx.state.seats, seat)
		}
	}
	tx.dirty = true
	return nil
}

func (tx *memoryTx) GetAllocations(ctx context.Context) ([]model.Allocation, error) {
	return slices.Clone(tx.state.allocations), nil
}

func (tx *memoryTx) GetAllocation(ctx context.Context, id string) (model.Allocation, error) {
	i := tx.allocationIndex(id)
	if i < 0 {
		return model.Allocation{}, NotFound("allocation", id)
	}
	return tx.state.allocations[i], nil
}

func (tx *memoryTx) LockSeat(ctx context.Context, seatID string) (model.Seat, error) {
	i := tx.seatIndex(seatID)
	if i < 0 {
		return model.Seat{}, NotFound("seat", seatID)
	}
	return tx.state.seats[i], nil
}

func (tx *memoryTx) InsertAllocations(ctx context.Context, allocations []model.Allocation) error {
	for _, a := range allocations {
		if tx.allocationIndex(a.ID) >= 0 {
			return &ConcurrentMutationError{Entity: "allocation", ID: a.ID, Detail: "already exists"}
		}
		seatIndex := tx.seatIndex(a.SeatID)
		if seatIndex < 0 {
			return NotFound("seat", a.SeatID)
		}

		if a.Status.IsHolding() {
			seat := &tx.state.seats[seatIndex]
			if seat.OccupantID != "" {
				return &ConcurrentMutationError{Entity: "seat", ID: seat.ID, Detail: "already held by " + seat.OccupantID}
			}
			for _, existing := range tx.state.allocations {
				if existing.EmployeeID == a.EmployeeID && existing.Status.IsHolding() {
					return &ConcurrentMutationError{Entity: "employee", ID: a.EmployeeID, Detail: "already holds seat " + existing.SeatID}
				}
			}
			seat.OccupantID = a.EmployeeID
		}

		if a.CreatedAt.IsZero() {
			a.CreatedAt = tx.now().UTC()
		}
		tx.state.allocations = append(tx.state.allocations, a)
	}
	tx.dirty = true
	return nil
}

func (tx *memoryTx) UpdateAllocationStatus(ctx context.Context, id string, from, to model.AllocationStatus) error {
	i := tx.allocationIndex(id)
	if i < 0 {
		return NotFound("allocation", id)
	}
	a := &tx.state.allocations[i]
	if a.Status != from {
		return &ConcurrentMutationError{Entity: "allocation", ID: id, Detail: "status is now " + string(a.Status)}
	}

	a.Status = to
	if from.IsHolding() && !to.IsHolding() {
		if j := tx.seatIndex(a.SeatID); j >= 0 && tx.state.seats[j].OccupantID == a.EmployeeID {
			tx.state.seats[j].OccupantID = ""
		}
	}
	tx.dirty = true
	return nil
}

func (tx *memoryTx) seatIndex(id string) int {
	return slices.IndexFunc(tx.state.seats, func(s model.Seat) bool { return s.ID == id })
}

func (tx *memoryTx) allocationIndex(id string) int {
	return slices.IndexFunc(tx.state.allocations, func(a model.Allocation) bool { return a.ID == id })
}
