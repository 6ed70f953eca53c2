package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/seatplanner/pkg/core/model"
)

func seededStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	err := store.InTx(context.Background(), LockExclusive, func(tx Tx) error {
		if err := tx.UpsertEmployees(context.Background(), []model.Employee{{ID: "E1"}, {ID: "E2"}}); err != nil {
			return err
		}
		if err := tx.UpsertResources(context.Background(), []model.Resource{{ID: "R1", Capacity: 2}}); err != nil {
			return err
		}
		return tx.UpsertSeats(context.Background(), []model.Seat{
			{ID: "S1", ResourceID: "R1"},
			{ID: "S2", ResourceID: "R1"},
		})
	})
	require.NoError(t, err)
	return store
}

func TestMemoryStore_InsertMarksSeatOccupied(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)

	err := store.InTx(ctx, LockExclusive, func(tx Tx) error {
		return tx.InsertAllocations(ctx, []model.Allocation{
			{ID: "a1", EmployeeID: "E1", ResourceID: "R1", SeatID: "S1", Status: model.StatusPending},
		})
	})
	require.NoError(t, err)

	err = store.InTx(ctx, LockShared, func(tx Tx) error {
		seat, err := tx.LockSeat(ctx, "S1")
		require.NoError(t, err)
		assert.Equal(t, "E1", seat.OccupantID)

		a, err := tx.GetAllocation(ctx, "a1")
		require.NoError(t, err)
		assert.False(t, a.CreatedAt.IsZero())
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStore_RejectsDoubleHolding(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)

	insert := func(a model.Allocation) error {
		return store.InTx(ctx, LockShared, func(tx Tx) error {
			return tx.InsertAllocations(ctx, []model.Allocation{a})
		})
	}

	require.NoError(t, insert(model.Allocation{ID: "a1", EmployeeID: "E1", SeatID: "S1", Status: model.StatusActive}))

	err := insert(model.Allocation{ID: "a2", EmployeeID: "E2", SeatID: "S1", Status: model.StatusPending})
	assert.ErrorIs(t, err, ErrConflict, "seat already held")

	err = insert(model.Allocation{ID: "a3", EmployeeID: "E1", SeatID: "S2", Status: model.StatusPending})
	assert.ErrorIs(t, err, ErrConflict, "employee already holds a seat")

	// non-holding records do not occupy anything
	assert.NoError(t, insert(model.Allocation{ID: "a4", EmployeeID: "E2", SeatID: "S1", Status: model.StatusCancelled}))
}

func TestMemoryStore_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	boom := errors.New("boom")

	err := store.InTx(ctx, LockExclusive, func(tx Tx) error {
		require.NoError(t, tx.InsertAllocations(ctx, []model.Allocation{
			{ID: "a1", EmployeeID: "E1", SeatID: "S1", Status: model.StatusPending},
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = store.InTx(ctx, LockShared, func(tx Tx) error {
		allocations, err := tx.GetAllocations(ctx)
		require.NoError(t, err)
		assert.Empty(t, allocations)

		seat, err := tx.LockSeat(ctx, "S1")
		require.NoError(t, err)
		assert.Empty(t, seat.OccupantID)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStore_UpdateStatusFreesSeat(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)

	err := store.InTx(ctx, LockExclusive, func(tx Tx) error {
		if err := tx.InsertAllocations(ctx, []model.Allocation{
			{ID: "a1", EmployeeID: "E1", SeatID: "S1", Status: model.StatusActive},
		}); err != nil {
			return err
		}
		return tx.UpdateAllocationStatus(ctx, "a1", model.StatusActive, model.StatusCompleted)
	})
	require.NoError(t, err)

	err = store.InTx(ctx, LockShared, func(tx Tx) error {
		seat, err := tx.LockSeat(ctx, "S1")
		require.NoError(t, err)
		assert.Empty(t, seat.OccupantID)

		err = tx.UpdateAllocationStatus(ctx, "a1", model.StatusActive, model.StatusCancelled)
		assert.ErrorIs(t, err, ErrConflict, "status moved on")

		var conflict *ConcurrentMutationError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "allocation", conflict.Entity)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStore_SharedCommitConflict(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)

	err := store.InTx(ctx, LockShared, func(tx Tx) error {
		// another writer commits while this transaction is staged
		require.NoError(t, store.InTx(ctx, LockShared, func(other Tx) error {
			return other.InsertAllocations(ctx, []model.Allocation{
				{ID: "a1", EmployeeID: "E1", SeatID: "S1", Status: model.StatusPending},
			})
		}))
		return tx.InsertAllocations(ctx, []model.Allocation{
			{ID: "a2", EmployeeID: "E2", SeatID: "S1", Status: model.StatusPending},
		})
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)

	err := store.InTx(ctx, LockShared, func(tx Tx) error {
		_, err := tx.LockSeat(ctx, "missing")
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UpsertKeepsOccupant(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)

	err := store.InTx(ctx, LockExclusive, func(tx Tx) error {
		if err := tx.InsertAllocations(ctx, []model.Allocation{
			{ID: "a1", EmployeeID: "E1", SeatID: "S1", Status: model.StatusActive},
		}); err != nil {
			return err
		}
		return tx.UpsertSeats(ctx, []model.Seat{{ID: "S1", ResourceID: "R1", Accessible: true}})
	})
	require.NoError(t, err)

	err = store.InTx(ctx, LockShared, func(tx Tx) error {
		seats, err := tx.GetSeats(ctx)
		require.NoError(t, err)
		require.Len(t, seats, 2)
		assert.True(t, seats[0].Accessible)
		assert.Equal(t, "E1", seats[0].OccupantID)
		return nil
	})
	require.NoError(t, err)
}

func TestConstraintsRoundTrip(t *testing.T) {
	constraints := []model.CustomConstraint{
		{Severity: model.SeverityMust, Params: model.TeamProximity{ColleagueIDs: []string{"E2", "E3"}, MinPresent: 2}},
		{Severity: model.SeverityPrefer, Params: model.GenericCustom{Label: "quiet corner", AvoidEmployeeIDs: []string{"E9"}}},
		{Severity: model.SeverityMust, Params: model.WindowProximity{}},
	}

	data, err := EncodeConstraints(constraints)
	require.NoError(t, err)

	decoded, err := DecodeConstraints(data)
	require.NoError(t, err)
	assert.Equal(t, constraints, decoded)

	empty, err := DecodeConstraints(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
