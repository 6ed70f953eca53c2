package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/seatplanner/pkg/core/model"
	"github.com/jakechorley/seatplanner/pkg/db"
)

func TestFreeSeat_CompletesActiveAllocation(t *testing.T) {
	store := newTestStore(t)
	assigned := assign(t, store, "E1", "S1")

	freed, err := FreeSeat(context.Background(), store, zap.NewNop(), "S1", "E1")
	require.NoError(t, err)

	assert.Equal(t, assigned.Allocation.ID, freed.ID)
	assert.Equal(t, model.StatusCompleted, freed.Status)
	assert.Empty(t, storedSeat(t, store, "S1").OccupantID)
}

func TestFreeSeat_CancelsPendingAllocation(t *testing.T) {
	store := newTestStore(t)
	_, err := AssignSeat(context.Background(), store, newTestEngine(), zap.NewNop(), AssignRequest{
		EmployeeID: "E1",
		SeatID:     "S1",
		Hold:       true,
	})
	require.NoError(t, err)

	freed, err := FreeSeat(context.Background(), store, zap.NewNop(), "S1", "")
	require.NoError(t, err)

	assert.Equal(t, model.StatusCancelled, freed.Status)
	assert.Empty(t, storedSeat(t, store, "S1").OccupantID)
}

func TestFreeSeat_EmptySeat(t *testing.T) {
	store := newTestStore(t)

	_, err := FreeSeat(context.Background(), store, zap.NewNop(), "S1", "")
	assert.ErrorIs(t, err, ErrSeatNotOccupied)
}

func TestFreeSeat_OccupantMismatch(t *testing.T) {
	store := newTestStore(t)
	assign(t, store, "E1", "S1")

	_, err := FreeSeat(context.Background(), store, zap.NewNop(), "S1", "E3")
	assert.ErrorIs(t, err, db.ErrConflict)
	assert.Equal(t, "E1", storedSeat(t, store, "S1").OccupantID)
}

func TestTransitionAllocation(t *testing.T) {
	store := newTestStore(t)
	held, err := AssignSeat(context.Background(), store, newTestEngine(), zap.NewNop(), AssignRequest{
		EmployeeID: "E1",
		SeatID:     "S1",
		Hold:       true,
	})
	require.NoError(t, err)
	id := held.Allocation.ID

	activated, err := TransitionAllocation(context.Background(), store, zap.NewNop(), id, model.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, activated.Status)
	assert.Equal(t, "E1", storedSeat(t, store, "S1").OccupantID, "active still holds the seat")

	completed, err := TransitionAllocation(context.Background(), store, zap.NewNop(), id, model.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, completed.Status)
	assert.Empty(t, storedSeat(t, store, "S1").OccupantID)

	_, err = TransitionAllocation(context.Background(), store, zap.NewNop(), id, model.StatusActive)
	assert.ErrorIs(t, err, model.ErrInvalidTransition, "completed is final")
}

func TestTransitionAllocation_Errors(t *testing.T) {
	store := newTestStore(t)

	_, err := TransitionAllocation(context.Background(), store, zap.NewNop(), "missing", model.StatusActive)
	assert.ErrorIs(t, err, db.ErrNotFound)

	_, err = TransitionAllocation(context.Background(), store, zap.NewNop(), "missing", model.AllocationStatus("archived"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown allocation status")
}

func TestListAllocations(t *testing.T) {
	store := newTestStore(t)
	assign(t, store, "E1", "S1")
	assign(t, store, "E2", "S3")
	_, err := FreeSeat(context.Background(), store, zap.NewNop(), "S1", "E1")
	require.NoError(t, err)

	all, err := ListAllocations(context.Background(), store, zap.NewNop(), false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	holding, err := ListAllocations(context.Background(), store, zap.NewNop(), true)
	require.NoError(t, err)
	require.Len(t, holding, 1)
	assert.Equal(t, "Bea", holding[0].EmployeeName)
	assert.Equal(t, "room2", holding[0].Room)
	assert.Equal(t, "S3", holding[0].SeatLabel, "unlabelled seats show their id")
}
