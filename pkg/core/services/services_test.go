package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/seatplanner/pkg/core/allocator"
	"github.com/jakechorley/seatplanner/pkg/core/model"
	"github.com/jakechorley/seatplanner/pkg/db"
	"github.com/jakechorley/seatplanner/pkg/roster"
)

// testRoster has two tables in separate rooms. Only S3 is accessible.
func testRoster() *roster.Roster {
	return &roster.Roster{
		Employees: []model.Employee{
			{ID: "E1", Name: "Alice", Gender: model.GenderMale},
			{ID: "E2", Name: "Bea", Gender: model.GenderFemale, HealthAccommodation: true},
			{ID: "E3", Name: "Cal", Gender: model.GenderMale},
		},
		Resources: []model.Resource{
			{ID: "R1", RoomID: "room1", Name: "Long table", Capacity: 2},
			{ID: "R2", RoomID: "room2", Capacity: 1},
		},
		Seats: []model.Seat{
			{ID: "S1", ResourceID: "R1", Label: "R1 left"},
			{ID: "S2", ResourceID: "R1", Label: "R1 right"},
			{ID: "S3", ResourceID: "R2", Accessible: true},
		},
	}
}

func newTestStore(t *testing.T) *db.MemoryStore {
	t.Helper()
	store := db.NewMemoryStore()
	require.NoError(t, ImportRoster(context.Background(), store, zap.NewNop(), testRoster()))
	return store
}

func newTestEngine() *allocator.Engine {
	return allocator.NewEngine(allocator.DefaultConfig())
}

func storedAllocations(t *testing.T, store db.Store) []model.Allocation {
	t.Helper()
	var allocations []model.Allocation
	err := store.InTx(context.Background(), db.LockShared, func(tx db.Tx) error {
		var err error
		allocations, err = tx.GetAllocations(context.Background())
		return err
	})
	require.NoError(t, err)
	return allocations
}

func storedSeat(t *testing.T, store db.Store, seatID string) model.Seat {
	t.Helper()
	var seat model.Seat
	err := store.InTx(context.Background(), db.LockShared, func(tx db.Tx) error {
		var err error
		seat, err = tx.LockSeat(context.Background(), seatID)
		return err
	})
	require.NoError(t, err)
	return seat
}

func assign(t *testing.T, store db.Store, employeeID, seatID string) *AssignResult {
	t.Helper()
	result, err := AssignSeat(context.Background(), store, newTestEngine(), zap.NewNop(), AssignRequest{
		EmployeeID: employeeID,
		SeatID:     seatID,
	})
	require.NoError(t, err)
	return result
}
