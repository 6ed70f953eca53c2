package allocator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/jakechorley/seatplanner/pkg/core/model"
)

func TestNewSnapshot_ReportsEveryDanglingReference(t *testing.T) {
	input := SnapshotInput{
		Employees: []model.Employee{
			{ID: "E1", PreferredColleagues: []string{"ghost"}, Constraints: []model.CustomConstraint{
				must(model.FixedSeat{SeatID: "missing-seat"}),
			}},
		},
		Resources: []model.Resource{{ID: "R1"}},
		Seats: []model.Seat{
			{ID: "S1", ResourceID: "R1"},
			{ID: "S2", ResourceID: "nowhere"},
		},
	}

	_, err := NewSnapshot(input)
	require.Error(t, err)

	errs := multierr.Errors(err)
	require.Len(t, errs, 3)

	var ids []string
	for _, e := range errs {
		var inputErr *InputDataError
		require.ErrorAs(t, e, &inputErr)
		ids = append(ids, inputErr.ID)
	}
	assert.ElementsMatch(t, []string{"ghost", "missing-seat", "nowhere"}, ids)
}

func TestNewSnapshot_DuplicateIDs(t *testing.T) {
	_, err := NewSnapshot(SnapshotInput{
		Employees: []model.Employee{{ID: "E1"}, {ID: "E1"}},
	})
	var inputErr *InputDataError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "E1", inputErr.ID)
}

func TestNewSnapshot_InvalidSchedule(t *testing.T) {
	_, err := NewSnapshot(SnapshotInput{
		Employees: []model.Employee{{ID: "E1", Schedule: model.Schedule{WorkDays: "FREQ=SOMETIMES"}}},
	})
	var inputErr *InputDataError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "schedule", inputErr.Kind)
}

func TestNewSnapshot_ConflictingHoldings(t *testing.T) {
	_, err := NewSnapshot(SnapshotInput{
		Employees: []model.Employee{{ID: "E1"}, {ID: "E2"}},
		Resources: []model.Resource{{ID: "R1"}},
		Seats:     seatsFor("R1", 1, false),
		Allocations: []model.Allocation{
			{ID: "a1", EmployeeID: "E1", SeatID: "R1-1", Status: model.StatusActive},
			{ID: "a2", EmployeeID: "E2", SeatID: "R1-1", Status: model.StatusPending},
		},
	})
	require.Error(t, err)
}

func TestNewSnapshot_HoldingFilter(t *testing.T) {
	periodStart := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 0, 4)

	snap, err := NewSnapshot(SnapshotInput{
		Employees: []model.Employee{{ID: "E1"}, {ID: "E2"}, {ID: "E3"}, {ID: "E4"}},
		Resources: []model.Resource{{ID: "R1"}},
		Seats: []model.Seat{
			{ID: "S1", ResourceID: "R1"},
			{ID: "S2", ResourceID: "R1"},
			{ID: "S3", ResourceID: "R1"},
			{ID: "S4", ResourceID: "R1", OccupantID: "E4"},
		},
		Allocations: []model.Allocation{
			{ID: "held", EmployeeID: "E1", SeatID: "S1", Status: model.StatusActive},
			{ID: "done", EmployeeID: "E2", SeatID: "S2", Status: model.StatusCompleted},
			{ID: "past", EmployeeID: "E3", SeatID: "S3", Status: model.StatusPending,
				From: periodStart.AddDate(0, -1, 0), To: periodStart.AddDate(0, 0, -1)},
		},
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	})
	require.NoError(t, err)

	var held []string
	for _, a := range snap.Holding {
		held = append(held, a.EmployeeID)
	}
	assert.Equal(t, []string{"E1", "E4"}, held)
	assert.Equal(t, "R1", snap.Holding[0].ResourceID, "resource is filled in from the seat")
}

func TestNewSnapshot_ClonesInput(t *testing.T) {
	employees := []model.Employee{{ID: "E1", Team: "core"}}
	snap, err := NewSnapshot(SnapshotInput{Employees: employees})
	require.NoError(t, err)

	employees[0].Team = "changed"
	e, ok := snap.Employee("E1")
	require.True(t, ok)
	assert.Equal(t, "core", e.Team)
}

func TestSnapshot_Adjacency(t *testing.T) {
	snap, err := NewSnapshot(SnapshotInput{
		Resources: []model.Resource{
			{ID: "A", RoomID: "r1", X: 0, Y: 0},
			{ID: "B", RoomID: "r1", X: 1, Y: 1},
			{ID: "C", RoomID: "r1", X: 3, Y: 0},
			{ID: "D", RoomID: "r2", X: 0, Y: 0},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"B"}, snap.AdjacentResources("A"))
	assert.Empty(t, snap.AdjacentResources("C"))
	assert.Empty(t, snap.AdjacentResources("D"), "different rooms are never adjacent")
}

func TestSnapshot_Capacity(t *testing.T) {
	snap, err := NewSnapshot(SnapshotInput{
		Resources: []model.Resource{{ID: "R1", Capacity: 4}, {ID: "R2"}},
		Seats:     append(seatsFor("R1", 2, false), seatsFor("R2", 3, false)...),
	})
	require.NoError(t, err)

	assert.Equal(t, 4, snap.Capacity("R1"))
	assert.Equal(t, 3, snap.Capacity("R2"), "falls back to seat count")
}

func TestSnapshot_SchedulesOverlap(t *testing.T) {
	snap, err := NewSnapshot(SnapshotInput{
		Employees: []model.Employee{
			{ID: "monTue", Schedule: model.Schedule{WorkDays: "FREQ=WEEKLY;BYDAY=MO,TU"}},
			{ID: "wed", Schedule: model.Schedule{WorkDays: "FREQ=WEEKLY;BYDAY=WE"}},
			{ID: "tueMorning", Schedule: model.Schedule{WorkDays: "RRULE:FREQ=WEEKLY;BYDAY=TU", StartHour: 8, EndHour: 12}},
			{ID: "tueAfternoon", Schedule: model.Schedule{WorkDays: "FREQ=WEEKLY;BYDAY=TU", StartHour: 13, EndHour: 17}},
			{ID: "fortnightly", Schedule: model.Schedule{WorkDays: "FREQ=WEEKLY;INTERVAL=2;BYDAY=WE"}},
			{ID: "everyday"},
		},
	})
	require.NoError(t, err)

	assert.False(t, snap.SchedulesOverlap("monTue", "wed"))
	assert.True(t, snap.SchedulesOverlap("monTue", "tueMorning"))
	assert.False(t, snap.SchedulesOverlap("tueMorning", "tueAfternoon"))
	assert.True(t, snap.SchedulesOverlap("wed", "fortnightly"))
	assert.True(t, snap.SchedulesOverlap("everyday", "tueAfternoon"))
}

func TestSnapshot_ReferencedBy(t *testing.T) {
	snap, err := NewSnapshot(SnapshotInput{
		Employees: []model.Employee{
			{ID: "E1", PreferredColleagues: []string{"E3"}},
			{ID: "E2", Constraints: []model.CustomConstraint{prefer(model.GenericCustom{AvoidEmployeeIDs: []string{"E3"}})}},
			{ID: "E3"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"E1", "E2"}, snap.ReferencedBy("E3"))
	assert.Empty(t, snap.ReferencedBy("E1"))
}

func TestLayout_WithLeavesLayoutUntouched(t *testing.T) {
	snap, err := NewSnapshot(SnapshotInput{
		Employees: []model.Employee{{ID: "E1"}, {ID: "E2"}},
		Resources: []model.Resource{{ID: "R1"}, {ID: "R2"}},
		Seats:     append(seatsFor("R1", 1, false), seatsFor("R2", 1, false)...),
	})
	require.NoError(t, err)

	layout := NewLayout(snap)
	layout.Place("E1", "R1-1")
	layout.Place("E2", "R2-1")

	view := layout.With(move{employeeID: "E1", seatID: "R2-1"}, move{employeeID: "E2", seatID: "R1-1"})

	seat, _ := view.SeatOf("E1")
	assert.Equal(t, "R2-1", seat)
	assert.Equal(t, []string{"E2"}, view.OccupantsOf("R1"))

	seat, _ = layout.SeatOf("E1")
	assert.Equal(t, "R1-1", seat, "the layout itself is unchanged")
	assert.Equal(t, []string{"E1"}, layout.OccupantsOf("R1"))

	unseated := layout.With(move{employeeID: "E1"})
	_, ok := unseated.SeatOf("E1")
	assert.False(t, ok)
	assert.Empty(t, unseated.OccupantsOf("R1"))
}

func TestLayout_WithDisplacesStationaryOccupant(t *testing.T) {
	snap, err := NewSnapshot(SnapshotInput{
		Employees: []model.Employee{{ID: "E1"}, {ID: "E2"}},
		Resources: []model.Resource{{ID: "R1"}},
		Seats:     seatsFor("R1", 2, false),
	})
	require.NoError(t, err)

	layout := NewLayout(snap)
	layout.Place("E1", "R1-1")

	view := layout.With(move{employeeID: "E2", seatID: "R1-1"})

	occupant, ok := view.OccupantOf("R1-1")
	require.True(t, ok)
	assert.Equal(t, "E2", occupant)
	_, ok = view.SeatOf("E1")
	assert.False(t, ok, "E1 no longer holds the seat E2 moved into")
	assert.Equal(t, []string{"E2"}, view.OccupantsOf("R1"))

	seat, _ := layout.SeatOf("E1")
	assert.Equal(t, "R1-1", seat, "the layout itself is unchanged")
}

func TestLayout_FreeSeatsAndMovable(t *testing.T) {
	snap, err := NewSnapshot(SnapshotInput{
		Employees: []model.Employee{{ID: "E1"}, {ID: "E2"}},
		Resources: []model.Resource{{ID: "R1"}},
		Seats:     seatsFor("R1", 3, false),
		Allocations: []model.Allocation{
			{ID: "a1", EmployeeID: "E1", SeatID: "R1-2", Status: model.StatusActive},
		},
	})
	require.NoError(t, err)

	layout := NewLayout(snap)
	layout.Place("E2", "R1-3")

	assert.True(t, layout.IsFixed("E1"))
	assert.Equal(t, []string{"E2"}, layout.Movable())
	require.Len(t, layout.FreeSeats(), 1)
	assert.Equal(t, "R1-1", layout.FreeSeats()[0].ID)

	allocations := layout.Allocations()
	require.Len(t, allocations, 1)
	assert.Equal(t, "E2", allocations[0].EmployeeID)
	assert.Equal(t, "R1", allocations[0].ResourceID)
}
