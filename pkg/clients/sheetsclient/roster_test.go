package sheetsclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/jakechorley/seatplanner/pkg/core/model"
	"github.com/jakechorley/seatplanner/pkg/roster"
)

func sampleTabs() (employees, resources, seats [][]interface{}) {
	employees = [][]interface{}{
		{"ID", "Name", "Gender", "Religious level", "Health accommodation", "Start hour", "End hour", "Preferred colleagues", "Constraints"},
		{"E1", "Dana", "F", "religious", "yes", "8", "16", "E2, E3", "must:window; prefer:equipment(features=dual_monitor|standing_desk)"},
		{"", "blank row is skipped"},
		{"E2", "Avi", "Male"},
	}
	resources = [][]interface{}{
		{"id", "room", "capacity", "features", "x", "y", "religious only"},
		{"T1", "R1", "4", "near_window,near_ac", "1.5", "2", "x"},
	}
	seats = [][]interface{}{
		{"ID", "Resource", "Label", "Accessible"},
		{"S1", "T1", "T1-A", "TRUE"},
		{"S2", "T1"},
	}
	return
}

func TestParseRoster(t *testing.T) {
	employees, resources, seats := sampleTabs()

	r, err := ParseRoster(employees, resources, seats, roster.Options{})
	require.NoError(t, err)

	require.Len(t, r.Employees, 2)
	dana := r.Employees[0]
	assert.Equal(t, "Dana", dana.Name)
	assert.Equal(t, model.GenderFemale, dana.Gender)
	assert.Equal(t, model.ReligiousReligious, dana.ReligiousLevel)
	assert.True(t, dana.HealthAccommodation)
	assert.Equal(t, 8, dana.Schedule.StartHour)
	assert.Equal(t, 16, dana.Schedule.EndHour)
	assert.Equal(t, []string{"E2", "E3"}, dana.PreferredColleagues)
	require.Len(t, dana.Constraints, 2)
	assert.Equal(t, model.SeverityMust, dana.Constraints[0].Severity)
	assert.Equal(t, model.EquipmentNeeds{Features: []string{"dual_monitor", "standing_desk"}}, dana.Constraints[1].Params)

	assert.Equal(t, model.GenderMale, r.Employees[1].Gender)
	assert.False(t, r.Employees[1].HealthAccommodation)

	require.Len(t, r.Resources, 1)
	assert.Equal(t, 4, r.Resources[0].Capacity)
	assert.Equal(t, []string{"near_window", "near_ac"}, r.Resources[0].Features)
	assert.Equal(t, 1.5, r.Resources[0].X)
	assert.True(t, r.Resources[0].ReligiousOnly)

	require.Len(t, r.Seats, 2)
	assert.True(t, r.Seats[0].Accessible)
	assert.False(t, r.Seats[1].Accessible)
}

func TestParseRoster_MissingIDColumn(t *testing.T) {
	_, resources, seats := sampleTabs()

	_, err := ParseRoster([][]interface{}{{"Name"}}, resources, seats, roster.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "employees tab: missing required field in header: ID")

	_, err = ParseRoster(nil, resources, seats, roster.Options{})
	assert.ErrorContains(t, err, "no header row found")
}

func TestParseRoster_ReportsEveryBadCell(t *testing.T) {
	employees, resources, seats := sampleTabs()
	employees[1][5] = "eight"
	resources[1][2] = "four"
	seats[1][3] = "maybe"

	_, err := ParseRoster(employees, resources, seats, roster.Options{})
	require.Error(t, err)

	errs := multierr.Errors(err)
	require.Len(t, errs, 3)
	assert.Contains(t, errs[0].Error(), "row 2: Start hour")
	assert.Contains(t, errs[1].Error(), "row 2: Capacity")
	assert.Contains(t, errs[2].Error(), `row 2: Accessible: "maybe" is not yes or no`)
}

func TestPlanRows(t *testing.T) {
	plan := &PublishedPlan{
		Title:      "2025-03-03 to 2025-03-28",
		TotalScore: 245,
		Allocations: []PublishedAllocation{
			{EmployeeID: "E1", EmployeeName: "Dana", Room: "R1", ResourceName: "Table 1", SeatLabel: "T1-A", Status: "active", Score: 145},
		},
	}

	rows := planRows(plan)
	require.Len(t, rows, 4)
	assert.Equal(t, []interface{}{"2025-03-03 to 2025-03-28", "Total score: 245.0"}, rows[0])
	assert.Empty(t, rows[1])
	assert.Equal(t, "Employee ID", rows[2][0])
	assert.Equal(t, []interface{}{"E1", "Dana", "R1", "Table 1", "T1-A", "active", 145.0}, rows[3])

	plan.Unallocated = []PublishedUnallocated{{EmployeeID: "E2", EmployeeName: "Avi", Reason: "no free seats remain"}}
	rows = planRows(plan)
	require.Len(t, rows, 7)
	assert.Equal(t, "Not seated because", rows[5][2])
	assert.Equal(t, []interface{}{"E2", "Avi", "no free seats remain"}, rows[6])
}
