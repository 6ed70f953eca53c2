package allocator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/seatplanner/pkg/core/model"
)

// evaluateAt builds a snapshot, seats the given occupants and evaluates
// employeeID at seatID
func evaluateAt(t *testing.T, input SnapshotInput, occupants map[string]string, employeeID, seatID string) Evaluation {
	t.Helper()
	snap, err := NewSnapshot(input)
	require.NoError(t, err)

	layout := NewLayout(snap)
	for employee, seat := range occupants {
		layout.Place(employee, seat)
	}

	employee, ok := snap.Employee(employeeID)
	require.True(t, ok)
	candidate, ok := snap.Candidate(seatID)
	require.True(t, ok)

	return NewEvaluator(snap, DefaultPolicy()).Evaluate(layout.With(move{employeeID: employeeID, seatID: seatID}), employee, candidate)
}

func violationTypes(eval Evaluation) []ViolationType {
	var types []ViolationType
	for _, v := range eval.Violations {
		types = append(types, v.Type)
	}
	return types
}

func TestGenderRule(t *testing.T) {
	tests := []struct {
		name        string
		gender      model.Gender
		restriction model.Gender
		feasible    bool
	}{
		{"unrestricted", model.GenderMale, model.GenderUnspecified, true},
		{"matching", model.GenderFemale, model.GenderFemale, true},
		{"mismatch", model.GenderMale, model.GenderFemale, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := SnapshotInput{
				Employees: []model.Employee{{ID: "E1", Gender: tt.gender}},
				Resources: []model.Resource{{ID: "R1", GenderRestriction: tt.restriction}},
				Seats:     seatsFor("R1", 1, false),
			}
			eval := evaluateAt(t, input, nil, "E1", "R1-1")
			assert.Equal(t, tt.feasible, eval.Feasible)
			assert.Equal(t, tt.feasible, eval.Satisfies(ViolationGender))
		})
	}
}

func TestReligiousRule_ReligiousOnlyResource(t *testing.T) {
	input := SnapshotInput{
		Employees: []model.Employee{
			{ID: "secular"},
			{ID: "traditional", ReligiousLevel: model.ReligiousTraditional},
			{ID: "religious", ReligiousLevel: model.ReligiousReligious},
		},
		Resources: []model.Resource{{ID: "R1", ReligiousOnly: true}},
		Seats:     seatsFor("R1", 1, false),
	}

	assert.False(t, evaluateAt(t, input, nil, "secular", "R1-1").Feasible)
	assert.False(t, evaluateAt(t, input, nil, "traditional", "R1-1").Feasible)
	assert.True(t, evaluateAt(t, input, nil, "religious", "R1-1").Feasible)
}

func TestReligiousRule_OrthodoxNeedsGenderRestrictedResource(t *testing.T) {
	input := SnapshotInput{
		Employees: []model.Employee{{ID: "E1", Gender: model.GenderMale, ReligiousLevel: model.ReligiousOrthodox}},
		Resources: []model.Resource{
			{ID: "open", RoomID: "a"},
			{ID: "men", RoomID: "b", GenderRestriction: model.GenderMale},
		},
		Seats: append(seatsFor("open", 1, false), seatsFor("men", 1, false)...),
	}

	assert.False(t, evaluateAt(t, input, nil, "E1", "open-1").Feasible)
	assert.True(t, evaluateAt(t, input, nil, "E1", "men-1").Feasible)
}

func TestReligiousRule_SeparationIsSymmetric(t *testing.T) {
	input := SnapshotInput{
		Employees: []model.Employee{
			{ID: "observant", Gender: model.GenderMale, ReligiousLevel: model.ReligiousReligious},
			{ID: "other", Gender: model.GenderFemale},
		},
		Resources: []model.Resource{
			{ID: "R1", RoomID: "room"},
			{ID: "R2", RoomID: "room", X: 1},
			{ID: "R3", RoomID: "room", X: 5},
		},
		Seats: append(append(seatsFor("R1", 1, false), seatsFor("R2", 1, false)...), seatsFor("R3", 1, false)...),
	}

	// other next to an already seated observant employee
	eval := evaluateAt(t, input, map[string]string{"observant": "R1-1"}, "other", "R2-1")
	assert.False(t, eval.Feasible)
	assert.Contains(t, violationTypes(eval), ViolationReligious)

	// observant next to an already seated employee of another gender
	eval = evaluateAt(t, input, map[string]string{"other": "R1-1"}, "observant", "R2-1")
	assert.False(t, eval.Feasible)

	// far enough away
	eval = evaluateAt(t, input, map[string]string{"observant": "R1-1"}, "other", "R3-1")
	assert.True(t, eval.Feasible)
}

func TestAccessibilityRule(t *testing.T) {
	input := SnapshotInput{
		Employees: []model.Employee{{ID: "E1", HealthAccommodation: true}},
		Resources: []model.Resource{{ID: "R1"}, {ID: "R2"}},
		Seats: []model.Seat{
			{ID: "R1-1", ResourceID: "R1"},
			{ID: "R2-1", ResourceID: "R2"},
			{ID: "R2-2", ResourceID: "R2", Accessible: true},
		},
	}

	assert.False(t, evaluateAt(t, input, nil, "E1", "R1-1").Feasible)
	// The resource has an accessible seat even if this one is not
	assert.True(t, evaluateAt(t, input, nil, "E1", "R2-1").Feasible)
}

func TestScheduleRule_CapacityAndHours(t *testing.T) {
	input := SnapshotInput{
		Employees: []model.Employee{
			{ID: "morning", Schedule: model.Schedule{StartHour: 8, EndHour: 12}},
			{ID: "afternoon", Schedule: model.Schedule{StartHour: 12, EndHour: 17}},
			{ID: "allday"},
		},
		Resources: []model.Resource{{ID: "R1", Capacity: 1}},
		Seats:     seatsFor("R1", 3, false),
	}

	assert.True(t, evaluateAt(t, input, map[string]string{"morning": "R1-1"}, "afternoon", "R1-2").Feasible)

	eval := evaluateAt(t, input, map[string]string{"morning": "R1-1"}, "allday", "R1-2")
	assert.False(t, eval.Feasible)
	assert.Contains(t, violationTypes(eval), ViolationSchedule)
}

func TestCustomConstraints(t *testing.T) {
	resources := []model.Resource{
		{ID: "window", RoomID: "a", Location: model.LocationWindow, Features: []string{"Dual_Monitor"}},
		{ID: "ac", RoomID: "b", Features: []string{model.FeatureNearAC}},
	}
	seats := []model.Seat{
		{ID: "window-1", ResourceID: "window", Accessible: true},
		{ID: "ac-1", ResourceID: "ac"},
	}

	tests := []struct {
		name       string
		constraint model.CustomConstraint
		seatID     string
		feasible   bool
	}{
		{"window satisfied", must(model.WindowProximity{}), "window-1", true},
		{"window violated", must(model.WindowProximity{}), "ac-1", false},
		{"fixed seat satisfied", must(model.FixedSeat{SeatID: "ac-1"}), "ac-1", true},
		{"fixed resource violated", must(model.FixedSeat{ResourceID: "ac"}), "window-1", false},
		{"away from ac satisfied", must(model.AwayFromAC{}), "window-1", true},
		{"away from ac violated", must(model.AwayFromAC{}), "ac-1", false},
		{"accessible seat", must(model.Accessibility{}), "window-1", true},
		{"inaccessible seat", must(model.Accessibility{}), "ac-1", false},
		{"usual resource", must(model.ScheduleBased{ResourceIDs: []string{"ac"}}), "ac-1", true},
		{"unusual seat", must(model.ScheduleBased{SeatIDs: []string{"ac-1"}}), "window-1", false},
		{"equipment present", must(model.EquipmentNeeds{Features: []string{"dual_monitor"}}), "window-1", true},
		{"equipment missing", must(model.EquipmentNeeds{Features: []string{"dual_monitor"}}), "ac-1", false},
		{"location match", must(model.GenericCustom{Location: model.LocationWindow}), "window-1", true},
		{"location mismatch", must(model.GenericCustom{Location: model.LocationWindow}), "ac-1", false},
		{"preferences never block", prefer(model.WindowProximity{}), "ac-1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := SnapshotInput{
				Employees: []model.Employee{{ID: "E1", Constraints: []model.CustomConstraint{tt.constraint}}},
				Resources: resources,
				Seats:     seats,
			}
			eval := evaluateAt(t, input, nil, "E1", tt.seatID)
			assert.Equal(t, tt.feasible, eval.Feasible, SummarizeViolations(eval.Violations))
		})
	}
}

func TestCustomConstraints_TeamProximityWaitsForColleagues(t *testing.T) {
	input := SnapshotInput{
		Employees: []model.Employee{
			{ID: "E1", Constraints: []model.CustomConstraint{
				must(model.TeamProximity{ColleagueIDs: []string{"E2", "E3"}, MinPresent: 1}),
			}},
			{ID: "E2"},
			{ID: "E3"},
		},
		Resources: []model.Resource{
			{ID: "R1", RoomID: "a"},
			{ID: "R2", RoomID: "a", X: 1},
			{ID: "R3", RoomID: "b"},
		},
		Seats: append(append(seatsFor("R1", 2, false), seatsFor("R2", 2, false)...), seatsFor("R3", 2, false)...),
	}

	// E3 not seated yet
	assert.True(t, evaluateAt(t, input, map[string]string{"E2": "R3-1"}, "E1", "R1-1").Feasible)

	// everyone seated, nobody nearby
	assert.False(t, evaluateAt(t, input, map[string]string{"E2": "R3-1", "E3": "R3-2"}, "E1", "R1-1").Feasible)

	// adjacent resource counts
	assert.True(t, evaluateAt(t, input, map[string]string{"E2": "R3-1", "E3": "R2-1"}, "E1", "R1-1").Feasible)
}

func TestCustomConstraints_TeamProximityInFinalLayout(t *testing.T) {
	snap, err := NewSnapshot(SnapshotInput{
		Employees: []model.Employee{
			{ID: "E1", Constraints: []model.CustomConstraint{
				must(model.TeamProximity{ColleagueIDs: []string{"E2", "E3"}, MinPresent: 1}),
			}},
			{ID: "E2"},
			{ID: "E3"},
		},
		Resources: []model.Resource{
			{ID: "R1", RoomID: "a"},
			{ID: "R3", RoomID: "b"},
		},
		Seats: append(seatsFor("R1", 2, false), seatsFor("R3", 2, false)...),
	})
	require.NoError(t, err)

	layout := NewLayout(snap)
	layout.Place("E1", "R1-1")
	layout.Place("E2", "R3-1")

	building := NewEvaluator(snap, DefaultPolicy())
	eval, ok := building.EvaluateAt(layout, "E1")
	require.True(t, ok)
	assert.True(t, eval.Feasible, "E3 may still join while the layout is built")

	eval, ok = building.Final().EvaluateAt(layout, "E1")
	require.True(t, ok)
	assert.False(t, eval.Feasible, "an unseated colleague counts as absent")
}

func TestEvaluation_MandatoryAndSoft(t *testing.T) {
	eval := Evaluation{Violations: []Violation{
		{Type: ViolationGender, Severity: model.SeverityMust},
		{Type: customViolationType(model.KindWindowProximity), Severity: model.SeverityPrefer},
	}}

	assert.Len(t, eval.Mandatory(), 1)
	assert.Len(t, eval.Soft(), 1)
	assert.False(t, eval.Satisfies(ViolationGender))
	assert.True(t, eval.Satisfies(ViolationSchedule))
}

func TestSummarizeViolations_GroupsAndDeduplicates(t *testing.T) {
	violations := []Violation{
		{Type: ViolationGender, Description: "restricted"},
		{Type: ViolationAccessibility, Description: "no accessible seat at R1"},
		{Type: ViolationGender, Description: "restricted"},
		{Type: ViolationAccessibility, Description: "no accessible seat at R2"},
	}

	assert.Equal(t, "gender: restricted; accessibility: no accessible seat at R1, no accessible seat at R2", SummarizeViolations(violations))
	assert.Len(t, GroupViolations(violations), 2)
	assert.Equal(t, "no violations", SummarizeViolations(nil))
}
