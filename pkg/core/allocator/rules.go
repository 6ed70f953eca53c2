package allocator

import (
	"fmt"
	"slices"

	"github.com/jakechorley/seatplanner/pkg/core/model"
)

// GenderRule enforces gender restricted resources
type GenderRule struct{}

func (GenderRule) Name() string { return "Gender" }

func (GenderRule) Check(ctx *CheckContext) []Violation {
	restriction := ctx.Candidate.Resource.GenderRestriction
	if restriction == model.GenderUnspecified || ctx.Employee.Gender == restriction {
		return nil
	}
	return []Violation{{
		Type:        ViolationGender,
		Severity:    ctx.Policy.Gender,
		Description: fmt.Sprintf("resource %s is restricted to %s employees", ctx.Candidate.Resource.ID, restriction),
	}}
}

// ReligiousRule covers religious-only resources, orthodox seating and
// separation between observant employees and other genders.
//
// Separation is checked in both directions: a religious employee cannot be
// placed next to another gender, and nobody can be placed next to a
// religious occupant of another gender.
type ReligiousRule struct{}

func (ReligiousRule) Name() string { return "Religious" }

func (ReligiousRule) Check(ctx *CheckContext) []Violation {
	var violations []Violation
	employee := ctx.Employee
	resource := ctx.Candidate.Resource
	severity := ctx.Policy.Religious

	if resource.ReligiousOnly && !employee.ReligiousLevel.IsObservant() {
		violations = append(violations, Violation{
			Type:        ViolationReligious,
			Severity:    severity,
			Description: fmt.Sprintf("resource %s is reserved for religious employees", resource.ID),
		})
	}

	if employee.ReligiousLevel == model.ReligiousOrthodox &&
		(resource.GenderRestriction == model.GenderUnspecified || resource.GenderRestriction != employee.Gender) {
		violations = append(violations, Violation{
			Type:        ViolationReligious,
			Severity:    severity,
			Description: fmt.Sprintf("orthodox employees need a resource restricted to their gender, %s is not", resource.ID),
		})
	}

	if employee.Gender == model.GenderUnspecified {
		return violations
	}

	for _, neighbour := range ctx.Neighbours() {
		if neighbour.Gender == model.GenderUnspecified || neighbour.Gender == employee.Gender {
			continue
		}
		switch {
		case employee.ReligiousLevel.IsObservant():
			violations = append(violations, Violation{
				Type:        ViolationReligious,
				Severity:    severity,
				Description: fmt.Sprintf("would sit next to %s of a different gender", neighbour.ID),
				Related:     []string{neighbour.ID},
			})
		case neighbour.ReligiousLevel.IsObservant():
			violations = append(violations, Violation{
				Type:        ViolationReligious,
				Severity:    severity,
				Description: fmt.Sprintf("would seat a different gender next to religious employee %s", neighbour.ID),
				Related:     []string{neighbour.ID},
			})
		}
	}

	return violations
}

// AccessibilityRule requires an accessible seat at the resource for
// employees with a health accommodation
type AccessibilityRule struct{}

func (AccessibilityRule) Name() string { return "Accessibility" }

func (AccessibilityRule) Check(ctx *CheckContext) []Violation {
	if !ctx.Employee.HealthAccommodation {
		return nil
	}
	for _, seat := range ctx.Snapshot.SeatsOf(ctx.Candidate.Resource.ID) {
		if seat.Accessible {
			return nil
		}
	}
	return []Violation{{
		Type:        ViolationAccessibility,
		Severity:    ctx.Policy.Accessibility,
		Description: fmt.Sprintf("no accessible seat at %s", ctx.Candidate.Resource.ID),
	}}
}

// ScheduleRule keeps concurrent occupancy of a resource within capacity.
// Occupants whose schedules never overlap the employee's share capacity.
type ScheduleRule struct{}

func (ScheduleRule) Name() string { return "Schedule" }

func (ScheduleRule) Check(ctx *CheckContext) []Violation {
	resource := ctx.Candidate.Resource
	capacity := ctx.Snapshot.Capacity(resource.ID)

	concurrent := 0
	for _, other := range ctx.Others(resource.ID) {
		if ctx.Snapshot.SchedulesOverlap(ctx.Employee.ID, other.ID) {
			concurrent++
		}
	}

	if concurrent < capacity {
		return nil
	}
	return []Violation{{
		Type:        ViolationSchedule,
		Severity:    ctx.Policy.Schedule,
		Description: fmt.Sprintf("resource %s is at capacity (%d) during the employee's schedule", resource.ID, capacity),
	}}
}

// CustomConstraintRule checks the employee's own constraints, plus "keep
// apart" constraints other occupants hold against the employee
type CustomConstraintRule struct{}

func (CustomConstraintRule) Name() string { return "CustomConstraints" }

func (CustomConstraintRule) Check(ctx *CheckContext) []Violation {
	var violations []Violation

	for _, c := range ctx.Employee.Constraints {
		outcome := evaluateConstraint(ctx, c)
		if outcome.satisfied {
			continue
		}
		violations = append(violations, Violation{
			Type:        customViolationType(c.Kind()),
			Severity:    c.Severity,
			Description: outcome.detail,
			Related:     outcome.related,
		})
	}

	// Avoidance is mutual: an occupant that wants to avoid this employee
	// blocks the seat just like the reverse would
	for _, other := range ctx.Others(ctx.Candidate.Resource.ID) {
		for _, c := range other.Constraints {
			custom, ok := c.Params.(model.GenericCustom)
			if !ok || !slices.Contains(custom.AvoidEmployeeIDs, ctx.Employee.ID) {
				continue
			}
			violations = append(violations, Violation{
				Type:        customViolationType(model.KindGenericCustom),
				Severity:    c.Severity,
				Description: fmt.Sprintf("%s asked not to sit with this employee", other.ID),
				Related:     []string{other.ID},
			})
		}
	}

	return violations
}

// constraintOutcome is the result of checking one custom constraint
type constraintOutcome struct {
	satisfied bool
	// present counts colleagues nearby for team proximity
	present int
	detail  string
	related []string
}

func evaluateConstraint(ctx *CheckContext, c model.CustomConstraint) constraintOutcome {
	resource := ctx.Candidate.Resource
	seat := ctx.Candidate.Seat

	switch p := c.Params.(type) {
	case model.WindowProximity:
		if resource.HasFeature(model.FeatureNearWindow) || resource.Location == model.LocationWindow {
			return constraintOutcome{satisfied: true}
		}
		return constraintOutcome{detail: fmt.Sprintf("%s is not near a window", resource.ID)}

	case model.FixedSeat:
		if (p.SeatID == "" || p.SeatID == seat.ID) && (p.ResourceID == "" || p.ResourceID == resource.ID) {
			return constraintOutcome{satisfied: true}
		}
		target := p.SeatID
		if target == "" {
			target = p.ResourceID
		}
		return constraintOutcome{detail: fmt.Sprintf("fixed to %s, not %s", target, seat.ID)}

	case model.TeamProximity:
		minPresent := p.MinPresent
		if minPresent <= 0 {
			minPresent = 1
		}
		if minPresent > len(p.ColleagueIDs) {
			minPresent = len(p.ColleagueIDs)
		}
		present, placed := 0, 0
		var far []string
		for _, id := range p.ColleagueIDs {
			isPlaced, near := ctx.isNear(id)
			if isPlaced {
				placed++
			}
			if near {
				present++
			} else if isPlaced {
				far = append(far, id)
			}
		}
		// While the layout is being built, colleagues still waiting for a
		// seat may yet join. A final layout counts them as absent.
		if present >= minPresent || (!ctx.Final && placed < len(p.ColleagueIDs)) {
			return constraintOutcome{satisfied: true, present: present}
		}
		return constraintOutcome{
			present: present,
			detail:  fmt.Sprintf("needs %d of %v nearby, found %d", minPresent, p.ColleagueIDs, present),
			related: far,
		}

	case model.AwayFromAC:
		if !resource.HasFeature(model.FeatureNearAC) {
			return constraintOutcome{satisfied: true}
		}
		return constraintOutcome{detail: fmt.Sprintf("%s is near the air conditioning", resource.ID)}

	case model.Accessibility:
		if seat.Accessible {
			return constraintOutcome{satisfied: true}
		}
		return constraintOutcome{detail: fmt.Sprintf("seat %s is not accessible", seat.ID)}

	case model.ScheduleBased:
		if slices.Contains(p.SeatIDs, seat.ID) || slices.Contains(p.ResourceIDs, resource.ID) {
			return constraintOutcome{satisfied: true}
		}
		return constraintOutcome{detail: fmt.Sprintf("seat %s is not one of the employee's usual locations", seat.ID)}

	case model.EquipmentNeeds:
		var missing []string
		for _, feature := range p.Features {
			if !resource.HasFeature(feature) {
				missing = append(missing, feature)
			}
		}
		if len(missing) == 0 {
			return constraintOutcome{satisfied: true}
		}
		return constraintOutcome{detail: fmt.Sprintf("%s lacks %v", resource.ID, missing)}

	case model.GenericCustom:
		if p.Location != "" && p.Location != resource.Location {
			return constraintOutcome{detail: fmt.Sprintf("%s is not in location %s", resource.ID, p.Location)}
		}
		var clashes []string
		for _, other := range ctx.Others(resource.ID) {
			if slices.Contains(p.AvoidEmployeeIDs, other.ID) {
				clashes = append(clashes, other.ID)
			}
		}
		if len(clashes) > 0 {
			return constraintOutcome{
				detail:  fmt.Sprintf("cannot sit with %v", clashes),
				related: clashes,
			}
		}
		return constraintOutcome{satisfied: true}
	}

	return constraintOutcome{satisfied: true}
}
