package allocator

import "github.com/jakechorley/seatplanner/pkg/core/model"

// Rule is a single feasibility check. Rules must not modify anything they
// are given; they only report violations.
type Rule interface {
	// Name returns a human-readable identifier for this rule
	Name() string

	// Check returns the violations of placing the employee at the candidate
	Check(ctx *CheckContext) []Violation
}

// CheckContext bundles what a rule may look at for one (employee, seat) pair
type CheckContext struct {
	Snapshot  *Snapshot
	Occupancy Occupancy
	Employee  *model.Employee
	Candidate Candidate
	Policy    Policy
	// Final judges the layout as complete: colleagues without a seat count
	// as absent instead of as still to come
	Final bool
}

// Others returns the employees at a resource, excluding the one being evaluated
func (c *CheckContext) Others(resourceID string) []*model.Employee {
	var out []*model.Employee
	for _, id := range c.Occupancy.OccupantsOf(resourceID) {
		if id == c.Employee.ID {
			continue
		}
		if e, ok := c.Snapshot.Employee(id); ok {
			out = append(out, e)
		}
	}
	return out
}

// Neighbours returns employees at the candidate resource and at adjacent resources
func (c *CheckContext) Neighbours() []*model.Employee {
	out := c.Others(c.Candidate.Resource.ID)
	for _, resourceID := range c.Snapshot.AdjacentResources(c.Candidate.Resource.ID) {
		out = append(out, c.Others(resourceID)...)
	}
	return out
}

// isNear reports whether the employee is seated at the candidate resource or an adjacent one
func (c *CheckContext) isNear(employeeID string) (placed bool, near bool) {
	seatID, ok := c.Occupancy.SeatOf(employeeID)
	if !ok {
		return false, false
	}
	seat, ok := c.Snapshot.Seat(seatID)
	if !ok {
		return true, false
	}
	if seat.ResourceID == c.Candidate.Resource.ID {
		return true, true
	}
	for _, adjacent := range c.Snapshot.AdjacentResources(c.Candidate.Resource.ID) {
		if seat.ResourceID == adjacent {
			return true, true
		}
	}
	return true, false
}

// Evaluator is the ConstraintEvaluator: a pure feasibility check for one
// (employee, seat) pair against an occupancy view
type Evaluator struct {
	snap   *Snapshot
	policy Policy
	rules  []Rule
	final  bool
}

// NewEvaluator creates an evaluator with the built-in rules
func NewEvaluator(snap *Snapshot, policy Policy) *Evaluator {
	return &Evaluator{
		snap:   snap,
		policy: policy,
		rules:  DefaultRules(),
	}
}

// Final returns a copy of the evaluator that treats the layout as complete.
// Used for the settled layout and for manual assignments.
func (ev *Evaluator) Final() *Evaluator {
	final := *ev
	final.final = true
	return &final
}

// DefaultRules returns the built-in rule set in evaluation order
func DefaultRules() []Rule {
	return []Rule{
		GenderRule{},
		ReligiousRule{},
		AccessibilityRule{},
		ScheduleRule{},
		CustomConstraintRule{},
	}
}

// Evaluate runs every rule. The pair is feasible when no violation has
// SeverityMust.
func (ev *Evaluator) Evaluate(occ Occupancy, employee *model.Employee, candidate Candidate) Evaluation {
	ctx := &CheckContext{
		Snapshot:  ev.snap,
		Occupancy: occ,
		Employee:  employee,
		Candidate: candidate,
		Policy:    ev.policy,
		Final:     ev.final,
	}

	result := Evaluation{Feasible: true}
	for _, rule := range ev.rules {
		for _, v := range rule.Check(ctx) {
			if v.Severity == model.SeverityMust {
				result.Feasible = false
			}
			result.Violations = append(result.Violations, v)
		}
	}
	return result
}

// EvaluateAt evaluates an employee at the seat they currently hold in occ
func (ev *Evaluator) EvaluateAt(occ Occupancy, employeeID string) (Evaluation, bool) {
	employee, ok := ev.snap.Employee(employeeID)
	if !ok {
		return Evaluation{}, false
	}
	seatID, ok := occ.SeatOf(employeeID)
	if !ok {
		return Evaluation{}, false
	}
	candidate, ok := ev.snap.Candidate(seatID)
	if !ok {
		return Evaluation{}, false
	}
	return ev.Evaluate(occ, employee, candidate), true
}
