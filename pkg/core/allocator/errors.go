package allocator

import (
	"fmt"
	"strings"
)

// InputDataError reports a reference to an id missing from the roster.
// It is fatal for a run.
type InputDataError struct {
	// Kind of the missing entity: employee, resource, seat or schedule
	Kind string
	ID   string
	// Referrer describes where the reference was found
	Referrer string
}

func (e *InputDataError) Error() string {
	if e.Referrer == "" {
		return fmt.Sprintf("invalid roster data: %s %q", e.Kind, e.ID)
	}
	return fmt.Sprintf("invalid roster data: %s %q referenced by %s", e.Kind, e.ID, e.Referrer)
}

// InfeasibleAssignmentError means no seat satisfies an employee's mandatory
// constraints. Batch runs record it and continue.
type InfeasibleAssignmentError struct {
	EmployeeID string
	Violations []Violation
}

func (e *InfeasibleAssignmentError) Error() string {
	return fmt.Sprintf("no feasible seat for employee %s: %s", e.EmployeeID, SummarizeViolations(e.Violations))
}

// ValidationError means a single proposed pair fails feasibility
type ValidationError struct {
	EmployeeID string
	SeatID     string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("employee %s cannot take seat %s: %s", e.EmployeeID, e.SeatID, SummarizeViolations(e.Violations))
}

// SummarizeViolations groups violations by type (in first-seen order) and
// drops duplicate descriptions
func SummarizeViolations(violations []Violation) string {
	grouped := GroupViolations(violations)
	if len(grouped) == 0 {
		return "no violations"
	}

	parts := make([]string, 0, len(grouped))
	for _, group := range grouped {
		descriptions := make([]string, 0, len(group))
		for _, v := range group {
			descriptions = append(descriptions, v.Description)
		}
		parts = append(parts, fmt.Sprintf("%s: %s", group[0].Type, strings.Join(descriptions, ", ")))
	}
	return strings.Join(parts, "; ")
}

// GroupViolations buckets violations by type and deduplicates each bucket by
// description. Buckets keep the order in which their type first appeared.
func GroupViolations(violations []Violation) [][]Violation {
	index := make(map[ViolationType]int)
	seen := make(map[ViolationType]map[string]bool)
	var grouped [][]Violation

	for _, v := range violations {
		i, ok := index[v.Type]
		if !ok {
			i = len(grouped)
			index[v.Type] = i
			grouped = append(grouped, nil)
			seen[v.Type] = make(map[string]bool)
		}
		if seen[v.Type][v.Description] {
			continue
		}
		seen[v.Type][v.Description] = true
		grouped[i] = append(grouped[i], v)
	}

	return grouped
}

// dedupeViolations flattens GroupViolations back into a single slice
func dedupeViolations(violations []Violation) []Violation {
	var out []Violation
	for _, group := range GroupViolations(violations) {
		out = append(out, group...)
	}
	return out
}
