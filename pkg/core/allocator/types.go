package allocator

import (
	"time"

	"github.com/jakechorley/seatplanner/pkg/core/model"
)

// ViolationType groups violations for reporting. Custom constraint
// violations use "custom:<kind>".
type ViolationType string

const (
	ViolationGender        ViolationType = "gender"
	ViolationReligious     ViolationType = "religious"
	ViolationAccessibility ViolationType = "accessibility"
	ViolationSchedule      ViolationType = "schedule"
	ViolationOccupancy     ViolationType = "occupancy"
)

func customViolationType(kind model.ConstraintKind) ViolationType {
	return ViolationType("custom:" + string(kind))
}

// Violation is a single failed check for an (employee, seat) pair
type Violation struct {
	Type        ViolationType
	Severity    model.Severity
	Description string
	// Related holds ids of other employees involved (e.g. a conflicting colleague)
	Related []string
}

// Evaluation is the outcome of a feasibility check
type Evaluation struct {
	Feasible   bool
	Violations []Violation
}

// Mandatory returns the violations that block feasibility
func (e Evaluation) Mandatory() []Violation {
	var out []Violation
	for _, v := range e.Violations {
		if v.Severity == model.SeverityMust {
			out = append(out, v)
		}
	}
	return out
}

// Soft returns the non-blocking violations
func (e Evaluation) Soft() []Violation {
	var out []Violation
	for _, v := range e.Violations {
		if v.Severity != model.SeverityMust {
			out = append(out, v)
		}
	}
	return out
}

// Satisfies returns true if no violation of the given type was recorded
func (e Evaluation) Satisfies(t ViolationType) bool {
	for _, v := range e.Violations {
		if v.Type == t {
			return false
		}
	}
	return true
}

// Candidate is a seat together with its parent resource
type Candidate struct {
	Seat     *model.Seat
	Resource *model.Resource
}

// RoomID returns the room of the candidate's resource
func (c Candidate) RoomID() string {
	return c.Resource.RoomID
}

// Policy sets the severity of the built-in rule categories.
// A category at SeverityPrefer only costs score.
type Policy struct {
	Gender        model.Severity
	Religious     model.Severity
	Accessibility model.Severity
	Schedule      model.Severity
}

// DefaultPolicy enforces every built-in category
func DefaultPolicy() Policy {
	return Policy{
		Gender:        model.SeverityMust,
		Religious:     model.SeverityMust,
		Accessibility: model.SeverityMust,
		Schedule:      model.SeverityMust,
	}
}

// ScoringMode selects how the built-in categories contribute to a score
type ScoringMode int

const (
	// ModeOptimization applies penalties for soft-enforced categories (batch runs)
	ModeOptimization ScoringMode = iota
	// ModeCompatibility awards points per satisfied category (single pair validation)
	ModeCompatibility
)

const (
	DefaultMaxIterations      = 10
	DefaultAdjacencyThreshold = 1.5
)

// Config tunes an allocation run
type Config struct {
	// MaxIterations caps the local search loop
	MaxIterations int

	// AdjacencyThreshold is the maximum distance between two resources in the
	// same room for them to count as adjacent
	AdjacencyThreshold float64

	Policy Policy

	// PeriodStart and PeriodEnd bound the run. Work schedules are expanded
	// over this window; when unset a fixed four week reference window is used.
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() Config {
	return Config{
		MaxIterations:      DefaultMaxIterations,
		AdjacencyThreshold: DefaultAdjacencyThreshold,
		Policy:             DefaultPolicy(),
	}
}

// UnallocatedEmployee records an employee that could not be seated
type UnallocatedEmployee struct {
	EmployeeID string
	// Reason is a human readable summary grouped by violation type
	Reason     string
	Violations []Violation
}

// Err returns the employee's outcome as an InfeasibleAssignmentError
func (u UnallocatedEmployee) Err() error {
	return &InfeasibleAssignmentError{EmployeeID: u.EmployeeID, Violations: u.Violations}
}

// AuditEntry is a soft violation recorded against a committed allocation
type AuditEntry struct {
	EmployeeID string
	SeatID     string
	Violation  Violation
}

// BatchResult is the output of a complete run
type BatchResult struct {
	Allocated            []model.Allocation
	Unallocated          []UnallocatedEmployee
	ConstraintViolations []AuditEntry

	// TotalScore is the summed score of every seated employee (including
	// allocations that existed before the run)
	TotalScore float64

	// Iterations is the number of local search iterations executed
	Iterations int

	// ScoreHistory holds the total score after greedy and after each iteration
	ScoreHistory []float64
}

// PairValidation is the single pair result used for UI feedback
type PairValidation struct {
	Valid       bool
	Constraints map[string]bool
	Violations  []Violation
	Score       float64
}
