package allocator

import (
	"fmt"

	"github.com/jakechorley/seatplanner/pkg/core/model"
)

// Engine runs seat allocation over a roster snapshot
type Engine struct {
	cfg    Config
	scorer Scorer
}

// Option customises an Engine
type Option func(*Engine)

// WithScorer replaces the default ScoringEngine for both batch runs and pair validation
func WithScorer(s Scorer) Option {
	return func(e *Engine) {
		e.scorer = s
	}
}

// NewEngine creates an engine. Zero values in cfg fall back to defaults.
func NewEngine(cfg Config, opts ...Option) *Engine {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.AdjacencyThreshold <= 0 {
		cfg.AdjacencyThreshold = DefaultAdjacencyThreshold
	}
	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the effective configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// Snapshot builds a snapshot using the engine's adjacency threshold and period
func (e *Engine) Snapshot(input SnapshotInput) (*Snapshot, error) {
	if input.AdjacencyThreshold <= 0 {
		input.AdjacencyThreshold = e.cfg.AdjacencyThreshold
	}
	if input.PeriodStart.IsZero() && input.PeriodEnd.IsZero() {
		input.PeriodStart, input.PeriodEnd = e.cfg.PeriodStart, e.cfg.PeriodEnd
	}
	return NewSnapshot(input)
}

func (e *Engine) scorerFor(snap *Snapshot, mode ScoringMode) Scorer {
	if e.scorer != nil {
		return e.scorer
	}
	return NewScoringEngine(snap, mode)
}

// Allocate is a convenience wrapper that runs a batch with the given config
func Allocate(input SnapshotInput, cfg Config) (*BatchResult, error) {
	return NewEngine(cfg).Run(input)
}

// Run executes a batch: greedy assignment, local search, then validation.
// Only an *InputDataError (possibly several, combined) aborts the run;
// employees that cannot be seated are reported in the result.
func (e *Engine) Run(input SnapshotInput) (*BatchResult, error) {
	snap, err := e.Snapshot(input)
	if err != nil {
		return nil, err
	}
	return e.RunSnapshot(snap)
}

// RunSnapshot executes a batch against an already built snapshot
func (e *Engine) RunSnapshot(snap *Snapshot) (*BatchResult, error) {
	r := e.newRun(snap, NewLayout(snap))
	r.greedy()
	r.optimize()
	return r.validate()
}

// run holds the mutable state of one batch
type run struct {
	cfg       Config
	snap      *Snapshot
	layout    *Layout
	evaluator *Evaluator
	scorer    Scorer

	unallocated []UnallocatedEmployee

	iterations int
	history    []float64
}

func (e *Engine) newRun(snap *Snapshot, layout *Layout) *run {
	return &run{
		cfg:       e.cfg,
		snap:      snap,
		layout:    layout,
		evaluator: NewEvaluator(snap, e.cfg.Policy),
		scorer:    e.scorerFor(snap, ModeOptimization),
	}
}

func (r *run) markUnallocated(employeeID, reason string, violations []Violation) {
	for i, u := range r.unallocated {
		if u.EmployeeID == employeeID {
			r.unallocated[i] = UnallocatedEmployee{EmployeeID: employeeID, Reason: reason, Violations: violations}
			return
		}
	}
	r.unallocated = append(r.unallocated, UnallocatedEmployee{EmployeeID: employeeID, Reason: reason, Violations: violations})
}

func (r *run) clearUnallocated(employeeID string) {
	for i, u := range r.unallocated {
		if u.EmployeeID == employeeID {
			r.unallocated = append(r.unallocated[:i], r.unallocated[i+1:]...)
			return
		}
	}
}

// scoreAt evaluates and scores an employee at the seat they hold in occ
func (r *run) scoreAt(occ Occupancy, employeeID string) (float64, Evaluation, bool) {
	employee, ok := r.snap.Employee(employeeID)
	if !ok {
		return 0, Evaluation{}, false
	}
	seatID, ok := occ.SeatOf(employeeID)
	if !ok {
		return 0, Evaluation{}, false
	}
	candidate, ok := r.snap.Candidate(seatID)
	if !ok {
		return 0, Evaluation{}, false
	}
	eval := r.evaluator.Evaluate(occ, employee, candidate)
	return r.scorer.Score(occ, employee, candidate, eval), eval, true
}

// totalScore sums the score of every seated employee in seat roster order
func (r *run) totalScore(occ Occupancy) float64 {
	total := 0.0
	for _, seat := range r.snap.Seats {
		employeeID, ok := occ.OccupantOf(seat.ID)
		if !ok {
			continue
		}
		score, _, _ := r.scoreAt(occ, employeeID)
		total += score
	}
	return total
}

// ValidatePair checks a single (employee, seat) pair against the current
// holdings in input and scores it in compatibility mode
func (e *Engine) ValidatePair(input SnapshotInput, employeeID, seatID string) (*PairValidation, error) {
	snap, err := e.Snapshot(input)
	if err != nil {
		return nil, err
	}
	return e.ValidatePairIn(snap, employeeID, seatID)
}

// ValidatePairIn is ValidatePair against an existing snapshot
func (e *Engine) ValidatePairIn(snap *Snapshot, employeeID, seatID string) (*PairValidation, error) {
	employee, ok := snap.Employee(employeeID)
	if !ok {
		return nil, &InputDataError{Kind: "employee", ID: employeeID}
	}
	candidate, ok := snap.Candidate(seatID)
	if !ok {
		return nil, &InputDataError{Kind: "seat", ID: seatID}
	}

	layout := NewLayout(snap)
	view := layout.With(move{employeeID: employeeID, seatID: seatID})

	eval := NewEvaluator(snap, e.cfg.Policy).Final().Evaluate(view, employee, candidate)
	if occupant, taken := layout.OccupantOf(seatID); taken && occupant != employeeID {
		eval.Feasible = false
		eval.Violations = append(eval.Violations, Violation{
			Type:        ViolationOccupancy,
			Severity:    model.SeverityMust,
			Description: fmt.Sprintf("seat %s is held by %s", seatID, occupant),
			Related:     []string{occupant},
		})
	}

	return &PairValidation{
		Valid: eval.Feasible,
		Constraints: map[string]bool{
			"gender":    eval.Satisfies(ViolationGender),
			"religious": eval.Satisfies(ViolationReligious),
			"health":    eval.Satisfies(ViolationAccessibility),
			"schedule":  eval.Satisfies(ViolationSchedule),
		},
		Violations: eval.Violations,
		Score:      e.scorerFor(snap, ModeCompatibility).Score(view, employee, candidate, eval),
	}, nil
}
