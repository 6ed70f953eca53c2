package allocator

import "github.com/jakechorley/seatplanner/pkg/core/model"

// Scorer computes the desirability of a feasible pair. Higher is better.
type Scorer interface {
	Score(occ Occupancy, employee *model.Employee, candidate Candidate, eval Evaluation) float64
}

// ScorerFunc adapts a function to the Scorer interface
type ScorerFunc func(occ Occupancy, employee *model.Employee, candidate Candidate, eval Evaluation) float64

func (f ScorerFunc) Score(occ Occupancy, employee *model.Employee, candidate Candidate, eval Evaluation) float64 {
	return f(occ, employee, candidate, eval)
}

// Score contributions
const (
	ScoreBase = 100.0

	// compatibility mode: per satisfied category
	ScoreCategorySatisfied = 25.0

	// optimization mode: penalties for soft-enforced categories
	PenaltyGenderMismatch    = -50.0
	PenaltyAccessibility     = -30.0
	PenaltyReligious         = -40.0
	PenaltyScheduleConflict  = -25.0
	ScorePreferredSameDesk   = 40.0
	ScorePreferredSameArea   = 25.0
	ScoreTeammatePerOccupant = 15.0
	MaxTeammatesCounted      = 3

	ScoreNoiseMatch        = 20.0
	ScoreNoiseQuietInLoud  = -5.0
	ScoreNoiseOther        = 5.0
	ScoreLocationMatch     = 20.0
	ScoreHealthSatisfied   = 10.0
	ScoreHealthAccessible  = 15.0
	ScoreHealthLocation    = 10.0
	ScoreReligiousOnlyDesk = 40.0
	ScoreReligiousCluster  = 30.0
)

// constraintWeights holds the per-severity contributions of a custom constraint
type constraintWeights struct {
	satisfiedPrefer float64
	satisfiedMust   float64
	missedPrefer    float64
	missedMust      float64
}

var customConstraintWeights = map[model.ConstraintKind]constraintWeights{
	model.KindWindowProximity: {satisfiedPrefer: 30, satisfiedMust: 100, missedMust: -150},
	model.KindFixedSeat:       {satisfiedPrefer: 30, satisfiedMust: 100, missedMust: -100},
	model.KindAwayFromAC:      {satisfiedPrefer: 10, satisfiedMust: 40, missedPrefer: -20, missedMust: -80},
	model.KindAccessibility:   {satisfiedPrefer: 50, satisfiedMust: 150, missedMust: -200},
	model.KindScheduleBased:   {satisfiedPrefer: 30, satisfiedMust: 80},
	model.KindEquipmentNeeds:  {satisfiedPrefer: 40, satisfiedMust: 120, missedMust: -100},
	model.KindGenericCustom:   {satisfiedPrefer: 15, satisfiedMust: 50, missedPrefer: -30, missedMust: -100},
}

// per teammate present
var teamProximityWeights = constraintWeights{satisfiedPrefer: 20, satisfiedMust: 40}

// ScoringEngine is the default Scorer. It is deterministic: candidates are
// compared by the callers with a strict greater-than, so on equal scores the
// first candidate evaluated wins.
type ScoringEngine struct {
	snap *Snapshot
	mode ScoringMode
}

// NewScoringEngine creates a scorer for the given mode
func NewScoringEngine(snap *Snapshot, mode ScoringMode) *ScoringEngine {
	return &ScoringEngine{snap: snap, mode: mode}
}

func (s *ScoringEngine) Score(occ Occupancy, employee *model.Employee, candidate Candidate, eval Evaluation) float64 {
	ctx := &CheckContext{
		Snapshot:  s.snap,
		Occupancy: occ,
		Employee:  employee,
		Candidate: candidate,
	}

	score := ScoreBase
	score += s.complianceScore(eval)
	score += teamProximityScore(ctx)
	score += tasteScore(employee, candidate.Resource)
	score += healthScore(employee, candidate, eval)
	score += customConstraintScore(ctx)
	score += religiousClusterScore(ctx)
	return score
}

func (s *ScoringEngine) complianceScore(eval Evaluation) float64 {
	categories := []ViolationType{ViolationGender, ViolationReligious, ViolationAccessibility, ViolationSchedule}

	if s.mode == ModeCompatibility {
		total := 0.0
		for _, category := range categories {
			if eval.Satisfies(category) {
				total += ScoreCategorySatisfied
			}
		}
		return total
	}

	penalties := map[ViolationType]float64{
		ViolationGender:        PenaltyGenderMismatch,
		ViolationReligious:     PenaltyReligious,
		ViolationAccessibility: PenaltyAccessibility,
		ViolationSchedule:      PenaltyScheduleConflict,
	}
	total := 0.0
	for _, category := range categories {
		for _, v := range eval.Soft() {
			if v.Type == category {
				total += penalties[category]
				break
			}
		}
	}
	return total
}

func teamProximityScore(ctx *CheckContext) float64 {
	employee := ctx.Employee
	resource := ctx.Candidate.Resource
	score := 0.0

	others := ctx.Others(resource.ID)
	sameDesk := false
	for _, other := range others {
		for _, id := range employee.PreferredColleagues {
			if other.ID == id {
				sameDesk = true
			}
		}
	}
	if sameDesk {
		score += ScorePreferredSameDesk
	}

	if resource.Location != "" {
		for _, id := range employee.PreferredColleagues {
			seatID, ok := ctx.Occupancy.SeatOf(id)
			if !ok {
				continue
			}
			seat, _ := ctx.Snapshot.Seat(seatID)
			if seat.ResourceID == resource.ID {
				continue
			}
			if other, ok := ctx.Snapshot.Resource(seat.ResourceID); ok && other.Location == resource.Location {
				score += ScorePreferredSameArea
				break
			}
		}
	}

	if employee.Team != "" {
		teammates := 0
		for _, other := range others {
			if other.Team == employee.Team {
				teammates++
			}
		}
		score += ScoreTeammatePerOccupant * float64(min(teammates, MaxTeammatesCounted))
	}

	return score
}

func tasteScore(employee *model.Employee, resource *model.Resource) float64 {
	score := 0.0

	if employee.NoisePreference != model.NoiseUnspecified && resource.NoiseLevel != model.NoiseUnspecified {
		switch {
		case employee.NoisePreference == resource.NoiseLevel:
			score += ScoreNoiseMatch
		case employee.NoisePreference == model.NoiseQuiet && resource.NoiseLevel == model.NoiseLoud:
			score += ScoreNoiseQuietInLoud
		default:
			score += ScoreNoiseOther
		}
	}

	if employee.LocationPreference != "" && employee.LocationPreference == resource.Location {
		score += ScoreLocationMatch
	}

	return score
}

func healthScore(employee *model.Employee, candidate Candidate, eval Evaluation) float64 {
	if !employee.HealthAccommodation || !eval.Satisfies(ViolationAccessibility) {
		return 0
	}
	score := ScoreHealthSatisfied
	if candidate.Seat.Accessible {
		score += ScoreHealthAccessible
		if employee.LocationPreference != "" && employee.LocationPreference == candidate.Resource.Location {
			score += ScoreHealthLocation
		}
	}
	return score
}

func customConstraintScore(ctx *CheckContext) float64 {
	score := 0.0
	for _, c := range ctx.Employee.Constraints {
		outcome := evaluateConstraint(ctx, c)
		must := c.Severity == model.SeverityMust

		if c.Kind() == model.KindTeamProximity {
			per := teamProximityWeights.satisfiedPrefer
			if must {
				per = teamProximityWeights.satisfiedMust
			}
			score += per * float64(outcome.present)
			continue
		}

		w, ok := customConstraintWeights[c.Kind()]
		if !ok {
			continue
		}
		switch {
		case outcome.satisfied && must:
			score += w.satisfiedMust
		case outcome.satisfied:
			score += w.satisfiedPrefer
		case must:
			score += w.missedMust
		default:
			score += w.missedPrefer
		}
	}
	return score
}

func religiousClusterScore(ctx *CheckContext) float64 {
	if !ctx.Employee.ReligiousLevel.IsObservant() {
		return 0
	}
	score := 0.0
	if ctx.Candidate.Resource.ReligiousOnly {
		score += ScoreReligiousOnlyDesk
	}
	for _, other := range ctx.Others(ctx.Candidate.Resource.ID) {
		if other.ReligiousLevel.IsObservant() {
			score += ScoreReligiousCluster
			break
		}
	}
	return score
}
