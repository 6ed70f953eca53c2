package model

import (
	"fmt"
	"strings"
)

type Gender string

const (
	GenderUnspecified Gender = ""
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
)

// ParseGender accepts the spellings used by the roster sheets ("Male", "F", ...)
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "any", "mixed":
		return GenderUnspecified, nil
	case "male", "m", "man", "men":
		return GenderMale, nil
	case "female", "f", "woman", "women":
		return GenderFemale, nil
	}
	return GenderUnspecified, fmt.Errorf("unknown gender %q", s)
}

// ReligiousLevel is ordered: a higher value means stricter observance
type ReligiousLevel int

const (
	ReligiousSecular ReligiousLevel = iota
	ReligiousTraditional
	ReligiousReligious
	ReligiousOrthodox
)

func (r ReligiousLevel) String() string {
	switch r {
	case ReligiousTraditional:
		return "traditional"
	case ReligiousReligious:
		return "religious"
	case ReligiousOrthodox:
		return "orthodox"
	default:
		return "secular"
	}
}

// IsObservant returns true for levels that qualify for religious-only resources
func (r ReligiousLevel) IsObservant() bool {
	return r >= ReligiousReligious
}

func ParseReligiousLevel(s string) (ReligiousLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "secular":
		return ReligiousSecular, nil
	case "traditional":
		return ReligiousTraditional, nil
	case "religious":
		return ReligiousReligious, nil
	case "orthodox", "ultra_orthodox", "haredi":
		return ReligiousOrthodox, nil
	}
	return ReligiousSecular, fmt.Errorf("unknown religious level %q", s)
}

type NoiseLevel string

const (
	NoiseUnspecified NoiseLevel = ""
	NoiseQuiet       NoiseLevel = "quiet"
	NoiseModerate    NoiseLevel = "moderate"
	NoiseLoud        NoiseLevel = "loud"
)

func ParseNoiseLevel(s string) (NoiseLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return NoiseUnspecified, nil
	case "quiet", "silent", "low":
		return NoiseQuiet, nil
	case "moderate", "medium", "normal":
		return NoiseModerate, nil
	case "loud", "high", "noisy":
		return NoiseLoud, nil
	}
	return NoiseUnspecified, fmt.Errorf("unknown noise level %q", s)
}

// Resource features referenced by the built-in constraints
const (
	FeatureNearWindow     = "near_window"
	FeatureNearAC         = "near_ac"
	FeatureErgonomicChair = "ergonomic_chair"
	LocationWindow        = "window"
)

// Schedule describes when an employee is in the office.
// WorkDays is an RFC 5545 recurrence rule, e.g. "FREQ=WEEKLY;BYDAY=MO,TU,WE".
// An empty WorkDays means every day; StartHour == EndHour == 0 means all day.
type Schedule struct {
	WorkDays  string
	StartHour int
	EndHour   int
}

// Hours returns the working window, normalising the all-day form to [0, 24)
func (s Schedule) Hours() (int, int) {
	if s.StartHour == 0 && s.EndHour == 0 {
		return 0, 24
	}
	return s.StartHour, s.EndHour
}

// Employee represents a person that needs a seat
type Employee struct {
	ID                  string
	Name                string
	Gender              Gender
	ReligiousLevel      ReligiousLevel
	HealthAccommodation bool
	Team                string
	PreferredColleagues []string
	NoisePreference     NoiseLevel
	LocationPreference  string
	Schedule            Schedule
	Constraints         []CustomConstraint
}

// MustConstraintCount returns the number of mandatory custom constraints
func (e *Employee) MustConstraintCount() int {
	count := 0
	for _, c := range e.Constraints {
		if c.Severity == SeverityMust {
			count++
		}
	}
	return count
}

// Resource is a table or workspace that groups seats
type Resource struct {
	ID                string
	RoomID            string
	Name              string
	Capacity          int
	GenderRestriction Gender
	ReligiousOnly     bool
	NoiseLevel        NoiseLevel
	Location          string
	Features          []string
	X                 float64
	Y                 float64
}

// HasFeature reports whether the resource carries the given feature flag
func (r *Resource) HasFeature(feature string) bool {
	for _, f := range r.Features {
		if strings.EqualFold(f, feature) {
			return true
		}
	}
	return false
}

// Seat is the smallest assignable unit. OccupantID is set by the store when
// a holding allocation exists for the seat.
type Seat struct {
	ID         string
	ResourceID string
	Label      string
	X          float64
	Y          float64
	Accessible bool
	OccupantID string
}
