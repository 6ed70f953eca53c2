package allocator

import (
	"sort"

	"github.com/jakechorley/seatplanner/pkg/core/model"
)

// RankEmployees orders employees for the greedy pass. The most constrained
// go first so they get the widest choice of seats:
//  1. health accommodation
//  2. religious level
//  3. number of mandatory custom constraints
//  4. number of preferred colleagues
//
// The sort is stable so ties keep roster order.
func RankEmployees(employees []*model.Employee) []*model.Employee {
	ranked := make([]*model.Employee, len(employees))
	copy(ranked, employees)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.HealthAccommodation != b.HealthAccommodation {
			return a.HealthAccommodation
		}
		if a.ReligiousLevel != b.ReligiousLevel {
			return a.ReligiousLevel > b.ReligiousLevel
		}
		if ma, mb := a.MustConstraintCount(), b.MustConstraintCount(); ma != mb {
			return ma > mb
		}
		return len(a.PreferredColleagues) > len(b.PreferredColleagues)
	})

	return ranked
}
