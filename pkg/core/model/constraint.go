package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Severity of a constraint. Only two levels exist; every spelling used by
// the rosters is mapped onto one of them by ParseSeverity.
type Severity int

const (
	SeverityPrefer Severity = iota
	SeverityMust
)

func (s Severity) String() string {
	if s == SeverityMust {
		return "must"
	}
	return "prefer"
}

func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "must", "mandatory", "required", "hard":
		return SeverityMust, nil
	case "", "prefer", "preferred", "optional", "soft", "nice_to_have":
		return SeverityPrefer, nil
	}
	return SeverityPrefer, fmt.Errorf("unknown severity %q", s)
}

type ConstraintKind string

const (
	KindWindowProximity ConstraintKind = "window_proximity"
	KindFixedSeat       ConstraintKind = "fixed_seat"
	KindTeamProximity   ConstraintKind = "team_proximity"
	KindAwayFromAC      ConstraintKind = "away_from_ac"
	KindAccessibility   ConstraintKind = "accessibility"
	KindScheduleBased   ConstraintKind = "schedule_based"
	KindEquipmentNeeds  ConstraintKind = "equipment_needs"
	KindGenericCustom   ConstraintKind = "custom"
)

// ConstraintParams is the closed set of custom constraint payloads.
// Only the types in this file implement it.
type ConstraintParams interface {
	Kind() ConstraintKind
	isConstraintParams()
}

type WindowProximity struct{}

// FixedSeat pins an employee to a seat, or to any seat of a resource when SeatID is empty
type FixedSeat struct {
	SeatID     string
	ResourceID string
}

// TeamProximity asks for at least MinPresent of the colleagues to sit at the
// same or an adjacent resource. MinPresent defaults to 1.
type TeamProximity struct {
	ColleagueIDs []string
	MinPresent   int
}

type AwayFromAC struct{}

// Accessibility requires the seat itself to be accessible
type Accessibility struct{}

// ScheduleBased records seats or resources the employee has historically used
type ScheduleBased struct {
	SeatIDs     []string
	ResourceIDs []string
}

type EquipmentNeeds struct {
	Features []string
}

// GenericCustom covers free-form rules: colleagues to keep apart and a
// required location tag.
type GenericCustom struct {
	Label            string
	AvoidEmployeeIDs []string
	Location         string
}

func (WindowProximity) Kind() ConstraintKind { return KindWindowProximity }
func (FixedSeat) Kind() ConstraintKind       { return KindFixedSeat }
func (TeamProximity) Kind() ConstraintKind   { return KindTeamProximity }
func (AwayFromAC) Kind() ConstraintKind      { return KindAwayFromAC }
func (Accessibility) Kind() ConstraintKind   { return KindAccessibility }
func (ScheduleBased) Kind() ConstraintKind   { return KindScheduleBased }
func (EquipmentNeeds) Kind() ConstraintKind  { return KindEquipmentNeeds }
func (GenericCustom) Kind() ConstraintKind   { return KindGenericCustom }

func (WindowProximity) isConstraintParams() {}
func (FixedSeat) isConstraintParams()       {}
func (TeamProximity) isConstraintParams()   {}
func (AwayFromAC) isConstraintParams()      {}
func (Accessibility) isConstraintParams()   {}
func (ScheduleBased) isConstraintParams()   {}
func (EquipmentNeeds) isConstraintParams()  {}
func (GenericCustom) isConstraintParams()   {}

// CustomConstraint is a severity-tagged requirement attached to an employee
type CustomConstraint struct {
	Severity Severity
	Params   ConstraintParams
}

func (c CustomConstraint) Kind() ConstraintKind {
	if c.Params == nil {
		return ""
	}
	return c.Params.Kind()
}

// ParamMap returns the loosely typed form accepted by NewCustomConstraint.
// Empty values are omitted.
func (c CustomConstraint) ParamMap() map[string]any {
	params := map[string]any{}
	putString := func(key, value string) {
		if value != "" {
			params[key] = value
		}
	}
	putList := func(key string, values []string) {
		if len(values) > 0 {
			params[key] = values
		}
	}

	switch p := c.Params.(type) {
	case FixedSeat:
		putString("seat_id", p.SeatID)
		putString("resource_id", p.ResourceID)
	case TeamProximity:
		putList("colleague_ids", p.ColleagueIDs)
		if p.MinPresent > 0 {
			params["min_present"] = p.MinPresent
		}
	case ScheduleBased:
		putList("seat_ids", p.SeatIDs)
		putList("resource_ids", p.ResourceIDs)
	case EquipmentNeeds:
		putList("features", p.Features)
	case GenericCustom:
		putString("label", p.Label)
		putList("avoid", p.AvoidEmployeeIDs)
		putString("location", p.Location)
	}
	return params
}

// NewCustomConstraint converts the loosely typed form used by the roster
// sources (a type tag, a severity word and a parameter map) into a typed
// constraint. List parameters may be given as a []any, a []string or a
// comma separated string.
func NewCustomConstraint(kind, severity string, params map[string]any) (CustomConstraint, error) {
	sev, err := ParseSeverity(severity)
	if err != nil {
		return CustomConstraint{}, err
	}

	var p ConstraintParams
	switch ConstraintKind(normaliseKind(kind)) {
	case KindWindowProximity:
		p = WindowProximity{}
	case KindFixedSeat:
		p = FixedSeat{
			SeatID:     stringParam(params, "seat_id", "seat"),
			ResourceID: stringParam(params, "resource_id", "resource", "table"),
		}
		if fs := p.(FixedSeat); fs.SeatID == "" && fs.ResourceID == "" {
			return CustomConstraint{}, fmt.Errorf("fixed_seat constraint needs seat_id or resource_id")
		}
	case KindTeamProximity:
		tp := TeamProximity{
			ColleagueIDs: listParam(params, "colleague_ids", "colleagues", "members"),
		}
		if v := stringParam(params, "min_present"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return CustomConstraint{}, fmt.Errorf("team_proximity min_present: %w", err)
			}
			tp.MinPresent = n
		}
		if len(tp.ColleagueIDs) == 0 {
			return CustomConstraint{}, fmt.Errorf("team_proximity constraint needs colleague_ids")
		}
		p = tp
	case KindAwayFromAC:
		p = AwayFromAC{}
	case KindAccessibility:
		p = Accessibility{}
	case KindScheduleBased:
		sb := ScheduleBased{
			SeatIDs:     listParam(params, "seat_ids", "seats"),
			ResourceIDs: listParam(params, "resource_ids", "resources", "tables"),
		}
		if len(sb.SeatIDs) == 0 && len(sb.ResourceIDs) == 0 {
			return CustomConstraint{}, fmt.Errorf("schedule_based constraint needs seat_ids or resource_ids")
		}
		p = sb
	case KindEquipmentNeeds:
		en := EquipmentNeeds{Features: listParam(params, "features", "equipment")}
		if len(en.Features) == 0 {
			return CustomConstraint{}, fmt.Errorf("equipment_needs constraint needs features")
		}
		p = en
	case KindGenericCustom:
		p = GenericCustom{
			Label:            stringParam(params, "label", "name"),
			AvoidEmployeeIDs: listParam(params, "avoid", "avoid_employee_ids"),
			Location:         stringParam(params, "location"),
		}
	default:
		return CustomConstraint{}, fmt.Errorf("unknown constraint type %q", kind)
	}

	return CustomConstraint{Severity: sev, Params: p}, nil
}

// ParseConstraintList parses the compact one-cell form used by spreadsheets:
//
//	must:window_proximity; prefer:equipment_needs(features=dual_monitor|standing_desk); must:custom(avoid=e7)
//
// List values inside parentheses are separated by '|'.
func ParseConstraintList(s string) ([]CustomConstraint, error) {
	var constraints []CustomConstraint
	for i, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		severity, rest, found := strings.Cut(entry, ":")
		if !found {
			return nil, fmt.Errorf("constraint %d: expected <severity>:<type>, got %q", i, entry)
		}

		kind := rest
		params := map[string]any{}
		if open := strings.Index(rest, "("); open >= 0 {
			if !strings.HasSuffix(rest, ")") {
				return nil, fmt.Errorf("constraint %d: unterminated parameter list", i)
			}
			kind = rest[:open]
			for _, kv := range strings.Split(rest[open+1:len(rest)-1], ",") {
				key, value, ok := strings.Cut(kv, "=")
				if !ok {
					return nil, fmt.Errorf("constraint %d: parameter %q is not key=value", i, kv)
				}
				params[strings.TrimSpace(key)] = strings.Split(strings.TrimSpace(value), "|")
			}
		}

		c, err := NewCustomConstraint(strings.TrimSpace(kind), severity, params)
		if err != nil {
			return nil, fmt.Errorf("constraint %d: %w", i, err)
		}
		constraints = append(constraints, c)
	}
	return constraints, nil
}

func normaliseKind(kind string) string {
	k := strings.ToLower(strings.TrimSpace(kind))
	k = strings.NewReplacer("-", "_", " ", "_").Replace(k)
	switch k {
	case "window", "near_window":
		return string(KindWindowProximity)
	case "fixed", "fixed_location":
		return string(KindFixedSeat)
	case "team", "near_team":
		return string(KindTeamProximity)
	case "no_ac", "away_ac":
		return string(KindAwayFromAC)
	case "accessible":
		return string(KindAccessibility)
	case "schedule", "history":
		return string(KindScheduleBased)
	case "equipment":
		return string(KindEquipmentNeeds)
	case "generic", "generic_custom", "other":
		return string(KindGenericCustom)
	}
	return k
}

func stringParam(params map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := params[key]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			return strings.TrimSpace(t)
		case []string:
			if len(t) > 0 {
				return strings.TrimSpace(t[0])
			}
		case []any:
			if len(t) > 0 {
				return strings.TrimSpace(fmt.Sprint(t[0]))
			}
		case nil:
			continue
		default:
			return fmt.Sprint(t)
		}
	}
	return ""
}

func listParam(params map[string]any, keys ...string) []string {
	for _, key := range keys {
		v, ok := params[key]
		if !ok {
			continue
		}
		var raw []string
		switch t := v.(type) {
		case string:
			raw = strings.Split(t, ",")
		case []string:
			raw = t
		case []any:
			for _, item := range t {
				raw = append(raw, fmt.Sprint(item))
			}
		}
		out := make([]string, 0, len(raw))
		for _, item := range raw {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out
	}
	return nil
}
