package sheetsclient

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/jakechorley/seatplanner/internal/config"
	"github.com/jakechorley/seatplanner/pkg/roster"
)

const (
	defaultEmployeesTab = "Employees"
	defaultResourcesTab = "Resources"
	defaultSeatsTab     = "Seats"
)

// Column names in each roster tab. Only the first entry of each list is
// required; the others may be missing from the header.
var (
	employeeFields = []string{
		"ID", "Name", "Gender", "Religious level", "Health accommodation", "Team",
		"Preferred colleagues", "Noise preference", "Location preference",
		"Work days", "Start hour", "End hour", "Constraints",
	}
	resourceFields = []string{
		"ID", "Room", "Name", "Capacity", "Gender restriction", "Religious only",
		"Noise level", "Location", "Features", "X", "Y",
	}
	seatFields = []string{
		"ID", "Resource", "Label", "X", "Y", "Accessible",
	}
)

// LoadRoster reads the employees, resources and seats tabs
func (c *Client) LoadRoster(ctx context.Context, cfg *config.SheetsConfig, opts roster.Options) (*roster.Roster, error) {
	employees, err := c.GetValues(ctx, cfg.RosterSheetID, tabOrDefault(cfg.EmployeesTab, defaultEmployeesTab))
	if err != nil {
		return nil, fmt.Errorf("failed to get employee data: %w", err)
	}
	resources, err := c.GetValues(ctx, cfg.RosterSheetID, tabOrDefault(cfg.ResourcesTab, defaultResourcesTab))
	if err != nil {
		return nil, fmt.Errorf("failed to get resource data: %w", err)
	}
	seats, err := c.GetValues(ctx, cfg.RosterSheetID, tabOrDefault(cfg.SeatsTab, defaultSeatsTab))
	if err != nil {
		return nil, fmt.Errorf("failed to get seat data: %w", err)
	}

	return ParseRoster(employees, resources, seats, opts)
}

// ParseRoster converts raw tab values (header row first) into a roster
func ParseRoster(employees, resources, seats [][]interface{}, opts roster.Options) (*roster.Roster, error) {
	var f roster.File
	var errs error

	rows, err := parseTable(employees, employeeFields)
	if err != nil {
		return nil, fmt.Errorf("employees tab: %w", err)
	}
	for _, row := range rows {
		rec, err := employeeRecord(row)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		f.Employees = append(f.Employees, rec)
	}

	rows, err = parseTable(resources, resourceFields)
	if err != nil {
		return nil, fmt.Errorf("resources tab: %w", err)
	}
	for _, row := range rows {
		rec, err := resourceRecord(row)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		f.Resources = append(f.Resources, rec)
	}

	rows, err = parseTable(seats, seatFields)
	if err != nil {
		return nil, fmt.Errorf("seats tab: %w", err)
	}
	for _, row := range rows {
		rec, err := seatRecord(row)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		f.Seats = append(f.Seats, rec)
	}

	if errs != nil {
		return nil, errs
	}
	return roster.FromRecords(f, opts)
}

// tableRow gives access to a data row by column name
type tableRow struct {
	line int
	get  func(field string) string
}

// parseTable maps header names to columns and returns the non-empty data rows.
// The first field is required in the header; rows where it is blank are skipped.
func parseTable(raw [][]interface{}, fields []string) ([]tableRow, error) {
	if len(raw) < 1 {
		return nil, fmt.Errorf("no header row found")
	}

	fieldIndexes := make(map[string]int)
	for _, field := range fields {
		for i, cell := range raw[0] {
			if cellStr, ok := cell.(string); ok && strings.EqualFold(strings.TrimSpace(cellStr), field) {
				fieldIndexes[field] = i
				break
			}
		}
	}
	if _, ok := fieldIndexes[fields[0]]; !ok {
		return nil, fmt.Errorf("missing required field in header: %s", fields[0])
	}

	rows := make([]tableRow, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		row := raw[i]
		get := func(field string) string {
			index, ok := fieldIndexes[field]
			if !ok || index >= len(row) {
				return ""
			}
			return strings.TrimSpace(fmt.Sprint(row[index]))
		}
		if get(fields[0]) == "" {
			continue
		}
		// sheet rows are 1-based and the header is row 1
		rows = append(rows, tableRow{line: i + 1, get: get})
	}
	return rows, nil
}

func (r tableRow) intField(field string) (int, error) {
	v := r.get(field)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("row %d: %s: %w", r.line, field, err)
	}
	return n, nil
}

func (r tableRow) floatField(field string) (float64, error) {
	v := r.get(field)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("row %d: %s: %w", r.line, field, err)
	}
	return f, nil
}

// boolField accepts the spellings people type into a checkbox-less column
func (r tableRow) boolField(field string) (bool, error) {
	switch strings.ToLower(r.get(field)) {
	case "", "no", "n", "false", "0":
		return false, nil
	case "yes", "y", "true", "1", "x":
		return true, nil
	}
	return false, fmt.Errorf("row %d: %s: %q is not yes or no", r.line, field, r.get(field))
}

func (r tableRow) listField(field string) []string {
	var out []string
	for _, item := range strings.Split(r.get(field), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func employeeRecord(r tableRow) (roster.EmployeeRecord, error) {
	rec := roster.EmployeeRecord{
		ID:                  r.get("ID"),
		Name:                r.get("Name"),
		Gender:              r.get("Gender"),
		ReligiousLevel:      r.get("Religious level"),
		Team:                r.get("Team"),
		PreferredColleagues: r.listField("Preferred colleagues"),
		NoisePreference:     r.get("Noise preference"),
		LocationPreference:  r.get("Location preference"),
		WorkDays:            r.get("Work days"),
		ConstraintList:      r.get("Constraints"),
	}

	var err, errs error
	rec.HealthAccommodation, err = r.boolField("Health accommodation")
	errs = multierr.Append(errs, err)
	rec.StartHour, err = r.intField("Start hour")
	errs = multierr.Append(errs, err)
	rec.EndHour, err = r.intField("End hour")
	errs = multierr.Append(errs, err)

	return rec, errs
}

func resourceRecord(r tableRow) (roster.ResourceRecord, error) {
	rec := roster.ResourceRecord{
		ID:                r.get("ID"),
		RoomID:            r.get("Room"),
		Name:              r.get("Name"),
		GenderRestriction: r.get("Gender restriction"),
		NoiseLevel:        r.get("Noise level"),
		Location:          r.get("Location"),
		Features:          r.listField("Features"),
	}

	var err, errs error
	rec.Capacity, err = r.intField("Capacity")
	errs = multierr.Append(errs, err)
	rec.ReligiousOnly, err = r.boolField("Religious only")
	errs = multierr.Append(errs, err)
	rec.X, err = r.floatField("X")
	errs = multierr.Append(errs, err)
	rec.Y, err = r.floatField("Y")
	errs = multierr.Append(errs, err)

	return rec, errs
}

func seatRecord(r tableRow) (roster.SeatRecord, error) {
	rec := roster.SeatRecord{
		ID:         r.get("ID"),
		ResourceID: r.get("Resource"),
		Label:      r.get("Label"),
	}

	var err, errs error
	rec.X, err = r.floatField("X")
	errs = multierr.Append(errs, err)
	rec.Y, err = r.floatField("Y")
	errs = multierr.Append(errs, err)
	rec.Accessible, err = r.boolField("Accessible")
	errs = multierr.Append(errs, err)

	return rec, errs
}

func tabOrDefault(tab, fallback string) string {
	if tab == "" {
		return fallback
	}
	return tab
}
