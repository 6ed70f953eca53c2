// Package roster reads employees, resources and seats from a YAML file.
package roster

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/seatplanner/pkg/core/model"
)

// Roster is the typed content of a roster source
type Roster struct {
	Employees []model.Employee
	Resources []model.Resource
	Seats     []model.Seat
}

// Options applied while converting records
type Options struct {
	// DefaultWorkDays is used for employees that leave workDays empty
	DefaultWorkDays string
}

// File is the YAML document layout
type File struct {
	Employees []EmployeeRecord `yaml:"employees" validate:"dive"`
	Resources []ResourceRecord `yaml:"resources" validate:"dive"`
	Seats     []SeatRecord     `yaml:"seats" validate:"dive"`
}

// EmployeeRecord is one employee as written by a roster source, before parsing
type EmployeeRecord struct {
	ID                  string             `yaml:"id" validate:"required"`
	Name                string             `yaml:"name"`
	Gender              string             `yaml:"gender"`
	ReligiousLevel      string             `yaml:"religiousLevel"`
	HealthAccommodation bool               `yaml:"healthAccommodation"`
	Team                string             `yaml:"team"`
	PreferredColleagues []string           `yaml:"preferredColleagues"`
	NoisePreference     string             `yaml:"noisePreference"`
	LocationPreference  string             `yaml:"locationPreference"`
	WorkDays            string             `yaml:"workDays"`
	StartHour           int                `yaml:"startHour" validate:"min=0,max=24"`
	EndHour             int                `yaml:"endHour" validate:"min=0,max=24,gtefield=StartHour"`
	Constraints         []ConstraintRecord `yaml:"constraints" validate:"dive"`
	// ConstraintList is the compact one-line form, see model.ParseConstraintList
	ConstraintList string `yaml:"constraintList"`
}

type ConstraintRecord struct {
	Type     string         `yaml:"type" validate:"required"`
	Severity string         `yaml:"severity"`
	Params   map[string]any `yaml:"params"`
}

type ResourceRecord struct {
	ID                string   `yaml:"id" validate:"required"`
	RoomID            string   `yaml:"room" validate:"required"`
	Name              string   `yaml:"name"`
	Capacity          int      `yaml:"capacity" validate:"min=1"`
	GenderRestriction string   `yaml:"genderRestriction"`
	ReligiousOnly     bool     `yaml:"religiousOnly"`
	NoiseLevel        string   `yaml:"noiseLevel"`
	Location          string   `yaml:"location"`
	Features          []string `yaml:"features"`
	X                 float64  `yaml:"x"`
	Y                 float64  `yaml:"y"`
}

type SeatRecord struct {
	ID         string  `yaml:"id" validate:"required"`
	ResourceID string  `yaml:"resource" validate:"required"`
	Label      string  `yaml:"label"`
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	Accessible bool    `yaml:"accessible"`
}

var validate = validator.New()

// Load reads and converts a roster file
func Load(path string, opts Options) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file: %w", err)
	}
	return Parse(data, opts)
}

// Parse converts YAML roster content. Every bad record is reported, not
// just the first; the error then holds one entry per record (see multierr.Errors).
func Parse(data []byte, opts Options) (*Roster, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	return FromRecords(f, opts)
}

// FromRecords validates and converts raw records
func FromRecords(f File, opts Options) (*Roster, error) {
	if err := validate.Struct(&f); err != nil {
		return nil, fmt.Errorf("roster validation failed: %w", err)
	}

	r := &Roster{
		Employees: make([]model.Employee, 0, len(f.Employees)),
		Resources: make([]model.Resource, 0, len(f.Resources)),
		Seats:     make([]model.Seat, 0, len(f.Seats)),
	}

	var errs error
	for _, rec := range f.Employees {
		e, err := rec.toModel(opts)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("employee %s: %w", rec.ID, err))
			continue
		}
		r.Employees = append(r.Employees, e)
	}
	for _, rec := range f.Resources {
		res, err := rec.toModel()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("resource %s: %w", rec.ID, err))
			continue
		}
		r.Resources = append(r.Resources, res)
	}
	for _, rec := range f.Seats {
		r.Seats = append(r.Seats, model.Seat{
			ID:         rec.ID,
			ResourceID: rec.ResourceID,
			Label:      rec.Label,
			X:          rec.X,
			Y:          rec.Y,
			Accessible: rec.Accessible,
		})
	}

	if errs != nil {
		return nil, errs
	}
	return r, nil
}

func (rec EmployeeRecord) toModel(opts Options) (model.Employee, error) {
	gender, err := model.ParseGender(rec.Gender)
	if err != nil {
		return model.Employee{}, err
	}
	level, err := model.ParseReligiousLevel(rec.ReligiousLevel)
	if err != nil {
		return model.Employee{}, err
	}
	noise, err := model.ParseNoiseLevel(rec.NoisePreference)
	if err != nil {
		return model.Employee{}, err
	}

	workDays := rec.WorkDays
	if workDays == "" {
		workDays = opts.DefaultWorkDays
	}
	if workDays != "" {
		if _, err := rrule.StrToRRule(workDays); err != nil {
			return model.Employee{}, fmt.Errorf("invalid workDays rrule: %w", err)
		}
	}

	constraints := make([]model.CustomConstraint, 0, len(rec.Constraints))
	for i, c := range rec.Constraints {
		constraint, err := model.NewCustomConstraint(c.Type, c.Severity, c.Params)
		if err != nil {
			return model.Employee{}, fmt.Errorf("constraint %d: %w", i, err)
		}
		constraints = append(constraints, constraint)
	}
	if rec.ConstraintList != "" {
		compact, err := model.ParseConstraintList(rec.ConstraintList)
		if err != nil {
			return model.Employee{}, err
		}
		constraints = append(constraints, compact...)
	}

	return model.Employee{
		ID:                  rec.ID,
		Name:                rec.Name,
		Gender:              gender,
		ReligiousLevel:      level,
		HealthAccommodation: rec.HealthAccommodation,
		Team:                rec.Team,
		PreferredColleagues: rec.PreferredColleagues,
		NoisePreference:     noise,
		LocationPreference:  rec.LocationPreference,
		Schedule: model.Schedule{
			WorkDays:  workDays,
			StartHour: rec.StartHour,
			EndHour:   rec.EndHour,
		},
		Constraints: constraints,
	}, nil
}

func (rec ResourceRecord) toModel() (model.Resource, error) {
	gender, err := model.ParseGender(rec.GenderRestriction)
	if err != nil {
		return model.Resource{}, err
	}
	noise, err := model.ParseNoiseLevel(rec.NoiseLevel)
	if err != nil {
		return model.Resource{}, err
	}
	return model.Resource{
		ID:                rec.ID,
		RoomID:            rec.RoomID,
		Name:              rec.Name,
		Capacity:          rec.Capacity,
		GenderRestriction: gender,
		ReligiousOnly:     rec.ReligiousOnly,
		NoiseLevel:        noise,
		Location:          rec.Location,
		Features:          rec.Features,
		X:                 rec.X,
		Y:                 rec.Y,
	}, nil
}
