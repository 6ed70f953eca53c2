package db

import (
	"encoding/json"
	"fmt"

	"github.com/jakechorley/seatplanner/pkg/core/model"
)

// constraintRecord is the stored form of a custom constraint
type constraintRecord struct {
	Type     string         `json:"type"`
	Severity string         `json:"severity"`
	Params   map[string]any `json:"params,omitempty"`
}

// EncodeConstraints serialises constraints to JSON for storage
func EncodeConstraints(constraints []model.CustomConstraint) ([]byte, error) {
	records := make([]constraintRecord, 0, len(constraints))
	for _, c := range constraints {
		records = append(records, constraintRecord{
			Type:     string(c.Kind()),
			Severity: c.Severity.String(),
			Params:   c.ParamMap(),
		})
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode constraints: %w", err)
	}
	return data, nil
}

// DecodeConstraints parses constraints produced by EncodeConstraints
func DecodeConstraints(data []byte) ([]model.CustomConstraint, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var records []constraintRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode constraints: %w", err)
	}

	constraints := make([]model.CustomConstraint, 0, len(records))
	for i, r := range records {
		c, err := model.NewCustomConstraint(r.Type, r.Severity, r.Params)
		if err != nil {
			return nil, fmt.Errorf("constraint %d: %w", i, err)
		}
		constraints = append(constraints, c)
	}
	return constraints, nil
}
