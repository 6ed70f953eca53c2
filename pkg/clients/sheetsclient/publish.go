package sheetsclient

import (
	"context"
	"fmt"
)

const defaultAllocationsTab = "Allocations"

// PublishedAllocation is one seated employee in the published plan
type PublishedAllocation struct {
	EmployeeID   string
	EmployeeName string
	Room         string
	ResourceName string
	SeatLabel    string
	Status       string
	Score        float64
}

// PublishedUnallocated is an employee the run could not seat
type PublishedUnallocated struct {
	EmployeeID   string
	EmployeeName string
	Reason       string
}

// PublishedPlan is the sheet view of a batch result
type PublishedPlan struct {
	Title       string
	TotalScore  float64
	Allocations []PublishedAllocation
	Unallocated []PublishedUnallocated
}

// PublishPlan writes the plan to the allocations tab, creating it if needed.
// Previous contents of the tab are replaced.
func (c *Client) PublishPlan(ctx context.Context, spreadsheetID, tab string, plan *PublishedPlan) error {
	tab = tabOrDefault(tab, defaultAllocationsTab)

	created, err := c.EnsureSheet(ctx, spreadsheetID, tab)
	if err != nil {
		return err
	}
	if !created {
		if err := c.ClearTab(ctx, spreadsheetID, tab); err != nil {
			return err
		}
	}

	if err := c.WriteValues(ctx, spreadsheetID, tab, planRows(plan)); err != nil {
		return fmt.Errorf("failed to publish allocations: %w", err)
	}
	return nil
}

// planRows lays the plan out as a title row, a gap, the allocation table and,
// when anyone is left over, an unallocated table below it
func planRows(plan *PublishedPlan) [][]interface{} {
	rows := [][]interface{}{
		{plan.Title, fmt.Sprintf("Total score: %.1f", plan.TotalScore)},
		{},
		{"Employee ID", "Employee", "Room", "Table", "Seat", "Status", "Score"},
	}

	for _, a := range plan.Allocations {
		rows = append(rows, []interface{}{
			a.EmployeeID, a.EmployeeName, a.Room, a.ResourceName, a.SeatLabel, a.Status, a.Score,
		})
	}

	if len(plan.Unallocated) == 0 {
		return rows
	}

	rows = append(rows, []interface{}{}, []interface{}{"Employee ID", "Employee", "Not seated because"})
	for _, u := range plan.Unallocated {
		rows = append(rows, []interface{}{u.EmployeeID, u.EmployeeName, u.Reason})
	}
	return rows
}
