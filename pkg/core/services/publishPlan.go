package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/seatplanner/pkg/clients/sheetsclient"
	"github.com/jakechorley/seatplanner/pkg/core/model"
)

const periodLayout = "2006-01-02"

// PlanPublisher writes a plan somewhere people can read it
type PlanPublisher interface {
	PublishPlan(ctx context.Context, spreadsheetID, tab string, plan *sheetsclient.PublishedPlan) error
}

// PublishBatch publishes the outcome of a batch run to the allocations tab
func PublishBatch(ctx context.Context, publisher PlanPublisher, logger *zap.Logger, spreadsheetID, tab string, outcome *BatchOutcome) error {
	plan := BuildPlan(outcome)

	logger.Debug("Publishing plan",
		zap.String("title", plan.Title),
		zap.Int("rows", len(plan.Allocations)),
		zap.Int("unallocated", len(plan.Unallocated)))

	if err := publisher.PublishPlan(ctx, spreadsheetID, tab, plan); err != nil {
		return fmt.Errorf("failed to publish plan: %w", err)
	}

	logger.Info("Plan published", zap.String("spreadsheet_id", spreadsheetID), zap.String("title", plan.Title))
	return nil
}

// BuildPlan resolves the ids in a batch result to names and labels
func BuildPlan(outcome *BatchOutcome) *sheetsclient.PublishedPlan {
	employees := make(map[string]model.Employee, len(outcome.Input.Employees))
	for _, e := range outcome.Input.Employees {
		employees[e.ID] = e
	}
	resources := make(map[string]model.Resource, len(outcome.Input.Resources))
	for _, r := range outcome.Input.Resources {
		resources[r.ID] = r
	}
	seats := make(map[string]model.Seat, len(outcome.Input.Seats))
	for _, s := range outcome.Input.Seats {
		seats[s.ID] = s
	}

	result := outcome.Result
	plan := &sheetsclient.PublishedPlan{
		Title:      planTitle(result.Allocated),
		TotalScore: result.TotalScore,
	}

	for _, a := range result.Allocated {
		resource := resources[a.ResourceID]
		resourceName := resource.Name
		if resourceName == "" {
			resourceName = resource.ID
		}
		seatLabel := seats[a.SeatID].Label
		if seatLabel == "" {
			seatLabel = a.SeatID
		}
		plan.Allocations = append(plan.Allocations, sheetsclient.PublishedAllocation{
			EmployeeID:   a.EmployeeID,
			EmployeeName: employees[a.EmployeeID].Name,
			Room:         resource.RoomID,
			ResourceName: resourceName,
			SeatLabel:    seatLabel,
			Status:       string(a.Status),
			Score:        a.Score,
		})
	}

	for _, u := range result.Unallocated {
		plan.Unallocated = append(plan.Unallocated, sheetsclient.PublishedUnallocated{
			EmployeeID:   u.EmployeeID,
			EmployeeName: employees[u.EmployeeID].Name,
			Reason:       u.Reason,
		})
	}

	return plan
}

// planTitle names the plan after its period, or "Open ended" without one
func planTitle(allocations []model.Allocation) string {
	if len(allocations) == 0 || allocations[0].From.IsZero() {
		return "Open ended"
	}
	from := allocations[0].From.Format(periodLayout)
	if allocations[0].To.IsZero() {
		return "From " + from
	}
	return fmt.Sprintf("%s to %s", from, allocations[0].To.Format(periodLayout))
}
