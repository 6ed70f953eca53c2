package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/seatplanner/pkg/clients/sheetsclient"
	"github.com/jakechorley/seatplanner/pkg/core/allocator"
	"github.com/jakechorley/seatplanner/pkg/core/services"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorBold   = "\033[1m"
)

// AllocateCmd creates the allocate command
func AllocateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Run a batch allocation for every employee without a seat",
		Long:  "Run the greedy placement and local search over the current roster and store the resulting allocations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			hold, _ := cmd.Flags().GetBool("hold")
			publish, _ := cmd.Flags().GetBool("publish")

			app.Logger.Debug("allocate command",
				zap.Bool("dry_run", dryRun),
				zap.Bool("hold", hold),
				zap.Bool("publish", publish))

			outcome, err := services.RunBatch(app.Ctx, app.Store, app.Engine, app.Logger, services.BatchOptions{
				DryRun:        dryRun,
				HoldAsPending: hold || app.Cfg.Allocation.HoldAsPending,
			})
			if err != nil {
				return err
			}

			printOutcome(services.BuildPlan(outcome), outcome, dryRun)

			if !publish {
				return nil
			}
			client, err := app.SheetsClient()
			if err != nil {
				return err
			}
			if err := services.PublishBatch(app.Ctx, client, app.Logger, app.Cfg.Sheets.RosterSheetID, app.Cfg.Sheets.AllocationsTab, outcome); err != nil {
				return err
			}
			fmt.Printf("✓ Plan published to the roster sheet\n\n")
			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "Compute the plan without saving it")
	cmd.Flags().Bool("hold", false, "Save allocations as pending instead of active")
	cmd.Flags().Bool("publish", false, "Write the plan to the allocations tab of the roster sheet")

	return cmd
}

func printOutcome(plan *sheetsclient.PublishedPlan, outcome *services.BatchOutcome, dryRun bool) {
	result := outcome.Result

	fmt.Printf("\n🪑 Seat Allocation Results\n\n")
	fmt.Printf("Period:      %s\n", plan.Title)
	fmt.Printf("Allocated:   %d\n", len(result.Allocated))
	fmt.Printf("Unallocated: %d\n", len(result.Unallocated))
	fmt.Printf("Total score: %.1f (%d improvement rounds)\n", result.TotalScore, result.Iterations)
	if dryRun {
		fmt.Printf("Mode:        🧪 DRY RUN (not saved)\n")
	} else {
		fmt.Printf("Status:      ✅ SAVED\n")
	}
	fmt.Println()

	if len(plan.Allocations) > 0 {
		fmt.Printf("%s%-12s %-20s %-12s %-16s %-12s %8s%s\n", colorBold,
			"Employee", "Name", "Room", "Table", "Seat", "Score", colorReset)
		for _, a := range plan.Allocations {
			fmt.Printf("%-12s %-20s %-12s %-16s %-12s %s%8.1f%s\n",
				a.EmployeeID, a.EmployeeName, a.Room, a.ResourceName, a.SeatLabel,
				scoreColor(a.Score), a.Score, colorReset)
		}
		fmt.Println()
	}

	if len(plan.Unallocated) > 0 {
		fmt.Printf("%s⚠️  Not seated (%d):%s\n", colorYellow, len(plan.Unallocated), colorReset)
		for _, u := range plan.Unallocated {
			fmt.Printf("  • %s %s: %s\n", u.EmployeeID, u.EmployeeName, u.Reason)
		}
		fmt.Println()
	}

	if len(result.ConstraintViolations) > 0 {
		fmt.Printf("Preferences not met (%d):\n", len(result.ConstraintViolations))
		for _, v := range result.ConstraintViolations {
			fmt.Printf("  • %s on %s: %s\n", v.EmployeeID, v.SeatID, v.Violation.Description)
		}
		fmt.Println()
	}
}

// scoreColor marks placements below the base score
func scoreColor(score float64) string {
	switch {
	case score >= allocator.ScoreBase:
		return colorGreen
	case score >= allocator.ScoreBase/2:
		return colorYellow
	default:
		return colorRed
	}
}
