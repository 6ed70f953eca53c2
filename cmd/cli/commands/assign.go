package commands

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/seatplanner/pkg/core/allocator"
	"github.com/jakechorley/seatplanner/pkg/core/services"
)

// AssignCmd creates the assign command
func AssignCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign <employee_id> <seat_id>",
		Short: "Assign one employee to a seat, moving them if they already have one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			override, _ := cmd.Flags().GetBool("override")
			hold, _ := cmd.Flags().GetBool("hold")

			req := services.AssignRequest{
				EmployeeID: args[0],
				SeatID:     args[1],
				Override:   override,
				Hold:       hold,
			}
			if cmd.Flags().Changed("expect-occupant") {
				expect, _ := cmd.Flags().GetString("expect-occupant")
				req.ExpectOccupant = &expect
			}

			app.Logger.Debug("assign command",
				zap.String("employee_id", req.EmployeeID),
				zap.String("seat_id", req.SeatID),
				zap.Bool("override", override))

			result, err := services.AssignSeat(app.Ctx, app.Store, app.Engine, app.Logger, req)
			if err != nil {
				var validationErr *allocator.ValidationError
				if errors.As(err, &validationErr) {
					fmt.Printf("\n%s❌ %s cannot take %s%s\n", colorRed, validationErr.EmployeeID, validationErr.SeatID, colorReset)
					printViolations(validationErr.Violations)
					fmt.Printf("Use --override to assign anyway.\n\n")
				}
				return err
			}

			fmt.Printf("\n✓ %s assigned to %s\n\n", req.EmployeeID, req.SeatID)
			fmt.Printf("Allocation ID: %s\n", result.Allocation.ID)
			fmt.Printf("Status:        %s\n", result.Allocation.Status)
			fmt.Printf("Score:         %.1f\n", result.Allocation.Score)
			if result.Released != nil {
				fmt.Printf("Released:      %s (seat %s)\n", result.Released.ID, result.Released.SeatID)
			}
			if result.Overridden {
				fmt.Printf("\n%s⚠️  Assigned despite:%s\n", colorYellow, colorReset)
				printViolations(result.Validation.Violations)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().Bool("override", false, "Assign even when mandatory constraints are violated")
	cmd.Flags().Bool("hold", false, "Save the allocation as pending instead of active")
	cmd.Flags().String("expect-occupant", "", "Fail unless the seat is currently held by this employee (empty for a free seat)")

	return cmd
}

// ValidateCmd creates the validate command
func ValidateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <employee_id> <seat_id>",
		Short: "Check whether an employee could take a seat, without saving anything",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			validation, err := services.ValidatePair(app.Ctx, app.Store, app.Engine, app.Logger, args[0], args[1])
			if err != nil {
				return err
			}

			if validation.Valid {
				fmt.Printf("\n%s✓ %s can take %s%s\n\n", colorGreen, args[0], args[1], colorReset)
			} else {
				fmt.Printf("\n%s❌ %s cannot take %s%s\n\n", colorRed, args[0], args[1], colorReset)
			}

			names := make([]string, 0, len(validation.Constraints))
			for name := range validation.Constraints {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				mark := "✓"
				if !validation.Constraints[name] {
					mark = "✗"
				}
				fmt.Printf("  %s %s\n", mark, name)
			}
			fmt.Printf("\nScore: %.1f\n\n", validation.Score)

			if len(validation.Violations) > 0 {
				printViolations(validation.Violations)
				fmt.Println()
			}
			return nil
		},
	}
}

func printViolations(violations []allocator.Violation) {
	for _, v := range violations {
		fmt.Printf("  • [%s/%s] %s\n", v.Type, v.Severity, v.Description)
	}
}
