package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/seatplanner/pkg/core/model"
	"github.com/jakechorley/seatplanner/pkg/core/services"
)

// FreeCmd creates the free command
func FreeCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "free <seat_id>",
		Short: "Release a seat, completing or cancelling its allocation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expect, _ := cmd.Flags().GetString("expect-employee")

			freed, err := services.FreeSeat(app.Ctx, app.Store, app.Logger, args[0], expect)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Seat %s freed\n\n", args[0])
			fmt.Printf("Employee:      %s\n", freed.EmployeeID)
			fmt.Printf("Allocation ID: %s\n", freed.ID)
			fmt.Printf("Status:        %s\n\n", freed.Status)
			return nil
		},
	}

	cmd.Flags().String("expect-employee", "", "Fail unless the seat is held by this employee")

	return cmd
}

// TransitionCmd creates the transition command
func TransitionCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "transition <allocation_id> <status>",
		Short: "Move an allocation to pending, active, completed or cancelled",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			updated, err := services.TransitionAllocation(app.Ctx, app.Store, app.Logger, args[0], model.AllocationStatus(args[1]))
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Allocation %s is now %s\n\n", updated.ID, updated.Status)
			return nil
		},
	}
}

// ListCmd creates the list command
func ListCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored allocations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")

			rows, err := services.ListAllocations(app.Ctx, app.Store, app.Logger, !all)
			if err != nil {
				return err
			}

			if len(rows) == 0 {
				fmt.Println("\nNo allocations found.")
				fmt.Println()
				return nil
			}

			fmt.Printf("\nFound %d allocations:\n\n", len(rows))
			fmt.Printf("%s%-36s %-12s %-20s %-12s %-12s %-10s%s\n", colorBold,
				"ID", "Employee", "Name", "Room", "Seat", "Status", colorReset)
			for _, r := range rows {
				fmt.Printf("%-36s %-12s %-20s %-12s %-12s %s%-10s%s\n",
					r.Allocation.ID, r.Allocation.EmployeeID, r.EmployeeName, r.Room, r.SeatLabel,
					statusColor(r.Allocation.Status), r.Allocation.Status, colorReset)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().Bool("all", false, "Include completed and cancelled allocations")

	return cmd
}

func statusColor(status model.AllocationStatus) string {
	switch status {
	case model.StatusActive:
		return colorGreen
	case model.StatusPending:
		return colorYellow
	default:
		return colorReset
	}
}
