package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/seatplanner/pkg/core/services"
	"github.com/jakechorley/seatplanner/pkg/roster"
)

// ImportCmd creates the import command
func ImportCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import employees, resources and seats from a YAML file or the roster sheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			fromSheets, _ := cmd.Flags().GetBool("sheets")

			if file != "" && fromSheets {
				return errors.New("use either --file or --sheets, not both")
			}
			if file == "" && !fromSheets {
				file = app.Cfg.RosterFile
			}
			if file == "" && !fromSheets {
				return errors.New("no roster file given and none configured")
			}

			opts := roster.Options{DefaultWorkDays: app.Cfg.DefaultWorkDays}

			var r *roster.Roster
			var err error
			if fromSheets {
				client, clientErr := app.SheetsClient()
				if clientErr != nil {
					return clientErr
				}
				r, err = client.LoadRoster(app.Ctx, app.Cfg.Sheets, opts)
			} else {
				app.Logger.Debug("Loading roster file", zap.String("path", file))
				r, err = roster.Load(file, opts)
			}
			if err != nil {
				return err
			}

			if err := services.ImportRoster(app.Ctx, app.Store, app.Logger, r); err != nil {
				return err
			}

			fmt.Printf("\n✓ Roster imported\n\n")
			fmt.Printf("Employees: %d\n", len(r.Employees))
			fmt.Printf("Resources: %d\n", len(r.Resources))
			fmt.Printf("Seats:     %d\n\n", len(r.Seats))
			return nil
		},
	}

	cmd.Flags().String("file", "", "Roster YAML file (defaults to rosterFile from the config)")
	cmd.Flags().Bool("sheets", false, "Read the roster from the configured spreadsheet")

	return cmd
}
