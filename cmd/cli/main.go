package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/seatplanner/cmd/cli/commands"
	"github.com/jakechorley/seatplanner/internal/config"
	"github.com/jakechorley/seatplanner/pkg/core/allocator"
	"github.com/jakechorley/seatplanner/pkg/core/services"
	"github.com/jakechorley/seatplanner/pkg/db"
	"github.com/jakechorley/seatplanner/pkg/postgres"
	"github.com/jakechorley/seatplanner/pkg/roster"
	"github.com/jakechorley/seatplanner/pkg/utils/logging"
)

var (
	env     string
	verbose bool
	app     = &commands.AppContext{}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Seat planner CLI - Allocate employees to seats",
		Long:  `A CLI tool for importing office rosters, running batch seat allocations and managing individual seat assignments.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Logger != nil {
				_ = app.Logger.Sync()
			}
			if app.Store != nil {
				app.Store.Close()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.ImportCmd(app))
	rootCmd.AddCommand(commands.AllocateCmd(app))
	rootCmd.AddCommand(commands.AssignCmd(app))
	rootCmd.AddCommand(commands.FreeCmd(app))
	rootCmd.AddCommand(commands.TransitionCmd(app))
	rootCmd.AddCommand(commands.ValidateCmd(app))
	rootCmd.AddCommand(commands.ListCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, store and engine
func initApp() error {
	var err error
	app.Env = env
	app.Ctx = context.Background()

	app.Logger, err = logging.InitLogger(env, logging.Options{Verbose: verbose})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Debug("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	engineCfg, err := app.Cfg.EngineConfig()
	if err != nil {
		return fmt.Errorf("failed to build engine config: %w", err)
	}
	app.Engine = allocator.NewEngine(engineCfg)

	if app.Cfg.DatabaseURL != "" {
		app.Logger.Debug("Connecting to database")
		app.Postgres, err = postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		app.Store = app.Postgres
		app.Logger.Info("Database connected")
		return nil
	}

	// Without a database the roster file is loaded into memory on each start
	app.Logger.Info("No database configured, using in-memory store", zap.String("roster_file", app.Cfg.RosterFile))
	app.Store = db.NewMemoryStore()
	r, err := roster.Load(app.Cfg.RosterFile, roster.Options{DefaultWorkDays: app.Cfg.DefaultWorkDays})
	if err != nil {
		return err
	}
	return services.ImportRoster(app.Ctx, app.Store, app.Logger, r)
}
