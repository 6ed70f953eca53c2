package commands

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/seatplanner/internal/config"
	"github.com/jakechorley/seatplanner/pkg/clients/sheetsclient"
	"github.com/jakechorley/seatplanner/pkg/core/allocator"
	"github.com/jakechorley/seatplanner/pkg/db"
	"github.com/jakechorley/seatplanner/pkg/postgres"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Env    string
	Cfg    *config.Config
	Store  db.Store
	Engine *allocator.Engine
	Logger *zap.Logger
	Ctx    context.Context

	// Postgres is nil when running against the in-memory store
	Postgres *postgres.DB

	sheetsClient *sheetsclient.Client
}

// SheetsClient connects to Google Sheets on first use. The OAuth flow may
// open a browser, so commands that never touch sheets never trigger it.
func (app *AppContext) SheetsClient() (*sheetsclient.Client, error) {
	if app.sheetsClient != nil {
		return app.sheetsClient, nil
	}
	if app.Cfg.Sheets == nil {
		return nil, errors.New("no sheets section in config")
	}

	app.Logger.Info("Loading OAuth client configuration")
	oauthCfg, err := config.LoadOAuthClientWithEnv(app.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to load OAuth client config: %w", err)
	}

	app.Logger.Info("Initializing sheets client")
	client, err := sheetsclient.NewClient(app.Ctx, oauthCfg, app.Env, app.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	app.sheetsClient = client
	return client, nil
}
