package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkowalski/staffrota/cmd/cli/commands"
	"github.com/mkowalski/staffrota/internal/config"
	"github.com/mkowalski/staffrota/pkg/clients/holidayclient"
	"github.com/mkowalski/staffrota/pkg/clients/notifyclient"
	"github.com/mkowalski/staffrota/pkg/postgres"
	"github.com/mkowalski/staffrota/pkg/utils/logging"
)

var (
	configPath string
	app        *commands.AppContext
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "staffrota",
		Short: "Staff rota CLI - Manage shift coverage, swaps, and hotline rotations",
		Long:  `A CLI tool for analyzing shift coverage, bulk-generating schedule entries, validating shift swaps, and drafting hotline duty rotations.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				if app.Logger != nil {
					app.Logger.Sync()
				}
				if app.Database != nil {
					app.Database.Close()
				}
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the config file (defaults to staffrota_config.yaml)")

	rootCmd.AddCommand(commands.AnalyzeCoverageCmd(appRef()))
	rootCmd.AddCommand(commands.GenerateAssignmentsCmd(appRef()))
	rootCmd.AddCommand(commands.CreateSwapCmd(appRef()))
	rootCmd.AddCommand(commands.ClaimSwapCmd(appRef()))
	rootCmd.AddCommand(commands.ApproveSwapCmd(appRef()))
	rootCmd.AddCommand(commands.RejectSwapCmd(appRef()))
	rootCmd.AddCommand(commands.EstimateImpactCmd(appRef()))
	rootCmd.AddCommand(commands.GenerateRotationCmd(appRef()))
	rootCmd.AddCommand(commands.ReviewRotationCmd(appRef()))
	rootCmd.AddCommand(commands.FinalizeRotationCmd(appRef()))
	rootCmd.AddCommand(commands.DiscardRotationCmd(appRef()))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// appRef returns the shared AppContext, created empty up front so commands can
// capture it before initApp fills it in
func appRef() *commands.AppContext {
	if app == nil {
		app = &commands.AppContext{}
	}
	return app
}

// initApp sets up logger, config, clients, and database
func initApp() error {
	var err error
	app = appRef()
	app.Ctx = context.Background()

	app.Logger, err = logging.InitLogger("staffrota")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Debug("Loading configuration")
	if configPath != "" {
		app.Cfg, err = config.LoadFromPath(configPath)
	} else {
		app.Cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app.Logger.Debug("Connecting to database")
	app.Database, err = postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := app.Database.RunMigrations(app.Ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	app.Holidays, err = holidayclient.New(app.Cfg)
	if err != nil {
		return fmt.Errorf("failed to create holiday client: %w", err)
	}

	if app.Cfg.Notifications.Enabled {
		app.Logger.Debug("Initializing notification client")
		var notifier *notifyclient.Client
		notifier, err = notifyclient.NewClient(app.Ctx, &app.Cfg.Notifications)
		if err != nil {
			return fmt.Errorf("failed to create notification client: %w", err)
		}
		app.Notifier = notifier
	}

	app.Logger.Info("Application initialized")
	return nil
}
