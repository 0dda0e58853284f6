package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"spendlog/internal/config"
	applog "spendlog/internal/log"
)

// App is the spendlog command tree.
type App struct {
	rootCmd    *cobra.Command
	configPath string

	cfg    config.Config
	logger *applog.Logger

	in  io.Reader
	out io.Writer
}

// NewApp builds the root command and its subcommands.
func NewApp() *App {
	app := &App{in: os.Stdin, out: os.Stdout}

	rootCmd := &cobra.Command{
		Use:           "spendlog",
		Short:         "Personal expense tracker with budgets and analytics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runMenu(cmd.Context())
		},
	}
	rootCmd.PersistentFlags().StringVarP(&app.configPath, "config", "c", "config.yaml",
		"Path to a YAML configuration file (missing files are ignored)")

	rootCmd.AddCommand(
		app.serveCommand(),
		app.menuCommand(),
		app.workerCommand(),
		app.importCommand(),
		app.exportCommand(),
		app.syncCommand(),
	)

	app.rootCmd = rootCmd
	return app
}

// Execute runs the CLI application.
func (app *App) Execute() error {
	return app.rootCmd.ExecuteContext(context.Background())
}

// SetIO redirects the interactive streams, and command output.
func (app *App) SetIO(in io.Reader, out io.Writer) {
	app.in = in
	app.out = out
	app.rootCmd.SetOut(out)
	app.rootCmd.SetErr(out)
}

// SetArgs overrides os.Args for the next Execute.
func (app *App) SetArgs(args []string) {
	app.rootCmd.SetArgs(args)
}

func (app *App) init() error {
	LoadEnvFile()
	cfg, err := LoadAndValidateConfig(app.configPath)
	if err != nil {
		return err
	}
	app.cfg = cfg
	app.logger = SetupLogger(cfg)
	return nil
}

func (app *App) menuCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Start the interactive text menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runMenu(cmd.Context())
		},
	}
}
