package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"spendlog/internal/amqp"
	"spendlog/internal/core"
	apphttp "spendlog/internal/http"
	applog "spendlog/internal/log"
	"spendlog/internal/menu"
	"spendlog/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func (app *App) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := GracefulShutdown(cmd.Context(), app.logger)
			defer cancel()
			return app.serve(ctx)
		},
	}
}

func (app *App) serve(ctx context.Context) error {
	rt, err := OpenRuntime(ctx, app.cfg, app.logger, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	srv := apphttp.NewServer(app.cfg.Addr(), apphttp.Dependencies{
		Tracker:            rt.Tracker,
		Analytics:          rt.Analytics,
		Ready:              rt.Repo.Ping,
		CSVDir:             app.cfg.Data.CSVDir,
		Logger:             app.logger,
		RateLimitPerMinute: app.cfg.RateLimit.PerMinute,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.logger.Info("Starting spendlog server", "addr", srv.Addr, "data_file", app.cfg.Data.File)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		app.logger.Info("Server stopped gracefully")
		return nil
	})

	return g.Wait()
}

func (app *App) runMenu(ctx context.Context) error {
	rt, err := OpenRuntime(ctx, app.cfg, app.logger, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	return menu.New(app.in, app.out, rt.Tracker, rt.Analytics, app.cfg.Data.CSVDir).Run(ctx)
}

func (app *App) workerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Keep the analytics database in step with the data file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := GracefulShutdown(cmd.Context(), app.logger)
			defer cancel()
			return app.runWorker(ctx)
		},
	}
}

func (app *App) runWorker(ctx context.Context) error {
	logger := app.logger.WithComponent(applog.ComponentWorker)

	rt, err := OpenRuntime(ctx, app.cfg, app.logger, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	var consumer worker.ChangeConsumer
	if app.cfg.AMQP.URL != "" {
		client, err := amqp.DialWithRetry(ctx, app.cfg.AMQP.URL, app.cfg.AMQP.Exchange, app.cfg.AMQP.Queue)
		if err != nil {
			return fmt.Errorf("connect to AMQP: %w", err)
		}
		defer client.Close()
		consumer = client
	} else {
		logger.Info("AMQP not configured, running periodic refresh only")
	}

	w := worker.NewSyncWorker(rt.Store, rt.Repo, consumer, app.cfg.Worker.SyncInterval)
	logger.Info("Sync worker starting", "interval", app.cfg.Worker.SyncInterval)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Sync worker stopped")
	return nil
}

func (app *App) importCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Merge expenses.csv, categories.csv and budgets.csv into the data file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = app.cfg.Data.CSVDir
			}
			rt, err := OpenRuntime(cmd.Context(), app.cfg, app.logger, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			report, err := rt.Tracker.ImportCSV(cmd.Context(), dir)
			if err != nil {
				return err
			}
			for _, name := range report.Missing {
				pterm.Warning.WithWriter(app.out).Printfln("File %s not found, skipped", name)
			}
			for _, row := range report.Skipped {
				pterm.Warning.WithWriter(app.out).Printfln("Skipped %s line %d: %s", row.File, row.Line, row.Reason)
			}
			pterm.Success.WithWriter(app.out).Printfln("Imported %d expenses, %d categories and %d budgets",
				report.Expenses, report.Categories, report.Budgets)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory holding the CSV files (default: data.csvdir)")
	return cmd
}

func (app *App) exportCommand() *cobra.Command {
	var (
		dir    string
		format string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the data out as CSV files, an XLSX workbook or a PDF report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = app.cfg.Data.CSVDir
			}
			rt, err := OpenRuntime(cmd.Context(), app.cfg, app.logger, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			switch format {
			case "csv":
				if err := rt.Tracker.ExportCSV(cmd.Context(), dir); err != nil {
					return err
				}
				pterm.Success.WithWriter(app.out).Printfln("Data exported to %s", dir)
			case "xlsx":
				path := filepath.Join(dir, menu.WorkbookFile)
				err := createFile(path, func(w io.Writer) error { return rt.Tracker.ExportWorkbook(cmd.Context(), w) })
				if err != nil {
					return err
				}
				pterm.Success.WithWriter(app.out).Printfln("Workbook written to %s", path)
			case "pdf":
				path := filepath.Join(dir, menu.ReportFile)
				err := createFile(path, func(w io.Writer) error { return rt.Analytics.ExportReport(cmd.Context(), w) })
				if err != nil {
					return err
				}
				pterm.Success.WithWriter(app.out).Printfln("Report written to %s", path)
			default:
				return fmt.Errorf("unknown export format %q: must be csv, xlsx or pdf", format)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Output directory (default: data.csvdir)")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Export format: csv, xlsx or pdf")
	return cmd
}

// createFile opens path for an export and hands it to render.
func createFile(path string, render func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create export directory: %w: %w", core.ErrPersistence, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w: %w", filepath.Base(path), core.ErrPersistence, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w: %w", filepath.Base(path), core.ErrPersistence, cerr)
		}
	}()
	return render(f)
}

func (app *App) syncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Rebuild the analytics database once",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := OpenRuntime(cmd.Context(), app.cfg, app.logger, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			n, err := rt.Analytics.Sync(cmd.Context())
			if err != nil {
				return err
			}
			pterm.Success.WithWriter(app.out).Printfln("Analytics synced: %d records", n)
			return nil
		},
	}
}
