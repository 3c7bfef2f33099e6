// Command ingest is the football tracker's batch scraping CLI.
//
// Usage:
//
//	futbol-ingest run
//	futbol-ingest run --only "Eibar B,Ekain Etxebarria" --dry-run
//	futbol-ingest sources
//	futbol-ingest migrate
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	crerr "github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/futbol-tracker/internal/browser"
	"github.com/albapepper/futbol-tracker/internal/config"
	"github.com/albapepper/futbol-tracker/internal/extract"
	"github.com/albapepper/futbol-tracker/internal/normalize"
	"github.com/albapepper/futbol-tracker/internal/pipeline"
	"github.com/albapepper/futbol-tracker/internal/publish"
	"github.com/albapepper/futbol-tracker/internal/store"
	"github.com/albapepper/futbol-tracker/internal/store/backend"
	"github.com/albapepper/futbol-tracker/internal/store/postgres"
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:           "futbol-ingest",
		Short:         "Scrape tracked teams and players and publish them to the document store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(runCmd())
	root.AddCommand(sourcesCmd())
	root.AddCommand(migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// --------------------------------------------------------------------------
// run command
// --------------------------------------------------------------------------

func runCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every source once and publish the accepted records",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := newLogger(cfg.LogLevel).With("run_id", uuid.NewString())
			slog.SetDefault(logger)

			catalog, err := config.LoadSources(cfg.SourcesFile)
			if err != nil {
				return fmt.Errorf("load sources: %w", err)
			}

			// A dry run never commits, so it does not need a reachable store.
			var st store.Store = store.NewMemory()
			if !opts.dryRun {
				st, err = backend.Open(ctx, cfg)
				if err != nil {
					return err
				}
			}
			defer st.Close()

			b, err := browser.NewChrome(ctx, browserOptions(cfg), logger)
			if err != nil {
				return fmt.Errorf("launch browser: %w", err)
			}
			defer b.Close()

			_, _, err = ingest(ctx, cfg, catalog, b, st, opts, logger)
			return err
		},
	}
	cmd.Flags().StringSliceVar(&opts.only, "only", nil, "Comma-separated source names to run (default: all)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Extract and validate but do not write to the store")
	return cmd
}

type runOptions struct {
	only   []string
	dryRun bool
}

// ingest runs extraction then publish. Extraction failures are reported but
// never fail the run; only a configuration error or a failed commit does.
func ingest(ctx context.Context, cfg *config.Config, catalog *config.Catalog, b browser.Browser,
	st store.Store, opts runOptions, logger *slog.Logger) (pipeline.RunResult, publish.Result, error) {
	sources, err := catalog.Filter(opts.only)
	if err != nil {
		return pipeline.RunResult{}, publish.Result{}, fmt.Errorf("select sources: %w", err)
	}
	logger.Info("starting run", "sources", len(sources), "dry_run", opts.dryRun, "store", cfg.StoreBackend)

	orch := pipeline.New(b, extract.NewRegistry(catalog.GoalsRules), pipeline.Options{
		Timeouts: extract.Timeouts{
			Navigation: cfg.NavigationTimeout,
			Element:    cfg.ElementTimeout,
			Settle:     cfg.SettleTimeout,
			Consent:    cfg.ConsentTimeout,
		},
		Pacing: cfg.NavigationPacing,
	}, logger)

	run := orch.Run(ctx, sources)
	for _, t := range run.Tasks {
		if !t.Success {
			logger.Warn("task failed", "summary", t.Summary())
		}
	}

	// The publish step runs even after cancellation so that finished work
	// is not lost.
	pub, err := publish.NewWriter(st, opts.dryRun, logger).Write(context.WithoutCancel(ctx), run.Envelopes)
	if err != nil {
		if crerr.Is(err, publish.ErrCommit) {
			logger.Error("publish failed, nothing written", "error", err)
		}
		return run, pub, err
	}

	logger.Info("run complete", "extract", run.Summary(), "publish", pub.Summary())
	return run, pub, nil
}

func browserOptions(cfg *config.Config) browser.Options {
	return browser.Options{
		Headless:       cfg.Headless,
		NoSandbox:      cfg.NoSandbox,
		ExecPath:       cfg.ChromePath,
		UserAgent:      cfg.UserAgent,
		AcceptLanguage: cfg.AcceptLanguage,
		Width:          cfg.ViewportWidth,
		Height:         cfg.ViewportHeight,
		ActionTimeout:  cfg.ActionTimeout,
	}
}

// --------------------------------------------------------------------------
// sources command
// --------------------------------------------------------------------------

func sourcesCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Validate and list the source catalog with the document keys each source writes",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := config.LoadSources(path)
			if err != nil {
				return err
			}
			return printSources(cmd.OutOrStdout(), catalog)
		},
	}
	cmd.Flags().StringVar(&path, "file", os.Getenv("SOURCES_FILE"), "Catalog YAML (default: embedded)")
	return cmd
}

func printSources(w io.Writer, catalog *config.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tPHASE\tKEYS")
	for _, src := range pipeline.Order(catalog.Sources) {
		var keys []string
		for _, out := range extract.Outputs(src) {
			keys = append(keys, normalize.DocID(out.Category, out.Name))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", src.Name, src.Type, src.Type.Phase(), strings.Join(keys, ","))
	}
	return tw.Flush()
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres documents table and merge function",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.StoreBackend != config.StorePostgres {
				return fmt.Errorf("migrate requires STORE_BACKEND=%s, got %q", config.StorePostgres, cfg.StoreBackend)
			}
			logger := newLogger(cfg.LogLevel)
			if err := postgres.Migrate(ctx, cfg.DatabaseURL); err != nil {
				return err
			}
			logger.Info("schema applied")
			return nil
		},
	}
}
