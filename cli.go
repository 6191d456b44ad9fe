package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PedroElizalde01/gecscore/config"
	"github.com/PedroElizalde01/gecscore/dataset"
	"github.com/PedroElizalde01/gecscore/diff"
	"github.com/PedroElizalde01/gecscore/observe"
	"github.com/PedroElizalde01/gecscore/score"
	"github.com/PedroElizalde01/gecscore/server"
	"github.com/PedroElizalde01/gecscore/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var version = "dev"

const defaultEnvFile = ".env"

// app carries settings resolved by the root command to its subcommands.
type app struct {
	configPath string
	envFile    string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "gecscore",
		Short:         "Diff and score grammatical error corrections",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", defaultEnvFile, ".env file loaded before the environment is read")

	root.AddCommand(
		newEvalCmd(a),
		newDiffCmd(),
		newBrowseCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	optional := !cmd.Flags().Changed("env-file")
	if err := config.LoadEnv(optional, a.envFile); err != nil {
		return err
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	slog.SetDefault(newLogger(cfg.LogLevel, os.Stderr))
	return nil
}

func (a *app) columns() dataset.Columns {
	return dataset.Columns{
		ID:       a.cfg.Data.IDColumn,
		Original: a.cfg.Data.OriginalColumn,
		Target:   a.cfg.Data.TargetColumn,
	}
}

// loadPairs reads both datasets, trims them to limit rows when limit is
// positive and lines them up for scoring.
func (a *app) loadPairs(truePath, predPath string, limit int) (*dataset.Table, []score.Pair, []score.Pair, error) {
	cols := a.columns()
	truth, err := dataset.LoadTrue(truePath, cols)
	if err != nil {
		return nil, nil, nil, err
	}
	pred, err := dataset.LoadPredicted(predPath, cols)
	if err != nil {
		return nil, nil, nil, err
	}
	if limit > 0 {
		truth = truth.Head(limit)
		pred = pred.Head(limit)
	}

	truePairs, predPairs, err := dataset.Align(truth, pred)
	if err != nil {
		return nil, nil, nil, err
	}
	slog.Debug("datasets loaded", "true", truePath, "predicted", predPath, "rows", truth.Len())
	return truth, truePairs, predPairs, nil
}

func newEvalCmd(a *app) *cobra.Command {
	var (
		truePath, predPath string
		format, output     string
		rowsPath           string
		metricsPath        string
		workers, limit     int
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Score predicted corrections against gold corrections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("format") {
				cfg.Output.Format = config.Format(format)
				if !cfg.Output.Format.IsValid() {
					return fmt.Errorf("--format %q is invalid; valid values: text, json", format)
				}
			}
			if cmd.Flags().Changed("output") {
				cfg.Output.Path = output
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}
			if cmd.Flags().Changed("limit") {
				cfg.Data.Limit = limit
			}

			table, truth, pred, err := a.loadPairs(truePath, predPath, cfg.Data.Limit)
			if err != nil {
				return err
			}

			start := time.Now()
			rows, err := score.EvaluateRows(cmd.Context(), truth, pred, score.WithWorkers(cfg.Workers))
			if err != nil {
				return err
			}
			total := score.Sum(rows)
			report := score.NewReport(total)
			elapsed := time.Since(start)
			if metricsPath != "" {
				if err := writeMetrics(cmd.Context(), metricsPath, len(rows), total, elapsed); err != nil {
					return err
				}
			}

			for _, row := range rows {
				if row.Counts.Errors() == 0 {
					continue
				}
				slog.Debug("row with errors",
					"id", table.ID(row.Index),
					"tp", row.Counts.TruePositive,
					"fp", row.Counts.FalsePositive,
					"fm", row.Counts.FalseMissing,
					"fr", row.Counts.FalseRedundant,
				)
			}
			slog.Info("evaluation complete",
				"rows", len(rows),
				"recall", report.Recall,
				"precision", report.Precision,
				"duration", elapsed,
			)

			if rowsPath != "" {
				if err := writeFile(rowsPath, func(w io.Writer) error {
					return dataset.WriteRows(w, table, rows)
				}); err != nil {
					return err
				}
			}
			return writeReport(cmd.OutOrStdout(), cfg.Output, report, len(rows))
		},
	}

	cmd.Flags().StringVar(&truePath, "true", "", "CSV with original and gold corrected sentences")
	cmd.Flags().StringVar(&predPath, "pred", "", "CSV with predicted corrected sentences")
	cmd.Flags().StringVar(&format, "format", "", "report format: text or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report to this file")
	cmd.Flags().StringVar(&rowsPath, "rows", "", "write per-row counts as CSV to this file")
	cmd.Flags().StringVar(&metricsPath, "metrics", "", "write evaluation metrics as JSON to this file")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent row evaluations (0 = GOMAXPROCS)")
	cmd.Flags().IntVar(&limit, "limit", 0, "evaluate only the first N rows")
	_ = cmd.MarkFlagRequired("true")
	_ = cmd.MarkFlagRequired("pred")
	return cmd
}

// writeMetrics records one evaluation on an in-memory provider and writes
// the collected points to path.
func writeMetrics(ctx context.Context, path string, rows int, total score.Counts, elapsed time.Duration) error {
	met, snap, err := observe.NewSnapshot()
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() { _ = snap.Shutdown(context.Background()) }()

	met.RecordEvaluation(ctx, "cli", rows, total, elapsed)
	return writeFile(path, func(w io.Writer) error {
		return snap.WriteJSON(ctx, w)
	})
}

func writeReport(stdout io.Writer, out config.OutputConfig, report score.Report, rows int) error {
	if out.Path != "" {
		return writeFile(out.Path, func(w io.Writer) error {
			return dataset.WriteReport(w, report, string(out.Format))
		})
	}
	if out.Format == config.FormatText && isTerminal(stdout) {
		_, err := fmt.Fprintln(stdout, ui.RenderReport(report, rows))
		return err
	}
	return dataset.WriteReport(stdout, report, string(out.Format))
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return write(f)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func newDiffCmd() *cobra.Command {
	var raw, asJSON bool

	cmd := &cobra.Command{
		Use:   "diff ORIGINAL OTHER",
		Short: "Show the divergence spans between two sentences",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var spans []diff.Span
			if raw {
				spans = diff.Raw(args[0], args[1])
			} else {
				spans = diff.Diff(args[0], args[1])
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if spans == nil {
					spans = []diff.Span{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(spans)
			}
			_, err := fmt.Fprintln(out, ui.RenderSpans(spans))
			return err
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "skip merging of nearby spans")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print spans as JSON")
	return cmd
}

func newBrowseCmd(a *app) *cobra.Command {
	var truePath, predPath, logFile string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse per-row evaluation results in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The alternate screen owns the terminal, so logs go to a file or nowhere.
			var logOut io.Writer = io.Discard
			if logFile != "" {
				f, err := tea.LogToFile(logFile, "gecscore")
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				logOut = f
			}
			slog.SetDefault(newLogger(a.cfg.LogLevel, logOut))

			limit := a.cfg.Data.Limit
			load := func() (*dataset.Table, []score.Pair, []score.Pair, error) {
				return a.loadPairs(truePath, predPath, limit)
			}

			p := tea.NewProgram(initialModel(load, a.cfg.Workers), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("browse: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&truePath, "true", "", "CSV with original and gold corrected sentences")
	cmd.Flags().StringVar(&predPath, "pred", "", "CSV with predicted corrected sentences")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file while browsing")
	_ = cmd.MarkFlagRequired("true")
	_ = cmd.MarkFlagRequired("pred")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP scoring service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.ListenAddr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			met, shutdown, err := observe.InitProvider(ctx, version)
			if err != nil {
				return fmt.Errorf("init metrics: %w", err)
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
					slog.Warn("metrics shutdown", "err", err)
				}
			}()

			srv := server.New(server.Options{
				Metrics: met,
				Logger:  slog.Default(),
				Workers: a.cfg.Workers,
			})
			slog.Info("gecscore starting", "version", version, "listen_addr", a.cfg.Server.ListenAddr)
			return srv.ListenAndServe(ctx, a.cfg.Server.ListenAddr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.listen_addr)")
	return cmd
}

func newLogger(level config.LogLevel, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
