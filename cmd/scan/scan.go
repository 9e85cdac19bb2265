package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/leakscan/internal/decompiler"
	"github.com/scan-io-git/leakscan/internal/normalize"
	"github.com/scan-io-git/leakscan/internal/output"
	"github.com/scan-io-git/leakscan/internal/report"
	"github.com/scan-io-git/leakscan/internal/rules"
	scanning "github.com/scan-io-git/leakscan/internal/scan"
	"github.com/scan-io-git/leakscan/internal/search"
	"github.com/scan-io-git/leakscan/internal/store"
	"github.com/scan-io-git/leakscan/pkg/shared"
	"github.com/scan-io-git/leakscan/pkg/shared/config"
	serrors "github.com/scan-io-git/leakscan/pkg/shared/errors"
	"github.com/scan-io-git/leakscan/pkg/shared/files"
	"github.com/scan-io-git/leakscan/pkg/shared/logger"
)

// RunOptionsScan holds the arguments for the scan command.
type RunOptionsScan struct {
	ArtifactPath   string
	SourceDir      string
	Format         string
	PatternPath    string
	DecompilerArgs string
	ArtifactID     string
	OutputPath     string
	Jobs           int
	Dedup          bool
}

// Global variables for configuration and command arguments
var (
	AppConfig        *config.Config
	scanOptions      RunOptionsScan
	exampleScanUsage = `  # Scanning an application package with the default catalog
  leakscan scan /path/to/app.apk

  # Scanning with a custom catalog and a JSON report
  leakscan scan --pattern /path/to/regexes.json --format json /path/to/app.apk

  # Passing extra arguments to the decompiler
  leakscan scan --args "--deobf --threads-count=4" /path/to/app.apk

  # Scanning an already decompiled tree under an explicit artifact identity
  leakscan scan --source-dir /path/to/sources --artifact-id com.example.app

  # Limiting concurrency, removing repeated matches and keeping an extra copy of the report
  leakscan scan -j 4 --dedup --output /path/to/report.txt /path/to/app.apk`
)

// ScanCmd represents the scan command.
var ScanCmd = &cobra.Command{
	Use:                   "scan [--format/-f text|json|sarif] [--pattern/-p PATH] [--args ARGS] [--artifact-id ID] [-j JOBS] [--dedup] [--output/-o PATH] {--source-dir PATH | ARTIFACT}",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleScanUsage,
	Short:                 "Decompiles an artifact, searches it for secrets and publishes the report when it changed",
	RunE:                  runScanCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runScanCommand executes the scan command.
func runScanCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	logger := logger.NewLoggerTo(AppConfig, "core-scan", cmd.ErrOrStderr())

	if err := validateScanArgs(&scanOptions, args); err != nil {
		logger.Error("invalid scan arguments", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := runScan(ctx, AppConfig, &scanOptions, cmd.OutOrStdout(), logger)
	if err != nil {
		if errors.Is(err, serrors.ErrScanAborted) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Interrupted. Aborting.")
		}
		logger.Error("scan command failed", "error", err)
		return serrors.NewCommandError(err)
	}

	printOutcome(cmd.ErrOrStderr(), res)
	logger.Info("scan command completed successfully")
	return nil
}

// scanPipeline carries the pieces of a scan that talk to the outside world.
type scanPipeline struct {
	searcher   search.Searcher
	decompiler decompiler.Decompiler
}

func newScanPipeline(cfg *config.Config, logger hclog.Logger) *scanPipeline {
	return &scanPipeline{
		searcher:   search.NewFS(logger.Named("search")),
		decompiler: decompiler.NewJadx(config.GetJadxPath(cfg), logger.Named("jadx")),
	}
}

// runScan loads the catalog, prepares the corpus, runs the coordinator and
// publishes the rendered report.
func runScan(ctx context.Context, cfg *config.Config, opts *RunOptionsScan, out io.Writer, logger hclog.Logger) (store.Result, error) {
	return newScanPipeline(cfg, logger).run(ctx, cfg, opts, out, logger)
}

func (p *scanPipeline) run(ctx context.Context, cfg *config.Config, opts *RunOptionsScan, out io.Writer, logger hclog.Logger) (store.Result, error) {
	format, err := output.ParseFormat(opts.Format)
	if err != nil {
		return store.Result{}, err
	}

	catalog, err := rules.Load(config.SetThen(opts.PatternPath, cfg.Leakscan.RulesPath))
	if err != nil {
		return store.Result{}, err
	}

	artifactID := resolveArtifactID(opts)
	key := store.Key{ArtifactID: artifactID, Ext: format.Extension()}
	if err := key.Validate(); err != nil {
		return store.Result{}, fmt.Errorf("invalid artifact id: %w", err)
	}

	corpusRoot, cleanup, err := prepareCorpus(ctx, cfg, opts, p.decompiler, logger)
	if err != nil {
		return store.Result{}, err
	}
	defer cleanup()

	sc := scanning.NewContext(artifactID, corpusRoot, logger)

	normalizer := normalize.Default()
	if opts.Dedup {
		normalizer.Use(normalize.Dedup)
	}

	coordOpts := []scanning.Option{
		scanning.WithJobs(config.SetThen(opts.Jobs, cfg.Leakscan.Jobs)),
	}
	// Text results are rendered as rules are released and printed once the run
	// has finished, so an aborted scan prints nothing.
	var pending *output.PendingText
	if format.Streaming() {
		pending = output.NewPendingText()
		coordOpts = append(coordOpts, scanning.WithResultSink(func(rr report.RuleResult) {
			sc.Logger.Info("rule released", "rule", rr.Name, "matches", len(rr.Matches))
			pending.Write(rr)
		}))
	}

	coordinator := scanning.New(p.searcher, normalizer, coordOpts...)
	rep, err := coordinator.Run(ctx, sc, catalog)
	if err != nil {
		return store.Result{}, err
	}

	data, err := output.Render(rep, format)
	if err != nil && !errors.Is(err, output.ErrNothingToPublish) {
		return store.Result{}, err
	}
	if pending != nil {
		if err := pending.Commit(out); err != nil {
			sc.Logger.Warn("failed to print report", "error", err)
		}
	} else if len(data) > 0 {
		if _, err := out.Write(data); err != nil {
			sc.Logger.Warn("failed to print report", "error", err)
		}
	}

	if opts.OutputPath != "" && len(data) > 0 {
		copyPath, err := files.ResolveOutputFile(opts.OutputPath, key.Name())
		if err != nil {
			return store.Result{}, err
		}
		if err := files.WriteFileAtomic(copyPath, data, 0644); err != nil {
			return store.Result{}, fmt.Errorf("failed to write report copy %q: %w", copyPath, err)
		}
		sc.Logger.Info("report copy written", "path", copyPath)
	}

	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		return store.Result{}, err
	}
	return publisher.Publish(ctx, sc, key, data)
}

// prepareCorpus returns the folder to search and a cleanup func removing any
// workspace created for it.
func prepareCorpus(ctx context.Context, cfg *config.Config, opts *RunOptionsScan, dec decompiler.Decompiler, logger hclog.Logger) (string, func(), error) {
	if opts.SourceDir != "" {
		if err := files.ValidateDir(opts.SourceDir); err != nil {
			return "", nil, serrors.Wrap(serrors.ErrCorpus, "invalid source dir %q: %w", opts.SourceDir, err)
		}
		return opts.SourceDir, func() {}, nil
	}

	ws, err := decompiler.NewWorkspace(config.GetTempFolder(cfg), logger)
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = ws.Close() }

	if err := dec.Decompile(ctx, opts.ArtifactPath, ws.Dir, decompiler.SplitArgs(opts.DecompilerArgs)); err != nil {
		cleanup()
		return "", nil, err
	}
	return ws.Dir, cleanup, nil
}

func printOutcome(w io.Writer, res store.Result) {
	switch res.Outcome {
	case store.DiscardedEmpty:
		fmt.Fprintln(w, "nothing found, nothing published")
	case store.Created:
		fmt.Fprintf(w, "Baseline created: %s\n", res.Location)
	case store.Replaced:
		fmt.Fprintf(w, "Baseline replaced: %s\n", res.Location)
	case store.Unchanged:
		fmt.Fprintf(w, "No changes since the last scan: %s\n", res.Location)
	}
}

// Initialize flags for the scan command.
func init() {
	ScanCmd.Flags().StringVarP(&scanOptions.Format, "format", "f", string(output.FormatText), "Format of the report: text, json or sarif.")
	ScanCmd.Flags().StringVarP(&scanOptions.PatternPath, "pattern", "p", "", "Path to a custom rule catalog in JSON or YAML.")
	ScanCmd.Flags().StringVar(&scanOptions.DecompilerArgs, "args", "", "Extra arguments passed to the decompiler, e.g. \"--deobf --threads-count=4\".")
	ScanCmd.Flags().StringVar(&scanOptions.ArtifactID, "artifact-id", "", "Identity of the artifact, used to name the baseline. Defaults to the artifact file name without extension.")
	ScanCmd.Flags().StringVar(&scanOptions.SourceDir, "source-dir", "", "Scan an already decompiled source tree instead of an artifact.")
	ScanCmd.Flags().StringVarP(&scanOptions.OutputPath, "output", "o", "", "Path to write an extra copy of the report to. A directory receives <artifact-id>.<ext>.")
	ScanCmd.Flags().IntVarP(&scanOptions.Jobs, "jobs", "j", 0, "Number of extraction tasks to run at once (0 means one per pattern).")
	ScanCmd.Flags().BoolVar(&scanOptions.Dedup, "dedup", false, "Remove repeated matches within a rule.")
	ScanCmd.Flags().BoolP("help", "h", false, "Show help for the scan command.")
}
