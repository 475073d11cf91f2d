package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nao1215/mintmerge/internal/config"
	"github.com/nao1215/mintmerge/internal/database"
	"github.com/nao1215/mintmerge/internal/fragment"
	"github.com/nao1215/mintmerge/internal/model"
	"github.com/nao1215/mintmerge/internal/pipeline"
	"github.com/nao1215/mintmerge/internal/report"
	"github.com/spf13/cobra"
)

// NewBuildCmd creates the build command.
func NewBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Aggregate navigation fragments into the site configuration",
		Long: `Build searches the root for navigation fragments and writes the site configuration.

The build runs these steps and stops at the first failure:
- Discover every config.js below the root (sorted by path)
- Load each fragment and keep its default export
- Merge the base configuration parts in the order common, tab, anchor
- Move the previous output to the backup directory
- Write the base configuration with a "navigation" list of all fragments

Examples:
  # Build mint.json in the current directory
  mintmerge build

  # Build another tree
  mintmerge build --root docs

  # Print the document without writing anything
  mintmerge build --dry-run

  # Load fragments concurrently and keep the last 10 backups
  mintmerge build -j 8 --keep-backups 10

  # Record the build and write a Markdown summary
  mintmerge build --record --summary build-summary.md

Configuration file (.mintmerge) example:
  output: mint.json
  backupDir: bk
  baseDir: base
  exclude:
    - node_modules`,
		Args: cobra.NoArgs,
		RunE: runBuildCmd,
	}

	// Location flags
	cmd.Flags().StringP("root", "r", "",
		"Directory searched for fragments (default: current directory)")
	cmd.Flags().StringP("output", "o", config.DefaultOutput,
		"Site configuration file to write (relative to the root)")
	cmd.Flags().StringP("backup-dir", "b", config.DefaultBackupDir,
		"Directory receiving the previous output (relative to the root)")
	cmd.Flags().String("base-dir", config.DefaultBaseDir,
		"Directory holding the common, tab and anchor parts (empty disables the base)")

	// Discovery flags
	cmd.Flags().StringArrayP("name", "n", []string{config.DefaultFragmentName},
		"File name treated as a fragment (repeatable)")
	cmd.Flags().StringArrayP("exclude", "x", nil,
		"Directory name pattern skipped during discovery (repeatable)")
	cmd.Flags().Bool("fs-order", false,
		"Visit directory entries in filesystem order instead of sorted by name")

	// Behavior flags
	cmd.Flags().IntP("jobs", "j", config.DefaultJobs,
		"Number of fragment files loaded at once")
	cmd.Flags().Int("keep-backups", 0,
		"Number of backups kept (0 keeps all)")
	cmd.Flags().Bool("dry-run", false,
		"Print the document instead of writing it; no backup is made")

	// Report flags
	cmd.Flags().Bool("record", false,
		"Save the build to the history database")
	cmd.Flags().String("summary", "",
		"Write a Markdown build summary to the specified file")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .mintmerge in the root or the user config directory)")

	return cmd
}

// runBuildCmd executes the build command.
func runBuildCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return configError(err)
	}

	if err := cfg.Validate(); err != nil {
		return configError(err)
	}
	if err := cfg.Resolve(); err != nil {
		return configError(err)
	}

	logger := setupLogger(cmd)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runBuild(ctx, cfg, cmd.OutOrStdout(), logger)
}

// buildConfig creates a Config from defaults, the configuration file and the
// flags set on the command line, in increasing precedence.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	root, err := flags.GetString("root")
	if err != nil {
		return nil, err
	}

	// An explicitly named file must exist; otherwise a missing file means defaults.
	found := config.FindConfigFile(configPath, root)
	switch {
	case found != "":
		cf, err := config.LoadConfigFile(found)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
		}
		cf.Apply(cfg)
		cfg.ConfigFilePath = found
	case configPath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configPath)
	}

	if flags.Changed("root") {
		cfg.Root = root
	}
	if flags.Changed("output") {
		if cfg.Output, err = flags.GetString("output"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("backup-dir") {
		if cfg.BackupDir, err = flags.GetString("backup-dir"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("base-dir") {
		if cfg.BaseDir, err = flags.GetString("base-dir"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("name") {
		if cfg.FragmentNames, err = flags.GetStringArray("name"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("exclude") {
		if cfg.Exclude, err = flags.GetStringArray("exclude"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("fs-order") {
		if cfg.FilesystemOrder, err = flags.GetBool("fs-order"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("jobs") {
		if cfg.Jobs, err = flags.GetInt("jobs"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("keep-backups") {
		if cfg.KeepBackups, err = flags.GetInt("keep-backups"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("record") {
		if cfg.Record, err = flags.GetBool("record"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("summary") {
		if cfg.SummaryFile, err = flags.GetString("summary"); err != nil {
			return nil, err
		}
	}
	if cfg.DryRun, err = flags.GetBool("dry-run"); err != nil {
		return nil, err
	}

	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.LogJSON = getBoolFlag(cmd, "log-json")

	return cfg, nil
}

// runBuild executes the build pipeline and its optional follow-ups.
// cfg must be validated and resolved.
func runBuild(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	logger.Info("starting build",
		"root", cfg.Root,
		"output", cfg.Output,
		"configFile", cfg.ConfigFilePath,
		"jobs", cfg.Jobs,
		"dryRun", cfg.DryRun,
	)

	registry := fragment.NewRegistry(
		fragment.WithModuleConsole(out),
		fragment.WithLogger(logger),
	)

	p := createPipeline(cfg, registry, newProgressPrinter(out, cfg.Output), logger)
	build := pipeline.NewBuild(cfg.Root, cfg.Output)

	if err := p.Execute(ctx, build); err != nil {
		return err
	}

	if cfg.DryRun {
		data, err := report.MarshalDocument(build.Document)
		if err != nil {
			return fmt.Errorf("%w: %w", model.ErrWrite, err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		fmt.Fprintln(out, "---")
		fmt.Fprintf(out, "%s generated (navigation: %d items)\n",
			filepath.Base(cfg.Output), len(build.Fragments))
		if cfg.Verbose {
			fmt.Fprintln(out)
			if _, err := report.NewSimpleWriter(out, report.WithVerbose(true)).WriteBuild(build); err != nil {
				logger.Warn("failed to print build details", "error", err)
			}
		}
	}

	if cfg.SummaryFile != "" {
		if err := writeSummary(cfg.SummaryFile, build); err != nil {
			return err
		}
		logger.Info("build summary written", "path", cfg.SummaryFile)
	}

	if cfg.Record && !cfg.DryRun {
		recordBuild(ctx, cfg.DBDir, build, logger)
	}

	return nil
}

// createPipeline creates the build pipeline for cfg.
func createPipeline(cfg *config.Config, registry *fragment.Registry, observer pipeline.Observer, logger *slog.Logger) *pipeline.Pipeline {
	pipelineOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithObserver(observer),
	}

	configOpts := []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineFragmentNames(cfg.FragmentNames...),
		pipeline.WithPipelineExclude(cfg.Exclude...),
		pipeline.WithPipelineFilesystemOrder(cfg.FilesystemOrder),
		pipeline.WithPipelineJobs(cfg.Jobs),
		pipeline.WithPipelineBaseDir(cfg.BaseDir),
		pipeline.WithPipelineBackupDir(cfg.BackupDir),
		pipeline.WithPipelineKeepBackups(cfg.KeepBackups),
		pipeline.WithPipelineDryRun(cfg.DryRun),
		pipeline.WithPipelineLogger(logger),
	}

	return pipeline.DefaultPipeline(registry, pipelineOpts, configOpts...)
}

// newProgressPrinter returns an observer printing console progress for the
// given output file as pipeline steps complete.
func newProgressPrinter(out io.Writer, outputPath string) pipeline.ObserverFunc {
	name := filepath.Base(outputPath)
	return func(step string, build *model.Build) {
		switch step {
		case pipeline.StepDiscover:
			fmt.Fprintln(out, "=== Discovered fragments ===")
			for _, path := range build.FragmentPaths {
				fmt.Fprintf(out, " - %s\n", path)
			}
		case pipeline.StepLoad:
			for _, path := range build.Skipped {
				fmt.Fprintf(out, "Skipped %s (no default export)\n", path)
			}
		case pipeline.StepBackup:
			if build.BackupPath != "" {
				fmt.Fprintf(out, "Moved existing %s to %s\n", name, build.BackupPath)
			}
		}
	}
}

// writeSummary writes the Markdown build summary to path.
func writeSummary(path string, build *model.Build) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create summary directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644) //nolint:gosec // summary is not sensitive
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer f.Close()

	if _, err := report.NewMarkdownWriter(f).WriteBuild(build); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// recordBuild saves the build to the history database.
// The output is already written, so failures are logged rather than returned.
func recordBuild(ctx context.Context, dbDir string, build *model.Build, logger *slog.Logger) {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		logger.Warn("failed to open history database", "dir", dbDir, "error", err)
		return
	}
	defer db.Close()

	id, err := db.SaveBuild(ctx, build.Record())
	if err != nil {
		logger.Warn("failed to record build", "build", build.ID, "error", err)
		return
	}
	logger.Info("build recorded", "build", build.ID, "id", id)
}
