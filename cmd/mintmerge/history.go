package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/nao1215/mintmerge/internal/config"
	"github.com/nao1215/mintmerge/internal/database"
	"github.com/nao1215/mintmerge/internal/model"
	"github.com/nao1215/mintmerge/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
// This command lists builds recorded with "mintmerge build --record".
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded builds",
		Long: `History lists the builds saved to the history database.

Builds are recorded when "mintmerge build" runs with --record (or record: true
in the configuration file). The database lives in the XDG data directory.

Examples:
  # List the latest builds
  mintmerge history

  # List as JSON
  mintmerge history --json --limit 5

  # Show the fragments of one build
  mintmerge history --id 12

  # Show fragments added and removed by the latest build of mint.json
  mintmerge history --compare --output mint.json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", config.DefaultHistoryLimit,
		"Maximum number of builds listed (0 lists all)")
	cmd.Flags().Int64("id", 0,
		"Show a single build by ID")
	cmd.Flags().Bool("compare", false,
		"Compare the fragments of the two latest builds of an output file")
	cmd.Flags().StringP("output", "o", "",
		"Output file compared with --compare (default: output of the latest build)")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output in Markdown format")

	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
	cmd.MarkFlagsMutuallyExclusive("compare", "markdown")
	cmd.MarkFlagsMutuallyExclusive("compare", "id")

	return cmd
}

// historyOptions holds the history command flags.
type historyOptions struct {
	limit    int
	id       int64
	compare  bool
	output   string
	dbDir    string
	json     bool
	markdown bool
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	opts, err := historyFlags(cmd)
	if err != nil {
		return configError(err)
	}
	if opts.limit < 0 {
		return configError(errors.New("--limit must be 0 or greater"))
	}

	logger := setupLogger(cmd)
	out := cmd.OutOrStdout()

	db, err := database.Open(opts.dbDir, database.Options{EnableWAL: true})
	if errors.Is(err, database.ErrNotFound) {
		logger.Debug("no history database", "dir", opts.dbDir)
		return writeNoHistory(out, opts)
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()

	switch {
	case opts.compare:
		return compareLatest(ctx, db, out, opts)
	case opts.id != 0:
		return showBuild(ctx, db, out, opts)
	default:
		return listBuilds(ctx, db, out, opts)
	}
}

// historyFlags reads the history command flags.
func historyFlags(cmd *cobra.Command) (*historyOptions, error) {
	var opts historyOptions
	var err error
	flags := cmd.Flags()

	if opts.limit, err = flags.GetInt("limit"); err != nil {
		return nil, err
	}
	if opts.id, err = flags.GetInt64("id"); err != nil {
		return nil, err
	}
	if opts.compare, err = flags.GetBool("compare"); err != nil {
		return nil, err
	}
	if opts.output, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if opts.dbDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	if opts.json, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if opts.markdown, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	return &opts, nil
}

// historyWriter returns the report writer selected by the format flags.
func historyWriter(out io.Writer, opts *historyOptions) report.Writer {
	switch {
	case opts.json:
		return report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithTrailingNewline())
	case opts.markdown:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out)
	}
}

// writeNoHistory reports an empty history in the selected format.
func writeNoHistory(out io.Writer, opts *historyOptions) error {
	if opts.compare {
		fmt.Fprintln(out, "No builds recorded.")
		return nil
	}
	if opts.id != 0 {
		return fmt.Errorf("build %d not found", opts.id)
	}
	_, err := historyWriter(out, opts).WriteHistory(nil)
	return err
}

// listBuilds lists the latest recorded builds.
func listBuilds(ctx context.Context, db *database.HistoryDB, out io.Writer, opts *historyOptions) error {
	records, err := db.ListBuilds(ctx, opts.limit)
	if err != nil {
		return fmt.Errorf("failed to list builds: %w", err)
	}
	_, err = historyWriter(out, opts).WriteHistory(records)
	return err
}

// showBuild prints one recorded build including its fragment files.
func showBuild(ctx context.Context, db *database.HistoryDB, out io.Writer, opts *historyOptions) error {
	record, err := db.GetBuildByID(ctx, opts.id)
	if err != nil {
		return fmt.Errorf("failed to get build: %w", err)
	}
	if record == nil {
		return fmt.Errorf("build %d not found", opts.id)
	}

	if opts.json || opts.markdown {
		_, err = historyWriter(out, opts).WriteHistory([]*model.BuildRecord{record})
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Build %d (%s)\n", record.ID, record.BuildID)
	fmt.Fprintf(&sb, "  Date:      %s\n", record.Timestamp.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "  Root:      %s\n", record.Root)
	fmt.Fprintf(&sb, "  Output:    %s\n", record.OutputPath)
	if record.BackupPath != "" {
		fmt.Fprintf(&sb, "  Backup:    %s\n", record.BackupPath)
	}
	fmt.Fprintf(&sb, "  Digest:    %s\n", record.Digest)
	fmt.Fprintf(&sb, "  Fragments: %d\n", record.FragmentCount)
	for _, p := range record.FragmentPaths {
		fmt.Fprintf(&sb, "    - %s\n", p)
	}
	_, err = io.WriteString(out, sb.String())
	return err
}

// fragmentDiff is the difference between the fragments of two builds.
type fragmentDiff struct {
	OutputPath string   `json:"output_path"`
	OlderID    int64    `json:"older_id"`
	NewerID    int64    `json:"newer_id"`
	Added      []string `json:"added"`
	Removed    []string `json:"removed"`
	Unchanged  int      `json:"unchanged"`
	SameOutput bool     `json:"same_output"`
}

// compareRecords returns the fragments added and removed between older and newer.
// Paths keep the order in which they appear in their build.
func compareRecords(older, newer *model.BuildRecord) *fragmentDiff {
	diff := &fragmentDiff{
		OutputPath: newer.OutputPath,
		OlderID:    older.ID,
		NewerID:    newer.ID,
		Added:      make([]string, 0),
		Removed:    make([]string, 0),
		SameOutput: older.Digest != "" && older.Digest == newer.Digest,
	}

	olderSet := make(map[string]bool, len(older.FragmentPaths))
	for _, p := range older.FragmentPaths {
		olderSet[p] = true
	}
	newerSet := make(map[string]bool, len(newer.FragmentPaths))
	for _, p := range newer.FragmentPaths {
		newerSet[p] = true
		if olderSet[p] {
			diff.Unchanged++
		} else {
			diff.Added = append(diff.Added, p)
		}
	}
	for _, p := range older.FragmentPaths {
		if !newerSet[p] {
			diff.Removed = append(diff.Removed, p)
		}
	}
	return diff
}

// compareLatest compares the two latest builds of an output file.
func compareLatest(ctx context.Context, db *database.HistoryDB, out io.Writer, opts *historyOptions) error {
	outputPath := opts.output
	if outputPath == "" {
		latest, err := db.ListBuilds(ctx, 1)
		if err != nil {
			return fmt.Errorf("failed to list builds: %w", err)
		}
		if len(latest) == 0 {
			fmt.Fprintln(out, "No builds recorded.")
			return nil
		}
		outputPath = latest[0].OutputPath
	} else if abs, err := filepath.Abs(outputPath); err == nil {
		outputPath = abs
	}

	records, err := db.LatestBuilds(ctx, outputPath, 2)
	if err != nil {
		return fmt.Errorf("failed to get builds: %w", err)
	}
	if len(records) < 2 {
		fmt.Fprintf(out, "At least two recorded builds of %s are needed to compare.\n", outputPath)
		return nil
	}

	// LatestBuilds returns the newest first.
	diff := compareRecords(records[1], records[0])

	if opts.json {
		_, err = report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithTrailingNewline()).WriteDocument(diff)
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Comparing builds %d and %d of %s\n\n", diff.OlderID, diff.NewerID, diff.OutputPath)
	for _, p := range diff.Added {
		fmt.Fprintf(&sb, "  + %s\n", p)
	}
	for _, p := range diff.Removed {
		fmt.Fprintf(&sb, "  - %s\n", p)
	}
	if len(diff.Added) == 0 && len(diff.Removed) == 0 {
		sb.WriteString("  No fragments added or removed.\n")
	}
	fmt.Fprintf(&sb, "\nAdded: %d, Removed: %d, Unchanged: %d\n", len(diff.Added), len(diff.Removed), diff.Unchanged)
	if diff.SameOutput {
		sb.WriteString("The output is identical.\n")
	}
	_, err = io.WriteString(out, sb.String())
	return err
}
