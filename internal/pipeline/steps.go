package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/mintmerge/internal/aggregate"
	"github.com/nao1215/mintmerge/internal/backup"
	"github.com/nao1215/mintmerge/internal/base"
	"github.com/nao1215/mintmerge/internal/discovery"
	"github.com/nao1215/mintmerge/internal/fragment"
	"github.com/nao1215/mintmerge/internal/model"
	"github.com/nao1215/mintmerge/internal/report"
)

// Step names.
const (
	StepDiscover = "discover"
	StepLoad     = "load"
	StepBase     = "base"
	StepBackup   = "backup"
	StepAssemble = "assemble"
	StepWrite    = "write"
)

// DiscoverStep finds fragment files below the build root.
type DiscoverStep struct {
	opts []discovery.Option
}

// NewDiscoverStep creates a discovery step. The options are passed to discovery.Discover.
func NewDiscoverStep(opts ...discovery.Option) *DiscoverStep {
	return &DiscoverStep{opts: opts}
}

// Name returns the step name.
func (s *DiscoverStep) Name() string {
	return StepDiscover
}

// Do stores the discovered paths in build.FragmentPaths.
func (s *DiscoverStep) Do(_ context.Context, build *model.Build) error {
	paths, err := discovery.Discover(build.Root, s.opts...)
	if err != nil {
		return err
	}
	build.FragmentPaths = paths
	return nil
}

// LoadStep loads every discovered fragment file.
// Files without a default export are recorded in build.Skipped.
type LoadStep struct {
	batch  *BatchLoader
	logger *slog.Logger
}

// LoadStepOption configures a LoadStep.
type LoadStepOption func(*loadStepConfig)

type loadStepConfig struct {
	jobs   int
	logger *slog.Logger
}

// WithJobs sets how many fragment files are loaded at once.
func WithJobs(n int) LoadStepOption {
	return func(c *loadStepConfig) {
		c.jobs = n
	}
}

// WithLoadLogger sets a custom logger for the load step.
func WithLoadLogger(logger *slog.Logger) LoadStepOption {
	return func(c *loadStepConfig) {
		c.logger = logger
	}
}

// NewLoadStep creates a load step backed by loader.
func NewLoadStep(loader FragmentLoader, opts ...LoadStepOption) *LoadStep {
	cfg := &loadStepConfig{jobs: 1}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	return &LoadStep{
		batch:  NewBatchLoader(loader, WithConcurrency(cfg.jobs), WithBatchLogger(cfg.logger)),
		logger: cfg.logger,
	}
}

// Name returns the step name.
func (s *LoadStep) Name() string {
	return StepLoad
}

// Do fills build.Fragments in discovery order.
func (s *LoadStep) Do(ctx context.Context, build *model.Build) error {
	results, err := s.batch.LoadAll(ctx, build.FragmentPaths)
	if err != nil {
		return err
	}

	fragments := make([]model.Fragment, 0, len(results))
	for _, r := range results {
		if !r.OK {
			s.logger.Info("no default export, skipping", "path", r.Path)
			build.Skipped = append(build.Skipped, r.Path)
			continue
		}
		fragments = append(fragments, r.Fragment)
	}
	build.Fragments = fragments
	return nil
}

// BaseStep merges the common, tab and anchor parts into build.Base.
type BaseStep struct {
	common base.Provider
	tab    base.Provider
	anchor base.Provider
}

// NewBaseStep creates a base step from three providers. Nil providers contribute nothing.
func NewBaseStep(common, tab, anchor base.Provider) *BaseStep {
	return &BaseStep{common: common, tab: tab, anchor: anchor}
}

// Name returns the step name.
func (s *BaseStep) Name() string {
	return StepBase
}

// Do stores the merged base configuration in build.Base.
func (s *BaseStep) Do(ctx context.Context, build *model.Build) error {
	merged, err := base.Assemble(ctx, s.common, s.tab, s.anchor)
	if err != nil {
		return err
	}
	build.Base = merged
	return nil
}

// BackupStep moves the previous output into the backup directory.
type BackupStep struct {
	manager *backup.Manager

	// keep is the number of backups retained after a new one is made. 0 keeps all.
	keep int

	logger *slog.Logger
}

// NewBackupStep creates a backup step. keep > 0 prunes older backups.
func NewBackupStep(manager *backup.Manager, keep int, logger *slog.Logger) *BackupStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackupStep{manager: manager, keep: keep, logger: logger}
}

// Name returns the step name.
func (s *BackupStep) Name() string {
	return StepBackup
}

// Do records the backup location in build.BackupPath.
// Pruning failures are logged and do not fail the build.
func (s *BackupStep) Do(_ context.Context, build *model.Build) error {
	dest, err := s.manager.BackupIfExists(build.OutputPath)
	if err != nil {
		return err
	}
	build.BackupPath = dest

	if dest == "" || s.keep <= 0 {
		return nil
	}
	if _, err := s.manager.Prune(build.OutputPath, s.keep); err != nil {
		s.logger.Warn("failed to prune old backups", "dir", s.manager.Dir, "error", err)
	}
	return nil
}

// AssembleStep builds the output document from the base and the fragments.
type AssembleStep struct{}

// NewAssembleStep creates an assemble step.
func NewAssembleStep() *AssembleStep {
	return &AssembleStep{}
}

// Name returns the step name.
func (s *AssembleStep) Name() string {
	return StepAssemble
}

// Do stores the document in build.Document.
func (s *AssembleStep) Do(_ context.Context, build *model.Build) error {
	build.Document = aggregate.Document(build.Base, build.Fragments)
	return nil
}

// WriteStep writes build.Document to build.OutputPath.
type WriteStep struct{}

// NewWriteStep creates a write step.
func NewWriteStep() *WriteStep {
	return &WriteStep{}
}

// Name returns the step name.
func (s *WriteStep) Name() string {
	return StepWrite
}

// Do writes the document and stores its digest in build.Digest.
func (s *WriteStep) Do(_ context.Context, build *model.Build) error {
	digest, err := report.WriteFile(build.OutputPath, build.Document)
	if err != nil {
		return err
	}
	build.Digest = digest
	return nil
}

// DefaultPipelineConfig holds the settings of the standard build pipeline.
type DefaultPipelineConfig struct {
	// FragmentNames are the file names treated as fragments.
	FragmentNames []string

	// Exclude lists directory name patterns skipped during discovery.
	Exclude []string

	// FilesystemOrder visits directory entries in the order the filesystem returns them.
	FilesystemOrder bool

	// Jobs is the number of fragment files loaded at once.
	Jobs int

	// BaseDir holds the common, tab and anchor parts. Empty disables the base.
	BaseDir string

	// BackupDir receives the previous output.
	BackupDir string

	// KeepBackups limits the retained backups. 0 keeps all.
	KeepBackups int

	// DryRun omits the backup and write steps.
	DryRun bool

	// Clock supplies the time used for backup names.
	Clock func() time.Time

	// Logger is passed to the steps.
	Logger *slog.Logger
}

// DefaultPipelineOption configures the default pipeline.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineFragmentNames sets the fragment file names.
func WithPipelineFragmentNames(names ...string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		if len(names) > 0 {
			c.FragmentNames = names
		}
	}
}

// WithPipelineExclude sets directory patterns skipped during discovery.
func WithPipelineExclude(patterns ...string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Exclude = patterns
	}
}

// WithPipelineFilesystemOrder makes discovery follow filesystem order.
func WithPipelineFilesystemOrder(enabled bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.FilesystemOrder = enabled
	}
}

// WithPipelineJobs sets the number of concurrent fragment loads.
func WithPipelineJobs(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Jobs = n
	}
}

// WithPipelineBaseDir sets the base configuration directory.
func WithPipelineBaseDir(dir string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.BaseDir = dir
	}
}

// WithPipelineBackupDir sets the backup directory.
func WithPipelineBackupDir(dir string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.BackupDir = dir
	}
}

// WithPipelineKeepBackups limits the number of retained backups.
func WithPipelineKeepBackups(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.KeepBackups = n
	}
}

// WithPipelineDryRun omits the backup and write steps.
func WithPipelineDryRun(dryRun bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.DryRun = dryRun
	}
}

// WithPipelineClock sets the clock used for backup names.
func WithPipelineClock(now func() time.Time) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Clock = now
	}
}

// WithPipelineLogger sets the logger passed to the steps.
func WithPipelineLogger(logger *slog.Logger) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Logger = logger
	}
}

// DefaultPipeline creates the standard build pipeline:
// discover, load, base, backup, assemble, write.
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts pipeline config options (WithPipelineJobs, etc).
func DefaultPipeline(loader *fragment.Registry, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		FragmentNames: []string{discovery.DefaultFragmentName},
		Jobs:          1,
		BackupDir:     backup.DefaultDir,
		Clock:         time.Now,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	for _, name := range cfg.FragmentNames {
		if !loader.Supports(name) {
			cfg.Logger.Warn("no loader for fragment name, matching files are ignored", "name", name)
		}
	}

	discoverOpts := []discovery.Option{
		discovery.WithNames(cfg.FragmentNames...),
		discovery.WithExclude(cfg.Exclude...),
		discovery.WithFilter(loader.Supports),
		discovery.WithLogger(cfg.Logger),
	}
	if cfg.FilesystemOrder {
		discoverOpts = append(discoverOpts, discovery.WithFilesystemOrder())
	}

	var common, tab, anchor base.Provider
	if cfg.BaseDir != "" {
		common, tab, anchor = base.FileProviders(cfg.BaseDir, loader, cfg.Logger)
	}

	p.AddSteps(
		NewDiscoverStep(discoverOpts...),
		NewLoadStep(loader, WithJobs(cfg.Jobs), WithLoadLogger(cfg.Logger)),
		NewBaseStep(common, tab, anchor),
	)

	if !cfg.DryRun {
		manager := backup.NewManager(cfg.BackupDir,
			backup.WithClock(cfg.Clock),
			backup.WithLogger(cfg.Logger),
		)
		p.AddStep(NewBackupStep(manager, cfg.KeepBackups, cfg.Logger))
	}

	p.AddStep(NewAssembleStep())

	if !cfg.DryRun {
		p.AddStep(NewWriteStep())
	}

	return p
}
