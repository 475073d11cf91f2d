package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "mintmerge"

	// DefaultOutput is the site configuration file written by a build.
	DefaultOutput = "mint.json"

	// DefaultBackupDir receives the previous output before it is replaced.
	DefaultBackupDir = "bk"

	// DefaultBaseDir holds the common, tab and anchor parts of the base configuration.
	DefaultBaseDir = "base"

	// DefaultFragmentName is the file name that marks a navigation fragment.
	DefaultFragmentName = "config.js"

	// DefaultJobs loads fragments one at a time.
	DefaultJobs = 1

	// DefaultHistoryLimit is the number of builds listed by the history command.
	DefaultHistoryLimit = 20
)

// Config holds all settings of a build.
// It is populated from defaults, the config file and CLI flags and passed
// explicitly rather than kept in global state.
type Config struct {
	// Root is the directory searched for fragments. Relative paths below are
	// resolved against it. Defaults to the working directory.
	Root string

	// Output is the site configuration file to write.
	Output string

	// BackupDir receives the previous output.
	BackupDir string

	// BaseDir holds the base configuration parts. Empty disables the base.
	BaseDir string

	// FragmentNames are the file names treated as fragments.
	FragmentNames []string

	// Exclude lists directory name patterns (filepath.Match syntax) skipped
	// during discovery.
	Exclude []string

	// Jobs is the number of fragment files loaded at once.
	Jobs int

	// FilesystemOrder visits directory entries in the order the filesystem
	// returns them instead of lexical order.
	FilesystemOrder bool

	// KeepBackups limits the number of retained backups. 0 keeps all.
	KeepBackups int

	// Record saves each build to the history database.
	Record bool

	// DBDir is the directory of the history database.
	// Defaults to the XDG data directory (~/.local/share/mintmerge on Linux).
	DBDir string

	// SummaryFile is an optional Markdown build summary path.
	SummaryFile string

	// DryRun assembles the document and prints it without touching the output
	// or backup files.
	DryRun bool

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON selects JSON log output.
	LogJSON bool

	// ConfigFilePath is the configuration file in use, if any.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Output:        DefaultOutput,
		BackupDir:     DefaultBackupDir,
		BaseDir:       DefaultBaseDir,
		FragmentNames: []string{DefaultFragmentName},
		Jobs:          DefaultJobs,
		DBDir:         XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for mintmerge.
// On Linux: ~/.local/share/mintmerge
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for mintmerge.
// On Linux: ~/.config/mintmerge
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Output) == "" {
		return ErrEmptyOutput
	}

	if c.Jobs <= 0 {
		return ErrInvalidJobs
	}

	if c.KeepBackups < 0 {
		return ErrInvalidKeepBackups
	}

	if len(c.FragmentNames) == 0 {
		return ErrNoFragmentNames
	}
	for _, name := range c.FragmentNames {
		if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("%w: %q", ErrInvalidFragmentName, name)
		}
	}

	for _, pattern := range c.Exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("%w: %q: %w", ErrInvalidExclude, pattern, err)
		}
	}

	return nil
}

// Resolve makes Root absolute (the working directory when empty) and resolves
// Output, BackupDir, BaseDir and SummaryFile against it.
// It must be called after Validate.
func (c *Config) Resolve() error {
	root := c.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		root = wd
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve root %q: %w", root, err)
	}
	c.Root = absRoot

	c.Output = c.resolvePath(c.Output)
	c.BackupDir = c.resolvePath(c.BackupDir)
	c.BaseDir = c.resolvePath(c.BaseDir)
	c.SummaryFile = c.resolvePath(c.SummaryFile)

	if c.BackupDir != "" && filepath.Dir(c.Output) == c.BackupDir {
		return ErrOutputInBackupDir
	}

	return nil
}

// resolvePath resolves p against Root. Empty paths stay empty.
func (c *Config) resolvePath(p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Root, p)
}
