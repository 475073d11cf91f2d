package config

import "path/filepath"

// File represents the structure of the .mintmerge configuration file.
// Unset fields leave the corresponding defaults untouched.
type File struct {
	// Root is the aggregation root. Relative values are resolved against the
	// directory containing the configuration file.
	Root string `yaml:"root,omitempty"`

	// Output is the site configuration file to write.
	Output string `yaml:"output,omitempty"`

	// BackupDir receives the previous output.
	BackupDir string `yaml:"backupDir,omitempty"`

	// BaseDir holds the base configuration parts.
	BaseDir string `yaml:"baseDir,omitempty"`

	// FragmentNames are the file names treated as fragments.
	FragmentNames []string `yaml:"fragmentNames,omitempty"`

	// Exclude lists directory name patterns skipped during discovery.
	Exclude []string `yaml:"exclude,omitempty"`

	// Jobs is the number of fragment files loaded at once.
	Jobs int `yaml:"jobs,omitempty"`

	// FilesystemOrder visits directory entries in filesystem order.
	FilesystemOrder *bool `yaml:"filesystemOrder,omitempty"`

	// KeepBackups limits the number of retained backups.
	KeepBackups *int `yaml:"keepBackups,omitempty"`

	// Record saves each build to the history database.
	Record *bool `yaml:"record,omitempty"`

	// DBDir is the directory of the history database.
	DBDir string `yaml:"dbDir,omitempty"`

	// Summary is an optional Markdown build summary path.
	Summary string `yaml:"summary,omitempty"`

	// dir is the directory containing the loaded file.
	dir string
}

// Apply copies the values set in the file onto cfg.
func (f *File) Apply(cfg *Config) {
	if f.Root != "" {
		root := f.Root
		if !filepath.IsAbs(root) && f.dir != "" {
			root = filepath.Join(f.dir, root)
		}
		cfg.Root = root
	}
	if f.Output != "" {
		cfg.Output = f.Output
	}
	if f.BackupDir != "" {
		cfg.BackupDir = f.BackupDir
	}
	if f.BaseDir != "" {
		cfg.BaseDir = f.BaseDir
	}
	if len(f.FragmentNames) > 0 {
		cfg.FragmentNames = f.FragmentNames
	}
	if len(f.Exclude) > 0 {
		cfg.Exclude = f.Exclude
	}
	if f.Jobs != 0 {
		cfg.Jobs = f.Jobs
	}
	if f.FilesystemOrder != nil {
		cfg.FilesystemOrder = *f.FilesystemOrder
	}
	if f.KeepBackups != nil {
		cfg.KeepBackups = *f.KeepBackups
	}
	if f.Record != nil {
		cfg.Record = *f.Record
	}
	if f.DBDir != "" {
		cfg.DBDir = f.DBDir
	}
	if f.Summary != "" {
		cfg.SummaryFile = f.Summary
	}
}
