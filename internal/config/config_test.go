package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Output is mint.json", func(t *testing.T) {
		t.Parallel()
		if cfg.Output != "mint.json" {
			t.Errorf("expected Output to be 'mint.json', got '%s'", cfg.Output)
		}
	})

	t.Run("default BackupDir is bk", func(t *testing.T) {
		t.Parallel()
		if cfg.BackupDir != "bk" {
			t.Errorf("expected BackupDir to be 'bk', got '%s'", cfg.BackupDir)
		}
	})

	t.Run("default BaseDir is base", func(t *testing.T) {
		t.Parallel()
		if cfg.BaseDir != "base" {
			t.Errorf("expected BaseDir to be 'base', got '%s'", cfg.BaseDir)
		}
	})

	t.Run("default FragmentNames is config.js", func(t *testing.T) {
		t.Parallel()
		if !reflect.DeepEqual(cfg.FragmentNames, []string{"config.js"}) {
			t.Errorf("expected FragmentNames to be [config.js], got %v", cfg.FragmentNames)
		}
	})

	t.Run("default Jobs is 1", func(t *testing.T) {
		t.Parallel()
		if cfg.Jobs != 1 {
			t.Errorf("expected Jobs to be 1, got %d", cfg.Jobs)
		}
	})

	t.Run("optional features are off", func(t *testing.T) {
		t.Parallel()
		if cfg.Record || cfg.DryRun || cfg.FilesystemOrder || cfg.KeepBackups != 0 || cfg.SummaryFile != "" {
			t.Errorf("expected optional features to be disabled, got %+v", cfg)
		}
	})

	t.Run("default DBDir is the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected DBDir %q, got %q", XDGDataDir(), cfg.DBDir)
		}
		if filepath.Base(cfg.DBDir) != AppName {
			t.Errorf("expected DBDir to end with %q, got %q", AppName, cfg.DBDir)
		}
	})

	t.Run("default config is valid", func(t *testing.T) {
		t.Parallel()
		if err := NewConfig().Validate(); err != nil {
			t.Errorf("expected default config to be valid, got %v", err)
		}
	})
}

// TestConfigValidate tests configuration validation.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{name: "empty output", modify: func(c *Config) { c.Output = " " }, wantErr: ErrEmptyOutput},
		{name: "zero jobs", modify: func(c *Config) { c.Jobs = 0 }, wantErr: ErrInvalidJobs},
		{name: "negative keep backups", modify: func(c *Config) { c.KeepBackups = -1 }, wantErr: ErrInvalidKeepBackups},
		{name: "no fragment names", modify: func(c *Config) { c.FragmentNames = nil }, wantErr: ErrNoFragmentNames},
		{name: "fragment name with separator", modify: func(c *Config) { c.FragmentNames = []string{"docs/config.js"} }, wantErr: ErrInvalidFragmentName},
		{name: "dot fragment name", modify: func(c *Config) { c.FragmentNames = []string{".."} }, wantErr: ErrInvalidFragmentName},
		{name: "bad exclude pattern", modify: func(c *Config) { c.Exclude = []string{"[a-"} }, wantErr: ErrInvalidExclude},
		{name: "valid exclude pattern", modify: func(c *Config) { c.Exclude = []string{"node_modules", ".*"} }},
		{name: "several jobs", modify: func(c *Config) { c.Jobs = 8 }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestConfigResolve tests path resolution against the root.
func TestConfigResolve(t *testing.T) {
	t.Parallel()

	t.Run("relative paths resolve against root", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		cfg := NewConfig()
		cfg.Root = root
		cfg.SummaryFile = "reports/summary.md"

		if err := cfg.Resolve(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Output != filepath.Join(root, "mint.json") {
			t.Errorf("unexpected output %q", cfg.Output)
		}
		if cfg.BackupDir != filepath.Join(root, "bk") {
			t.Errorf("unexpected backup dir %q", cfg.BackupDir)
		}
		if cfg.BaseDir != filepath.Join(root, "base") {
			t.Errorf("unexpected base dir %q", cfg.BaseDir)
		}
		if cfg.SummaryFile != filepath.Join(root, "reports", "summary.md") {
			t.Errorf("unexpected summary %q", cfg.SummaryFile)
		}
	})

	t.Run("absolute paths are kept", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		elsewhere := t.TempDir()
		cfg := NewConfig()
		cfg.Root = root
		cfg.Output = filepath.Join(elsewhere, "site", "..", "mint.json")
		cfg.BaseDir = ""

		if err := cfg.Resolve(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Output != filepath.Join(elsewhere, "mint.json") {
			t.Errorf("unexpected output %q", cfg.Output)
		}
		if cfg.BaseDir != "" {
			t.Errorf("expected empty base dir to stay empty, got %q", cfg.BaseDir)
		}
	})

	t.Run("relative root becomes absolute", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Root = "docs"
		if err := cfg.Resolve(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !filepath.IsAbs(cfg.Root) {
			t.Errorf("expected absolute root, got %q", cfg.Root)
		}
	})

	t.Run("output inside backup dir is rejected", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Root = t.TempDir()
		cfg.Output = "bk/mint.json"

		if err := cfg.Resolve(); !errors.Is(err, ErrOutputInBackupDir) {
			t.Errorf("expected ErrOutputInBackupDir, got %v", err)
		}
	})
}

// TestLoadConfigFile tests loading the YAML configuration file.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("applies set values only", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, DefaultConfigFile)
		content := `# site build settings
root: site
output: public/mint.json
exclude:
  - node_modules
  - .git
jobs: 4
keepBackups: 10
record: true
filesystemOrder: false
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg := NewConfig()
		cf.Apply(cfg)

		if cfg.Root != filepath.Join(dir, "site") {
			t.Errorf("expected root relative to config file, got %q", cfg.Root)
		}
		if cfg.Output != "public/mint.json" {
			t.Errorf("unexpected output %q", cfg.Output)
		}
		if !reflect.DeepEqual(cfg.Exclude, []string{"node_modules", ".git"}) {
			t.Errorf("unexpected exclude %v", cfg.Exclude)
		}
		if cfg.Jobs != 4 || cfg.KeepBackups != 10 || !cfg.Record {
			t.Errorf("unexpected values %+v", cfg)
		}
		if cfg.BackupDir != DefaultBackupDir || cfg.BaseDir != DefaultBaseDir {
			t.Errorf("expected unset values to keep defaults, got %+v", cfg)
		}
		if !reflect.DeepEqual(cfg.FragmentNames, []string{DefaultFragmentName}) {
			t.Errorf("expected default fragment names, got %v", cfg.FragmentNames)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("# nothing set\n"), 0o600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cfg := NewConfig()
		cf.Apply(cfg)
		if !reflect.DeepEqual(cfg, NewConfig()) {
			t.Errorf("expected defaults, got %+v", cfg)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("unknown key is rejected", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("ouput: typo.json\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for unknown key")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("jobs: [unclosed\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected parse error")
		}
	})
}

// TestFindConfigFile tests configuration file lookup.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit path", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatal(err)
		}
		if got := FindConfigFile(path, ""); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("missing explicit path", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing.yaml"), ""); got != "" {
			t.Errorf("expected empty result, got %q", got)
		}
	})

	t.Run("file in root", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		path := filepath.Join(root, DefaultConfigFile)
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatal(err)
		}
		if got := FindConfigFile("", root); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("directory named like the config file is ignored", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		if err := os.Mkdir(filepath.Join(root, DefaultConfigFile), 0o750); err != nil {
			t.Fatal(err)
		}
		if got := FindConfigFile("", root); got == filepath.Join(root, DefaultConfigFile) {
			t.Errorf("expected directory to be skipped, got %q", got)
		}
	})
}
