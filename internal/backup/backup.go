package backup

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nao1215/mintmerge/internal/model"
)

// TimestampLayout formats backup timestamps as YYYYMMDD-HHmmss.
const TimestampLayout = "20060102-150405"

// DefaultDir is the default backup directory name.
const DefaultDir = "bk"

// Manager moves previous output files into a backup directory.
type Manager struct {
	// Dir is the backup directory. It is created on first use.
	Dir string

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	logger *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock used for backup names.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.Now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager for the given backup directory.
func NewManager(dir string, opts ...Option) *Manager {
	m := &Manager{Dir: dir, Now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Name returns the backup file name for outputPath at time t.
func Name(outputPath string, t time.Time) string {
	base := filepath.Base(outputPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return "_" + stem + "-" + t.Local().Format(TimestampLayout) + ext
}

// BackupIfExists moves the file at outputPath into the backup directory and
// returns the new path. If there is no file at outputPath it returns "" and nil.
// The move is a rename, so the backup directory must be on the same filesystem.
// Errors wrap model.ErrBackup; nothing is rolled back on failure.
func (m *Manager) BackupIfExists(outputPath string) (string, error) {
	if _, err := os.Stat(outputPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %w", model.ErrBackup, err)
	}

	if err := os.MkdirAll(m.Dir, 0o750); err != nil {
		return "", fmt.Errorf("%w: create backup directory: %w", model.ErrBackup, err)
	}

	backupPath := filepath.Join(m.Dir, Name(outputPath, m.Now()))
	if err := os.Rename(outputPath, backupPath); err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrBackup, err)
	}

	m.logger.Info("previous output backed up", "from", outputPath, "to", backupPath)
	return backupPath, nil
}

// List returns the backups of outputPath in the backup directory, oldest first.
// A missing backup directory yields an empty list.
func (m *Manager) List(outputPath string) ([]string, error) {
	entries, err := os.ReadDir(m.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}

	base := filepath.Base(outputPath)
	ext := filepath.Ext(base)
	prefix := "_" + strings.TrimSuffix(base, ext) + "-"

	backups := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ext)
		if _, err := time.Parse(TimestampLayout, stamp); err != nil {
			continue
		}
		backups = append(backups, filepath.Join(m.Dir, name))
	}
	// The timestamp layout sorts lexically in time order.
	sort.Strings(backups)
	return backups, nil
}

// Prune removes the oldest backups of outputPath so that at most keep remain.
// keep <= 0 keeps everything. It returns the removed paths.
func (m *Manager) Prune(outputPath string, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}

	backups, err := m.List(outputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrBackup, err)
	}
	if len(backups) <= keep {
		return nil, nil
	}

	stale := backups[:len(backups)-keep]
	for _, p := range stale {
		if err := os.Remove(p); err != nil {
			return nil, fmt.Errorf("%w: %w", model.ErrBackup, err)
		}
		m.logger.Debug("removed old backup", "path", p)
	}
	return stale, nil
}
