package model

import "time"

// NavigationKey is the top-level key holding the fragment list in the output document.
const NavigationKey = "navigation"

// Build holds the state of one aggregation run.
// Each pipeline step reads what earlier steps produced and fills in its own part.
type Build struct {
	// ID uniquely identifies the run. It is used as the history record key.
	ID string `json:"id"`

	// Root is the absolute path of the aggregation root.
	Root string `json:"root"`

	// StartedAt is the time the run began.
	StartedAt time.Time `json:"started_at"`

	// FragmentPaths lists discovered fragment files in discovery order.
	FragmentPaths []string `json:"fragment_paths"`

	// Fragments holds the loaded fragments in discovery order.
	// Files without a default export are absent.
	Fragments []Fragment `json:"fragments"`

	// Skipped lists fragment files that had no default export.
	Skipped []string `json:"skipped,omitempty"`

	// Base is the merged base configuration.
	Base *Object `json:"base"`

	// BackupPath is where the previous output was moved, empty if there was none.
	BackupPath string `json:"backup_path,omitempty"`

	// Document is the final output document.
	Document *Object `json:"document"`

	// OutputPath is the absolute path the document is written to.
	OutputPath string `json:"output_path"`

	// Digest is the hex SHA3-256 digest of the written output.
	Digest string `json:"digest,omitempty"`

	// PerformedSteps lists the pipeline steps that completed, in order.
	PerformedSteps []string `json:"performed_steps"`
}

// NewBuild creates a Build for the given root and output path.
func NewBuild(id, root, outputPath string) *Build {
	return &Build{
		ID:             id,
		Root:           root,
		OutputPath:     outputPath,
		StartedAt:      time.Now(),
		FragmentPaths:  make([]string, 0),
		Fragments:      make([]Fragment, 0),
		PerformedSteps: make([]string, 0),
	}
}

// Record summarizes the build for the history store.
func (b *Build) Record() *BuildRecord {
	paths := make([]string, len(b.Fragments))
	for i, f := range b.Fragments {
		paths[i] = f.Path
	}
	return &BuildRecord{
		BuildID:       b.ID,
		Timestamp:     b.StartedAt,
		Root:          b.Root,
		OutputPath:    b.OutputPath,
		BackupPath:    b.BackupPath,
		FragmentCount: len(b.Fragments),
		Digest:        b.Digest,
		FragmentPaths: paths,
	}
}

// BuildRecord is the persisted summary of a finished build.
type BuildRecord struct {
	// ID is the database row ID. Zero until stored.
	ID int64 `json:"id"`

	// BuildID is the run identifier (Build.ID).
	BuildID string `json:"build_id"`

	// Timestamp is when the build started.
	Timestamp time.Time `json:"timestamp"`

	// Root is the aggregation root.
	Root string `json:"root"`

	// OutputPath is the written document.
	OutputPath string `json:"output_path"`

	// BackupPath is the backup created by the build, if any.
	BackupPath string `json:"backup_path,omitempty"`

	// FragmentCount is the number of fragments in the navigation list.
	FragmentCount int `json:"fragment_count"`

	// Digest is the SHA3-256 digest of the written output.
	Digest string `json:"digest"`

	// FragmentPaths lists the files that contributed to the navigation list.
	FragmentPaths []string `json:"fragment_paths"`
}
