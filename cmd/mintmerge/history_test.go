package main

import (
	"context"
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/mintmerge/internal/database"
	"github.com/nao1215/mintmerge/internal/model"
)

// seedHistory stores records in a new history database and returns its directory.
func seedHistory(t *testing.T, records ...*model.BuildRecord) string {
	t.Helper()

	dbDir := t.TempDir()
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	for _, r := range records {
		if _, err := db.SaveBuild(context.Background(), r); err != nil {
			t.Fatalf("failed to save build: %v", err)
		}
	}
	return dbDir
}

// record creates a build record of /site/mint.json made minutes after a fixed time.
func record(id string, minutes int, paths ...string) *model.BuildRecord {
	return &model.BuildRecord{
		BuildID:       id,
		Timestamp:     time.Date(2025, 2, 3, 14, minutes, 0, 0, time.UTC),
		Root:          "/site",
		OutputPath:    "/site/mint.json",
		FragmentCount: len(paths),
		Digest:        strings.Repeat(strconv.Itoa(len(paths)), 64),
		FragmentPaths: paths,
	}
}

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "history" {
			t.Errorf("expected use 'history', got %q", cmd.Use)
		}
	})

	for _, name := range []string{"limit", "id", "compare", "output", "db-dir", "json", "markdown"} {
		name := name
		t.Run("has "+name+" flag", func(t *testing.T) {
			t.Parallel()
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		})
	}
}

// TestRunHistoryCmd tests listing recorded builds.
func TestRunHistoryCmd(t *testing.T) {
	t.Parallel()

	t.Run("no database", func(t *testing.T) {
		t.Parallel()

		out, err := runCLI(t, "history", "--db-dir", t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "No builds recorded.") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("no database as JSON", func(t *testing.T) {
		t.Parallel()

		out, err := runCLI(t, "history", "--db-dir", t.TempDir(), "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.TrimSpace(out) != "[]" {
			t.Errorf("expected empty JSON array, got %q", out)
		}
	})

	t.Run("lists builds newest first", func(t *testing.T) {
		t.Parallel()

		dbDir := seedHistory(t,
			record("first", 0, "/site/a/config.js"),
			record("second", 5, "/site/a/config.js", "/site/b/config.js"),
		)

		out, err := runCLI(t, "history", "--db-dir", dbDir, "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var records []model.BuildRecord
		if err := json.Unmarshal([]byte(out), &records); err != nil {
			t.Fatalf("expected JSON output: %v\n%s", err, out)
		}
		if len(records) != 2 || records[0].BuildID != "second" || records[1].BuildID != "first" {
			t.Errorf("unexpected records %+v", records)
		}
	})

	t.Run("limit", func(t *testing.T) {
		t.Parallel()

		dbDir := seedHistory(t, record("first", 0), record("second", 5), record("third", 9))

		out, err := runCLI(t, "history", "--db-dir", dbDir, "--json", "-l", "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var records []model.BuildRecord
		if err := json.Unmarshal([]byte(out), &records); err != nil {
			t.Fatal(err)
		}
		if len(records) != 1 || records[0].BuildID != "third" {
			t.Errorf("unexpected records %+v", records)
		}
	})

	t.Run("plain text and markdown", func(t *testing.T) {
		t.Parallel()

		dbDir := seedHistory(t, record("first", 0, "/site/a/config.js"))

		out, err := runCLI(t, "history", "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "/site/mint.json") || !strings.Contains(out, "FRAGMENTS") {
			t.Errorf("unexpected text output:\n%s", out)
		}

		out, err = runCLI(t, "history", "--db-dir", dbDir, "--markdown")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "# Build History") {
			t.Errorf("unexpected markdown output:\n%s", out)
		}
	})

	t.Run("json and markdown are exclusive", func(t *testing.T) {
		t.Parallel()

		if _, err := runCLI(t, "history", "--db-dir", t.TempDir(), "--json", "--markdown"); err == nil {
			t.Error("expected error for conflicting formats")
		}
	})

	t.Run("negative limit", func(t *testing.T) {
		t.Parallel()

		_, err := runCLI(t, "history", "--db-dir", t.TempDir(), "--limit", "-1")
		if exitCode(err) != exitConfig {
			t.Errorf("expected configuration error, got %v", err)
		}
	})
}

// TestShowBuild tests showing a single build.
func TestShowBuild(t *testing.T) {
	t.Parallel()

	dbDir := seedHistory(t, record("first", 0, "/site/a/config.js", "/site/b/config.js"))

	t.Run("existing build", func(t *testing.T) {
		t.Parallel()

		out, err := runCLI(t, "history", "--db-dir", dbDir, "--id", "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"Build 1 (first)", "Fragments: 2", "    - /site/a/config.js", "    - /site/b/config.js"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("missing build", func(t *testing.T) {
		t.Parallel()

		_, err := runCLI(t, "history", "--db-dir", dbDir, "--id", "42")
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected not found error, got %v", err)
		}
	})
}

// TestCompareRecords tests the fragment difference between two builds.
func TestCompareRecords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		older, newer  []string
		wantAdded     []string
		wantRemoved   []string
		wantUnchanged int
	}{
		{
			name:          "identical",
			older:         []string{"a", "b"},
			newer:         []string{"a", "b"},
			wantAdded:     []string{},
			wantRemoved:   []string{},
			wantUnchanged: 2,
		},
		{
			name:          "added and removed",
			older:         []string{"a", "b", "c"},
			newer:         []string{"a", "d", "c", "e"},
			wantAdded:     []string{"d", "e"},
			wantRemoved:   []string{"b"},
			wantUnchanged: 2,
		},
		{
			name:        "from empty",
			older:       nil,
			newer:       []string{"a"},
			wantAdded:   []string{"a"},
			wantRemoved: []string{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			older := record("old", 0, tt.older...)
			newer := record("new", 1, tt.newer...)
			diff := compareRecords(older, newer)

			if !reflect.DeepEqual(diff.Added, tt.wantAdded) {
				t.Errorf("expected added %v, got %v", tt.wantAdded, diff.Added)
			}
			if !reflect.DeepEqual(diff.Removed, tt.wantRemoved) {
				t.Errorf("expected removed %v, got %v", tt.wantRemoved, diff.Removed)
			}
			if diff.Unchanged != tt.wantUnchanged {
				t.Errorf("expected %d unchanged, got %d", tt.wantUnchanged, diff.Unchanged)
			}
		})
	}

	t.Run("same output digest", func(t *testing.T) {
		t.Parallel()

		diff := compareRecords(record("old", 0, "a"), record("new", 1, "b"))
		if !diff.SameOutput {
			t.Error("expected equal digests to report the same output")
		}
	})
}

// TestCompareLatest tests comparing the two latest builds through the CLI.
func TestCompareLatest(t *testing.T) {
	t.Parallel()

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		dbDir := seedHistory(t,
			record("first", 0, "/site/a/config.js", "/site/b/config.js"),
			record("second", 5, "/site/a/config.js", "/site/c/config.js"),
		)

		out, err := runCLI(t, "history", "--db-dir", dbDir, "--compare")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{
			"Comparing builds 1 and 2 of /site/mint.json",
			"  + /site/c/config.js",
			"  - /site/b/config.js",
			"Added: 1, Removed: 1, Unchanged: 1",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		dbDir := seedHistory(t,
			record("first", 0, "/site/a/config.js"),
			record("second", 5, "/site/a/config.js", "/site/b/config.js"),
		)

		out, err := runCLI(t, "history", "--db-dir", dbDir, "--compare", "--json", "-o", "/site/mint.json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var diff fragmentDiff
		if err := json.Unmarshal([]byte(out), &diff); err != nil {
			t.Fatalf("expected JSON output: %v\n%s", err, out)
		}
		if !reflect.DeepEqual(diff.Added, []string{"/site/b/config.js"}) || len(diff.Removed) != 0 {
			t.Errorf("unexpected diff %+v", diff)
		}
	})

	t.Run("single build", func(t *testing.T) {
		t.Parallel()

		dbDir := seedHistory(t, record("first", 0, "/site/a/config.js"))

		out, err := runCLI(t, "history", "--db-dir", dbDir, "--compare")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "At least two recorded builds") {
			t.Errorf("unexpected output %q", out)
		}
	})
}
