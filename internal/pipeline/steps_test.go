package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/nao1215/mintmerge/internal/base"
	"github.com/nao1215/mintmerge/internal/discovery"
	"github.com/nao1215/mintmerge/internal/fragment"
	"github.com/nao1215/mintmerge/internal/model"
)

// writeTree creates files below root from a map of relative path to content.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func newTestRegistry() *fragment.Registry {
	return fragment.NewRegistry(fragment.WithModuleConsole(io.Discard), fragment.WithLogger(quietLogger()))
}

func fixedTime() time.Time {
	return time.Date(2025, 2, 3, 14, 15, 30, 0, time.Local)
}

// siteTree is a small documentation site with two sections, a fragment
// without a default export, and a base configuration.
var siteTree = map[string]string{
	"api/config.js":       `export default { group: "API", pages: ["api/overview"] };`,
	"guides/config.js":    `export default { group: "Guides", pages: ["guides/intro", "guides/setup"] };`,
	"guides/nested/x.js":  `export default { ignored: true };`,
	"drafts/config.js":    `export const group = "Drafts";`,
	"base/common.js":      `export const common = { name: "Docs", navigation: "replaced" };`,
	"base/tab.json":       `{"tabs": [{"name": "API", "url": "api"}]}`,
	"base/anchor.yaml":    "anchors:\n  - name: Blog\n    url: https://example.com\n",
	"node_modules/config.js": `throw new Error("must be excluded");`,
}

// TestDefaultPipeline runs the standard pipeline over a real directory tree.
func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	t.Run("builds document and backs up previous output", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeTree(t, root, siteTree)
		output := filepath.Join(root, "mint.json")
		if err := os.WriteFile(output, []byte(`{"old":true}`), 0o600); err != nil {
			t.Fatal(err)
		}

		p := DefaultPipeline(newTestRegistry(),
			[]Option{WithLogger(quietLogger())},
			WithPipelineExclude("node_modules"),
			WithPipelineBaseDir(filepath.Join(root, "base")),
			WithPipelineBackupDir(filepath.Join(root, "bk")),
			WithPipelineJobs(3),
			WithPipelineClock(fixedTime),
			WithPipelineLogger(quietLogger()),
		)
		wantSteps := []string{StepDiscover, StepLoad, StepBase, StepBackup, StepAssemble, StepWrite}
		if !reflect.DeepEqual(p.StepNames(), wantSteps) {
			t.Fatalf("expected steps %v, got %v", wantSteps, p.StepNames())
		}

		build := model.NewBuild("b1", root, output)
		if err := p.Execute(context.Background(), build); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		wantPaths := []string{
			filepath.Join(root, "api", "config.js"),
			filepath.Join(root, "drafts", "config.js"),
			filepath.Join(root, "guides", "config.js"),
		}
		if !reflect.DeepEqual(build.FragmentPaths, wantPaths) {
			t.Errorf("expected paths %v, got %v", wantPaths, build.FragmentPaths)
		}
		if !reflect.DeepEqual(build.Skipped, wantPaths[1:2]) {
			t.Errorf("expected drafts to be skipped, got %v", build.Skipped)
		}

		backupPath := filepath.Join(root, "bk", "_mint-20250203-141530.json")
		if build.BackupPath != backupPath {
			t.Errorf("expected backup %q, got %q", backupPath, build.BackupPath)
		}
		if data, err := os.ReadFile(backupPath); err != nil || string(data) != `{"old":true}` {
			t.Errorf("unexpected backup content %q, %v", data, err)
		}

		data, err := os.ReadFile(output)
		if err != nil {
			t.Fatalf("read output: %v", err)
		}
		want := `{
  "name": "Docs",
  "navigation": [
    {
      "group": "API",
      "pages": [
        "api/overview"
      ]
    },
    {
      "group": "Guides",
      "pages": [
        "guides/intro",
        "guides/setup"
      ]
    }
  ],
  "tabs": [
    {
      "name": "API",
      "url": "api"
    }
  ],
  "anchors": [
    {
      "name": "Blog",
      "url": "https://example.com"
    }
  ]
}`
		if string(data) != want {
			t.Errorf("expected:\n%s\ngot:\n%s", want, data)
		}
		if build.Digest == "" {
			t.Error("expected digest to be set")
		}
	})

	t.Run("no fragments and no base", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		output := filepath.Join(root, "mint.json")

		p := DefaultPipeline(newTestRegistry(),
			[]Option{WithLogger(quietLogger())},
			WithPipelineBackupDir(filepath.Join(root, "bk")),
			WithPipelineLogger(quietLogger()),
		)
		build := model.NewBuild("b2", root, output)
		if err := p.Execute(context.Background(), build); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(output)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "{\n  \"navigation\": []\n}" {
			t.Errorf("unexpected output %q", data)
		}
		if build.BackupPath != "" {
			t.Errorf("expected no backup, got %q", build.BackupPath)
		}
		if _, err := os.Stat(filepath.Join(root, "bk")); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected no backup directory, got %v", err)
		}
	})

	t.Run("dry run touches nothing", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeTree(t, root, map[string]string{"a/config.js": `export default { group: "A" };`})
		output := filepath.Join(root, "mint.json")
		if err := os.WriteFile(output, []byte("previous"), 0o600); err != nil {
			t.Fatal(err)
		}

		p := DefaultPipeline(newTestRegistry(),
			[]Option{WithLogger(quietLogger())},
			WithPipelineDryRun(true),
			WithPipelineLogger(quietLogger()),
		)
		if !reflect.DeepEqual(p.StepNames(), []string{StepDiscover, StepLoad, StepBase, StepAssemble}) {
			t.Fatalf("unexpected dry-run steps %v", p.StepNames())
		}

		build := model.NewBuild("b3", root, output)
		if err := p.Execute(context.Background(), build); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if build.Document == nil || build.Document.Len() != 1 {
			t.Errorf("expected document with navigation only, got %v", build.Document)
		}
		if data, _ := os.ReadFile(output); string(data) != "previous" {
			t.Errorf("expected output to be untouched, got %q", data)
		}
	})

	t.Run("fragment names without a loader are ignored", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeTree(t, root, map[string]string{
			"a/config.js":  `export default { group: "A" };`,
			"b/config.txt": `not a module`,
		})

		p := DefaultPipeline(newTestRegistry(),
			[]Option{WithLogger(quietLogger())},
			WithPipelineFragmentNames("config.js", "config.txt"),
			WithPipelineDryRun(true),
			WithPipelineLogger(quietLogger()),
		)
		build := model.NewBuild("b5", root, filepath.Join(root, "mint.json"))
		if err := p.Execute(context.Background(), build); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := []string{filepath.Join(root, "a", "config.js")}; !reflect.DeepEqual(build.FragmentPaths, want) {
			t.Errorf("expected paths %v, got %v", want, build.FragmentPaths)
		}
	})

	t.Run("load failure leaves previous output in place", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeTree(t, root, map[string]string{
			"a/config.js": `export default { group: "A" };`,
			"b/config.js": `export default { group: ;`,
		})
		output := filepath.Join(root, "mint.json")
		if err := os.WriteFile(output, []byte("previous"), 0o600); err != nil {
			t.Fatal(err)
		}

		p := DefaultPipeline(newTestRegistry(),
			[]Option{WithLogger(quietLogger())},
			WithPipelineBackupDir(filepath.Join(root, "bk")),
			WithPipelineLogger(quietLogger()),
		)
		build := model.NewBuild("b4", root, output)
		err := p.Execute(context.Background(), build)
		if !errors.Is(err, model.ErrLoad) {
			t.Fatalf("expected ErrLoad, got %v", err)
		}
		if data, _ := os.ReadFile(output); string(data) != "previous" {
			t.Errorf("expected output to be untouched, got %q", data)
		}
	})

	t.Run("missing root is a discovery error", func(t *testing.T) {
		t.Parallel()

		root := filepath.Join(t.TempDir(), "missing")
		p := DefaultPipeline(newTestRegistry(), []Option{WithLogger(quietLogger())}, WithPipelineLogger(quietLogger()))
		err := p.Execute(context.Background(), model.NewBuild("b5", root, filepath.Join(root, "mint.json")))
		if !errors.Is(err, model.ErrDiscovery) {
			t.Errorf("expected ErrDiscovery, got %v", err)
		}
	})
}

// TestBackupStepPrune tests retention after a backup.
func TestBackupStepPrune(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	output := filepath.Join(root, "mint.json")
	dir := filepath.Join(root, "bk")

	times := []time.Time{
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local),
		time.Date(2025, 1, 2, 0, 0, 0, 0, time.Local),
		time.Date(2025, 1, 3, 0, 0, 0, 0, time.Local),
	}
	for _, at := range times {
		at := at
		if err := os.WriteFile(output, []byte("{}"), 0o600); err != nil {
			t.Fatal(err)
		}
		p := DefaultPipeline(newTestRegistry(),
			[]Option{WithLogger(quietLogger())},
			WithPipelineBackupDir(dir),
			WithPipelineKeepBackups(2),
			WithPipelineClock(func() time.Time { return at }),
			WithPipelineLogger(quietLogger()),
		)
		if err := p.Execute(context.Background(), model.NewBuild("id", root, output)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	want := []string{"_mint-20250102-000000.json", "_mint-20250103-000000.json"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("expected %v, got %v", want, names)
	}
}

// TestBaseStepError tests that base failures abort the build.
func TestBaseStepError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"tab.js": `export const tab = "not a mapping";`})

	common, tab, anchor := base.FileProviders(dir, newTestRegistry(), quietLogger())
	step := NewBaseStep(common, tab, anchor)

	err := step.Do(context.Background(), newTestBuild())
	if !errors.Is(err, model.ErrBase) {
		t.Errorf("expected ErrBase, got %v", err)
	}
}

// TestDiscoverStepFilesystemOrder tests that both orders find the same files.
func TestDiscoverStepFilesystemOrder(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"b/config.js": "",
		"a/config.js": "",
	})

	sorted := model.NewBuild("s", root, "")
	if err := NewDiscoverStep().Do(context.Background(), sorted); err != nil {
		t.Fatal(err)
	}
	unsorted := model.NewBuild("u", root, "")
	if err := NewDiscoverStep(discovery.WithFilesystemOrder()).Do(context.Background(), unsorted); err != nil {
		t.Fatal(err)
	}

	if len(sorted.FragmentPaths) != 2 || len(unsorted.FragmentPaths) != 2 {
		t.Fatalf("expected 2 paths each, got %v and %v", sorted.FragmentPaths, unsorted.FragmentPaths)
	}
	if sorted.FragmentPaths[0] != filepath.Join(root, "a", "config.js") {
		t.Errorf("expected lexical order, got %v", sorted.FragmentPaths)
	}
}
