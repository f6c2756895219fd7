package cli

import (
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/zhengda-lu/imgtag/internal/catalog"
	"github.com/zhengda-lu/imgtag/internal/config"
)

// resetFlags restores every flag of cmd and its children to its default,
// since cobra keeps parsed values between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

type cliEnv struct {
	dir string
	cfg string
}

func newCLIEnv(t *testing.T, files ...string) cliEnv {
	t.Helper()
	root := t.TempDir()
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))

	dir := filepath.Join(root, "pics")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return cliEnv{dir: dir, cfg: filepath.Join(root, "config", "imgtag", "config.yaml")}
}

func (e cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	rootCmd.SetArgs(append([]string{"--config", e.cfg}, args...))
	var err error
	out := captureOutput(func() {
		err = rootCmd.Execute()
	})
	return out, err
}

func (e cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("imgtag %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	return v
}

func TestScanLabelRename(t *testing.T) {
	e := newCLIEnv(t, "a.png", "b.png", "c.png", "notes.txt")

	scan := decode[scanJSON](t, e.mustRun(t, "scan", e.dir, "--all", "--json"))
	if scan.Status.Total != 3 || scan.Status.Loaded != 3 || len(scan.Images) != 3 {
		t.Fatalf("scan = %+v", scan)
	}

	out := e.mustRun(t, "label", "add", e.dir, "b.png", "cat", "pet")
	if !strings.Contains(out, "Added 2") {
		t.Errorf("label add output = %q", out)
	}

	rec := decode[catalog.Record](t, e.mustRun(t, "label", "ls", e.dir, "b.png", "--json"))
	if strings.Join(rec.Labels, ",") != "cat,pet" {
		t.Errorf("labels = %v", rec.Labels)
	}

	ren := decode[renameJSON](t, e.mustRun(t, "rename", e.dir, "--prefix", "img", "--yes", "--json"))
	if ren.Summary.Renamed != 3 {
		t.Fatalf("rename = %+v", ren)
	}
	if _, err := os.Stat(filepath.Join(e.dir, "img_0002.png")); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}

	rec = decode[catalog.Record](t, e.mustRun(t, "label", "ls", e.dir, "img_0002.png", "--json"))
	if len(rec.Labels) != 2 {
		t.Errorf("labels did not follow the rename: %v", rec.Labels)
	}
}

func TestRenameDryRunLeavesFiles(t *testing.T) {
	e := newCLIEnv(t, "a.png", "b.png")

	ren := decode[renameJSON](t, e.mustRun(t, "rename", e.dir, "--prefix", "x", "--dry-run", "--json"))
	if !ren.DryRun || len(ren.Plan) != 2 {
		t.Errorf("dry run = %+v", ren)
	}
	if _, err := os.Stat(filepath.Join(e.dir, "a.png")); err != nil {
		t.Errorf("dry run moved files: %v", err)
	}
}

func TestPurge(t *testing.T) {
	e := newCLIEnv(t, "a.png", "b.png")
	e.mustRun(t, "scan", e.dir, "--all")
	e.mustRun(t, "label", "add", e.dir, "a.png", "keep")

	dry := decode[purgeJSON](t, e.mustRun(t, "purge", e.dir, "--dry-run", "--json"))
	if len(dry.Candidates) != 1 || filepath.Base(dry.Candidates[0]) != "b.png" {
		t.Fatalf("candidates = %v", dry.Candidates)
	}
	if _, err := os.Stat(filepath.Join(e.dir, "b.png")); err != nil {
		t.Fatalf("dry run deleted files: %v", err)
	}

	res := decode[purgeJSON](t, e.mustRun(t, "purge", e.dir, "--yes", "--json"))
	if res.Summary.Deleted != 1 || res.Method != "permanent" {
		t.Errorf("purge = %+v", res)
	}
	if _, err := os.Stat(filepath.Join(e.dir, "b.png")); !os.IsNotExist(err) {
		t.Errorf("b.png should be gone, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(e.dir, "a.png")); err != nil {
		t.Errorf("labeled file removed: %v", err)
	}
}

func TestOrganize(t *testing.T) {
	e := newCLIEnv(t, "a.png", "b.png")
	e.mustRun(t, "label", "add", e.dir, "a.png", "cat", "pet")

	res := decode[organizeJSON](t, e.mustRun(t, "organize", e.dir, "--json"))
	if res.Summary.Copied != 2 {
		t.Fatalf("organize = %+v", res)
	}
	for _, label := range []string{"cat", "pet"} {
		data, err := os.ReadFile(filepath.Join(e.dir, label, "a.png"))
		if err != nil || string(data) != "a.png" {
			t.Errorf("%s copy: %q, %v", label, data, err)
		}
	}

	again := decode[organizeJSON](t, e.mustRun(t, "organize", e.dir, "--verify", "--json"))
	if again.Summary.Copied != 0 || again.Summary.Existing != 2 || len(again.Summary.Conflicts) != 0 {
		t.Errorf("second organize = %+v", again.Summary)
	}
}

func TestExportParquetByExtension(t *testing.T) {
	e := newCLIEnv(t, "a.png")
	e.mustRun(t, "label", "add", e.dir, "a.png", "cat")

	dst := filepath.Join(t.TempDir(), "labels.parquet")
	e.mustRun(t, "export", e.dir, "-o", dst)

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 8 || string(data[:4]) != "PAR1" {
		t.Errorf("not a parquet file: % x", data[:min(len(data), 8)])
	}
}

func TestConfigSetDefaultLabel(t *testing.T) {
	e := newCLIEnv(t, "a.png")

	e.mustRun(t, "config", "set-default-label", "  keeper ")
	cfg, err := config.LoadFrom(e.cfg)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Labels.Default != "keeper" || !cfg.Labels.UseDefault {
		t.Errorf("labels config = %+v", cfg.Labels)
	}

	rec := decode[catalog.Record](t, e.mustRun(t, "label", "add", e.dir, "a.png", "--json"))
	if len(rec.Labels) != 1 || rec.Labels[0] != "keeper" {
		t.Errorf("default label not applied: %v", rec.Labels)
	}
}

func TestConfigValidateReportsWarnings(t *testing.T) {
	e := newCLIEnv(t)
	if err := os.MkdirAll(filepath.Dir(e.cfg), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(e.cfg, []byte("scan:\n  order: size\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res := decode[struct {
		Path     string           `json:"path"`
		Warnings []config.Warning `json:"warnings"`
	}](t, e.mustRun(t, "config", "validate", "--json"))
	if res.Path != e.cfg || len(res.Warnings) != 1 || res.Warnings[0].Field != "scan.order" {
		t.Errorf("validate = %+v", res)
	}
}

func TestScanRejectsBothFilters(t *testing.T) {
	e := newCLIEnv(t, "a.png")
	if _, err := e.run(t, "scan", e.dir, "--tagged", "--untagged"); err == nil {
		t.Error("expected error for --tagged with --untagged")
	}
}

func TestShowJSON(t *testing.T) {
	e := newCLIEnv(t)
	path := filepath.Join(e.dir, "photo.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 7, 3))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	e.mustRun(t, "label", "add", e.dir, "photo.png", "sky")
	res := decode[showJSON](t, e.mustRun(t, "show", path, "--json"))
	if res.Width != 7 || res.Height != 3 || res.Format != "png" {
		t.Errorf("info = %+v", res.Info)
	}
	if !res.Tracked || len(res.Labels) != 1 {
		t.Errorf("show = tracked %v labels %v", res.Tracked, res.Labels)
	}
}
