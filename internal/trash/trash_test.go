package trash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{"", Permanent, false},
		{"permanent", Permanent, false},
		{" Trash ", Trash, false},
		{"shred", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMethod(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMethod(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPermanentDelete(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "a.png")
	os.WriteFile(f, []byte("x"), 0o644)

	if err := PermanentDelete(f); err != nil {
		t.Fatalf("PermanentDelete: %v", err)
	}
	if _, err := os.Stat(f); !os.IsNotExist(err) {
		t.Error("file should be gone")
	}
	if err := PermanentDelete(f); err != nil {
		t.Errorf("PermanentDelete on missing file: %v", err)
	}
}

func TestXDGTrash(t *testing.T) {
	src := t.TempDir()
	trashDir := filepath.Join(t.TempDir(), "Trash")

	for i := 0; i < 2; i++ {
		f := filepath.Join(src, "a.png")
		os.WriteFile(f, []byte("x"), 0o644)
		if err := xdgTrash(f, trashDir); err != nil {
			t.Fatalf("xdgTrash: %v", err)
		}
		if _, err := os.Stat(f); !os.IsNotExist(err) {
			t.Fatal("source should be moved out")
		}
	}

	for _, name := range []string{"a.png", "a.2.png"} {
		if _, err := os.Stat(filepath.Join(trashDir, "files", name)); err != nil {
			t.Errorf("missing trashed file %s: %v", name, err)
		}
		info, err := os.ReadFile(filepath.Join(trashDir, "info", name+".trashinfo"))
		if err != nil {
			t.Fatalf("missing trashinfo for %s: %v", name, err)
		}
		if !strings.Contains(string(info), "Path="+filepath.Join(src, "a.png")) {
			t.Errorf("trashinfo = %q", info)
		}
	}
}

func TestRemover(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "a.png")
	os.WriteFile(f, []byte("x"), 0o644)

	if err := Permanent.Remover()(f); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(f); !os.IsNotExist(err) {
		t.Error("permanent remover should delete the file")
	}
}
