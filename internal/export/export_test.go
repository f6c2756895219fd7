package export

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/zhengda-lu/imgtag/internal/catalog"
)

func sampleRows(t *testing.T) []Row {
	t.Helper()
	store, err := catalog.OpenSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	store.EnsureTracked(ctx, []string{"/pics/b.png", "/pics/a.png", "/other/c.png"})
	store.SetLabels(ctx, "/pics/b.png", []string{"cat", "pet"})

	rows, err := Rows(ctx, store, "/pics")
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	return rows
}

func TestRows(t *testing.T) {
	rows := sampleRows(t)
	if len(rows) != 2 {
		t.Fatalf("rows = %+v, want the two /pics records", rows)
	}
	if rows[0].Path != "/pics/a.png" || rows[1].Path != "/pics/b.png" {
		t.Errorf("rows not sorted by path: %+v", rows)
	}
	if rows[1].Name != "b.png" || rows[1].Dir != "/pics" || len(rows[1].Labels) != 2 {
		t.Errorf("row = %+v", rows[1])
	}
	if rows[0].Labels == nil {
		t.Error("untagged rows should carry an empty label list")
	}
}

func TestWriteJSONL(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, JSONL, sampleRows(t)); err != nil {
		t.Fatal(err)
	}

	sc := bufio.NewScanner(&buf)
	var got []Row
	for sc.Scan() {
		var r Row
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		got = append(got, r)
	}
	if len(got) != 2 || got[1].Labels[0] != "cat" {
		t.Errorf("decoded = %+v", got)
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, YAML, sampleRows(t)); err != nil {
		t.Fatal(err)
	}
	var got []Row
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1].Labels[1] != "pet" {
		t.Errorf("decoded = %+v", got)
	}
}

func TestWriteParquet(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, Parquet, sampleRows(t)); err != nil {
		t.Fatal(err)
	}

	data := buf.Bytes()
	pf, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if pf.NumRows() != 2 {
		t.Fatalf("NumRows = %d, want 2", pf.NumRows())
	}

	reader := parquet.NewGenericReader[Row](pf)
	defer reader.Close()
	got := make([]Row, 2)
	n, _ := reader.Read(got)
	if n != 2 {
		t.Fatalf("read %d rows", n)
	}
	if got[1].Path != "/pics/b.png" || len(got[1].Labels) != 2 {
		t.Errorf("row = %+v", got[1])
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"jsonl", JSONL, false},
		{"JSON", JSONL, false},
		{"yml", YAML, false},
		{"parquet", Parquet, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
			}
		})
	}

	if f, ok := FormatFromPath("out/labels.parquet"); !ok || f != Parquet {
		t.Errorf("FormatFromPath = %q, %v", f, ok)
	}
	if _, ok := FormatFromPath("out/labels"); ok {
		t.Error("no extension should not resolve a format")
	}
}
