package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndLoad(t *testing.T) {
	h := New(filepath.Join(t.TempDir(), "nested", "history.json"))

	entries, err := h.Load()
	if err != nil || len(entries) != 0 {
		t.Fatalf("Load on missing file = %v, %v", entries, err)
	}

	if err := h.Record(Entry{Operation: "rename", Directory: "/pics", Items: 3}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := h.Record(Entry{Operation: "purge", Directory: "/pics", Items: 2, Failed: 1}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err = h.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].ID == "" || entries[0].ID == entries[1].ID {
		t.Errorf("ids = %q, %q", entries[0].ID, entries[1].ID)
	}
	if entries[0].Timestamp.IsZero() {
		t.Error("timestamp should be filled in")
	}
}

func TestRecordRecoversFromCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	os.WriteFile(path, []byte("{not json"), 0o644)

	h := New(path)
	if _, err := h.Load(); err == nil {
		t.Error("expected parse error")
	}
	if err := h.Record(Entry{Operation: "organize"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	entries, err := h.Load()
	if err != nil || len(entries) != 1 {
		t.Errorf("entries = %v, err = %v", entries, err)
	}
}

func TestStats(t *testing.T) {
	h := New(filepath.Join(t.TempDir(), "history.json"))

	empty := h.Stats()
	if empty.TotalOperations != 0 || empty.ByOperation == nil {
		t.Errorf("empty stats = %+v", empty)
	}

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		op := "rename"
		if i%2 == 1 {
			op = "organize"
		}
		h.Record(Entry{Operation: op, Items: 1, Bytes: 10, Timestamp: base.Add(time.Duration(i) * time.Hour)})
	}

	s := h.Stats()
	if s.TotalOperations != 7 {
		t.Errorf("TotalOperations = %d", s.TotalOperations)
	}
	if s.ByOperation["rename"].Runs != 4 || s.ByOperation["organize"].Bytes != 30 {
		t.Errorf("ByOperation = %+v", s.ByOperation)
	}
	if len(s.Recent) != 5 {
		t.Fatalf("len(Recent) = %d, want 5", len(s.Recent))
	}
	if !s.Recent[0].Timestamp.Equal(base.Add(6 * time.Hour)) {
		t.Errorf("most recent = %v", s.Recent[0].Timestamp)
	}
}
