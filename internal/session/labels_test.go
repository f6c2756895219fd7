package session

import (
	"context"
	"testing"

	"github.com/zhengda-lu/imgtag/internal/catalog"
)

func currentLabels(t *testing.T, s *Session) []string {
	t.Helper()
	_, labels, ok := s.Current()
	if !ok {
		t.Fatal("no current record")
	}
	return labels
}

func TestAddLabel(t *testing.T) {
	f := newFixture(t, []string{"a.png"}, Options{})
	f.open(t)
	ctx := context.Background()

	added, err := f.sess.AddLabel(ctx, "  cat  ")
	if err != nil || !added {
		t.Fatalf("AddLabel = %v, %v", added, err)
	}
	if got := currentLabels(t, f.sess); len(got) != 1 || got[0] != "cat" {
		t.Errorf("labels = %v", got)
	}
}

func TestAddLabelIgnoresInvalidInput(t *testing.T) {
	f := newFixture(t, []string{"a.png"}, Options{DefaultLabel: "dog", UseDefault: false})
	f.open(t)
	ctx := context.Background()

	for _, in := range []string{"", "   ", "a" + catalog.Separator + "b"} {
		added, err := f.sess.AddLabel(ctx, in)
		if err != nil || added {
			t.Errorf("AddLabel(%q) = %v, %v; want false, nil", in, added, err)
		}
	}
	if n := f.store.adds.Load(); n != 0 {
		t.Errorf("store AddLabel called %d times, want 0", n)
	}
}

func TestAddLabelDuplicateSkipsStore(t *testing.T) {
	f := newFixture(t, []string{"a.png"}, Options{})
	f.open(t)
	ctx := context.Background()

	f.sess.AddLabel(ctx, "cat")
	before := f.store.adds.Load()

	added, err := f.sess.AddLabel(ctx, " cat")
	if err != nil || added {
		t.Fatalf("duplicate AddLabel = %v, %v", added, err)
	}
	if after := f.store.adds.Load(); after != before {
		t.Errorf("duplicate reached the store (%d -> %d calls)", before, after)
	}
}

func TestAddLabelDefault(t *testing.T) {
	f := newFixture(t, []string{"a.png"}, Options{DefaultLabel: "  keeper ", UseDefault: true})
	f.open(t)
	ctx := context.Background()

	added, err := f.sess.AddLabel(ctx, "  ")
	if err != nil || !added {
		t.Fatalf("AddLabel with default = %v, %v", added, err)
	}
	if got := currentLabels(t, f.sess); len(got) != 1 || got[0] != "keeper" {
		t.Errorf("labels = %v", got)
	}

	f.sess.SetDefaultLabel("", true)
	if added, _ := f.sess.AddLabel(ctx, ""); added {
		t.Error("blank default should be a no-op")
	}
}

func TestAddLabelWithoutCurrent(t *testing.T) {
	f := newFixture(t, nil, Options{})
	f.open(t)
	added, err := f.sess.AddLabel(context.Background(), "cat")
	if err != nil || added {
		t.Errorf("AddLabel = %v, %v", added, err)
	}
}

func TestAddLabelBeyondLoaded(t *testing.T) {
	f := newFixture(t, []string{"a.png", "b.png"}, Options{BatchSize: 1})
	f.open(t)
	f.sess.Next()

	added, err := f.sess.AddLabel(context.Background(), "cat")
	if err != nil || !added {
		t.Fatalf("AddLabel on unloaded record = %v, %v", added, err)
	}
	if got := currentLabels(t, f.sess); len(got) != 1 || got[0] != "cat" {
		t.Errorf("labels = %v", got)
	}
}

func TestRemoveAndToggleLabel(t *testing.T) {
	f := newFixture(t, []string{"a.png"}, Options{})
	f.open(t)
	ctx := context.Background()

	f.sess.AddLabel(ctx, "cat")
	f.sess.AddLabel(ctx, "dog")

	removed, err := f.sess.RemoveLabel(ctx, "cat")
	if err != nil || !removed {
		t.Fatalf("RemoveLabel = %v, %v", removed, err)
	}
	removed, err = f.sess.RemoveLabel(ctx, "cat")
	if err != nil || removed {
		t.Errorf("second RemoveLabel = %v, %v", removed, err)
	}

	present, err := f.sess.ToggleLabel(ctx, "dog")
	if err != nil || present {
		t.Errorf("toggle off = %v, %v", present, err)
	}
	present, err = f.sess.ToggleLabel(ctx, "dog")
	if err != nil || !present {
		t.Errorf("toggle on = %v, %v", present, err)
	}
	if got := currentLabels(t, f.sess); len(got) != 1 || got[0] != "dog" {
		t.Errorf("labels = %v", got)
	}
}
