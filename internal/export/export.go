package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/zhengda-lu/imgtag/internal/catalog"
)

type Format string

const (
	JSONL   Format = "jsonl"
	YAML    Format = "yaml"
	Parquet Format = "parquet"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case JSONL, YAML, Parquet:
		return f, nil
	case "json":
		return JSONL, nil
	case "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (use jsonl, yaml or parquet)", s)
	}
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	return f, err == nil
}

// Row is one exported catalog record.
type Row struct {
	Path   string   `json:"path" yaml:"path" parquet:"path"`
	Dir    string   `json:"dir" yaml:"dir" parquet:"dir"`
	Name   string   `json:"name" yaml:"name" parquet:"name"`
	Labels []string `json:"labels" yaml:"labels" parquet:"labels,list"`
}

// Rows collects every catalog record of dir (the whole catalog when dir
// is empty), sorted by path.
func Rows(ctx context.Context, store catalog.Store, dir string) ([]Row, error) {
	tagged, err := store.QueryTagged(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to query tagged images: %w", err)
	}
	untagged, err := store.QueryUntagged(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to query untagged images: %w", err)
	}

	rows := make([]Row, 0, len(tagged)+len(untagged))
	for _, rec := range tagged {
		rows = append(rows, newRow(rec.Path, rec.Labels))
	}
	for _, p := range untagged {
		rows = append(rows, newRow(p, []string{}))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Path < rows[j].Path })
	return rows, nil
}

func newRow(path string, labels []string) Row {
	return Row{
		Path:   path,
		Dir:    filepath.Dir(path),
		Name:   filepath.Base(path),
		Labels: labels,
	}
}

// Write encodes rows to w in the given format.
func Write(w io.Writer, format Format, rows []Row) error {
	switch format {
	case JSONL:
		enc := json.NewEncoder(w)
		for _, r := range rows {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("failed to write jsonl: %w", err)
			}
		}
		return nil
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("failed to write yaml: %w", err)
		}
		return enc.Close()
	case Parquet:
		pw := parquet.NewGenericWriter[Row](w)
		if _, err := pw.Write(rows); err != nil {
			return fmt.Errorf("failed to write parquet: %w", err)
		}
		if err := pw.Close(); err != nil {
			return fmt.Errorf("failed to finish parquet file: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
