package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/zhengda-lu/imgtag/internal/catalog"
	"github.com/zhengda-lu/imgtag/internal/engine"
	"github.com/zhengda-lu/imgtag/internal/history"
	"github.com/zhengda-lu/imgtag/internal/imageinfo"
	"github.com/zhengda-lu/imgtag/internal/session"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Scan JSON types
// ---------------------------------------------------------------------------

type scanJSON struct {
	Version   string           `json:"version"`
	Timestamp time.Time        `json:"timestamp"`
	Status    session.Status   `json:"status"`
	Stats     catalog.Stats    `json:"stats"`
	Images    []catalog.Record `json:"images"`
}

func buildScanJSON(st session.Status, stats catalog.Stats, records []catalog.Record) scanJSON {
	if records == nil {
		records = []catalog.Record{}
	}
	return scanJSON{
		Version:   version,
		Timestamp: time.Now().UTC(),
		Status:    st,
		Stats:     stats,
		Images:    records,
	}
}

// ---------------------------------------------------------------------------
// Bulk operation JSON types
// ---------------------------------------------------------------------------

type renameJSON struct {
	Version   string               `json:"version"`
	Timestamp time.Time            `json:"timestamp"`
	Directory string               `json:"directory"`
	DryRun    bool                 `json:"dry_run"`
	Plan      []engine.Move        `json:"plan,omitempty"`
	Summary   engine.RenameSummary `json:"summary"`
}

type organizeJSON struct {
	Version   string                 `json:"version"`
	Timestamp time.Time              `json:"timestamp"`
	Directory string                 `json:"directory"`
	DryRun    bool                   `json:"dry_run"`
	Plan      []engine.CopyJob       `json:"plan,omitempty"`
	Summary   engine.OrganizeSummary `json:"summary"`
}

type purgeJSON struct {
	Version    string              `json:"version"`
	Timestamp  time.Time           `json:"timestamp"`
	Directory  string              `json:"directory"`
	DryRun     bool                `json:"dry_run"`
	Method     string              `json:"method"`
	Candidates []string            `json:"candidates,omitempty"`
	Summary    engine.PurgeSummary `json:"summary"`
}

func newRenameJSON(dir string) renameJSON {
	return renameJSON{Version: version, Timestamp: time.Now().UTC(), Directory: dir}
}

func newOrganizeJSON(dir string) organizeJSON {
	return organizeJSON{Version: version, Timestamp: time.Now().UTC(), Directory: dir}
}

func newPurgeJSON(dir, method string) purgeJSON {
	return purgeJSON{Version: version, Timestamp: time.Now().UTC(), Directory: dir, Method: method}
}

// ---------------------------------------------------------------------------
// Show JSON type
// ---------------------------------------------------------------------------

type showJSON struct {
	imageinfo.Info
	Tracked bool     `json:"tracked"`
	Labels  []string `json:"labels"`
}

// ---------------------------------------------------------------------------
// Stats JSON type
// ---------------------------------------------------------------------------

type statsJSON struct {
	Version         string                            `json:"version"`
	TotalOperations int                               `json:"total_operations"`
	ByOperation     map[string]history.OperationStats `json:"by_operation"`
	Recent          []history.Entry                   `json:"recent"`
}

// buildStatsJSON converts history stats into a JSON-serializable structure.
func buildStatsJSON(stats history.Stats) statsJSON {
	return statsJSON{
		Version:         version,
		TotalOperations: stats.TotalOperations,
		ByOperation:     stats.ByOperation,
		Recent:          stats.Recent,
	}
}
