package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"

	"github.com/zhengda-lu/imgtag/internal/catalog"
	"github.com/zhengda-lu/imgtag/internal/engine"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// printRecords lists records as "name  [label, label]" relative to dir.
func printRecords(dir string, records []catalog.Record) {
	if len(records) == 0 {
		fmt.Println("No images found.")
		return
	}
	for _, r := range records {
		name := r.Path
		if rel, err := filepath.Rel(dir, r.Path); err == nil {
			name = rel
		}
		fmt.Printf("  %-40s %s\n", truncatePath(name, 40), labelList(r.Labels))
	}
}

func labelList(labels []string) string {
	if len(labels) == 0 {
		return dimStyle.Render("(untagged)")
	}
	return "[" + strings.Join(labels, ", ") + "]"
}

// outcomeLine renders a colored "done / skipped / failed" summary. Zero
// counts other than done are left out.
func outcomeLine(verb string, done, skipped, failed int) string {
	parts := []string{okStyle.Render(fmt.Sprintf("%s: %d", verb, done))}
	if skipped > 0 {
		parts = append(parts, warnStyle.Render(fmt.Sprintf("Skipped: %d", skipped)))
	}
	if failed > 0 {
		parts = append(parts, errStyle.Render(fmt.Sprintf("Failed: %d", failed)))
	}
	return strings.Join(parts, "  ")
}

func printFailures(title string, fs []engine.Failure) {
	if len(fs) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	for _, f := range fs {
		fmt.Printf("  %-40s %s\n", truncatePath(f.Path, 40), errStyle.Render(f.Err))
	}
}

// newProgress returns a progress callback drawing a bar on stderr, and a
// function that finishes the bar. Both are no-ops in JSON mode.
func newProgress(desc string) (engine.ProgressFunc, func()) {
	if jsonFlag {
		return nil, func() {}
	}
	bar := progressbar.Default(-1, desc)
	progress := func(done, total int, path string) {
		if bar.GetMax() != total {
			bar.ChangeMax(total)
		}
		bar.Describe(fmt.Sprintf("%s %s", desc, truncatePath(filepath.Base(path), 30)))
		_ = bar.Set(done)
	}
	return progress, func() { _ = bar.Finish() }
}

func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	return "..." + path[len(path)-maxLen+3:]
}

func confirmAction(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	var response string
	fmt.Scanln(&response)
	return strings.ToLower(strings.TrimSpace(response)) == "y"
}
