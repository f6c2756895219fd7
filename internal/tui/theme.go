package tui

import (
	"hash/fnv"

	"github.com/charmbracelet/lipgloss"
)

// ---------------------------------------------------------------------------
// Color palette -- single source of truth for all TUI colors.
// Values are ANSI-256 color codes passed to lipgloss.Color().
// ---------------------------------------------------------------------------

var (
	colorPrimary   = lipgloss.Color("170")
	colorSecondary = lipgloss.Color("212")
	colorSuccess   = lipgloss.Color("82")
	colorWarning   = lipgloss.Color("214")
	colorDanger    = lipgloss.Color("196")
	colorDim       = lipgloss.Color("241")
	colorSubtle    = lipgloss.Color("236")
	colorText      = lipgloss.Color("252")
	colorWhite     = lipgloss.Color("255")
	colorDangerBg  = lipgloss.Color("52")
)

// ---------------------------------------------------------------------------
// Label colors -- every label keeps the same chip color across sessions.
// ---------------------------------------------------------------------------

var labelColors = []lipgloss.Color{
	lipgloss.Color("75"),
	lipgloss.Color("214"),
	lipgloss.Color("141"),
	lipgloss.Color("223"),
	lipgloss.Color("39"),
	lipgloss.Color("119"),
	lipgloss.Color("208"),
	lipgloss.Color("183"),
	lipgloss.Color("220"),
	lipgloss.Color("171"),
	lipgloss.Color("82"),
	lipgloss.Color("212"),
}

// labelColor picks a palette color from a hash of the label name. The
// empty label gets colorPrimary.
func labelColor(name string) lipgloss.Color {
	if name == "" {
		return colorPrimary
	}
	h := fnv.New32a()
	h.Write([]byte(name))
	return labelColors[h.Sum32()%uint32(len(labelColors))]
}

// ---------------------------------------------------------------------------
// Coverage colors -- used for the "loaded k/n" bar.
// ---------------------------------------------------------------------------

var (
	coverageLow     = lipgloss.Color("214")
	coverageMedium  = lipgloss.Color("75")
	coverageCovered = lipgloss.Color("82")
)

// coverageColor returns a color based on a 0.0-1.0 ratio.
//   - >= 1.00 -> covered (green)
//   - >= 0.50 -> medium (blue)
//   - < 0.50  -> low (orange)
func coverageColor(ratio float64) lipgloss.Color {
	switch {
	case ratio >= 1:
		return coverageCovered
	case ratio >= 0.5:
		return coverageMedium
	default:
		return coverageLow
	}
}
