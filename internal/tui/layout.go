package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader draws a header bar with breadcrumb navigation.
func renderHeader(parts ...string) string {
	breadcrumb := "imgtag"
	for _, p := range parts {
		breadcrumb += " > " + p
	}
	return headerBarStyle.Render(breadcrumb) + "\n"
}

// renderFooter draws a footer with keybind hints.
func renderFooter(hints string) string {
	return footerStyle.Render(hints)
}

// renderCoverageBar draws a bar of the given width.
// ratio should be between 0.0 and 1.0.
func renderCoverageBar(ratio float64, width int) string {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio * float64(width))
	if filled == 0 && ratio > 0 {
		filled = 1
	}
	empty := width - filled
	fillStyle := lipgloss.NewStyle().Foreground(coverageColor(ratio))
	return "[" + fillStyle.Render(strings.Repeat("█", filled)) + strings.Repeat("░", empty) + "]"
}

// renderChips draws labels as numbered colored chips.
func renderChips(labels []string) string {
	if len(labels) == 0 {
		return dimStyle.Render("(no labels)")
	}
	chips := make([]string, 0, len(labels))
	for i, l := range labels {
		text := l
		if i < 9 {
			text = string(rune('1'+i)) + " " + l
		}
		chips = append(chips, chipStyle.Background(labelColor(l)).Render(text))
	}
	return strings.Join(chips, " ")
}

func truncPath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	if maxLen <= 3 {
		return path[len(path)-maxLen:]
	}
	return "..." + path[len(path)-maxLen+3:]
}
