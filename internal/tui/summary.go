package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"stripdrop/internal/processor"
)

const maxResultRows = 8

// renderResults draws the last batch as a two-column table, one row per
// written file, most recent completions last.
func renderResults(result processor.BatchResult) string {
	if len(result.Entries) == 0 {
		return ""
	}

	type row struct{ label, value string }
	rows := make([]row, 0, len(result.Entries))
	for _, entry := range result.Entries {
		value := filepath.Base(entry.Path)
		if entry.Temporary {
			value += " (temp)"
		}
		if len(entry.Categories) > 0 {
			value += "  removed: " + strings.Join(entry.Categories, ", ")
		}
		rows = append(rows, row{label: shorten(entry.Source, 36), value: value})
	}

	hidden := 0
	if len(rows) > maxResultRows {
		hidden = len(rows) - maxResultRows
		rows = rows[hidden:]
	}

	labelWidth := 0
	valueWidth := 0
	for _, r := range rows {
		labelWidth = max(labelWidth, len(r.label))
		valueWidth = max(valueWidth, len(r.value))
	}

	hline := strings.Repeat("-", labelWidth+valueWidth+3)
	lines := []string{hline}
	if hidden > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("... %d earlier", hidden)))
	}
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%s | %s", labelStyle.Render(padRight(r.label, labelWidth)), valueStyle.Render(r.value)))
	}
	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

func shorten(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return "..." + s[len(s)-width+3:]
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
