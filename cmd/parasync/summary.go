package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/parasync/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")).Bold(true)
)

type summaryLine struct {
	live, dry string
	n         int
	style     lipgloss.Style
}

// printSummary writes the end-of-run counts. Dry runs use "Would ..." wording.
func printSummary(w io.Writer, r *models.Report, verbose bool) {
	title := "Summary"
	if r.DryRun {
		title = "Summary (dry run, nothing written)"
	}
	fmt.Fprintln(w, titleStyle.Render(title))

	lines := []summaryLine{
		{"Added or updated properties in", "Would add or update properties in", r.Changed, countStyle},
		{"Moved", "Would move", r.Moved, countStyle},
	}
	if r.DirsRemoved > 0 {
		lines = append(lines, summaryLine{"Removed empty directories:", "Would remove empty directories:", r.DirsRemoved, countStyle})
	}
	for _, l := range lines {
		label := l.live
		if r.DryRun {
			label = l.dry
		}
		fmt.Fprintf(w, "  %s %s\n", label, l.style.Render(fmt.Sprint(l.n)))
	}
	fmt.Fprintf(w, "  Skipped (no changes needed) %s\n", countStyle.Render(fmt.Sprint(r.Skipped)))
	if r.Errors > 0 {
		fmt.Fprintf(w, "  Errors %s\n", errorStyle.Render(fmt.Sprint(r.Errors)))
	}
	fmt.Fprintf(w, "  Total files processed %s\n", countStyle.Render(fmt.Sprint(r.Scanned)))

	if !verbose {
		return
	}
	for _, o := range r.Outcomes {
		switch {
		case o.Err != "":
			fmt.Fprintf(w, "  %s %s\n", errorStyle.Render("✗"), o.Err)
		case o.Moved:
			fmt.Fprintf(w, "  → %s %s\n", o.Path, mutedStyle.Render(o.NewPath))
		case o.Changed:
			fmt.Fprintf(w, "  ✓ %s\n", o.Path)
		}
	}
	for _, d := range r.RemovedDirs {
		fmt.Fprintf(w, "  %s %s\n", mutedStyle.Render("rmdir"), d)
	}
}
