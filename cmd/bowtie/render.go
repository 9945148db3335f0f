package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dd0wney/cluso-bowtie/pkg/export"
	"github.com/dd0wney/cluso-bowtie/pkg/inference"
)

var (
	colorPrimary = lipgloss.Color("#00D4FF")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	numberStyle = cellStyle.
			Align(lipgloss.Right)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorError)

	borderStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

// renderTable draws rows under headers. Columns listed in numeric are
// right aligned.
func renderTable(headers []string, rows [][]string, numeric ...int) string {
	right := make(map[int]bool, len(numeric))
	for _, c := range numeric {
		right[c] = true
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case right[col]:
				return numberStyle
			default:
				return cellStyle
			}
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

// emit writes v as JSON or YAML, or calls render for the table format.
func (a *app) emit(w io.Writer, v any, render func() string) error {
	switch a.format {
	case "json":
		return export.WriteJSON(w, v)
	case "yaml":
		return export.WriteYAML(w, v)
	default:
		_, err := fmt.Fprintln(w, render())
		return err
	}
}

func prob(p float64) string {
	return fmt.Sprintf("%.4f", p)
}

func signed(p float64) string {
	return fmt.Sprintf("%+.4f", p)
}

func distribution(d inference.Distribution) string {
	parts := make([]string, len(d.States))
	for i, s := range d.States {
		parts[i] = fmt.Sprintf("%s %.4f", s, d.Probabilities[i])
	}
	return strings.Join(parts, "  ")
}

// orderedResult lists the nodes of r in the network's topological order.
func orderedResult(eng *inference.Engine, r inference.Result) []inference.Distribution {
	out := make([]inference.Distribution, 0, len(r))
	for _, id := range eng.Network().Order() {
		if d, ok := r[id]; ok {
			out = append(out, d)
		}
	}
	return out
}
