// Package output renders status records in the supported output formats.
// The format is always an explicit argument: there is no package-level
// "current format" state.
package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/treykane/tunnels/internal/util"
)

// Format selects how a record list is rendered.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTOML  Format = "toml"
)

// Formats lists the accepted format names.
func Formats() []string {
	return []string{string(FormatTable), string(FormatJSON), string(FormatYAML), string(FormatTOML)}
}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTable, FormatJSON, FormatYAML, FormatTOML:
		return Format(s), nil
	}
	return "", fmt.Errorf("unsupported format %q (supported: %s)", s, strings.Join(Formats(), ", "))
}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	borderStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	runningStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	inactiveStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
)

// Encode renders rows in the given format. columns is the canonical column
// order; want optionally narrows and reorders it (unknown names are
// ignored). Structured formats receive the same filtered records the table
// shows.
func Encode(f Format, columns, want []string, rows []map[string]string) (string, error) {
	cols := selectColumns(columns, want)
	filtered := filterRows(cols, rows)
	switch f {
	case FormatTable:
		return renderTable(cols, filtered), nil
	case FormatJSON:
		b, err := json.MarshalIndent(filtered, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b), nil
	case FormatYAML:
		b, err := yaml.Marshal(filtered)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case FormatTOML:
		// Rows live under a "Tunnel" array-of-tables key.
		b, err := toml.Marshal(map[string][]map[string]string{"Tunnel": filtered})
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return "", fmt.Errorf("unsupported format %q", f)
}

// selectColumns keeps the requested columns in their requested order,
// dropping names that are not actual columns. An empty request keeps the
// canonical order.
func selectColumns(columns, want []string) []string {
	if len(want) == 0 {
		return columns
	}
	known := map[string]bool{}
	for _, c := range columns {
		known[c] = true
	}
	var out []string
	for _, c := range want {
		if known[c] {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return columns
	}
	return out
}

func filterRows(cols []string, rows []map[string]string) []map[string]string {
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		m := make(map[string]string, len(cols))
		for _, c := range cols {
			m[c] = row[c]
		}
		out = append(out, m)
	}
	return out
}

func columnTitle(col string) string {
	words := strings.Split(col, "_")
	for i, w := range words {
		words[i] = util.TitleCase(w)
	}
	return strings.Join(words, " ")
}

// renderTable lays the rows out in fixed-width columns inside a rounded
// border. Cells may span multiple lines (connections are newline-joined);
// continuation lines keep their column position.
func renderTable(cols []string, rows []map[string]string) string {
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = len(columnTitle(c))
	}
	cells := make([][][]string, len(rows))
	for ri, row := range rows {
		cells[ri] = make([][]string, len(cols))
		for ci, c := range cols {
			lines := strings.Split(row[c], "\n")
			cells[ri][ci] = lines
			for _, line := range lines {
				if len(line) > widths[ci] {
					widths[ci] = len(line)
				}
			}
		}
	}

	var b strings.Builder
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = headerStyle.Render(pad(columnTitle(c), widths[i]))
	}
	b.WriteString(strings.Join(headers, "  "))

	for ri := range cells {
		height := 1
		for _, lines := range cells[ri] {
			if len(lines) > height {
				height = len(lines)
			}
		}
		for li := 0; li < height; li++ {
			b.WriteString("\n")
			parts := make([]string, len(cols))
			for ci := range cols {
				text := ""
				if li < len(cells[ri][ci]) {
					text = cells[ri][ci][li]
				}
				parts[ci] = styleCell(cols[ci], pad(text, widths[ci]))
			}
			b.WriteString(strings.Join(parts, "  "))
		}
	}
	return borderStyle.Render(b.String())
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// styleCell colorizes status values; other columns render as-is.
func styleCell(col, padded string) string {
	if col != "status" {
		return padded
	}
	switch strings.ToLower(strings.TrimSpace(padded)) {
	case "running":
		return runningStyle.Render(padded)
	case "inactive":
		return inactiveStyle.Render(padded)
	case "":
		return padded
	default:
		return dimStyle.Render(padded)
	}
}
