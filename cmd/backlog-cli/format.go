package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

func formatJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func formatTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			width := 0
			if i < len(widths) {
				width = widths[i]
			}
			parts[i] = fmt.Sprintf("%-*s", width, cell)
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	printRow(headers)
	seps := make([]string, len(headers))
	for i, width := range widths {
		seps[i] = strings.Repeat("-", width)
	}
	printRow(seps)
	for _, row := range rows {
		printRow(row)
	}
}

// output renders v as JSON, as a table of rows, or as the quiet identifier.
func output(w io.Writer, v any, quietVal string, headers []string, rows [][]string) error {
	switch flagFmt {
	case "quiet":
		fmt.Fprintln(w, quietVal)
		return nil
	case "table":
		formatTable(w, headers, rows)
		return nil
	default:
		return formatJSON(w, v)
	}
}

// orDash renders optional values in tables.
func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
