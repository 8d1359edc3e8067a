package output

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// Formats lists the accepted values of --format
var Formats = []string{"text", "json", "yaml", "xlsx"}

// ValidFormat reports whether format is one of Formats
func ValidFormat(format string) bool {
	return slices.Contains(Formats, format)
}

// Table is one titled grid of a report
type Table struct {
	Title  string
	Header []string
	Rows   [][]any
}

// Document is a rendered report: Data feeds json and yaml, Tables feed text and xlsx
type Document struct {
	Title   string
	Summary []string
	Data    any
	Tables  []Table
}

// Write renders doc to w in the given format
func Write(w io.Writer, format string, doc Document) error {
	switch format {
	case "text":
		return writeText(w, doc)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc.Data)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc.Data); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case "xlsx":
		return writeWorkbook(w, doc)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeText(w io.Writer, doc Document) error {
	var b strings.Builder
	if doc.Title != "" {
		b.WriteString(doc.Title + "\n")
		b.WriteString(strings.Repeat("=", len(doc.Title)) + "\n\n")
	}
	for _, line := range doc.Summary {
		b.WriteString(line + "\n")
	}
	if len(doc.Summary) > 0 {
		b.WriteString("\n")
	}

	for _, t := range doc.Tables {
		if t.Title != "" {
			b.WriteString(t.Title + "\n")
		}
		if len(t.Rows) == 0 {
			b.WriteString("  (none)\n\n")
			continue
		}
		widths := columnWidths(t)
		writeRow(&b, widths, toStrings(t.Header))
		dashes := make([]string, len(widths))
		for i, width := range widths {
			dashes[i] = strings.Repeat("-", width)
		}
		writeRow(&b, widths, dashes)
		for _, row := range t.Rows {
			writeRow(&b, widths, toStrings(row))
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func columnWidths(t Table) []int {
	widths := make([]int, len(t.Header))
	for i, h := range t.Header {
		widths[i] = len(h)
	}
	for _, row := range t.Rows {
		for i, cell := range toStrings(row) {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	return widths
}

func writeRow(b *strings.Builder, widths []int, cells []string) {
	for i, cell := range cells {
		if i >= len(widths) {
			break
		}
		if i > 0 {
			b.WriteString("  ")
		}
		fmt.Fprintf(b, "%-*s", widths[i], cell)
	}
	b.WriteString("\n")
}

func toStrings[T any](cells []T) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = fmt.Sprint(c)
	}
	return out
}

// writeWorkbook puts every table on its own sheet
func writeWorkbook(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, t := range doc.Tables {
		sheet := sheetName(t.Title, i)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return err
		}

		for col, h := range t.Header {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			if err := f.SetCellValue(sheet, cell, h); err != nil {
				return err
			}
		}
		if len(t.Header) > 0 {
			last, _ := excelize.CoordinatesToCellName(len(t.Header), 1)
			if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
				return err
			}
		}

		for r, row := range t.Rows {
			cell, _ := excelize.CoordinatesToCellName(1, r+2)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return err
			}
		}

		for col, width := range columnWidths(t) {
			name, _ := excelize.ColumnNumberToName(col + 1)
			_ = f.SetColWidth(sheet, name, name, float64(width+2))
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// sheetName trims a title to the 31 characters Excel allows
func sheetName(title string, index int) string {
	if title == "" {
		return fmt.Sprintf("Sheet%d", index+1)
	}
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, title)
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}
