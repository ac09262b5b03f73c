// Package xlsx renders report tables as an .xlsx workbook.
package xlsx

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/tbourn/scooter-intake/internal/report"
)

// ContentType is the MIME type of the produced documents.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const maxColWidth = 255

// Encode writes every table of ex to its own sheet, in order. Headers and
// emphasized rows are bold; column widths follow the longest cell.
func Encode(ex report.Export) ([]byte, error) {
	if len(ex.Tables) == 0 {
		return nil, report.ErrEmptyWindow
	}
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx: style: %w", err)
	}

	for i, t := range ex.Tables {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.Name); err != nil {
				return nil, fmt.Errorf("xlsx: rename sheet %q: %w", t.Name, err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return nil, fmt.Errorf("xlsx: new sheet %q: %w", t.Name, err)
		}
		if err := writeTable(f, t, bold); err != nil {
			return nil, fmt.Errorf("xlsx: sheet %q: %w", t.Name, err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTable(f *excelize.File, t report.Table, bold int) error {
	widths := make([]int, len(t.Header))
	measure := func(row []any) {
		for i, v := range row {
			if v == nil {
				continue
			}
			n := utf8.RuneCountInString(fmt.Sprint(v))
			if i >= len(widths) {
				widths = append(widths, make([]int, i-len(widths)+1)...)
			}
			widths[i] = max(widths[i], n)
		}
	}

	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := setRow(f, t.Name, 1, header, bold); err != nil {
		return err
	}
	measure(header)

	emph := make(map[int]bool, len(t.Emphasis))
	for _, i := range t.Emphasis {
		emph[i] = true
	}
	for i, row := range t.Rows {
		style := -1
		if emph[i] {
			style = bold
		}
		if err := setRow(f, t.Name, i+2, row, style); err != nil {
			return err
		}
		measure(row)
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		width := math.Min(float64(w+2)*1.2, maxColWidth)
		if err := f.SetColWidth(t.Name, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any, style int) error {
	if len(values) == 0 {
		return nil
	}
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, start, &values); err != nil {
		return err
	}
	if style < 0 {
		return nil
	}
	end, err := excelize.CoordinatesToCellName(len(values), row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, start, end, style)
}
