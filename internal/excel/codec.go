// Package excel converts between spreadsheet files and sequences of
// key-value rows. It has no schema awareness; callers interpret the
// column values.
package excel

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// ErrInvalidFormat is returned when the input is neither a modern
// workbook (xlsx) nor a legacy one (xls).
var ErrInvalidFormat = errors.New("not a valid Excel file")

// Row holds one data row keyed by the literal header names.
type Row map[string]string

var (
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Decode reads the first sheet of a workbook. The container format is
// detected from the leading bytes, not the file name. The first row is
// the header; fully blank rows are skipped. Returns the rows and the
// header order.
func Decode(r io.Reader) ([]Row, []string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}

	var cells [][]string
	switch {
	case bytes.HasPrefix(data, zipMagic):
		cells, err = readXLSX(data)
	case bytes.HasPrefix(data, oleMagic):
		cells, err = readXLS(data)
	default:
		return nil, nil, ErrInvalidFormat
	}
	if err != nil {
		return nil, nil, err
	}

	if len(cells) == 0 {
		return nil, nil, nil
	}

	headers := make([]string, 0, len(cells[0]))
	for _, h := range cells[0] {
		headers = append(headers, strings.TrimSpace(h))
	}

	var rows []Row
	for _, line := range cells[1:] {
		if isBlank(line) {
			continue
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(line) {
				row[h] = line[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, headers, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readXLS(data []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	// First sheet only, like the xlsx path. ReadAllCells would
	// concatenate every sheet in the workbook.
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, nil
	}

	cells := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			cells = append(cells, nil)
			continue
		}
		line := make([]string, 0, row.LastCol()+1)
		for j := 0; j <= row.LastCol(); j++ {
			line = append(line, row.Col(j))
		}
		cells = append(cells, line)
	}
	return cells, nil
}

// Encode writes one sheet with a header row followed by the data rows.
// Column order follows the headers slice; values missing from a row are
// left empty.
func Encode(sheetTitle string, headers []string, rows []map[string]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if sheetTitle == "" {
		sheetTitle = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheetTitle); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetTitle, cell, h); err != nil {
			return nil, err
		}
	}

	for r, row := range rows {
		for c, h := range headers {
			v, ok := row[h]
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetTitle, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func isBlank(line []string) bool {
	for _, v := range line {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
