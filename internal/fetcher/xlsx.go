package fetcher

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions selects the worksheet to read.
type XLSXOptions struct {
	SheetIndex int
	// SheetName overrides SheetIndex when set.
	SheetName string
}

// ReadXLSX returns every row of the selected sheet as typed cells: numbers
// as float64, date-formatted cells as time.Time, booleans as bool, blanks as
// nil and everything else as string.
func ReadXLSX(path string, opts XLSXOptions) ([][]any, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open %s", path)
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	rows := make([][]any, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		values := make([]any, len(row.Cells))
		for j, c := range row.Cells {
			values[j] = cellValue(c, f.Date1904)
		}
		rows = append(rows, values)
	}
	return rows, nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}
	if opts.SheetIndex < 0 || opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}

func cellValue(c *xlsx.Cell, date1904 bool) any {
	if c == nil {
		return nil
	}
	switch c.Type() {
	case xlsx.CellTypeNumeric:
		if c.IsTime() {
			if t, err := c.GetTime(date1904); err == nil {
				return t
			}
		}
		if v, err := c.Float(); err == nil {
			return v
		}
	case xlsx.CellTypeBool:
		return c.Bool()
	}

	s := strings.TrimSpace(c.String())
	if s == "" {
		return nil
	}
	return s
}
