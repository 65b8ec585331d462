package fetcher

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-classifier/internal/attribution"
)

// TableOptions configures ReadAttributionTable.
type TableOptions struct {
	// Sheet names the xlsx worksheet; empty reads the first sheet.
	Sheet string
}

// ReadAttributionTable reads an attribution export. The first row of .xlsx
// and .csv files is the header. A .json file holds an array of objects whose
// keys become columns.
func ReadAttributionTable(ctx context.Context, path string, opts TableOptions) (attribution.Table, error) {
	var (
		tbl attribution.Table
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		tbl, err = readXLSXTable(path, opts)
	case ".csv", ".txt":
		tbl, err = readCSVTable(ctx, path)
	case ".json":
		tbl, err = readJSONTable(ctx, path)
	default:
		return attribution.Table{}, eris.Errorf("fetcher: unsupported attribution format %q", ext)
	}
	if err != nil {
		return attribution.Table{}, err
	}

	zap.L().Info("fetcher: read attribution table",
		zap.String("path", path),
		zap.Int("columns", len(tbl.Columns)),
		zap.Int("rows", len(tbl.Rows)),
	)
	return tbl, nil
}

func readXLSXTable(path string, opts TableOptions) (attribution.Table, error) {
	rows, err := ReadXLSX(path, XLSXOptions{SheetName: opts.Sheet})
	if err != nil {
		return attribution.Table{}, err
	}
	if len(rows) == 0 {
		return attribution.Table{}, nil
	}

	header := make([]string, len(rows[0]))
	for i, v := range rows[0] {
		header[i] = attribution.CellString(v)
	}
	return attribution.Table{Columns: header, Rows: dropBlankRows(rows[1:])}, nil
}

func readCSVTable(ctx context.Context, path string) (attribution.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return attribution.Table{}, eris.Wrapf(err, "fetcher: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	var tbl attribution.Table
	rowCh, errCh := StreamCSV(ctx, f, CSVOptions{LazyQuotes: true, TrimSpace: true})
	for rec := range rowCh {
		if tbl.Columns == nil {
			tbl.Columns = rec
			continue
		}
		row := make([]any, len(rec))
		for i, v := range rec {
			if v != "" {
				row[i] = v
			}
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	if err := <-errCh; err != nil {
		return attribution.Table{}, eris.Wrapf(err, "fetcher: read %s", path)
	}
	tbl.Rows = dropBlankRows(tbl.Rows)
	return tbl, nil
}

func readJSONTable(ctx context.Context, path string) (attribution.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return attribution.Table{}, eris.Wrapf(err, "fetcher: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	tbl, err := DecodeAttributionJSON(ctx, f)
	if err != nil {
		return attribution.Table{}, eris.Wrapf(err, "fetcher: read %s", path)
	}
	return tbl, nil
}

// DecodeAttributionJSON decodes a JSON array of objects into a table.
// Columns appear in first-seen order, sorted within each record; keys a
// record lacks are nil cells.
func DecodeAttributionJSON(ctx context.Context, r io.Reader) (attribution.Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err == io.EOF {
		return attribution.Table{}, nil
	}
	if err != nil {
		return attribution.Table{}, eris.Wrap(err, "fetcher: read json")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return attribution.Table{}, eris.Errorf("fetcher: expected '[' at start of json, got %v", tok)
	}

	var records []map[string]any
	colIdx := make(map[string]int)
	var columns []string
	for dec.More() {
		if err := ctx.Err(); err != nil {
			return attribution.Table{}, eris.Wrap(err, "fetcher: json read cancelled")
		}
		var rec map[string]any
		if err := dec.Decode(&rec); err != nil {
			return attribution.Table{}, eris.Wrapf(err, "fetcher: decode json record %d", len(records))
		}
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if _, ok := colIdx[k]; !ok {
				colIdx[k] = len(columns)
				columns = append(columns, k)
			}
		}
		records = append(records, rec)
	}

	tbl := attribution.Table{Columns: columns, Rows: make([][]any, len(records))}
	for i, rec := range records {
		row := make([]any, len(columns))
		for k, v := range rec {
			row[colIdx[k]] = jsonCell(v)
		}
		tbl.Rows[i] = row
	}
	return tbl, nil
}

// jsonCell converts decoded JSON scalars into table cell types. Numbers
// keep their literal text so long phone numbers survive without float
// rounding.
func jsonCell(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case string, bool, nil:
		return x
	default:
		return nil
	}
}

func dropBlankRows(rows [][]any) [][]any {
	return slices.DeleteFunc(rows, func(row []any) bool {
		for _, v := range row {
			if attribution.CellString(v) != "" {
				return false
			}
		}
		return true
	})
}
