// Package attribution reconciles chat leads with an external campaign
// attribution table by phone number and nearest lead-insertion date.
package attribution

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"
)

// Table is a read-only, in-memory tabular source. Cells hold string,
// float64, int64, time.Time or nil.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// normHeader makes header comparison insensitive to surrounding whitespace
// and to composed versus decomposed accents.
func normHeader(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// column returns the index of the first of names present in t.
func (t Table) column(names ...string) int {
	for _, name := range names {
		want := normHeader(name)
		for i, c := range t.Columns {
			if normHeader(c) == want {
				return i
			}
		}
	}
	return -1
}

// columnContaining returns the first column whose lower-cased name contains
// any of parts.
func (t Table) columnContaining(parts ...string) int {
	for i, c := range t.Columns {
		lc := strings.ToLower(normHeader(c))
		for _, p := range parts {
			if strings.Contains(lc, p) {
				return i
			}
		}
	}
	return -1
}

// cell returns row[col], or nil when out of range.
func cell(row []any, col int) any {
	if col < 0 || col >= len(row) {
		return nil
	}
	return row[col]
}

// CellString renders a cell for display. nil and NaN render as "".
// Integral floats drop their decimal part.
func CellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format("2006-01-02 15:04:05")
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

// DateOrder decides how ambiguous slash dates such as 02/01/2025 are read.
type DateOrder string

const (
	// MonthFirst reads 02/01/2025 as February 1st.
	MonthFirst DateOrder = "month_first"
	// DayFirst reads 02/01/2025 as January 2nd.
	DayFirst DateOrder = "day_first"
)

// ParseDateOrder validates a configured date order. Empty means MonthFirst.
func ParseDateOrder(s string) (DateOrder, error) {
	switch o := DateOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return MonthFirst, nil
	case MonthFirst, DayFirst:
		return o, nil
	}
	return "", eris.Errorf("attribution: unknown date order %q (want %s or %s)", s, MonthFirst, DayFirst)
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

var (
	monthFirstLayouts = []string{"1/2/2006 15:04:05", "1/2/2006 15:04", "1/2/2006"}
	dayFirstLayouts   = []string{"2/1/2006 15:04:05", "2/1/2006 15:04", "2/1/2006"}
)

// layouts returns the string layouts tried for o: ISO first, then slash
// dates in the preferred order, then the other order for dates only it can
// read (13/01/2025 under MonthFirst).
func (o DateOrder) layouts() []string {
	if o == DayFirst {
		return slices.Concat(isoLayouts, dayFirstLayouts, monthFirstLayouts)
	}
	return slices.Concat(isoLayouts, monthFirstLayouts, dayFirstLayouts)
}

var (
	monthFirstAll = MonthFirst.layouts()
	dayFirstAll   = DayFirst.layouts()
)

// excelEpoch is day zero of spreadsheet serial dates.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ParseDate converts a cell into a timezone-naive instant (UTC wall clock)
// reading slash dates month-first.
func ParseDate(v any) (time.Time, bool) {
	return MonthFirst.Parse(v)
}

// Parse converts a cell into a timezone-naive instant (UTC wall clock).
// Strings are tried against ISO-8601 layouts and then slash layouts in o's
// order. Numbers are read as spreadsheet serial dates.
func (o DateOrder) Parse(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return x.UTC(), true
	case float64:
		return fromSerial(x)
	case int64:
		return fromSerial(float64(x))
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		layouts := monthFirstAll
		if o == DayFirst {
			layouts = dayFirstAll
		}
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

func fromSerial(days float64) (time.Time, bool) {
	// Serial 1 is 1900-01-01; 2958465 is 9999-12-31.
	if math.IsNaN(days) || days < 1 || days > 2958465 {
		return time.Time{}, false
	}
	secs := math.Round(days * 86400)
	return excelEpoch.Add(time.Duration(secs) * time.Second), true
}
