package attribution

import (
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/lead-classifier/internal/conversation"
	"github.com/sells-group/lead-classifier/internal/model"
	"github.com/sells-group/lead-classifier/internal/phone"
)

// Known column names, in priority order.
var (
	PhoneColumns = []string{"TELWHATSAPP", "teltelefono", "TELTELEFONO", "num_telefono"}
	DateColumns  = []string{"Fecha Insert Lead", "Fecha Inserción Leads"}

	sourceColumns     = []string{"UTM Source", "Canal"}
	mediumColumns     = []string{"UTM Medium"}
	origenColumns     = []string{"UTM Origen", "Medio"}
	programaColumns   = []string{"Program aInteres", "Programa Interes"}
	resolucionColumns = []string{"Resolución", "Resolucion", "RESOLUCION"}
)

// maxDateDelta bounds a usable date difference between a conversation
// start and a candidate's insertion date.
const maxDateDelta = 10 * 365 * 24 * time.Hour

// Index is a read-through view over a Table. The phone and date columns,
// normalized phones and parsed insertion dates are derived once, on first
// use, without touching the caller's Table. An Index is safe for concurrent
// use.
type Index struct {
	table     Table
	dateOrder DateOrder

	once     sync.Once
	phoneCol int
	dateCol  int
	phones   []string
	dates    []time.Time
	hasDate  []bool
	byPhone  map[string][]int
}

// IndexOption configures an Index.
type IndexOption func(*Index)

// WithDateOrder sets how ambiguous slash dates in the insertion date column
// are read. The default is MonthFirst.
func WithDateOrder(o DateOrder) IndexOption {
	return func(ix *Index) {
		if o != "" {
			ix.dateOrder = o
		}
	}
}

// NewIndex wraps t. A nil or empty table yields an Index that never matches.
func NewIndex(t Table, opts ...IndexOption) *Index {
	ix := &Index{table: t, dateOrder: MonthFirst}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Len returns the number of rows in the underlying table.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return ix.table.Len()
}

// Columns returns the header of the underlying table.
func (ix *Index) Columns() []string {
	if ix == nil {
		return nil
	}
	return ix.table.Columns
}

func (ix *Index) build() {
	ix.once.Do(func() {
		t := ix.table
		ix.phoneCol = t.column(PhoneColumns...)
		if ix.phoneCol < 0 {
			ix.phoneCol = t.columnContaining("telefono", "teléfono", "phone")
		}
		ix.dateCol = t.column(DateColumns...)

		if ix.phoneCol < 0 {
			zap.L().Debug("attribution: no phone column found", zap.Strings("columns", t.Columns))
			return
		}
		if ix.dateCol < 0 {
			zap.L().Debug("attribution: no date column found", zap.Strings("columns", t.Columns))
		}

		ix.phones = make([]string, len(t.Rows))
		ix.dates = make([]time.Time, len(t.Rows))
		ix.hasDate = make([]bool, len(t.Rows))
		ix.byPhone = make(map[string][]int)
		for i, row := range t.Rows {
			p := phone.Normalize(cell(row, ix.phoneCol))
			ix.phones[i] = p
			if p != "" {
				ix.byPhone[p] = append(ix.byPhone[p], i)
			}
			if ix.dateCol >= 0 {
				ix.dates[i], ix.hasDate[i] = ix.dateOrder.Parse(cell(row, ix.dateCol))
			}
		}
	})
}

// PhoneColumn returns the name of the resolved phone column.
func (ix *Index) PhoneColumn() (string, bool) {
	if ix.Len() == 0 {
		return "", false
	}
	ix.build()
	if ix.phoneCol < 0 {
		return "", false
	}
	return ix.table.Columns[ix.phoneCol], true
}

// Find returns the row that best matches a conversation phone and start
// timestamp. Rows are filtered by normalized phone; several candidates are
// disambiguated by the smallest absolute difference between start and the
// row's insertion date. When no candidate has a usable date, the first
// candidate in table order wins.
func (ix *Index) Find(rawPhone, start string) (int, bool) {
	if ix.Len() == 0 {
		return 0, false
	}
	p := phone.Normalize(rawPhone)
	if p == "" {
		return 0, false
	}
	ix.build()

	rows := ix.byPhone[p]
	switch len(rows) {
	case 0:
		return 0, false
	case 1:
		return rows[0], true
	}

	best := ix.nearest(rows, start)
	zap.L().Debug("attribution: ambiguous phone resolved by date",
		zap.String("phone", p),
		zap.Int("candidates", len(rows)),
		zap.Int("row", best),
	)
	return best, true
}

type candidate struct {
	row    int
	delta  time.Duration
	usable bool
}

// compareCandidates orders usable candidates before unusable ones and
// usable candidates by ascending delta.
func compareCandidates(a, b candidate) int {
	switch {
	case a.usable && !b.usable:
		return -1
	case !a.usable && b.usable:
		return 1
	case !a.usable:
		return 0
	case a.delta < b.delta:
		return -1
	case a.delta > b.delta:
		return 1
	}
	return 0
}

func (ix *Index) nearest(rows []int, start string) int {
	at, ok := conversation.ParseTimestamp(start)
	if !ok || ix.dateCol < 0 {
		return rows[0]
	}
	at = at.UTC()

	cands := make([]candidate, len(rows))
	for i, r := range rows {
		c := candidate{row: r}
		if ix.hasDate[r] {
			d := at.Sub(ix.dates[r])
			if d < 0 {
				d = -d
			}
			c.delta, c.usable = d, d < maxDateDelta
		}
		cands[i] = c
	}

	// MinFunc keeps the first of equal elements, so ties resolve to table order.
	best := slices.MinFunc(cands, compareCandidates)
	if !best.usable {
		return rows[0]
	}
	return best.row
}

// Value returns the first non-empty value among the named columns of row.
func (ix *Index) Value(row int, names ...string) string {
	if row < 0 || row >= ix.Len() {
		return ""
	}
	r := ix.table.Rows[row]
	for _, name := range names {
		col := ix.table.column(name)
		if col < 0 {
			continue
		}
		if v := CellString(cell(r, col)); v != "" {
			return v
		}
	}
	return ""
}

// Project reads the campaign fields of row.
func (ix *Index) Project(row int) model.Attribution {
	return model.Attribution{
		UTMSource:       ix.Value(row, sourceColumns...),
		UTMMedium:       ix.Value(row, mediumColumns...),
		UTMOrigen:       ix.Value(row, origenColumns...),
		ProgramaInteres: ix.Value(row, programaColumns...),
		Resolucion:      ix.Value(row, resolucionColumns...),
	}
}

// Match returns the campaign fields for a conversation, or a zero
// Attribution when the table is empty, the phone is unusable, or no row
// matches.
func (ix *Index) Match(rawPhone, start string) model.Attribution {
	row, ok := ix.Find(rawPhone, start)
	if !ok {
		return model.Attribution{}
	}
	return ix.Project(row)
}
