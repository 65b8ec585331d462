package attribution

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-classifier/internal/model"
)

func neotelTable() Table {
	return Table{
		Columns: []string{"TELWHATSAPP", "Fecha Insert Lead", "UTM Source", "UTM Medium", "UTM Origen", "Program aInteres", "Resolución"},
		Rows: [][]any{
			{593993575726.0, time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC), "facebook", "cpc", "meta", "MBA", "Interesado"},
			{"593-99-357-5726", "2025-02-15 09:00:00", "google", "search", "ads", "Marketing Digital", "Venta"},
			{"0991112222", nil, "tiktok", nil, "", "Finanzas", nil},
		},
	}
}

func TestIndex_NearestDate(t *testing.T) {
	t.Parallel()
	ix := NewIndex(neotelTable())

	got := ix.Match("593993575726", "2025-02-14T18:00:00Z")
	assert.Equal(t, model.Attribution{
		UTMSource:       "google",
		UTMMedium:       "search",
		UTMOrigen:       "ads",
		ProgramaInteres: "Marketing Digital",
		Resolucion:      "Venta",
	}, got)

	got = ix.Match("593993575726", "2025-01-02T08:00:00.000Z")
	assert.Equal(t, "facebook", got.UTMSource)
}

func TestIndex_DateOrderPicksCandidate(t *testing.T) {
	t.Parallel()

	// 02/03/2025 is February 3rd month-first and March 2nd day-first.
	tbl := Table{
		Columns: []string{"TELWHATSAPP", "Fecha Insert Lead", "UTM Source"},
		Rows: [][]any{
			{"0991", "02/03/2025", "slash"},
			{"0991", "2025-02-20", "iso"},
		},
	}
	start := "2025-02-04T00:00:00Z"

	assert.Equal(t, "slash", NewIndex(tbl).Match("0991", start).UTMSource)
	assert.Equal(t, "slash", NewIndex(tbl, WithDateOrder(MonthFirst)).Match("0991", start).UTMSource)
	assert.Equal(t, "iso", NewIndex(tbl, WithDateOrder(DayFirst)).Match("0991", start).UTMSource)
}

func TestIndex_SingleMatch(t *testing.T) {
	t.Parallel()
	ix := NewIndex(neotelTable())

	got := ix.Match("0991112222", "garbage")
	assert.Equal(t, model.Attribution{UTMSource: "tiktok", ProgramaInteres: "Finanzas"}, got)
}

func TestIndex_FallsBackToFirstCandidate(t *testing.T) {
	t.Parallel()
	ix := NewIndex(neotelTable())

	assert.Equal(t, "facebook", ix.Match("593993575726", "not a date").UTMSource, "unparseable start")
	assert.Equal(t, "facebook", ix.Match("593993575726", "1900-01-01T00:00:00Z").UTMSource, "every delta is unusable")
}

func TestIndex_NoDateColumnUsesFirstCandidate(t *testing.T) {
	t.Parallel()

	tbl := Table{
		Columns: []string{"num_telefono", "Canal"},
		Rows: [][]any{
			{"0991", "referido"},
			{"0991", "web"},
		},
	}
	assert.Equal(t, "referido", NewIndex(tbl).Match("0991", "2025-01-01T00:00:00Z").UTMSource)
}

func TestIndex_FieldFallbacks(t *testing.T) {
	t.Parallel()

	tbl := Table{
		Columns: []string{"Teléfono Cliente", "Fecha Inserción Leads", "Canal", "Medio", "Programa Interes", "RESOLUCION", "UTM Source"},
		Rows: [][]any{
			{"(593) 98 000 0001", "2025-03-01", "Orgánico", "Instagram", "MBA", "No contesta", nil},
		},
	}
	ix := NewIndex(tbl)

	col, ok := ix.PhoneColumn()
	require.True(t, ok)
	assert.Equal(t, "Teléfono Cliente", col)

	got := ix.Match("593980000001", "2025-03-02T00:00:00Z")
	assert.Equal(t, model.Attribution{
		UTMSource:       "Orgánico",
		UTMOrigen:       "Instagram",
		ProgramaInteres: "MBA",
		Resolucion:      "No contesta",
	}, got)
}

func TestIndex_PhoneColumnPriority(t *testing.T) {
	t.Parallel()

	tbl := Table{
		Columns: []string{"phone_alt", "TELTELEFONO", "TELWHATSAPP"},
		Rows:    [][]any{{"1", "2", "3"}},
	}
	col, ok := NewIndex(tbl).PhoneColumn()
	require.True(t, ok)
	assert.Equal(t, "TELWHATSAPP", col)
}

func TestIndex_NoEnrichment(t *testing.T) {
	t.Parallel()

	var nilIndex *Index
	assert.True(t, nilIndex.Match("593993575726", "").IsZero())
	assert.True(t, NewIndex(Table{}).Match("593993575726", "").IsZero())

	ix := NewIndex(neotelTable())
	assert.True(t, ix.Match("", "").IsZero(), "empty phone")
	assert.True(t, ix.Match("n/a", "").IsZero(), "unparseable phone")
	assert.True(t, ix.Match("111", "").IsZero(), "unknown phone")

	noPhone := NewIndex(Table{Columns: []string{"Nombre"}, Rows: [][]any{{"Ana"}}})
	_, ok := noPhone.PhoneColumn()
	assert.False(t, ok)
	assert.True(t, noPhone.Match("0991", "").IsZero())
}

func TestIndex_DoesNotMutateTable(t *testing.T) {
	t.Parallel()

	tbl := neotelTable()
	ix := NewIndex(tbl)
	ix.Match("593993575726", "2025-02-14T18:00:00Z")

	assert.Equal(t, neotelTable(), tbl)
	assert.Len(t, tbl.Columns, 7)
}

func TestIndex_ConcurrentReaders(t *testing.T) {
	t.Parallel()
	ix := NewIndex(neotelTable())

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = ix.Match("593993575726", "2025-02-14T18:00:00Z").UTMSource
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "google", r)
	}
}

func TestCompareCandidates(t *testing.T) {
	t.Parallel()

	near := candidate{row: 1, delta: time.Hour, usable: true}
	far := candidate{row: 0, delta: 48 * time.Hour, usable: true}
	bad := candidate{row: 2}

	assert.Equal(t, -1, compareCandidates(near, far))
	assert.Equal(t, 1, compareCandidates(far, near))
	assert.Equal(t, -1, compareCandidates(far, bad))
	assert.Equal(t, 1, compareCandidates(bad, near))
	assert.Equal(t, 0, compareCandidates(bad, bad))
}
