package salesforce

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-classifier/internal/attribution"
)

func TestLoadLeadAttribution(t *testing.T) {
	t.Parallel()

	t.Run("builds attribution table", func(t *testing.T) {
		t.Parallel()
		mock := &mockClient{
			queryFn: func(_ context.Context, soql string, out any) error {
				assert.Equal(t, "SELECT Id, Phone, MobilePhone, CreatedDate, LeadSource, "+
					"UTM_Source__c, UTM_Medium__c, UTM_Origen__c, Programa_Interes__c, Resolucion__c "+
					"FROM Lead WHERE CreatedDate >= 2025-01-01T05:00:00Z ORDER BY CreatedDate", soql)

				leads := out.(*[]Lead)
				*leads = []Lead{
					{ID: "00Q1", MobilePhone: "+593 99 357 5726", CreatedDate: "2025-01-13T15:04:05.000+0000", UTMSource: "facebook"},
					{ID: "00Q2", Phone: "099-111-2222", CreatedDate: "not a date", LeadSource: "Referido", Resolucion: " Venta "},
				}
				return nil
			},
		}

		since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.FixedZone("ECT", -5*3600))
		tbl, err := LoadLeadAttribution(context.Background(), mock, "Lead", since)
		require.NoError(t, err)
		require.Equal(t, 2, tbl.Len())
		assert.Equal(t, "00Q1", tbl.Rows[0][0])
		assert.Equal(t, "+593 99 357 5726", tbl.Rows[0][1])
		assert.Equal(t, time.Date(2025, 1, 13, 15, 4, 5, 0, time.UTC), tbl.Rows[0][2])
		assert.Equal(t, "099-111-2222", tbl.Rows[1][1], "falls back to Phone")
		assert.Nil(t, tbl.Rows[1][2])

		idx := attribution.NewIndex(tbl)
		col, ok := idx.PhoneColumn()
		require.True(t, ok)
		assert.Equal(t, "TELWHATSAPP", col)

		got := idx.Match("593993575726", "2025-01-13T16:00:00Z")
		assert.Equal(t, "facebook", got.UTMSource)

		got = idx.Match("0991112222", "")
		assert.Equal(t, "Referido", got.UTMSource, "Canal backs up UTM Source")
		assert.Equal(t, "Venta", got.Resolucion)
	})

	t.Run("zero since loads every lead", func(t *testing.T) {
		t.Parallel()
		mock := &mockClient{
			queryFn: func(_ context.Context, soql string, _ any) error {
				assert.NotContains(t, soql, "WHERE")
				assert.Contains(t, soql, "FROM Prospecto__c ORDER BY CreatedDate")
				return nil
			},
		}
		tbl, err := LoadLeadAttribution(context.Background(), mock, "Prospecto__c", time.Time{})
		require.NoError(t, err)
		assert.Equal(t, 0, tbl.Len())
		assert.Equal(t, leadColumns, tbl.Columns)
	})

	t.Run("rejects unsafe object names", func(t *testing.T) {
		t.Parallel()
		mock := &mockClient{
			queryFn: func(_ context.Context, _ string, _ any) error {
				t.Fatal("query must not run")
				return nil
			},
		}
		_, err := LoadLeadAttribution(context.Background(), mock, "Lead WHERE Id != ''", time.Time{})
		assert.ErrorContains(t, err, "invalid sobject name")
	})

	t.Run("returns error on query failure", func(t *testing.T) {
		t.Parallel()
		mock := &mockClient{
			queryFn: func(_ context.Context, _ string, _ any) error {
				return errors.New("connection refused")
			},
		}
		_, err := LoadLeadAttribution(context.Background(), mock, "Lead", time.Time{})
		assert.ErrorContains(t, err, "load lead attribution from Lead")
	})
}

func TestCreatedCell(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Date(2025, 3, 1, 17, 0, 0, 0, time.UTC), createdCell("2025-03-01T12:00:00.000-0500"))
	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), createdCell("2025-03-01T12:00:00Z"))
	assert.Nil(t, createdCell(""))
}
