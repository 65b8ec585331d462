package fetcher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectCSV(t *testing.T, ctx context.Context, input string, opts CSVOptions) ([][]string, error) {
	t.Helper()
	rowCh, errCh := StreamCSV(ctx, strings.NewReader(input), opts)
	var rows [][]string
	for r := range rowCh {
		rows = append(rows, r)
	}
	return rows, <-errCh
}

func TestStreamCSV(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		opts  CSVOptions
		want  [][]string
	}{
		{
			name:  "comma",
			input: "a,b\n1,2\n",
			want:  [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:  "semicolon sniffed",
			input: "TELWHATSAPP;Canal;Nota\n0991;web;a,b\n",
			want:  [][]string{{"TELWHATSAPP", "Canal", "Nota"}, {"0991", "web", "a,b"}},
		},
		{
			name:  "explicit delimiter",
			input: "a|b\n",
			opts:  CSVOptions{Delimiter: '|'},
			want:  [][]string{{"a", "b"}},
		},
		{
			name:  "byte order mark dropped",
			input: "\xEF\xBB\xBFUTM Source,UTM Medium\n",
			want:  [][]string{{"UTM Source", "UTM Medium"}},
		},
		{
			name:  "trim and ragged rows",
			input: " a , b \n1\n",
			opts:  CSVOptions{TrimSpace: true},
			want:  [][]string{{"a", "b"}, {"1"}},
		},
		{
			name:  "empty",
			input: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rows, err := collectCSV(t, context.Background(), tt.input, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rows)
		})
	}
}

func TestStreamCSV_Errors(t *testing.T) {
	t.Parallel()

	_, err := collectCSV(t, context.Background(), "a,\"b\n", CSVOptions{})
	assert.ErrorContains(t, err, "csv: read row")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = collectCSV(t, ctx, "a,b\n", CSVOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
