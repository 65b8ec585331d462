package report

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-classifier/internal/model"
)

// WriteCSV writes a header row followed by one row per result.
func WriteCSV(w io.Writer, results []model.ClassificationResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, r := range results {
		if err := cw.Write(Row(r)); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "report: flush csv")
	}
	return nil
}
