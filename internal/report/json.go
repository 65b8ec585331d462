package report

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-classifier/internal/model"
)

// WriteJSON writes results as an indented JSON array. An empty batch is
// written as [] rather than null.
func WriteJSON(w io.Writer, results []model.ClassificationResult) error {
	if results == nil {
		results = []model.ClassificationResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(results); err != nil {
		return eris.Wrap(err, "report: encode json")
	}
	return nil
}
