package report

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/lead-classifier/internal/model"
)

// SheetName is the worksheet holding exported leads.
const SheetName = "Leads"

// numericValue returns the integer behind a numeric column.
func numericValue(r model.ClassificationResult, column string) (int, bool) {
	switch column {
	case "score_total":
		return r.ScoreTotal, true
	case "score_motivacion":
		return r.ScoreMotivacion, true
	case "score_pago":
		return r.ScorePago, true
	case "score_comportamiento":
		return r.ScoreComportamiento, true
	case "mensajes_usuario":
		return r.MensajesUsuario, true
	}
	return 0, false
}

// WriteXLSX writes a workbook with a bold header row.
func WriteXLSX(w io.Writer, results []model.ClassificationResult) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	bold := xlsx.NewStyle()
	bold.Font.Bold = true
	bold.ApplyFont = true

	header := sheet.AddRow()
	for _, name := range Columns {
		c := header.AddCell()
		c.SetString(name)
		c.SetStyle(bold)
	}

	for _, r := range results {
		row := sheet.AddRow()
		for i, v := range Row(r) {
			c := row.AddCell()
			if n, ok := numericValue(r, Columns[i]); ok {
				c.SetInt(n)
				continue
			}
			c.SetString(v)
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "report: write xlsx")
	}
	return nil
}
