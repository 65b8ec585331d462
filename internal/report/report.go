// Package report renders classification results for people and downstream
// tools.
package report

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-classifier/internal/model"
)

// Format is an output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatXLSX  Format = "xlsx"
	FormatJSON  Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatCSV, FormatXLSX, FormatJSON:
		return f, nil
	default:
		return "", eris.Errorf("report: unknown format %q (want table, csv, xlsx or json)", s)
	}
}

// FormatForPath infers the format from an output file extension. Unknown
// extensions fall back to csv.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatXLSX
	case ".json":
		return FormatJSON
	case ".txt":
		return FormatTable
	default:
		return FormatCSV
	}
}

// Columns is the export column order.
var Columns = []string{
	"chat_id",
	"telefono",
	"clasificacion",
	"score_total",
	"score_motivacion",
	"score_pago",
	"score_comportamiento",
	"razon_principal",
	"señales_clave",
	"estado_conversacion",
	"duracion_chat",
	"mensajes_usuario",
	"utm_source",
	"utm_medium",
	"utm_origen",
	"programa_interes",
	"resolucion",
}

// SignalSeparator joins señales_clave in flat exports.
const SignalSeparator = "; "

// Row flattens a result in Columns order.
func Row(r model.ClassificationResult) []string {
	return []string{
		r.ChatID,
		r.Telefono,
		string(r.Clasificacion),
		strconv.Itoa(r.ScoreTotal),
		strconv.Itoa(r.ScoreMotivacion),
		strconv.Itoa(r.ScorePago),
		strconv.Itoa(r.ScoreComportamiento),
		r.RazonPrincipal,
		strings.Join(r.SenalesClave, SignalSeparator),
		string(r.EstadoConversacion),
		r.DuracionChat.String(),
		strconv.Itoa(r.MensajesUsuario),
		r.UTMSource,
		r.UTMMedium,
		r.UTMOrigen,
		r.ProgramaInteres,
		r.Resolucion,
	}
}

// Write renders results to w in the given format.
func Write(w io.Writer, format Format, results []model.ClassificationResult) error {
	switch format {
	case FormatTable:
		return WriteTable(w, results)
	case FormatCSV:
		return WriteCSV(w, results)
	case FormatXLSX:
		return WriteXLSX(w, results)
	case FormatJSON:
		return WriteJSON(w, results)
	default:
		return eris.Errorf("report: unknown format %q", format)
	}
}

// WriteFile creates path and renders results into it.
func WriteFile(path string, format Format, results []model.ClassificationResult) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	if err := Write(f, format, results); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "report: close %s", path)
	}
	return nil
}
