package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sells-group/lead-classifier/internal/batch"
	"github.com/sells-group/lead-classifier/internal/model"
)

const maxReasonWidth = 60

// WriteTable prints an aligned summary line per result.
func WriteTable(w io.Writer, results []model.ClassificationResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "CHAT_ID\tTELEFONO\tTIER\tTOTAL\tMOT\tPAGO\tCOMP\tESTADO\tUTM_SOURCE\tRAZON")
	_, _ = fmt.Fprintln(tw, "-------\t--------\t----\t-----\t---\t----\t----\t------\t----------\t-----")
	for _, r := range results {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\t%s\n",
			r.ChatID,
			r.Telefono,
			r.Clasificacion,
			r.ScoreTotal,
			r.ScoreMotivacion,
			r.ScorePago,
			r.ScoreComportamiento,
			r.EstadoConversacion,
			r.UTMSource,
			truncate(r.RazonPrincipal, maxReasonWidth),
		)
	}
	return tw.Flush()
}

// PrintSummary prints tier counts and mean scores.
func PrintSummary(w io.Writer, s batch.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Conversations:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(tw, "SQL:\t%d\t%s\n", s.SQL, percent(s.SQL, s.Total))
	_, _ = fmt.Fprintf(tw, "MQL:\t%d\t%s\n", s.MQL, percent(s.MQL, s.Total))
	_, _ = fmt.Fprintf(tw, "NOT_CONTACTED:\t%d\t%s\n", s.NotContacted, percent(s.NotContacted, s.Total))
	_, _ = fmt.Fprintf(tw, "Enriched:\t%d\n", s.Enriched)
	_, _ = fmt.Fprintf(tw, "Mean score:\t%.1f\n", s.MeanScore)
	_, _ = fmt.Fprintf(tw, "  Motivation:\t%.1f\n", s.MeanMotivation)
	_, _ = fmt.Fprintf(tw, "  Payment:\t%.1f\n", s.MeanPayment)
	_, _ = fmt.Fprintf(tw, "  Behavior:\t%.1f\n", s.MeanBehavior)
	return tw.Flush()
}

func percent(n, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(n)*100/float64(total))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
