// Package batch wires grouping, classification and attribution for one
// chat export.
package batch

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-classifier/internal/attribution"
	"github.com/sells-group/lead-classifier/internal/classifier"
	"github.com/sells-group/lead-classifier/internal/conversation"
	"github.com/sells-group/lead-classifier/internal/model"
	"github.com/sells-group/lead-classifier/internal/scorer"
)

// Options configures a batch run.
type Options struct {
	// Classifier scores conversations. Nil uses the built-in rules.
	Classifier *classifier.Classifier
	// Workers > 1 classifies conversations in parallel.
	Workers int
	// RunID tags every log line of the run. Empty generates one.
	RunID string
}

// Output is the result of a batch run.
type Output struct {
	RunID   string                       `json:"run_id"`
	Results []model.ClassificationResult `json:"results"`
	Summary Summary                      `json:"summary"`
	// Matches maps a chat ID to the attribution row it was enriched from.
	Matches map[string]int `json:"-"`
}

// Run groups messages into conversations, classifies each one and merges
// attribution fields from idx (which may be nil). Results are sorted by
// chat ID. Per-conversation problems degrade to safe defaults; only context
// cancellation is returned as an error.
func Run(ctx context.Context, messages []model.Message, idx *attribution.Index, opts Options) (*Output, error) {
	if opts.Classifier == nil {
		opts.Classifier = classifier.New(scorer.MustDefaultEngine())
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.RunID == "" {
		opts.RunID = uuid.New().String()
	}
	log := zap.L().With(zap.String("run_id", opts.RunID))
	start := time.Now()

	grouped := conversation.Group(messages)
	ids := make([]string, 0, len(grouped))
	for id := range grouped {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	log.Info("batch: grouped conversations",
		zap.Int("messages", len(messages)),
		zap.Int("conversations", len(ids)),
		zap.Int("attribution_rows", idx.Len()),
	)

	results := make([]model.ClassificationResult, len(ids))
	rows := make([]int, len(ids))
	classify := func(i int) {
		conv := grouped[ids[i]]
		res := opts.Classifier.Classify(conv)
		rows[i] = -1
		if row, ok := idx.Find(res.Telefono, conv.StartTime()); ok {
			res.Attribution = idx.Project(row)
			rows[i] = row
		}
		results[i] = res
	}

	if opts.Workers == 1 {
		for i := range ids {
			if err := ctx.Err(); err != nil {
				return nil, eris.Wrap(err, "batch: run cancelled")
			}
			classify(i)
		}
	} else {
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Workers)
		for i := range ids {
			g.Go(func() error {
				if err := gCtx.Err(); err != nil {
					return err
				}
				classify(i)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, eris.Wrap(err, "batch: run cancelled")
		}
	}

	summary := Summarize(results)
	log.Info("batch: classified conversations",
		zap.Int("sql", summary.SQL),
		zap.Int("mql", summary.MQL),
		zap.Int("not_contacted", summary.NotContacted),
		zap.Int("enriched", summary.Enriched),
		zap.Duration("elapsed", time.Since(start)),
	)

	matches := make(map[string]int)
	for i, row := range rows {
		if row >= 0 {
			matches[ids[i]] = row
		}
	}

	return &Output{RunID: opts.RunID, Results: results, Summary: summary, Matches: matches}, nil
}

// Summary aggregates a result set the way the lead dashboard reports it.
// Means are taken over contacted leads (MQL and SQL) only.
type Summary struct {
	Total          int     `json:"total"`
	SQL            int     `json:"sql"`
	MQL            int     `json:"mql"`
	NotContacted   int     `json:"not_contacted"`
	Enriched       int     `json:"enriched"`
	MeanScore      float64 `json:"mean_score"`
	MeanMotivation float64 `json:"mean_motivation"`
	MeanPayment    float64 `json:"mean_payment"`
	MeanBehavior   float64 `json:"mean_behavior"`
}

// Summarize computes tier counts and mean scores for results.
func Summarize(results []model.ClassificationResult) Summary {
	s := Summary{Total: len(results)}
	var total, motivation, payment, behavior int
	for _, r := range results {
		if !r.Attribution.IsZero() {
			s.Enriched++
		}
		switch r.Clasificacion {
		case model.TierSQL:
			s.SQL++
		case model.TierMQL:
			s.MQL++
		default:
			s.NotContacted++
			continue
		}
		total += r.ScoreTotal
		motivation += r.ScoreMotivacion
		payment += r.ScorePago
		behavior += r.ScoreComportamiento
	}

	if n := float64(s.SQL + s.MQL); n > 0 {
		s.MeanScore = float64(total) / n
		s.MeanMotivation = float64(motivation) / n
		s.MeanPayment = float64(payment) / n
		s.MeanBehavior = float64(behavior) / n
	}
	return s
}

// Filter returns the results whose tier is one of tiers. Tier names are
// matched case-insensitively.
func Filter(results []model.ClassificationResult, tiers ...string) []model.ClassificationResult {
	if len(tiers) == 0 {
		return results
	}
	var out []model.ClassificationResult
	for _, r := range results {
		for _, t := range tiers {
			if strings.EqualFold(string(r.Clasificacion), strings.TrimSpace(t)) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
