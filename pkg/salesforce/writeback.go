package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-classifier/internal/attribution"
	"github.com/sells-group/lead-classifier/internal/model"
)

// Custom lead fields written back after classification.
const (
	TierField  = "Lead_Tier__c"
	ScoreField = "Lead_Score__c"
)

// LeadUpdate is one classification to store on a lead record.
type LeadUpdate struct {
	ID    string
	Tier  model.Tier
	Score int
}

// LeadUpdates pairs results with the lead record their conversation was
// matched to. matches maps chat ID to an idx row. When several
// conversations match the same lead, the highest score wins.
func LeadUpdates(idx *attribution.Index, results []model.ClassificationResult, matches map[string]int) []LeadUpdate {
	var updates []LeadUpdate
	seen := make(map[string]int)
	for _, r := range results {
		row, ok := matches[r.ChatID]
		if !ok {
			continue
		}
		id := idx.Value(row, IDColumn)
		if id == "" {
			continue
		}
		u := LeadUpdate{ID: id, Tier: r.Clasificacion, Score: r.ScoreTotal}
		if i, dup := seen[id]; dup {
			if u.Score > updates[i].Score {
				updates[i] = u
			}
			continue
		}
		seen[id] = len(updates)
		updates = append(updates, u)
	}
	return updates
}

// CheckWriteBackFields verifies that object has updateable tier and score
// fields.
func CheckWriteBackFields(ctx context.Context, c Client, object string) error {
	desc, err := c.DescribeSObject(ctx, object)
	if err != nil {
		return eris.Wrap(err, fmt.Sprintf("sf: check write-back fields on %s", object))
	}

	updateable := make(map[string]bool, len(desc.Fields))
	for _, f := range desc.Fields {
		updateable[f.Name] = f.Updateable
	}

	var missing []string
	for _, name := range []string{TierField, ScoreField} {
		if !updateable[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("sf: %s is missing updateable fields: %s", object, strings.Join(missing, ", "))
	}
	return nil
}

// WriteBackSummary counts per-record outcomes of a write-back.
type WriteBackSummary struct {
	Updated int
	Failed  int
}

// WriteBackClassifications splits updates into batches of 200 (SF
// Collections API limit) and sends them via UpdateCollection. Records
// rejected by Salesforce are counted and logged; a failed request stops the
// write-back and returns the counts so far.
func WriteBackClassifications(ctx context.Context, c Client, object string, updates []LeadUpdate) (WriteBackSummary, error) {
	var summary WriteBackSummary

	for start := 0; start < len(updates); start += maxBatchSize {
		end := min(start+maxBatchSize, len(updates))
		batch := updates[start:end]

		records := make([]CollectionRecord, len(batch))
		for i, u := range batch {
			records[i] = CollectionRecord{
				ID: u.ID,
				Fields: map[string]any{
					TierField:  string(u.Tier),
					ScoreField: u.Score,
				},
			}
		}

		results, err := c.UpdateCollection(ctx, object, records)
		if err != nil {
			return summary, eris.Wrap(err, fmt.Sprintf("sf: write back classifications batch %d-%d", start, end))
		}
		for _, r := range results {
			if r.Success {
				summary.Updated++
				continue
			}
			summary.Failed++
			zap.L().Warn("sf: lead update rejected",
				zap.String("id", r.ID),
				zap.Strings("errors", r.Errors),
			)
		}
	}

	zap.L().Info("sf: wrote back classifications",
		zap.String("object", object),
		zap.Int("updated", summary.Updated),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}
