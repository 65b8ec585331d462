package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-classifier/internal/attribution"
	"github.com/sells-group/lead-classifier/internal/batch"
	"github.com/sells-group/lead-classifier/internal/fetcher"
	"github.com/sells-group/lead-classifier/internal/model"
	"github.com/sells-group/lead-classifier/internal/report"
	"github.com/sells-group/lead-classifier/pkg/notion"
	sfpkg "github.com/sells-group/lead-classifier/pkg/salesforce"
)

var (
	classifyChats           string
	classifyAttribution     string
	classifySalesforceSince string
	classifyOutput          string
	classifyFormat          string
	classifyRules           string
	classifyWorkers         int
	classifyTiers           []string
	classifyPushNotion      bool
	classifyWriteBack       bool
)

// sinceLayout is the --salesforce-since date format.
const sinceLayout = "2006-01-02"

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify the conversations of a chat export",
	Long: "Reads a chat export (local path, http(s) or ftp URL), classifies every conversation, " +
		"enriches results from an attribution table or Salesforce leads and writes a report.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if cmd.Flags().Changed("rules") {
			cfg.Rules.Path = classifyRules
		}
		if cmd.Flags().Changed("workers") {
			cfg.Batch.Workers = classifyWorkers
		}
		if err := cfg.Validate("classify"); err != nil {
			return err
		}
		if classifyAttribution != "" && (classifySalesforceSince != "" || classifyWriteBack) {
			return eris.New("--attribution cannot be combined with Salesforce attribution (--salesforce-since, --writeback-salesforce)")
		}

		format, err := outputFormat(classifyFormat, classifyOutput)
		if err != nil {
			return err
		}

		var since time.Time
		if classifySalesforceSince != "" {
			since, err = time.Parse(sinceLayout, classifySalesforceSince)
			if err != nil {
				return eris.Wrapf(err, "parse --salesforce-since %q (want YYYY-MM-DD)", classifySalesforceSince)
			}
		}

		clf, err := loadClassifier(cfg.Rules.Path)
		if err != nil {
			return err
		}

		resolver := newResolver(cfg.Fetch)

		chatsPath, cleanup, err := resolver.Resolve(ctx, classifyChats)
		if err != nil {
			return eris.Wrap(err, "resolve chats")
		}
		defer cleanup()

		msgs, err := fetcher.ReadChatExport(ctx, chatsPath)
		if err != nil {
			return eris.Wrap(err, "read chats")
		}

		var (
			idx *attribution.Index
			sf  sfpkg.Client
		)
		switch {
		case classifyAttribution != "":
			idx, err = readAttribution(ctx, resolver, classifyAttribution)
			if err != nil {
				return err
			}
		case classifySalesforceSince != "" || classifyWriteBack:
			sf, err = newSalesforceClient(cfg)
			if err != nil {
				return err
			}
			tbl, err := sfpkg.LoadLeadAttribution(ctx, sf, cfg.Salesforce.LeadObject, since)
			if err != nil {
				return eris.Wrap(err, "load salesforce attribution")
			}
			idx = attributionIndex(tbl, cfg.Attribution)
		}

		out, err := batch.Run(ctx, msgs, idx, batch.Options{
			Classifier: clf,
			Workers:    cfg.Batch.Workers,
		})
		if err != nil {
			return eris.Wrap(err, "classify")
		}

		results := batch.Filter(out.Results, classifyTiers...)
		if err := writeReport(cmd, format, results, out.Summary); err != nil {
			return err
		}

		if classifyPushNotion {
			nc, err := newNotionClient(cfg)
			if err != nil {
				return err
			}
			if _, err := notion.PushSQLLeads(ctx, nc, cfg.Notion.LeadDB, out.Results); err != nil {
				return eris.Wrap(err, "push sql leads")
			}
		}

		if classifyWriteBack {
			if err := writeBack(ctx, sf, idx, out); err != nil {
				return err
			}
		}

		zap.L().Info("classify complete",
			zap.String("run_id", out.RunID),
			zap.Int("conversations", len(out.Results)),
			zap.Int("exported", len(results)),
		)
		return nil
	},
}

// outputFormat resolves --format, falling back to the --output extension
// and then to a terminal table.
func outputFormat(flag, output string) (report.Format, error) {
	switch {
	case flag != "":
		return report.ParseFormat(flag)
	case output != "":
		return report.FormatForPath(output), nil
	default:
		return report.FormatTable, nil
	}
}

func readAttribution(ctx context.Context, resolver *fetcher.Resolver, src string) (*attribution.Index, error) {
	path, cleanup, err := resolver.Resolve(ctx, src)
	if err != nil {
		return nil, eris.Wrap(err, "resolve attribution")
	}
	defer cleanup()

	tbl, err := fetcher.ReadAttributionTable(ctx, path, fetcher.TableOptions{Sheet: cfg.Attribution.Sheet})
	if err != nil {
		return nil, eris.Wrap(err, "read attribution")
	}
	return attributionIndex(tbl, cfg.Attribution), nil
}

func writeReport(cmd *cobra.Command, format report.Format, results []model.ClassificationResult, summary batch.Summary) error {
	if classifyOutput != "" {
		if err := report.WriteFile(classifyOutput, format, results); err != nil {
			return err
		}
		zap.L().Info("report written",
			zap.String("path", classifyOutput),
			zap.String("format", string(format)),
			zap.Int("rows", len(results)),
		)
		return report.PrintSummary(cmd.OutOrStdout(), summary)
	}

	if err := report.Write(cmd.OutOrStdout(), format, results); err != nil {
		return err
	}
	if format == report.FormatTable {
		return report.PrintSummary(cmd.OutOrStdout(), summary)
	}
	return nil
}

func writeBack(ctx context.Context, sf sfpkg.Client, idx *attribution.Index, out *batch.Output) error {
	object := cfg.Salesforce.LeadObject
	if err := sfpkg.CheckWriteBackFields(ctx, sf, object); err != nil {
		return err
	}

	updates := sfpkg.LeadUpdates(idx, out.Results, out.Matches)
	summary, err := sfpkg.WriteBackClassifications(ctx, sf, object, updates)
	if err != nil {
		return eris.Wrap(err, "write back classifications")
	}
	if summary.Failed > 0 {
		zap.L().Warn("salesforce write-back had failures",
			zap.Int("updated", summary.Updated),
			zap.Int("failed", summary.Failed),
		)
	}
	return nil
}

func init() {
	f := classifyCmd.Flags()
	f.StringVar(&classifyChats, "chats", "", "chat export: .json, .docx or .zip path, http(s) or ftp URL (required)")
	f.StringVar(&classifyAttribution, "attribution", "", "attribution table: .xlsx, .csv or .json path or URL")
	f.StringVar(&classifySalesforceSince, "salesforce-since", "", "load attribution from Salesforce leads created on or after YYYY-MM-DD")
	f.StringVarP(&classifyOutput, "output", "o", "", "write the report to this file instead of stdout")
	f.StringVar(&classifyFormat, "format", "", "report format: table, csv, xlsx or json (default from --output extension, else table)")
	f.StringVar(&classifyRules, "rules", "", "YAML rule file (default built-in rules)")
	f.IntVar(&classifyWorkers, "workers", 1, "parallel classification workers")
	f.StringSliceVar(&classifyTiers, "tier", nil, "only export these tiers (SQL, MQL, NOT_CONTACTED)")
	f.BoolVar(&classifyPushNotion, "push-notion", false, "create Notion pages for SQL leads")
	f.BoolVar(&classifyWriteBack, "writeback-salesforce", false, "write tier and score back to matched Salesforce leads")
	_ = classifyCmd.MarkFlagRequired("chats")
	rootCmd.AddCommand(classifyCmd)
}
