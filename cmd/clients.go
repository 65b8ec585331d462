package main

import (
	"os"
	"strings"
	"time"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-classifier/internal/attribution"
	"github.com/sells-group/lead-classifier/internal/classifier"
	"github.com/sells-group/lead-classifier/internal/config"
	"github.com/sells-group/lead-classifier/internal/fetcher"
	"github.com/sells-group/lead-classifier/internal/scorer"
	"github.com/sells-group/lead-classifier/pkg/notion"
	sfpkg "github.com/sells-group/lead-classifier/pkg/salesforce"
)

// Client constructors are variables so command tests can swap in fakes.
var (
	newSalesforceClient = initSalesforce
	newNotionClient     = initNotion
)

func initSalesforce(c *config.Config) (sfpkg.Client, error) {
	if err := c.Validate("salesforce"); err != nil {
		return nil, err
	}

	pemData, err := os.ReadFile(c.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         c.Salesforce.LoginURL,
		Username:       c.Salesforce.Username,
		ConsumerKey:    c.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf, sfpkg.WithRateLimit(c.Salesforce.RateLimit)), nil
}

func initNotion(c *config.Config) (notion.Client, error) {
	if err := c.Validate("notion"); err != nil {
		return nil, err
	}
	return notion.NewClient(c.Notion.Token, notion.WithRateLimit(c.Notion.RateLimit)), nil
}

// newResolver builds the input resolver from fetch settings. auth_header is
// "Name: value" and is sent with every HTTP download.
func newResolver(c config.FetchConfig) *fetcher.Resolver {
	timeout := time.Duration(c.TimeoutSecs) * time.Second

	httpOpts := fetcher.HTTPOptions{
		UserAgent:  "lead-classifier/1.0",
		Timeout:    timeout,
		MaxRetries: c.MaxRetries,
	}
	if name, value, ok := strings.Cut(c.AuthHeader, ":"); ok && strings.TrimSpace(name) != "" {
		httpOpts.Headers = map[string]string{strings.TrimSpace(name): strings.TrimSpace(value)}
	}

	return fetcher.NewResolver(httpOpts, fetcher.FTPOptions{Timeout: timeout})
}

// dateOrder returns the configured slash-date order. Validate has already
// rejected unknown values, which fall back to month-first here.
func dateOrder(c config.AttributionConfig) attribution.DateOrder {
	o, err := attribution.ParseDateOrder(c.DateOrder)
	if err != nil {
		return attribution.MonthFirst
	}
	return o
}

// attributionIndex indexes tbl using the configured date order.
func attributionIndex(tbl attribution.Table, c config.AttributionConfig) *attribution.Index {
	return attribution.NewIndex(tbl, attribution.WithDateOrder(dateOrder(c)))
}

// loadClassifier returns a classifier over the rule file at path, or over
// the built-in rules when path is empty.
func loadClassifier(path string) (*classifier.Classifier, error) {
	rules := scorer.DefaultRules()
	if path != "" {
		r, err := scorer.LoadRules(path)
		if err != nil {
			return nil, err
		}
		rules = r
	}

	engine, err := scorer.NewEngine(rules)
	if err != nil {
		return nil, err
	}
	return classifier.New(engine), nil
}
