// Package salesforce reads lead attribution from Salesforce and writes
// classifications back to lead records.
package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-classifier/internal/resilience"
)

// Client defines the Salesforce API operations used by the classifier.
type Client interface {
	// Query runs a SOQL query and decodes all records into out.
	Query(ctx context.Context, soql string, out any) error
	// UpdateCollection updates up to 200 records of one SObject type.
	UpdateCollection(ctx context.Context, sObjectName string, records []CollectionRecord) ([]CollectionResult, error)
	// DescribeSObject returns field metadata for an SObject type.
	DescribeSObject(ctx context.Context, name string) (*SObjectDescription, error)
}

// CollectionRecord is one record of a collection update.
type CollectionRecord struct {
	ID     string         `json:"Id"`
	Fields map[string]any `json:"fields"`
}

// CollectionResult is the per-record outcome of a collection update.
type CollectionResult struct {
	ID      string   `json:"id"`
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}

// SObjectField describes one field of an SObject.
type SObjectField struct {
	Name       string `json:"name"`
	Label      string `json:"label"`
	Type       string `json:"type"`
	Length     int    `json:"length"`
	Updateable bool   `json:"updateable"`
}

// SObjectDescription is the describe metadata of an SObject.
type SObjectDescription struct {
	Name   string         `json:"name"`
	Label  string         `json:"label"`
	Fields []SObjectField `json:"fields"`
}

// maxBatchSize is the Salesforce Collections API limit per request.
const maxBatchSize = 200

// ClientOption configures the Salesforce client.
type ClientOption func(*sfClient)

// WithRateLimit caps API calls per second. The burst is the integer part of
// rps (at least 1). rps <= 0 disables limiting.
func WithRateLimit(rps float64) ClientOption {
	return func(c *sfClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// WithRetry overrides the retry policy for transient API failures such as
// REQUEST_LIMIT_EXCEEDED or dropped connections.
func WithRetry(cfg resilience.RetryConfig) ClientOption {
	return func(c *sfClient) {
		c.retry = cfg
	}
}

// sfClient implements Client over go-salesforce/v3. The library takes no
// context, so ctx only bounds rate limiting and retry sleeps.
type sfClient struct {
	sf      *salesforce.Salesforce
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient wraps an authenticated go-salesforce instance.
func NewClient(sf *salesforce.Salesforce, opts ...ClientOption) Client {
	c := &sfClient{sf: sf, retry: resilience.DefaultRetryConfig()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *sfClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// call runs fn behind the rate limiter, retrying transient failures.
func (c *sfClient) call(ctx context.Context, op string, fn func() error) error {
	cfg := c.retry
	cfg.OnRetry = resilience.RetryLogger("salesforce", op)
	return resilience.Do(ctx, cfg, func(ctx context.Context) error {
		if err := c.wait(ctx); err != nil {
			return eris.Wrap(err, "sf: rate limit")
		}
		return fn()
	})
}

func (c *sfClient) Query(ctx context.Context, soql string, out any) error {
	err := c.call(ctx, "query", func() error {
		return c.sf.Query(soql, out)
	})
	if err != nil {
		return eris.Wrap(err, "sf: query")
	}
	return nil
}

func (c *sfClient) UpdateCollection(ctx context.Context, sObjectName string, records []CollectionRecord) ([]CollectionResult, error) {
	rows := make([]map[string]any, len(records))
	for i, rec := range records {
		m := maps.Clone(rec.Fields)
		if m == nil {
			m = make(map[string]any, 1)
		}
		m["Id"] = rec.ID
		rows[i] = m
	}

	var results []CollectionResult
	err := c.call(ctx, "update_collection", func() error {
		resp, err := c.sf.UpdateCollection(sObjectName, rows, maxBatchSize)
		if err != nil {
			return err
		}
		results = make([]CollectionResult, len(resp.Results))
		for i, r := range resp.Results {
			var msgs []string
			for _, e := range r.Errors {
				msgs = append(msgs, e.Message)
			}
			results[i] = CollectionResult{ID: r.Id, Success: r.Success, Errors: msgs}
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: update collection %s", sObjectName))
	}
	return results, nil
}

func (c *sfClient) DescribeSObject(ctx context.Context, name string) (*SObjectDescription, error) {
	var desc SObjectDescription
	err := c.call(ctx, "describe", func() error {
		resp, err := c.sf.DoRequest(http.MethodGet, "/sobjects/"+name+"/describe", nil)
		if err != nil {
			return err
		}
		defer resp.Body.Close() //nolint:errcheck

		desc = SObjectDescription{}
		if err := json.NewDecoder(resp.Body).Decode(&desc); err != nil {
			return eris.Wrap(err, "decode describe")
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: describe %s", name))
	}
	return &desc, nil
}
