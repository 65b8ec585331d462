// Package scorer extracts lead-quality signals from chat conversations.
package scorer

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lead-classifier/internal/model"
)

// Band is a weighted phrase list. The first phrase (in list order) found in
// the text decides the match.
type Band struct {
	Weight  int      `yaml:"weight"`
	Phrases []string `yaml:"phrases"`
}

// ExclusionRules configures the disqualification pre-screen.
type ExclusionRules struct {
	Repudiation        []string `yaml:"repudiation"`
	Hostile            []string `yaml:"hostile"`
	IncoherentPatterns []string `yaml:"incoherent_patterns"`
	IncoherentMaxLen   int      `yaml:"incoherent_max_len"`
}

// MotivationRules configures the motivation scorer.
type MotivationRules struct {
	Strong          Band     `yaml:"strong"`
	Moderate        Band     `yaml:"moderate"`
	LaborImpact     Band     `yaml:"labor_impact"`
	Vague           Band     `yaml:"vague"`
	StrongObjection Band     `yaml:"strong_objection"`
	SoftObjection   Band     `yaml:"soft_objection"`
	Negations       []string `yaml:"negations"`
	Cap             int      `yaml:"cap"`
}

// PaymentRules configures the payment-intent scorer.
type PaymentRules struct {
	Direct            Band                `yaml:"direct"`
	Logistics         Band                `yaml:"logistics"`
	PriceInquiry      Band                `yaml:"price_inquiry"`
	NoPay             Band                `yaml:"no_pay"`
	PriceObjection    Band                `yaml:"price_objection"`
	Negations         []string            `yaml:"negations"`
	Instructions      []string            `yaml:"instructions"`
	ProofContentTypes []model.ContentType `yaml:"proof_content_types"`
	ProofWeight       int                 `yaml:"proof_weight"`
	DisclosureWeight  int                 `yaml:"disclosure_weight"`
	Cap               int                 `yaml:"cap"`
}

// BehaviorRules configures the behavior/timing scorer.
type BehaviorRules struct {
	FastHours              float64 `yaml:"fast_hours"`
	SlowHours              float64 `yaml:"slow_hours"`
	FastWeight             int     `yaml:"fast_weight"`
	ModerateWeight         int     `yaml:"moderate_weight"`
	SlowWeight             int     `yaml:"slow_weight"`
	UserInitiatedWeight    int     `yaml:"user_initiated_weight"`
	FollowUpMinMessages    int     `yaml:"follow_up_min_messages"`
	FollowUpWeight         int     `yaml:"follow_up_weight"`
	PartialGhostingPenalty int     `yaml:"partial_ghosting_penalty"`
	EngagementWeight       int     `yaml:"engagement_weight"`
	GhostingPenalty        int     `yaml:"ghosting_penalty"`
	Cap                    int     `yaml:"cap"`
}

// ClassificationRules configures tiering and conversation state.
type ClassificationRules struct {
	SQLThreshold   int      `yaml:"sql_threshold"`
	MinTotal       int      `yaml:"min_total"`
	MaxTotal       int      `yaml:"max_total"`
	ClosingPhrases []string `yaml:"closing_phrases"`
}

// Rules is the complete, versionable classification policy.
type Rules struct {
	Version        string              `yaml:"version"`
	Exclusion      ExclusionRules      `yaml:"exclusion"`
	Motivation     MotivationRules     `yaml:"motivation"`
	Payment        PaymentRules        `yaml:"payment"`
	Behavior       BehaviorRules       `yaml:"behavior"`
	Classification ClassificationRules `yaml:"classification"`
}

// LoadRules reads a YAML rule file. Keys missing from the file keep their
// DefaultRules value; lists present in the file replace the default list.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, eris.Wrapf(err, "scorer: read rules %s", path)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, eris.Wrapf(err, "scorer: parse rules %s", path)
	}
	if err := ValidateRules(rules); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

// MarshalRules renders rules as YAML.
func MarshalRules(r Rules) ([]byte, error) {
	out, err := yaml.Marshal(r)
	if err != nil {
		return nil, eris.Wrap(err, "scorer: marshal rules")
	}
	return out, nil
}

// ValidateRules checks that a rule set is internally consistent.
func ValidateRules(r Rules) error {
	var errs []string

	required := []struct {
		name    string
		phrases []string
	}{
		{"exclusion.repudiation", r.Exclusion.Repudiation},
		{"exclusion.hostile", r.Exclusion.Hostile},
		{"motivation.strong", r.Motivation.Strong.Phrases},
		{"motivation.labor_impact", r.Motivation.LaborImpact.Phrases},
		{"payment.direct", r.Payment.Direct.Phrases},
		{"payment.no_pay", r.Payment.NoPay.Phrases},
		{"classification.closing_phrases", r.Classification.ClosingPhrases},
	}
	for _, req := range required {
		if len(req.phrases) == 0 {
			errs = append(errs, fmt.Sprintf("%s must not be empty", req.name))
		}
		for _, p := range req.phrases {
			if strings.TrimSpace(p) == "" {
				errs = append(errs, fmt.Sprintf("%s contains a blank phrase", req.name))
				break
			}
		}
	}

	for _, p := range r.Exclusion.IncoherentPatterns {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Sprintf("exclusion.incoherent_patterns: %q does not compile", p))
		}
	}

	positive := []struct {
		name  string
		value int
	}{
		{"motivation.cap", r.Motivation.Cap},
		{"payment.cap", r.Payment.Cap},
		{"behavior.cap", r.Behavior.Cap},
		{"classification.max_total", r.Classification.MaxTotal},
		{"classification.min_total", r.Classification.MinTotal},
		{"exclusion.incoherent_max_len", r.Exclusion.IncoherentMaxLen},
	}
	for _, v := range positive {
		if v.value <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be > 0", v.name))
		}
	}
	if r.Classification.MaxTotal < r.Classification.MinTotal {
		errs = append(errs, "classification.max_total must be >= min_total")
	}
	if r.Classification.SQLThreshold < r.Classification.MinTotal || r.Classification.SQLThreshold > r.Classification.MaxTotal {
		errs = append(errs, "classification.sql_threshold must be within [min_total, max_total]")
	}
	if r.Behavior.SlowHours < r.Behavior.FastHours {
		errs = append(errs, "behavior.slow_hours must be >= fast_hours")
	}
	if r.Behavior.GhostingPenalty > 0 || r.Behavior.PartialGhostingPenalty > 0 {
		errs = append(errs, "behavior ghosting penalties must be <= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: rules validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
