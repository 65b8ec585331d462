package scorer

import (
	"regexp"
	"strings"

	"github.com/sells-group/lead-classifier/internal/conversation"
	"github.com/sells-group/lead-classifier/internal/model"
)

// Signal is the output of one scorer: a bounded score, the human-readable
// reasons behind it, and the boolean flag the priority rule reads.
type Signal struct {
	Score   int
	Signals []string
	Flag    bool
}

func (s *Signal) add(weight int, format, phrase string) {
	s.Score += weight
	if phrase == "" {
		s.Signals = append(s.Signals, format)
		return
	}
	s.Signals = append(s.Signals, format+": '"+phrase+"'")
}

type band struct {
	weight  int
	phrases []string
}

func compileBand(b Band) band {
	return band{weight: b.Weight, phrases: foldAll(b.Phrases)}
}

// Engine evaluates a compiled Rules set. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	rules Rules

	repudiation []string
	hostile     []string
	incoherent  []*regexp.Regexp

	strong              band
	moderate            band
	labor               band
	vague               band
	strongObjection     band
	softObjection       band
	motivationNegations []string

	direct           band
	logistics        band
	price            band
	noPay            band
	priceObjection   band
	paymentNegations []string
	instructions     []string
	proofTypes       map[model.ContentType]bool

	closing []string
}

// NewEngine validates rules and precompiles phrase lists and patterns.
func NewEngine(rules Rules) (*Engine, error) {
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}

	e := &Engine{
		rules:               rules,
		repudiation:         foldAll(rules.Exclusion.Repudiation),
		hostile:             foldAll(rules.Exclusion.Hostile),
		strong:              compileBand(rules.Motivation.Strong),
		moderate:            compileBand(rules.Motivation.Moderate),
		labor:               compileBand(rules.Motivation.LaborImpact),
		vague:               compileBand(rules.Motivation.Vague),
		strongObjection:     compileBand(rules.Motivation.StrongObjection),
		softObjection:       compileBand(rules.Motivation.SoftObjection),
		motivationNegations: foldAll(rules.Motivation.Negations),
		direct:              compileBand(rules.Payment.Direct),
		logistics:           compileBand(rules.Payment.Logistics),
		price:               compileBand(rules.Payment.PriceInquiry),
		noPay:               compileBand(rules.Payment.NoPay),
		priceObjection:      compileBand(rules.Payment.PriceObjection),
		paymentNegations:    foldAll(rules.Payment.Negations),
		instructions:        foldAll(rules.Payment.Instructions),
		proofTypes:          make(map[model.ContentType]bool),
		closing:             foldAll(rules.Classification.ClosingPhrases),
	}
	for _, p := range rules.Exclusion.IncoherentPatterns {
		e.incoherent = append(e.incoherent, regexp.MustCompile(p))
	}
	for _, ct := range rules.Payment.ProofContentTypes {
		e.proofTypes[ct] = true
	}
	return e, nil
}

// MustDefaultEngine returns an Engine over DefaultRules. It panics only if
// the built-in rules are invalid, which the package tests guard against.
func MustDefaultEngine() *Engine {
	e, err := NewEngine(DefaultRules())
	if err != nil {
		panic(err)
	}
	return e
}

// Rules returns the rule set the engine was built from.
func (e *Engine) Rules() Rules {
	return e.rules
}

// HasClosingPhrase reports whether text contains a farewell phrase.
func (e *Engine) HasClosingPhrase(text string) bool {
	_, ok := findWord(Fold(text), e.closing)
	return ok
}

// userText joins the folded text of every user message, one message per line.
func userText(conv conversation.Conversation) string {
	var parts []string
	for _, m := range conv.UserMessages() {
		if t := m.Text(); t != "" {
			parts = append(parts, Fold(t))
		}
	}
	return strings.Join(parts, "\n")
}

func capAt(score, upper int) int {
	return min(score, upper)
}
