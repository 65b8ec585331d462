// Package classifier turns a conversation into a scored, tiered lead.
package classifier

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/sells-group/lead-classifier/internal/conversation"
	"github.com/sells-group/lead-classifier/internal/model"
	"github.com/sells-group/lead-classifier/internal/phone"
	"github.com/sells-group/lead-classifier/internal/scorer"
)

const (
	reasonNoResponse = "Lead sin respuesta (Ghosting) - Score 0"
	reasonPriority   = "Regla prioritaria: Motivación profesional clara + Intención de pago"
	signalPriority   = "REGLA PRIORITARIA: Motivación + Pago = SQL"
	signalExcluded   = "Lead descartado por regla de exclusión"
)

var noResponseSignals = []string{"Solo habló el bot/agente", "Sin respuesta del usuario"}

// Classifier combines the exclusion filter, the three signal scorers and
// the priority rule into a ClassificationResult.
type Classifier struct {
	engine *scorer.Engine
}

// New returns a Classifier over engine.
func New(engine *scorer.Engine) *Classifier {
	return &Classifier{engine: engine}
}

// PriorityRule reports whether clear motivation and payment intent were both
// detected. It overrides the additive total and forces SQL.
func PriorityRule(motivation, payment scorer.Signal) bool {
	return motivation.Flag && payment.Flag
}

// Classify scores a single conversation. It never fails; degraded inputs
// (bad timestamps, missing phone) yield zero values in the affected fields.
func (c *Classifier) Classify(conv conversation.Conversation) model.ClassificationResult {
	users := conv.UserMessages()
	res := model.ClassificationResult{
		ChatID:          conv.ChatID,
		Telefono:        phone.Normalize(conv.Phone()),
		Clasificacion:   model.TierNotContacted,
		MensajesUsuario: len(users),
	}

	if len(users) == 0 {
		res.RazonPrincipal = reasonNoResponse
		res.SenalesClave = slices.Clone(noResponseSignals)
		res.EstadoConversacion = model.StateNoResponse
		return res
	}

	res.EstadoConversacion = c.state(users)
	res.DuracionChat = model.ChatDuration(conv.Span())

	if ex := c.engine.Exclude(conv); ex.Disqualified {
		zap.L().Debug("classifier: conversation disqualified",
			zap.String("chat_id", conv.ChatID),
			zap.String("reason", ex.Reason),
		)
		res.RazonPrincipal = ex.Reason
		res.SenalesClave = []string{signalExcluded}
		return res
	}

	motivation := c.engine.Motivation(conv)
	payment := c.engine.Payment(conv)
	behavior := c.engine.Behavior(conv)

	rules := c.engine.Rules().Classification
	total := motivation.Score + payment.Score + behavior.Score
	total = max(rules.MinTotal, min(total, rules.MaxTotal))

	res.ScoreTotal = total
	res.ScoreMotivacion = motivation.Score
	res.ScorePago = payment.Score
	res.ScoreComportamiento = behavior.Score
	res.SenalesClave = uniqueSignals(slices.Concat(motivation.Signals, payment.Signals, behavior.Signals))

	switch {
	case PriorityRule(motivation, payment):
		res.Clasificacion = model.TierSQL
		res.RazonPrincipal = reasonPriority
		res.SenalesClave = append([]string{signalPriority}, res.SenalesClave...)
	case total >= rules.SQLThreshold:
		res.Clasificacion = model.TierSQL
		res.RazonPrincipal = fmt.Sprintf("Score alto (%d/100) - Derivar a Ventas", total)
	default:
		res.Clasificacion = model.TierMQL
		res.RazonPrincipal = fmt.Sprintf("Score moderado (%d/100) - Nurturing/Maduración", total)
	}
	if res.SenalesClave == nil {
		res.SenalesClave = []string{}
	}
	return res
}

// state labels the conversation closed when the last user message says
// goodbye.
func (c *Classifier) state(users []model.Message) model.ConversationState {
	if c.engine.HasClosingPhrase(users[len(users)-1].Text()) {
		return model.StateClosedByUser
	}
	return model.StateActive
}

// uniqueSignals drops repeated signals, keeping first-seen order.
func uniqueSignals(signals []string) []string {
	seen := make(map[string]bool, len(signals))
	out := make([]string, 0, len(signals))
	for _, s := range signals {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
