package scorer

import "github.com/sells-group/lead-classifier/internal/conversation"

// Motivation scores declared professional motivation. Objections are read
// from the full user text; motivation bands are read from a copy with
// negated clauses removed, so "no me interesa" never counts as interest.
// The result is capped at Rules.Motivation.Cap and may be negative.
func (e *Engine) Motivation(conv conversation.Conversation) Signal {
	var sig Signal
	full := userText(conv)

	if kw, ok := findWord(full, e.strongObjection.phrases); ok {
		sig.add(e.strongObjection.weight, "Objeción temprana", kw)
	} else if kw, ok := findWord(full, e.softObjection.phrases); ok {
		sig.add(e.softObjection.weight, "Objeción blanda", kw)
	}

	clean := stripNegated(full, e.motivationNegations)

	if kw, ok := findWord(clean, e.strong.phrases); ok {
		sig.add(e.strong.weight, "Motivación profesional clara", kw)
		sig.Flag = true
	} else if kw, ok := findWord(clean, e.moderate.phrases); ok {
		sig.add(e.moderate.weight, "Motivación profesional moderada", kw)
		sig.Flag = true
	}

	if kw, ok := findWord(clean, e.labor.phrases); ok {
		if sig.Flag {
			sig.add(e.labor.weight, "Impacto laboral adicional", kw)
		} else {
			sig.add(e.labor.weight, "Impacto laboral concreto", kw)
			sig.Flag = true
		}
	}

	if sig.Score <= 0 {
		if kw, ok := findWord(clean, e.vague.phrases); ok {
			sig.add(e.vague.weight, "Motivación vaga", kw)
		}
	}

	sig.Score = capAt(sig.Score, e.rules.Motivation.Cap)
	return sig
}
