package scorer

import (
	"strings"
	"unicode/utf8"

	"github.com/sells-group/lead-classifier/internal/conversation"
)

// Exclusion is the outcome of the disqualification pre-screen.
type Exclusion struct {
	Disqualified bool
	Reason       string
}

// Exclude scans user messages in order and disqualifies the conversation on
// the first repudiation phrase, hostile phrase, or incoherent single reply.
// Phrase checks are case-insensitive substring matches.
func (e *Engine) Exclude(conv conversation.Conversation) Exclusion {
	users := conv.UserMessages()
	for _, msg := range users {
		text := Fold(msg.Text())

		if kw, ok := findSubstring(text, e.repudiation); ok {
			return Exclusion{Disqualified: true, Reason: "Lead declara no haber dejado sus datos: '" + kw + "'"}
		}
		if kw, ok := findSubstring(text, e.hostile); ok {
			return Exclusion{Disqualified: true, Reason: "Respuesta hostil detectada: '" + kw + "'"}
		}
		if len(users) == 1 && e.isIncoherent(text) {
			return Exclusion{Disqualified: true, Reason: "Respuesta incoherente o sin sentido"}
		}
	}
	return Exclusion{}
}

func (e *Engine) isIncoherent(text string) bool {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) >= e.rules.Exclusion.IncoherentMaxLen {
		return false
	}
	for _, re := range e.incoherent {
		if re.MatchString(trimmed) {
			return true
		}
	}
	return false
}
