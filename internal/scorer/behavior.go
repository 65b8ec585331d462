package scorer

import (
	"fmt"

	"github.com/sells-group/lead-classifier/internal/conversation"
	"github.com/sells-group/lead-classifier/internal/model"
)

const signalUserInitiated = "Usuario inició la conversación"

// Behavior scores response timing and engagement. The result lies within
// [Rules.Behavior.GhostingPenalty, Rules.Behavior.Cap].
func (e *Engine) Behavior(conv conversation.Conversation) Signal {
	r := e.rules.Behavior
	var sig Signal

	users := conv.UserMessages()
	if len(users) == 0 {
		sig.add(r.GhostingPenalty, "No responde (ghosting)", "")
		return sig
	}

	msgs := conv.Messages
	timed := false
	if hours, ok := firstResponseHours(msgs); ok {
		timed = true
		switch {
		case hours < r.FastHours:
			sig.add(r.FastWeight, fmt.Sprintf("Respuesta rápida: < %.0f horas (%.1fh)", r.FastHours, hours), "")
		case hours < r.SlowHours:
			sig.add(r.ModerateWeight, fmt.Sprintf("Respuesta moderada: %.0f-%.0f horas (%.1fh)", r.FastHours, r.SlowHours, hours), "")
		default:
			sig.add(r.SlowWeight, fmt.Sprintf("Respuesta lenta: > %.0f horas (%.1fh)", r.SlowHours, hours), "")
		}
	}

	userFirst := msgs[0].IsUser()
	credited := false
	if !timed && userFirst {
		sig.add(r.UserInitiatedWeight, signalUserInitiated, "")
		credited = true
	}

	if len(users) >= r.FollowUpMinMessages {
		sig.add(r.FollowUpWeight, "Seguimiento activo (múltiples mensajes)", "")
	}

	if userFirst && !credited {
		sig.add(r.UserInitiatedWeight, signalUserInitiated, "")
	}

	if msgs[len(msgs)-1].From.IsAgentSide() {
		sig.add(r.PartialGhostingPenalty, "Ghosting parcial (no respondió al último mensaje)", "")
	}

	for _, m := range users {
		if m.Content.Type == model.ContentAudio || m.Content.Type == model.ContentVideo {
			sig.add(r.EngagementWeight, "Señal de compromiso (audio/video)", "")
			break
		}
	}

	sig.Score = max(capAt(sig.Score, r.Cap), r.GhostingPenalty)
	return sig
}

// firstResponseHours returns the hours between the first agent-side message
// and the first user message after it. ok is false when either message is
// missing, a timestamp does not parse, or the delta is negative.
func firstResponseHours(msgs []model.Message) (float64, bool) {
	botIdx := -1
	for i, m := range msgs {
		if m.From.IsAgentSide() {
			botIdx = i
			break
		}
	}
	if botIdx < 0 {
		return 0, false
	}

	for _, m := range msgs[botIdx+1:] {
		if !m.IsUser() {
			continue
		}
		botAt, ok := conversation.ParseTimestamp(msgs[botIdx].CreationTime)
		if !ok {
			return 0, false
		}
		userAt, ok := conversation.ParseTimestamp(m.CreationTime)
		if !ok {
			return 0, false
		}
		d := userAt.Sub(botAt)
		if d < 0 {
			return 0, false
		}
		return d.Hours(), true
	}
	return 0, false
}
