package scorer

import (
	"regexp"

	"github.com/sells-group/lead-classifier/internal/conversation"
)

var (
	emailPattern = regexp.MustCompile(`[\w.+-]+@[\w-]+(\.[\w-]+)+`)
	// A national ID or similar: 10 to 13 digits not touching other digits.
	idPattern = regexp.MustCompile(`(?:^|\D)\d{10,13}(?:\D|$)`)
)

// Payment scores payment intent. Positive bands read the user text with
// negated payment clauses removed; declarations of not paying and price
// objections read the full text. Proof-of-payment uploads after an agent
// payment instruction and personal-data disclosure add credit while the
// score is below the cap. The result is capped at Rules.Payment.Cap and may
// be negative.
func (e *Engine) Payment(conv conversation.Conversation) Signal {
	var sig Signal
	full := userText(conv)
	clean := stripNegated(full, e.paymentNegations)
	upper := e.rules.Payment.Cap

	if kw, ok := findWord(clean, e.direct.phrases); ok {
		sig.add(e.direct.weight, "Intención de pago", kw)
		sig.Flag = true
	} else if kw, ok := findWord(clean, e.logistics.phrases); ok {
		sig.add(e.logistics.weight, "Consulta formas de pago", kw)
		sig.Flag = true
	}

	if sig.Score == 0 {
		if kw, ok := findWord(clean, e.price.phrases); ok {
			sig.add(e.price.weight, "Consulta de precio", kw)
		}
	}

	if kw, ok := findWord(full, e.noPay.phrases); ok {
		sig.add(e.noPay.weight, "Declara no pagar", kw)
	} else if kw, ok := findWord(full, e.priceObjection.phrases); ok {
		sig.add(e.priceObjection.weight, "Objeción de precio", kw)
	}

	if e.proofAfterInstruction(conv) {
		if sig.Score < upper {
			sig.add(e.rules.Payment.ProofWeight, "Envió comprobante tras instrucciones de pago", "")
		}
		sig.Flag = true
	}

	// Each disclosure kind is credited once, however many messages repeat it.
	var sharedEmail, sharedID bool
	for _, msg := range conv.UserMessages() {
		if sig.Score >= upper || (sharedEmail && sharedID) {
			break
		}
		text := msg.Text()
		if text == "" {
			continue
		}
		switch {
		case emailPattern.MatchString(text):
			if !sharedEmail {
				sharedEmail = true
				sig.add(e.rules.Payment.DisclosureWeight, "Comparte correo electrónico", "")
			}
			sig.Flag = true
		case idPattern.MatchString(text):
			if !sharedID {
				sharedID = true
				sig.add(e.rules.Payment.DisclosureWeight, "Comparte número de identificación", "")
			}
			sig.Flag = true
		}
	}

	sig.Score = capAt(sig.Score, upper)
	return sig
}

// proofAfterInstruction replays the conversation and reports whether the
// user sent an image, document, or file after an agent-side message carrying
// a payment instruction.
func (e *Engine) proofAfterInstruction(conv conversation.Conversation) bool {
	instructed := false
	for _, msg := range conv.Messages {
		switch {
		case msg.From.IsAgentSide():
			if !instructed {
				_, instructed = findWord(Fold(msg.Text()), e.instructions)
			}
		case msg.IsUser() && instructed:
			if e.proofTypes[msg.Content.Type] {
				return true
			}
		}
	}
	return false
}
