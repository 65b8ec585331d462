package scorer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s with Spanish casing rules and composes accents (NFC) so
// that decomposed input ("e" + U+0301) matches composed phrases ("é").
func Fold(s string) string {
	// cases.Caser is stateful; one per call keeps Fold safe for concurrent use.
	return cases.Lower(language.Spanish).String(norm.NFC.String(s))
}

// foldAll folds every phrase of list.
func foldAll(list []string) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		if p = strings.TrimSpace(Fold(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// isWordRune reports whether r belongs to a word for boundary purposes.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// indexWord returns the byte offset of the first occurrence of phrase in text
// that starts and ends on a word boundary, or -1. Boundaries are Unicode
// aware: "pago" does not match inside "pagó" or "apagones".
func indexWord(text, phrase string) int {
	if phrase == "" {
		return -1
	}
	offset := 0
	for offset <= len(text) {
		i := strings.Index(text[offset:], phrase)
		if i < 0 {
			return -1
		}
		start := offset + i
		end := start + len(phrase)
		if atBoundary(text, start, end) {
			return start
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return -1
}

func atBoundary(text string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

// findWord returns the first phrase of phrases (in list order) that occurs in
// text on word boundaries.
func findWord(text string, phrases []string) (string, bool) {
	for _, p := range phrases {
		if indexWord(text, p) >= 0 {
			return p, true
		}
	}
	return "", false
}

// findSubstring returns the first phrase of phrases contained in text.
func findSubstring(text string, phrases []string) (string, bool) {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return p, true
		}
	}
	return "", false
}

// clauseBreaks end a negated clause.
const clauseBreaks = ".,;:!?¡¿\n"

// stripNegated removes every negation phrase together with the rest of its
// clause, so that "no necesito capacitarme" leaves no motivation keyword
// behind. Removed spans are replaced by a single space.
func stripNegated(text string, negations []string) string {
	for _, neg := range negations {
		for {
			i := indexWord(text, neg)
			if i < 0 {
				break
			}
			end := i + len(neg)
			if j := strings.IndexAny(text[end:], clauseBreaks); j >= 0 {
				end += j
			} else {
				end = len(text)
			}
			text = text[:i] + " " + text[end:]
		}
	}
	return text
}
