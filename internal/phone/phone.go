// Package phone canonicalizes phone numbers from heterogeneous sources.
package phone

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Normalize returns the digits of v, or "" when v is nil, empty, or carries no
// digits. Floating-point values are truncated to an integer first so that
// spreadsheet numbers such as 593993575726.0 do not gain a trailing zero.
// Normalize never panics.
func Normalize(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return digits(t)
	case []byte:
		return digits(string(t))
	case float64:
		return normalizeFloat(t)
	case float32:
		return normalizeFloat(float64(t))
	case int:
		return digits(strconv.FormatInt(int64(t), 10))
	case int32:
		return digits(strconv.FormatInt(int64(t), 10))
	case int64:
		return digits(strconv.FormatInt(t, 10))
	case uint64:
		return strconv.FormatUint(t, 10)
	case json.Number:
		if f, err := t.Float64(); err == nil && strings.ContainsAny(t.String(), ".eE") {
			return normalizeFloat(f)
		}
		return digits(t.String())
	case fmt.Stringer:
		return digits(t.String())
	default:
		return digits(fmt.Sprint(t))
	}
}

func normalizeFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	if math.Abs(f) >= math.MaxInt64 {
		return digits(strconv.FormatFloat(f, 'f', 0, 64))
	}
	return digits(strconv.FormatInt(int64(f), 10))
}

func digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
