package phone

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stringer string

func (s stringer) String() string { return string(s) }

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"dashed string", "593-99-357-5726", "593993575726"},
		{"float with decimal tail", 593993575726.0, "593993575726"},
		{"plain string", "593993575726", "593993575726"},
		{"formatted international", "+593 (99) 357 5726", "593993575726"},
		{"int", 998765432, "998765432"},
		{"int64", int64(593991234567), "593991234567"},
		{"float32 small", float32(12345), "12345"},
		{"fractional float truncates", 12345.9, "12345"},
		{"json number float", json.Number("593993575726.0"), "593993575726"},
		{"json number int", json.Number("593993575726"), "593993575726"},
		{"stringer", stringer("099-123"), "099123"},
		{"nil", nil, ""},
		{"empty", "", ""},
		{"letters only", "sin numero", ""},
		{"NaN", math.NaN(), ""},
		{"infinity", math.Inf(1), ""},
		{"non ascii digits dropped", "٥٩٣", ""},
		{"bytes", []byte("59-3"), "593"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_UnknownTypeNeverPanics(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		Normalize(struct{ A int }{A: 7})
		Normalize(time.Duration(5))
		Normalize([]int{1, 2})
	})
}
