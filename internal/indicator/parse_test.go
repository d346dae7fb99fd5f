package indicator

import (
	"errors"
	"testing"

	"github.com/kyuwon/tradewind/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  float64
		ok    bool
	}{
		{"float64", 1.5, 1.5, true},
		{"float32", float32(2.5), 2.5, true},
		{"int", 42, 42, true},
		{"int64", int64(7), 7, true},
		{"plain string", "3.14", 3.14, true},
		{"percent string to decimal", "12%", 0.12, true},
		{"negative percent", "-5%", -0.05, true},
		{"comma formatted", "1,234.5", 1234.5, true},
		{"comma formatted percent", "1,200%", 12.0, true},
		{"leading number with suffix", "+12.3pts", 12.3, true},
		{"whitespace", "  7.5  ", 7.5, true},
		{"nil", nil, 0, false},
		{"empty string", "", 0, false},
		{"no digits", "n/a", 0, false},
		{"unsupported type", []int{1}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNumeric(tt.input)
			if !tt.ok {
				require.Error(t, err)
				assert.True(t, errors.Is(err, core.ErrParseFailure))
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
