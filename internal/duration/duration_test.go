package duration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"30m", 30 * time.Minute},
		{"60s", 60 * time.Second},
		{"1h30m", 90 * time.Minute},
		{"5m30s", 5*time.Minute + 30*time.Second},
		{"1h30m15s", time.Hour + 30*time.Minute + 15*time.Second},
		{"1 hour", time.Hour},
		{"1 hour, 30 minutes", 90 * time.Minute},
		{"120", 120 * time.Second},
		{"1.5h", 90 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []string{"", "abc", "-30m", "0s", "0", "1x", "1h!"}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			assert.Error(t, err)
		})
	}
}
