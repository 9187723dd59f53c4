package params

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 20},
		{"limit=2", 2},
		{"limit=abc", 20},
		{"limit=0", 20},
		{"limit=-4", 20},
		{"limit=500", 100},
		{"limit=%20%207", 7},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			q, err := url.ParseQuery(tt.raw)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, ParseLimit(q, 20, 100))
		})
	}
}
