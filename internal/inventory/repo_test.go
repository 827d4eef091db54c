package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLikePattern(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"jacket", `%jacket%`},
		{"100%", `%100\%%`},
		{"polo_shirt", `%polo\_shirt%`},
		{`back\slash`, `%back\\slash%`},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			assert.Equal(t, tc.want, likePattern(tc.query))
		})
	}
}
