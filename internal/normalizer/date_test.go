package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"NewsHarvester/internal/domain"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		rule domain.DateRule
		want string
	}{
		{"strip updated and time", "Updated - Jan 5, 2024 at 10:00 IST", domain.DateRuleStripUpdated, "Jan 5, 2024"},
		{"strip time only", "Jan 5, 2024 at 10:00 IST", domain.DateRuleStripUpdated, "Jan 5, 2024"},
		{"strip leaves plain date", "Jan 5, 2024", domain.DateRuleStripUpdated, "Jan 5, 2024"},
		{"strip keeps sentinel", domain.NoDate, domain.DateRuleStripUpdated, domain.NoDate},
		{"passthrough", "Updated: 05 Jan 2024, 10:00 AM IST", domain.DateRulePassthrough, "Updated: 05 Jan 2024, 10:00 AM IST"},
		{"unknown rule", "  5 Jan 2024 ", domain.DateRule("nope"), "5 Jan 2024"},
		{"empty", "   ", domain.DateRuleStripUpdated, domain.NoDate},
		{"strip to empty falls back", "Updated -  at 10:00", domain.DateRuleStripUpdated, "Updated -  at 10:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw, tt.rule))
		})
	}
}

func TestKnown(t *testing.T) {
	t.Parallel()

	assert.True(t, Known(domain.DateRulePassthrough))
	assert.True(t, Known(domain.DateRuleStripUpdated))
	assert.False(t, Known("iso8601"))
}
