package sym

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSparkLevels(t *testing.T) {
	assert.Len(t, Spark, 8)
	assert.Equal(t, '▁', Spark[0])
	assert.Equal(t, BarFull, string(Spark[len(Spark)-1]))
}

func TestStatusGlyphsDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, g := range []string{Live, Paused, Monitoring, Idle, Match, Mismatch, NoCheck} {
		assert.False(t, seen[g], g)
		seen[g] = true
	}
}
