package sizing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTiersValid(t *testing.T) {
	tiers, err := ParseTiers("0-100:2, 100-500:1.5, 500+:1")
	require.NoError(t, err)
	require.Len(t, tiers, 3)

	assert.Equal(t, Tier{Min: 0, Max: 100, Multiplier: 2}, tiers[0])
	assert.Equal(t, Tier{Min: 100, Max: 500, Multiplier: 1.5}, tiers[1])
	assert.Equal(t, 500.0, tiers[2].Min)
	assert.True(t, tiers[2].Unbounded())
}

func TestParseTiersSortsInput(t *testing.T) {
	tiers, err := ParseTiers("100+:1,0-100:2")
	require.NoError(t, err)
	require.Len(t, tiers, 2)
	assert.Equal(t, 0.0, tiers[0].Min)
	assert.True(t, tiers[1].Unbounded())
}

func TestParseTiersEmpty(t *testing.T) {
	tiers, err := ParseTiers("   ")
	require.NoError(t, err)
	assert.Nil(t, tiers)
}

func TestParseTiersRejections(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"max-below-min", "100-50:2", "maximum must be >"},
		{"overlap", "0-100:2,50-150:3", "overlapping tiers"},
		{"gap", "0-100:2,200-300:3", "gap between tiers"},
		{"unbounded-not-last", "0+:2,100-200:3", "must be last"},
		{"missing-multiplier", "0-100", "expected"},
		{"bad-multiplier", "0-100:abc", "invalid multiplier"},
		{"negative-multiplier", "0-100:-1", "must be >= 0"},
		{"negative-min", "-5-100:2", "invalid"},
		{"bad-range", "100:2", "invalid range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTiers(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTierContains(t *testing.T) {
	bounded := Tier{Min: 100, Max: 500}
	assert.True(t, bounded.Contains(100))
	assert.True(t, bounded.Contains(499.99))
	assert.False(t, bounded.Contains(500))
	assert.False(t, bounded.Contains(99.99))

	unbounded := Tier{Min: 500, Max: math.Inf(1)}
	assert.True(t, unbounded.Contains(500))
	assert.True(t, unbounded.Contains(1e18))
	assert.False(t, unbounded.Contains(499))
}
