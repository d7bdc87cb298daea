package frame

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInputs_SingleButton(t *testing.T) {
	states := DecodeInputs(0b000010000)

	require.Len(t, states, 12)
	for _, s := range states {
		if s.Name == "b1" {
			assert.True(t, s.Active, "b1 should be active")
		} else {
			assert.False(t, s.Active, "%s should be inactive", s.Name)
		}
	}
	assert.Equal(t, []string{"b1"}, ActiveButtons(0b000010000))
}

func TestDecodeInputs_Layout(t *testing.T) {
	tests := []struct {
		name   string
		inputs uint16
		want   []string
	}{
		{"none", 0, nil},
		{"directions", 0b1111, []string{"up", "down", "left", "right"}},
		{"start and coin", 1<<10 | 1<<11, []string{"start", "coin"}},
		{"all buttons", 0x0FFF, []string{"up", "down", "left", "right", "b1", "b2", "b3", "b4", "b5", "b6", "start", "coin"}},
		{"bits above layout ignored", 0xF000 | 1<<9, []string{"b6"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ActiveButtons(tt.inputs))
		})
	}
}

func TestCompareHashes(t *testing.T) {
	replay := ReplayFrame{Frame: 10, StateHash: "abc123"}

	t.Run("match", func(t *testing.T) {
		v := ReplayFrame{Frame: 10, StateHash: "abc123"}
		cmp := CompareHashes(replay, &v)
		assert.Equal(t, HashMatch, cmp.Status)
		assert.Equal(t, "match", cmp.Status.String())
	})

	t.Run("mismatch", func(t *testing.T) {
		v := ReplayFrame{Frame: 10, StateHash: "def456"}
		cmp := CompareHashes(replay, &v)
		assert.Equal(t, HashMismatch, cmp.Status)
		assert.Equal(t, "def456", cmp.ValidationHash)
	})

	t.Run("no validation frame is not a mismatch", func(t *testing.T) {
		cmp := CompareHashes(replay, nil)
		assert.Equal(t, HashUnavailable, cmp.Status)
		assert.NotEqual(t, HashMismatch, cmp.Status)
		assert.Equal(t, "no comparison available", cmp.Status.String())
	})
}

func TestCompareVariables(t *testing.T) {
	replay := ReplayFrame{P1Health: 0.5, P2Health: 1, P1X: 120, P2X: 280, RNGSeed: 42}

	rows := CompareVariables(replay, nil)
	require.Len(t, rows, 5)
	assert.Equal(t, "P1 Health", rows[0].Label)
	assert.Equal(t, "0.5", rows[0].Replay)
	assert.Equal(t, "RNG Seed", rows[4].Label)
	for _, r := range rows {
		assert.False(t, r.HasValidation)
		assert.False(t, r.Mismatch)
	}

	validation := replay
	validation.P2X = 281
	rows = CompareVariables(replay, &validation)
	for _, r := range rows {
		assert.True(t, r.HasValidation)
		assert.Equal(t, r.Key == "p2_x", r.Mismatch, r.Key)
	}
}

func TestReplayFrameJSON(t *testing.T) {
	raw := `{"frame":7,"p1_x":10.5,"p2_x":300,"p1_health":0.25,"p2_health":1,"inputs":17,"state_hash":"ff00","rng_seed":99}`

	var f ReplayFrame
	require.NoError(t, json.Unmarshal([]byte(raw), &f))
	assert.Equal(t, 7, f.Frame)
	assert.Equal(t, uint16(17), f.Inputs)
	assert.Equal(t, []string{"up", "b1"}, ActiveButtons(f.Inputs))
	assert.Equal(t, int64(99), f.RNGSeed)
}
