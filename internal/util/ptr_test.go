package util

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPtr(t *testing.T) {
	p := Ptr(42)
	require.NotNil(t, p)
	assert.Equal(t, 42, *p)
}

func TestNilIfEmpty(t *testing.T) {
	assert.Nil(t, NilIfEmpty(""))

	data, err := json.Marshal(struct {
		Dir *string `json:"directory"`
	}{NilIfEmpty("")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"directory":null}`, string(data))

	p := NilIfEmpty("/replays")
	require.NotNil(t, p)
	assert.Equal(t, "/replays", *p)
}
