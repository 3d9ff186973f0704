package handler

import (
	"testing"

	"github.com/jaennil/guide_helper/backend/tiledb/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTile(t *testing.T) {
	x, y, z, err := parseTile("15", "10", "5")
	require.NoError(t, err)
	assert.Equal(t, []int{15, 10, 5}, []int{x, y, z})

	tests := []struct {
		name    string
		x, y, z string
		want    string
	}{
		{"missing z", "1", "1", "", "validation failed: x, y and z are required"},
		{"missing all", "", "", "", "validation failed: x, y and z are required"},
		{"bad x", "a", "1", "1", "validation failed: x should be integer"},
		{"bad y", "1", "b", "1", "validation failed: y should be integer"},
		{"bad z", "1", "1", "c", "validation failed: z should be integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := parseTile(tt.x, tt.y, tt.z)
			assert.ErrorIs(t, err, model.ErrValidation)
			assert.EqualError(t, err, tt.want)
			assert.NotContains(t, err.Error(), "query")
		})
	}
}

func TestEtagMatches(t *testing.T) {
	etag := `"00000000deadbeef"`

	assert.True(t, etagMatches(etag, etag))
	assert.True(t, etagMatches(`W/"00000000deadbeef"`, etag))
	assert.True(t, etagMatches(`"other", "00000000deadbeef"`, etag))
	assert.True(t, etagMatches("*", etag))
	assert.False(t, etagMatches(`"other"`, etag))
}
