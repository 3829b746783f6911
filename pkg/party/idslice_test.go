package party

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDSlice_GetIndex(t *testing.T) {
	tests := []struct {
		name        string
		partyIDs    IDSlice
		requestedID ID
		want        int
	}{
		{"empty", IDSlice{}, 0, -1},
		{"first", Range(4), 0, 0},
		{"last", Range(4), 3, 3},
		{"missing", IDSlice{1, 3, 5}, 4, -1},
		{"sparse", IDSlice{1, 3, 5}, 5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.partyIDs.GetIndex(tt.requestedID))
		})
	}
}

func TestIDSlice_Valid(t *testing.T) {
	assert.True(t, Range(4).Valid())
	assert.False(t, IDSlice{}.Valid())
	assert.False(t, IDSlice{0, 0, 1}.Valid())
	assert.False(t, IDSlice{2, 1}.Valid())
	assert.True(t, NewIDSlice([]ID{3, 0, 2}).Valid())
}

func TestIDSlice_Remove(t *testing.T) {
	ids := Range(4)
	removed := ids.Remove(2)
	assert.Equal(t, IDSlice{0, 1, 3}, removed)
	assert.Equal(t, Range(4), ids)
	assert.False(t, removed.Contains(2))
}

func TestFromString(t *testing.T) {
	id, err := FromString("12")
	assert.NoError(t, err)
	assert.Equal(t, ID(12), id)
	assert.Equal(t, "12", id.String())

	_, err = FromString("-1")
	assert.Error(t, err)
}
