package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWorldPoints_Valid(t *testing.T) {
	input := "[[100.5,200.25],[300.75,400.5,12],[500,600]]"
	points, err := ParseWorldPoints(input)

	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, 100.5, points[0].X)
	assert.Equal(t, 200.25, points[0].Y)
	assert.Equal(t, 0.0, points[0].Z)
	assert.Equal(t, 12.0, points[1].Z)
	assert.Equal(t, 600.0, points[2].Y)
}

func TestParseWorldPoints_InvalidJSON(t *testing.T) {
	_, err := ParseWorldPoints("not valid json")
	require.Error(t, err)
}

func TestParseWorldPoints_Empty(t *testing.T) {
	_, err := ParseWorldPoints("[]")
	require.Error(t, err)
}

func TestParseWorldPoints_InsufficientCoordinates(t *testing.T) {
	_, err := ParseWorldPoints("[[100],[200,300]]")
	require.Error(t, err)
}
