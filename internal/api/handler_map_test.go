package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solar-fleet-backend/internal/apperr"
)

func TestParseBBox(t *testing.T) {
	box, err := parseBBox("2.0,48.0,3.0,49.0")
	require.NoError(t, err)
	assert.Equal(t, 2.0, box.MinLon)
	assert.Equal(t, 48.0, box.MinLat)
	assert.Equal(t, 3.0, box.MaxLon)
	assert.Equal(t, 49.0, box.MaxLat)

	// Whitespace around values is tolerated.
	_, err = parseBBox(" 2.0, 48.0, 3.0, 49.0 ")
	assert.NoError(t, err)
}

func TestParseBBox_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"too few values", "1,2,3"},
		{"too many values", "1,2,3,4,5"},
		{"not numbers", "a,b,c,d"},
		{"min equals max", "2.0,48.0,2.0,49.0"},
		{"min above max", "3.0,48.0,2.0,49.0"},
		{"latitude out of range", "2.0,-95.0,3.0,49.0"},
		{"longitude out of range", "-200.0,48.0,3.0,49.0"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseBBox(tc.raw)
			require.Error(t, err)
			assert.Equal(t, apperr.CodeValidation, apperr.From(err).Code)
		})
	}
}
