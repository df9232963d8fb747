package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBasemapStyle(t *testing.T) {
	t.Parallel()

	for _, s := range AllBasemapStyles() {
		got, err := ParseBasemapStyle(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	got, err := ParseBasemapStyle("  Places ")
	require.NoError(t, err)
	assert.Equal(t, StylePlaces, got)

	_, err = ParseBasemapStyle("satellite")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "community, streets, navigation, places")
}

func TestDefaultStyleURLsCoverAllStyles(t *testing.T) {
	t.Parallel()

	for _, s := range AllBasemapStyles() {
		assert.NotEmpty(t, DefaultStyleURLs[s], "style %s", s)
	}
	assert.Len(t, DefaultStyleURLs, 4)
}

func TestPlaceResultCategoryLabels(t *testing.T) {
	t.Parallel()

	p := PlaceResult{Categories: []Category{{Label: "Cafe"}, {Label: "Bakery"}}}
	assert.Equal(t, []string{"Cafe", "Bakery"}, p.CategoryLabels())
	assert.Empty(t, PlaceResult{}.CategoryLabels())
}

func TestCoordinateLonLat(t *testing.T) {
	t.Parallel()

	c := Coordinate{Longitude: 2.35, Latitude: 48.86}
	assert.Equal(t, []float64{2.35, 48.86}, c.LonLat())
	assert.Equal(t, "(2.35, 48.86)", c.String())
}
