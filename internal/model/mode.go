package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Mode is the active insight mode. Exactly one value is active at a time.
type Mode string

const (
	ModeNone         Mode = "none"
	ModeDemographic  Mode = "demographic"
	ModePlaceDetails Mode = "place_details"
)

// BasemapStyle names one of the fixed basemap styles.
type BasemapStyle string

const (
	StyleCommunity  BasemapStyle = "community"
	StyleStreets    BasemapStyle = "streets"
	StyleNavigation BasemapStyle = "navigation"
	StylePlaces     BasemapStyle = "places"
)

// AllBasemapStyles returns the styles in display order.
func AllBasemapStyles() []BasemapStyle {
	return []BasemapStyle{
		StyleCommunity,
		StyleStreets,
		StyleNavigation,
		StylePlaces,
	}
}

// DefaultStyleURLs maps each basemap style to its style document.
var DefaultStyleURLs = map[BasemapStyle]string{
	StyleCommunity:  "https://cyatteau.github.io/mapStyle/basemap-style-arcgis-community.json",
	StyleStreets:    "https://cyatteau.github.io/mapStyle/basemap-style-arcgis-streets.json",
	StyleNavigation: "https://cyatteau.github.io/mapStyle/basemap-style-arcgis-navigation.json",
	StylePlaces:     "https://cyatteau.github.io/mapStyle/basemap-style-arcgis-navigation-places.json",
}

// Valid reports whether s is one of the known styles.
func (s BasemapStyle) Valid() bool {
	_, ok := DefaultStyleURLs[s]
	return ok
}

// ParseBasemapStyle parses a style name case-insensitively.
func ParseBasemapStyle(name string) (BasemapStyle, error) {
	s := BasemapStyle(strings.ToLower(strings.TrimSpace(name)))
	if !s.Valid() {
		names := make([]string, 0, len(DefaultStyleURLs))
		for _, st := range AllBasemapStyles() {
			names = append(names, string(st))
		}
		return "", NewValidationError("parse style", eris.Errorf("unknown basemap style %q (want one of %s)", name, strings.Join(names, ", ")))
	}
	return s, nil
}
