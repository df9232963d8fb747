package model

import "fmt"

// Coordinate is a WGS84 point in longitude/latitude order, matching the
// [lon, lat] ordering the map surface and the ArcGIS providers use.
type Coordinate struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// LonLat returns the coordinate as a [lon, lat] pair.
func (c Coordinate) LonLat() []float64 {
	return []float64{c.Longitude, c.Latitude}
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%g, %g)", c.Longitude, c.Latitude)
}

// DemographicSnapshot holds the attributes of the first enrichment feature
// for a tapped point. Values are copied verbatim from the provider.
type DemographicSnapshot struct {
	TotalPopulation  float64 `json:"total_population"`
	AvgHouseholdSize float64 `json:"avg_household_size"`
	TotalMales       float64 `json:"total_males"`
	TotalFemales     float64 `json:"total_females"`
}

// Category is a single place category label.
type Category struct {
	Label string `json:"label"`
}

// PlaceResult is one place returned by a near-point search.
type PlaceResult struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Categories []Category `json:"categories"`
}

// CategoryLabels returns the category labels in provider order.
func (p PlaceResult) CategoryLabels() []string {
	labels := make([]string, 0, len(p.Categories))
	for _, c := range p.Categories {
		labels = append(labels, c.Label)
	}
	return labels
}

// CircleOverlay is the search-area circle drawn over the map in
// demographic mode. RadiusPixels is derived from the observed zoom at read
// time and is never stored alongside the snapshot.
type CircleOverlay struct {
	Center       Coordinate `json:"center"`
	RadiusPixels float64    `json:"radius_pixels"`
}
