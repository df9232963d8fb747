package arcgis

import (
	"context"
	"net/url"

	"github.com/sells-group/map-insights/internal/model"
)

type placesResponse struct {
	Results *[]placeItem `json:"results"`
}

type placeItem struct {
	PlaceID    string `json:"placeId"`
	Name       string `json:"name"`
	Categories []struct {
		CategoryID string `json:"categoryId"`
		Label      string `json:"label"`
	} `json:"categories"`
}

// PlacesNear implements Client.
func (c *httpClient) PlacesNear(ctx context.Context, point model.Coordinate, radius float64) ([]model.PlaceResult, error) {
	if radius <= 0 {
		radius = DefaultPlacesRadius
	}

	body, err := c.fetch(ctx, ProviderPlaces, c.placesURL, url.Values{
		"x":      {formatFloat(point.Longitude)},
		"y":      {formatFloat(point.Latitude)},
		"radius": {formatFloat(radius)},
	})
	if err != nil {
		return nil, err
	}

	var resp placesResponse
	if err := decode(ProviderPlaces, body, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		return nil, shapeError(ProviderPlaces, "response has no results field")
	}
	if len(*resp.Results) == 0 {
		return nil, model.NewNotFoundError(ProviderPlaces, "no places near point")
	}

	out := make([]model.PlaceResult, 0, len(*resp.Results))
	for _, item := range *resp.Results {
		if item.PlaceID == "" {
			return nil, shapeError(ProviderPlaces, "place is missing placeId")
		}
		p := model.PlaceResult{
			ID:         item.PlaceID,
			Name:       item.Name,
			Categories: make([]model.Category, 0, len(item.Categories)),
		}
		for _, cat := range item.Categories {
			p.Categories = append(p.Categories, model.Category{Label: cat.Label})
		}
		out = append(out, p)
	}
	return out, nil
}
