package arcgis

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/sells-group/map-insights/internal/model"
)

type studyArea struct {
	Geometry struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"geometry"`
}

type enrichResponse struct {
	Results []struct {
		Value *struct {
			FeatureSet []struct {
				Features *[]enrichFeature `json:"features"`
			} `json:"FeatureSet"`
		} `json:"value"`
	} `json:"results"`
}

type enrichFeature struct {
	Attributes *struct {
		TotalPopulation  *float64 `json:"TOTPOP"`
		AvgHouseholdSize *float64 `json:"AVGHHSZ"`
		TotalMales       *float64 `json:"TOTMALES"`
		TotalFemales     *float64 `json:"TOTFEMALES"`
	} `json:"attributes"`
}

// Enrich implements Client.
func (c *httpClient) Enrich(ctx context.Context, point model.Coordinate) (*model.DemographicSnapshot, error) {
	area := studyArea{}
	area.Geometry.X = point.Longitude
	area.Geometry.Y = point.Latitude
	areas, err := json.Marshal([]studyArea{area})
	if err != nil {
		return nil, model.NewParseError(ProviderEnrich, eris.Wrap(err, "arcgis: encode study area"))
	}

	body, err := c.fetch(ctx, ProviderEnrich, c.enrichURL, url.Values{
		"studyAreas": {string(areas)},
	})
	if err != nil {
		return nil, err
	}

	var resp enrichResponse
	if err := decode(ProviderEnrich, body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 || resp.Results[0].Value == nil {
		return nil, shapeError(ProviderEnrich, "response has no results")
	}
	sets := resp.Results[0].Value.FeatureSet
	if len(sets) == 0 || sets[0].Features == nil {
		return nil, shapeError(ProviderEnrich, "response has no feature set")
	}
	features := *sets[0].Features
	if len(features) == 0 {
		return nil, model.NewNotFoundError(ProviderEnrich, "no demographic data for point")
	}

	a := features[0].Attributes
	if a == nil || a.TotalPopulation == nil || a.AvgHouseholdSize == nil || a.TotalMales == nil || a.TotalFemales == nil {
		return nil, shapeError(ProviderEnrich, "feature is missing demographic attributes")
	}

	return &model.DemographicSnapshot{
		TotalPopulation:  *a.TotalPopulation,
		AvgHouseholdSize: *a.AvgHouseholdSize,
		TotalMales:       *a.TotalMales,
		TotalFemales:     *a.TotalFemales,
	}, nil
}
