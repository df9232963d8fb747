package main

import (
	"context"
	"encoding/json"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/map-insights/internal/geometry"
	"github.com/sells-group/map-insights/internal/model"
	"github.com/sells-group/map-insights/pkg/arcgis"
)

var (
	lookupLon    float64
	lookupLat    float64
	lookupRadius float64
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode <query>",
	Short: "Geocode a free-text place name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("lookup"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runGeocode(ctx, newArcGISClient(cfg, newBreakers(cfg)), strings.Join(args, " "), cmd.OutOrStdout())
	},
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fetch the demographic snapshot for a point",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("lookup"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		point := model.Coordinate{Longitude: lookupLon, Latitude: lookupLat}
		return runEnrich(ctx, newArcGISClient(cfg, newBreakers(cfg)), point, cmd.OutOrStdout())
	},
}

var placesCmd = &cobra.Command{
	Use:   "places",
	Short: "List places near a point",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("lookup"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		radius := lookupRadius
		if radius <= 0 {
			radius = cfg.ArcGIS.PlacesRadius
		}
		point := model.Coordinate{Longitude: lookupLon, Latitude: lookupLat}
		return runPlaces(ctx, newArcGISClient(cfg, newBreakers(cfg)), point, radius, cmd.OutOrStdout())
	},
}

var radiusCmd = &cobra.Command{
	Use:   "radius <zoom>",
	Short: "Print the demographic overlay radius in pixels for a zoom level",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		zoom, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return eris.Wrapf(err, "radius: parse zoom %q", args[0])
		}
		return printJSON(cmd.OutOrStdout(), map[string]float64{
			"zoom":          zoom,
			"radius_pixels": geometry.RadiusPixels(zoom),
		})
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration with secrets redacted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		b, err := cfg.YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

func runGeocode(ctx context.Context, client arcgis.Client, query string, w io.Writer) error {
	coord, err := client.Geocode(ctx, query)
	if err != nil {
		return err
	}
	return printJSON(w, struct {
		Query    string           `json:"query"`
		Location model.Coordinate `json:"location"`
	}{Query: arcgis.NormalizeQuery(query), Location: coord})
}

func runEnrich(ctx context.Context, client arcgis.Client, point model.Coordinate, w io.Writer) error {
	snap, err := client.Enrich(ctx, point)
	if err != nil {
		return err
	}
	return printJSON(w, struct {
		Point        model.Coordinate           `json:"point"`
		Demographics *model.DemographicSnapshot `json:"demographics"`
	}{Point: point, Demographics: snap})
}

func runPlaces(ctx context.Context, client arcgis.Client, point model.Coordinate, radius float64, w io.Writer) error {
	places, err := client.PlacesNear(ctx, point, radius)
	if err != nil {
		return err
	}
	return printJSON(w, struct {
		Point  model.Coordinate    `json:"point"`
		Radius float64             `json:"radius"`
		Places []model.PlaceResult `json:"places"`
	}{Point: point, Radius: radius, Places: places})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "encode output")
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{enrichCmd, placesCmd} {
		c.Flags().Float64Var(&lookupLon, "lon", 0, "longitude (WGS84)")
		c.Flags().Float64Var(&lookupLat, "lat", 0, "latitude (WGS84)")
		_ = c.MarkFlagRequired("lon")
		_ = c.MarkFlagRequired("lat")
	}
	placesCmd.Flags().Float64Var(&lookupRadius, "radius", 0, "search radius (default from config)")

	rootCmd.AddCommand(geocodeCmd, enrichCmd, placesCmd, radiusCmd, configCmd)
}
