package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/map-insights/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "map-insights",
	Short: "Explore a map with demographic and nearby-place insights",
	Long: `map-insights drives map exploration sessions: pick a basemap style, search
for a place, then tap the map for a demographic snapshot of the area or for
details on the nearest point of interest. Lookups go to ArcGIS location
services using the token from MAPINSIGHTS_ARCGIS_TOKEN (or a .env file).

Run "map-insights serve" for the session API, or use the lookup commands
to query a single location from the shell.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "override log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "override log.format (json, console)")
}

// setup loads .env and config, applies log flag overrides and installs the
// global logger before any subcommand runs.
func setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return eris.Wrap(err, "load .env")
	}

	c, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "load config")
	}
	if v, _ := cmd.Root().PersistentFlags().GetString("log-level"); v != "" {
		c.Log.Level = v
	}
	if v, _ := cmd.Root().PersistentFlags().GetString("log-format"); v != "" {
		c.Log.Format = v
	}
	cfg = c

	if err := config.InitLogger(cfg.Log); err != nil {
		return eris.Wrap(err, "init logger")
	}
	zap.L().Debug("config loaded",
		zap.String("command", cmd.Name()),
		zap.String("geocode_url", cfg.ArcGIS.GeocodeURL),
		zap.Bool("arcgis_token_set", cfg.ArcGIS.Token != ""),
	)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
