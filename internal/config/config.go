package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g.
// MAPINSIGHTS_ARCGIS_TOKEN for arcgis.token.
const EnvPrefix = "MAPINSIGHTS"

// Config holds the full application configuration.
type Config struct {
	ArcGIS     ArcGISConfig     `yaml:"arcgis" mapstructure:"arcgis"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Map        MapConfig        `yaml:"map" mapstructure:"map"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ArcGISConfig holds ArcGIS location services settings.
type ArcGISConfig struct {
	Token        string  `yaml:"token" mapstructure:"token"`
	GeocodeURL   string  `yaml:"geocode_url" mapstructure:"geocode_url"`
	EnrichURL    string  `yaml:"enrich_url" mapstructure:"enrich_url"`
	PlacesURL    string  `yaml:"places_url" mapstructure:"places_url"`
	PlacesRadius float64 `yaml:"places_radius" mapstructure:"places_radius"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit    float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// Timeout returns the per-request timeout.
func (c ArcGISConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// ResilienceConfig configures the per-provider circuit breakers.
type ResilienceConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// CacheConfig configures in-process response caching. A zero TTL disables
// the cache.
type CacheConfig struct {
	GeocodeTTLSecs int `yaml:"geocode_ttl_secs" mapstructure:"geocode_ttl_secs"`
}

// GeocodeTTL returns the geocode cache TTL.
func (c CacheConfig) GeocodeTTL() time.Duration {
	return time.Duration(c.GeocodeTTLSecs) * time.Second
}

// FetchConfig configures lookup supersession.
type FetchConfig struct {
	CancelSuperseded bool `yaml:"cancel_superseded" mapstructure:"cancel_superseded"`
}

// MapConfig holds the initial camera and the basemap style documents.
type MapConfig struct {
	DefaultCenterLon float64           `yaml:"default_center_lon" mapstructure:"default_center_lon"`
	DefaultCenterLat float64           `yaml:"default_center_lat" mapstructure:"default_center_lat"`
	Styles           map[string]string `yaml:"styles" mapstructure:"styles"`
}

// ServerConfig configures the session API server.
type ServerConfig struct {
	Port              int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins    []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	SessionIdleSecs   int      `yaml:"session_idle_secs" mapstructure:"session_idle_secs"`
	SweepIntervalSecs int      `yaml:"sweep_interval_secs" mapstructure:"sweep_interval_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// LoadDotEnv loads variables from a .env file in the working directory, if
// one exists. Variables already set in the environment win.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return eris.Wrap(err, "config: load .env")
	}
	return nil
}

// Load reads configuration from config.yaml (optional) and MAPINSIGHTS_*
// environment variables.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("arcgis.token", "")
	v.SetDefault("arcgis.geocode_url", "https://geocode-api.arcgis.com/arcgis/rest/services/World/GeocodeServer/findAddressCandidates")
	v.SetDefault("arcgis.enrich_url", "https://geoenrich.arcgis.com/arcgis/rest/services/World/geoenrichmentserver/GeoEnrichment/enrich")
	v.SetDefault("arcgis.places_url", "https://places-api.arcgis.com/arcgis/rest/services/places-service/v1/places/near-point")
	v.SetDefault("arcgis.places_radius", 7.0)
	v.SetDefault("arcgis.timeout_secs", 10)
	v.SetDefault("arcgis.rate_limit", 10.0)
	v.SetDefault("resilience.failure_threshold", 5)
	v.SetDefault("resilience.reset_timeout_secs", 30)
	v.SetDefault("cache.geocode_ttl_secs", 0)
	v.SetDefault("fetch.cancel_superseded", false)
	v.SetDefault("map.default_center_lon", -116.546459)
	v.SetDefault("map.default_center_lat", 33.821037)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.session_idle_secs", 1800)
	v.SetDefault("server.sweep_interval_secs", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the settings required by mode are present. Modes are
// "serve" and "lookup".
func (c *Config) Validate(mode string) error {
	var problems []string
	req := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	switch mode {
	case "serve":
		req(c.Server.Port > 0 && c.Server.Port <= 65535, fmt.Sprintf("server.port %d out of range", c.Server.Port))
		req(c.Server.SessionIdleSecs > 0, "server.session_idle_secs must be positive")
		req(c.Server.SweepIntervalSecs > 0, "server.sweep_interval_secs must be positive")
	case "lookup":
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}

	req(c.ArcGIS.Token != "", "arcgis.token is required")
	req(c.ArcGIS.PlacesRadius > 0, "arcgis.places_radius must be positive")
	req(c.ArcGIS.TimeoutSecs > 0, "arcgis.timeout_secs must be positive")
	req(c.ArcGIS.RateLimit > 0, "arcgis.rate_limit must be positive")
	req(c.Resilience.FailureThreshold > 0, "resilience.failure_threshold must be positive")
	req(c.Resilience.ResetTimeoutSecs > 0, "resilience.reset_timeout_secs must be positive")
	req(c.Cache.GeocodeTTLSecs >= 0, "cache.geocode_ttl_secs must not be negative")

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

const redacted = "<redacted>"

// Redacted returns a copy of the config with secrets masked.
func (c Config) Redacted() Config {
	out := c
	if out.ArcGIS.Token != "" {
		out.ArcGIS.Token = redacted
	}
	if c.Map.Styles != nil {
		out.Map.Styles = make(map[string]string, len(c.Map.Styles))
		for k, v := range c.Map.Styles {
			out.Map.Styles[k] = v
		}
	}
	return out
}

// YAML renders the redacted config.
func (c Config) YAML() ([]byte, error) {
	b, err := yaml.Marshal(c.Redacted())
	if err != nil {
		return nil, eris.Wrap(err, "config: marshal yaml")
	}
	return b, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
