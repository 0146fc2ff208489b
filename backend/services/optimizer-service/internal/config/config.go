package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "chargeroute/backend/libs/config"
)

// Profile store back ends.
const (
	ProfilesREST     = "rest"
	ProfilesPostgres = "postgres"
)

// Route engine back ends.
const (
	RoutingMapbox = "mapbox"
	RoutingGoogle = "google"
)

// Lookup cache back ends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// HTTPConfig holds the listener settings.
type HTTPConfig struct {
	Port string `yaml:"port" env:"OPTIMIZER_HTTP_PORT"`
}

// OpenChargeConfig selects the station provider query.
type OpenChargeConfig struct {
	BaseURL    string  `yaml:"baseUrl" env:"OPENCHARGEMAP_BASE_URL"`
	APIKey     string  `yaml:"apiKey" env:"OPENCHARGEMAP_API_KEY"`
	MaxResults int     `yaml:"maxResults" env:"OPENCHARGEMAP_MAX_RESULTS"`
	DistanceKm float64 `yaml:"distanceKm" env:"OPENCHARGEMAP_DISTANCE"`
}

// ProfilesConfig selects where user and vehicle records come from.
type ProfilesConfig struct {
	Backend         string `yaml:"backend" env:"PROFILES_BACKEND"`
	BaseURL         string `yaml:"baseUrl" env:"SUPABASE_BASE_URL"`
	APIKey          string `yaml:"apiKey" env:"SUPABASE_API_KEY"`
	AuthToken       string `yaml:"authToken" env:"SUPABASE_AUTH_TOKEN"`
	DSN             string `yaml:"dsn" env:"PROFILES_DB_DSN"`
	UsersTable      string `yaml:"usersTable" env:"PROFILES_USERS_TABLE"`
	UserIDColumn    string `yaml:"userIdColumn" env:"PROFILES_USER_ID_COLUMN"`
	VehiclesTable   string `yaml:"vehiclesTable" env:"PROFILES_VEHICLES_TABLE"`
	VehicleIDColumn string `yaml:"vehicleIdColumn" env:"PROFILES_VEHICLE_ID_COLUMN"`
}

// RoutingConfig selects the driving-route engine.
type RoutingConfig struct {
	Provider       string `yaml:"provider" env:"ROUTING_PROVIDER"`
	BaseURL        string `yaml:"baseUrl" env:"MAPBOX_BASE_URL"`
	AccessToken    string `yaml:"accessToken" env:"MAPBOX_ACCESS_TOKEN"`
	GoogleAPIKey   string `yaml:"googleApiKey" env:"GOOGLE_MAPS_API_KEY"`
	Language       string `yaml:"language" env:"ROUTING_LANGUAGE"`
	MaxConcurrency int    `yaml:"maxConcurrency" env:"ROUTING_MAX_CONCURRENCY"`
}

// CacheConfig selects the short-lived lookup cache.
type CacheConfig struct {
	Backend  string        `yaml:"backend" env:"CACHE_BACKEND"`
	Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB"`
	TTL      time.Duration `yaml:"ttl" env:"CACHE_TTL"`
}

// Config defines optimizer service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	OpenCharge OpenChargeConfig `yaml:"openCharge"`
	Profiles   ProfilesConfig   `yaml:"profiles"`
	Routing    RoutingConfig    `yaml:"routing"`
	Cache      CacheConfig      `yaml:"cache"`
	HTTPClient struct {
		Timeout time.Duration `yaml:"timeout" env:"OPTIMIZER_HTTP_TIMEOUT"`
	} `yaml:"httpClient"`
	Metrics struct {
		Enabled bool `yaml:"enabled" env:"OPTIMIZER_METRICS_ENABLED"`
	} `yaml:"metrics"`
}

// Defaults returns a configuration with every optional setting filled in.
func Defaults() *Config {
	cfg := &Config{
		HTTP: HTTPConfig{Port: "5000"},
		OpenCharge: OpenChargeConfig{
			BaseURL:    "https://api.openchargemap.io/v3",
			MaxResults: 30,
			DistanceKm: 100,
		},
		Profiles: ProfilesConfig{
			Backend:         ProfilesREST,
			UsersTable:      "users",
			UserIDColumn:    "id",
			VehiclesTable:   "veiculos_detalhes_completos",
			VehicleIDColumn: "veiculo_id",
		},
		Routing: RoutingConfig{
			Provider:       RoutingMapbox,
			BaseURL:        "https://api.mapbox.com",
			Language:       "pt",
			MaxConcurrency: 5,
		},
		Cache: CacheConfig{
			Backend: CacheMemory,
			TTL:     time.Minute,
		},
	}
	cfg.HTTPClient.Timeout = 10 * time.Second
	cfg.Metrics.Enabled = true
	return cfg
}

// Load configuration via shared helper.
func Load() (*Config, error) {
	cfg := Defaults()
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that each selected back end has the settings it needs.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.OpenCharge.APIKey) == "" {
		errs = append(errs, errors.New("config: openchargemap api key required"))
	}

	switch c.Profiles.Backend {
	case ProfilesREST:
		if strings.TrimSpace(c.Profiles.BaseURL) == "" {
			errs = append(errs, errors.New("config: profiles base url required"))
		}
		if strings.TrimSpace(c.Profiles.APIKey) == "" || strings.TrimSpace(c.Profiles.AuthToken) == "" {
			errs = append(errs, errors.New("config: profiles api key and auth token required"))
		}
	case ProfilesPostgres:
		if strings.TrimSpace(c.Profiles.DSN) == "" {
			errs = append(errs, errors.New("config: profiles dsn required"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown profiles backend %q", c.Profiles.Backend))
	}

	switch c.Routing.Provider {
	case RoutingMapbox:
		if strings.TrimSpace(c.Routing.AccessToken) == "" {
			errs = append(errs, errors.New("config: mapbox access token required"))
		}
	case RoutingGoogle:
		if strings.TrimSpace(c.Routing.GoogleAPIKey) == "" {
			errs = append(errs, errors.New("config: google maps api key required"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown routing provider %q", c.Routing.Provider))
	}

	switch c.Cache.Backend {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if strings.TrimSpace(c.Cache.Addr) == "" {
			errs = append(errs, errors.New("config: redis addr required"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown cache backend %q", c.Cache.Backend))
	}

	return errors.Join(errs...)
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "5000"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// HTTPTimeout returns the per-call upstream timeout.
func (c *Config) HTTPTimeout() time.Duration {
	if c.HTTPClient.Timeout <= 0 {
		return 10 * time.Second
	}
	return c.HTTPClient.Timeout
}

// CacheTTL returns the lookup cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	if c.Cache.TTL <= 0 {
		return time.Minute
	}
	return c.Cache.TTL
}

// RoutingConcurrency returns how many route calls may run at once.
func (c *Config) RoutingConcurrency() int {
	if c.Routing.MaxConcurrency <= 0 {
		return 5
	}
	return c.Routing.MaxConcurrency
}
