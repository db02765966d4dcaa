// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/animal-images/internal/animal"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig            `mapstructure:"server"`
	Logging LoggingConfig           `mapstructure:"logging"`
	Fetch   FetchConfig             `mapstructure:"fetch"`
	Sources map[string]SourceConfig `mapstructure:"sources"`
	Store   StoreConfig             `mapstructure:"store"`
	DB      DBConfig                `mapstructure:"db"`
	PubSub  PubSubConfig            `mapstructure:"pubsub"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                int `mapstructure:"port"`
	ReadTimeoutSeconds  int `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int `mapstructure:"write_timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// FetchConfig governs outbound image requests.
type FetchConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
	MaxBodyBytes   int    `mapstructure:"max_body_bytes"`
	MaxBatch       int    `mapstructure:"max_batch"`
	// RateLimitRPS caps requests per provider host. Zero disables limiting.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// SourceConfig is the provider for one category.
type SourceConfig struct {
	URL  string `mapstructure:"url"`
	Mode string `mapstructure:"mode"`
}

// StoreConfig selects the record store.
type StoreConfig struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// DBConfig controls access to Postgres when store.driver is postgres.
type DBConfig struct {
	DSN                    string `mapstructure:"dsn"`
	Table                  string `mapstructure:"table"`
	MaxConns               int32  `mapstructure:"max_conns"`
	MinConns               int32  `mapstructure:"min_conns"`
	MaxConnLifetimeMinutes int    `mapstructure:"max_conn_lifetime_minutes"`
}

// PubSubConfig holds metadata for stored-image notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// Enabled reports whether Pub/Sub publishing is configured.
func (p PubSubConfig) Enabled() bool {
	return p.ProjectID != "" && p.TopicName != ""
}

// Load builds a Config from disk/environment. Environment variables use the
// ANIMALS_ prefix with dots replaced by underscores, e.g. ANIMALS_STORE_DRIVER.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ANIMALS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Cloud Run and similar platforms inject PORT.
	if err := v.BindEnv("server.port", "ANIMALS_SERVER_PORT", "PORT"); err != nil {
		return Config{}, fmt.Errorf("bind port env: %w", err)
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 120)
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("fetch.timeout_seconds", 10)
	v.SetDefault("fetch.user_agent", "animal-images/1.0")
	v.SetDefault("fetch.max_body_bytes", 10<<20)
	v.SetDefault("fetch.max_batch", 50)
	v.SetDefault("fetch.rate_limit_rps", 5.0)
	v.SetDefault("fetch.rate_limit_burst", 5)
	for cat, src := range animal.DefaultSources() {
		v.SetDefault("sources."+cat.String()+".url", src.BaseURL)
		v.SetDefault("sources."+cat.String()+".mode", string(src.Mode))
	}
	v.SetDefault("store.driver", StoreSQLite)
	v.SetDefault("store.sqlite_path", "animal-images.db")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.table", "animal_images")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 0)
	v.SetDefault("db.max_conn_lifetime_minutes", 30)
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
}

// Validate ensures config values are coherent.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetch.max_body_bytes must be > 0")
	}
	if c.Fetch.MaxBatch < 0 {
		return fmt.Errorf("fetch.max_batch must be >= 0 (0 disables the cap)")
	}
	if c.Server.WriteTimeoutSeconds < 0 {
		return fmt.Errorf("server.write_timeout_seconds must be >= 0")
	}
	if c.Fetch.RateLimitRPS < 0 {
		return fmt.Errorf("fetch.rate_limit_rps must be >= 0")
	}
	if _, err := c.Catalog(); err != nil {
		return err
	}
	switch c.Store.Driver {
	case StoreMemory:
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite driver")
		}
	case StorePostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("store.driver %q must be one of memory, sqlite, postgres", c.Store.Driver)
	}
	if (c.PubSub.ProjectID == "") != (c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set together")
	}
	return nil
}

// Catalog resolves the configured sources into a validated animal.Catalog.
func (c Config) Catalog() (animal.Catalog, error) {
	sources := make(map[animal.Category]animal.Source, len(c.Sources))
	for name, sc := range c.Sources {
		cat, err := animal.ParseCategory(name)
		if err != nil {
			return animal.Catalog{}, fmt.Errorf("sources: %w", err)
		}
		mode, err := animal.ParseSourceMode(sc.Mode)
		if err != nil {
			return animal.Catalog{}, fmt.Errorf("sources.%s.mode: %w", name, err)
		}
		sources[cat] = animal.Source{BaseURL: sc.URL, Mode: mode}
	}
	catalog, err := animal.NewCatalog(sources)
	if err != nil {
		return animal.Catalog{}, fmt.Errorf("sources: %w", err)
	}
	return catalog, nil
}

// writeTimeoutSlack covers store writes and response encoding after the last attempt.
const writeTimeoutSlack = 30 * time.Second

// FetchTimeout returns the per-attempt fetch timeout.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// WriteTimeout returns the HTTP write timeout. It is widened to cover the
// slowest possible fetch batch, max_batch attempts each hitting the fetch
// timeout, so a full batch can still deliver its response. Zero means no
// timeout, which is also what an uncapped batch size gets.
func (c Config) WriteTimeout() time.Duration {
	if c.Fetch.MaxBatch == 0 || c.Server.WriteTimeoutSeconds == 0 {
		return 0
	}
	configured := time.Duration(c.Server.WriteTimeoutSeconds) * time.Second
	worstBatch := time.Duration(c.Fetch.MaxBatch)*c.FetchTimeout() + writeTimeoutSlack
	return max(configured, worstBatch)
}

// MaxConnLifetime returns the Postgres connection lifetime.
func (c Config) MaxConnLifetime() time.Duration {
	return time.Duration(c.DB.MaxConnLifetimeMinutes) * time.Minute
}
