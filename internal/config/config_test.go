package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/animal-images/internal/animal"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, StoreSQLite, cfg.Store.Driver)
	require.Equal(t, 50, cfg.Fetch.MaxBatch)
	require.InDelta(t, 5.0, cfg.Fetch.RateLimitRPS, 0.001)
	require.Equal(t, 10*time.Second, cfg.FetchTimeout())
	require.False(t, cfg.PubSub.Enabled())

	catalog, err := cfg.Catalog()
	require.NoError(t, err)
	duck, ok := catalog.Lookup(animal.CategoryDuck)
	require.True(t, ok)
	require.Equal(t, animal.SourceFixed, duck.Mode)
	dog, ok := catalog.Lookup(animal.CategoryDog)
	require.True(t, ok)
	require.Equal(t, "https://place.dog/210/250", dog.Resolve(210, 250))
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
logging:
  development: true
  level: debug
fetch:
  timeout_seconds: 3
  user_agent: test-agent
  max_batch: 5
sources:
  dog:
    url: http://dogs.internal/
  duck:
    url: http://ducks.internal/random
    mode: fixed
store:
  driver: postgres
db:
  dsn: postgres://localhost/animals
  table: images
  max_conn_lifetime_minutes: 5
pubsub:
  project_id: proj
  topic_name: animal-images
`
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.True(t, cfg.Logging.Development)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, 3*time.Second, cfg.FetchTimeout())
	require.Equal(t, "test-agent", cfg.Fetch.UserAgent)
	require.Equal(t, StorePostgres, cfg.Store.Driver)
	require.Equal(t, "images", cfg.DB.Table)
	require.Equal(t, 5*time.Minute, cfg.MaxConnLifetime())
	require.True(t, cfg.PubSub.Enabled())

	catalog, err := cfg.Catalog()
	require.NoError(t, err)
	dog, _ := catalog.Lookup(animal.CategoryDog)
	require.Equal(t, "http://dogs.internal/", dog.BaseURL)
	cat, _ := catalog.Lookup(animal.CategoryCat)
	require.Equal(t, "https://placecats.com/", cat.BaseURL, "unset categories keep their defaults")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ANIMALS_STORE_DRIVER", "memory")
	t.Setenv("ANIMALS_SOURCES_BEAR_URL", "http://bears.internal/")
	t.Setenv("ANIMALS_FETCH_MAX_BATCH", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, StoreMemory, cfg.Store.Driver)
	require.Equal(t, 7, cfg.Fetch.MaxBatch)
	require.Equal(t, "http://bears.internal/", cfg.Sources["bear"].URL)
}

func TestLoadHonorsPlatformPort(t *testing.T) {
	t.Setenv("PORT", "9191")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 9191, cfg.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config")
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base, err := Load("")
	require.NoError(t, err)

	cases := map[string]func(*Config){
		"server.port": func(c *Config) { c.Server.Port = 0 },
		"fetch.timeout_seconds": func(c *Config) {
			c.Fetch.TimeoutSeconds = 0
		},
		"fetch.max_body_bytes": func(c *Config) { c.Fetch.MaxBodyBytes = -1 },
		"fetch.max_batch":      func(c *Config) { c.Fetch.MaxBatch = -1 },
		"fetch.rate_limit_rps": func(c *Config) { c.Fetch.RateLimitRPS = -1 },
		"store.driver":         func(c *Config) { c.Store.Driver = "h2" },
		"store.sqlite_path":    func(c *Config) { c.Store.SQLitePath = "" },
		"db.dsn":               func(c *Config) { c.Store.Driver = StorePostgres },
		"pubsub.project_id":    func(c *Config) { c.PubSub.TopicName = "only-topic" },
		"unsupported animal type": func(c *Config) {
			c.Sources = cloneSources(c.Sources)
			c.Sources["unicorn"] = SourceConfig{URL: "https://example.com/"}
		},
		"no source configured for duck": func(c *Config) {
			c.Sources = cloneSources(c.Sources)
			delete(c.Sources, "duck")
		},
		"sources.cat.mode": func(c *Config) {
			c.Sources = cloneSources(c.Sources)
			c.Sources["cat"] = SourceConfig{URL: "https://placecats.com/", Mode: "sideways"}
		},
		"must be http or https": func(c *Config) {
			c.Sources = cloneSources(c.Sources)
			c.Sources["dog"] = SourceConfig{URL: "ftp://place.dog/"}
		},
	}
	for want, mutate := range cases {
		t.Run(want, func(t *testing.T) {
			t.Parallel()
			cfg := base
			mutate(&cfg)
			require.ErrorContains(t, cfg.Validate(), want)
		})
	}
}

func TestWriteTimeoutCoversWorstCaseBatch(t *testing.T) {
	t.Parallel()

	base, err := Load("")
	require.NoError(t, err)

	// 50 attempts x 10s is well past the 120s configured default.
	require.Equal(t, 50*10*time.Second+writeTimeoutSlack, base.WriteTimeout())

	small := base
	small.Fetch.MaxBatch = 2
	require.Equal(t, 120*time.Second, small.WriteTimeout())

	uncapped := base
	uncapped.Fetch.MaxBatch = 0
	require.NoError(t, uncapped.Validate())
	require.Zero(t, uncapped.WriteTimeout())

	disabled := base
	disabled.Server.WriteTimeoutSeconds = 0
	require.Zero(t, disabled.WriteTimeout())
}

func cloneSources(in map[string]SourceConfig) map[string]SourceConfig {
	out := make(map[string]SourceConfig, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
