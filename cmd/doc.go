// Package cmd defines the CLI commands for the animalimages executable.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes the fetch and latest-image routes plus health and metrics endpoints.
//     Query parameters are validated there and mapped onto internal/service.
//   - Fetch pipeline: internal/service runs each batch sequentially. Every attempt draws random dimensions, resolves
//     the category's provider URL, fetches it through the Colly-based fetcher under a per-attempt timeout, hashes
//     the payload and persists it. Failed attempts are logged and skipped.
//   - Persistence & fanout: images are written to the configured store (memory, SQLite or Postgres). When Pub/Sub is
//     configured, each stored image's metadata is published to the topic.
//   - Configuration & plumbing: Viper populates config from env/files; zap provides structured logging; Prometheus
//     metrics are exported via the metrics middleware and /metrics handler.
//
// Quick checklist:
//   - Configure env vars: ANIMALS_SERVER_PORT or PORT, ANIMALS_STORE_DRIVER, ANIMALS_STORE_SQLITE_PATH,
//     ANIMALS_DB_DSN, ANIMALS_SOURCES_<CATEGORY>_URL, ANIMALS_PUBSUB_PROJECT_ID and ANIMALS_PUBSUB_TOPIC_NAME.
//   - Run locally: go run . serve --config config.yaml (or rely solely on env overrides).
//   - One-off batch: go run . fetch --type dog --count 3.
package cmd
