// Package api hosts the HTTP server, middleware, and REST handlers. Notable
// routes:
//   - POST /api/animals/fetch?type=&count= to fetch and store a batch.
//   - GET /api/animals/last?type= for the newest image's metadata.
//   - GET /api/animals/last/image?type= for the newest image's bytes.
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
package api
