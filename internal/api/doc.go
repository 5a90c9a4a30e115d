// Package api hosts the status HTTP server that runs alongside an enrichment run.
// Routes:
//   - GET /healthz for liveness.
//   - GET /readyz reports the orchestrator's progress; 503 once a run has failed.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/progress returns the same progress snapshot without the probe semantics.
package api
