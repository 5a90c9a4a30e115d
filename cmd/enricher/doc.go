// Package main hosts the company enricher entrypoint.
//
// Architecture overview:
//   - Roster: companies are read once per run from Postgres (roster.provider=postgres), from the config
//     file (memory), or from the built-in demo list (static).
//   - Batches: the orchestrator slices the roster into batches of run.batch_size (13) starting at the
//     saved checkpoint. Each company in a batch gets its own worker goroutine that fetches the website
//     (Colly, or chromedp when fetch.mode=headless) and asks the model for a JSON profile.
//   - Persistence: after every worker in a batch returns, successes are normalized and inserted into the
//     summary table in roster order; then the checkpoint (file or GCS object) is advanced past the whole
//     batch, failures included.
//   - Pacing: a new batch starts at most once per run.rate_window (60s) to respect the model's
//     requests-per-minute ceiling.
//   - Notifications: when pubsub.topic_name is set, every stored row is announced as a company.enriched
//     message.
//
// Operational notes:
//   - The model API key comes from extractor.api_key, ENRICHER_EXTRACTOR_API_KEY, or GEMINI_API_KEY. A .env
//     file in the working directory is loaded first.
//   - Failed companies are skipped permanently once their batch is checkpointed. Set run.max_retries to retry
//     within the run.
//   - A summary insert failure aborts the run without advancing the checkpoint for that batch.
//   - SIGINT/SIGTERM stop the run; an interrupted batch is not checkpointed and is redone on the next start.
//   - server.port > 0 exposes /healthz, /readyz, /metrics, and /v1/progress for the duration of the run.
//
// Quick start:
//   - go run ./cmd/enricher -config config.yaml
//   - ENRICHER_ROSTER_PROVIDER=static ENRICHER_DB_DSN=postgres://... go run ./cmd/enricher
package main
