// Package store provides the SQLite-backed bookkeeping that makes
// harvesting idempotent and resumable.
//
// Three tables are maintained: processed_events (one row per event id,
// upserted on every processing attempt), matches (owned by their event
// and replaced wholesale when the event is reprocessed), and
// scraping_logs (an append-only audit trail of processing attempts).
// Every write runs in its own transaction so one event's failure can
// never roll back another's success.
package store
