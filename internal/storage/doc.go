// Package storage persists event records keyed by (nome, data).
//
// Two adapters implement Store: a JSON file store for local runs
// (events.json under the data directory, default ~/.local/share/rota-da-festa)
// and a Postgres store backed by the eventos table. Postgres schema changes are
// embedded SQL migrations applied with Migrate.
package storage
