// Package cli implements the rota-scraper command line.
//
// The root command wires configuration, logging and the event store, and
// exposes run (the full crawl, reconcile, upsert and purge pipeline), purge,
// export (text, JSON or iCalendar) and migrate (Postgres schema).
package cli
