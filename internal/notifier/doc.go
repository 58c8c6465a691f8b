// Package notifier announces postponed fixtures.
//
// A Notifier receives the changes found by reconciliation. The dry-run
// notifier prints the rendered messages; the Telegram notifier posts them as
// HTML messages through the Bot API, paced by a rate limiter, and collapses
// large batches into a single digest.
package notifier
