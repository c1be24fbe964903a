// Package ledger records chant entries.
//
// Entries are append-only: Append is the single mutation, and nothing updates
// or deletes a row once written. Every occurred_on is a calendar.Date in UTC.
// Summaries are plain read aggregations over the same rows.
package ledger
