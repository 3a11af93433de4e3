// Package store provides the durable attendance log backed by SQLite.
//
// The log is both system of record and work queue: rows whose server_id is
// NULL are the pending delivery set, recomputed from durable state on every
// run, so a crash between ingestion and delivery loses nothing. The
// uniqueness constraint on (uid, ts) makes ingestion idempotent - repeated
// device exports of the same event collapse into one row via
// ON CONFLICT DO NOTHING - and MarkDelivered's NULL guard makes the
// unsent-to-sent transition a one-shot, replay-safe point update.
package store
