// Package remote delivers attendance records to the central HTTP service.
//
// Delivery is at-least-once: a record may be submitted again after a crash
// or an ambiguous response, and the remote deduplicates by (user_id, time).
// The client folds duplicate responses into successes so the local store can
// converge to the sent state.
package remote
