package record

// Layout is the canonical timestamp rendering for stored records.
// Parseable device times are normalized to this layout in the configured
// local timezone; unparseable times are stored verbatim.
const Layout = "2006-01-02 15:04:05"

// Record is one attendance event as persisted in the durable log.
//
// The pair (UID, Timestamp) is the sole deduplication key. ServerID is nil
// until the remote service acknowledges the record; it transitions to a
// value exactly once and is never cleared.
type Record struct {
	// ID is the surrogate key assigned by the store. Zero before insert.
	ID int64

	// UID is the device user identifier. Required; part of the dedup key.
	UID string

	// EmployeeID is the employee identifier. Empty when the terminal
	// doesn't report one.
	EmployeeID string

	// Status is the check-in/out code. Nil when absent or unparseable.
	Status *int64

	// Timestamp is the canonical event time (Layout, local timezone), or
	// the original raw string when it could not be parsed. Required; part
	// of the dedup key.
	Timestamp string

	// ServerID is the identifier assigned by the remote service on
	// acknowledgement. Nil denotes "unsent".
	ServerID *string

	// RawPayload is the original raw record serialized verbatim, retained
	// for forensic replay.
	RawPayload string

	// Audit timestamps, maintained by the store.
	CreatedAt string
	UpdatedAt string
	SentAt    *string
}

// Sent reports whether the record has been acknowledged by the remote
// service.
func (r Record) Sent() bool {
	return r.ServerID != nil
}
