package device

import (
	"context"

	"github.com/roach88/attsync/internal/record"
)

// Transport is a session with one attendance terminal. Implementations are
// not safe for concurrent use; the collector drives them sequentially.
type Transport interface {
	// Connect establishes the session. It must be called before any other
	// method and may be called again after Disconnect.
	Connect(ctx context.Context) error

	// Attendance reads every attendance event currently buffered on the
	// terminal. The terminal keeps its buffer; reading does not drain it.
	Attendance(ctx context.Context) ([]record.Raw, error)

	// ClearAttendance drains the terminal's event buffer.
	ClearAttendance(ctx context.Context) error

	// DisableDevice pauses the terminal's user interface so a read sees a
	// stable buffer. Best effort; terminals without the command return an
	// error the caller may ignore.
	DisableDevice(ctx context.Context) error

	// EnableDevice resumes the terminal's user interface.
	EnableDevice(ctx context.Context) error

	// Disconnect tears the session down.
	Disconnect() error
}
