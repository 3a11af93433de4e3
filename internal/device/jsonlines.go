package device

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/roach88/attsync/internal/record"
)

// Command words understood by terminal bridge daemons. Each request is one
// word on its own line; ATTENDANCE answers with JSON lines ended by a blank
// line, the rest answer with a single OK line.
const (
	cmdAttendance = "ATTENDANCE"
	cmdClear      = "CLEAR"
	cmdDisable    = "DISABLE"
	cmdEnable     = "ENABLE"
)

// JSONLines speaks the line-oriented TCP protocol exposed by terminal
// bridge daemons sitting in front of the attendance hardware.
type JSONLines struct {
	addr    string
	timeout time.Duration

	conn net.Conn
	r    *bufio.Reader
}

// NewJSONLines creates a transport for the bridge at host:port.
func NewJSONLines(host string, port int, timeout time.Duration) *JSONLines {
	return &JSONLines{
		addr:    net.JoinHostPort(host, fmt.Sprintf("%d", port)),
		timeout: timeout,
	}
}

// Connect dials the bridge.
func (j *JSONLines) Connect(ctx context.Context) error {
	d := net.Dialer{Timeout: j.timeout}
	conn, err := d.DialContext(ctx, "tcp", j.addr)
	if err != nil {
		return fmt.Errorf("dial terminal %s: %w", j.addr, err)
	}
	j.conn = conn
	j.r = bufio.NewReader(conn)
	return nil
}

// Disconnect closes the session.
func (j *JSONLines) Disconnect() error {
	if j.conn == nil {
		return nil
	}
	err := j.conn.Close()
	j.conn = nil
	j.r = nil
	return err
}

// Attendance requests the buffered events and decodes each response line.
// Lines that fail to decode are skipped; a terminal with a partially
// corrupted buffer still yields its readable events.
func (j *JSONLines) Attendance(ctx context.Context) ([]record.Raw, error) {
	if err := j.send(ctx, cmdAttendance); err != nil {
		return nil, err
	}

	var raws []record.Raw
	for {
		line, err := j.r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read terminal response: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return raws, nil
		}
		raw, err := record.DecodeRaw([]byte(line))
		if err != nil {
			continue
		}
		raws = append(raws, raw)
	}
}

// ClearAttendance drains the terminal buffer.
func (j *JSONLines) ClearAttendance(ctx context.Context) error {
	return j.ack(ctx, cmdClear)
}

// DisableDevice pauses the terminal UI.
func (j *JSONLines) DisableDevice(ctx context.Context) error {
	return j.ack(ctx, cmdDisable)
}

// EnableDevice resumes the terminal UI.
func (j *JSONLines) EnableDevice(ctx context.Context) error {
	return j.ack(ctx, cmdEnable)
}

// send writes one command line under the session deadline.
func (j *JSONLines) send(ctx context.Context, cmd string) error {
	if j.conn == nil {
		return fmt.Errorf("terminal session not connected")
	}

	deadline := time.Now().Add(j.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := j.conn.SetDeadline(deadline); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(j.conn, "%s\n", cmd); err != nil {
		return fmt.Errorf("send %s: %w", cmd, err)
	}
	return nil
}

// ack sends a command and requires a single OK response line.
func (j *JSONLines) ack(ctx context.Context, cmd string) error {
	if err := j.send(ctx, cmd); err != nil {
		return err
	}

	line, err := j.r.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read %s response: %w", cmd, err)
	}
	if got := strings.TrimSpace(line); got != "OK" {
		return fmt.Errorf("%s refused by terminal: %q", cmd, got)
	}
	return nil
}
