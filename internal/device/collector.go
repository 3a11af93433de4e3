package device

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/attsync/internal/record"
)

// Config holds the collector's retry settings.
type Config struct {
	// Retries is the number of fetch passes before giving up on an empty
	// or unreachable terminal. Minimum 1.
	Retries int

	// ReconnectDelay is the pause between fetch passes.
	ReconnectDelay time.Duration
}

// Collector reads attendance events from a terminal with bounded retries.
// Terminals at remote sites drop off the network routinely, so every
// failure here is survivable: the collector reports what it got and the
// rest of the run continues.
type Collector struct {
	transport Transport
	retries   int
	delay     time.Duration
	log       *slog.Logger
}

// NewCollector wraps a transport with retry behavior.
func NewCollector(t Transport, cfg Config, log *slog.Logger) *Collector {
	if cfg.Retries < 1 {
		cfg.Retries = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Collector{
		transport: t,
		retries:   cfg.Retries,
		delay:     cfg.ReconnectDelay,
		log:       log,
	}
}

// Fetch reads the terminal's buffered events, retrying with a fixed delay
// when a pass yields nothing. An unreachable terminal is not an error:
// Fetch returns the empty result and the caller proceeds with whatever is
// already persisted.
func (c *Collector) Fetch(ctx context.Context) ([]record.Raw, error) {
	for attempt := 1; ; attempt++ {
		raws := c.fetchOnce(ctx, attempt)
		if len(raws) > 0 {
			return raws, nil
		}
		if attempt >= c.retries {
			return nil, nil
		}

		c.log.Debug("terminal returned no events, retrying",
			"attempt", attempt, "retries", c.retries, "delay", c.delay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.delay):
		}
	}
}

// fetchOnce runs a single connect/read/disconnect pass.
func (c *Collector) fetchOnce(ctx context.Context, attempt int) []record.Raw {
	if err := c.transport.Connect(ctx); err != nil {
		c.log.Warn("terminal unreachable", "attempt", attempt, "error", err)
		return nil
	}
	defer c.transport.Disconnect()

	if err := c.transport.DisableDevice(ctx); err != nil {
		c.log.Debug("disable command not honored", "error", err)
	}
	defer func() {
		if err := c.transport.EnableDevice(ctx); err != nil {
			c.log.Debug("enable command not honored", "error", err)
		}
	}()

	raws, err := c.transport.Attendance(ctx)
	if err != nil {
		c.log.Warn("attendance read failed", "attempt", attempt, "error", err)
		return nil
	}
	return raws
}

// Clear drains the terminal's event buffer. Callers invoke this only after
// the events are safely persisted and delivered.
func (c *Collector) Clear(ctx context.Context) error {
	if err := c.transport.Connect(ctx); err != nil {
		return err
	}
	defer c.transport.Disconnect()

	return c.transport.ClearAttendance(ctx)
}
