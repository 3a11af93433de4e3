// Package pipeline orchestrates one run of the attendance agent: read from
// the terminal, persist locally, deliver upstream, report.
//
// The local database is the only queue. A record is work as long as its
// server id is unset, so a crash at any point re-derives the remaining work
// from what is already persisted.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/attsync/internal/record"
	"github.com/roach88/attsync/internal/store"
)

// Source produces raw attendance events, normally a device collector.
type Source interface {
	Fetch(ctx context.Context) ([]record.Raw, error)
	Clear(ctx context.Context) error
}

// Deliverer submits one record upstream and returns the server id.
type Deliverer interface {
	Deliver(ctx context.Context, uid, timestamp string) (string, error)
}

// Config holds the run loop settings.
type Config struct {
	// BatchLimit caps how many pending records one run delivers.
	BatchLimit int

	// RecordDelay is the pause between successive deliveries, throttling
	// runs against rate-limited endpoints.
	RecordDelay time.Duration

	// ClearDeviceLog drains the terminal buffer after a run that delivered
	// at least one record.
	ClearDeviceLog bool
}

// Runner executes pull and send passes against one store.
type Runner struct {
	store     *store.Store
	source    Source
	deliverer Deliverer
	cfg       Config
	loc       *time.Location
	log       *slog.Logger

	sleep    func(time.Duration)
	newRunID func() string
}

// New creates a runner. source and deliverer may each be nil when the
// corresponding pass is never invoked.
func New(st *store.Store, src Source, del Deliverer, cfg Config, loc *time.Location, log *slog.Logger) *Runner {
	if cfg.BatchLimit < 1 {
		cfg.BatchLimit = 500
	}
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		store:     st,
		source:    src,
		deliverer: del,
		cfg:       cfg,
		loc:       loc,
		log:       log,
		sleep:     time.Sleep,
		newRunID: func() string {
			return uuid.Must(uuid.NewV7()).String()
		},
	}
}

// Pull fetches from the terminal and persists what is new.
func (r *Runner) Pull(ctx context.Context) (Report, error) {
	runID := r.newRunID()
	log := r.log.With("run_id", runID)

	inserted, err := r.ingest(ctx, log)
	if err != nil {
		return Report{RunID: runID}, err
	}
	return r.report(ctx, runID, inserted, 0)
}

// Send delivers pending records without touching the terminal.
func (r *Runner) Send(ctx context.Context) (Report, error) {
	runID := r.newRunID()
	log := r.log.With("run_id", runID)

	sent, err := r.deliverPending(ctx, log)
	if err != nil {
		return Report{RunID: runID}, err
	}
	return r.report(ctx, runID, 0, sent)
}

// Run is the full pass: fetch, persist, deliver, optionally clear.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	runID := r.newRunID()
	log := r.log.With("run_id", runID)

	inserted, err := r.ingest(ctx, log)
	if err != nil {
		return Report{RunID: runID}, err
	}

	sent, err := r.deliverPending(ctx, log)
	if err != nil {
		return Report{RunID: runID}, err
	}

	// The terminal buffer is only dropped once its contents provably made
	// it upstream during this run.
	if r.cfg.ClearDeviceLog && sent > 0 {
		if err := r.source.Clear(ctx); err != nil {
			log.Warn("device log not cleared", "error", err)
		} else {
			log.Info("device log cleared")
		}
	}

	return r.report(ctx, runID, inserted, sent)
}

// ingest runs the fetch and persist half of a pass.
func (r *Runner) ingest(ctx context.Context, log *slog.Logger) (int, error) {
	raws, err := r.source.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	log.Info("fetched from terminal", "events", len(raws))

	recs := make([]record.Record, 0, len(raws))
	rejected := 0
	for _, raw := range raws {
		rec, ok := record.Normalize(raw, r.loc)
		if !ok {
			rejected++
			log.Debug("event rejected", "raw", raw)
			continue
		}
		recs = append(recs, rec)
	}
	if rejected > 0 {
		log.Warn("events rejected during normalization", "rejected", rejected)
	}

	inserted, err := r.store.InsertBatch(ctx, recs)
	if err != nil {
		return 0, err
	}
	log.Info("persisted", "inserted", inserted, "duplicates", len(recs)-inserted)
	return inserted, nil
}

// deliverPending walks the unsent backlog oldest-first. A failed record is
// logged and skipped; it stays pending for the next run.
func (r *Runner) deliverPending(ctx context.Context, log *slog.Logger) (int, error) {
	pending, err := r.store.ListUnsent(ctx, r.cfg.BatchLimit)
	if err != nil {
		return 0, err
	}
	log.Info("delivering backlog", "pending", len(pending))

	sent := 0
	for i, rec := range pending {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if i > 0 && r.cfg.RecordDelay > 0 {
			r.sleep(r.cfg.RecordDelay)
		}

		serverID, err := r.deliverer.Deliver(ctx, rec.UID, rec.Timestamp)
		if err != nil {
			log.Warn("delivery failed",
				"id", rec.ID, "uid", rec.UID, "ts", rec.Timestamp, "error", err)
			continue
		}

		if err := r.store.MarkDelivered(ctx, rec.ID, serverID); err != nil {
			return sent, err
		}
		sent++
		log.Debug("delivered", "id", rec.ID, "server_id", serverID)
	}

	log.Info("delivery pass done", "sent", sent, "failed", len(pending)-sent)
	return sent, nil
}

// report assembles the run summary from current store counts.
func (r *Runner) report(ctx context.Context, runID string, inserted, sent int) (Report, error) {
	total, err := r.store.Count(ctx)
	if err != nil {
		return Report{RunID: runID}, err
	}
	unsent, err := r.store.CountUnsent(ctx)
	if err != nil {
		return Report{RunID: runID}, err
	}
	return Report{
		RunID:    runID,
		Inserted: inserted,
		Sent:     sent,
		Pending:  int(unsent),
		Total:    int(total),
	}, nil
}
