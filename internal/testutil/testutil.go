// Package testutil provides scripted doubles for pipeline and command
// tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/attsync/internal/record"
)

// StubSource yields scripted event batches, one per Fetch call. When the
// script runs out it keeps returning the last batch, which models a
// terminal whose buffer is never drained.
type StubSource struct {
	mu       sync.Mutex
	Batches  [][]record.Raw
	FetchErr error
	ClearErr error

	Fetches int
	Clears  int
}

func (s *StubSource) Fetch(ctx context.Context) ([]record.Raw, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Fetches++
	if s.FetchErr != nil {
		return nil, s.FetchErr
	}
	if len(s.Batches) == 0 {
		return nil, nil
	}
	batch := s.Batches[0]
	if len(s.Batches) > 1 {
		s.Batches = s.Batches[1:]
	}
	return batch, nil
}

func (s *StubSource) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Clears++
	return s.ClearErr
}

// StubDeliverer acknowledges every record with a generated server id,
// except uids listed in Fail.
type StubDeliverer struct {
	mu   sync.Mutex
	Fail map[string]error

	Delivered []string
	next      int
}

func (d *StubDeliverer) Deliver(ctx context.Context, uid, timestamp string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err, ok := d.Fail[uid]; ok {
		return "", err
	}
	d.next++
	d.Delivered = append(d.Delivered, uid)
	return fmt.Sprintf("S%03d", d.next), nil
}

// TupleEvent builds a positional event the way terminal firmware emits
// them: uid, employee id, status code, timestamp.
func TupleEvent(uid, empID string, status int, ts string) record.Raw {
	return record.Tuple{uid, empID, float64(status), ts}
}

// MapEvent builds a named-field event.
func MapEvent(uid, ts string) record.Raw {
	return record.Map{"uid": uid, "timestamp": ts}
}
