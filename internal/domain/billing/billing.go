// Package billing assigns the human-readable bill identifiers handed out
// when a stock order is confirmed. Identifiers look like VKM-20231010-001:
// a fixed prefix, the confirmation day in the store's time zone, and a
// 1-based counter that is gapless within that day and resets the next day.
package billing

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DayKey formats t in loc as the YYYYMMDD day bucket used to scope the
// sequence counter.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("20060102")
}

// Format renders a bill identifier from its parts. The sequence is
// zero-padded to three digits; days with more than 999 confirmations keep
// counting without truncation.
func Format(prefix, dayKey string, seq int64) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, dayKey, seq)
}

// Sequencer hands out the next sequence number for a day bucket. Concurrent
// calls for the same day must return distinct consecutive values.
type Sequencer interface {
	Next(ctx context.Context, dayKey string) (int64, error)
}

// MemorySequencer is an in-process Sequencer backed by a mutex-guarded map.
// The Postgres ledger does not use it; there the increment lives inside the
// confirmation transaction so a lost status race rolls the number back.
type MemorySequencer struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewMemorySequencer returns an empty in-memory sequencer.
func NewMemorySequencer() *MemorySequencer {
	return &MemorySequencer{counts: make(map[string]int64)}
}

// Next increments and returns the counter for dayKey, starting at 1 for the
// first confirmation of a new day.
func (s *MemorySequencer) Next(_ context.Context, dayKey string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[dayKey]++
	return s.counts[dayKey], nil
}
