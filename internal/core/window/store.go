package window

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	v1 "github.com/aevon-lab/rule-engine/internal/api/v1"
	"github.com/aevon-lab/rule-engine/internal/core/partition"
)

// ErrInvalidConfig is returned by NewStore for a non-positive size or age.
var ErrInvalidConfig = errors.New("invalid window configuration")

// Trigger is evaluated against the post-eviction window while the device's
// shard lock is held. It must not block or call back into the Store.
type Trigger func(entries []v1.Envelope) bool

// Snapshot is a read-only copy of one device's window.
type Snapshot struct {
	DeviceID string
	Entries  []v1.Envelope

	// Fired is true when the Trigger passed to Append was evaluated and held.
	Fired bool
}

// Len returns the number of entries captured in the snapshot.
func (s Snapshot) Len() int { return len(s.Entries) }

// SweepStats summarizes one SweepAll pass.
type SweepStats struct {
	Devices int // windows inspected
	Evicted int // entries dropped by age
	Removed int // windows deleted because they became empty
}

// window is the live per-device buffer, ordered by arrival.
type window struct {
	entries []v1.Envelope

	// armed is cleared when the trigger fires on a full window and set again
	// once the window holds fewer than size entries.
	armed bool
}

type shard struct {
	mu      sync.Mutex
	windows map[string]*window
}

// Store keeps a bounded, age-limited window of recent envelopes per device.
// Devices are spread over partition.Count shards; operations on one device
// serialize on its shard lock and never touch other shards.
type Store struct {
	size            int
	maxAge          time.Duration
	refireWhileFull bool
	shards          [partition.Count]shard
}

// Option configures a Store.
type Option func(*Store)

// WithRefireWhileFull keeps the trigger armed while the window stays full, so
// every satisfying append fires.
func WithRefireWhileFull(enabled bool) Option {
	return func(s *Store) { s.refireWhileFull = enabled }
}

// NewStore creates a Store holding at most size entries per device, each no
// older than maxAge at the last eviction pass.
func NewStore(size int, maxAge time.Duration, opts ...Option) (*Store, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: window size must be > 0, got %d", ErrInvalidConfig, size)
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("%w: max window age must be > 0, got %s", ErrInvalidConfig, maxAge)
	}

	s := &Store{size: size, maxAge: maxAge}
	for _, opt := range opts {
		opt(s)
	}
	for i := range s.shards {
		s.shards[i].windows = make(map[string]*window)
	}
	return s, nil
}

// Size returns the configured maximum window length N.
func (s *Store) Size() int { return s.size }

func (s *Store) shardFor(deviceID string) *shard {
	return &s.shards[partition.For(deviceID)]
}

// Append adds env to the tail of the device's window, evicts by size then by
// age relative to now, evaluates trigger, and returns a copy of the result.
// All of it happens under the device's shard lock.
//
// trigger is only consulted when the window holds exactly N entries and the
// window is armed. A nil trigger is never consulted.
func (s *Store) Append(deviceID string, env v1.Envelope, now time.Time, trigger Trigger) Snapshot {
	sh := s.shardFor(deviceID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	w, ok := sh.windows[deviceID]
	if !ok {
		w = &window{entries: make([]v1.Envelope, 0, s.size), armed: true}
		sh.windows[deviceID] = w
	}

	w.entries = append(w.entries, env)
	if over := len(w.entries) - s.size; over > 0 {
		w.entries = dropHead(w.entries, over)
	}
	s.evictOld(w, now)

	snap := Snapshot{DeviceID: deviceID}
	if len(w.entries) == 0 {
		// Appended entry was already older than the cutoff.
		delete(sh.windows, deviceID)
		return snap
	}

	if len(w.entries) < s.size {
		w.armed = true
	} else if trigger != nil && (w.armed || s.refireWhileFull) && trigger(w.entries) {
		snap.Fired = true
		w.armed = false
	}

	snap.Entries = copyEntries(w.entries)
	return snap
}

// SweepAll applies age eviction to every tracked window and deletes the ones
// left empty. It locks one shard at a time.
func (s *Store) SweepAll(now time.Time) SweepStats {
	var stats SweepStats
	for i := range s.shards {
		s.sweepShard(&s.shards[i], now, &stats)
	}

	if stats.Evicted > 0 {
		slog.Debug("[WindowStore] Swept stale entries",
			"devices", stats.Devices,
			"evicted", stats.Evicted,
			"removed", stats.Removed)
	}
	return stats
}

func (s *Store) sweepShard(sh *shard, now time.Time, stats *SweepStats) {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	for deviceID, w := range sh.windows {
		stats.Devices++
		before := len(w.entries)
		s.evictOld(w, now)
		stats.Evicted += before - len(w.entries)

		if len(w.entries) == 0 {
			delete(sh.windows, deviceID)
			stats.Removed++
			continue
		}
		if len(w.entries) < s.size {
			w.armed = true
		}
	}
}

// Snapshot returns a copy of the device's current window, or false when the
// device has no window.
func (s *Store) Snapshot(deviceID string) (Snapshot, bool) {
	sh := s.shardFor(deviceID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	w, ok := sh.windows[deviceID]
	if !ok {
		return Snapshot{}, false
	}
	return Snapshot{DeviceID: deviceID, Entries: copyEntries(w.entries)}, true
}

// Len returns the number of devices with a live window.
func (s *Store) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		n += len(sh.windows)
		sh.mu.Unlock()
	}
	return n
}

// evictOld drops entries from the head while they are older than now-maxAge.
// Windows are arrival-ordered, so a newer head shields older entries behind it
// until it ages out itself.
func (s *Store) evictOld(w *window, now time.Time) {
	cutoff := now.Add(-s.maxAge)
	n := 0
	for n < len(w.entries) && w.entries[n].Timestamp.Before(cutoff) {
		n++
	}
	if n > 0 {
		w.entries = dropHead(w.entries, n)
	}
}

// dropHead removes the first n entries, reusing the backing array.
func dropHead(entries []v1.Envelope, n int) []v1.Envelope {
	if n >= len(entries) {
		clear(entries)
		return entries[:0]
	}
	kept := copy(entries, entries[n:])
	clear(entries[kept:])
	return entries[:kept]
}

func copyEntries(entries []v1.Envelope) []v1.Envelope {
	out := make([]v1.Envelope, len(entries))
	copy(out, entries)
	return out
}
