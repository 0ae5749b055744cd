// Package draft keeps in-progress ranking edits recoverable.
//
// The Manager owns the authoritative in-memory target list for one editing
// session. Every Update replaces the list immediately, so the UI never waits
// on storage, and schedules a debounced write of the identifier sequence to
// durable storage. Rapid successive updates reset the timer instead of
// queuing writes, so only the latest list is ever written.
//
// On load, a stored draft is adopted only if every identifier still resolves
// against the item universe and the draft is not older than the server
// baseline. Anything else is stale and is dropped silently: draft staleness
// is self-healing and never blocks the editor.
//
// Storage failures are logged and swallowed. The manager then reports itself
// Degraded and keeps working from memory until a later write succeeds.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/treykane/cli-rank/internal/logging"
	"github.com/treykane/cli-rank/internal/ranking"
)

var log = logging.New("draft")

// DefaultDebounce is the delay between the last Update and the durable write.
const DefaultDebounce = 300 * time.Millisecond

// KeyPrefix prefixes every draft storage key.
const KeyPrefix = "ranking:"

var (
	// ErrSaveInFlight is returned when Save is called while another save for
	// the same session has not finished.
	ErrSaveInFlight = errors.New("save already in progress")
	// ErrNotInitialized is returned by mutations before Initialize.
	ErrNotInitialized = errors.New("draft session not initialized")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("draft session closed")
	// ErrSessionChanged is returned when a save finished after the session
	// was discarded or closed; its result was ignored.
	ErrSessionChanged = errors.New("draft session changed during save")
	// ErrCorrupt is returned by storages when a stored entry exists but
	// cannot be decoded. The storage itself is still usable.
	ErrCorrupt = errors.New("corrupt draft entry")
)

// Key returns the storage key for a ranking's draft.
func Key(rankingID string) string {
	return KeyPrefix + rankingID
}

// Record is the persisted snapshot of a target list.
type Record struct {
	OrderedIDs []ranking.ID `json:"ordered_ids"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Baseline is the target list as last confirmed by the server.
type Baseline struct {
	IDs       ranking.List
	UpdatedAt time.Time
}

// Persister is the external collaborator that stores a ranking order.
type Persister interface {
	SaveRanking(ctx context.Context, rankingID string, ids ranking.List) error
}

// Options configure a Manager.
type Options struct {
	RankingID string
	Storage   Storage
	Persister Persister

	// Debounce defaults to DefaultDebounce when zero.
	Debounce time.Duration
	// Scheduler defaults to time.AfterFunc.
	Scheduler Scheduler
	// Now defaults to time.Now.
	Now func() time.Time
}

// Manager is the draft sync manager for one ranking session. It is safe for
// concurrent use: the debounce timer fires on its own goroutine.
type Manager struct {
	mu sync.Mutex

	rankingID string
	key       string
	storage   Storage
	persister Persister
	debounce  time.Duration
	scheduler Scheduler
	now       func() time.Time

	initialized bool
	closed      bool
	list        ranking.List
	baseline    Baseline
	restored    *Record

	timer    Timer
	writeSeq uint64

	// generation changes on Discard and Close so a save that completes
	// afterwards can tell its result no longer applies.
	generation uint64
	saving     bool
	degraded   bool
}

// NewManager returns an uninitialized manager. A nil Storage falls back to
// memory.
func NewManager(opts Options) *Manager {
	m := &Manager{
		rankingID: opts.RankingID,
		key:       Key(opts.RankingID),
		storage:   opts.Storage,
		persister: opts.Persister,
		debounce:  opts.Debounce,
		scheduler: opts.Scheduler,
		now:       opts.Now,
	}
	if m.storage == nil {
		m.storage = NewMemoryStorage()
	}
	if m.debounce <= 0 {
		m.debounce = DefaultDebounce
	}
	if m.scheduler == nil {
		m.scheduler = realScheduler{}
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Initialize sets the baseline and returns the initial target list: the
// stored draft when it is valid, otherwise the baseline. It must be called
// only once the full item universe has loaded, since a draft that references
// an item the universe does not know yet would otherwise be discarded.
func (m *Manager) Initialize(baseline Baseline, universe *ranking.Universe) ranking.List {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopTimerLocked()
	m.baseline = Baseline{IDs: baseline.IDs.Clone(), UpdatedAt: baseline.UpdatedAt}
	m.list = baseline.IDs.Clone()
	m.restored = nil
	m.initialized = true
	m.closed = false

	rec, ok := m.loadRecordLocked()
	if !ok {
		return m.list.Clone()
	}

	ids := ranking.List(rec.OrderedIDs)
	if err := ids.Validate(universe); err != nil {
		log.Info("discard invalid draft", "ranking", m.rankingID, "reason", err)
		m.removeLocked()
		return m.list.Clone()
	}
	if !baseline.UpdatedAt.IsZero() && rec.UpdatedAt.Before(baseline.UpdatedAt) {
		log.Info("discard stale draft", "ranking", m.rankingID,
			"draft_updated_at", rec.UpdatedAt, "baseline_updated_at", baseline.UpdatedAt)
		m.removeLocked()
		return m.list.Clone()
	}
	if ids.Equal(m.baseline.IDs) {
		m.removeLocked()
		return m.list.Clone()
	}

	m.list = ids.Clone()
	m.restored = &Record{OrderedIDs: ids.Clone(), UpdatedAt: rec.UpdatedAt}
	log.Info("restored draft", "ranking", m.rankingID, "items", len(ids))
	return m.list.Clone()
}

func (m *Manager) loadRecordLocked() (Record, bool) {
	raw, ok, err := m.storage.Get(m.key)
	if errors.Is(err, ErrCorrupt) {
		log.Warn("discard unreadable draft", "ranking", m.rankingID, "error", err)
		m.removeLocked()
		return Record{}, false
	}
	if err != nil {
		m.markDegradedLocked("read draft", err)
		return Record{}, false
	}
	if !ok {
		return Record{}, false
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		log.Warn("discard unreadable draft", "ranking", m.rankingID, "error", err)
		m.removeLocked()
		return Record{}, false
	}
	return rec, true
}

// Update replaces the in-memory target list immediately and schedules a
// debounced durable write. Each call resets the debounce timer.
func (m *Manager) Update(list ranking.List) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if !m.initialized {
		return ErrNotInitialized
	}
	m.list = list.Clone()
	m.scheduleWriteLocked()
	return nil
}

func (m *Manager) scheduleWriteLocked() {
	m.stopTimerLocked()
	m.writeSeq++
	seq := m.writeSeq
	m.timer = m.scheduler.AfterFunc(m.debounce, func() {
		m.fire(seq)
	})
}

func (m *Manager) fire(seq uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seq != m.writeSeq || m.closed || m.timer == nil {
		return
	}
	m.timer = nil
	m.writeLocked()
}

// writeLocked mirrors the current list to storage. A list equal to the
// baseline has nothing to recover, so its record is removed instead.
func (m *Manager) writeLocked() {
	if m.list.Equal(m.baseline.IDs) {
		m.removeLocked()
		return
	}
	data, err := json.Marshal(Record{OrderedIDs: m.list.Clone(), UpdatedAt: m.now().UTC()})
	if err != nil {
		m.markDegradedLocked("encode draft", err)
		return
	}
	if err := m.storage.Set(m.key, string(data)); err != nil {
		m.markDegradedLocked("write draft", err)
		return
	}
	m.degraded = false
}

func (m *Manager) removeLocked() {
	if err := m.storage.Remove(m.key); err != nil {
		m.markDegradedLocked("remove draft", err)
	}
}

func (m *Manager) markDegradedLocked(op string, err error) {
	if !m.degraded {
		log.Warn(op+"; keeping draft in memory only", "ranking", m.rankingID, "error", err)
	}
	m.degraded = true
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// Flush performs a pending debounced write now. It is a no-op when nothing
// is pending.
func (m *Manager) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer == nil || m.closed {
		return
	}
	m.stopTimerLocked()
	m.writeLocked()
}

// Pending reports whether a debounced write is scheduled.
func (m *Manager) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timer != nil
}

// List returns a copy of the current target list.
func (m *Manager) List() ranking.List {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list.Clone()
}

// Baseline returns a copy of the server baseline.
func (m *Manager) Baseline() Baseline {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Baseline{IDs: m.baseline.IDs.Clone(), UpdatedAt: m.baseline.UpdatedAt}
}

// IsDirty reports whether the current list differs positionally from the
// baseline.
func (m *Manager) IsDirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.list.Equal(m.baseline.IDs)
}

// Restored returns the draft adopted by Initialize, if any.
func (m *Manager) Restored() (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.restored == nil {
		return Record{}, false
	}
	return *m.restored, true
}

// Degraded reports whether the last storage operation failed.
func (m *Manager) Degraded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.degraded
}

// Saving reports whether a save is in flight.
func (m *Manager) Saving() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saving
}

// Save sends the current identifier sequence to the persister.
//
// The list is captured when Save is called; edits made while the request is
// in flight stay in memory and go out with the next save. On success the
// draft record is cleared and the baseline advances to the saved sequence.
// On failure both are left untouched so the user can retry. Only one save
// may be in flight; overlapping calls return ErrSaveInFlight.
func (m *Manager) Save(ctx context.Context) error {
	m.mu.Lock()
	switch {
	case m.closed:
		m.mu.Unlock()
		return ErrClosed
	case !m.initialized:
		m.mu.Unlock()
		return ErrNotInitialized
	case m.saving:
		m.mu.Unlock()
		return ErrSaveInFlight
	case m.persister == nil:
		m.mu.Unlock()
		return errors.New("no persister configured")
	}
	m.saving = true
	snapshot := m.list.Clone()
	generation := m.generation
	m.mu.Unlock()

	attempt := uuid.NewString()
	log.Debug("save ranking", "ranking", m.rankingID, "attempt", attempt, "items", len(snapshot))
	err := m.persister.SaveRanking(ctx, m.rankingID, snapshot)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.saving = false

	if generation != m.generation {
		log.Info("ignore save result for discarded session", "ranking", m.rankingID, "attempt", attempt)
		return ErrSessionChanged
	}
	if err != nil {
		log.Warn("save ranking failed", "ranking", m.rankingID, "attempt", attempt, "error", err)
		return fmt.Errorf("save ranking %s: %w", m.rankingID, err)
	}

	m.baseline = Baseline{IDs: snapshot, UpdatedAt: m.now().UTC()}
	m.restored = nil
	m.removeLocked()
	if m.list.Equal(snapshot) {
		m.stopTimerLocked()
	} else {
		// The user kept editing while the request was in flight. Keep those
		// edits recoverable.
		m.scheduleWriteLocked()
	}
	return nil
}

// Discard cancels any pending write, deletes the draft record, and resets
// the target list to the baseline.
func (m *Manager) Discard() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopTimerLocked()
	m.writeSeq++
	m.generation++
	m.removeLocked()
	m.list = m.baseline.IDs.Clone()
	m.restored = nil
}

// Close tears the session down. The pending debounce timer is cancelled
// without writing; call Flush first to keep the latest edits. Results of an
// in-flight save are ignored after Close.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopTimerLocked()
	m.writeSeq++
	m.generation++
	m.closed = true
}

// LoadRecord reads the stored draft for rankingID without a Manager. It is
// used by the CLI to list pending drafts.
func LoadRecord(s Storage, rankingID string) (Record, bool, error) {
	raw, ok, err := s.Get(Key(rankingID))
	if err != nil || !ok {
		return Record{}, false, err
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return Record{}, false, fmt.Errorf("parse draft %q: %w: %v", rankingID, ErrCorrupt, err)
	}
	return rec, true, nil
}
