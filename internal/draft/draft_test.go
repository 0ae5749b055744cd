package draft

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treykane/cli-rank/internal/ranking"
)

type manualTimer struct {
	s       *manualScheduler
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// manualScheduler only runs callbacks when the test calls FireAll.
type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (s *manualScheduler) AfterFunc(_ time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{s: s, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *manualScheduler) FireAll() int {
	s.mu.Lock()
	var live []*manualTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			live = append(live, t)
		}
	}
	s.mu.Unlock()
	for _, t := range live {
		t.f()
	}
	return len(live)
}

func (s *manualScheduler) Scheduled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// countingStorage wraps MemoryStorage and counts writes.
type countingStorage struct {
	*MemoryStorage
	sets    int
	removes int
	failSet error
	failGet error
}

func newCountingStorage() *countingStorage {
	return &countingStorage{MemoryStorage: NewMemoryStorage()}
}

func (s *countingStorage) Get(key string) (string, bool, error) {
	if s.failGet != nil {
		return "", false, s.failGet
	}
	return s.MemoryStorage.Get(key)
}

func (s *countingStorage) Set(key, value string) error {
	s.sets++
	if s.failSet != nil {
		return s.failSet
	}
	return s.MemoryStorage.Set(key, value)
}

func (s *countingStorage) Remove(key string) error {
	s.removes++
	return s.MemoryStorage.Remove(key)
}

type fakePersister struct {
	mu    sync.Mutex
	calls []ranking.List
	err   error
	// block, when set, holds SaveRanking until closed.
	block   chan struct{}
	started chan struct{}
}

func (p *fakePersister) SaveRanking(_ context.Context, _ string, ids ranking.List) error {
	if p.started != nil {
		p.started <- struct{}{}
	}
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, ids.Clone())
	return p.err
}

var testItems = []ranking.Item{
	{ID: "A", Title: "Alpha"},
	{ID: "B", Title: "Bravo"},
	{ID: "C", Title: "Charlie"},
	{ID: "P1", Title: "Pool one"},
	{ID: "P2", Title: "Pool two"},
}

func newTestManager(t *testing.T, storage Storage, persister Persister) (*Manager, *manualScheduler) {
	t.Helper()
	sched := &manualScheduler{}
	m := NewManager(Options{
		RankingID: "r1",
		Storage:   storage,
		Persister: persister,
		Scheduler: sched,
		Now:       func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) },
	})
	return m, sched
}

func storeRecord(t *testing.T, s Storage, ids ranking.List, at time.Time) {
	t.Helper()
	data, err := json.Marshal(Record{OrderedIDs: ids, UpdatedAt: at})
	require.NoError(t, err)
	require.NoError(t, s.Set(Key("r1"), string(data)))
}

func TestInitializeWithoutDraftUsesBaseline(t *testing.T) {
	m, _ := newTestManager(t, NewMemoryStorage(), nil)
	got := m.Initialize(Baseline{IDs: ranking.List{"A", "B"}}, ranking.NewUniverse(testItems))
	assert.Equal(t, ranking.List{"A", "B"}, got)
	assert.False(t, m.IsDirty())
	_, restored := m.Restored()
	assert.False(t, restored)
}

func TestInitializeAdoptsValidDraft(t *testing.T) {
	store := NewMemoryStorage()
	storeRecord(t, store, ranking.List{"B", "A", "P1"}, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))

	m, _ := newTestManager(t, store, nil)
	got := m.Initialize(Baseline{
		IDs:       ranking.List{"A", "B"},
		UpdatedAt: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}, ranking.NewUniverse(testItems))

	assert.Equal(t, ranking.List{"B", "A", "P1"}, got)
	assert.True(t, m.IsDirty())
	rec, ok := m.Restored()
	require.True(t, ok)
	assert.Equal(t, []ranking.ID{"B", "A", "P1"}, rec.OrderedIDs)
}

func TestInitializeDiscardsUnresolvableDraft(t *testing.T) {
	store := NewMemoryStorage()
	storeRecord(t, store, ranking.List{"A", "GONE"}, time.Now())

	m, _ := newTestManager(t, store, nil)
	got := m.Initialize(Baseline{IDs: ranking.List{"A", "B"}}, ranking.NewUniverse(testItems))

	assert.Equal(t, ranking.List{"A", "B"}, got)
	_, ok, err := store.Get(Key("r1"))
	require.NoError(t, err)
	assert.False(t, ok, "stale draft record should be deleted")
}

func TestInitializeDiscardsDraftOlderThanBaseline(t *testing.T) {
	store := NewMemoryStorage()
	storeRecord(t, store, ranking.List{"B", "A"}, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	m, _ := newTestManager(t, store, nil)
	got := m.Initialize(Baseline{
		IDs:       ranking.List{"A", "B"},
		UpdatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}, ranking.NewUniverse(testItems))

	assert.Equal(t, ranking.List{"A", "B"}, got)
	_, ok, _ := store.Get(Key("r1"))
	assert.False(t, ok)
}

func TestInitializeDiscardsDuplicateDraft(t *testing.T) {
	store := NewMemoryStorage()
	storeRecord(t, store, ranking.List{"A", "A"}, time.Now())

	m, _ := newTestManager(t, store, nil)
	got := m.Initialize(Baseline{IDs: ranking.List{"B"}}, ranking.NewUniverse(testItems))
	assert.Equal(t, ranking.List{"B"}, got)
}

func TestInitializeDiscardsCorruptDraft(t *testing.T) {
	store := NewMemoryStorage()
	require.NoError(t, store.Set(Key("r1"), "{not json"))

	m, _ := newTestManager(t, store, nil)
	got := m.Initialize(Baseline{IDs: ranking.List{"A"}}, ranking.NewUniverse(testItems))
	assert.Equal(t, ranking.List{"A"}, got)
	_, ok, _ := store.Get(Key("r1"))
	assert.False(t, ok)
}

func TestUpdateBeforeInitialize(t *testing.T) {
	m, _ := newTestManager(t, NewMemoryStorage(), nil)
	assert.ErrorIs(t, m.Update(ranking.List{"A"}), ErrNotInitialized)
}

func TestUpdatesCoalesceIntoOneWrite(t *testing.T) {
	store := newCountingStorage()
	m, sched := newTestManager(t, store, nil)
	m.Initialize(Baseline{IDs: ranking.List{"A", "B", "C"}}, ranking.NewUniverse(testItems))

	lists := []ranking.List{
		{"B", "A", "C"},
		{"B", "C", "A"},
		{"C", "B", "A"},
		{"C", "B", "A", "P1"},
	}
	for _, l := range lists {
		require.NoError(t, m.Update(l))
		assert.Equal(t, l, m.List(), "in-memory list updates synchronously")
	}
	assert.Equal(t, 0, store.sets, "no write before the debounce elapses")

	assert.Equal(t, 1, sched.FireAll())
	assert.Equal(t, 1, store.sets)

	rec, ok, err := LoadRecord(store, "r1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []ranking.ID{"C", "B", "A", "P1"}, rec.OrderedIDs)
}

func TestUpdateBackToBaselineRemovesRecord(t *testing.T) {
	store := newCountingStorage()
	m, sched := newTestManager(t, store, nil)
	m.Initialize(Baseline{IDs: ranking.List{"A", "B"}}, ranking.NewUniverse(testItems))

	require.NoError(t, m.Update(ranking.List{"B", "A"}))
	sched.FireAll()
	require.NoError(t, m.Update(ranking.List{"A", "B"}))
	sched.FireAll()

	assert.False(t, m.IsDirty())
	_, ok, _ := store.Get(Key("r1"))
	assert.False(t, ok)
}

func TestIsDirtyIsPositional(t *testing.T) {
	m, _ := newTestManager(t, NewMemoryStorage(), nil)
	m.Initialize(Baseline{IDs: ranking.List{"A", "B"}}, ranking.NewUniverse(testItems))

	require.NoError(t, m.Update(ranking.List{"B", "A"}))
	assert.True(t, m.IsDirty(), "same set, different order is dirty")

	require.NoError(t, m.Update(ranking.List{"A", "B"}))
	assert.False(t, m.IsDirty())
}

func TestSaveSuccessClearsDraft(t *testing.T) {
	store := newCountingStorage()
	p := &fakePersister{}
	m, sched := newTestManager(t, store, p)
	m.Initialize(Baseline{IDs: ranking.List{"A", "B"}}, ranking.NewUniverse(testItems))

	require.NoError(t, m.Update(ranking.List{"B", "A", "P1"}))
	sched.FireAll()

	require.NoError(t, m.Save(context.Background()))
	assert.False(t, m.IsDirty())
	assert.Equal(t, ranking.List{"B", "A", "P1"}, m.Baseline().IDs)
	require.Len(t, p.calls, 1)
	assert.Equal(t, ranking.List{"B", "A", "P1"}, p.calls[0])

	_, ok, _ := store.Get(Key("r1"))
	assert.False(t, ok)
	assert.False(t, m.Pending())
}

func TestReloadAfterSaveIsClean(t *testing.T) {
	store := NewMemoryStorage()
	p := &fakePersister{}
	universe := ranking.NewUniverse(testItems)
	m, sched := newTestManager(t, store, p)
	m.Initialize(Baseline{IDs: ranking.List{"A", "B", "C"}}, universe)

	require.NoError(t, m.Update(ranking.List{"C", "A", "B"}))
	sched.FireAll()
	require.NoError(t, m.Save(context.Background()))
	m.Close()

	reloaded, _ := newTestManager(t, store, p)
	got := reloaded.Initialize(Baseline{IDs: p.calls[0], UpdatedAt: time.Now()}, universe)
	assert.Equal(t, ranking.List{"C", "A", "B"}, got)
	assert.False(t, reloaded.IsDirty())
	_, ok, _ := store.Get(Key("r1"))
	assert.False(t, ok)
}

func TestDiscardRestoresBaselineExactly(t *testing.T) {
	store := NewMemoryStorage()
	m, sched := newTestManager(t, store, nil)
	m.Initialize(Baseline{IDs: ranking.List{"A", "B", "C"}}, ranking.NewUniverse(testItems))

	for _, l := range []ranking.List{{"B", "A", "C"}, {"B", "C"}, {"P1", "B", "C", "A"}} {
		require.NoError(t, m.Update(l))
		sched.FireAll()
	}
	m.Discard()

	assert.Equal(t, ranking.List{"A", "B", "C"}, m.List())
	_, ok, _ := store.Get(Key("r1"))
	assert.False(t, ok)
}

func TestSaveFailureKeepsDraft(t *testing.T) {
	store := newCountingStorage()
	p := &fakePersister{err: errors.New("boom")}
	m, sched := newTestManager(t, store, p)
	m.Initialize(Baseline{IDs: ranking.List{"A", "B"}}, ranking.NewUniverse(testItems))

	require.NoError(t, m.Update(ranking.List{"B", "A"}))
	sched.FireAll()

	err := m.Save(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, p.err)
	assert.True(t, m.IsDirty())
	assert.Equal(t, ranking.List{"B", "A"}, m.List())
	assert.Equal(t, ranking.List{"A", "B"}, m.Baseline().IDs)

	_, ok, _ := store.Get(Key("r1"))
	assert.True(t, ok, "draft survives a failed save")

	p.err = nil
	require.NoError(t, m.Save(context.Background()), "retry succeeds")
	assert.False(t, m.IsDirty())
}

func TestSaveIsSingleFlight(t *testing.T) {
	p := &fakePersister{block: make(chan struct{}), started: make(chan struct{}, 1)}
	m, _ := newTestManager(t, NewMemoryStorage(), p)
	m.Initialize(Baseline{IDs: ranking.List{"A"}}, ranking.NewUniverse(testItems))
	require.NoError(t, m.Update(ranking.List{"A", "B"}))

	done := make(chan error, 1)
	go func() { done <- m.Save(context.Background()) }()
	<-p.started

	assert.True(t, m.Saving())
	assert.ErrorIs(t, m.Save(context.Background()), ErrSaveInFlight)

	close(p.block)
	require.NoError(t, <-done)
	assert.False(t, m.Saving())
	assert.Len(t, p.calls, 1)
}

func TestEditsDuringSaveStayDirty(t *testing.T) {
	store := newCountingStorage()
	p := &fakePersister{block: make(chan struct{}), started: make(chan struct{}, 1)}
	m, sched := newTestManager(t, store, p)
	m.Initialize(Baseline{IDs: ranking.List{"A"}}, ranking.NewUniverse(testItems))
	require.NoError(t, m.Update(ranking.List{"A", "B"}))

	done := make(chan error, 1)
	go func() { done <- m.Save(context.Background()) }()
	<-p.started

	require.NoError(t, m.Update(ranking.List{"B", "A"}))
	close(p.block)
	require.NoError(t, <-done)

	assert.Equal(t, ranking.List{"A", "B"}, m.Baseline().IDs)
	assert.True(t, m.IsDirty())
	assert.True(t, m.Pending(), "newer edits are rescheduled for a draft write")

	sched.FireAll()
	rec, ok, err := LoadRecord(store, "r1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []ranking.ID{"B", "A"}, rec.OrderedIDs)
}

func TestDiscardDuringSaveIgnoresResult(t *testing.T) {
	p := &fakePersister{block: make(chan struct{}), started: make(chan struct{}, 1)}
	m, _ := newTestManager(t, NewMemoryStorage(), p)
	m.Initialize(Baseline{IDs: ranking.List{"A"}}, ranking.NewUniverse(testItems))
	require.NoError(t, m.Update(ranking.List{"A", "B"}))

	done := make(chan error, 1)
	go func() { done <- m.Save(context.Background()) }()
	<-p.started
	m.Discard()
	close(p.block)

	assert.ErrorIs(t, <-done, ErrSessionChanged)
	assert.Equal(t, ranking.List{"A"}, m.Baseline().IDs)
	assert.Equal(t, ranking.List{"A"}, m.List())
}

func TestDiscardCancelsPendingWrite(t *testing.T) {
	store := newCountingStorage()
	m, sched := newTestManager(t, store, nil)
	m.Initialize(Baseline{IDs: ranking.List{"A", "B"}}, ranking.NewUniverse(testItems))

	require.NoError(t, m.Update(ranking.List{"B", "A"}))
	m.Discard()

	assert.Equal(t, 0, sched.FireAll())
	assert.Equal(t, 0, store.sets)
	assert.Equal(t, ranking.List{"A", "B"}, m.List())
	assert.False(t, m.IsDirty())
}

func TestCloseCancelsWithoutWriting(t *testing.T) {
	store := newCountingStorage()
	m, sched := newTestManager(t, store, nil)
	m.Initialize(Baseline{IDs: ranking.List{"A", "B"}}, ranking.NewUniverse(testItems))

	require.NoError(t, m.Update(ranking.List{"B", "A"}))
	m.Close()

	assert.Equal(t, 0, sched.FireAll())
	assert.Equal(t, 0, store.sets)
	assert.ErrorIs(t, m.Update(ranking.List{"A"}), ErrClosed)
	assert.ErrorIs(t, m.Save(context.Background()), ErrClosed)
}

func TestFlushWritesImmediately(t *testing.T) {
	store := newCountingStorage()
	m, sched := newTestManager(t, store, nil)
	m.Initialize(Baseline{IDs: ranking.List{"A", "B"}}, ranking.NewUniverse(testItems))

	require.NoError(t, m.Update(ranking.List{"B", "A"}))
	m.Flush()
	assert.Equal(t, 1, store.sets)
	assert.Equal(t, 0, sched.FireAll(), "flushed timer no longer fires")

	m.Flush()
	assert.Equal(t, 1, store.sets)
}

func TestStorageFailureDegradesQuietly(t *testing.T) {
	store := newCountingStorage()
	store.failSet = errors.New("disk full")
	m, sched := newTestManager(t, store, nil)
	m.Initialize(Baseline{IDs: ranking.List{"A", "B"}}, ranking.NewUniverse(testItems))

	require.NoError(t, m.Update(ranking.List{"B", "A"}))
	sched.FireAll()

	assert.True(t, m.Degraded())
	assert.Equal(t, ranking.List{"B", "A"}, m.List(), "editing continues from memory")

	store.failSet = nil
	require.NoError(t, m.Update(ranking.List{"B", "A", "C"}))
	sched.FireAll()
	assert.False(t, m.Degraded())
}

func TestUnreadableStorageFallsBackToBaseline(t *testing.T) {
	store := newCountingStorage()
	store.failGet = errors.New("permission denied")
	m, _ := newTestManager(t, store, nil)

	got := m.Initialize(Baseline{IDs: ranking.List{"A"}}, ranking.NewUniverse(testItems))
	assert.Equal(t, ranking.List{"A"}, got)
	assert.True(t, m.Degraded())
}

func TestFileStorageRoundTrip(t *testing.T) {
	s := NewFileStorage(filepath.Join(t.TempDir(), "drafts"))

	_, ok, err := s.Get("ranking:r1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("ranking:r1", `{"ordered_ids":["A"]}`))
	require.NoError(t, s.Set("ranking:r/2", `{"ordered_ids":["B"]}`))
	require.NoError(t, s.Set("other", "x"))

	v, ok, err := s.Get("ranking:r1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"ordered_ids":["A"]}`, v)

	keys, err := s.Keys(KeyPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{"ranking:r/2", "ranking:r1"}, keys)

	require.NoError(t, s.Remove("ranking:r1"))
	require.NoError(t, s.Remove("ranking:r1"), "removing twice is fine")
	_, ok, err = s.Get("ranking:r1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStorageRoundTrip(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "drafts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Set("ranking:r1", "one"))
	require.NoError(t, s.Set("ranking:r1", "two"))
	require.NoError(t, s.Set("ranking:r2", "three"))
	require.NoError(t, s.Set("misc", "four"))

	v, ok, err := s.Get("ranking:r1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "two", v)

	keys, err := s.Keys(KeyPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{"ranking:r1", "ranking:r2"}, keys)

	require.NoError(t, s.Remove("ranking:r1"))
	_, ok, err = s.Get("ranking:r1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManagerWithFileStorageSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	universe := ranking.NewUniverse(testItems)
	baseline := Baseline{IDs: ranking.List{"A", "B"}}

	first, sched := newTestManager(t, NewFileStorage(dir), nil)
	first.Initialize(baseline, universe)
	require.NoError(t, first.Update(ranking.List{"B", "A", "P2"}))
	sched.FireAll()
	first.Close()

	second, _ := newTestManager(t, NewFileStorage(dir), nil)
	got := second.Initialize(baseline, universe)
	assert.Equal(t, ranking.List{"B", "A", "P2"}, got)
	assert.True(t, second.IsDirty())
}

func TestFileStorageCorruptEntry(t *testing.T) {
	s := NewFileStorage(t.TempDir())
	require.NoError(t, os.WriteFile(s.pathFor(Key("r1")), []byte("{truncated"), 0o600))

	_, ok, err := s.Get(Key("r1"))
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestInitializeRemovesCorruptDraftFile(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStorage(dir)
	path := store.pathFor(Key("r1"))
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o600))

	m, _ := newTestManager(t, store, nil)
	got := m.Initialize(Baseline{IDs: ranking.List{"A"}}, ranking.NewUniverse(testItems))

	assert.Equal(t, ranking.List{"A"}, got)
	assert.False(t, m.Degraded(), "a bad draft is not a storage failure")
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "corrupt draft file should be removed, stat err %v", err)
}
