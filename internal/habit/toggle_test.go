package habit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeboard/internal/model"
	"lifeboard/pkg/keylock"
)

type entryKey struct {
	habitID int64
	date    civil.Date
}

// memStore keeps entries in memory and fails the next call of a named method on demand.
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	entries map[entryKey]*model.HabitEntry
	fail    map[string]error
	calls   []string
}

func newMemStore() *memStore {
	return &memStore{entries: map[entryKey]*model.HabitEntry{}, fail: map[string]error{}}
}

func (s *memStore) hit(name string) error {
	s.calls = append(s.calls, name)
	if err, ok := s.fail[name]; ok {
		delete(s.fail, name)
		return err
	}
	return nil
}

func (s *memStore) FindEntry(_ context.Context, userID string, habitID int64, date civil.Date) (*model.HabitEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit("find"); err != nil {
		return nil, err
	}
	e, ok := s.entries[entryKey{habitID, date}]
	if !ok || e.UserID != userID {
		return nil, model.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *memStore) CreateEntry(_ context.Context, userID string, habitID int64, date civil.Date) (*model.HabitEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit("create"); err != nil {
		return nil, err
	}
	k := entryKey{habitID, date}
	if _, ok := s.entries[k]; ok {
		return nil, model.ErrConflict
	}
	s.nextID++
	e := &model.HabitEntry{ID: s.nextID, UserID: userID, HabitID: habitID, Date: date, Completed: true}
	s.entries[k] = e
	cp := *e
	return &cp, nil
}

func (s *memStore) MarkEntryCompleted(_ context.Context, userID string, entryID int64) (*model.HabitEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit("complete"); err != nil {
		return nil, err
	}
	for _, e := range s.entries {
		if e.ID == entryID && e.UserID == userID {
			e.Completed = true
			cp := *e
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *memStore) DeleteEntry(_ context.Context, userID string, entryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit("delete"); err != nil {
		return err
	}
	for k, e := range s.entries {
		if e.ID == entryID && e.UserID == userID {
			delete(s.entries, k)
			return nil
		}
	}
	return model.ErrNotFound
}

func (s *memStore) count(habitID int64, date civil.Date) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.entries {
		if k.habitID == habitID && k.date == date {
			n++
		}
	}
	return n
}

func TestDecide(t *testing.T) {
	assert.Equal(t, ActionCreate, Decide(nil))
	assert.Equal(t, ActionDelete, Decide(&model.HabitEntry{Completed: true}))
	assert.Equal(t, ActionComplete, Decide(&model.HabitEntry{Completed: false}))
}

func TestToggleParity(t *testing.T) {
	store := newMemStore()
	tg := NewToggler(store, keylock.NewLocal(), nil)
	ctx := context.Background()

	res, err := tg.Toggle(ctx, "u1", 1, today)
	require.NoError(t, err)
	assert.Equal(t, ActionCreate, res.Action)
	require.NotNil(t, res.Entry)
	assert.True(t, res.Entry.Completed)
	assert.Equal(t, today, res.Entry.Date)
	assert.Equal(t, 1, store.count(1, today))

	res, err = tg.Toggle(ctx, "u1", 1, today)
	require.NoError(t, err)
	assert.Equal(t, ActionDelete, res.Action)
	assert.Nil(t, res.Entry)
	assert.Equal(t, 0, store.count(1, today))

	res, err = tg.Toggle(ctx, "u1", 1, today)
	require.NoError(t, err)
	assert.Equal(t, ActionCreate, res.Action)
	assert.Equal(t, 1, store.count(1, today))
}

func TestToggleCompletesIncompleteEntry(t *testing.T) {
	store := newMemStore()
	store.entries[entryKey{1, today}] = &model.HabitEntry{ID: 9, UserID: "u1", HabitID: 1, Date: today}
	store.nextID = 9
	tg := NewToggler(store, keylock.NewLocal(), nil)

	res, err := tg.Toggle(context.Background(), "u1", 1, today)
	require.NoError(t, err)
	assert.Equal(t, ActionComplete, res.Action)
	assert.Equal(t, int64(9), res.Entry.ID)
	assert.True(t, res.Entry.Completed)
	assert.Equal(t, 1, store.count(1, today))
}

func TestToggleValidatesBeforeStore(t *testing.T) {
	store := newMemStore()
	tg := NewToggler(store, keylock.NewLocal(), nil)
	ctx := context.Background()

	_, err := tg.Toggle(ctx, "", 1, today)
	assert.True(t, model.IsValidation(err))
	_, err = tg.Toggle(ctx, "u1", 0, today)
	assert.True(t, model.IsValidation(err))
	_, err = tg.Toggle(ctx, "u1", 1, civil.Date{})
	assert.True(t, model.IsValidation(err))

	assert.Empty(t, store.calls)
}

func TestToggleStoreFailureCommitsNothing(t *testing.T) {
	store := newMemStore()
	tg := NewToggler(store, keylock.NewLocal(), nil)
	ctx := context.Background()
	boom := errors.New("connection reset")

	store.fail["create"] = boom
	_, err := tg.Toggle(ctx, "u1", 1, today)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, store.count(1, today))
	assert.Equal(t, []string{"find", "create"}, store.calls)

	_, err = tg.Toggle(ctx, "u1", 1, today)
	require.NoError(t, err)

	store.fail["delete"] = boom
	_, err = tg.Toggle(ctx, "u1", 1, today)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, store.count(1, today))
}

func TestToggleDeleteOfVanishedEntrySucceeds(t *testing.T) {
	store := newMemStore()
	tg := NewToggler(store, keylock.NewLocal(), nil)
	ctx := context.Background()

	_, err := tg.Toggle(ctx, "u1", 1, today)
	require.NoError(t, err)

	store.fail["delete"] = model.ErrNotFound
	res, err := tg.Toggle(ctx, "u1", 1, today)
	require.NoError(t, err)
	assert.Equal(t, ActionDelete, res.Action)
}

func TestToggleConcurrentSameKeyNeverDuplicates(t *testing.T) {
	store := newMemStore()
	tg := NewToggler(store, keylock.NewLocal(), nil)
	ctx := context.Background()

	const n = 51
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tg.Toggle(ctx, "u1", 1, today)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	// odd number of toggles leaves the entry present, exactly once
	assert.Equal(t, 1, store.count(1, today))
}

type busyLocker struct{}

func (busyLocker) Lock(context.Context, string) (func(), error) { return nil, keylock.ErrBusy }

func TestToggleLockBusy(t *testing.T) {
	store := newMemStore()
	tg := NewToggler(store, busyLocker{}, nil)

	_, err := tg.Toggle(context.Background(), "u1", 1, today)
	assert.ErrorIs(t, err, keylock.ErrBusy)
	assert.Empty(t, store.calls)
}

func TestToggleDifferentKeysRunIndependently(t *testing.T) {
	locks := keylock.NewLocal()
	store := newMemStore()
	tg := NewToggler(store, locks, nil)
	ctx := context.Background()

	unlock, err := locks.Lock(ctx, LockKey("u1", 1, today))
	require.NoError(t, err)
	defer unlock()

	done := make(chan error, 1)
	go func() {
		_, err := tg.Toggle(ctx, "u1", 1, today.AddDays(-1))
		done <- err
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("toggle on another date waited for a held key")
	}
}
