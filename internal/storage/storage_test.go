package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studienplaner/internal/calendar"
	"studienplaner/internal/models"
	"studienplaner/internal/store"
)

var testNow = time.Date(2026, time.October, 14, 10, 0, 0, 0, time.UTC)

func openTempStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "studienplaner.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seededStore(t *testing.T) *store.Store {
	t.Helper()

	s := store.New(store.WithClock(calendar.FixedClock{T: testNow}))
	require.NoError(t, store.SeedSample(s))
	return s
}

func TestNewSQLiteStorageRequiresPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	assert.Error(t, err)
}

func TestLoadSnapshotEmpty(t *testing.T) {
	s := openTempStorage(t)

	snap, err := s.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := openTempStorage(t)
	src := seededStore(t)

	subject, err := src.AddSubject(models.Subject{Name: "Biochemie", Professor: "Dr. Weber", Tags: []string{"vorklinik", "labor"}})
	require.NoError(t, err)
	_, err = src.AddTask(models.NewTask("Zitratzyklus ohne Datum", subject.ID))
	require.NoError(t, err)
	// Bruchteile von Sekunden dürfen beim Speichern nicht verloren gehen
	_, err = src.AddSession(models.NewStudySession(subject.ID, testNow.Add(time.Hour), 1500*time.Millisecond))
	require.NoError(t, err)

	want := src.Snapshot()
	require.NoError(t, s.SaveSnapshot(context.Background(), want))

	got, err := s.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Dauer und optionale Felder
	finished := got.Sessions[0]
	d, ok := finished.ActualDuration()
	require.True(t, ok)
	assert.Equal(t, 55*time.Minute, d)
	require.NotNil(t, finished.ProductivityScore)
	assert.Equal(t, 8, *finished.ProductivityScore)
	assert.Nil(t, got.Sessions[2].ActualStart)
	assert.Empty(t, got.Sessions[2].TaskID)
	assert.Equal(t, 1500*time.Millisecond, got.Sessions[len(got.Sessions)-1].PlannedDuration)

	restored := store.New(store.WithClock(calendar.FixedClock{T: testNow}))
	require.NoError(t, restored.Restore(got))
	assert.Equal(t, src.Summary(), restored.Summary())
	assert.Equal(t, src.GoalsWithProgress(), restored.GoalsWithProgress())
}

func TestSaveSnapshotReplacesContent(t *testing.T) {
	s := openTempStorage(t)
	src := seededStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSnapshot(ctx, src.Snapshot()))

	smaller := src.Snapshot()
	smaller.Goals = smaller.Goals[:1]
	smaller.Grades = nil
	require.NoError(t, s.SaveSnapshot(ctx, smaller))

	got, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Goals, 1)
	assert.Empty(t, got.Grades)
	assert.Len(t, got.Subjects, 4)
}

func TestSaveSnapshotKeepsOrder(t *testing.T) {
	s := openTempStorage(t)
	src := store.New(store.WithClock(calendar.FixedClock{T: testNow}))

	for _, id := range []string{"z", "a", "m"} {
		_, err := src.AddSubject(models.Subject{ID: id, Name: "Fach " + id})
		require.NoError(t, err)
	}
	require.NoError(t, s.SaveSnapshot(context.Background(), src.Snapshot()))

	got, err := s.LoadSnapshot(context.Background())
	require.NoError(t, err)
	ids := []string{}
	for _, subject := range got.Subjects {
		ids = append(ids, subject.ID)
	}
	assert.Equal(t, []string{"z", "a", "m"}, ids)
}

func TestSaveSnapshotCancelledContext(t *testing.T) {
	s := openTempStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.SaveSnapshot(ctx, seededStore(t).Snapshot())
	assert.Error(t, err)

	got, err := s.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studienplaner.db")
	src := seededStore(t)

	first, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	require.NoError(t, first.SaveSnapshot(context.Background(), src.Snapshot()))
	require.NoError(t, first.Close())

	second, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, src.Snapshot(), got)
}

// recordingStorage zählt Speichervorgänge
type recordingStorage struct {
	mu    sync.Mutex
	saves []store.Snapshot
	err   error
}

func (r *recordingStorage) SaveSnapshot(_ context.Context, snap store.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saves = append(r.saves, snap)
	return nil
}

func (r *recordingStorage) LoadSnapshot(context.Context) (store.Snapshot, error) {
	return store.Snapshot{}, nil
}

func (r *recordingStorage) Close() error { return nil }

func (r *recordingStorage) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saves)
}

func (r *recordingStorage) last() store.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves[len(r.saves)-1]
}

func TestAutosaverDebounces(t *testing.T) {
	rec := &recordingStorage{}
	src := store.New(store.WithClock(calendar.FixedClock{T: testNow}))
	saver := NewAutosaver(rec, src, 50*time.Millisecond, nil)
	saver.Start()

	for _, name := range []string{"A", "B", "C"} {
		_, err := src.AddSubject(models.Subject{Name: name})
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, rec.last().Subjects, 3)

	require.NoError(t, saver.Stop(context.Background()))
	assert.Equal(t, 2, rec.count())

	_, err := src.AddSubject(models.Subject{Name: "D"})
	require.NoError(t, err)
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, 2, rec.count())
}

func TestAutosaverIgnoresLateCallbacksAfterStop(t *testing.T) {
	rec := &recordingStorage{}
	src := store.New(store.WithClock(calendar.FixedClock{T: testNow}))
	saver := NewAutosaver(rec, src, 20*time.Millisecond, nil)
	saver.Start()

	require.NoError(t, saver.Stop(context.Background()))
	require.Equal(t, 1, rec.count())

	// Timer und Listener, die kurz vor Stop ausgelöst wurden, laufen erst danach
	change := store.Change{Kind: store.ChangeAdded, Entity: store.EntitySubject, ID: "spät"}
	saver.save(context.Background(), change)
	saver.onChange(change)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, rec.count())

	// erneutes Start nach Stop abonniert nicht wieder
	saver.Start()
	_, err := src.AddSubject(models.Subject{Name: "A"})
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestAutosaverWithoutDelaySavesImmediately(t *testing.T) {
	rec := &recordingStorage{}
	src := store.New(store.WithClock(calendar.FixedClock{T: testNow}))
	saver := NewAutosaver(rec, src, 0, nil)
	saver.Start()
	saver.Start()

	_, err := src.AddSubject(models.Subject{Name: "A"})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.count())
}

func TestAutosaverFlushError(t *testing.T) {
	rec := &recordingStorage{err: errors.New("disk voll")}
	src := store.New()
	saver := NewAutosaver(rec, src, 0, nil)
	saver.Start()

	// Fehler im Listener werden nur geloggt
	_, err := src.AddSubject(models.Subject{Name: "A"})
	require.NoError(t, err)

	assert.EqualError(t, saver.Flush(context.Background()), "disk voll")
}
