package schedule

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"presence-agent/internal/storage"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestScheduler(t *testing.T) (*Scheduler, *storage.DB, *fakeClock) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "sched.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return New(db, zap.NewNop(), WithClock(clock.Now)), db, clock
}

func TestDueItems_ReturnsUntilMarked(t *testing.T) {
	ctx := context.Background()
	s, _, clock := newTestScheduler(t)

	_, err := s.Schedule(ctx, Reminder, TimerIn(clock.Now(), time.Second), "stretch")
	require.NoError(t, err)

	due, err := s.DueItems(ctx, clock.Now())
	require.NoError(t, err)
	assert.Empty(t, due)

	clock.Advance(2 * time.Second)
	due, err = s.DueItems(ctx, clock.Now())
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "stretch", due[0].Payload)
	assert.Equal(t, "Reminder reminder: stretch", due[0].Announcement())

	// not marked yet: polling again returns the same item
	again, err := s.DueItems(ctx, clock.Now())
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, due[0].ID, again[0].ID)

	require.NoError(t, s.MarkDelivered(ctx, due[0].ID))
	again, err = s.DueItems(ctx, clock.Now())
	require.NoError(t, err)
	assert.Empty(t, again)

	require.NoError(t, s.MarkDelivered(ctx, due[0].ID))
}

func TestDueItems_OrderedByDueThenID(t *testing.T) {
	ctx := context.Background()
	s, _, clock := newTestScheduler(t)
	now := clock.Now()

	b, err := s.Schedule(ctx, Timer, now.Add(2*time.Second), "b")
	require.NoError(t, err)
	a, err := s.Schedule(ctx, Alarm, now.Add(time.Second), "a")
	require.NoError(t, err)
	c, err := s.Schedule(ctx, Reminder, now.Add(2*time.Second), "c")
	require.NoError(t, err)

	due, err := s.DueItems(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, due, 3)
	assert.Equal(t, []int64{a.ID, b.ID, c.ID}, []int64{due[0].ID, due[1].ID, due[2].ID})
}

func TestDueItems_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "restart.db")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	db, err := storage.Open(path)
	require.NoError(t, err)
	first, err := New(db, nil).Schedule(ctx, Timer, now.Add(time.Minute), "tea")
	require.NoError(t, err)
	delivered, err := New(db, nil).Schedule(ctx, Timer, now.Add(time.Second), "old")
	require.NoError(t, err)
	require.NoError(t, New(db, nil).MarkDelivered(ctx, delivered.ID))
	require.NoError(t, db.Close())

	db, err = storage.Open(path)
	require.NoError(t, err)
	defer db.Close()
	due, err := New(db, nil).DueItems(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, first.ID, due[0].ID)
}

func TestDueItems_FlagsMalformedRows(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	db, err := storage.Open(filepath.Join(t.TempDir(), "bad.db"))
	require.NoError(t, err)
	defer db.Close()
	s := New(db, zap.New(core))
	now := time.Unix(5000, 0)

	_, err = db.InsertRawScheduleItem(ctx, sql.NullString{String: "timer", Valid: true}, sql.NullInt64{}, "no due", now)
	require.NoError(t, err)
	_, err = db.InsertRawScheduleItem(ctx, sql.NullString{String: "gong", Valid: true}, sql.NullInt64{Int64: now.UnixNano(), Valid: true}, "bad kind", now)
	require.NoError(t, err)
	good, err := s.Schedule(ctx, Alarm, now, "ok")
	require.NoError(t, err)

	due, err := s.DueItems(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, good.ID, due[0].ID)
	assert.Equal(t, 2, logs.FilterMessage("skipping schedule item").Len())

	n, err := db.CountFlaggedScheduleItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = s.DueItems(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, logs.FilterMessage("skipping schedule item").Len())
}

func TestSchedule_Validation(t *testing.T) {
	ctx := context.Background()
	s, _, clock := newTestScheduler(t)

	_, err := s.Schedule(ctx, Kind("gong"), clock.Now(), "x")
	assert.ErrorIs(t, err, ErrInvalidKind)
	_, err = s.Schedule(ctx, Timer, clock.Now(), "   ")
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

type brokenStore struct{ Store }

func (brokenStore) InsertScheduleItem(context.Context, string, time.Time, string, time.Time) (int64, error) {
	return 0, &storage.StoreError{Op: "insert", Err: errors.New("readonly")}
}

func TestSchedule_StoreErrorSurfaces(t *testing.T) {
	s := New(brokenStore{}, nil)
	_, err := s.Schedule(context.Background(), Timer, time.Now(), "x")
	require.Error(t, err)
	assert.True(t, storage.IsStoreError(err))
}

func TestListPendingAndCancel(t *testing.T) {
	ctx := context.Background()
	s, _, clock := newTestScheduler(t)

	a, err := s.Schedule(ctx, Timer, clock.Now().Add(time.Hour), "later")
	require.NoError(t, err)
	b, err := s.Schedule(ctx, Timer, clock.Now().Add(time.Minute), "sooner")
	require.NoError(t, err)

	pending, err := s.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, b.ID, pending[0].ID)

	require.NoError(t, s.Cancel(ctx, a.ID))
	assert.ErrorIs(t, s.Cancel(ctx, a.ID), storage.ErrNotFound)

	pending, err = s.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestListPending_FlagsMalformedRowsAndFillsPage(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	db, err := storage.Open(filepath.Join(t.TempDir(), "pending.db"))
	require.NoError(t, err)
	defer db.Close()
	s := New(db, zap.New(core))
	now := time.Unix(5000, 0)

	_, err = db.InsertRawScheduleItem(ctx, sql.NullString{String: "gong", Valid: true},
		sql.NullInt64{Int64: now.Add(time.Minute).UnixNano(), Valid: true}, "bad kind", now)
	require.NoError(t, err)
	_, err = db.InsertRawScheduleItem(ctx, sql.NullString{String: "timer", Valid: true}, sql.NullInt64{}, "no due", now)
	require.NoError(t, err)
	first, err := s.Schedule(ctx, Timer, now.Add(time.Hour), "tea")
	require.NoError(t, err)
	second, err := s.Schedule(ctx, Reminder, now.Add(2*time.Hour), "call")
	require.NoError(t, err)

	pending, err := s.ListPending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, second.ID, pending[1].ID)

	n, err := db.CountFlaggedScheduleItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, logs.FilterMessage("skipping schedule item").Len())
}

func TestAlarmAt(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	now := time.Date(2026, 5, 10, 15, 0, 0, 0, loc)

	later, err := AlarmAt("16:30", loc, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 10, 16, 30, 0, 0, loc), later)

	rolled, err := AlarmAt("09:00", loc, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 11, 9, 0, 0, 0, loc), rolled)

	same, err := AlarmAt("15:00", loc, now)
	require.NoError(t, err)
	assert.Equal(t, 11, same.Day())

	_, err = AlarmAt("25:99", loc, now)
	assert.Error(t, err)
}

func TestReminderAtAndTimerIn(t *testing.T) {
	loc := time.FixedZone("test", -5*3600)
	got, err := ReminderAt("2026-12-25 09:00", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 12, 25, 14, 0, 0, 0, time.UTC), got.UTC())

	_, err = ReminderAt("tomorrow", loc)
	assert.Error(t, err)

	now := time.Unix(0, 0)
	assert.Equal(t, now.Add(time.Second), TimerIn(now, 0))
	assert.Equal(t, now.Add(5*time.Minute), TimerIn(now, 5*time.Minute))
}
