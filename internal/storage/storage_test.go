package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_CorruptFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "broken.db")
	garbage := make([]byte, 8192)
	for i := range garbage {
		garbage[i] = byte(i * 7)
	}
	require.NoError(t, os.WriteFile(p, garbage, 0o644))

	_, err := Open(p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorrupt), "want ErrCorrupt, got %v", err)
}

func TestEmotionSnapshot_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	_, err := db.LoadEmotion(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	at := time.Unix(1700000000, 0).UTC()
	require.NoError(t, db.SaveEmotion(ctx, EmotionSnapshot{Levels: map[string]float64{"mood": 41.5}, UpdatedAt: at}))
	require.NoError(t, db.SaveEmotion(ctx, EmotionSnapshot{Levels: map[string]float64{"mood": 60}, UpdatedAt: at.Add(time.Second)}))

	got, err := db.LoadEmotion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 60.0, got.Levels["mood"])
	assert.Equal(t, at.Add(time.Second), got.UpdatedAt)
}

func TestChatLog_RecentAndPrune(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	base := time.Unix(100, 0)

	for i, c := range []string{"a", "b", "c", "d"} {
		_, err := db.AppendTurn(ctx, "user", c, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}

	recent, err := db.RecentTurns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].Content)
	assert.Equal(t, "d", recent[1].Content)
	assert.NotEmpty(t, recent[0].ID)

	n, err := db.PruneTurns(ctx, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	all, err := db.RecentTurns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "b", all[0].Content)
}

func TestScheduleRows_DueOrderAndDelivered(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	now := time.Unix(1000, 0)

	late, err := db.InsertScheduleItem(ctx, "timer", now.Add(-time.Second), "late", now)
	require.NoError(t, err)
	early, err := db.InsertScheduleItem(ctx, "alarm", now.Add(-time.Minute), "early", now)
	require.NoError(t, err)
	tie, err := db.InsertScheduleItem(ctx, "reminder", now.Add(-time.Second), "tie", now)
	require.NoError(t, err)
	_, err = db.InsertScheduleItem(ctx, "reminder", now.Add(time.Hour), "future", now)
	require.NoError(t, err)

	due, err := db.DueScheduleItems(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 3)
	assert.Equal(t, []int64{early, late, tie}, []int64{due[0].ID, due[1].ID, due[2].ID})

	require.NoError(t, db.MarkScheduleDelivered(ctx, early))
	require.NoError(t, db.MarkScheduleDelivered(ctx, early))

	due, err = db.DueScheduleItems(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 2)

	row, err := db.GetScheduleItem(ctx, early)
	require.NoError(t, err)
	assert.True(t, row.Delivered)
}

func TestScheduleRows_MalformedAndFlag(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	now := time.Unix(1000, 0)

	id, err := db.InsertRawScheduleItem(ctx, sql.NullString{}, sql.NullInt64{}, "orphan", now)
	require.NoError(t, err)

	due, err := db.DueScheduleItems(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.False(t, due[0].HasDue)
	assert.False(t, due[0].HasKind)

	require.NoError(t, db.FlagScheduleItem(ctx, id))
	due, err = db.DueScheduleItems(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, due)

	n, err := db.CountFlaggedScheduleItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDeleteScheduleItem(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	id, err := db.InsertScheduleItem(ctx, "timer", time.Unix(5, 0), "x", time.Unix(1, 0))
	require.NoError(t, err)

	require.NoError(t, db.DeleteScheduleItem(ctx, id))
	assert.ErrorIs(t, db.DeleteScheduleItem(ctx, id), ErrNotFound)
	_, err = db.GetScheduleItem(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVault_NotesAndTodos(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	now := time.Unix(10, 0)

	_, err := db.AddNote(ctx, "buy milk", now)
	require.NoError(t, err)
	_, err = db.AddNote(ctx, "call mom", now)
	require.NoError(t, err)
	notes, err := db.ListNotes(ctx, 8)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "call mom", notes[0].Content)

	tid, err := db.AddTodo(ctx, "fix bike", now)
	require.NoError(t, err)
	require.NoError(t, db.CompleteTodo(ctx, tid))
	assert.ErrorIs(t, db.CompleteTodo(ctx, 999), ErrNotFound)

	open, err := db.ListTodos(ctx, false, 10)
	require.NoError(t, err)
	assert.Empty(t, open)
	all, err := db.ListTodos(ctx, true, 10)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Done)
}

func TestStoreError_ClosedDB(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = db.InsertScheduleItem(context.Background(), "timer", time.Now(), "x", time.Now())
	require.Error(t, err)
	assert.True(t, IsStoreError(err))
}
