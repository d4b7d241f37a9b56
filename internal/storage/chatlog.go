package storage

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Turn is a single row of the append-only chat log.
type Turn struct {
	ID        string
	Role      string
	Content   string
	CreatedAt time.Time
}

func newTurnID(at time.Time) string {
	return ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String()
}

// AppendTurn appends a turn to the chat log and returns it with its assigned ID.
func (s *DB) AppendTurn(ctx context.Context, role, content string, at time.Time) (Turn, error) {
	t := Turn{ID: newTurnID(at), Role: role, Content: content, CreatedAt: at.UTC()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_log (id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.Role, t.Content, t.CreatedAt.UnixNano())
	if err != nil {
		return Turn{}, storeErr("append turn", err)
	}
	return t, nil
}

// RecentTurns returns up to limit most recent turns in chronological order.
func (s *DB) RecentTurns(ctx context.Context, limit int) ([]Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, created_at FROM chat_log ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, storeErr("recent turns", err)
	}
	defer rows.Close()

	var out []Turn
	for rows.Next() {
		var (
			t  Turn
			ts int64
		)
		if err := rows.Scan(&t.ID, &t.Role, &t.Content, &ts); err != nil {
			return nil, storeErr("scan turn", err)
		}
		t.CreatedAt = time.Unix(0, ts).UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("recent turns", err)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// PruneTurns keeps the newest keep rows and returns how many were removed.
func (s *DB) PruneTurns(ctx context.Context, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_log WHERE seq NOT IN (SELECT seq FROM chat_log ORDER BY seq DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, storeErr("prune turns", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ClearTurns wipes the chat log.
func (s *DB) ClearTurns(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chat_log`)
	return storeErr("clear turns", err)
}
