package storage

import (
	"context"
	"database/sql"
	"time"
)

type Note struct {
	ID        int64
	Content   string
	CreatedAt time.Time
}

type Todo struct {
	ID        int64
	Content   string
	Done      bool
	CreatedAt time.Time
}

func (s *DB) AddNote(ctx context.Context, content string, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO notes (content, created_at) VALUES (?, ?)`, content, now.UTC().UnixNano())
	if err != nil {
		return 0, storeErr("add note", err)
	}
	return res.LastInsertId()
}

// ListNotes returns the newest notes first.
func (s *DB) ListNotes(ctx context.Context, limit int) ([]Note, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, content, created_at FROM notes ORDER BY id DESC LIMIT ?`, max(1, limit))
	if err != nil {
		return nil, storeErr("list notes", err)
	}
	defer rows.Close()
	var out []Note
	for rows.Next() {
		var (
			n  Note
			ts int64
		)
		if err := rows.Scan(&n.ID, &n.Content, &ts); err != nil {
			return nil, storeErr("scan note", err)
		}
		n.CreatedAt = time.Unix(0, ts).UTC()
		out = append(out, n)
	}
	return out, storeErr("list notes", rows.Err())
}

func (s *DB) AddTodo(ctx context.Context, content string, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO todos (content, done, created_at) VALUES (?, 0, ?)`, content, now.UTC().UnixNano())
	if err != nil {
		return 0, storeErr("add todo", err)
	}
	return res.LastInsertId()
}

// CompleteTodo marks a todo done; ErrNotFound when the id is unknown.
func (s *DB) CompleteTodo(ctx context.Context, id int64) error {
	return s.withTx(ctx, "complete todo", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE todos SET done = 1 WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListTodos returns the newest todos first, open ones only unless includeDone.
func (s *DB) ListTodos(ctx context.Context, includeDone bool, limit int) ([]Todo, error) {
	q := `SELECT id, content, done, created_at FROM todos`
	if !includeDone {
		q += ` WHERE done = 0`
	}
	q += ` ORDER BY id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, max(1, limit))
	if err != nil {
		return nil, storeErr("list todos", err)
	}
	defer rows.Close()
	var out []Todo
	for rows.Next() {
		var (
			t    Todo
			done int
			ts   int64
		)
		if err := rows.Scan(&t.ID, &t.Content, &done, &ts); err != nil {
			return nil, storeErr("scan todo", err)
		}
		t.Done = done != 0
		t.CreatedAt = time.Unix(0, ts).UTC()
		out = append(out, t)
	}
	return out, storeErr("list todos", rows.Err())
}
