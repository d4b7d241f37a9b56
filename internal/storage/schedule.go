package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ScheduleRow mirrors a schedule_items row. Kind and DueAt may be absent on
// rows written by older builds or by hand; HasKind/HasDue report that.
type ScheduleRow struct {
	ID        int64
	Kind      string
	HasKind   bool
	DueAt     time.Time
	HasDue    bool
	Payload   string
	Delivered bool
	CreatedAt time.Time
}

const scheduleColumns = `id, kind, due_at, payload, delivered, created_at`

func scanScheduleRow(sc interface{ Scan(...any) error }) (ScheduleRow, error) {
	var (
		r         ScheduleRow
		kind      sql.NullString
		due       sql.NullInt64
		delivered int
		created   int64
	)
	if err := sc.Scan(&r.ID, &kind, &due, &r.Payload, &delivered, &created); err != nil {
		return ScheduleRow{}, err
	}
	r.Kind, r.HasKind = kind.String, kind.Valid && kind.String != ""
	if due.Valid {
		r.DueAt, r.HasDue = time.Unix(0, due.Int64).UTC(), true
	}
	r.Delivered = delivered != 0
	r.CreatedAt = time.Unix(0, created).UTC()
	return r, nil
}

// InsertScheduleItem stores a new undelivered item and returns its id.
func (s *DB) InsertScheduleItem(ctx context.Context, kind string, dueAt time.Time, payload string, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO schedule_items (kind, due_at, payload, delivered, flagged, created_at) VALUES (?, ?, ?, 0, 0, ?)`,
		kind, dueAt.UTC().UnixNano(), payload, now.UTC().UnixNano())
	if err != nil {
		return 0, storeErr("insert schedule item", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("insert schedule item", err)
	}
	return id, nil
}

// DueScheduleItems returns undelivered, unflagged rows due at or before now,
// earliest first with ties in insertion order. Rows without a due time are
// included so the caller can flag them.
func (s *DB) DueScheduleItems(ctx context.Context, now time.Time) ([]ScheduleRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM schedule_items
		 WHERE delivered = 0 AND flagged = 0 AND (due_at IS NULL OR due_at <= ?)
		 ORDER BY due_at ASC, id ASC`, now.UTC().UnixNano())
	if err != nil {
		return nil, storeErr("due schedule items", err)
	}
	return collectScheduleRows(rows, "due schedule items")
}

// PendingScheduleItems lists undelivered, unflagged rows by due time.
func (s *DB) PendingScheduleItems(ctx context.Context, limit int) ([]ScheduleRow, error) {
	if limit < 1 {
		limit = 1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM schedule_items
		 WHERE delivered = 0 AND flagged = 0
		 ORDER BY due_at ASC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, storeErr("pending schedule items", err)
	}
	return collectScheduleRows(rows, "pending schedule items")
}

func collectScheduleRows(rows *sql.Rows, op string) ([]ScheduleRow, error) {
	defer rows.Close()
	var out []ScheduleRow
	for rows.Next() {
		r, err := scanScheduleRow(rows)
		if err != nil {
			return nil, storeErr(op, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return out, nil
}

// GetScheduleItem loads a single row by id.
func (s *DB) GetScheduleItem(ctx context.Context, id int64) (ScheduleRow, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+scheduleColumns+` FROM schedule_items WHERE id = ?`, id)
	r, err := scanScheduleRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ScheduleRow{}, ErrNotFound
	}
	if err != nil {
		return ScheduleRow{}, storeErr("get schedule item", err)
	}
	return r, nil
}

// MarkScheduleDelivered sets delivered=1 in its own transaction. Repeating it is a no-op.
func (s *DB) MarkScheduleDelivered(ctx context.Context, id int64) error {
	return s.withTx(ctx, "mark delivered", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `UPDATE schedule_items SET delivered = 1 WHERE id = ?`, id)
		return err
	})
}

// FlagScheduleItem excludes a malformed row from future polling.
func (s *DB) FlagScheduleItem(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE schedule_items SET flagged = 1 WHERE id = ?`, id)
	return storeErr("flag schedule item", err)
}

// CountFlaggedScheduleItems reports how many rows were flagged as malformed.
func (s *DB) CountFlaggedScheduleItems(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schedule_items WHERE flagged = 1`).Scan(&n)
	if err != nil {
		return 0, storeErr("count flagged", err)
	}
	return n, nil
}

// DeleteScheduleItem removes a row; ErrNotFound when it does not exist.
func (s *DB) DeleteScheduleItem(ctx context.Context, id int64) error {
	return s.withTx(ctx, "delete schedule item", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM schedule_items WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// InsertRawScheduleItem writes a row without validation. It exists for imports
// and for exercising the malformed-row path.
func (s *DB) InsertRawScheduleItem(ctx context.Context, kind sql.NullString, dueAt sql.NullInt64, payload string, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO schedule_items (kind, due_at, payload, created_at) VALUES (?, ?, ?, ?)`,
		kind, dueAt, payload, now.UTC().UnixNano())
	if err != nil {
		return 0, storeErr("insert raw schedule item", err)
	}
	return res.LastInsertId()
}
