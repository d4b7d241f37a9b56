package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EmotionSnapshot is the single persisted row of emotion levels keyed by dimension name.
type EmotionSnapshot struct {
	Levels    map[string]float64
	UpdatedAt time.Time
}

// SaveEmotion overwrites the snapshot row.
func (s *DB) SaveEmotion(ctx context.Context, snap EmotionSnapshot) error {
	b, err := json.Marshal(snap.Levels)
	if err != nil {
		return fmt.Errorf("encode levels: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO emotion_snapshot (id, levels, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET levels = excluded.levels, updated_at = excluded.updated_at`,
		string(b), snap.UpdatedAt.UTC().UnixNano())
	return storeErr("save emotion snapshot", err)
}

// LoadEmotion returns the snapshot row, or ErrNotFound when none was saved yet.
func (s *DB) LoadEmotion(ctx context.Context) (EmotionSnapshot, error) {
	var (
		raw     string
		updated int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT levels, updated_at FROM emotion_snapshot WHERE id = 1`).Scan(&raw, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return EmotionSnapshot{}, ErrNotFound
	}
	if err != nil {
		return EmotionSnapshot{}, storeErr("load emotion snapshot", err)
	}
	var levels map[string]float64
	if err := json.Unmarshal([]byte(raw), &levels); err != nil {
		return EmotionSnapshot{}, storeErr("decode emotion snapshot", err)
	}
	return EmotionSnapshot{Levels: levels, UpdatedAt: time.Unix(0, updated).UTC()}, nil
}
