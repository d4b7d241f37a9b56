package emotion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"presence-agent/internal/storage"
)

// Store is the slice of storage the engine needs to survive restarts.
type Store interface {
	SaveEmotion(ctx context.Context, snap storage.EmotionSnapshot) error
	LoadEmotion(ctx context.Context) (storage.EmotionSnapshot, error)
}

// LoadOrDefault restores the last saved levels. It also returns when they were
// saved so the caller can drift across the downtime. When nothing is stored
// the engine starts at baselines and the time is now. A read failure still
// yields a usable default engine alongside the error.
func LoadOrDefault(ctx context.Context, st Store, now time.Time) (*Engine, time.Time, error) {
	e := New()
	snap, err := st.LoadEmotion(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return e, now, nil
	}
	if err != nil {
		return e, now, fmt.Errorf("load emotion snapshot: %w", err)
	}
	e.Restore(snap.Levels)
	last := snap.UpdatedAt
	if last.IsZero() || last.After(now) {
		last = now
	}
	return e, last, nil
}

// Save persists the engine's raw levels.
func (e *Engine) Save(ctx context.Context, st Store, now time.Time) error {
	if err := st.SaveEmotion(ctx, storage.EmotionSnapshot{Levels: e.Levels(), UpdatedAt: now}); err != nil {
		return fmt.Errorf("save emotion snapshot: %w", err)
	}
	return nil
}
