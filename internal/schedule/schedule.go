// Package schedule keeps user-created timers, alarms and reminders in the
// embedded store and hands them back to the control loop once they are due.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"presence-agent/internal/storage"
)

type Kind string

const (
	Timer    Kind = "timer"
	Alarm    Kind = "alarm"
	Reminder Kind = "reminder"
)

// ParseKind accepts the stored spelling of a kind.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case Timer, Alarm, Reminder:
		return k, true
	}
	return "", false
}

// Title is the capitalized kind, used when announcing an item.
func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

var (
	// ErrMalformedItem describes a stored row with a missing due time or unknown kind.
	ErrMalformedItem = errors.New("schedule: malformed item")
	ErrInvalidKind   = errors.New("schedule: unknown kind")
	ErrEmptyPayload  = errors.New("schedule: empty payload")
)

type Item struct {
	ID        int64
	Kind      Kind
	DueAt     time.Time
	Payload   string
	Delivered bool
	CreatedAt time.Time
}

// Announcement is the line spoken when the item fires.
func (it Item) Announcement() string {
	return fmt.Sprintf("%s reminder: %s", it.Kind.Title(), it.Payload)
}

// Store is the persistence surface the scheduler needs.
type Store interface {
	InsertScheduleItem(ctx context.Context, kind string, dueAt time.Time, payload string, now time.Time) (int64, error)
	DueScheduleItems(ctx context.Context, now time.Time) ([]storage.ScheduleRow, error)
	PendingScheduleItems(ctx context.Context, limit int) ([]storage.ScheduleRow, error)
	MarkScheduleDelivered(ctx context.Context, id int64) error
	FlagScheduleItem(ctx context.Context, id int64) error
	DeleteScheduleItem(ctx context.Context, id int64) error
}

type Scheduler struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

type Option func(*Scheduler)

// WithClock overrides the clock used for created_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func New(store Store, logger *zap.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{store: store, logger: logger, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Schedule stores a new undelivered item. Store failures come back as
// *storage.StoreError; nothing is dropped silently.
func (s *Scheduler) Schedule(ctx context.Context, kind Kind, dueAt time.Time, payload string) (Item, error) {
	if _, ok := ParseKind(string(kind)); !ok {
		return Item{}, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return Item{}, ErrEmptyPayload
	}
	now := s.now()
	id, err := s.store.InsertScheduleItem(ctx, string(kind), dueAt, payload, now)
	if err != nil {
		return Item{}, fmt.Errorf("schedule %s: %w", kind, err)
	}
	s.logger.Info("item scheduled", zap.Int64("id", id), zap.String("kind", string(kind)), zap.Time("due_at", dueAt))
	return Item{ID: id, Kind: kind, DueAt: dueAt.UTC(), Payload: payload, CreatedAt: now.UTC()}, nil
}

// DueItems returns undelivered items due at or before now, earliest first,
// ties by insertion order. It does not mark anything delivered. Malformed
// rows are skipped and flagged so later polls no longer see them.
func (s *Scheduler) DueItems(ctx context.Context, now time.Time) ([]Item, error) {
	rows, err := s.store.DueScheduleItems(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("due items: %w", err)
	}
	items := make([]Item, 0, len(rows))
	for _, r := range rows {
		it, err := fromRow(r)
		if err != nil {
			s.flag(ctx, r.ID, err)
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

// MarkDelivered records delivery in its own transaction. Marking twice is harmless.
func (s *Scheduler) MarkDelivered(ctx context.Context, id int64) error {
	if err := s.store.MarkScheduleDelivered(ctx, id); err != nil {
		return fmt.Errorf("mark delivered #%d: %w", id, err)
	}
	return nil
}

// ListPending returns up to limit undelivered items ordered by due time.
// Malformed rows are flagged like in DueItems and the page is read again so
// they do not take up slots.
func (s *Scheduler) ListPending(ctx context.Context, limit int) ([]Item, error) {
	for {
		rows, err := s.store.PendingScheduleItems(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("list pending: %w", err)
		}
		items := make([]Item, 0, len(rows))
		flagged := 0
		for _, r := range rows {
			it, err := fromRow(r)
			if err != nil {
				if s.flag(ctx, r.ID, err) {
					flagged++
				}
				continue
			}
			items = append(items, it)
		}
		if flagged == 0 {
			return items, nil
		}
	}
}

// flag marks a malformed row and reports whether the store accepted it.
func (s *Scheduler) flag(ctx context.Context, id int64, cause error) bool {
	s.logger.Warn("skipping schedule item", zap.Int64("id", id), zap.Error(cause))
	if err := s.store.FlagScheduleItem(ctx, id); err != nil {
		s.logger.Error("flag schedule item", zap.Int64("id", id), zap.Error(err))
		return false
	}
	return true
}

// Cancel deletes an item outright. Unknown ids yield storage.ErrNotFound.
func (s *Scheduler) Cancel(ctx context.Context, id int64) error {
	if err := s.store.DeleteScheduleItem(ctx, id); err != nil {
		return fmt.Errorf("cancel #%d: %w", id, err)
	}
	s.logger.Info("item cancelled", zap.Int64("id", id))
	return nil
}

func fromRow(r storage.ScheduleRow) (Item, error) {
	if !r.HasDue {
		return Item{}, fmt.Errorf("%w: missing due_at", ErrMalformedItem)
	}
	kind, ok := ParseKind(r.Kind)
	if !r.HasKind || !ok {
		return Item{}, fmt.Errorf("%w: kind %q", ErrMalformedItem, r.Kind)
	}
	return Item{
		ID:        r.ID,
		Kind:      kind,
		DueAt:     r.DueAt,
		Payload:   r.Payload,
		Delivered: r.Delivered,
		CreatedAt: r.CreatedAt,
	}, nil
}
