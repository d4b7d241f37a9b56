// Package history keeps the recent conversation window fed to the model,
// mirrored into the durable chat log so it survives restarts.
package history

import (
	"context"
	"strings"
	"sync"
	"time"

	"presence-agent/internal/llm"
	"presence-agent/internal/storage"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Log is the durable side of the history.
type Log interface {
	AppendTurn(ctx context.Context, role, content string, at time.Time) (storage.Turn, error)
	RecentTurns(ctx context.Context, limit int) ([]storage.Turn, error)
	ClearTurns(ctx context.Context) error
}

type Manager struct {
	mu     sync.RWMutex
	log    Log
	window int
	turns  []llm.Message
	now    func() time.Time
}

// NewManager returns a manager holding at most window turns in memory.
// A nil log keeps the history in memory only.
func NewManager(log Log, window int) *Manager {
	if window <= 0 {
		window = 24
	}
	return &Manager{log: log, window: window, now: time.Now}
}

// Load replaces the in-memory window with the newest turns from the log.
func (m *Manager) Load(ctx context.Context) error {
	if m.log == nil {
		return nil
	}
	turns, err := m.log.RecentTurns(ctx, m.window)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = m.turns[:0]
	for _, t := range turns {
		m.appendLocked(llm.Message{Role: t.Role, Content: t.Content})
	}
	return nil
}

func (m *Manager) AppendUser(ctx context.Context, content string) error {
	return m.append(ctx, RoleUser, content)
}

func (m *Manager) AppendAssistant(ctx context.Context, content string) error {
	return m.append(ctx, RoleAssistant, content)
}

// append drops blank turns and exact repeats of the previous turn. The
// in-memory window is updated even when the durable write fails.
func (m *Manager) append(ctx context.Context, role, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	m.mu.Lock()
	added := m.appendLocked(llm.Message{Role: role, Content: content})
	m.mu.Unlock()
	if !added || m.log == nil {
		return nil
	}
	_, err := m.log.AppendTurn(ctx, role, content, m.now())
	return err
}

func (m *Manager) appendLocked(msg llm.Message) bool {
	if n := len(m.turns); n > 0 && m.turns[n-1] == msg {
		return false
	}
	m.turns = append(m.turns, msg)
	if len(m.turns) > m.window {
		m.turns = append(m.turns[:0], m.turns[len(m.turns)-m.window:]...)
	}
	return true
}

// Messages returns a copy of the window, oldest first.
func (m *Manager) Messages() []llm.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]llm.Message, len(m.turns))
	copy(out, m.turns)
	return out
}

// LastAssistant returns the most recent assistant turn, or "".
func (m *Manager) LastAssistant() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.turns) - 1; i >= 0; i-- {
		if m.turns[i].Role == RoleAssistant {
			return m.turns[i].Content
		}
	}
	return ""
}

// Reset clears both the window and the durable log.
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	m.turns = nil
	m.mu.Unlock()
	if m.log == nil {
		return nil
	}
	return m.log.ClearTurns(ctx)
}
