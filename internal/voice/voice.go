// Package voice holds the listen/speak collaborators the controller talks
// through, plus text transports that stand in for a microphone and speaker.
package voice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrUnavailable is returned when a transport cannot listen or speak right now.
var ErrUnavailable = errors.New("voice: unavailable")

// Listener returns the next transcript heard within max, or "" on silence.
type Listener interface {
	Listen(ctx context.Context, max time.Duration) (string, error)
}

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

type Mixer interface {
	Volume() int
	SetVolume(percent int) error
}

// Transport is both ends of a half-duplex conversation.
type Transport interface {
	Listener
	Speaker
}

// SoftMixer keeps the volume in memory. Transports drop speech while it is at 0.
type SoftMixer struct {
	mu    sync.Mutex
	level int
}

func NewSoftMixer(level int) *SoftMixer {
	return &SoftMixer{level: min(100, max(0, level))}
}

func (m *SoftMixer) Volume() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

func (m *SoftMixer) SetVolume(percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("volume %d out of range", percent)
	}
	m.mu.Lock()
	m.level = percent
	m.mu.Unlock()
	return nil
}

func (m *SoftMixer) Muted() bool { return m.Volume() == 0 }

// listenOn waits up to max for a line on ch.
func listenOn(ctx context.Context, ch <-chan string, max time.Duration) (string, error) {
	timer := time.NewTimer(max)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return "", nil
	case line, ok := <-ch:
		if !ok {
			// closed input behaves like silence so the loop keeps its pace
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-timer.C:
				return "", nil
			}
		}
		return line, nil
	}
}
