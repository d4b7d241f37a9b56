package voice

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Console reads transcripts line by line from r and prints speech to w.
type Console struct {
	name   string
	w      io.Writer
	mixer  *SoftMixer
	logger *zap.Logger

	mu    sync.Mutex
	lines chan string
}

func NewConsole(r io.Reader, w io.Writer, name string, mixer *SoftMixer, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Console{
		name:   name,
		w:      w,
		mixer:  mixer,
		logger: logger,
		lines:  make(chan string, 16),
	}
	go c.read(r)
	return c
}

func (c *Console) read(r io.Reader) {
	defer close(c.lines)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		c.lines <- line
	}
	if err := sc.Err(); err != nil {
		c.logger.Warn("console input stopped", zap.Error(err))
	}
}

func (c *Console) Listen(ctx context.Context, max time.Duration) (string, error) {
	return listenOn(ctx, c.lines, max)
}

func (c *Console) Speak(_ context.Context, text string) error {
	if c.mixer != nil && c.mixer.Muted() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintf(c.w, "%s: %s\n", c.name, text); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
