package persona

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Holder serves the current profile and swaps it when the file changes.
type Holder struct {
	current atomic.Pointer[Profile]
	path    string
	logger  *zap.Logger

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// NewHolder loads path, or the default persona when path is empty.
func NewHolder(path string, logger *zap.Logger) (*Holder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Holder{path: path, logger: logger}
	p := Default()
	if path != "" {
		var err error
		if p, err = Load(path); err != nil {
			return nil, err
		}
	}
	h.current.Store(p)
	return h, nil
}

func (h *Holder) Profile() *Profile { return h.current.Load() }

// Watch reloads the profile whenever its file is written or replaced. Bad
// edits are logged and the previous profile stays active. It returns at once;
// call Close to stop.
func (h *Holder) Watch(ctx context.Context) error {
	if h.path == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// editors often replace the file, so watch the directory
	if err := w.Add(filepath.Dir(h.path)); err != nil {
		w.Close()
		return err
	}
	h.watcher = w
	ctx, h.cancel = context.WithCancel(ctx)
	h.wg.Add(1)
	go h.run(ctx)
	return nil
}

func (h *Holder) run(ctx context.Context) {
	defer h.wg.Done()
	const debounce = 200 * time.Millisecond
	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	target := filepath.Clean(h.path)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target || !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerCh = timer.C
		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Warn("persona watcher error", zap.Error(err))
		case <-timerCh:
			timerCh = nil
			h.reload()
		}
	}
}

func (h *Holder) reload() {
	p, err := Load(h.path)
	if err != nil {
		h.logger.Warn("persona reload failed, keeping previous", zap.Error(err))
		return
	}
	h.current.Store(p)
	h.logger.Info("persona reloaded", zap.String("name", p.Name))
}

func (h *Holder) Close() error {
	if h.cancel == nil {
		return nil
	}
	h.cancel()
	h.wg.Wait()
	h.cancel = nil
	return h.watcher.Close()
}
