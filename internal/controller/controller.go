// Package controller runs the presence/chat state machine that decides when
// the assistant listens, chimes in, talks, and goes back to idling.
package controller

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"presence-agent/internal/behavior"
	"presence-agent/internal/command"
	"presence-agent/internal/config"
	"presence-agent/internal/emotion"
	"presence-agent/internal/history"
	"presence-agent/internal/llm"
	"presence-agent/internal/persona"
	"presence-agent/internal/schedule"
	"presence-agent/internal/utterance"
	"presence-agent/internal/voice"
)

type Mode string

const (
	ModePresence Mode = "presence"
	ModeChat     Mode = "chat"
)

// Replier produces model replies.
type Replier interface {
	Reply(ctx context.Context, systemPrompt string, history []llm.Message, userText string, mode llm.Mode) (string, error)
}

type Dispatcher interface {
	TryDispatch(ctx context.Context, normalized, raw string) command.Result
}

// Scheduler is the read/mark side of the durable schedule.
type Scheduler interface {
	DueItems(ctx context.Context, now time.Time) ([]schedule.Item, error)
	MarkDelivered(ctx context.Context, id int64) error
}

type PersonaSource interface {
	Profile() *persona.Profile
}

// Options holds the loop timings.
type Options struct {
	ListenPoll     time.Duration
	ResponseWindow time.Duration
	ChimeMin       time.Duration
	ChimeMax       time.Duration
	ChatListen     time.Duration
	ChatIdle       time.Duration
	DedupeWindow   time.Duration
	// EscalateEvery logs store failures at error level every N consecutive failures.
	EscalateEvery int
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ListenPoll:     cfg.PresenceListenPoll,
		ResponseWindow: cfg.PresenceResponseWindow,
		ChimeMin:       cfg.PresenceChimeMin,
		ChimeMax:       cfg.PresenceChimeMax,
		ChatListen:     cfg.ChatListenWindow,
		ChatIdle:       cfg.ChatIdleToPresence,
		DedupeWindow:   cfg.DedupeWindow,
		EscalateEvery:  5,
	}
}

// Deps are the collaborators the controller drives. Now and Rand are
// injected so tests can run the loop on simulated time.
type Deps struct {
	Listener   voice.Listener
	Speaker    voice.Speaker
	Replier    Replier
	Dispatcher Dispatcher
	Scheduler  Scheduler
	Store      emotion.Store
	History    *history.Manager
	Persona    PersonaSource
	Wake       *utterance.WakeDetector
	Phrases    utterance.Phrases
	Rand       behavior.Rand
	Now        func() time.Time
	Logger     *zap.Logger
}

const (
	retryLine     = "I heard you. Give me one second and ask that again plainly."
	differentHint = " (Say it differently than your last answer.)"
)

type Controller struct {
	d      Deps
	opts   Options
	logger *zap.Logger

	engine *emotion.Engine
	pacing behavior.Pacing
	recent *behavior.RecentLines
	dedupe *utterance.Deduper

	mode          Mode
	lastTick      time.Time
	nextChimeAt   time.Time
	responseUntil time.Time
	lastHeard     time.Time
	storeFailures int
}

// New restores the emotion state and arms the first chime. A failed restore
// is logged and the controller starts from baselines.
func New(ctx context.Context, d Deps, opts Options) (*Controller, error) {
	if d.Listener == nil || d.Speaker == nil || d.Replier == nil || d.Store == nil || d.Rand == nil {
		return nil, errors.New("controller: listener, speaker, replier, store and rand are required")
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.History == nil {
		d.History = history.NewManager(nil, 24)
	}
	if d.Wake == nil {
		d.Wake = utterance.NewWakeDetector(nil, nil)
	}
	if opts.EscalateEvery <= 0 {
		opts.EscalateEvery = 5
	}

	c := &Controller{
		d:      d,
		opts:   opts,
		logger: d.Logger,
		pacing: behavior.Pacing{Min: opts.ChimeMin, Max: opts.ChimeMax},
		recent: behavior.NewRecentLines(8),
		dedupe: utterance.NewDeduper(opts.DedupeWindow),
		mode:   ModePresence,
	}

	now := d.Now()
	engine, savedAt, err := emotion.LoadOrDefault(ctx, d.Store, now)
	if err != nil {
		c.storeFailed("load emotion", err)
	}
	c.engine = engine
	// the first tick drifts across the downtime
	c.lastTick = savedAt
	c.nextChimeAt = now.Add(c.pacing.PickNextInterval(engine.Snapshot(), d.Rand))
	c.logger.Info("controller ready",
		zap.String("mood", engine.Snapshot().MoodLine()),
		zap.Time("next_chime", c.nextChimeAt))
	return c, nil
}

func (c *Controller) Mode() Mode { return c.mode }

func (c *Controller) Snapshot() emotion.Snapshot { return c.engine.Snapshot() }

// Run ticks until ctx is cancelled, then persists the final emotion state.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("control loop started", zap.String("mode", string(c.mode)))
	for ctx.Err() == nil {
		c.Tick(ctx)
	}
	c.teardown()
	return nil
}

func (c *Controller) teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	now := c.d.Now()
	c.engine.Drift(now.Sub(c.lastTick))
	c.lastTick = now
	if err := c.engine.Save(ctx, c.d.Store, now); err != nil {
		c.logger.Error("final emotion save failed", zap.Error(err))
		return
	}
	c.logger.Info("control loop stopped", zap.String("mood", c.engine.Snapshot().MoodLine()))
}

// Tick runs one pass: drift, persist, deliver due items, then the mode step.
func (c *Controller) Tick(ctx context.Context) {
	now := c.d.Now()
	c.engine.Drift(now.Sub(c.lastTick))
	c.lastTick = now
	c.persist(ctx, now)
	c.deliverDue(ctx, now)
	if ctx.Err() != nil {
		return
	}

	switch c.mode {
	case ModeChat:
		c.chatTick(ctx, now)
	default:
		c.presenceTick(ctx, now)
	}
}

func (c *Controller) persist(ctx context.Context, now time.Time) {
	if err := c.engine.Save(ctx, c.d.Store, now); err != nil {
		c.storeFailed("save emotion", err)
		return
	}
	c.storeOK()
}

func (c *Controller) storeFailed(op string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	c.storeFailures++
	fields := []zap.Field{zap.String("op", op), zap.Int("consecutive_failures", c.storeFailures), zap.Error(err)}
	if c.storeFailures%c.opts.EscalateEvery == 0 {
		c.logger.Error("store keeps failing, running on in-memory state", fields...)
		return
	}
	c.logger.Warn("store operation failed", fields...)
}

func (c *Controller) storeOK() {
	if c.storeFailures > 0 {
		c.logger.Info("store recovered", zap.Int("after_failures", c.storeFailures))
		c.storeFailures = 0
	}
}

// deliverDue announces before marking, so a crash in between repeats the
// announcement after restart instead of losing it.
func (c *Controller) deliverDue(ctx context.Context, now time.Time) {
	if c.d.Scheduler == nil {
		return
	}
	items, err := c.d.Scheduler.DueItems(ctx, now)
	if err != nil {
		c.storeFailed("due items", err)
		return
	}
	for _, it := range items {
		if err := c.d.Speaker.Speak(ctx, it.Announcement()); err != nil {
			c.logger.Warn("announcement not spoken, will retry", zap.Int64("item_id", it.ID), zap.Error(err))
			continue
		}
		if err := c.d.Scheduler.MarkDelivered(ctx, it.ID); err != nil {
			c.storeFailed("mark delivered", err)
			continue
		}
		c.logger.Info("schedule item delivered", zap.Int64("item_id", it.ID), zap.String("kind", string(it.Kind)))
	}
}

func (c *Controller) listen(ctx context.Context, max time.Duration) string {
	text, err := c.d.Listener.Listen(ctx, max)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warn("listen failed", zap.Error(err))
		}
		return ""
	}
	return text
}

func (c *Controller) speak(ctx context.Context, text string) bool {
	if err := c.d.Speaker.Speak(ctx, text); err != nil {
		c.logger.Warn("speak failed", zap.Error(err))
		return false
	}
	return true
}

func (c *Controller) event(ctx context.Context, ev emotion.Event, now time.Time) {
	c.engine.OnInteraction(ev, 1)
	c.persist(ctx, now)
}

func (c *Controller) systemPrompt() string {
	p := persona.Default()
	if c.d.Persona != nil {
		p = c.d.Persona.Profile()
	}
	return persona.BuildSystemPrompt(p, c.engine.Snapshot())
}

func (c *Controller) enterChat(at time.Time, reason string) {
	c.mode = ModeChat
	c.lastHeard = at
	c.responseUntil = time.Time{}
	c.logger.Info("mode change", zap.String("to", string(ModeChat)), zap.String("reason", reason))
}

func (c *Controller) enterPresence(at time.Time, reason string) {
	c.mode = ModePresence
	c.responseUntil = time.Time{}
	c.nextChimeAt = at.Add(c.pacing.PickNextInterval(c.engine.Snapshot(), c.d.Rand))
	c.logger.Info("mode change",
		zap.String("to", string(ModePresence)),
		zap.String("reason", reason),
		zap.Time("next_chime", c.nextChimeAt))
}
