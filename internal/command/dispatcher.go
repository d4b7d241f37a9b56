// Package command answers fixed-form requests (time, math, volume, notes,
// todos, timers) without going through the language model.
package command

import (
	"context"
	"time"

	"go.uber.org/zap"

	"presence-agent/internal/schedule"
	"presence-agent/internal/storage"
)

// Mode is the conversation mode a command asks the controller to switch to.
// The zero value keeps the current mode.
type Mode string

const ModePresence Mode = "presence"

type Result struct {
	Handled  bool
	Response string
	NextMode Mode
}

func reply(text string) Result { return Result{Handled: true, Response: text} }

// Vault stores notes and todos.
type Vault interface {
	AddNote(ctx context.Context, content string, now time.Time) (int64, error)
	ListNotes(ctx context.Context, limit int) ([]storage.Note, error)
	AddTodo(ctx context.Context, content string, now time.Time) (int64, error)
	CompleteTodo(ctx context.Context, id int64) error
	ListTodos(ctx context.Context, includeDone bool, limit int) ([]storage.Todo, error)
}

// Scheduler is the part of schedule.Scheduler the commands use.
type Scheduler interface {
	Schedule(ctx context.Context, kind schedule.Kind, dueAt time.Time, payload string) (schedule.Item, error)
	ListPending(ctx context.Context, limit int) ([]schedule.Item, error)
	Cancel(ctx context.Context, id int64) error
}

// Mixer controls output volume in percent.
type Mixer interface {
	Volume() int
	SetVolume(percent int) error
}

type Dispatcher struct {
	vault     Vault
	scheduler Scheduler
	mixer     Mixer
	loc       *time.Location
	now       func() time.Time
	started   time.Time
	logger    *zap.Logger

	handlers []handler
}

type handler func(ctx context.Context, norm, raw string) (Result, bool)

type Option func(*Dispatcher)

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(d *Dispatcher) { d.loc = loc }
}

func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

func NewDispatcher(vault Vault, scheduler Scheduler, mixer Mixer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		vault:     vault,
		scheduler: scheduler,
		mixer:     mixer,
		loc:       time.UTC,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, o := range opts {
		o(d)
	}
	d.started = d.now()
	// first match wins
	d.handlers = []handler{
		d.handleHelp,
		d.handleVolume,
		d.handleTimeAndCalc,
		d.handleSchedule,
		d.handleNotes,
	}
	return d
}

// TryDispatch runs norm (normalized) and raw (as transcribed) through every
// handler. Result.Handled is false when nothing matched and the caller should
// fall back to the language model.
func (d *Dispatcher) TryDispatch(ctx context.Context, norm, raw string) Result {
	for _, h := range d.handlers {
		if res, ok := h(ctx, norm, raw); ok {
			d.logger.Debug("command handled", zap.String("input", norm))
			return res
		}
	}
	return Result{}
}

func (d *Dispatcher) failed(op string, err error) Result {
	d.logger.Warn("command failed", zap.String("op", op), zap.Error(err))
	return reply("Couldn't " + op + " right now.")
}

const helpText = "Commands: time | calc <expr> | volume <0-100> | mute | unmute | " +
	"turn up/down the volume | remember <note> | show notes | todo <task> | show todos | " +
	"done #<id> | set timer <n> minutes/seconds for <note> | remind me in <n> minutes to <note> | " +
	"set alarm HH:MM for <note> | remind me at YYYY-MM-DD HH:MM to <note> | show schedule | " +
	"cancel #<id> | system snapshot | mood check | state dump."

var helpPhrases = map[string]bool{
	"help": true, "commands": true, "what can you do": true, "capabilities": true,
	"list me your commands": true, "what are your commands": true, "show commands": true,
}

func (d *Dispatcher) handleHelp(_ context.Context, norm, _ string) (Result, bool) {
	if !helpPhrases[norm] {
		return Result{}, false
	}
	return reply(helpText), true
}
