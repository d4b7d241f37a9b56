package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"presence-agent/internal/schedule"
	"presence-agent/internal/storage"
)

var (
	reVolumeSet  = regexp.MustCompile(`^(?:set )?volume (?:to )?(\d{1,3})(?: percent)?$`)
	reTurnUp     = regexp.MustCompile(`^turn (?:it )?up(?: the)?(?: volume)?$`)
	reTurnDown   = regexp.MustCompile(`^turn (?:it )?down(?: the)?(?: volume)?$`)
	reTimer      = regexp.MustCompile(`^set (?:a )?timer(?: for)? ([a-z0-9-]+) (second|seconds|minute|minutes|hour|hours)(?: for (.+))?$`)
	reRemindIn   = regexp.MustCompile(`^remind me in ([a-z0-9-]+) (minute|minutes|hour|hours) to (.+)$`)
	reAlarm      = regexp.MustCompile(`^set (?:an )?alarm (?:for )?(\d{1,2}:\d{2})(?: for (.+))?$`)
	reRemindAt   = regexp.MustCompile(`^remind me at (\d{4}-\d{2}-\d{2} \d{1,2}:\d{2}) to (.+)$`)
	reCancel     = regexp.MustCompile(`^(?:cancel|delete) (?:timer |alarm |reminder )?#?(\d+)$`)
	reNote       = regexp.MustCompile(`(?i)^(?:remember|note|jot down|jot|write down|save note|make a note)\s+(.+)$`)
	reTodo       = regexp.MustCompile(`(?i)^(?:todo|task|add task|add to my list|add to list)\s+(.+)$`)
	reDone       = regexp.MustCompile(`^(?:done|complete) #?(\d+)$`)
	reCalcPrefix = regexp.MustCompile(`(?i)^(?:calc|calculate)\s+`)
)

// clean lowercases raw and strips trailing sentence punctuation while keeping
// the colons and dashes times and dates need.
func clean(raw string) string {
	s := strings.ToLower(strings.Join(strings.Fields(raw), " "))
	return strings.TrimRight(s, ".!? ")
}

func (d *Dispatcher) handleVolume(_ context.Context, norm, _ string) (Result, bool) {
	if d.mixer == nil {
		return Result{}, false
	}
	set := func(level int, ok string) (Result, bool) {
		if err := d.mixer.SetVolume(level); err != nil {
			return d.failed("change the volume", err), true
		}
		return reply(ok), true
	}
	switch norm {
	case "mute", "silence", "go mute", "mute yourself":
		return set(0, "Muted.")
	case "unmute", "unmute yourself", "unsilence":
		return set(60, "Back.")
	case "what s the volume", "whats the volume", "current volume", "volume status", "volume":
		return reply(fmt.Sprintf("Volume is at %d percent.", d.mixer.Volume())), true
	}
	if reTurnUp.MatchString(norm) {
		return set(min(100, d.mixer.Volume()+20), "Turned it up.")
	}
	if reTurnDown.MatchString(norm) {
		return set(max(0, d.mixer.Volume()-20), "Turned it down.")
	}
	if m := reVolumeSet.FindStringSubmatch(norm); m != nil {
		level, _ := strconv.Atoi(m[1])
		if level > 100 {
			return reply("Give me a number between 0 and 100."), true
		}
		return set(level, fmt.Sprintf("Volume set to %d percent.", level))
	}
	return Result{}, false
}

func (d *Dispatcher) handleTimeAndCalc(_ context.Context, norm, raw string) (Result, bool) {
	switch {
	case strings.Contains(norm, "what time"), norm == "time", norm == "current time":
		now := d.now().In(d.loc)
		return reply(fmt.Sprintf("It's %s on %s.", now.Format("3:04 PM"), now.Format("Monday, January 2, 2006"))), true
	case strings.HasPrefix(norm, "calc ") || strings.HasPrefix(norm, "calculate "):
		expr := reCalcPrefix.ReplaceAllString(strings.TrimSpace(raw), "")
		v, err := Calculate(expr)
		if err != nil {
			return reply("Math blew up: " + err.Error()), true
		}
		return reply("That's " + v + "."), true
	case norm == "system" || norm == "system status" || norm == "system snapshot":
		return reply(d.systemSnapshot()), true
	}
	return Result{}, false
}

func (d *Dispatcher) systemSnapshot() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return fmt.Sprintf("host=%s, os=%s/%s, go=%s, up %s, heap=%s, goroutines=%d",
		host, runtime.GOOS, runtime.GOARCH, runtime.Version(),
		d.now().Sub(d.started).Round(time.Second), humanize.IBytes(ms.HeapAlloc), runtime.NumGoroutine())
}

func unitDuration(unit string) time.Duration {
	switch {
	case strings.HasPrefix(unit, "hour"):
		return time.Hour
	case strings.HasPrefix(unit, "minute"):
		return time.Minute
	default:
		return time.Second
	}
}

// maxSpan caps timers and relative reminders.
const maxSpan = 365 * 24 * time.Hour

const tooLong = "That's too long. Keep it under a year."

// span multiplies qty by unit, refusing anything past maxSpan before the
// multiplication can overflow.
func span(qty int, unit string) (time.Duration, bool) {
	u := unitDuration(unit)
	if qty < 0 || int64(qty) > int64(maxSpan/u) {
		return 0, false
	}
	return time.Duration(qty) * u, true
}

func (d *Dispatcher) scheduled(it schedule.Item, now time.Time) string {
	return fmt.Sprintf("%s #%d set for %s, %s: %s",
		it.Kind.Title(), it.ID, it.DueAt.In(d.loc).Format("3:04 PM"),
		humanize.RelTime(it.DueAt, now, "ago", "from now"), it.Payload)
}

func (d *Dispatcher) handleSchedule(ctx context.Context, norm, raw string) (Result, bool) {
	if d.scheduler == nil {
		return Result{}, false
	}
	text := clean(raw)
	now := d.now()

	add := func(kind schedule.Kind, due time.Time, payload string) (Result, bool) {
		it, err := d.scheduler.Schedule(ctx, kind, due, payload)
		if err != nil {
			return d.failed("save that "+string(kind), err), true
		}
		return reply(d.scheduled(it, now)), true
	}

	if m := reTimer.FindStringSubmatch(text); m != nil {
		qty, ok := ParseNumber(m[1])
		if !ok {
			return reply("Couldn't parse that number. Try 'set timer 5 minutes'."), true
		}
		dur, ok := span(qty, m[2])
		if !ok {
			return reply(tooLong), true
		}
		note := strings.TrimSpace(m[3])
		if note == "" {
			note = "timer done"
		}
		return add(schedule.Timer, schedule.TimerIn(now, dur), note)
	}
	if m := reRemindIn.FindStringSubmatch(text); m != nil {
		qty, ok := ParseNumber(m[1])
		if !ok {
			return reply("Couldn't parse that number."), true
		}
		dur, ok := span(qty, m[2])
		if !ok {
			return reply(tooLong), true
		}
		return add(schedule.Reminder, schedule.TimerIn(now, dur), m[3])
	}
	if m := reAlarm.FindStringSubmatch(text); m != nil {
		due, err := schedule.AlarmAt(m[1], d.loc, now)
		if err != nil {
			return reply("Couldn't set alarm: " + err.Error()), true
		}
		label := strings.TrimSpace(m[2])
		if label == "" {
			label = "alarm"
		}
		return add(schedule.Alarm, due, label)
	}
	if m := reRemindAt.FindStringSubmatch(text); m != nil {
		when := m[1]
		if len(when) == len("2006-01-02 1:04") {
			when = when[:11] + "0" + when[11:]
		}
		due, err := schedule.ReminderAt(when, d.loc)
		if err != nil {
			return reply("Couldn't set that: " + err.Error()), true
		}
		if !due.After(now) {
			return reply("That time already passed."), true
		}
		return add(schedule.Reminder, due, m[2])
	}
	if m := reCancel.FindStringSubmatch(norm); m != nil {
		id, _ := strconv.ParseInt(m[1], 10, 64)
		err := d.scheduler.Cancel(ctx, id)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return reply(fmt.Sprintf("There's no item #%d.", id)), true
		case err != nil:
			return d.failed("cancel that", err), true
		}
		return reply(fmt.Sprintf("Cancelled #%d.", id)), true
	}
	switch norm {
	case "show reminders", "show alarms", "show timers", "schedule", "show schedule":
		items, err := d.scheduler.ListPending(ctx, 12)
		if err != nil {
			return d.failed("read the schedule", err), true
		}
		if len(items) == 0 {
			return reply("Nothing pending."), true
		}
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = fmt.Sprintf("#%d [%s] %s at %s", it.ID, it.Kind, it.Payload, it.DueAt.In(d.loc).Format("Jan 2 3:04 PM"))
		}
		return reply(strings.Join(parts, "; ")), true
	}
	return Result{}, false
}

func (d *Dispatcher) handleNotes(ctx context.Context, norm, raw string) (Result, bool) {
	if d.vault == nil {
		return Result{}, false
	}
	raw = strings.TrimSpace(raw)

	if m := reNote.FindStringSubmatch(raw); m != nil {
		content := strings.TrimSpace(m[1])
		id, err := d.vault.AddNote(ctx, content, d.now())
		if err != nil {
			return d.failed("save that note", err), true
		}
		return reply(fmt.Sprintf("Saved note #%d: %s", id, content)), true
	}
	if m := reTodo.FindStringSubmatch(raw); m != nil {
		content := strings.TrimSpace(m[1])
		id, err := d.vault.AddTodo(ctx, content, d.now())
		if err != nil {
			return d.failed("add that todo", err), true
		}
		return reply(fmt.Sprintf("Added todo #%d: %s", id, content)), true
	}
	if m := reDone.FindStringSubmatch(norm); m != nil {
		id, _ := strconv.ParseInt(m[1], 10, 64)
		err := d.vault.CompleteTodo(ctx, id)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return reply(fmt.Sprintf("Couldn't find todo #%d.", id)), true
		case err != nil:
			return d.failed("update that todo", err), true
		}
		return reply(fmt.Sprintf("Done #%d.", id)), true
	}

	switch norm {
	case "show notes", "list notes", "notes":
		notes, err := d.vault.ListNotes(ctx, 8)
		if err != nil {
			return d.failed("read your notes", err), true
		}
		if len(notes) == 0 {
			return reply("No notes yet."), true
		}
		parts := make([]string, len(notes))
		for i, n := range notes {
			parts[i] = fmt.Sprintf("#%d: %s", n.ID, n.Content)
		}
		return reply(strings.Join(parts, "; ")), true
	case "show todos", "list todos", "todos":
		todos, err := d.vault.ListTodos(ctx, false, 10)
		if err != nil {
			return d.failed("read your todos", err), true
		}
		if len(todos) == 0 {
			return reply("No open todos."), true
		}
		parts := make([]string, len(todos))
		for i, t := range todos {
			parts[i] = fmt.Sprintf("#%d: %s", t.ID, t.Content)
		}
		return reply(strings.Join(parts, "; ")), true
	}
	return Result{}, false
}
