package controller

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"presence-agent/internal/command"
	"presence-agent/internal/emotion"
	"presence-agent/internal/llm"
	"presence-agent/internal/utterance"
)

func (c *Controller) chatTick(ctx context.Context, now time.Time) {
	if now.Sub(c.lastHeard) >= c.opts.ChatIdle {
		c.enterPresence(now, "idle")
		return
	}

	raw := c.listen(ctx, c.opts.ChatListen)
	if ctx.Err() != nil {
		return
	}
	heard := c.d.Now()
	if raw == "" {
		if heard.Sub(c.lastHeard) >= c.opts.ChatIdle {
			c.enterPresence(heard, "idle")
		}
		return
	}
	norm := utterance.Norm(raw)
	if utterance.LooksLikeGarbage(raw) || utterance.IsFiller(norm) || c.dedupe.Duplicate(norm, heard) {
		return
	}
	c.handleUtterance(ctx, raw, heard)
}

// handleUtterance runs one chat turn for recognized speech.
func (c *Controller) handleUtterance(ctx context.Context, raw string, at time.Time) {
	c.lastHeard = at
	if woke, rest := c.d.Wake.Detect(raw); woke {
		if !utterance.Meaningful(rest) {
			c.speak(ctx, "I'm here.")
			return
		}
		raw = rest
	}
	norm := utterance.Norm(raw)
	p := c.d.Phrases

	switch {
	case p.IsSerious(norm):
		c.event(ctx, emotion.Serious, at)
		c.speak(ctx, "Okay. Serious. Go ahead.")
		return
	case p.IsStop(norm), p.IsSleep(norm):
		c.speak(ctx, "Okay. I'll be around.")
		c.enterPresence(at, "sleep phrase")
		return
	case p.IsQuiet(norm):
		c.event(ctx, emotion.QuietDown, at)
		c.speak(ctx, "Got it. Toning it down.")
		return
	case p.IsMoodCheck(norm):
		c.speak(ctx, c.engine.Snapshot().MoodLine())
		return
	case p.IsStateDump(norm):
		c.speak(ctx, c.engine.Snapshot().Dump())
		return
	}

	if c.d.Dispatcher != nil {
		if res := c.d.Dispatcher.TryDispatch(ctx, norm, raw); res.Handled {
			if res.Response != "" {
				c.speak(ctx, res.Response)
			}
			if res.NextMode == command.ModePresence {
				c.enterPresence(at, "command")
			}
			return
		}
	}

	c.reply(ctx, raw, norm, at)
}

func (c *Controller) reply(ctx context.Context, raw, norm string, at time.Time) {
	c.event(ctx, emotion.UserSpoke, at)

	mode := llm.ModeFast
	if c.d.Phrases.WantsDeep(norm) {
		mode = llm.ModeDeep
	}

	past := c.d.History.Messages()
	if err := c.d.History.AppendUser(ctx, raw); err != nil {
		c.storeFailed("append user turn", err)
	}
	previous := c.d.History.LastAssistant()

	text, err := c.ask(ctx, past, raw, mode)
	if err == nil && sameLine(text, previous) {
		c.logger.Debug("reply repeated last answer, retrying")
		text, err = c.ask(ctx, past, raw+differentHint, mode)
		if err == nil && sameLine(text, previous) {
			text = retryLine
		}
	}
	if err != nil {
		c.logger.Warn("reply unavailable", zap.String("mode", mode.String()), zap.Error(err))
		// keep the log paired: every user turn gets an assistant turn
		if err := c.d.History.AppendAssistant(ctx, retryLine); err != nil {
			c.storeFailed("append assistant turn", err)
		}
		c.speak(ctx, retryLine)
		return
	}

	if mode == llm.ModeDeep {
		c.event(ctx, emotion.DeepReply, at)
	}
	if err := c.d.History.AppendAssistant(ctx, text); err != nil {
		c.storeFailed("append assistant turn", err)
	}
	c.speak(ctx, text)
}

// ask rebuilds the system prompt every call so it carries the current mood.
func (c *Controller) ask(ctx context.Context, past []llm.Message, userText string, mode llm.Mode) (string, error) {
	text, err := c.d.Replier.Reply(ctx, c.systemPrompt(), past, userText, mode)
	if err != nil {
		return "", err
	}
	return llm.Humanize(text), nil
}

func sameLine(a, b string) bool {
	return b != "" && strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
