package controller

import (
	"context"
	"time"

	"go.uber.org/zap"

	"presence-agent/internal/behavior"
	"presence-agent/internal/emotion"
	"presence-agent/internal/llm"
	"presence-agent/internal/utterance"
)

func (c *Controller) presenceTick(ctx context.Context, now time.Time) {
	// chime before the poll so the response window covers this tick's listen
	if !now.Before(c.nextChimeAt) {
		c.chime(ctx, now)
	}

	raw := c.listen(ctx, c.opts.ListenPoll)
	if raw == "" || ctx.Err() != nil {
		return
	}
	heard := c.d.Now()
	norm := utterance.Norm(raw)
	if utterance.LooksLikeGarbage(raw) || utterance.IsFiller(norm) || c.dedupe.Duplicate(norm, heard) {
		return
	}

	switch {
	case c.d.Phrases.IsSerious(norm):
		c.event(ctx, emotion.Serious, heard)
		c.enterChat(heard, "serious")
		c.speak(ctx, "Okay. I'm listening.")
		return
	case c.d.Phrases.IsQuiet(norm):
		c.event(ctx, emotion.QuietDown, heard)
		c.nextChimeAt = heard.Add(c.pacing.PickNextInterval(c.engine.Snapshot(), c.d.Rand))
		c.speak(ctx, "Okay, I'll keep it down.")
		return
	case c.d.Phrases.IsSleep(norm), c.d.Phrases.IsStop(norm):
		c.responseUntil = time.Time{}
		c.speak(ctx, "Already resting.")
		return
	}

	if woke, rest := c.d.Wake.Detect(raw); woke {
		c.enterChat(heard, "wake word")
		if utterance.Meaningful(rest) {
			c.handleUtterance(ctx, rest, heard)
			return
		}
		c.speak(ctx, "Yeah?")
		return
	}

	if heard.Before(c.responseUntil) {
		c.enterChat(heard, "answered chime")
		c.handleUtterance(ctx, raw, heard)
		return
	}
	c.logger.Debug("ignored speech in presence", zap.String("text", norm))
}

// chime speaks one unprompted line. The model is asked first; a failure or a
// line said recently falls back to a canned one.
func (c *Controller) chime(ctx context.Context, now time.Time) {
	snap := c.engine.Snapshot()
	category := behavior.PickChimeCategory(snap, c.d.Rand)

	line, err := c.d.Replier.Reply(ctx, c.systemPrompt(), c.d.History.Messages(), behavior.ChimePrompt(category), llm.ModeFast)
	if err == nil {
		line = llm.Humanize(line)
	}
	switch {
	case err != nil:
		c.logger.Warn("chime reply unavailable, using fallback", zap.String("category", string(category)), zap.Error(err))
		line = behavior.FallbackLine(c.d.Rand)
	case line == "" || c.recent.Contains(line):
		c.logger.Debug("chime repeated, using fallback", zap.String("category", string(category)))
		line = behavior.FallbackLine(c.d.Rand)
	}
	c.recent.Add(line)

	if c.speak(ctx, line) {
		if err := c.d.History.AppendAssistant(ctx, line); err != nil {
			c.storeFailed("append chime", err)
		}
		c.event(ctx, emotion.ChimeDelivered, now)
		c.logger.Info("chime", zap.String("category", string(category)), zap.String("line", line))
	}

	c.nextChimeAt = now.Add(c.pacing.PickNextInterval(c.engine.Snapshot(), c.d.Rand))
	c.responseUntil = c.d.Now().Add(c.opts.ResponseWindow)
}
