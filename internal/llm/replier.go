package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

type Mode int

const (
	ModeFast Mode = iota
	ModeDeep
)

func (m Mode) String() string {
	if m == ModeDeep {
		return "deep"
	}
	return "fast"
}

// Replier produces a single spoken-length reply. Fast and deep clients differ
// in model and token budget.
type Replier struct {
	fast    Client
	deep    Client
	limiter *rate.Limiter
}

// NewReplier throttles calls to perMinute. Zero or less disables throttling.
// A nil deep client falls back to fast.
func NewReplier(fast, deep Client, perMinute int) *Replier {
	if deep == nil {
		deep = fast
	}
	limit := rate.Inf
	burst := 1
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
		burst = max(1, perMinute/4)
	}
	return &Replier{fast: fast, deep: deep, limiter: rate.NewLimiter(limit, burst)}
}

// Reply sends system prompt, history and the new user text. It never blocks
// on the throttle: an exhausted budget is reported as ErrUnavailable so the
// control loop can fall back instead of stalling.
func (r *Replier) Reply(ctx context.Context, systemPrompt string, history []Message, userText string, mode Mode) (string, error) {
	if !r.limiter.Allow() {
		return "", fmt.Errorf("%w: rate limited", ErrUnavailable)
	}
	client := r.fast
	if mode == ModeDeep {
		client = r.deep
	}

	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, Message{Role: "system", Content: systemPrompt})
	msgs = append(msgs, history...)
	msgs = append(msgs, Message{Role: "user", Content: strings.TrimSpace(userText)})

	resp, err := client.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("%s reply: %w", mode, err)
	}
	out := strings.Join(strings.Fields(resp.Content), " ")
	if out == "" {
		return "", fmt.Errorf("%w: empty reply", ErrUnavailable)
	}
	return out, nil
}
