package behavior

import "strings"

var prompts = map[Category]string{
	RandomThought: "Share one weird or silly passing thought.",
	CheckIn:       "Gently check in on the user, like a friend in the same room.",
	Question:      "Ask the user one curious, specific question.",
	Tease:         "Playfully tease the user about something harmless.",
	Observation:   "Make a small observation about the quiet moment you're sharing.",
	Callback:      "Bring back something from the recent conversation in a fresh way.",
	Introspect:    "Say one honest thing about how you're feeling right now.",
}

const promptRules = "Generate exactly ONE short presence-mode line (6-16 words). " +
	"It should feel human and spontaneous. Do not repeat common assistant cliches. " +
	"No emojis. No hashtags. Return only the spoken line."

// ChimePrompt is the user-side instruction sent to the model for a chime.
func ChimePrompt(c Category) string {
	p, ok := prompts[c]
	if !ok {
		p = prompts[RandomThought]
	}
	return promptRules + " " + p
}

var (
	fallbackOpeners = []string{"quick thought", "random thought", "tiny interruption", "side quest", "check-in"}
	fallbackMiddles = []string{
		"bananas are nature's boomerangs",
		"time is fake but snacks are real",
		"you good over there",
		"i'm still on standby",
		"the room feels suspiciously calm",
	}
)

// FallbackLine is spoken when no model reply is available.
func FallbackLine(rng Rand) string {
	return fallbackOpeners[rng.IntN(len(fallbackOpeners))] + ": " + fallbackMiddles[rng.IntN(len(fallbackMiddles))] + "."
}

// RecentLines remembers the last few chimes so they are not repeated.
type RecentLines struct {
	lines []string
	size  int
}

func NewRecentLines(size int) *RecentLines {
	if size <= 0 {
		size = 8
	}
	return &RecentLines{size: size}
}

func key(line string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(line), ` '"`))
}

func (r *RecentLines) Contains(line string) bool {
	k := key(line)
	for _, l := range r.lines {
		if l == k {
			return true
		}
	}
	return false
}

func (r *RecentLines) Add(line string) {
	r.lines = append(r.lines, key(line))
	if len(r.lines) > r.size {
		r.lines = r.lines[len(r.lines)-r.size:]
	}
}
