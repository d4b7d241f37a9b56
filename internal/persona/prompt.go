package persona

import (
	"strings"

	"presence-agent/internal/emotion"
)

const capabilities = "Capabilities available at runtime: persistent chat memory, notes and todos, " +
	"alarms, reminders and timers, a quick calculator, and time and system checks."

// BuildSystemPrompt is rebuilt on every reply so the model always sees the
// current mood.
func BuildSystemPrompt(p *Profile, s emotion.Snapshot) string {
	if p == nil {
		p = Default()
	}
	var b strings.Builder
	b.WriteString("You are " + p.Name + ".")
	if p.Designation != "" {
		b.WriteString(" Your formal designation is " + p.Designation + ".")
	}
	section(&b, "Voice and style", p.SpeakingStyle)
	section(&b, "Humanizer rules", p.HumanizerRules)
	section(&b, "Behavior boundaries", p.Boundaries)
	for _, c := range p.Context {
		section(&b, "Context", c)
	}
	section(&b, "Current internal state summary", s.MoodLine())
	section(&b, "Detailed internal state", strings.ReplaceAll(s.Dump(), "\n", "; "))
	b.WriteString(" " + capabilities)
	b.WriteString(" Replies are spoken aloud, so keep them short and never use lists or markdown.")
	b.WriteString(" Never claim the user said something twice unless the exact same phrase appears twice in the history.")
	return b.String()
}

func section(b *strings.Builder, title, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	b.WriteString(" " + title + ": " + text)
}
