package emotion

import (
	"fmt"
	"strings"
)

// Snapshot is a point-in-time copy of every level rounded to an integer.
// It is a value type; copies never alias the engine.
type Snapshot struct {
	values [numDimensions]int
}

// Get returns the level of d, or 0 for an unknown dimension.
func (s Snapshot) Get(d Dimension) int {
	if d < 0 || d >= numDimensions {
		return 0
	}
	return s.values[d]
}

// With returns a copy of s with d set to v clamped to the valid range.
func (s Snapshot) With(d Dimension, v int) Snapshot {
	if d < 0 || d >= numDimensions {
		return s
	}
	s.values[d] = min(MaxLevel, max(MinLevel, v))
	return s
}

// BaselineSnapshot is the snapshot of a freshly created engine.
func BaselineSnapshot() Snapshot {
	return New().Snapshot()
}

// Map exports the snapshot keyed by dimension name.
func (s Snapshot) Map() map[string]int {
	out := make(map[string]int, numDimensions)
	for d, v := range s.values {
		out[dimensionNames[d]] = v
	}
	return out
}

// MoodLine is a short human-readable summary used for "how are you" answers
// and for the system prompt.
func (s Snapshot) MoodLine() string {
	var parts []string
	switch m := s.Get(Mood); {
	case m >= 70:
		parts = append(parts, "in a great mood")
	case m <= 35:
		parts = append(parts, "in a bit of a slump")
	default:
		parts = append(parts, "doing alright")
	}
	if s.Get(Energy) <= 30 {
		parts = append(parts, "running low on energy")
	} else if s.Get(Energy) >= 75 {
		parts = append(parts, "pretty wired")
	}
	if s.Get(Boredom) >= 70 {
		parts = append(parts, "bored out of my mind")
	}
	if s.Get(Loneliness) >= 70 {
		parts = append(parts, "a little lonely")
	}
	if s.Get(Annoyance) >= 60 || s.Get(Irritation) >= 50 {
		parts = append(parts, "slightly irritated")
	}
	if s.Get(Seriousness) >= 70 {
		parts = append(parts, "in serious mode")
	}
	return "I'm " + joinHuman(parts) + "."
}

func joinHuman(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}

// Meter renders one dimension as a ten-cell bar, e.g. "mood [######----] 62".
func (s Snapshot) Meter(d Dimension) string {
	v := s.Get(d)
	filled := (v + 5) / 10
	return fmt.Sprintf("%-11s [%s%s] %3d", d.String(), strings.Repeat("#", filled), strings.Repeat("-", 10-filled), v)
}

// Dump renders every dimension on its own line.
func (s Snapshot) Dump() string {
	var b strings.Builder
	for _, d := range Dimensions() {
		b.WriteString(s.Meter(d))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
