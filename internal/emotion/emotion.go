// Package emotion models the assistant's mood as a set of bounded dimensions
// that relax toward fixed baselines over time and jump on discrete events.
package emotion

import (
	"math"
	"time"
)

type Dimension int

const (
	Mood Dimension = iota
	Energy
	Sass
	Jealousy
	Patience
	Affection
	Trust
	Warmth
	Focus
	Playfulness
	Seriousness
	Curiosity
	Irritation
	Annoyance
	Excitement
	Boredom
	Loneliness

	numDimensions
)

const (
	MinLevel = 0
	MaxLevel = 100
)

var dimensionNames = [numDimensions]string{
	Mood:        "mood",
	Energy:      "energy",
	Sass:        "sass",
	Jealousy:    "jealousy",
	Patience:    "patience",
	Affection:   "affection",
	Trust:       "trust",
	Warmth:      "warmth",
	Focus:       "focus",
	Playfulness: "playfulness",
	Seriousness: "seriousness",
	Curiosity:   "curiosity",
	Irritation:  "irritation",
	Annoyance:   "annoyance",
	Excitement:  "excitement",
	Boredom:     "boredom",
	Loneliness:  "loneliness",
}

func (d Dimension) String() string {
	if d < 0 || d >= numDimensions {
		return "unknown"
	}
	return dimensionNames[d]
}

// Dimensions lists every dimension in declaration order.
func Dimensions() []Dimension {
	out := make([]Dimension, numDimensions)
	for i := range out {
		out[i] = Dimension(i)
	}
	return out
}

// ParseDimension maps a name back to its Dimension.
func ParseDimension(name string) (Dimension, bool) {
	for i, n := range dimensionNames {
		if n == name {
			return Dimension(i), true
		}
	}
	return 0, false
}

// rest describes where a dimension settles when nothing happens and how fast
// it gets there (fraction of the remaining gap per second).
type rest struct {
	baseline float64
	rate     float64
}

// Boredom and loneliness rest high so idle time builds pressure to re-engage.
var rests = [numDimensions]rest{
	Mood:        {55, 1.0 / 400},
	Energy:      {55, 1.0 / 300},
	Sass:        {70, 1.0 / 1800},
	Jealousy:    {10, 1.0 / 1200},
	Patience:    {62, 1.0 / 500},
	Affection:   {64, 1.0 / 750},
	Trust:       {66, 1.0 / 1000},
	Warmth:      {68, 1.0 / 2000},
	Focus:       {58, 1.0 / 600},
	Playfulness: {60, 1.0 / 550},
	Seriousness: {45, 1.0 / 650},
	Curiosity:   {55, 1.0 / 850},
	Irritation:  {14, 1.0 / 375},
	Annoyance:   {35, 1.0 / 500},
	Excitement:  {40, 1.0 / 170},
	Boredom:     {72, 1.0 / 500},
	Loneliness:  {62, 1.0 / 1000},
}

// Baseline returns the resting value of d.
func Baseline(d Dimension) int {
	return int(rests[d].baseline)
}

// Engine holds the live levels. It is not safe for concurrent use; the
// control loop is its only writer.
type Engine struct {
	levels [numDimensions]float64
}

// New returns an engine with every dimension at its baseline.
func New() *Engine {
	e := &Engine{}
	for d := range e.levels {
		e.levels[d] = rests[d].baseline
	}
	return e
}

// Drift moves every dimension toward its baseline in proportion to elapsed
// time. The step never passes the baseline.
func (e *Engine) Drift(elapsed time.Duration) {
	sec := elapsed.Seconds()
	if sec <= 0 {
		return
	}
	for d := range e.levels {
		r := rests[d]
		k := math.Min(1, r.rate*sec)
		e.levels[d] = clamp(e.levels[d] + (r.baseline-e.levels[d])*k)
	}
}

// OnInteraction applies the deltas for ev scaled by intensity (minimum 1).
func (e *Engine) OnInteraction(ev Event, intensity int) {
	if intensity < 1 {
		intensity = 1
	}
	for _, dl := range impulses[ev] {
		step := dl.amount
		if dl.scaled {
			step *= float64(intensity)
		}
		e.levels[dl.dim] = clamp(e.levels[dl.dim] + step)
	}
}

// Snapshot returns a rounded, immutable copy of the current levels.
func (e *Engine) Snapshot() Snapshot {
	var s Snapshot
	for d, v := range e.levels {
		s.values[d] = int(math.Round(v))
	}
	return s
}

// Levels exports the raw levels keyed by dimension name for persistence.
func (e *Engine) Levels() map[string]float64 {
	out := make(map[string]float64, numDimensions)
	for d, v := range e.levels {
		out[dimensionNames[d]] = v
	}
	return out
}

// Restore loads persisted levels. Unknown names are ignored, missing ones keep
// their current value and everything is clamped.
func (e *Engine) Restore(levels map[string]float64) {
	for name, v := range levels {
		if d, ok := ParseDimension(name); ok && !math.IsNaN(v) {
			e.levels[d] = clamp(v)
		}
	}
}

func clamp(v float64) float64 {
	return math.Max(MinLevel, math.Min(MaxLevel, v))
}
