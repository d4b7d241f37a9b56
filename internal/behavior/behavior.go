// Package behavior decides what kind of unprompted line to say next and how
// long to wait before saying it, both driven by the current emotion snapshot.
package behavior

import (
	"time"

	"presence-agent/internal/emotion"
)

// Rand is the random source. *math/rand/v2.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

type Category string

const (
	RandomThought Category = "random_thought"
	CheckIn       Category = "check_in"
	Question      Category = "question"
	Tease         Category = "tease"
	Observation   Category = "observation"
	Callback      Category = "callback"
	Introspect    Category = "introspect"
)

type driver struct {
	dim  emotion.Dimension
	coef float64
}

type weighting struct {
	category Category
	base     float64
	drivers  []driver
}

// MinWeight keeps every category reachable regardless of mood.
const MinWeight = 0.05

// Order is fixed so a seeded source gives reproducible picks.
var weights = []weighting{
	{RandomThought, 0.6, []driver{{emotion.Playfulness, 0.8}, {emotion.Energy, 0.4}}},
	{CheckIn, 0.3, []driver{{emotion.Loneliness, 1.2}, {emotion.Warmth, 0.5}, {emotion.Boredom, 0.6}}},
	{Question, 0.4, []driver{{emotion.Curiosity, 1.0}}},
	{Tease, 0.2, []driver{{emotion.Sass, 0.9}, {emotion.Playfulness, 0.5}}},
	{Observation, 0.4, []driver{{emotion.Focus, 0.5}, {emotion.Curiosity, 0.4}}},
	{Callback, 0.2, []driver{{emotion.Boredom, 0.9}, {emotion.Affection, 0.4}}},
	{Introspect, 0.3, []driver{{emotion.Seriousness, 0.8}, {emotion.Boredom, -0.3}}},
}

// Categories lists every chime category.
func Categories() []Category {
	out := make([]Category, len(weights))
	for i, w := range weights {
		out[i] = w.category
	}
	return out
}

// Weights returns the floored, unnormalized weight of each category for s.
func Weights(s emotion.Snapshot) map[Category]float64 {
	out := make(map[Category]float64, len(weights))
	for _, w := range weights {
		out[w.category] = weightOf(w, s)
	}
	return out
}

func weightOf(w weighting, s emotion.Snapshot) float64 {
	v := w.base
	for _, d := range w.drivers {
		v += d.coef * float64(s.Get(d.dim)) / 100
	}
	return max(MinWeight, v)
}

// PickChimeCategory draws a category with probability proportional to its weight.
func PickChimeCategory(s emotion.Snapshot, rng Rand) Category {
	total := 0.0
	ws := make([]float64, len(weights))
	for i, w := range weights {
		ws[i] = weightOf(w, s)
		total += ws[i]
	}
	r := rng.Float64() * total
	for i, w := range ws {
		if r < w {
			return weights[i].category
		}
		r -= w
	}
	return weights[len(weights)-1].category
}

// Pacing bounds the delay between chimes.
type Pacing struct {
	Min   time.Duration
	Max   time.Duration
	Floor time.Duration
}

// DefaultFloor is the shortest allowed gap between chimes.
const DefaultFloor = 20 * time.Second

// IntervalFactor scales the base interval: bored or lonely shortens it,
// annoyed or sassy lengthens it. The result lies in [0.5, 1.6].
func IntervalFactor(s emotion.Snapshot) float64 {
	pull := float64(s.Get(emotion.Boredom)+s.Get(emotion.Loneliness)) / 200
	push := float64(s.Get(emotion.Annoyance)+s.Get(emotion.Sass)) / 200
	return 1 - 0.5*pull + 0.6*push
}

// PickNextInterval returns the wait until the next chime.
func (p Pacing) PickNextInterval(s emotion.Snapshot, rng Rand) time.Duration {
	return p.intervalAt(s, rng.Float64())
}

func (p Pacing) intervalAt(s emotion.Snapshot, u float64) time.Duration {
	lo, hi := p.Min, p.Max
	if hi < lo {
		lo, hi = hi, lo
	}
	floor := p.Floor
	if floor <= 0 {
		floor = DefaultFloor
	}
	base := float64(lo) + u*float64(hi-lo)
	return max(floor, time.Duration(base*IntervalFactor(s)))
}
