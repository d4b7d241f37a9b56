package utterance

import "time"

// Deduper drops a transcript identical to the previous one when it arrives
// within the window, which is what echo and double-triggered capture produce.
type Deduper struct {
	window time.Duration
	last   string
	at     time.Time
}

func NewDeduper(window time.Duration) *Deduper {
	return &Deduper{window: window}
}

// Duplicate records normalized as heard at now and reports whether it repeats
// the previous transcript inside the window.
func (d *Deduper) Duplicate(normalized string, now time.Time) bool {
	dup := normalized != "" && normalized == d.last && now.Sub(d.at) < d.window
	d.last, d.at = normalized, now
	return dup
}
